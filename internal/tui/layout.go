package tui

// layout splits the terminal into the input row, the result list on the
// left, the preview on the right and the status bar.
type layout struct {
	width, height int
}

const (
	listShare   = 40 // percent of the width given to the list
	borderWidth = 4
	chromeRows  = 6 // input row, status bar and two bordered panels
	rowsPerItem = 2
)

func (l layout) ready() bool { return l.width > 0 && l.height > 0 }

func (l layout) listWidth() int {
	if l.width <= 0 {
		return 40
	}
	return max(20, l.width*listShare/100-borderWidth)
}

func (l layout) previewWidth() int {
	if l.width <= 0 {
		return 60
	}
	return max(20, l.width*(100-listShare)/100-borderWidth)
}

func (l layout) panelHeight() int {
	if l.height <= 0 {
		return 20
	}
	return max(5, l.height-chromeRows)
}

func (l layout) visibleItems() int {
	return max(1, l.panelHeight()/rowsPerItem)
}

type region int

const (
	regionNone region = iota
	regionList
	regionPreview
)

// at maps a mouse position to a panel. For the list it also returns the
// item offset from the first visible row.
func (l layout) at(x, y int) (region, int) {
	// row 0 is the input, row 1 the top border
	row := y - 2
	if row < 0 || row >= l.panelHeight() {
		return regionNone, -1
	}
	lw := l.listWidth()
	switch {
	case x >= 1 && x <= lw:
		return regionList, row / rowsPerItem
	case x > lw+2:
		return regionPreview, -1
	}
	return regionNone, -1
}

// scrollTo returns the first visible row that keeps sel on screen.
func (l layout) scrollTo(sel, top int) int {
	n := l.visibleItems()
	if sel < top {
		return sel
	}
	if sel >= top+n {
		return sel - n + 1
	}
	return top
}
