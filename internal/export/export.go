package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Zuo-Peng/ai-chat-archive/internal/parse"
)

// Write encodes convs as an app export, the format the importer reads back
// field for field.
func Write(w io.Writer, convs []parse.Conversation, indent bool) error {
	if convs == nil {
		convs = []parse.Conversation{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(convs); err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	return nil
}

// WriteFile writes the export to path through a temp file and rename.
func WriteFile(path string, convs []parse.Conversation, indent bool) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	f, err := os.CreateTemp(dir, ".aca-export-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(f.Name())

	if err := Write(f, convs, indent); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close export: %w", err)
	}
	return os.Rename(f.Name(), path)
}
