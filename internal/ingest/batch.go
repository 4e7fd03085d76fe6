package ingest

import (
	"encoding/json"
	"fmt"

	"github.com/Zuo-Peng/ai-chat-archive/internal/logger"
	"github.com/Zuo-Peng/ai-chat-archive/internal/merge"
	"github.com/Zuo-Peng/ai-chat-archive/internal/parse"
)

// Blob is one input file's bytes.
type Blob struct {
	Name string
	Data []byte
}

// ItemResult is the outcome of one conversation object. Exactly one of
// Conversation and Err is set.
type ItemResult struct {
	File         string
	Index        int // 1-based position within File
	Label        string
	Conversation *parse.Conversation
	Err          error
}

func (r ItemResult) Warning() string {
	if r.Index == 0 {
		return fmt.Sprintf("%s: %v", r.File, r.Err)
	}
	return fmt.Sprintf("%s: item %d%s: %v", r.File, r.Index, r.Label, r.Err)
}

type Report struct {
	Conversations []parse.Conversation
	Warnings      []string
	Items         []ItemResult
}

func (r Report) Failed() int {
	n := 0
	for _, it := range r.Items {
		if it.Err != nil {
			n++
		}
	}
	return n
}

// ParseBatch parses every conversation in every blob. A failing file or
// conversation is recorded in the report and never stops the rest.
func ParseBatch(blobs []Blob, opts parse.Options) Report {
	var rep Report
	for _, blob := range blobs {
		raws, err := SplitDocument(blob.Data)
		if err != nil {
			rep.addFailure(ItemResult{File: blob.Name, Err: err})
			continue
		}
		for i, raw := range raws {
			res := parseItem(raw, opts)
			res.File = blob.Name
			res.Index = i + 1
			if res.Err != nil {
				rep.addFailure(res)
				continue
			}
			rep.Items = append(rep.Items, res)
			rep.Conversations = append(rep.Conversations, *res.Conversation)
		}
	}

	deduped, dupWarnings := merge.DedupeBatch(rep.Conversations)
	rep.Conversations = deduped
	for _, w := range dupWarnings {
		logger.Debugf("%s", w)
		rep.Warnings = append(rep.Warnings, w)
	}
	return rep
}

func (r *Report) addFailure(res ItemResult) {
	logger.WithField("file", res.File).Debug().Int("item", res.Index).Err(res.Err).Msg("skipped")
	r.Items = append(r.Items, res)
	r.Warnings = append(r.Warnings, res.Warning())
}

func parseItem(raw parse.RawConversation, opts parse.Options) (res ItemResult) {
	res.Label = itemLabel(raw)
	defer func() {
		if p := recover(); p != nil {
			res.Conversation = nil
			res.Err = fmt.Errorf("parser panic: %v", p)
		}
	}()
	res.Conversation, res.Err = parse.ParseConversation(raw, opts)
	return res
}

// itemLabel names an item in warnings by whatever title or id it carries.
func itemLabel(raw parse.RawConversation) string {
	var head struct {
		Title string `json:"title"`
		Name  string `json:"name"`
		ID    string `json:"id"`
		UUID  string `json:"uuid"`
	}
	if json.Unmarshal(raw, &head) != nil {
		return ""
	}
	for _, s := range []string{head.Title, head.Name, head.ID, head.UUID} {
		if s != "" {
			return fmt.Sprintf(" (%q)", s)
		}
	}
	return ""
}
