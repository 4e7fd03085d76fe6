package parse

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"
)

type toolUseBlock struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Input          json.RawMessage `json:"input"`
	DisplayContent json.RawMessage `json:"display_content"`
}

type displayContent struct {
	Type      string          `json:"type"`
	JSONBlock json.RawMessage `json:"json_block"`
	Code      *string         `json:"code"`
	Language  string          `json:"language"`
	Filename  string          `json:"filename"`
	Title     string          `json:"title"`
}

type jsonBlockBody struct {
	ID       string  `json:"id"`
	Code     *string `json:"code"`
	Content  *string `json:"content"`
	Language string  `json:"language"`
	Type     string  `json:"type"`
	Filename string  `json:"filename"`
	Title    string  `json:"title"`
}

type toolInput struct {
	ID       string  `json:"id"`
	Path     string  `json:"path"`
	FileText *string `json:"file_text"`
	Content  *string `json:"content"`
	Type     string  `json:"type"`
	Language string  `json:"language"`
	Title    string  `json:"title"`
}

// artifactCandidate turns one tool_use representation into an Artifact, or
// reports false when the representation does not apply.
type artifactCandidate func(b toolUseBlock) (Artifact, bool)

// artifactCandidates are tried in priority order; the first match wins so a
// block never yields two artifacts.
var artifactCandidates = []artifactCandidate{
	jsonBlockArtifact,
	codeBlockArtifact,
	createFileArtifact,
	legacyArtifact,
}

// extractArtifact pulls at most one artifact out of a tool_use block. n is the
// artifact's position within its message and only used for synthesized ids.
func extractArtifact(b toolUseBlock, msgID string, n int) (Artifact, bool) {
	for _, try := range artifactCandidates {
		a, ok := try(b)
		if !ok {
			continue
		}
		if a.ID == "" {
			a.ID = b.ID
		}
		if a.ID == "" {
			a.ID = fmt.Sprintf("%s-artifact-%d", msgID, n)
		}
		if a.Title == "" {
			a.Title = b.Name
		}
		if a.Type == "" {
			a.Type = "text"
		}
		return a, true
	}
	return Artifact{}, false
}

func decodeDisplay(b toolUseBlock) (displayContent, bool) {
	var dc displayContent
	if !isObject(b.DisplayContent) {
		return dc, false
	}
	if err := json.Unmarshal(b.DisplayContent, &dc); err != nil {
		return dc, false
	}
	return dc, true
}

func jsonBlockArtifact(b toolUseBlock) (Artifact, bool) {
	dc, ok := decodeDisplay(b)
	if !ok || dc.Type != "json_block" {
		return Artifact{}, false
	}
	// json_block is usually a JSON document encoded as a string
	body := dc.JSONBlock
	if s := rawString(body); s != "" {
		body = json.RawMessage(s)
	}
	var jb jsonBlockBody
	if err := json.Unmarshal(body, &jb); err != nil {
		return Artifact{}, false
	}
	var content string
	switch {
	case jb.Code != nil:
		content = *jb.Code
	case jb.Content != nil:
		content = *jb.Content
	default:
		return Artifact{}, false
	}
	return Artifact{
		ID:      jb.ID,
		Type:    firstNonEmpty(jb.Language, jb.Type, extType(jb.Filename)),
		Title:   firstNonEmpty(jb.Filename, jb.Title),
		Content: content,
	}, true
}

func codeBlockArtifact(b toolUseBlock) (Artifact, bool) {
	dc, ok := decodeDisplay(b)
	if !ok || dc.Type != "code_block" || dc.Code == nil {
		return Artifact{}, false
	}
	return Artifact{
		Type:    firstNonEmpty(dc.Language, extType(dc.Filename)),
		Title:   firstNonEmpty(dc.Filename, dc.Title),
		Content: *dc.Code,
	}, true
}

func decodeInput(b toolUseBlock) (toolInput, bool) {
	var in toolInput
	if !isObject(b.Input) {
		return in, false
	}
	if err := json.Unmarshal(b.Input, &in); err != nil {
		return in, false
	}
	return in, true
}

func createFileArtifact(b toolUseBlock) (Artifact, bool) {
	if b.Name != "create_file" {
		return Artifact{}, false
	}
	in, ok := decodeInput(b)
	if !ok || in.FileText == nil {
		return Artifact{}, false
	}
	var title string
	if in.Path != "" {
		title = path.Base(in.Path)
	}
	return Artifact{
		Type:    extType(in.Path),
		Title:   title,
		Content: *in.FileText,
	}, true
}

func legacyArtifact(b toolUseBlock) (Artifact, bool) {
	if b.Name != "artifacts" {
		return Artifact{}, false
	}
	in, ok := decodeInput(b)
	if !ok || in.Content == nil {
		return Artifact{}, false
	}
	return Artifact{
		ID:      in.ID,
		Type:    firstNonEmpty(in.Language, in.Type),
		Title:   in.Title,
		Content: *in.Content,
	}, true
}

func extType(name string) string {
	return strings.TrimPrefix(path.Ext(name), ".")
}
