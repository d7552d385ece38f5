package decode

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/anthropic/toolstream/internal/entry"
)

// WriteInput is the canonical input of a file-write invocation.
type WriteInput struct {
	FilePath string `json:"file_path"`
	Content  string `json:"content"`
}

// WriteResults describes what the write did to the target file.
type WriteResults struct {
	FilePath string `json:"file_path"`
	FileType string `json:"file_type"`

	// Action is "created", "overwritten", or "" when the result message
	// matched neither known phrase.
	Action string `json:"action"`
}

// fileTypeByExt remaps extensions to canonical type tags. Extensions not
// listed fall through to the bare extension.
var fileTypeByExt = map[string]string{
	"md":       "markdown",
	"markdown": "markdown",
	"js":       "javascript",
	"jsx":      "javascript",
	"ts":       "typescript",
	"tsx":      "typescript",
	"py":       "python",
	"rb":       "ruby",
	"rs":       "rust",
	"yml":      "yaml",
	"sh":       "shell",
}

// FileTypeOf infers a file-type tag from the path extension. A path
// without an extension yields "".
func FileTypeOf(path string) string {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return ""
	}
	ext = strings.ToLower(ext)
	if tag, ok := fileTypeByExt[ext]; ok {
		return tag
	}
	return ext
}

// WriteDecoder normalizes Write tool invocations. Created-vs-overwritten
// is inferred from fixed phrases in the human-readable result message.
type WriteDecoder struct{}

func (d *WriteDecoder) Name() string { return "Write" }

func (d *WriteDecoder) CanHandle(call *entry.RawEntry) bool {
	return toolName(call) == "Write"
}

func (d *WriteDecoder) Decode(call *entry.RawEntry, result *entry.RawEntry) (*Record, error) {
	block, _ := call.FirstToolUse()

	var in WriteInput
	_ = json.Unmarshal(block.Input, &in)

	status, raw, errMsg, text := resolveResult(result)

	res := WriteResults{
		FilePath: in.FilePath,
		FileType: FileTypeOf(in.FilePath),
	}
	if status == StatusCompleted {
		switch {
		case strings.Contains(text, "created successfully"):
			res.Action = "created"
		case strings.Contains(text, "updated successfully"):
			res.Action = "overwritten"
		}
	}

	return &Record{
		Tool:      d.Name(),
		Status:    status,
		RawStatus: raw,
		Error:     errMsg,
		Input:     in,
		Results:   res,
		Summary:   filepath.Base(in.FilePath),
	}, nil
}
