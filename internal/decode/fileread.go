package decode

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/anthropic/toolstream/internal/entry"
)

// ReadInput is the canonical input of a file-read invocation.
type ReadInput struct {
	FilePath string `json:"file_path"`
	Offset   int    `json:"offset"`
	Limit    int    `json:"limit"`
}

// ReadResults holds the read content and its line count.
type ReadResults struct {
	Content   string `json:"content"`
	LineCount int    `json:"line_count"`
}

// ReadDecoder normalizes Read tool invocations.
type ReadDecoder struct{}

func (d *ReadDecoder) Name() string { return "Read" }

func (d *ReadDecoder) CanHandle(call *entry.RawEntry) bool {
	return toolName(call) == "Read"
}

func (d *ReadDecoder) Decode(call *entry.RawEntry, result *entry.RawEntry) (*Record, error) {
	block, _ := call.FirstToolUse()

	var in ReadInput
	_ = json.Unmarshal(block.Input, &in)

	status, raw, errMsg, text := resolveResult(result)

	var res ReadResults
	if status == StatusCompleted && text != "" {
		res.Content = text
		res.LineCount = strings.Count(text, "\n") + 1
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
