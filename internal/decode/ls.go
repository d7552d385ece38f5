package decode

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropic/toolstream/internal/entry"
)

// LSInput is the canonical input of a directory listing.
type LSInput struct {
	Path string `json:"path"`
}

// LSResults lists the directory entries found.
type LSResults struct {
	Entries []string `json:"entries"`
	Count   int      `json:"count"`
}

// LSDecoder normalizes LS tool invocations. The output is a tree-style
// listing; leading dash bullets and indentation are stripped per line.
type LSDecoder struct{}

func (d *LSDecoder) Name() string { return "LS" }

func (d *LSDecoder) CanHandle(call *entry.RawEntry) bool {
	return toolName(call) == "LS"
}

func (d *LSDecoder) Decode(call *entry.RawEntry, result *entry.RawEntry) (*Record, error) {
	block, _ := call.FirstToolUse()

	var in LSInput
	_ = json.Unmarshal(block.Input, &in)

	status, raw, errMsg, text := resolveResult(result)

	res := LSResults{Entries: []string{}}
	if status == StatusCompleted {
		for _, line := range strings.Split(text, "\n") {
			line = strings.TrimSpace(line)
			line = strings.TrimPrefix(line, "- ")
			if line == "" {
				continue
			}
			res.Entries = append(res.Entries, line)
		}
		res.Count = len(res.Entries)
	}

	return &Record{
		Tool:      d.Name(),
		Status:    status,
		RawStatus: raw,
		Error:     errMsg,
		Input:     in,
		Results:   res,
		Summary:   fmt.Sprintf("%s: %d entries", in.Path, res.Count),
	}, nil
}
