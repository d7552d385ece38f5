package decode

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropic/toolstream/internal/entry"
)

// GlobInput is the canonical input of a filename-pattern search.
type GlobInput struct {
	Pattern string `json:"pattern"`
	Path    string `json:"path"`
}

// GlobResults lists the matched file paths.
type GlobResults struct {
	Files []string `json:"files"`
	Count int      `json:"count"`
}

// GlobDecoder normalizes Glob tool invocations. Output is one path per
// line; the "No files found" sentinel yields an empty set.
type GlobDecoder struct{}

func (d *GlobDecoder) Name() string { return "Glob" }

func (d *GlobDecoder) CanHandle(call *entry.RawEntry) bool {
	return toolName(call) == "Glob"
}

func (d *GlobDecoder) Decode(call *entry.RawEntry, result *entry.RawEntry) (*Record, error) {
	block, _ := call.FirstToolUse()

	var in GlobInput
	_ = json.Unmarshal(block.Input, &in)

	status, raw, errMsg, text := resolveResult(result)

	res := GlobResults{Files: []string{}}
	if status == StatusCompleted && !strings.Contains(text, "No files found") {
		for _, line := range strings.Split(text, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			res.Files = append(res.Files, line)
		}
		res.Count = len(res.Files)
	}

	return &Record{
		Tool:      d.Name(),
		Status:    status,
		RawStatus: raw,
		Error:     errMsg,
		Input:     in,
		Results:   res,
		Summary:   fmt.Sprintf("%s: %d files", in.Pattern, res.Count),
	}, nil
}
