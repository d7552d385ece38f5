package decode

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/anthropic/toolstream/internal/entry"
)

// GrepInput is the canonical input of a content-search invocation.
type GrepInput struct {
	Pattern string `json:"pattern"`
	Path    string `json:"path"`
	Glob    string `json:"glob"`
}

// GrepMatch is one matched line.
type GrepMatch struct {
	Line    int    `json:"line"`
	Content string `json:"content"`
}

// GrepFileMatches groups matches per file.
type GrepFileMatches struct {
	File    string      `json:"file"`
	Matches []GrepMatch `json:"matches"`
}

// GrepResults holds the grouped match lists. Files is empty but non-nil
// when the output shape was unrecognized; the match count is derived.
type GrepResults struct {
	Files      []GrepFileMatches `json:"files"`
	MatchCount int               `json:"match_count"`
}

// GrepDecoder normalizes Grep tool invocations. The only recognized
// successful-output shape is one "path:lineNumber:content" match per
// line; any other shape (counts, bare file lists) yields an explicitly
// empty result set. Partial parses are not attempted.
type GrepDecoder struct{}

func (d *GrepDecoder) Name() string { return "Grep" }

func (d *GrepDecoder) CanHandle(call *entry.RawEntry) bool {
	return toolName(call) == "Grep"
}

func (d *GrepDecoder) Decode(call *entry.RawEntry, result *entry.RawEntry) (*Record, error) {
	block, _ := call.FirstToolUse()

	var in GrepInput
	_ = json.Unmarshal(block.Input, &in)

	status, raw, errMsg, text := resolveResult(result)

	res := GrepResults{Files: []GrepFileMatches{}}
	if status == StatusCompleted {
		res = parseGrepOutput(text)
	}

	return &Record{
		Tool:      d.Name(),
		Status:    status,
		RawStatus: raw,
		Error:     errMsg,
		Input:     in,
		Results:   res,
		Summary:   fmt.Sprintf("%q: %d matches", in.Pattern, res.MatchCount),
	}, nil
}

// parseGrepOutput parses path:line:content lines into per-file groups.
// All-or-nothing: a single unrecognized non-empty line discards the whole
// parse and returns an empty set.
func parseGrepOutput(text string) GrepResults {
	empty := GrepResults{Files: []GrepFileMatches{}}
	if strings.TrimSpace(text) == "" {
		return empty
	}

	byFile := make(map[string]int) // file -> index into ordered
	var ordered []GrepFileMatches
	count := 0

	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}

		file, lineNo, content, ok := splitGrepLine(line)
		if !ok {
			return empty
		}

		idx, seen := byFile[file]
		if !seen {
			idx = len(ordered)
			byFile[file] = idx
			ordered = append(ordered, GrepFileMatches{File: file})
		}
		ordered[idx].Matches = append(ordered[idx].Matches, GrepMatch{
			Line:    lineNo,
			Content: content,
		})
		count++
	}

	if count == 0 {
		return empty
	}
	return GrepResults{Files: ordered, MatchCount: count}
}

// splitGrepLine splits "path:lineNumber:content". The line number segment
// must be strictly numeric; content may itself contain colons.
func splitGrepLine(line string) (file string, lineNo int, content string, ok bool) {
	first := strings.IndexByte(line, ':')
	if first <= 0 {
		return "", 0, "", false
	}
	rest := line[first+1:]
	second := strings.IndexByte(rest, ':')
	if second <= 0 {
		return "", 0, "", false
	}

	n, err := strconv.Atoi(rest[:second])
	if err != nil || n <= 0 {
		return "", 0, "", false
	}

	return line[:first], n, rest[second+1:], true
}
