// Package entry models one parsed line of an agent session log and the
// tagged content blocks it carries. Decoding is deliberately tolerant:
// the observed JSONL format has no stability contract, so unknown fields
// are ignored and shape variations are normalized to one RawEntry form.
package entry

import (
	"encoding/json"
	"strings"
	"time"
)

// Block type tags as they appear on the wire.
const (
	BlockText       = "text"
	BlockToolUse    = "tool_use"
	BlockToolResult = "tool_result"
)

// RawEntry is one parsed log line.
type RawEntry struct {
	UUID        string
	ParentUUID  string
	Type        string // "user" or "assistant"
	Timestamp   time.Time
	IsSidechain bool
	Content     []ContentBlock

	// SessionID is filled in by the monitor from the file the line came from.
	SessionID string
}

// ContentBlock is a tagged union over text, tool_use and tool_result blocks.
// Fields beyond Type are populated per tag.
type ContentBlock struct {
	Type string

	// text
	Text string

	// tool_use
	ID    string
	Name  string
	Input json.RawMessage

	// tool_result
	ToolUseID string
	Content   json.RawMessage
	IsError   bool
}

// FirstToolUse returns the entry's first tool_use block, if any. At most
// one block per entry participates in correlation.
func (e *RawEntry) FirstToolUse() (ContentBlock, bool) {
	for _, b := range e.Content {
		if b.Type == BlockToolUse {
			return b, true
		}
	}
	return ContentBlock{}, false
}

// FirstToolResult returns the entry's first tool_result block, if any.
func (e *RawEntry) FirstToolResult() (ContentBlock, bool) {
	for _, b := range e.Content {
		if b.Type == BlockToolResult {
			return b, true
		}
	}
	return ContentBlock{}, false
}

// ResultText flattens a tool_result block's content payload to plain text.
// The payload is either a bare JSON string or an array of text blocks;
// anything else yields "".
func (b ContentBlock) ResultText() string {
	if len(b.Content) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(b.Content, &s); err == nil {
		return s
	}

	var blocks []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(b.Content, &blocks); err == nil {
		var parts []string
		for _, tb := range blocks {
			if tb.Type == BlockText && tb.Text != "" {
				parts = append(parts, tb.Text)
			}
		}
		return strings.Join(parts, "\n")
	}

	return ""
}
