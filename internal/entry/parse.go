package entry

import (
	"encoding/json"
	"time"
)

// envelope is the top-level structure of a session log line. Content may
// appear nested under the message wrapper or directly at the top level;
// both are accepted.
type envelope struct {
	UUID        string          `json:"uuid"`
	ParentUUID  string          `json:"parentUuid"`
	Type        string          `json:"type"`
	Timestamp   string          `json:"timestamp"`
	IsSidechain bool            `json:"isSidechain"`
	Message     json.RawMessage `json:"message,omitempty"`
	Content     json.RawMessage `json:"content,omitempty"`
}

type messageWrapper struct {
	Content json.RawMessage `json:"content"`
}

type wireBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   json.RawMessage `json:"content,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
}

// ParseLine decodes one log line into a RawEntry.
//
// Returns (nil, err) for malformed JSON so the caller can log a warning,
// and (nil, nil) for lines that decode but are dropped: blank lines and
// entries missing the required uuid or originator type.
func ParseLine(line []byte) (*RawEntry, error) {
	line = trimLine(line)
	if len(line) == 0 {
		return nil, nil
	}

	var env envelope
	if err := json.Unmarshal(line, &env); err != nil {
		return nil, err
	}

	if env.UUID == "" || (env.Type != "user" && env.Type != "assistant") {
		return nil, nil
	}

	raw := env.Content
	if len(env.Message) > 0 {
		var msg messageWrapper
		if err := json.Unmarshal(env.Message, &msg); err == nil && len(msg.Content) > 0 {
			raw = msg.Content
		}
	}

	return &RawEntry{
		UUID:        env.UUID,
		ParentUUID:  env.ParentUUID,
		Type:        env.Type,
		Timestamp:   parseTimestamp(env.Timestamp),
		IsSidechain: env.IsSidechain,
		Content:     parseContent(raw),
	}, nil
}

// parseContent normalizes the content payload: a bare string becomes a
// single text block, a single object becomes a one-element list, and an
// array is taken as-is. Anything else yields no blocks.
func parseContent(raw json.RawMessage) []ContentBlock {
	if len(raw) == 0 {
		return nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return nil
		}
		return []ContentBlock{{Type: BlockText, Text: s}}
	}

	var wire []wireBlock
	if err := json.Unmarshal(raw, &wire); err != nil {
		var single wireBlock
		if err := json.Unmarshal(raw, &single); err != nil {
			return nil
		}
		wire = []wireBlock{single}
	}

	blocks := make([]ContentBlock, 0, len(wire))
	for _, w := range wire {
		blocks = append(blocks, ContentBlock{
			Type:      w.Type,
			Text:      w.Text,
			ID:        w.ID,
			Name:      w.Name,
			Input:     w.Input,
			ToolUseID: w.ToolUseID,
			Content:   w.Content,
			IsError:   w.IsError,
		})
	}
	return blocks
}

// parseTimestamp tries the timestamp formats observed in real logs.
func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return t
	}
	return time.Time{}
}

// trimLine removes surrounding whitespace and a UTF-8 BOM.
func trimLine(line []byte) []byte {
	if len(line) >= 3 && line[0] == 0xEF && line[1] == 0xBB && line[2] == 0xBF {
		line = line[3:]
	}
	start := 0
	for start < len(line) && (line[start] == ' ' || line[start] == '\t' || line[start] == '\n' || line[start] == '\r') {
		start++
	}
	end := len(line)
	for end > start && (line[end-1] == ' ' || line[end-1] == '\t' || line[end-1] == '\n' || line[end-1] == '\r') {
		end--
	}
	return line[start:end]
}
