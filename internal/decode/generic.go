package decode

import (
	"encoding/json"

	"github.com/anthropic/toolstream/internal/entry"
)

// GenericInput carries the raw input of an unrecognized tool.
type GenericInput struct {
	Fields map[string]any `json:"fields"`
}

// GenericResults carries the flattened output text.
type GenericResults struct {
	Output string `json:"output"`
}

// GenericDecoder is the catch-all for tool names no specific decoder
// claims. It accepts everything, so it must be registered last.
type GenericDecoder struct{}

func (d *GenericDecoder) Name() string { return "generic" }

func (d *GenericDecoder) CanHandle(call *entry.RawEntry) bool {
	_, ok := call.FirstToolUse()
	return ok
}

func (d *GenericDecoder) Decode(call *entry.RawEntry, result *entry.RawEntry) (*Record, error) {
	block, _ := call.FirstToolUse()

	in := GenericInput{}
	if len(block.Input) > 0 {
		_ = json.Unmarshal(block.Input, &in.Fields)
	}

	status, raw, errMsg, text := resolveResult(result)

	var res GenericResults
	if status == StatusCompleted {
		res.Output = text
	}

	return &Record{
		Tool:      block.Name,
		Status:    status,
		RawStatus: raw,
		Error:     errMsg,
		Input:     in,
		Results:   res,
		Summary:   block.Name,
	}, nil
}
