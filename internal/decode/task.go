package decode

import (
	"encoding/json"

	"github.com/anthropic/toolstream/internal/entry"
)

// TaskInput is the canonical input of a sub-agent dispatch.
type TaskInput struct {
	Description  string `json:"description"`
	Prompt       string `json:"prompt"`
	SubagentType string `json:"subagent_type"`
}

// TaskResults holds the sub-agent's final report.
type TaskResults struct {
	Output string `json:"output"`
}

// TaskDecoder normalizes Task (sub-agent) invocations.
type TaskDecoder struct{}

func (d *TaskDecoder) Name() string { return "Task" }

func (d *TaskDecoder) CanHandle(call *entry.RawEntry) bool {
	return toolName(call) == "Task"
}

func (d *TaskDecoder) Decode(call *entry.RawEntry, result *entry.RawEntry) (*Record, error) {
	block, _ := call.FirstToolUse()

	var in TaskInput
	_ = json.Unmarshal(block.Input, &in)

	status, raw, errMsg, text := resolveResult(result)

	var res TaskResults
	if status == StatusCompleted {
		res.Output = text
	}

	return &Record{
		Tool:      d.Name(),
		Status:    status,
		RawStatus: raw,
		Error:     errMsg,
		Input:     in,
		Results:   res,
		Summary:   in.Description,
	}, nil
}
