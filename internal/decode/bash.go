package decode

import (
	"encoding/json"

	"github.com/anthropic/toolstream/internal/entry"
)

// BashInput is the canonical input of a shell invocation.
type BashInput struct {
	Command     string `json:"command"`
	Description string `json:"description"`
}

// BashResults is the canonical output of a shell invocation.
type BashResults struct {
	Output      string `json:"output"`
	Stderr      string `json:"stderr"`
	Interrupted bool   `json:"interrupted"`
}

// BashDecoder normalizes Bash tool invocations. Result payloads appear
// either as plain text or as a structured {stdout, stderr, interrupted}
// object; both are accepted.
type BashDecoder struct{}

func (d *BashDecoder) Name() string { return "Bash" }

func (d *BashDecoder) CanHandle(call *entry.RawEntry) bool {
	return toolName(call) == "Bash"
}

func (d *BashDecoder) Decode(call *entry.RawEntry, result *entry.RawEntry) (*Record, error) {
	block, _ := call.FirstToolUse()

	var in BashInput
	_ = json.Unmarshal(block.Input, &in)

	status, raw, errMsg, text := resolveResult(result)

	var res BashResults
	if status != StatusPending && status != StatusFailed {
		res = parseBashOutput(result, text)
		if res.Interrupted {
			status = StatusInterrupted
			raw = string(StatusInterrupted)
		}
	}

	return &Record{
		Tool:      d.Name(),
		Status:    status,
		RawStatus: raw,
		Error:     errMsg,
		Input:     in,
		Results:   res,
		Summary:   firstLine(in.Command),
	}, nil
}

// parseBashOutput prefers the structured stdout/stderr object when the
// result block carries one, falling back to the flattened text.
func parseBashOutput(result *entry.RawEntry, text string) BashResults {
	block, ok := result.FirstToolResult()
	if ok && len(block.Content) > 0 {
		var structured struct {
			Stdout      string `json:"stdout"`
			Stderr      string `json:"stderr"`
			Interrupted bool   `json:"interrupted"`
		}
		if err := json.Unmarshal(block.Content, &structured); err == nil &&
			(structured.Stdout != "" || structured.Stderr != "" || structured.Interrupted) {
			return BashResults{
				Output:      structured.Stdout,
				Stderr:      structured.Stderr,
				Interrupted: structured.Interrupted,
			}
		}
	}
	return BashResults{Output: text}
}
