package transform

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/anthropic/toolstream/internal/decode"
	"github.com/anthropic/toolstream/internal/entry"
	"github.com/anthropic/toolstream/internal/logging"
)

var baseTime = time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)

func TestApplyBundlesToolMetadata(t *testing.T) {
	tr := New(decode.NewRegistry(logging.Nop()), logging.Nop())

	call := &entry.RawEntry{
		UUID: "c1", Type: "assistant", Timestamp: baseTime,
		Content: []entry.ContentBlock{{
			Type: entry.BlockToolUse, ID: "X", Name: "Bash",
			Input: json.RawMessage(`{"command":"ls"}`),
		}},
	}
	result := &entry.RawEntry{
		UUID: "r1", Type: "user", Timestamp: baseTime.Add(time.Second),
		Content: []entry.ContentBlock{{
			Type: entry.BlockToolResult, ToolUseID: "X",
			Content: json.RawMessage(`"a.txt"`),
		}},
	}

	res, ok := tr.Apply(call, result)
	if !ok {
		t.Fatal("Apply returned no result")
	}
	if res.ToolName != "Bash" || res.ToolID != "X" {
		t.Errorf("bundle = %s/%s, want Bash/X", res.ToolName, res.ToolID)
	}
	if res.Record.Status != decode.StatusCompleted {
		t.Errorf("Status = %q, want completed", res.Record.Status)
	}
}

func TestApplyLoneCallIsPending(t *testing.T) {
	tr := New(decode.NewRegistry(logging.Nop()), logging.Nop())

	call := &entry.RawEntry{
		UUID: "c1", Type: "assistant", Timestamp: baseTime,
		Content: []entry.ContentBlock{{
			Type: entry.BlockToolUse, ID: "X", Name: "Read",
			Input: json.RawMessage(`{"file_path":"/tmp/f"}`),
		}},
	}

	res, ok := tr.Apply(call, nil)
	if !ok {
		t.Fatal("Apply returned no result")
	}
	if res.Record.Status != decode.StatusPending {
		t.Errorf("Status = %q, want pending", res.Record.Status)
	}
}

func TestApplyNoInvocationBlock(t *testing.T) {
	tr := New(decode.NewRegistry(logging.Nop()), logging.Nop())

	plain := &entry.RawEntry{
		UUID: "u1", Type: "user", Timestamp: baseTime,
		Content: []entry.ContentBlock{{Type: entry.BlockText, Text: "hi"}},
	}

	if res, ok := tr.Apply(plain, nil); ok || res != nil {
		t.Errorf("Apply = %+v, %v; want nil, false", res, ok)
	}
}
