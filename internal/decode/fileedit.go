package decode

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/anthropic/toolstream/internal/entry"
)

// EditInput is the canonical input of a single string-replacement edit.
type EditInput struct {
	FilePath   string `json:"file_path"`
	OldString  string `json:"old_string"`
	NewString  string `json:"new_string"`
	ReplaceAll bool   `json:"replace_all"`
}

// EditResults describes an applied edit.
type EditResults struct {
	FilePath string `json:"file_path"`
	FileType string `json:"file_type"`
	Applied  bool   `json:"applied"`
}

// EditDecoder normalizes Edit tool invocations.
type EditDecoder struct{}

func (d *EditDecoder) Name() string { return "Edit" }

func (d *EditDecoder) CanHandle(call *entry.RawEntry) bool {
	return toolName(call) == "Edit"
}

func (d *EditDecoder) Decode(call *entry.RawEntry, result *entry.RawEntry) (*Record, error) {
	block, _ := call.FirstToolUse()

	var in EditInput
	_ = json.Unmarshal(block.Input, &in)

	status, raw, errMsg, _ := resolveResult(result)

	return &Record{
		Tool:      d.Name(),
		Status:    status,
		RawStatus: raw,
		Error:     errMsg,
		Input:     in,
		Results: EditResults{
			FilePath: in.FilePath,
			FileType: FileTypeOf(in.FilePath),
			Applied:  status == StatusCompleted,
		},
		Summary: filepath.Base(in.FilePath),
	}, nil
}

// EditOp is one replacement within a MultiEdit invocation.
type EditOp struct {
	OldString  string `json:"old_string"`
	NewString  string `json:"new_string"`
	ReplaceAll bool   `json:"replace_all"`
}

// MultiEditInput is the canonical input of a batched edit invocation.
type MultiEditInput struct {
	FilePath string   `json:"file_path"`
	Edits    []EditOp `json:"edits"`
}

// MultiEditResults describes an applied batch of edits.
type MultiEditResults struct {
	FilePath  string `json:"file_path"`
	FileType  string `json:"file_type"`
	EditCount int    `json:"edit_count"`
	Applied   bool   `json:"applied"`
}

// MultiEditDecoder normalizes MultiEdit tool invocations.
type MultiEditDecoder struct{}

func (d *MultiEditDecoder) Name() string { return "MultiEdit" }

func (d *MultiEditDecoder) CanHandle(call *entry.RawEntry) bool {
	return toolName(call) == "MultiEdit"
}

func (d *MultiEditDecoder) Decode(call *entry.RawEntry, result *entry.RawEntry) (*Record, error) {
	block, _ := call.FirstToolUse()

	var in MultiEditInput
	_ = json.Unmarshal(block.Input, &in)

	status, raw, errMsg, _ := resolveResult(result)

	return &Record{
		Tool:      d.Name(),
		Status:    status,
		RawStatus: raw,
		Error:     errMsg,
		Input:     in,
		Results: MultiEditResults{
			FilePath:  in.FilePath,
			FileType:  FileTypeOf(in.FilePath),
			EditCount: len(in.Edits),
			Applied:   status == StatusCompleted,
		},
		Summary: fmt.Sprintf("%s (%d edits)", filepath.Base(in.FilePath), len(in.Edits)),
	}, nil
}
