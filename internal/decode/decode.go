// Package decode normalizes the loosely-structured payloads of tool
// invocations into canonical typed records. One decoder exists per tool
// type; the Registry dispatches on the tool name found in a call entry's
// invocation block and falls back to a generic decoder for anything
// unrecognized.
package decode

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/anthropic/toolstream/internal/entry"
)

// Status is the canonical lifecycle state of a decoded invocation.
type Status string

const (
	StatusPending     Status = "pending"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
	StatusInterrupted Status = "interrupted"
)

// interruptedMarker is the literal text the agent writes into a result
// payload when the user interrupts a running tool.
const interruptedMarker = "[Request interrupted by user"

// Record is the normalized output of a decoder: a discriminated union
// keyed by Tool, with typed Input and Results payloads per variant.
// A Record is immutable once produced.
type Record struct {
	Tool      string
	Status    Status
	RawStatus string
	Error     string

	// Input and Results hold the per-tool typed sub-objects
	// (BashInput/BashResults, WriteInput/WriteResults, ...).
	Input   any
	Results any

	// Summary is a short human-oriented description for display.
	Summary string

	// Sidechain marks records produced by sub-agent activity so
	// consumers can filter them.
	Sidechain bool
}

// Decoder converts a (call, optional result) entry pair into a Record.
// Decoders are total over their accepted domain: a missing result yields
// a pending Record, never an error.
type Decoder interface {
	// Name identifies the decoder (usually the tool name it handles).
	Name() string

	// CanHandle reports whether this decoder accepts the call entry,
	// matched against the tool name in its invocation block.
	CanHandle(call *entry.RawEntry) bool

	// Decode produces the normalized record. result may be nil.
	Decode(call *entry.RawEntry, result *entry.RawEntry) (*Record, error)
}

// Registry dispatches call entries to decoders in registration order.
// Specific tool decoders are registered before the generic catch-all.
type Registry struct {
	decoders []Decoder
	log      zerolog.Logger
}

// NewRegistry builds a registry with the full default decoder set.
func NewRegistry(log zerolog.Logger) *Registry {
	r := &Registry{log: log.With().Str("component", "decode").Logger()}

	r.Register(&BashDecoder{})
	r.Register(&WriteDecoder{})
	r.Register(&EditDecoder{})
	r.Register(&MultiEditDecoder{})
	r.Register(&ReadDecoder{})
	r.Register(&TodoDecoder{})
	r.Register(&GrepDecoder{})
	r.Register(&GlobDecoder{})
	r.Register(&LSDecoder{})
	r.Register(&TaskDecoder{})
	r.Register(&WebFetchDecoder{})
	r.Register(&WebSearchDecoder{})
	// Catch-all must stay last.
	r.Register(&GenericDecoder{})

	return r
}

// Register appends a decoder. Order matters: first match wins.
func (r *Registry) Register(d Decoder) {
	r.decoders = append(r.decoders, d)
}

// Decode dispatches the entry pair to the first decoder that accepts it.
// Returns (nil, nil) when the call entry carries no invocation block.
func (r *Registry) Decode(call *entry.RawEntry, result *entry.RawEntry) (*Record, error) {
	if _, ok := call.FirstToolUse(); !ok {
		return nil, nil
	}

	for _, d := range r.decoders {
		if !d.CanHandle(call) {
			continue
		}
		rec, err := d.Decode(call, result)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			rec.Sidechain = call.IsSidechain
		}
		return rec, nil
	}

	// Unreachable while the generic decoder is registered.
	return nil, nil
}

// Decoders returns the registered decoders in dispatch order.
func (r *Registry) Decoders() []Decoder {
	return r.decoders
}

// toolName extracts the tool name from a call entry's invocation block.
func toolName(call *entry.RawEntry) string {
	block, ok := call.FirstToolUse()
	if !ok {
		return ""
	}
	return block.Name
}

// resolveResult applies the uniform status contract shared by every
// decoder: no result means pending, an error flag means failed with the
// payload text as message, an interruption marker means interrupted, and
// anything else means completed with the flattened payload text returned
// for decoder-specific parsing.
func resolveResult(result *entry.RawEntry) (status Status, raw string, errMsg string, text string) {
	if result == nil {
		return StatusPending, string(StatusPending), "", ""
	}

	block, ok := result.FirstToolResult()
	if !ok {
		return StatusPending, string(StatusPending), "", ""
	}

	text = block.ResultText()

	if block.IsError {
		return StatusFailed, string(StatusFailed), text, text
	}
	if strings.Contains(text, interruptedMarker) {
		return StatusInterrupted, string(StatusInterrupted), "", text
	}
	return StatusCompleted, string(StatusCompleted), "", text
}

// firstLine truncates s to its first line for summaries.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
