// Package transform is the thin adapter external consumers use to turn a
// (call, optional result) entry pair into a normalized record bundle
// without touching the registry or the correlation engine directly.
package transform

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/anthropic/toolstream/internal/decode"
	"github.com/anthropic/toolstream/internal/entry"
)

// Result bundles the decoded record with its invocation metadata.
type Result struct {
	ToolName string
	ToolID   string
	Record   *decode.Record
}

// Transformer wraps a decoder registry.
type Transformer struct {
	registry *decode.Registry
	log      zerolog.Logger
}

// New creates a Transformer over the given registry.
func New(registry *decode.Registry, log zerolog.Logger) *Transformer {
	return &Transformer{
		registry: registry,
		log:      log.With().Str("component", "transform").Logger(),
	}
}

// Apply extracts the tool name and invocation id from the call entry and
// dispatches the registry. It returns (nil, false) when the call carries
// no invocation block, when no decoder matches, or when decoding fails;
// none of those propagate as errors.
func (t *Transformer) Apply(call *entry.RawEntry, result *entry.RawEntry) (*Result, bool) {
	block, ok := call.FirstToolUse()
	if !ok {
		t.log.Debug().Str("uuid", call.UUID).Msg("entry has no tool invocation block")
		return nil, false
	}

	record, err := t.safeDecode(call, result)
	if err != nil {
		t.log.Error().Err(err).Str("tool", block.Name).Msg("decode failed")
		return nil, false
	}
	if record == nil {
		t.log.Warn().Str("tool", block.Name).Msg("no decoder matched")
		return nil, false
	}

	return &Result{
		ToolName: block.Name,
		ToolID:   block.ID,
		Record:   record,
	}, true
}

func (t *Transformer) safeDecode(call, result *entry.RawEntry) (rec *decode.Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			rec = nil
			err = fmt.Errorf("decoder panic: %v", r)
		}
	}()
	return t.registry.Decode(call, result)
}
