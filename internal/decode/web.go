package decode

import (
	"encoding/json"

	"github.com/anthropic/toolstream/internal/entry"
)

// WebFetchInput is the canonical input of a page fetch.
type WebFetchInput struct {
	URL    string `json:"url"`
	Prompt string `json:"prompt"`
}

// WebFetchResults holds the fetched/summarized content.
type WebFetchResults struct {
	Content string `json:"content"`
}

// WebFetchDecoder normalizes WebFetch tool invocations.
type WebFetchDecoder struct{}

func (d *WebFetchDecoder) Name() string { return "WebFetch" }

func (d *WebFetchDecoder) CanHandle(call *entry.RawEntry) bool {
	return toolName(call) == "WebFetch"
}

func (d *WebFetchDecoder) Decode(call *entry.RawEntry, result *entry.RawEntry) (*Record, error) {
	block, _ := call.FirstToolUse()

	var in WebFetchInput
	_ = json.Unmarshal(block.Input, &in)

	status, raw, errMsg, text := resolveResult(result)

	var res WebFetchResults
	if status == StatusCompleted {
		res.Content = text
	}

	return &Record{
		Tool:      d.Name(),
		Status:    status,
		RawStatus: raw,
		Error:     errMsg,
		Input:     in,
		Results:   res,
		Summary:   in.URL,
	}, nil
}

// WebSearchInput is the canonical input of a web search.
type WebSearchInput struct {
	Query string `json:"query"`
}

// WebSearchResults holds the search result text.
type WebSearchResults struct {
	Content string `json:"content"`
}

// WebSearchDecoder normalizes WebSearch tool invocations.
type WebSearchDecoder struct{}

func (d *WebSearchDecoder) Name() string { return "WebSearch" }

func (d *WebSearchDecoder) CanHandle(call *entry.RawEntry) bool {
	return toolName(call) == "WebSearch"
}

func (d *WebSearchDecoder) Decode(call *entry.RawEntry, result *entry.RawEntry) (*Record, error) {
	block, _ := call.FirstToolUse()

	var in WebSearchInput
	_ = json.Unmarshal(block.Input, &in)

	status, raw, errMsg, text := resolveResult(result)

	var res WebSearchResults
	if status == StatusCompleted {
		res.Content = text
	}

	return &Record{
		Tool:      d.Name(),
		Status:    status,
		RawStatus: raw,
		Error:     errMsg,
		Input:     in,
		Results:   res,
		Summary:   in.Query,
	}, nil
}
