package decode

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/anthropic/toolstream/internal/entry"
)

// TodoItem is one canonical todo list entry.
type TodoItem struct {
	Content  string `json:"content"`
	Status   string `json:"status"`
	Priority string `json:"priority"`
}

// TodoInput is the canonical input of a todo-list invocation.
type TodoInput struct {
	Todos []TodoItem `json:"todos"`
}

// TodoResults summarizes the written list.
type TodoResults struct {
	Items      []TodoItem `json:"items"`
	Total      int        `json:"total"`
	Pending    int        `json:"pending"`
	InProgress int        `json:"in_progress"`
	Completed  int        `json:"completed"`
}

// wireTodoItem accepts every alternate field name seen in the wild.
// content/text/task all carry the item text; state is an alias of status;
// priority may be a string or a number.
type wireTodoItem struct {
	Content  string          `json:"content"`
	Text     string          `json:"text"`
	Task     string          `json:"task"`
	Status   string          `json:"status"`
	State    string          `json:"state"`
	Priority json.RawMessage `json:"priority"`

	// Accepted but unused beyond shape tolerance.
	Created   string `json:"created"`
	Updated   string `json:"updated"`
	Completed string `json:"completed"`
}

func (w wireTodoItem) canonical() TodoItem {
	content := w.Content
	if content == "" {
		content = w.Text
	}
	if content == "" {
		content = w.Task
	}

	status := w.Status
	if status == "" {
		status = w.State
	}

	var priority string
	if len(w.Priority) > 0 {
		var s string
		if err := json.Unmarshal(w.Priority, &s); err == nil {
			priority = s
		} else {
			var n int
			if err := json.Unmarshal(w.Priority, &n); err == nil {
				priority = fmt.Sprintf("%d", n)
			}
		}
	}

	return TodoItem{
		Content:  content,
		Status:   NormalizeTodoStatus(status),
		Priority: NormalizeTodoPriority(priority),
	}
}

// TodoDecoder normalizes TodoWrite tool invocations. The payload may be a
// native array of objects, an object keyed "todos" or "items", or plain
// text in markdown-checkbox or numbered-list form.
type TodoDecoder struct{}

func (d *TodoDecoder) Name() string { return "TodoWrite" }

func (d *TodoDecoder) CanHandle(call *entry.RawEntry) bool {
	return toolName(call) == "TodoWrite"
}

func (d *TodoDecoder) Decode(call *entry.RawEntry, result *entry.RawEntry) (*Record, error) {
	block, _ := call.FirstToolUse()

	items := parseTodoPayload(block.Input)

	status, raw, errMsg, text := resolveResult(result)

	// A plain-text payload with no structured items falls back to
	// line-oriented parsing of the result text.
	if len(items) == 0 && status == StatusCompleted && text != "" {
		items = ParseTodoText(text)
	}

	res := TodoResults{Items: items, Total: len(items)}
	for _, it := range items {
		switch it.Status {
		case TodoInProgress:
			res.InProgress++
		case TodoCompleted:
			res.Completed++
		default:
			res.Pending++
		}
	}

	return &Record{
		Tool:      d.Name(),
		Status:    status,
		RawStatus: raw,
		Error:     errMsg,
		Input:     TodoInput{Todos: items},
		Results:   res,
		Summary:   fmt.Sprintf("%d items (%d done)", res.Total, res.Completed),
	}, nil
}

// parseTodoPayload extracts canonical items from a structured payload:
// a bare array, or an object keyed by "todos" or "items".
func parseTodoPayload(raw json.RawMessage) []TodoItem {
	if len(raw) == 0 {
		return nil
	}

	var wire []wireTodoItem
	if err := json.Unmarshal(raw, &wire); err != nil {
		var keyed struct {
			Todos []wireTodoItem `json:"todos"`
			Items []wireTodoItem `json:"items"`
		}
		if err := json.Unmarshal(raw, &keyed); err != nil {
			return nil
		}
		wire = keyed.Todos
		if len(wire) == 0 {
			wire = keyed.Items
		}
	}

	items := make([]TodoItem, 0, len(wire))
	for _, w := range wire {
		item := w.canonical()
		if item.Content == "" {
			continue
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return nil
	}
	return items
}

var (
	checkboxRe = regexp.MustCompile(`^[-*]\s+\[([ xX~-])\]\s+(.*)$`)
	numberedRe = regexp.MustCompile(`^\d+[.)]\s+(.*)$`)
	priorityRe = regexp.MustCompile(`\s*\(priority:\s*([^)]+)\)\s*$`)
)

// ParseTodoText parses markdown checkbox and numbered-list syntax into
// canonical items. Lines matching neither form are skipped. A trailing
// "(priority: ...)" annotation sets the priority; everything defaults to
// pending/medium.
func ParseTodoText(text string) []TodoItem {
	var items []TodoItem

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var content, status string
		if m := checkboxRe.FindStringSubmatch(line); m != nil {
			switch m[1] {
			case "x", "X":
				status = TodoCompleted
			case "~", "-":
				status = TodoInProgress
			default:
				status = TodoPending
			}
			content = m[2]
		} else if m := numberedRe.FindStringSubmatch(line); m != nil {
			status = TodoPending
			content = m[1]
		} else {
			continue
		}

		priority := ""
		if m := priorityRe.FindStringSubmatch(content); m != nil {
			priority = m[1]
			content = priorityRe.ReplaceAllString(content, "")
		}

		content = strings.TrimSpace(content)
		if content == "" {
			continue
		}

		items = append(items, TodoItem{
			Content:  content,
			Status:   status,
			Priority: NormalizeTodoPriority(priority),
		})
	}

	return items
}
