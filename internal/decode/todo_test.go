package decode

import "testing"

func TestTodoNativeArrayPayload(t *testing.T) {
	d := &TodoDecoder{}

	call := callEntry("TodoWrite", "X", `{"todos":[
		{"content":"Write tests","status":"in_progress","priority":"high"},
		{"content":"Deploy","status":"pending"}
	]}`)

	rec, err := d.Decode(call, textResult("X", "Todos have been modified successfully"))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	res := rec.Results.(TodoResults)
	if res.Total != 2 || res.InProgress != 1 || res.Pending != 1 {
		t.Errorf("counts = %+v", res)
	}
	if res.Items[0].Priority != PriorityHigh {
		t.Errorf("priority = %q, want high", res.Items[0].Priority)
	}
	if res.Items[1].Priority != PriorityMedium {
		t.Errorf("default priority = %q, want medium", res.Items[1].Priority)
	}
}

func TestTodoBareArrayAndAlternateKeys(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"bare array", `[{"text":"Task A","state":"done"}]`},
		{"items key", `{"items":[{"task":"Task A","status":"DONE"}]}`},
	}

	for _, tt := range tests {
		d := &TodoDecoder{}
		rec, err := d.Decode(callEntry("TodoWrite", "X", tt.input), nil)
		if err != nil {
			t.Fatalf("%s: Decode: %v", tt.name, err)
		}
		res := rec.Results.(TodoResults)
		if res.Total != 1 {
			t.Fatalf("%s: Total = %d, want 1", tt.name, res.Total)
		}
		if res.Items[0].Content != "Task A" {
			t.Errorf("%s: Content = %q", tt.name, res.Items[0].Content)
		}
		if res.Items[0].Status != TodoCompleted {
			t.Errorf("%s: Status = %q, want completed", tt.name, res.Items[0].Status)
		}
	}
}

func TestTodoMarkdownFallback(t *testing.T) {
	d := &TodoDecoder{}

	rec, err := d.Decode(
		callEntry("TodoWrite", "X", `{}`),
		textResult("X", "- [ ] Write tests (priority: high)\n- [x] Deploy"),
	)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	res := rec.Results.(TodoResults)
	if res.Total != 2 {
		t.Fatalf("Total = %d, want 2", res.Total)
	}
	want := []TodoItem{
		{Content: "Write tests", Status: TodoPending, Priority: PriorityHigh},
		{Content: "Deploy", Status: TodoCompleted, Priority: PriorityMedium},
	}
	for i, w := range want {
		if res.Items[i] != w {
			t.Errorf("item %d = %+v, want %+v", i, res.Items[i], w)
		}
	}
}

func TestParseTodoText(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []TodoItem
	}{
		{
			"numbered list",
			"1. First thing (priority: medium)\n2. Second thing",
			[]TodoItem{
				{Content: "First thing", Status: TodoPending, Priority: PriorityMedium},
				{Content: "Second thing", Status: TodoPending, Priority: PriorityMedium},
			},
		},
		{
			"in-progress checkbox",
			"- [~] Halfway there",
			[]TodoItem{{Content: "Halfway there", Status: TodoInProgress, Priority: PriorityMedium}},
		},
		{
			"numeric priority shorthand",
			"- [ ] Cleanup (priority: 1)",
			[]TodoItem{{Content: "Cleanup", Status: TodoPending, Priority: PriorityLow}},
		},
		{
			"non-list lines skipped",
			"Here is your list:\n- [ ] Real item\nThanks!",
			[]TodoItem{{Content: "Real item", Status: TodoPending, Priority: PriorityMedium}},
		},
		{
			"nothing parseable",
			"just prose with no list at all",
			nil,
		},
	}

	for _, tt := range tests {
		got := ParseTodoText(tt.text)
		if len(got) != len(tt.want) {
			t.Errorf("%s: got %d items, want %d", tt.name, len(got), len(tt.want))
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("%s: item %d = %+v, want %+v", tt.name, i, got[i], tt.want[i])
			}
		}
	}
}

func TestNormalizeTodoStatus(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"pending", TodoPending},
		{"IN_PROGRESS", TodoInProgress},
		{"in-progress", TodoInProgress},
		{" In Progress ", TodoInProgress},
		{"done", TodoCompleted},
		{"Completed", TodoCompleted},
		{"complete", TodoCompleted},
		{"???", TodoPending},
		{"", TodoPending},
	}

	for _, tt := range tests {
		if got := NormalizeTodoStatus(tt.in); got != tt.want {
			t.Errorf("NormalizeTodoStatus(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	// Idempotence on already-canonical tokens.
	for _, canon := range []string{TodoPending, TodoInProgress, TodoCompleted} {
		if got := NormalizeTodoStatus(canon); got != canon {
			t.Errorf("NormalizeTodoStatus(%q) = %q, want identity", canon, got)
		}
	}
}

func TestNormalizeTodoPriority(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1", PriorityLow},
		{"2", PriorityMedium},
		{"3", PriorityHigh},
		{"HIGH", PriorityHigh},
		{"urgent", PriorityHigh},
		{"low", PriorityLow},
		{"normal", PriorityMedium},
		{"whatever", PriorityMedium},
		{"", PriorityMedium},
	}

	for _, tt := range tests {
		if got := NormalizeTodoPriority(tt.in); got != tt.want {
			t.Errorf("NormalizeTodoPriority(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	for _, canon := range []string{PriorityLow, PriorityMedium, PriorityHigh} {
		if got := NormalizeTodoPriority(canon); got != canon {
			t.Errorf("NormalizeTodoPriority(%q) = %q, want identity", canon, got)
		}
	}
}
