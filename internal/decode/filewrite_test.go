package decode

import "testing"

func TestWriteCreatedVsOverwritten(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"File created successfully at: /tmp/notes.md", "created"},
		{"The file /tmp/notes.md has been updated successfully.", "overwritten"},
		{"something else entirely", ""},
	}

	for _, tt := range tests {
		d := &WriteDecoder{}
		rec, err := d.Decode(
			callEntry("Write", "X", `{"file_path":"/tmp/notes.md","content":"# hi"}`),
			textResult("X", tt.message),
		)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		res := rec.Results.(WriteResults)
		if res.Action != tt.want {
			t.Errorf("message %q: Action = %q, want %q", tt.message, res.Action, tt.want)
		}
		if res.FileType != "markdown" {
			t.Errorf("FileType = %q, want markdown", res.FileType)
		}
	}
}

func TestWriteMissingPathYieldsEmptyString(t *testing.T) {
	d := &WriteDecoder{}
	rec, err := d.Decode(callEntry("Write", "X", `{}`), nil)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	res := rec.Results.(WriteResults)
	if res.FilePath != "" || res.FileType != "" {
		t.Errorf("Results = %+v, want empty strings", res)
	}
}

func TestFileTypeOf(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/a/readme.md", "markdown"},
		{"/a/doc.MARKDOWN", "markdown"},
		{"/a/app.ts", "typescript"},
		{"/a/ui.tsx", "typescript"},
		{"/a/run.py", "python"},
		{"/a/main.go", "go"},
		{"/a/conf.yml", "yaml"},
		{"/a/odd.xyz", "xyz"},
		{"/a/Makefile", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := FileTypeOf(tt.path); got != tt.want {
			t.Errorf("FileTypeOf(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestMultiEditCountsEdits(t *testing.T) {
	d := &MultiEditDecoder{}
	rec, err := d.Decode(
		callEntry("MultiEdit", "X", `{"file_path":"/a/main.go","edits":[
			{"old_string":"a","new_string":"b"},
			{"old_string":"c","new_string":"d","replace_all":true}
		]}`),
		textResult("X", "Applied 2 edits to /a/main.go"),
	)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	res := rec.Results.(MultiEditResults)
	if res.EditCount != 2 || !res.Applied || res.FileType != "go" {
		t.Errorf("Results = %+v", res)
	}
}

func TestEditFailedNotApplied(t *testing.T) {
	d := &EditDecoder{}
	rec, err := d.Decode(
		callEntry("Edit", "X", `{"file_path":"/a/main.go","old_string":"x","new_string":"y"}`),
		resultEntry("X", `"old_string not found in file"`, true),
	)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if rec.Status != StatusFailed {
		t.Errorf("Status = %q, want failed", rec.Status)
	}
	if rec.Results.(EditResults).Applied {
		t.Error("Applied should be false on failure")
	}
}
