package decode

import "testing"

func TestGrepGroupsMatchesByFile(t *testing.T) {
	d := &GrepDecoder{}

	out := "internal/a.go:10:func main() {\ninternal/a.go:22:\t// colon: inside content\ninternal/b.go:3:package b"
	rec, err := d.Decode(
		callEntry("Grep", "X", `{"pattern":"func","path":"internal"}`),
		textResult("X", out),
	)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	res := rec.Results.(GrepResults)
	if res.MatchCount != 3 {
		t.Fatalf("MatchCount = %d, want 3", res.MatchCount)
	}
	if len(res.Files) != 2 {
		t.Fatalf("Files = %d, want 2", len(res.Files))
	}
	if res.Files[0].File != "internal/a.go" || len(res.Files[0].Matches) != 2 {
		t.Errorf("first group = %+v", res.Files[0])
	}
	if res.Files[0].Matches[1].Content != "\t// colon: inside content" {
		t.Errorf("content with colon = %q", res.Files[0].Matches[1].Content)
	}
	if res.Files[1].Matches[0].Line != 3 {
		t.Errorf("line = %d, want 3", res.Files[1].Matches[0].Line)
	}
}

// The no-guessing policy: anything that is not strictly path:line:content
// yields an empty, non-nil result set.
func TestGrepUnrecognizedShapeYieldsEmpty(t *testing.T) {
	outputs := []string{
		"Found 12 files",
		"internal/a.go\ninternal/b.go",
		"internal/a.go:notanumber:content",
		"a.go:10:ok\nFound 1 file", // one bad line discards the parse
		"",
	}

	for _, out := range outputs {
		d := &GrepDecoder{}
		rec, err := d.Decode(callEntry("Grep", "X", `{"pattern":"x"}`), textResult("X", out))
		if err != nil {
			t.Fatalf("Decode(%q): %v", out, err)
		}
		res := rec.Results.(GrepResults)
		if res.Files == nil {
			t.Errorf("output %q: Files is nil, want empty slice", out)
		}
		if len(res.Files) != 0 || res.MatchCount != 0 {
			t.Errorf("output %q: got %d files / %d matches, want empty", out, len(res.Files), res.MatchCount)
		}
		if rec.Status != StatusCompleted {
			t.Errorf("output %q: Status = %q, want completed", out, rec.Status)
		}
	}
}

func TestSplitGrepLine(t *testing.T) {
	tests := []struct {
		line string
		file string
		n    int
		ok   bool
	}{
		{"a.go:1:x", "a.go", 1, true},
		{"dir/a.go:42:y:z", "dir/a.go", 42, true},
		{"a.go:0:x", "", 0, false},
		{"a.go:x", "", 0, false},
		{":1:x", "", 0, false},
		{"noseparators", "", 0, false},
	}

	for _, tt := range tests {
		file, n, _, ok := splitGrepLine(tt.line)
		if ok != tt.ok || file != tt.file || n != tt.n {
			t.Errorf("splitGrepLine(%q) = %q,%d,%v; want %q,%d,%v",
				tt.line, file, n, ok, tt.file, tt.n, tt.ok)
		}
	}
}
