package monitor

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthropic/toolstream/internal/entry"
)

// ReadAll walks the root in lexical order and streams every parseable
// entry to fn, file by file, line by line. It is independent of the
// watcher's offset table: a second call replays everything. A missing
// root yields zero entries and no error. Malformed lines are logged and
// skipped; fn returning an error aborts the walk.
func (m *Monitor) ReadAll(ctx context.Context, fn func(*entry.RawEntry) error) error {
	if _, err := os.Stat(m.root); os.IsNotExist(err) {
		return nil
	}

	return filepath.WalkDir(m.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".jsonl") {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return m.readFile(path, fn)
	})
}

func (m *Monitor) readFile(path string, fn func(*entry.RawEntry) error) error {
	f, err := os.Open(path)
	if err != nil {
		m.log.Warn().Err(err).Str("path", path).Msg("skipping unreadable session file")
		return nil
	}
	defer f.Close()

	sessionID := sessionIDFromPath(path)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		e, err := entry.ParseLine(scanner.Bytes())
		if err != nil {
			m.log.Warn().Err(err).Str("path", path).Int("line", lineNo).Msg("skipping malformed line")
			continue
		}
		if e == nil {
			continue
		}
		e.SessionID = sessionID
		if err := fn(e); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		m.log.Warn().Err(err).Str("path", path).Msg("stopped reading session file")
	}
	return nil
}

// readNewEntries reads complete lines past the recorded offset and
// advances it. The offset never moves past a line without a trailing
// newline, so a partially flushed write is picked up whole on the next
// event. If the file shrank the offset resets to zero.
func (m *Monitor) readNewEntries(path string) ([]*entry.RawEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	offset := m.offsets[path]
	m.mu.Unlock()

	if info.Size() < offset {
		m.log.Warn().Str("path", path).Msg("session file truncated, rereading from start")
		offset = 0
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return nil, err
	}

	var entries []*entry.RawEntry
	reader := bufio.NewReader(f)
	for {
		line, err := reader.ReadBytes('\n')
		if err == io.EOF {
			// Incomplete trailing line stays unread.
			break
		}
		if err != nil {
			return nil, err
		}
		offset += int64(len(line))

		e, perr := entry.ParseLine(line)
		if perr != nil {
			m.log.Warn().Err(perr).Str("path", path).Msg("skipping malformed line")
			continue
		}
		if e != nil {
			entries = append(entries, e)
		}
	}

	m.mu.Lock()
	m.offsets[path] = offset
	m.mu.Unlock()

	return entries, nil
}
