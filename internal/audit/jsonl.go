package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// JSONLLog stores one JSON entry per line in an append-only file. Malformed
// lines are skipped on read so one bad write cannot poison the whole log.
type JSONLLog struct {
	mu   sync.Mutex
	path string
}

// NewJSONL creates a JSONL log at the given path. The file is created lazily
// on first append.
func NewJSONL(path string) *JSONLLog {
	return &JSONLLog{path: path}
}

func (l *JSONLLog) Append(_ context.Context, entry Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return eris.Wrap(err, "audit: create log directory")
		}
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return eris.Wrap(err, "audit: marshal entry")
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return eris.Wrap(err, "audit: open log")
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return eris.Wrap(err, "audit: write entry")
	}
	return nil
}

func (l *JSONLLog) List(_ context.Context, cursor, limit int) (ListResult, error) {
	entries, err := l.readAll()
	if err != nil {
		return ListResult{}, err
	}
	return page(entries, cursor, limit), nil
}

func (l *JSONLLog) Get(_ context.Context, id string) (*Entry, error) {
	entries, err := l.readAll()
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].ID == id {
			return &entries[i], nil
		}
	}
	return nil, nil
}

func (l *JSONLLog) Clear(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	err := os.Remove(l.path)
	if err != nil && !os.IsNotExist(err) {
		return eris.Wrap(err, "audit: clear log")
	}
	return nil
}

func (l *JSONLLog) Close() error { return nil }

func (l *JSONLLog) readAll() ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "audit: open log")
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			zap.L().Warn("audit: skipping malformed log line", zap.Error(err))
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, eris.Wrap(err, "audit: read log")
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	return entries, nil
}
