package audit

import "context"

const (
	defaultListLimit = 50
	maxListLimit     = 100
)

// ListResult is one page of entries, newest first.
type ListResult struct {
	Items []Entry `json:"items"`
	// NextCursor is set only when more entries remain.
	NextCursor *int `json:"nextCursor,omitempty"`
}

// Log is the append-only audit log collaborator contract. Implementations
// must never reorder or rewrite appended entries.
type Log interface {
	Append(ctx context.Context, entry Entry) error
	// List pages forward from cursor (an offset into the newest-first
	// ordering). A zero or negative limit uses the default.
	List(ctx context.Context, cursor, limit int) (ListResult, error)
	Get(ctx context.Context, id string) (*Entry, error)
	Clear(ctx context.Context) error
	Close() error
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

// page slices a newest-first entry list by cursor/limit and computes the next
// cursor. Shared by the backends so pagination behaves identically.
func page(entries []Entry, cursor, limit int) ListResult {
	limit = clampLimit(limit)
	if cursor < 0 {
		cursor = 0
	}
	if cursor >= len(entries) {
		return ListResult{Items: []Entry{}}
	}

	end := cursor + limit
	if end > len(entries) {
		end = len(entries)
	}

	result := ListResult{Items: entries[cursor:end]}
	if end < len(entries) {
		next := end
		result.NextCursor = &next
	}
	return result
}
