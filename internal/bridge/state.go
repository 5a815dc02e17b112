package bridge

import (
	"sync"
	"time"

	"github.com/asterisk-app/asterisk/internal/model"
)

// CommandQueue holds pending fill commands for the extension to poll. It is
// in-memory only; commands disappear on restart, matching their short expiry.
type CommandQueue struct {
	mu       sync.Mutex
	commands []model.FillCommand
	now      func() time.Time
}

// NewCommandQueue creates an empty queue. A nil clock uses time.Now.
func NewCommandQueue(now func() time.Time) *CommandQueue {
	if now == nil {
		now = time.Now
	}
	return &CommandQueue{now: now}
}

// Push enqueues a command, replacing any pending command with the same id.
func (q *CommandQueue) Push(cmd model.FillCommand) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.commands = filterCommands(q.commands, func(c model.FillCommand) bool { return c.ID != cmd.ID })
	q.commands = append(q.commands, cmd)
}

// Pending returns live commands, optionally filtered by target domain.
// Expired commands are dropped rather than returned: an expired command must
// be rejected, never executed late.
func (q *CommandQueue) Pending(domain string) []model.FillCommand {
	q.mu.Lock()
	defer q.mu.Unlock()
	now := q.now()
	q.commands = filterCommands(q.commands, func(c model.FillCommand) bool { return !c.Expired(now) })

	out := make([]model.FillCommand, 0, len(q.commands))
	for _, c := range q.commands {
		if domain == "" || c.MatchesDomain(domain) {
			out = append(out, c)
		}
	}
	return out
}

// Ack removes a consumed command by id.
func (q *CommandQueue) Ack(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.commands = filterCommands(q.commands, func(c model.FillCommand) bool { return c.ID != id })
}

func filterCommands(in []model.FillCommand, keep func(model.FillCommand) bool) []model.FillCommand {
	out := in[:0]
	for _, c := range in {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}
