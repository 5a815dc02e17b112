// Package vault stores the user's personal data items, each addressed by a
// unique key. The matching core reads key, category and label; raw values are
// touched only at apply time.
package vault

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
)

// Category organizes vault items.
type Category string

const (
	CategoryIdentity  Category = "identity"
	CategoryContact   Category = "contact"
	CategoryAddress   Category = "address"
	CategoryFinancial Category = "financial"
	CategoryCustom    Category = "custom"
)

// Source records how a vault item was acquired.
type Source string

const (
	SourceUserEntered Source = "user_entered"
	SourceImported    Source = "imported"
	SourceAutofilled  Source = "autofilled"
)

// Provenance tracks where a piece of data came from and when.
type Provenance struct {
	Source     Source    `json:"source"`
	Timestamp  time.Time `json:"timestamp"`
	Confidence float64   `json:"confidence"`
	Origin     string    `json:"origin,omitempty"`
}

// Metadata tracks when and how an item was used.
type Metadata struct {
	Created    time.Time  `json:"created"`
	Updated    time.Time  `json:"updated"`
	LastUsed   *time.Time `json:"lastUsed,omitempty"`
	UsageCount int        `json:"usageCount"`
}

// Item is a single piece of personal data in the vault.
type Item struct {
	Key        string     `json:"key"`
	Value      string     `json:"value"`
	Label      string     `json:"label"`
	Category   Category   `json:"category"`
	Provenance Provenance `json:"provenance"`
	Metadata   Metadata   `json:"metadata"`
}

// MarkUsed bumps the usage counters on the item.
func (i *Item) MarkUsed(now time.Time) {
	i.Metadata.LastUsed = &now
	i.Metadata.UsageCount++
}

// ErrNotFound is returned by Delete when no item exists for the key.
var ErrNotFound = eris.New("vault: item not found")

// Store is the persistence interface for vault items. Implementations must be
// safe for concurrent use.
type Store interface {
	Set(ctx context.Context, item Item) error
	Get(ctx context.Context, key string) (*Item, error)
	List(ctx context.Context) ([]Item, error)
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Close() error
}
