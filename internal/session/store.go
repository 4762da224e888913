// Package session persists conversation state between turns.
package session

import (
	"context"
	"errors"

	"tourchat/internal/models"
)

// ErrNotFound is returned when no conversation exists for the given ID.
var ErrNotFound = errors.New("session: conversation not found")

// Store holds conversations keyed by conversation ID. Entries expire after
// the configured TTL; an expired conversation reads as ErrNotFound.
type Store interface {
	// Get returns the conversation for id, or ErrNotFound.
	Get(ctx context.Context, id string) (*models.Conversation, error)

	// Save writes the conversation and resets its TTL.
	Save(ctx context.Context, conv *models.Conversation) error

	// Delete removes the conversation. Deleting a missing ID is not an error.
	Delete(ctx context.Context, id string) error

	// Lock serializes turn processing for one conversation. The returned
	// function releases the lock.
	Lock(id string) func()

	// Close releases backend resources.
	Close() error
}
