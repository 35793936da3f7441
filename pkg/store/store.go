package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"convostore/pkg/logger"
	"convostore/pkg/models"
)

// ErrNotFound is returned when no point exists for a conversation id.
var ErrNotFound = errors.New("conversation not found")

// Backend is the storage collaborator behind the gateway. Implementations
// must be safe for concurrent use; every method is a single round trip.
type Backend interface {
	// EnsureCollection creates the backing collection if it does not exist.
	EnsureCollection(ctx context.Context) error
	// Save upserts the full record keyed by its id.
	Save(ctx context.Context, c models.Conversation) error
	// Get returns the record for id, or ErrNotFound. Ownership is not
	// checked here; the gateway enforces user scoping.
	Get(ctx context.Context, id int64) (models.Conversation, error)
	// ListByUser returns up to limit records owned by userID.
	ListByUser(ctx context.Context, userID string, limit int) ([]models.Conversation, error)
	// Delete removes the record for id. Deleting a missing id is not an error.
	Delete(ctx context.Context, id int64) error
	// Collections reports how many collections the backend knows about;
	// doubles as the connectivity probe for /health.
	Collections(ctx context.Context) (int, error)
	// PurgeOlderThan deletes up to batch records whose updated_at is older
	// than cutoff, returning how many were (or would be, under dryRun) removed.
	PurgeOlderThan(ctx context.Context, cutoff time.Time, batch int, dryRun bool) (int, error)
	Close() error
}

// backend is the process-wide handle: set once by Open during startup,
// released by Close during shutdown, read-only in between.
var backend Backend

// Open installs the backend handle. Call once at startup before serving.
func Open(b Backend) {
	backend = b
	logger.Info("store_opened")
}

// Close releases the backend handle if present.
func Close() error {
	if backend == nil {
		return nil
	}
	err := backend.Close()
	backend = nil
	logger.Info("store_closed")
	return err
}

// Ready reports whether the store is opened.
func Ready() bool { return backend != nil }

func notOpened() error { return fmt.Errorf("store not opened; call store.Open first") }

// EnsureCollection bootstraps the backing collection.
func EnsureCollection(ctx context.Context) error {
	if backend == nil {
		return notOpened()
	}
	start := time.Now()
	err := backend.EnsureCollection(ctx)
	observe("ensure_collection", start, err)
	return err
}

// SaveConversation upserts a conversation record.
func SaveConversation(ctx context.Context, c models.Conversation) error {
	if backend == nil {
		return notOpened()
	}
	start := time.Now()
	err := backend.Save(ctx, c)
	observe("save", start, err)
	if err != nil {
		logger.Error("save_conversation_failed", "id", c.ID, "user", c.UserID, "error", err)
		return err
	}
	logger.Info("conversation_saved", "id", c.ID, "user", c.UserID)
	return nil
}

// GetConversation returns the record for id or ErrNotFound.
func GetConversation(ctx context.Context, id int64) (models.Conversation, error) {
	if backend == nil {
		return models.Conversation{}, notOpened()
	}
	start := time.Now()
	c, err := backend.Get(ctx, id)
	observe("get", start, err)
	return c, err
}

// ListConversations returns up to limit records owned by userID.
func ListConversations(ctx context.Context, userID string, limit int) ([]models.Conversation, error) {
	if backend == nil {
		return nil, notOpened()
	}
	start := time.Now()
	out, err := backend.ListByUser(ctx, userID, limit)
	observe("list", start, err)
	return out, err
}

// DeleteConversation removes the record for id.
func DeleteConversation(ctx context.Context, id int64) error {
	if backend == nil {
		return notOpened()
	}
	start := time.Now()
	err := backend.Delete(ctx, id)
	observe("delete", start, err)
	if err != nil {
		logger.Error("delete_conversation_failed", "id", id, "error", err)
		return err
	}
	logger.Info("conversation_deleted", "id", id)
	return nil
}

// Collections probes backend connectivity for /health.
func Collections(ctx context.Context) (int, error) {
	if backend == nil {
		return 0, notOpened()
	}
	start := time.Now()
	n, err := backend.Collections(ctx)
	observe("collections", start, err)
	return n, err
}

// PurgeOlderThan removes stale records; used by the retention runner.
func PurgeOlderThan(ctx context.Context, cutoff time.Time, batch int, dryRun bool) (int, error) {
	if backend == nil {
		return 0, notOpened()
	}
	start := time.Now()
	n, err := backend.PurgeOlderThan(ctx, cutoff, batch, dryRun)
	observe("purge", start, err)
	return n, err
}
