package database

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Handler runs statements against the database and tells subscribers which
// tables changed once a write has committed.
type Handler struct {
	db  *gorm.DB
	log logrus.FieldLogger

	mu        sync.Mutex
	nextID    int
	listeners map[string]map[int]chan struct{}
}

func NewHandler(db *gorm.DB, log logrus.FieldLogger) *Handler {
	return &Handler{
		db:        db,
		log:       log,
		listeners: make(map[string]map[int]chan struct{}),
	}
}

// DB returns the handle bound to ctx.
func (h *Handler) DB(ctx context.Context) *gorm.DB {
	return h.db.WithContext(ctx)
}

// Await runs fn outside a transaction. When fn succeeds the listed tables are
// reported as changed.
func (h *Handler) Await(ctx context.Context, fn func(db *gorm.DB) error, tables ...string) error {
	if err := fn(h.db.WithContext(ctx)); err != nil {
		return err
	}
	h.Notify(tables...)
	return nil
}

// AwaitInTransaction runs fn in a single transaction. Any error or a cancelled
// context rolls every statement back; subscribers hear about the listed tables
// only after commit.
func (h *Handler) AwaitInTransaction(ctx context.Context, fn func(tx *gorm.DB) error, tables ...string) error {
	if err := h.db.WithContext(ctx).Transaction(fn); err != nil {
		return err
	}
	h.Notify(tables...)
	return nil
}

// Notify wakes every subscriber watching one of tables. Pending wake-ups are
// coalesced so a slow subscriber re-queries once.
func (h *Handler) Notify(tables ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, table := range tables {
		for _, ch := range h.listeners[table] {
			select {
			case ch <- struct{}{}:
			default:
			}
		}
	}
}

func (h *Handler) listen(tables []string) (<-chan struct{}, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan struct{}, 1)
	for _, table := range tables {
		if h.listeners[table] == nil {
			h.listeners[table] = make(map[int]chan struct{})
		}
		h.listeners[table][id] = ch
	}

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		for _, table := range tables {
			delete(h.listeners[table], id)
		}
	}
	return ch, cancel
}

// Subscribe emits the result of query right away and again after every
// committed change to one of tables, until ctx is done or query fails. The
// channel is closed when the subscription ends. Each call starts a fresh
// subscription, so callers restart a stream by subscribing again.
func Subscribe[T any](ctx context.Context, h *Handler, tables []string, query func(db *gorm.DB) (T, error)) <-chan T {
	out := make(chan T)
	changed, cancel := h.listen(tables)

	go func() {
		defer close(out)
		defer cancel()

		for {
			result, err := query(h.db.WithContext(ctx))
			if err != nil {
				if ctx.Err() == nil {
					h.log.WithError(err).WithField("tables", tables).Warn("Subscription query failed")
				}
				return
			}

			select {
			case out <- result:
			case <-ctx.Done():
				return
			}

			select {
			case <-changed:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
