// Package orderlog keeps an append-only timeline of order status changes.
//
// Every transition (creation, payment review, fulfilment steps) appends one
// entry. The timeline is shown to the customer on the tracking page and to
// staff on the order detail view; trace_id ties an entry to the request
// that produced it.
package orderlog

import (
	"context"
	"time"

	"github.com/Cheertaboi/storefront-order-service/internal/models"
)

// Actors recorded on entries.
const (
	ActorCustomer = "customer"
	ActorAdmin    = "admin"
)

// Entry is a single row of the timeline.
type Entry struct {
	OrderID int64
	// From is empty for the creation entry.
	From    models.Status
	To      models.Status
	Note    string
	Actor   string
	TraceID string
	At      time.Time
}

// Event is the customer-facing projection of an entry.
func (e Entry) Event() models.StatusEvent {
	return models.StatusEvent{From: e.From, To: e.To, Note: e.Note, At: e.At}
}

// Repository persists timeline entries.
type Repository interface {
	// Append adds an entry; entries are never updated.
	Append(ctx context.Context, e *Entry) error
	// History returns an order's entries oldest first.
	History(ctx context.Context, orderID int64) ([]Entry, error)
}

// Events projects entries for display.
func Events(entries []Entry) []models.StatusEvent {
	out := make([]models.StatusEvent, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Event())
	}
	return out
}
