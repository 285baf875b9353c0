package orderlog

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/Cheertaboi/storefront-order-service/internal/models"
)

// NewEntry builds an entry stamped with the trace id of the span active in
// ctx, if any.
func NewEntry(ctx context.Context, orderID int64, from, to models.Status, actor, note string) *Entry {
	e := &Entry{
		OrderID: orderID,
		From:    from,
		To:      to,
		Note:    note,
		Actor:   actor,
		At:      time.Now().UTC(),
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		e.TraceID = sc.TraceID().String()
	}
	return e
}
