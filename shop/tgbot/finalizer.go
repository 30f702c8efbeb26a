package tgbot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/m3rciful/kitbot/core/logger"
	"github.com/m3rciful/kitbot/shop/catalog"
	"github.com/m3rciful/kitbot/shop/menu"
)

// OrderFinalizer confirms a selection under a fresh order id.
type OrderFinalizer struct {
	// NewID defaults to uuid.NewString.
	NewID func() string
}

// Finalize logs the order and returns the confirmation text.
func (f OrderFinalizer) Finalize(ctx context.Context, userID int64, items []*catalog.Variant) (string, error) {
	newID := f.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	id := newID()
	if _, err := uuid.Parse(id); err != nil {
		return "", fmt.Errorf("order id %q: %w", id, err)
	}

	total := menu.FormatPrice(menu.Total(items))
	logger.Info(ctx, "conversation", "selection.confirm",
		slog.String("status", "ok"),
		slog.Int64("user_id", userID),
		slog.String("order_id", id),
		slog.Int("count", len(items)),
		slog.String("total", total),
	)
	return fmt.Sprintf("Selections confirmed\nOrder: %s\nItems: %d\nTotal: %s", id, len(items), total), nil
}
