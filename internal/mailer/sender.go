package mailer

import (
	"context"
	"fmt"

	"github.com/ateliermoda/moda-backend/pkg/config"
	"github.com/ateliermoda/moda-backend/pkg/logger"
)

// Sender delivers the rendered emails. The worker is transport-agnostic so
// a real provider can slot in behind this interface.
type Sender interface {
	SendConfirmEmail(ctx context.Context, task ConfirmEmailTask) error
	SendLowStockAlert(ctx context.Context, task LowStockAlertTask) error
}

// LogSender writes the would-be emails to the log. It backs local and dev
// environments where no provider is configured.
type LogSender struct {
	from string
	logg *logger.Logger
}

func NewLogSender(cfg config.EmailConfig, logg *logger.Logger) (*LogSender, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &LogSender{from: cfg.DefaultFrom, logg: logg}, nil
}

func (s *LogSender) SendConfirmEmail(ctx context.Context, task ConfirmEmailTask) error {
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"from":        s.from,
		"to":          task.Email,
		"user_id":     task.UserID.String(),
		"confirm_url": task.ConfirmURL,
	})
	s.logg.Info(logCtx, "confirm email sent")
	return nil
}

func (s *LogSender) SendLowStockAlert(ctx context.Context, task LowStockAlertTask) error {
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"from":         s.from,
		"sku":          task.SKU,
		"product_name": task.ProductName,
		"qty_in_stock": task.QtyInStock,
	})
	s.logg.Info(logCtx, "low stock alert sent")
	return nil
}
