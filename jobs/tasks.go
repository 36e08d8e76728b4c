package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskQuotationExpiry sweeps pending quotations past their
	// validity date into the expired state.
	TaskQuotationExpiry = "quotations:expire"
)

// QuotationExpirer is implemented by the quotations service.
type QuotationExpirer interface {
	ExpireOverdue(ctx context.Context) (int, error)
}

// NewQuotationExpiryTask constructs the sweep task. It carries no
// payload; the sweep always works from the current clock.
func NewQuotationExpiryTask() *asynq.Task {
	return asynq.NewTask(TaskQuotationExpiry, nil)
}

// HandleQuotationExpiry returns the handler for TaskQuotationExpiry.
func HandleQuotationExpiry(logger *slog.Logger, expirer QuotationExpirer) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		n, err := expirer.ExpireOverdue(ctx)
		if err != nil {
			logger.Error("quotation expiry sweep", slog.Any("error", err))
			return err
		}
		if n > 0 {
			logger.Info("quotation expiry sweep", slog.Int("expired", n))
		}
		return nil
	}
}
