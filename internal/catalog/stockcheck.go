package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/ateliermoda/moda-backend/pkg/logger"
	"github.com/ateliermoda/moda-backend/pkg/metrics"
	"go.uber.org/multierr"
)

const stockCheckJobName = "stock-check"

type lowStockLister interface {
	ListLowStockVariations(ctx context.Context, threshold int) ([]VariationDetail, error)
}

type lowStockNotifier interface {
	NotifyLowStock(ctx context.Context, line LowStockLine) error
}

// LowStockLine is one entry of the stock report.
type LowStockLine struct {
	SKU         string `json:"sku"`
	ProductName string `json:"product_name"`
	Color       string `json:"color"`
	Size        string `json:"size"`
	QtyInStock  int    `json:"qty_in_stock"`
}

// StockReport summarizes one stock-check run.
type StockReport struct {
	Threshold int            `json:"threshold"`
	Lines     []LowStockLine `json:"lines"`
	RanAt     time.Time      `json:"ran_at"`
}

// StockChecker walks the catalog and reports variations running low.
type StockChecker struct {
	repo      lowStockLister
	notifier  lowStockNotifier
	threshold int
	logg      *logger.Logger
	jobs      *metrics.JobMetrics
}

// NewStockChecker builds the checker. The notifier and metrics are optional.
func NewStockChecker(repo lowStockLister, notifier lowStockNotifier, threshold int, logg *logger.Logger, jobs *metrics.JobMetrics) (*StockChecker, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if threshold < 0 {
		return nil, fmt.Errorf("threshold must be non-negative")
	}
	return &StockChecker{
		repo:      repo,
		notifier:  notifier,
		threshold: threshold,
		logg:      logg,
		jobs:      jobs,
	}, nil
}

// Run produces the low-stock report and fans out notifications. Notification
// failures are collected so one bad line does not hide the rest.
func (c *StockChecker) Run(ctx context.Context) (*StockReport, error) {
	start := time.Now()

	variations, err := c.repo.ListLowStockVariations(ctx, c.threshold)
	if err != nil {
		c.jobs.IncFailure(stockCheckJobName)
		return nil, fmt.Errorf("list low stock variations: %w", err)
	}

	report := &StockReport{
		Threshold: c.threshold,
		RanAt:     start.UTC(),
	}

	var notifyErr error
	for _, variation := range variations {
		line := LowStockLine{
			SKU:         variation.SKU,
			ProductName: variation.ProductName,
			Color:       variation.Color,
			Size:        variation.Size,
			QtyInStock:  variation.QtyInStock,
		}
		report.Lines = append(report.Lines, line)

		if c.notifier == nil {
			continue
		}
		if err := c.notifier.NotifyLowStock(ctx, line); err != nil {
			notifyErr = multierr.Append(notifyErr, fmt.Errorf("notify sku %s: %w", line.SKU, err))
		}
	}

	c.jobs.ObserveDuration(stockCheckJobName, time.Since(start))
	if notifyErr != nil {
		c.jobs.IncFailure(stockCheckJobName)
		return report, notifyErr
	}

	c.jobs.IncSuccess(stockCheckJobName)
	if c.logg != nil {
		ctx = c.logg.WithField(ctx, "low_stock_count", len(report.Lines))
		c.logg.Info(ctx, "stock check completed")
	}
	return report, nil
}
