package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

type stubLowStockLister struct {
	details []VariationDetail
	err     error
}

func (s *stubLowStockLister) ListLowStockVariations(ctx context.Context, threshold int) ([]VariationDetail, error) {
	return s.details, s.err
}

type stubNotifier struct {
	lines   []LowStockLine
	failSKU string
}

func (s *stubNotifier) NotifyLowStock(ctx context.Context, line LowStockLine) error {
	if line.SKU == s.failSKU {
		return errors.New("publish failed")
	}
	s.lines = append(s.lines, line)
	return nil
}

func TestStockCheckerBuildsReport(t *testing.T) {
	lister := &stubLowStockLister{details: []VariationDetail{
		{SKU: "SKU-1", ProductName: "Linen Shirt", Size: "S", QtyInStock: 2},
		{SKU: "SKU-2", ProductName: "Wool Coat", Size: "M", QtyInStock: 0},
	}}
	notifier := &stubNotifier{}

	checker, err := NewStockChecker(lister, notifier, 5, nil, nil)
	require.NoError(t, err)

	report, err := checker.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Lines, 2)
	assert.Equal(t, 5, report.Threshold)
	assert.Len(t, notifier.lines, 2)
}

func TestStockCheckerCollectsNotifyFailures(t *testing.T) {
	lister := &stubLowStockLister{details: []VariationDetail{
		{SKU: "SKU-OK", ProductName: "A", Size: "S", QtyInStock: 1},
		{SKU: "SKU-BAD", ProductName: "B", Size: "M", QtyInStock: 1},
		{SKU: "SKU-ALSO-OK", ProductName: "C", Size: "L", QtyInStock: 1},
	}}
	notifier := &stubNotifier{failSKU: "SKU-BAD"}

	checker, err := NewStockChecker(lister, notifier, 5, nil, nil)
	require.NoError(t, err)

	report, err := checker.Run(context.Background())
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 1)
	// the report still includes every line even when a notification fails
	require.NotNil(t, report)
	assert.Len(t, report.Lines, 3)
	assert.Len(t, notifier.lines, 2)
}

func TestStockCheckerRejectsBadInputs(t *testing.T) {
	_, err := NewStockChecker(nil, nil, 5, nil, nil)
	assert.Error(t, err)

	_, err = NewStockChecker(&stubLowStockLister{}, nil, -1, nil, nil)
	assert.Error(t, err)
}

func TestStockCheckerListFailure(t *testing.T) {
	lister := &stubLowStockLister{err: errors.New("db down")}
	checker, err := NewStockChecker(lister, nil, 5, nil, nil)
	require.NoError(t, err)

	_, err = checker.Run(context.Background())
	assert.Error(t, err)
}
