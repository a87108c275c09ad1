package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/ateliermoda/moda-backend/internal/catalog"
	"github.com/ateliermoda/moda-backend/internal/identity"
	pkgerrors "github.com/ateliermoda/moda-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type variationOracle interface {
	GetVariationDetail(ctx context.Context, variationID uuid.UUID) (*catalog.VariationDetail, error)
}

// Service exposes the cart operations.
type Service interface {
	View(ctx context.Context, owner identity.Identity) (*CartDTO, error)
	AddItem(ctx context.Context, owner identity.Identity, variationID uuid.UUID, qty int) (*CartDTO, bool, error)
	UpdateItem(ctx context.Context, owner identity.Identity, variationID uuid.UUID, qty int) (*CartDTO, error)
	RemoveItem(ctx context.Context, owner identity.Identity, variationID uuid.UUID) error
}

type service struct {
	repo    *Repository
	tx      txRunner
	catalog variationOracle
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo *Repository, tx txRunner, oracle variationOracle) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if oracle == nil {
		return nil, fmt.Errorf("variation oracle required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		catalog: oracle,
	}, nil
}

// View returns the owner's cart priced live, creating the cart when absent.
func (s *service) View(ctx context.Context, owner identity.Identity) (*CartDTO, error) {
	if owner.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart owner is required")
	}

	cart, err := s.repo.GetOrCreate(ctx, owner)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return s.buildDTO(ctx, cart.ID)
}

// AddItem puts qty units of the variation into the cart, stacking onto any
// existing line. The increment and the stock check run inside one
// transaction: the line is bumped atomically, re-read, and the whole
// mutation rolls back when the resulting quantity exceeds stock. The second
// result reports whether the line was newly created.
func (s *service) AddItem(ctx context.Context, owner identity.Identity, variationID uuid.UUID, qty int) (*CartDTO, bool, error) {
	if owner.IsZero() {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "cart owner is required")
	}
	if variationID == uuid.Nil {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "variation id is required")
	}
	if qty <= 0 {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	detail, err := s.loadSellableVariation(ctx, variationID)
	if err != nil {
		if errors.Is(err, errVariationUnavailable) {
			// asking to add something that cannot be sold is a bad request,
			// not a miss on an existing resource
			return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "variation does not exist")
		}
		return nil, false, err
	}

	var cartID uuid.UUID
	var created bool
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		cart, err := txRepo.GetOrCreate(ctx, owner)
		if err != nil {
			return err
		}
		cartID = cart.ID

		_, err = txRepo.GetLine(ctx, cart.ID, variationID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			created = true
		case err != nil:
			return err
		}

		if err := txRepo.UpsertLineIncrement(ctx, cart.ID, variationID, qty); err != nil {
			return err
		}

		line, err := txRepo.GetLine(ctx, cart.ID, variationID)
		if err != nil {
			return err
		}
		if line.Quantity > detail.QtyInStock {
			return pkgerrors.InsufficientStock(detail.QtyInStock)
		}
		return nil
	}); err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, false, typed
		}
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add cart item")
	}

	dto, err := s.buildDTO(ctx, cartID)
	return dto, created, err
}

// UpdateItem overwrites the line quantity after checking stock.
func (s *service) UpdateItem(ctx context.Context, owner identity.Identity, variationID uuid.UUID, qty int) (*CartDTO, error) {
	if owner.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart owner is required")
	}
	if variationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "variation id is required")
	}
	if qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	detail, err := s.loadSellableVariation(ctx, variationID)
	if err != nil {
		if errors.Is(err, errVariationUnavailable) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variation not found")
		}
		return nil, err
	}
	if qty > detail.QtyInStock {
		return nil, pkgerrors.InsufficientStock(detail.QtyInStock)
	}

	var cartID uuid.UUID
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		cart, err := txRepo.FindByOwner(ctx, owner)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
			}
			return err
		}
		cartID = cart.ID

		affected, err := txRepo.SetLineQuantity(ctx, cart.ID, variationID, qty)
		if err != nil {
			return err
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil
	}); err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
	}

	return s.buildDTO(ctx, cartID)
}

// RemoveItem deletes the line. Lines are only ever addressed through the
// owner's cart, so a miss reads the same whether the variation never
// existed or belongs to someone else's cart.
func (s *service) RemoveItem(ctx context.Context, owner identity.Identity, variationID uuid.UUID) error {
	if owner.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart owner is required")
	}
	if variationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "variation id is required")
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		cart, err := txRepo.FindByOwner(ctx, owner)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
			}
			return err
		}

		affected, err := txRepo.DeleteLine(ctx, cart.ID, variationID)
		if err != nil {
			return err
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil
	}); err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return typed
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
	}
	return nil
}

// errVariationUnavailable marks an unknown or inactive variation. Callers map
// it: add treats the miss as invalid input, update as a not-found line.
var errVariationUnavailable = errors.New("variation unavailable")

func (s *service) loadSellableVariation(ctx context.Context, variationID uuid.UUID) (*catalog.VariationDetail, error) {
	detail, err := s.catalog.GetVariationDetail(ctx, variationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errVariationUnavailable
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variation")
	}
	if !detail.IsActive {
		return nil, errVariationUnavailable
	}
	return detail, nil
}

func (s *service) buildDTO(ctx context.Context, cartID uuid.UUID) (*CartDTO, error) {
	lines, err := s.repo.ListLines(ctx, cartID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart lines")
	}

	dto := &CartDTO{
		ID:       cartID,
		Subtotal: decimal.Zero,
	}

	for _, line := range lines {
		detail, err := s.catalog.GetVariationDetail(ctx, line.VariationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				dto.Lines = append(dto.Lines, LineDTO{
					VariationID: line.VariationID,
					Quantity:    line.Quantity,
					Unavailable: true,
				})
				continue
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "price cart line")
		}

		lineTotal := detail.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		dto.Lines = append(dto.Lines, LineDTO{
			VariationID: line.VariationID,
			ProductID:   detail.ProductID,
			ProductName: detail.ProductName,
			SKU:         detail.SKU,
			Color:       detail.Color,
			Size:        detail.Size,
			Quantity:    line.Quantity,
			UnitPrice:   detail.UnitPrice,
			LineTotal:   lineTotal,
			OnSale:      detail.OnSale,
			QtyInStock:  detail.QtyInStock,
			Unavailable: !detail.IsActive,
		})
		dto.Subtotal = dto.Subtotal.Add(lineTotal)
		dto.TotalItems += line.Quantity
	}

	return dto, nil
}
