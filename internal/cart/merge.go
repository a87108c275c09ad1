package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/ateliermoda/moda-backend/internal/identity"
	pkgerrors "github.com/ateliermoda/moda-backend/pkg/errors"
	"github.com/ateliermoda/moda-backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MergeService folds a guest cart into the user's cart at login.
type MergeService struct {
	repo *Repository
	tx   txRunner
	logg *logger.Logger
}

// NewMergeService builds the merge service. The logger is optional.
func NewMergeService(repo *Repository, tx txRunner, logg *logger.Logger) (*MergeService, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &MergeService{repo: repo, tx: tx, logg: logg}, nil
}

// MergeOnLogin moves the session's cart to the user. When the user has no
// cart yet the guest cart is reassigned in place; otherwise quantities are
// summed per variation and the guest cart is deleted. The whole merge is one
// transaction, and stock is deliberately not revalidated here -- the add and
// update paths enforce it on the next mutation.
func (m *MergeService) MergeOnLogin(ctx context.Context, sessionKey string, userID uuid.UUID) error {
	guest, err := identity.Guest(sessionKey)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid session key")
	}
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	user, err := identity.User(userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id")
	}

	if err := m.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := m.repo.WithTx(tx)

		guestCart, err := txRepo.FindByOwner(ctx, guest)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		userCart, err := txRepo.FindByOwner(ctx, user)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return txRepo.ReassignOwner(ctx, guestCart.ID, userID)
			}
			return err
		}

		for _, line := range guestCart.Lines {
			if err := txRepo.UpsertLineIncrement(ctx, userCart.ID, line.VariationID, line.Quantity); err != nil {
				return err
			}
		}

		return txRepo.DeleteCart(ctx, guestCart.ID)
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeMergeFailure, err, "merge guest cart")
	}

	return nil
}

// MergeOnLoginBestEffort runs the merge and only logs on failure so a cart
// problem can never block a login.
func (m *MergeService) MergeOnLoginBestEffort(ctx context.Context, sessionKey string, userID uuid.UUID) {
	if sessionKey == "" {
		return
	}
	if err := m.MergeOnLogin(ctx, sessionKey, userID); err != nil && m.logg != nil {
		ctx = m.logg.WithUserID(ctx, userID.String())
		m.logg.Error(ctx, "guest cart merge failed", err)
	}
}
