package sellers

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/palletspaces/backend/pkg/db/models"
)

// Repository defines persistence operations for seller payout state.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	FindUser(ctx context.Context, id int64) (*models.User, error)
	SetPayoutAccount(ctx context.Context, userID int64, accountID string) error
	SetVerification(ctx context.Context, userID int64, verified bool) error

	// SetVerificationByAccountID updates the verification flag for whoever
	// owns the payout account; returns the number of rows touched so the
	// caller can log unmatched accounts.
	SetVerificationByAccountID(ctx context.Context, accountID string, verified bool) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a sellers repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindUser(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) SetPayoutAccount(ctx context.Context, userID int64, accountID string) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"payout_account_id": accountID,
			"updated_at":        time.Now().UTC(),
		}).Error
}

func (r *repository) SetVerification(ctx context.Context, userID int64, verified bool) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"payout_verified": verified,
			"updated_at":      time.Now().UTC(),
		}).Error
}

func (r *repository) SetVerificationByAccountID(ctx context.Context, accountID string, verified bool) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("payout_account_id = ?", accountID).
		Updates(map[string]any{
			"payout_verified": verified,
			"updated_at":      time.Now().UTC(),
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
