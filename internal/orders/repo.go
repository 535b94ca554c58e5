package orders

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/palletspaces/backend/pkg/db/models"
	"github.com/palletspaces/backend/pkg/enums"
	"github.com/palletspaces/backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) FindByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByIDForRenter(ctx context.Context, id, renterID int64) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("id = ? AND renter_id = ?", id, renterID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListByRenter(ctx context.Context, renterID int64, q ListQuery) (*OrderList, error) {
	cursor, err := pagination.ParseCursor(q.Page.Cursor)
	if err != nil {
		return nil, err
	}

	limit := pagination.NormalizeLimit(q.Page.Limit)
	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("renter_id = ?", renterID).
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(q.Page.Limit))

	if q.Status != nil {
		query = query.Where("status = ?", *q.Status)
	}

	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.Order
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	list := &OrderList{Orders: make([]OrderSummary, 0, len(rows))}
	if len(rows) > limit {
		last := rows[limit-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		rows = rows[:limit]
	}
	for _, row := range rows {
		list.Orders = append(list.Orders, Summarize(row))
	}
	return list, nil
}

func (r *repository) FindListing(ctx context.Context, id int64) (*models.Listing, error) {
	var listing models.Listing
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&listing).Error
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *repository) FindRenter(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// TransitionForRenter folds ownership and the legal predecessor states into
// the WHERE clause so a stale or foreign order is a zero-row write, never an
// overwrite.
func (r *repository) TransitionForRenter(ctx context.Context, id, renterID int64, target enums.OrderStatus, allowed []enums.OrderStatus, extra map[string]any) (int64, error) {
	updates := map[string]any{
		"status":     target,
		"updated_at": time.Now().UTC(),
	}
	for column, value := range extra {
		updates[column] = value
	}

	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND renter_id = ? AND status IN ?", id, renterID, allowed).
		Updates(updates)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *repository) MarkPaidBySessionID(ctx context.Context, sessionID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("checkout_session_id = ? AND status <> ?", sessionID, enums.OrderStatusCancelled).
		Updates(map[string]any{
			"status":     enums.OrderStatusPaid,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *repository) MarkPaidByID(ctx context.Context, id int64) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status <> ?", id, enums.OrderStatusCancelled).
		Updates(map[string]any{
			"status":     enums.OrderStatusPaid,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
