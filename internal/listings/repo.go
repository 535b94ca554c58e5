package listings

import (
	"context"

	"gorm.io/gorm"

	"github.com/palletspaces/backend/pkg/db/models"
	"github.com/palletspaces/backend/pkg/pagination"
)

// Repository defines persistence operations for listings.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, listing *models.Listing) (*models.Listing, error)
	FindByID(ctx context.Context, id int64) (*models.Listing, error)
	ListPublished(ctx context.Context, params pagination.Params) (*ListingPage, error)
	ListByOwner(ctx context.Context, ownerID int64, params pagination.Params) (*ListingPage, error)
	SetPublished(ctx context.Context, id, ownerID int64, published bool) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a listings repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, listing *models.Listing) (*models.Listing, error) {
	if err := r.db.WithContext(ctx).Create(listing).Error; err != nil {
		return nil, err
	}
	return listing, nil
}

func (r *repository) FindByID(ctx context.Context, id int64) (*models.Listing, error) {
	var listing models.Listing
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&listing).Error
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *repository) ListPublished(ctx context.Context, params pagination.Params) (*ListingPage, error) {
	return r.page(ctx, params, func(q *gorm.DB) *gorm.DB {
		return q.Where("published = ?", true)
	})
}

func (r *repository) ListByOwner(ctx context.Context, ownerID int64, params pagination.Params) (*ListingPage, error) {
	return r.page(ctx, params, func(q *gorm.DB) *gorm.DB {
		return q.Where("owner_id = ?", ownerID)
	})
}

func (r *repository) page(ctx context.Context, params pagination.Params, scope func(*gorm.DB) *gorm.DB) (*ListingPage, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	limit := pagination.NormalizeLimit(params.Limit)
	query := scope(r.db.WithContext(ctx).Model(&models.Listing{})).
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.Listing
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	page := &ListingPage{Listings: make([]ListingSummary, 0, len(rows))}
	if len(rows) > limit {
		last := rows[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		rows = rows[:limit]
	}
	for _, row := range rows {
		page.Listings = append(page.Listings, Summarize(row))
	}
	return page, nil
}

func (r *repository) SetPublished(ctx context.Context, id, ownerID int64, published bool) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Update("published", published)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
