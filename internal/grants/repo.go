package grants

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sampleforge/sampleforge-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a grant repository bound to the provided DB.
func NewRepository(db *gorm.DB) GrantRepository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) GrantRepository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// CreateBatch inserts the grants in one statement. Rows that collide on
// (order_id, sample_id) are skipped so a re-run after a partial failure
// never mints duplicate grants.
func (r *repository) CreateBatch(ctx context.Context, grants []models.DownloadGrant) error {
	if len(grants) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_id"}, {Name: "sample_id"}},
			DoNothing: true,
		}).
		Create(&grants).Error
}

func (r *repository) FindByToken(ctx context.Context, token string) (*models.DownloadGrant, error) {
	var grant models.DownloadGrant
	err := r.db.WithContext(ctx).
		Where("token = ?", token).
		First(&grant).Error
	if err != nil {
		return nil, err
	}
	return &grant, nil
}

func (r *repository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]models.DownloadGrant, error) {
	var rows []models.DownloadGrant
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ConsumeDownload increments the download counter only while it is below
// the cap. The guard lives in the WHERE clause so two concurrent redemptions
// can never both succeed on the last remaining download.
func (r *repository) ConsumeDownload(ctx context.Context, grantID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.DownloadGrant{}).
		Where("id = ? AND download_count < max_downloads", grantID).
		Update("download_count", gorm.Expr("download_count + 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
