package imports

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/zedmarket-backend/pkg/db/models"
)

// OutcomeRepository persists the operator-visible result of each import.
type OutcomeRepository struct {
	db *gorm.DB
}

func NewOutcomeRepository(db *gorm.DB) *OutcomeRepository {
	return &OutcomeRepository{db: db}
}

func (r *OutcomeRepository) WithTx(tx *gorm.DB) *OutcomeRepository {
	if tx == nil {
		return r
	}
	return &OutcomeRepository{db: tx}
}

// Upsert writes the outcome, replacing an earlier result for the same
// reference. A retried clone that succeeds clears a reconciliation flag.
func (r *OutcomeRepository) Upsert(ctx context.Context, outcome *models.ImportOutcome) error {
	outcome.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "reference"}},
			DoUpdates: clause.AssignmentColumns([]string{"product_id", "status", "failed_step", "error", "updated_at"}),
		}).
		Create(outcome).Error
}

// InsertIfAbsent writes the outcome only when none exists yet.
func (r *OutcomeRepository) InsertIfAbsent(ctx context.Context, outcome *models.ImportOutcome) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "reference"}},
			DoNothing: true,
		}).
		Create(outcome)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *OutcomeRepository) FindByReference(ctx context.Context, reference string) (*models.ImportOutcome, error) {
	var outcome models.ImportOutcome
	err := r.db.WithContext(ctx).Where("reference = ?", reference).First(&outcome).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &outcome, nil
}
