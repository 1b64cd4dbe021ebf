package database

import (
	"time"

	"github.com/pkg/errors"

	"github.com/mediaveil/mediaveil/internal/models"
	"github.com/mediaveil/mediaveil/internal/overlay"

	"gorm.io/gorm"
)

// Repository persists the current overlay state. There is never more than
// one row: every save overwrites it.
type Repository struct {
	db *DB
}

// NewRepository creates a new repository instance
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// SaveCurrent overwrites the stored state
func (r *Repository) SaveCurrent(state overlay.State, publishedAt time.Time) error {
	row := models.NewOverlayState(state.Normalize(), publishedAt)
	if result := r.db.Save(row); result.Error != nil {
		return errors.Wrap(result.Error, "failed to save current state")
	}
	return nil
}

// GetCurrent returns the stored state, or nil when nothing was saved yet
func (r *Repository) GetCurrent() (*models.OverlayState, error) {
	var row models.OverlayState
	result := r.db.First(&row, models.CurrentStateID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(result.Error, "failed to get current state")
	}
	return &row, nil
}

// Clear removes the stored state
func (r *Repository) Clear() error {
	result := r.db.Exec("DELETE FROM overlay_states")
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to clear current state")
	}
	return nil
}
