package activity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stocktrailhq/stocktrail-backend/pkg/db/models"
	"github.com/stocktrailhq/stocktrail-backend/pkg/logger"
)

// Entry describes one audited API action.
type Entry struct {
	UserID    uuid.UUID
	Action    string
	TableName *string
	RecordID  *string
	NewValues *string
	IPAddress *string
	UserAgent *string
}

// Recorder writes activity log rows. Recording is best effort: a failed
// write is logged and never fails the request that triggered it.
type Recorder struct {
	db   *gorm.DB
	logg *logger.Logger
}

// NewRecorder builds an activity recorder.
func NewRecorder(db *gorm.DB, logg *logger.Logger) *Recorder {
	return &Recorder{db: db, logg: logg}
}

// Record persists the entry asynchronously. The write uses its own timeout
// so a slow insert cannot hold up request goroutines.
func (r *Recorder) Record(entry Entry) {
	if r == nil || r.db == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		row := models.ActivityLog{
			UserID:    entry.UserID,
			Action:    entry.Action,
			TableName: entry.TableName,
			RecordID:  entry.RecordID,
			NewValues: entry.NewValues,
			IPAddress: entry.IPAddress,
			UserAgent: entry.UserAgent,
		}
		if err := r.db.WithContext(ctx).Create(&row).Error; err != nil && r.logg != nil {
			r.logg.Error(ctx, "writing activity log", err)
		}
	}()
}

// List returns recent activity rows, newest first. Admin surface only.
func (r *Recorder) List(ctx context.Context, limit int) ([]models.ActivityLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var rows []models.ActivityLog
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
