package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ActivityLog records a mutating API call for audit purposes.
type ActivityLog struct {
	ID        uuid.UUID `gorm:"column:id;type:char(36);primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:char(36);not null;index:idx_activity_logs_user"`
	Action    string    `gorm:"column:action;size:255;not null"`
	TableName *string   `gorm:"column:table_name;size:50"`
	RecordID  *string   `gorm:"column:record_id;size:36"`
	NewValues *string   `gorm:"column:new_values;type:text"`
	IPAddress *string   `gorm:"column:ip_address;size:45"`
	UserAgent *string   `gorm:"column:user_agent;size:255"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (al *ActivityLog) BeforeCreate(_ *gorm.DB) error {
	if al.ID == uuid.Nil {
		al.ID = uuid.New()
	}
	return nil
}
