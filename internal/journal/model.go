package journal

import (
	"encoding/json"
	"time"

	"github.com/ecoeats/mealplanner/pkg/types"
	"github.com/google/uuid"
)

// Entry is the latest plan document whose write failed for one user and week.
type Entry struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    string    `gorm:"not null;uniqueIndex:idx_plan_write_journal_user_week"`
	WeekStart string    `gorm:"not null;uniqueIndex:idx_plan_write_journal_user_week"`
	Document  string    `gorm:"type:text;not null"`
	LastError string    `gorm:"type:text"`
	Attempts  int       `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Entry) TableName() string { return "plan_write_journal" }

// Plan decodes the stored document.
func (e Entry) Plan() (*types.WeekPlan, error) {
	var plan types.WeekPlan
	if err := json.Unmarshal([]byte(e.Document), &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}
