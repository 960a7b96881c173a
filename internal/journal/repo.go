package journal

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/ecoeats/mealplanner/pkg/db"
	pkgerrors "github.com/ecoeats/mealplanner/pkg/errors"
	"github.com/ecoeats/mealplanner/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists failed plan writes.
type Repository struct {
	client *db.Client
	now    func() time.Time
}

// NewRepository constructs a journal repository on the provided client.
func NewRepository(client *db.Client) *Repository {
	return &Repository{client: client, now: time.Now}
}

// Migrate creates or updates the journal table.
func (r *Repository) Migrate(ctx context.Context) error {
	return r.client.DB().WithContext(ctx).AutoMigrate(&Entry{})
}

// Record stores plan as the latest failed document for its user and week,
// replacing any earlier one.
func (r *Repository) Record(ctx context.Context, plan *types.WeekPlan, cause error) error {
	if plan == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "plan is required")
	}
	body, err := json.Marshal(plan)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal plan")
	}
	lastError := ""
	if cause != nil {
		lastError = cause.Error()
	}
	now := r.now().UTC()

	return r.client.WithTx(ctx, func(tx *gorm.DB) error {
		var existing Entry
		err := tx.Where("user_id = ? AND week_start = ?", plan.UserID, plan.WeekStart).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(&Entry{
				ID:        uuid.New(),
				UserID:    plan.UserID,
				WeekStart: plan.WeekStart,
				Document:  string(body),
				LastError: lastError,
				Attempts:  1,
				CreatedAt: now,
				UpdatedAt: now,
			}).Error
		case err != nil:
			return err
		}
		return tx.Model(&Entry{}).Where("id = ?", existing.ID).Updates(map[string]any{
			"document":   string(body),
			"last_error": lastError,
			"attempts":   existing.Attempts + 1,
			"updated_at": now,
		}).Error
	})
}

// Clear forgets the journaled document for a user and week, if any.
func (r *Repository) Clear(ctx context.Context, userID, weekStart string) error {
	return r.client.DB().WithContext(ctx).
		Where("user_id = ? AND week_start = ?", userID, weekStart).
		Delete(&Entry{}).Error
}

// MarkFailed records another failed attempt without touching the document.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return r.client.DB().WithContext(ctx).Model(&Entry{}).Where("id = ?", id).Updates(map[string]any{
		"last_error": msg,
		"attempts":   gorm.Expr("attempts + 1"),
		"updated_at": r.now().UTC(),
	}).Error
}

// Pending lists journaled documents, oldest first. An empty userID lists
// every user's entries.
func (r *Repository) Pending(ctx context.Context, userID string) ([]Entry, error) {
	query := r.client.DB().WithContext(ctx).Model(&Entry{})
	if strings.TrimSpace(userID) != "" {
		query = query.Where("user_id = ?", userID)
	}
	var rows []Entry
	if err := query.Order("updated_at ASC").Order("week_start ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
