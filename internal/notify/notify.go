package notify

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ecoeats/mealplanner/pkg/enums"
	"github.com/ecoeats/mealplanner/pkg/logger"
)

// Messages shown to the user after planner actions.
const (
	MsgMealSaved          = "Meal saved to this week."
	MsgMealSaveFailed     = "Failed to save meal. Please try again."
	MsgMealRemoved        = "Meal removed."
	MsgMealRemoveFailed   = "Failed removing meal."
	MsgCopied             = "Copied last week's plan into this week."
	MsgCopiedRefreshed    = "Copied last week's plan and refreshed."
	MsgCopyEmpty          = "No data to copy, created an empty plan."
	MsgCopyFailed         = "Copy failed. Started a fresh empty week."
	MsgTemplateSaved      = "Template saved!"
	MsgTemplateSaveFailed = "Failed to save template."
	MsgTemplateApplied    = "Template applied!"
	MsgTemplateApplyFail  = "Failed to apply template."
	MsgTemplateDeleted    = "Template deleted."
	MsgTemplateDeleteFail = "Failed to delete template."
	MsgWeekLoadFailed     = "Could not load this week. Showing an empty plan."
	MsgWeekReloadFailed   = "Could not refresh this week. Showing your last loaded plan."
	MsgInventoryFallback  = "Could not load your inventory. Showing the last known items."
	MsgRecipesFallback    = "Could not load recipes. Showing the built-in list."

	MsgCustomRecipesFailed    = "Could not load your own recipes."
	MsgCustomRecipeSaved      = "Recipe saved!"
	MsgCustomRecipeSaveFailed = "Failed to save recipe."
)

// ExpiryMessage names the items that reached status, e.g.
// "Expiring soon: Milk, Eggs."
func ExpiryMessage(status enums.FoodStatus, names []string) string {
	return status.String() + ": " + strings.Join(names, ", ") + "."
}

// Notice is a one-shot, user-visible message.
type Notice struct {
	Level   enums.NoticeLevel `json:"level"`
	Message string            `json:"message"`
	At      time.Time         `json:"at"`
}

// Notifier delivers notices. Implementations must be safe for concurrent use
// since sync callbacks run on the synchronizer's worker.
type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

func Success(ctx context.Context, n Notifier, msg string) {
	send(ctx, n, enums.NoticeLevelSuccess, msg)
}

func Info(ctx context.Context, n Notifier, msg string) {
	send(ctx, n, enums.NoticeLevelInfo, msg)
}

func Error(ctx context.Context, n Notifier, msg string) {
	send(ctx, n, enums.NoticeLevelError, msg)
}

func send(ctx context.Context, n Notifier, level enums.NoticeLevel, msg string) {
	if n == nil {
		return
	}
	n.Notify(ctx, Notice{Level: level, Message: msg, At: time.Now()})
}

// Recorder keeps notices until drained.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Notify(_ context.Context, n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

// Drain returns and forgets everything recorded so far.
func (r *Recorder) Drain() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.notices
	r.notices = nil
	return out
}

// Last returns the most recent notice without draining.
func (r *Recorder) Last() (Notice, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notices) == 0 {
		return Notice{}, false
	}
	return r.notices[len(r.notices)-1], true
}

// LogNotifier writes notices to the structured log.
type LogNotifier struct {
	Logger *logger.Logger
}

func (l LogNotifier) Notify(ctx context.Context, n Notice) {
	if l.Logger == nil {
		return
	}
	ctx = l.Logger.WithFields(ctx, map[string]any{
		"notice_level": n.Level.String(),
	})
	if n.Level == enums.NoticeLevelError {
		l.Logger.Warn(ctx, n.Message)
		return
	}
	l.Logger.Info(ctx, n.Message)
}

// Multi fans a notice out to every notifier.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notice) {
	for _, target := range m {
		if target != nil {
			target.Notify(ctx, n)
		}
	}
}
