package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/direct-system/labdesk-api/internal/classifier"
	"github.com/direct-system/labdesk-api/internal/models"
)

const (
	expiryWindowDays   = 30
	expiryCriticalDays = 7
	deadlineWindowDays = 3
)

// systemAlertPrefix distinguishes classifier-suggested notifications
// from rule-based ones.
const systemAlertPrefix = "AI: "

// AlertService derives notifications from consumable and task snapshots.
// The rule pass is a pure function of its inputs and the clock; the
// classifier pass is best effort and can only ever add to the result.
type AlertService struct {
	classifier classifier.Client
	logger     *zap.Logger
	now        func() time.Time
}

// NewAlertService constructs an AlertService. The classifier may be nil.
func NewAlertService(cl classifier.Client, logger *zap.Logger) *AlertService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AlertService{classifier: cl, logger: logger, now: time.Now}
}

// Evaluate runs the deterministic alert rules.
//
// A consumable alerts when its expiry lies strictly within the next 30
// days; already-expired stock stays silent, matching the dashboard's
// observed behaviour. A pending task alerts from 2 days out through the
// deadline day itself.
func (s *AlertService) Evaluate(consumables []models.LabConsumable, tasks []models.Task) []models.Notification {
	now := s.now()
	alerts := make([]models.Notification, 0)

	for _, item := range consumables {
		if item.ExpiryDate == nil {
			continue
		}
		d := daysUntil(*item.ExpiryDate, now)
		if d <= 0 || d >= expiryWindowDays {
			continue
		}
		severity := models.SeverityMedium
		if d < expiryCriticalDays {
			severity = models.SeverityHigh
		}
		alerts = append(alerts, models.Notification{
			ID:       "exp-" + item.ID,
			Type:     models.NotificationExpiry,
			Message:  fmt.Sprintf("%s is expiring in %d days.", item.Name, d),
			Date:     now,
			Severity: severity,
		})
	}

	for _, task := range tasks {
		if task.Status != models.TaskStatusPending {
			continue
		}
		d := daysUntil(task.Deadline, now)
		if d < 0 || d >= deadlineWindowDays {
			continue
		}
		severity := models.SeverityMedium
		if d == 0 {
			severity = models.SeverityHigh
		}
		alerts = append(alerts, models.Notification{
			ID:       "task-" + task.ID,
			Type:     models.NotificationDeadline,
			Message:  fmt.Sprintf("Task %q is due in %d days.", task.Title, d),
			Date:     now,
			Severity: severity,
		})
	}

	return alerts
}

// EvaluateWithEnrichment runs the deterministic rules and, when a
// classifier is configured, appends its suggestions as SYSTEM
// notifications. Classifier failure leaves the rule-based set untouched.
func (s *AlertService) EvaluateWithEnrichment(ctx context.Context, consumables []models.LabConsumable, tasks []models.Task) []models.Notification {
	alerts := s.Evaluate(consumables, tasks)

	if s.classifier == nil || !s.classifier.Enabled() {
		return alerts
	}

	req := classifier.Request{
		Consumables:  make([]classifier.ConsumableSummary, 0, len(consumables)),
		PendingTasks: make([]string, 0, len(tasks)),
	}
	for _, item := range consumables {
		req.Consumables = append(req.Consumables, classifier.ConsumableSummary{Name: item.Name, Quantity: item.Quantity})
	}
	for _, task := range tasks {
		if task.Status == models.TaskStatusPending {
			req.PendingTasks = append(req.PendingTasks, task.Title)
		}
	}

	suggestions, err := s.classifier.Suggest(ctx, req)
	if err != nil {
		s.logger.Warn("alert enrichment failed, keeping rule-based set", zap.Error(err))
		return alerts
	}

	now := s.now()
	for i, suggestion := range suggestions {
		if suggestion.Message == "" {
			continue
		}
		alerts = append(alerts, models.Notification{
			ID:       fmt.Sprintf("sys-%d", i+1),
			Type:     models.NotificationSystem,
			Message:  systemAlertPrefix + suggestion.Message,
			Date:     now,
			Severity: normalizeSeverity(suggestion.Severity),
		})
	}
	return alerts
}

func daysUntil(t, now time.Time) int {
	return int(math.Ceil(t.Sub(now).Hours() / 24))
}

func normalizeSeverity(raw string) string {
	switch raw {
	case models.SeverityHigh, models.SeverityMedium, models.SeverityLow:
		return raw
	default:
		return models.SeverityLow
	}
}
