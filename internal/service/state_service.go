package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/direct-system/labdesk-api/internal/models"
	appErrors "github.com/direct-system/labdesk-api/pkg/errors"
	"github.com/direct-system/labdesk-api/pkg/jobs"
)

const bootstrapCacheKey = "labdesk:bootstrap"

type teacherOps interface {
	List(ctx context.Context) ([]models.Teacher, error)
	Create(ctx context.Context, req CreateTeacherRequest) (*models.Teacher, error)
	Delete(ctx context.Context, id string) error
}

type laboratoryOps interface {
	List(ctx context.Context) ([]models.Laboratory, error)
	Create(ctx context.Context, req CreateLaboratoryRequest) (*models.Laboratory, error)
	Delete(ctx context.Context, id string) error
}

type inventoryOps interface {
	ListTools(ctx context.Context) ([]models.ToolItem, error)
	CreateTool(ctx context.Context, req CreateToolRequest) (*models.ToolItem, error)
	SetToolCondition(ctx context.Context, id, condition string, borrower *string) (*models.ToolItem, error)
	ListConsumables(ctx context.Context) ([]models.LabConsumable, error)
	CreateConsumable(ctx context.Context, req CreateConsumableRequest) (*models.LabConsumable, error)
	SetConsumableQuantity(ctx context.Context, id string, quantity int) (*models.LabConsumable, error)
}

type taskOps interface {
	List(ctx context.Context) ([]models.Task, error)
	Create(ctx context.Context, req CreateTaskRequest) (*models.Task, error)
	SetStatus(ctx context.Context, id, status string) (*models.Task, error)
}

type analysisOps interface {
	List(ctx context.Context) ([]models.ItemAnalysis, error)
	Create(ctx context.Context, req CreateAnalysisRequest) (*models.ItemAnalysis, error)
}

type alertEvaluator interface {
	Evaluate(consumables []models.LabConsumable, tasks []models.Task) []models.Notification
	EvaluateWithEnrichment(ctx context.Context, consumables []models.LabConsumable, tasks []models.Task) []models.Notification
}

type syncQueue interface {
	Enqueue(job jobs.Job) error
}

type snapshotCache interface {
	Enabled() bool
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, pattern string) error
}

// StateConfig tunes snapshot lifecycle behaviour.
type StateConfig struct {
	LoadTimeout time.Duration
	CacheTTL    time.Duration
}

// StateService owns the in-memory snapshot of every entity collection and
// the lifecycle phase around it. All dashboard reads come out of the
// snapshot; mutations go through it so optimistic updates and their
// reconciliation stay in one place. Writes from other sessions are only
// observed on the next full load.
type StateService struct {
	teachers teacherOps
	labs     laboratoryOps
	inv      inventoryOps
	tasks    taskOps
	analyses analysisOps
	alerts   alertEvaluator
	queue    syncQueue
	cache    snapshotCache
	metrics  *MetricsService
	logger   *zap.Logger
	cfg      StateConfig

	mu      sync.RWMutex
	phase   models.Phase
	lastErr error
	snap    models.Snapshot

	loadMu sync.Mutex
}

// NewStateService constructs a StateService in the Loading phase. The
// cache may be nil.
func NewStateService(teachers teacherOps, labs laboratoryOps, inv inventoryOps, tasks taskOps, analyses analysisOps, alerts alertEvaluator, queue syncQueue, cache snapshotCache, cfg StateConfig, logger *zap.Logger) *StateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.LoadTimeout <= 0 {
		cfg.LoadTimeout = 15 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	return &StateService{
		teachers: teachers,
		labs:     labs,
		inv:      inv,
		tasks:    tasks,
		analyses: analyses,
		alerts:   alerts,
		queue:    queue,
		cache:    cache,
		cfg:      cfg,
		logger:   logger,
		phase:    models.PhaseLoading,
	}
}

// SetMetrics installs the instrumentation sink. Safe to leave unset.
func (s *StateService) SetMetrics(m *MetricsService) {
	s.metrics = m
}

// MarkSetupRequired pins the controller in the setup-required phase. Used
// when no store configuration could be resolved at startup.
func (s *StateService) MarkSetupRequired() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = models.PhaseSetupRequired
	s.lastErr = appErrors.ErrSetupRequired
}

// ClearSetupRequired lifts the setup-required pin after a store
// configuration lands, returning the controller to Loading so the next
// Load can run.
func (s *StateService) ClearSetupRequired() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == models.PhaseSetupRequired {
		s.phase = models.PhaseLoading
		s.lastErr = nil
	}
}

// Phase reports the current lifecycle phase and the failure that produced
// it, if any.
func (s *StateService) Phase() (models.Phase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase, s.lastErr
}

// Load fans out to every collection concurrently and installs the
// composed snapshot. Individual sources that fail default to empty;
// store-level connection failure, or every source failing, yields the
// Failed phase. The whole load is bounded by the configured timeout.
func (s *StateService) Load(ctx context.Context) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	s.mu.Lock()
	if s.phase == models.PhaseSetupRequired {
		s.mu.Unlock()
		return appErrors.ErrSetupRequired
	}
	s.phase = models.PhaseLoading
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.LoadTimeout)
	defer cancel()

	var (
		snap models.Snapshot
		errs [6]error
		wg   sync.WaitGroup
	)
	wg.Add(6)
	go func() {
		defer wg.Done()
		snap.Teachers, errs[0] = s.teachers.List(ctx)
	}()
	go func() {
		defer wg.Done()
		snap.Laboratories, errs[1] = s.labs.List(ctx)
	}()
	go func() {
		defer wg.Done()
		snap.Tools, errs[2] = s.inv.ListTools(ctx)
	}()
	go func() {
		defer wg.Done()
		snap.Consumables, errs[3] = s.inv.ListConsumables(ctx)
	}()
	go func() {
		defer wg.Done()
		snap.Tasks, errs[4] = s.tasks.List(ctx)
	}()
	go func() {
		defer wg.Done()
		snap.Analyses, errs[5] = s.analyses.List(ctx)
	}()
	wg.Wait()

	failures := 0
	var firstErr error
	for _, err := range errs {
		if err == nil {
			continue
		}
		failures++
		if firstErr == nil {
			firstErr = err
		}
		if appErrors.Is(err, appErrors.ErrConnection) {
			s.fail(err)
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		wrapped := appErrors.Wrap(err, appErrors.ErrConnection.Code, appErrors.ErrConnection.Status, "snapshot load timed out")
		s.fail(wrapped)
		return wrapped
	}
	if failures == len(errs) {
		s.fail(firstErr)
		return firstErr
	}
	if failures > 0 {
		s.logger.Warn("partial snapshot load, failed sources default to empty",
			zap.Int("failed_sources", failures), zap.Error(firstErr))
	}

	normalizeSnapshot(&snap)
	snap.Notifications = s.alerts.EvaluateWithEnrichment(ctx, snap.Consumables, snap.Tasks)
	snap.LoadedAt = time.Now().UTC()

	s.mu.Lock()
	s.snap = snap
	s.phase = models.PhaseReady
	s.lastErr = nil
	s.mu.Unlock()

	s.writeCache(ctx)
	s.metrics.RecordAlerts(snap.Notifications)
	s.logger.Info("snapshot loaded",
		zap.Int("teachers", len(snap.Teachers)),
		zap.Int("laboratories", len(snap.Laboratories)),
		zap.Int("tools", len(snap.Tools)),
		zap.Int("consumables", len(snap.Consumables)),
		zap.Int("tasks", len(snap.Tasks)),
		zap.Int("analyses", len(snap.Analyses)),
		zap.Int("notifications", len(snap.Notifications)))
	return nil
}

// Bootstrap returns the snapshot to serve to a connecting client. Before
// the first load completes, a cached snapshot from a previous process is
// served when available so the dashboard can render stale data while the
// fresh load runs.
func (s *StateService) Bootstrap(ctx context.Context) (*models.Snapshot, models.Phase, error) {
	s.mu.RLock()
	phase, lastErr := s.phase, s.lastErr
	if phase == models.PhaseReady {
		snap := copySnapshot(s.snap)
		s.mu.RUnlock()
		return &snap, phase, nil
	}
	s.mu.RUnlock()

	if phase == models.PhaseLoading && s.cache != nil && s.cache.Enabled() {
		var cached models.Snapshot
		if hit, err := s.cache.Get(ctx, bootstrapCacheKey, &cached); err == nil && hit {
			return &cached, phase, nil
		}
	}
	return nil, phase, lastErr
}

// Snapshot returns a copy of the current snapshot regardless of phase.
func (s *StateService) Snapshot() models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copySnapshot(s.snap)
}

// Notifications returns the alerts derived from the current snapshot.
func (s *StateService) Notifications() []models.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Notification, len(s.snap.Notifications))
	copy(out, s.snap.Notifications)
	return out
}

// CreateTeacher registers a teacher synchronously and folds it into the
// snapshot.
func (s *StateService) CreateTeacher(ctx context.Context, req CreateTeacherRequest) (*models.Teacher, error) {
	teacher, err := s.teachers.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.snap.Teachers = append(s.snap.Teachers, *teacher)
	sortTeachers(s.snap.Teachers)
	s.mu.Unlock()
	s.invalidateCache(ctx)
	return teacher, nil
}

// DeleteTeacher removes a teacher. The destructive call only runs once
// the caller has confirmed it.
func (s *StateService) DeleteTeacher(ctx context.Context, id string, confirmed bool) error {
	if !confirmed {
		return appErrors.Clone(appErrors.ErrConfirmation, "teacher deletion requires confirmation")
	}
	if err := s.teachers.Delete(ctx, id); err != nil {
		return err
	}
	s.mu.Lock()
	s.snap.Teachers = removeTeacher(s.snap.Teachers, id)
	s.mu.Unlock()
	s.invalidateCache(ctx)
	return nil
}

// CreateLaboratory registers a lab room synchronously.
func (s *StateService) CreateLaboratory(ctx context.Context, req CreateLaboratoryRequest) (*models.Laboratory, error) {
	lab, err := s.labs.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.snap.Laboratories = append(s.snap.Laboratories, *lab)
	sort.Slice(s.snap.Laboratories, func(i, j int) bool {
		return s.snap.Laboratories[i].Name < s.snap.Laboratories[j].Name
	})
	s.mu.Unlock()
	s.invalidateCache(ctx)
	return lab, nil
}

// DeleteLaboratory removes a lab room after confirmation. Rooms still
// owning inventory are rejected downstream.
func (s *StateService) DeleteLaboratory(ctx context.Context, id string, confirmed bool) error {
	if !confirmed {
		return appErrors.Clone(appErrors.ErrConfirmation, "laboratory deletion requires confirmation")
	}
	if err := s.labs.Delete(ctx, id); err != nil {
		return err
	}
	s.mu.Lock()
	labs := s.snap.Laboratories[:0]
	for _, lab := range s.snap.Laboratories {
		if lab.ID != id {
			labs = append(labs, lab)
		}
	}
	s.snap.Laboratories = labs
	s.mu.Unlock()
	s.invalidateCache(ctx)
	return nil
}

// CreateTool registers a tool synchronously.
func (s *StateService) CreateTool(ctx context.Context, req CreateToolRequest) (*models.ToolItem, error) {
	tool, err := s.inv.CreateTool(ctx, req)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.snap.Tools = append(s.snap.Tools, *tool)
	sort.Slice(s.snap.Tools, func(i, j int) bool { return s.snap.Tools[i].Name < s.snap.Tools[j].Name })
	s.mu.Unlock()
	s.invalidateCache(ctx)
	return tool, nil
}

// CreateConsumable registers a consumable synchronously.
func (s *StateService) CreateConsumable(ctx context.Context, req CreateConsumableRequest) (*models.LabConsumable, error) {
	consumable, err := s.inv.CreateConsumable(ctx, req)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.snap.Consumables = append(s.snap.Consumables, *consumable)
	sort.Slice(s.snap.Consumables, func(i, j int) bool {
		return s.snap.Consumables[i].Name < s.snap.Consumables[j].Name
	})
	s.refreshRuleAlertsLocked()
	s.mu.Unlock()
	s.invalidateCache(ctx)
	return consumable, nil
}

// CreateTask files a task synchronously.
func (s *StateService) CreateTask(ctx context.Context, req CreateTaskRequest) (*models.Task, error) {
	task, err := s.tasks.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.snap.Tasks = append(s.snap.Tasks, *task)
	sort.Slice(s.snap.Tasks, func(i, j int) bool { return s.snap.Tasks[i].Deadline.Before(s.snap.Tasks[j].Deadline) })
	s.refreshRuleAlertsLocked()
	s.mu.Unlock()
	s.invalidateCache(ctx)
	return task, nil
}

// CreateAnalysis files an item-analysis report synchronously.
func (s *StateService) CreateAnalysis(ctx context.Context, req CreateAnalysisRequest) (*models.ItemAnalysis, error) {
	analysis, err := s.analyses.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.snap.Analyses = append([]models.ItemAnalysis{*analysis}, s.snap.Analyses...)
	s.mu.Unlock()
	s.invalidateCache(ctx)
	return analysis, nil
}

// ToggleTask flips a task's status in the snapshot immediately and queues
// the write. On persistence success the authoritative row replaces the
// optimistic one; when the queue gives up the previous status is
// restored.
func (s *StateService) ToggleTask(ctx context.Context, id string) (*models.Task, error) {
	s.mu.Lock()
	idx := findTask(s.snap.Tasks, id)
	if idx < 0 {
		s.mu.Unlock()
		return nil, appErrors.Clone(appErrors.ErrNotFound, "task not found")
	}
	prev := s.snap.Tasks[idx]
	next := prev
	next.Status = models.ToggledStatus(prev.Status)
	s.snap.Tasks[idx] = next
	s.refreshRuleAlertsLocked()
	s.mu.Unlock()
	s.invalidateCache(ctx)

	err := s.queue.Enqueue(jobs.Job{
		ID:   uuid.NewString(),
		Type: "task.status",
		Run: func(jobCtx context.Context) error {
			authoritative, err := s.tasks.SetStatus(jobCtx, id, next.Status)
			if err != nil {
				return err
			}
			s.reconcileTask(*authoritative)
			return nil
		},
		OnGiveUp: func(err error) {
			s.logger.Warn("task status write abandoned, reverting", zap.String("task_id", id), zap.Error(err))
			s.metrics.RecordSyncAbandoned()
			s.reconcileTask(prev)
		},
	})
	if err != nil {
		s.reconcileTask(prev)
		return nil, appErrors.FromError(err)
	}
	s.metrics.RecordSyncEnqueued()
	return &next, nil
}

// SetToolCondition updates a tool's condition and borrower in the
// snapshot immediately and queues the write.
func (s *StateService) SetToolCondition(ctx context.Context, id, condition string, borrower *string) (*models.ToolItem, error) {
	switch condition {
	case models.ToolConditionGood, models.ToolConditionFair, models.ToolConditionDefective, models.ToolConditionMaintenance:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown tool condition")
	}

	s.mu.Lock()
	idx := findTool(s.snap.Tools, id)
	if idx < 0 {
		s.mu.Unlock()
		return nil, appErrors.Clone(appErrors.ErrNotFound, "tool not found")
	}
	prev := s.snap.Tools[idx]
	next := prev
	next.Condition = condition
	next.Borrower = borrower
	if borrower != nil {
		now := time.Now().UTC()
		next.LastBorrowed = &now
	}
	s.snap.Tools[idx] = next
	s.mu.Unlock()
	s.invalidateCache(ctx)

	err := s.queue.Enqueue(jobs.Job{
		ID:   uuid.NewString(),
		Type: "tool.condition",
		Run: func(jobCtx context.Context) error {
			authoritative, err := s.inv.SetToolCondition(jobCtx, id, condition, borrower)
			if err != nil {
				return err
			}
			s.reconcileTool(*authoritative)
			return nil
		},
		OnGiveUp: func(err error) {
			s.logger.Warn("tool condition write abandoned, reverting", zap.String("tool_id", id), zap.Error(err))
			s.metrics.RecordSyncAbandoned()
			s.reconcileTool(prev)
		},
	})
	if err != nil {
		s.reconcileTool(prev)
		return nil, appErrors.FromError(err)
	}
	s.metrics.RecordSyncEnqueued()
	return &next, nil
}

// AdjustConsumableQuantity applies a signed delta to a consumable's
// quantity in the snapshot immediately, clamped at zero, and queues the
// write of the resulting absolute value.
func (s *StateService) AdjustConsumableQuantity(ctx context.Context, id string, delta int) (*models.LabConsumable, error) {
	s.mu.Lock()
	idx := findConsumable(s.snap.Consumables, id)
	if idx < 0 {
		s.mu.Unlock()
		return nil, appErrors.Clone(appErrors.ErrNotFound, "consumable not found")
	}
	prev := s.snap.Consumables[idx]
	next := prev
	next.Quantity = prev.Quantity + delta
	if next.Quantity < 0 {
		next.Quantity = 0
	}
	s.snap.Consumables[idx] = next
	s.refreshRuleAlertsLocked()
	s.mu.Unlock()
	s.invalidateCache(ctx)

	target := next.Quantity
	err := s.queue.Enqueue(jobs.Job{
		ID:   uuid.NewString(),
		Type: "consumable.quantity",
		Run: func(jobCtx context.Context) error {
			authoritative, err := s.inv.SetConsumableQuantity(jobCtx, id, target)
			if err != nil {
				return err
			}
			s.reconcileConsumable(*authoritative)
			return nil
		},
		OnGiveUp: func(err error) {
			s.logger.Warn("consumable quantity write abandoned, reverting", zap.String("consumable_id", id), zap.Error(err))
			s.metrics.RecordSyncAbandoned()
			s.reconcileConsumable(prev)
		},
	})
	if err != nil {
		s.reconcileConsumable(prev)
		return nil, appErrors.FromError(err)
	}
	s.metrics.RecordSyncEnqueued()
	return &next, nil
}

func (s *StateService) fail(err error) {
	s.mu.Lock()
	s.phase = models.PhaseFailed
	s.lastErr = err
	s.mu.Unlock()
	s.logger.Error("snapshot load failed", zap.Error(err))
}

func (s *StateService) reconcileTask(task models.Task) {
	s.mu.Lock()
	if idx := findTask(s.snap.Tasks, task.ID); idx >= 0 {
		s.snap.Tasks[idx] = task
	}
	s.refreshRuleAlertsLocked()
	s.mu.Unlock()
}

func (s *StateService) reconcileTool(tool models.ToolItem) {
	s.mu.Lock()
	if idx := findTool(s.snap.Tools, tool.ID); idx >= 0 {
		s.snap.Tools[idx] = tool
	}
	s.mu.Unlock()
}

func (s *StateService) reconcileConsumable(consumable models.LabConsumable) {
	s.mu.Lock()
	if idx := findConsumable(s.snap.Consumables, consumable.ID); idx >= 0 {
		s.snap.Consumables[idx] = consumable
	}
	s.refreshRuleAlertsLocked()
	s.mu.Unlock()
}

// refreshRuleAlertsLocked recomputes the deterministic alerts from the
// current snapshot, keeping classifier-sourced SYSTEM notifications that
// arrived with the last full load. Caller holds s.mu.
func (s *StateService) refreshRuleAlertsLocked() {
	fresh := s.alerts.Evaluate(s.snap.Consumables, s.snap.Tasks)
	for _, n := range s.snap.Notifications {
		if n.Type == models.NotificationSystem {
			fresh = append(fresh, n)
		}
	}
	s.snap.Notifications = fresh
	s.metrics.RecordAlerts(fresh)
}

func (s *StateService) writeCache(ctx context.Context) {
	if s.cache == nil || !s.cache.Enabled() {
		return
	}
	s.mu.RLock()
	snap := copySnapshot(s.snap)
	s.mu.RUnlock()
	if err := s.cache.Set(ctx, bootstrapCacheKey, snap, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("bootstrap cache write failed", zap.Error(err))
	}
}

func (s *StateService) invalidateCache(ctx context.Context) {
	if s.cache == nil || !s.cache.Enabled() {
		return
	}
	if err := s.cache.Invalidate(ctx, bootstrapCacheKey+"*"); err != nil {
		s.logger.Warn("bootstrap cache invalidation failed", zap.Error(err))
	}
}

func normalizeSnapshot(snap *models.Snapshot) {
	if snap.Teachers == nil {
		snap.Teachers = make([]models.Teacher, 0)
	}
	if snap.Laboratories == nil {
		snap.Laboratories = make([]models.Laboratory, 0)
	}
	if snap.Tools == nil {
		snap.Tools = make([]models.ToolItem, 0)
	}
	if snap.Consumables == nil {
		snap.Consumables = make([]models.LabConsumable, 0)
	}
	if snap.Tasks == nil {
		snap.Tasks = make([]models.Task, 0)
	}
	if snap.Analyses == nil {
		snap.Analyses = make([]models.ItemAnalysis, 0)
	}
}

func copySnapshot(snap models.Snapshot) models.Snapshot {
	out := snap
	out.Teachers = append([]models.Teacher(nil), snap.Teachers...)
	out.Laboratories = append([]models.Laboratory(nil), snap.Laboratories...)
	out.Tools = append([]models.ToolItem(nil), snap.Tools...)
	out.Consumables = append([]models.LabConsumable(nil), snap.Consumables...)
	out.Tasks = append([]models.Task(nil), snap.Tasks...)
	out.Analyses = append([]models.ItemAnalysis(nil), snap.Analyses...)
	out.Notifications = append([]models.Notification(nil), snap.Notifications...)
	return out
}

func sortTeachers(teachers []models.Teacher) {
	sort.Slice(teachers, func(i, j int) bool {
		return strings.ToLower(teachers[i].LastName) < strings.ToLower(teachers[j].LastName)
	})
}

func removeTeacher(teachers []models.Teacher, id string) []models.Teacher {
	out := teachers[:0]
	for _, t := range teachers {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}

func findTask(tasks []models.Task, id string) int {
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func findTool(tools []models.ToolItem, id string) int {
	for i := range tools {
		if tools[i].ID == id {
			return i
		}
	}
	return -1
}

func findConsumable(consumables []models.LabConsumable, id string) int {
	for i := range consumables {
		if consumables[i].ID == id {
			return i
		}
	}
	return -1
}
