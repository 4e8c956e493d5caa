package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/direct-system/labdesk-api/internal/models"
	appErrors "github.com/direct-system/labdesk-api/pkg/errors"
	"github.com/direct-system/labdesk-api/pkg/jobs"
)

// fakeBackend implements every entity ops interface the state controller
// fans out to.
type fakeBackend struct {
	teachers    []models.Teacher
	labs        []models.Laboratory
	tools       []models.ToolItem
	consumables []models.LabConsumable
	tasks       []models.Task
	analyses    []models.ItemAnalysis

	teacherListErr    error
	labListErr        error
	toolListErr       error
	consumableListErr error
	taskListErr       error
	analysisListErr   error

	setStatusErr   error
	setQuantityErr error
	setStatusCalls []string

	deletedTeachers []string
	deletedLabs     []string
}

func (f *fakeBackend) List(ctx context.Context) ([]models.Teacher, error) {
	return f.teachers, f.teacherListErr
}

func (f *fakeBackend) Create(ctx context.Context, req CreateTeacherRequest) (*models.Teacher, error) {
	teacher := models.Teacher{ID: "t-new", FirstName: req.FirstName, LastName: req.LastName, EmpNo: req.EmpNo}
	f.teachers = append(f.teachers, teacher)
	return &teacher, nil
}

func (f *fakeBackend) Delete(ctx context.Context, id string) error {
	f.deletedTeachers = append(f.deletedTeachers, id)
	return nil
}

type fakeLabOps struct{ backend *fakeBackend }

func (f fakeLabOps) List(ctx context.Context) ([]models.Laboratory, error) {
	return f.backend.labs, f.backend.labListErr
}

func (f fakeLabOps) Create(ctx context.Context, req CreateLaboratoryRequest) (*models.Laboratory, error) {
	lab := models.Laboratory{ID: "lab-new", Name: req.Name, Building: req.Building, Floor: req.Floor, Condition: req.Condition, Status: req.Status}
	return &lab, nil
}

func (f fakeLabOps) Delete(ctx context.Context, id string) error {
	f.backend.deletedLabs = append(f.backend.deletedLabs, id)
	return nil
}

type fakeInventoryOps struct{ backend *fakeBackend }

func (f fakeInventoryOps) ListTools(ctx context.Context) ([]models.ToolItem, error) {
	return f.backend.tools, f.backend.toolListErr
}

func (f fakeInventoryOps) CreateTool(ctx context.Context, req CreateToolRequest) (*models.ToolItem, error) {
	tool := models.ToolItem{ID: "tool-new", LabID: req.LabID, Name: req.Name, Condition: req.Condition}
	return &tool, nil
}

func (f fakeInventoryOps) SetToolCondition(ctx context.Context, id, condition string, borrower *string) (*models.ToolItem, error) {
	return &models.ToolItem{ID: id, Condition: condition, Borrower: borrower}, nil
}

func (f fakeInventoryOps) ListConsumables(ctx context.Context) ([]models.LabConsumable, error) {
	return f.backend.consumables, f.backend.consumableListErr
}

func (f fakeInventoryOps) CreateConsumable(ctx context.Context, req CreateConsumableRequest) (*models.LabConsumable, error) {
	c := models.LabConsumable{ID: "c-new", Name: req.Name, Quantity: req.Quantity, Unit: req.Unit}
	return &c, nil
}

func (f fakeInventoryOps) SetConsumableQuantity(ctx context.Context, id string, quantity int) (*models.LabConsumable, error) {
	if f.backend.setQuantityErr != nil {
		return nil, f.backend.setQuantityErr
	}
	return &models.LabConsumable{ID: id, Quantity: quantity}, nil
}

type fakeTaskOps struct{ backend *fakeBackend }

func (f fakeTaskOps) List(ctx context.Context) ([]models.Task, error) {
	return f.backend.tasks, f.backend.taskListErr
}

func (f fakeTaskOps) Create(ctx context.Context, req CreateTaskRequest) (*models.Task, error) {
	task := models.Task{ID: "task-new", Title: req.Title, Deadline: req.Deadline, Status: models.TaskStatusPending}
	return &task, nil
}

func (f fakeTaskOps) SetStatus(ctx context.Context, id, status string) (*models.Task, error) {
	f.backend.setStatusCalls = append(f.backend.setStatusCalls, id+":"+status)
	if f.backend.setStatusErr != nil {
		return nil, f.backend.setStatusErr
	}
	return &models.Task{ID: id, Status: status}, nil
}

type fakeAnalysisOps struct{ backend *fakeBackend }

func (f fakeAnalysisOps) List(ctx context.Context) ([]models.ItemAnalysis, error) {
	return f.backend.analyses, f.backend.analysisListErr
}

func (f fakeAnalysisOps) Create(ctx context.Context, req CreateAnalysisRequest) (*models.ItemAnalysis, error) {
	return &models.ItemAnalysis{ID: "a-new", Quarter: req.Quarter, TotalQuestions: req.TotalQuestions}, nil
}

// recordingQueue captures jobs without running them so tests drive the
// persistence outcome explicitly.
type recordingQueue struct {
	jobs       []jobs.Job
	enqueueErr error
}

func (q *recordingQueue) Enqueue(job jobs.Job) error {
	if q.enqueueErr != nil {
		return q.enqueueErr
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func newStateServiceForTest(backend *fakeBackend, queue syncQueue) *StateService {
	return NewStateService(
		backend,
		fakeLabOps{backend},
		fakeInventoryOps{backend},
		fakeTaskOps{backend},
		fakeAnalysisOps{backend},
		NewAlertService(nil, nil),
		queue,
		nil,
		StateConfig{LoadTimeout: time.Second},
		nil,
	)
}

func TestStateLoadComposesSnapshot(t *testing.T) {
	deadline := time.Now().Add(48 * time.Hour)
	backend := &fakeBackend{
		teachers:    []models.Teacher{{ID: "t1", LastName: "Santos"}},
		tasks:       []models.Task{{ID: "k1", Title: "Submit grades", Status: models.TaskStatusPending, Deadline: deadline}},
		consumables: []models.LabConsumable{{ID: "c1", Name: "Ethanol", Quantity: 4}},
	}
	svc := newStateServiceForTest(backend, &recordingQueue{})

	require.NoError(t, svc.Load(context.Background()))

	phase, err := svc.Phase()
	assert.Equal(t, models.PhaseReady, phase)
	assert.NoError(t, err)

	snap := svc.Snapshot()
	assert.Len(t, snap.Teachers, 1)
	assert.Len(t, snap.Tasks, 1)
	// Pending task due in 2 days produces a deadline alert.
	require.Len(t, snap.Notifications, 1)
	assert.Equal(t, models.NotificationDeadline, snap.Notifications[0].Type)
	assert.False(t, snap.LoadedAt.IsZero())
}

func TestStateLoadFailedSourceDefaultsToEmpty(t *testing.T) {
	backend := &fakeBackend{
		teachers:    []models.Teacher{{ID: "t1"}},
		taskListErr: errors.New("boom"),
	}
	svc := newStateServiceForTest(backend, &recordingQueue{})

	require.NoError(t, svc.Load(context.Background()))

	phase, _ := svc.Phase()
	assert.Equal(t, models.PhaseReady, phase)
	snap := svc.Snapshot()
	assert.NotNil(t, snap.Tasks)
	assert.Empty(t, snap.Tasks)
	assert.Len(t, snap.Teachers, 1)
}

func TestStateLoadConnectionFailureFails(t *testing.T) {
	connErr := appErrors.Clone(appErrors.ErrConnection, "")
	backend := &fakeBackend{teacherListErr: connErr}
	svc := newStateServiceForTest(backend, &recordingQueue{})

	err := svc.Load(context.Background())
	require.Error(t, err)

	phase, lastErr := svc.Phase()
	assert.Equal(t, models.PhaseFailed, phase)
	assert.True(t, appErrors.Is(lastErr, appErrors.ErrConnection))
}

func TestStateLoadAllSourcesFailingFails(t *testing.T) {
	boom := errors.New("boom")
	backend := &fakeBackend{
		teacherListErr:    boom,
		labListErr:        boom,
		toolListErr:       boom,
		consumableListErr: boom,
		taskListErr:       boom,
		analysisListErr:   boom,
	}
	svc := newStateServiceForTest(backend, &recordingQueue{})

	require.Error(t, svc.Load(context.Background()))
	phase, _ := svc.Phase()
	assert.Equal(t, models.PhaseFailed, phase)
}

func TestStateSetupRequiredBlocksLoad(t *testing.T) {
	svc := newStateServiceForTest(&fakeBackend{}, &recordingQueue{})
	svc.MarkSetupRequired()

	err := svc.Load(context.Background())
	require.Error(t, err)
	phase, _ := svc.Phase()
	assert.Equal(t, models.PhaseSetupRequired, phase)

	svc.ClearSetupRequired()
	require.NoError(t, svc.Load(context.Background()))
	phase, _ = svc.Phase()
	assert.Equal(t, models.PhaseReady, phase)
}

func TestToggleTaskOptimisticThenReconcile(t *testing.T) {
	backend := &fakeBackend{
		tasks: []models.Task{{ID: "k1", Title: "Submit grades", Status: models.TaskStatusPending, Deadline: time.Now().Add(time.Hour)}},
	}
	queue := &recordingQueue{}
	svc := newStateServiceForTest(backend, queue)
	require.NoError(t, svc.Load(context.Background()))

	toggled, err := svc.ToggleTask(context.Background(), "k1")
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusDone, toggled.Status)

	// The snapshot reflects the change before any persistence ran.
	assert.Equal(t, models.TaskStatusDone, svc.Snapshot().Tasks[0].Status)
	assert.Empty(t, backend.setStatusCalls)

	require.Len(t, queue.jobs, 1)
	require.NoError(t, queue.jobs[0].Run(context.Background()))
	assert.Equal(t, []string{"k1:Done"}, backend.setStatusCalls)
	assert.Equal(t, models.TaskStatusDone, svc.Snapshot().Tasks[0].Status)
}

func TestToggleTaskRevertsWhenQueueGivesUp(t *testing.T) {
	backend := &fakeBackend{
		tasks: []models.Task{{ID: "k1", Status: models.TaskStatusPending, Deadline: time.Now().Add(time.Hour)}},
	}
	queue := &recordingQueue{}
	svc := newStateServiceForTest(backend, queue)
	require.NoError(t, svc.Load(context.Background()))

	_, err := svc.ToggleTask(context.Background(), "k1")
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusDone, svc.Snapshot().Tasks[0].Status)

	require.Len(t, queue.jobs, 1)
	queue.jobs[0].OnGiveUp(errors.New("store down"))
	assert.Equal(t, models.TaskStatusPending, svc.Snapshot().Tasks[0].Status)
}

func TestToggleTaskUnknownID(t *testing.T) {
	svc := newStateServiceForTest(&fakeBackend{}, &recordingQueue{})
	require.NoError(t, svc.Load(context.Background()))

	_, err := svc.ToggleTask(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestAdjustConsumableQuantityClampsAtZero(t *testing.T) {
	backend := &fakeBackend{
		consumables: []models.LabConsumable{{ID: "c1", Name: "Ethanol", Quantity: 3}},
	}
	queue := &recordingQueue{}
	svc := newStateServiceForTest(backend, queue)
	require.NoError(t, svc.Load(context.Background()))

	updated, err := svc.AdjustConsumableQuantity(context.Background(), "c1", -5)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.Quantity)
	assert.Equal(t, 0, svc.Snapshot().Consumables[0].Quantity)

	// Two rapid decrements apply against the already-updated snapshot.
	backend2 := &fakeBackend{consumables: []models.LabConsumable{{ID: "c1", Quantity: 5}}}
	svc2 := newStateServiceForTest(backend2, &recordingQueue{})
	require.NoError(t, svc2.Load(context.Background()))
	_, err = svc2.AdjustConsumableQuantity(context.Background(), "c1", -2)
	require.NoError(t, err)
	updated, err = svc2.AdjustConsumableQuantity(context.Background(), "c1", -2)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Quantity)
}

func TestAdjustConsumableQuantityRevertsOnGiveUp(t *testing.T) {
	backend := &fakeBackend{
		consumables: []models.LabConsumable{{ID: "c1", Quantity: 3}},
	}
	queue := &recordingQueue{}
	svc := newStateServiceForTest(backend, queue)
	require.NoError(t, svc.Load(context.Background()))

	_, err := svc.AdjustConsumableQuantity(context.Background(), "c1", 4)
	require.NoError(t, err)
	assert.Equal(t, 7, svc.Snapshot().Consumables[0].Quantity)

	require.Len(t, queue.jobs, 1)
	queue.jobs[0].OnGiveUp(errors.New("store down"))
	assert.Equal(t, 3, svc.Snapshot().Consumables[0].Quantity)
}

func TestSetToolConditionOptimistic(t *testing.T) {
	backend := &fakeBackend{
		tools: []models.ToolItem{{ID: "tool1", Name: "Microscope", Condition: models.ToolConditionGood}},
	}
	queue := &recordingQueue{}
	svc := newStateServiceForTest(backend, queue)
	require.NoError(t, svc.Load(context.Background()))

	borrower := "R. Cruz"
	updated, err := svc.SetToolCondition(context.Background(), "tool1", models.ToolConditionFair, &borrower)
	require.NoError(t, err)
	assert.Equal(t, models.ToolConditionFair, updated.Condition)
	require.NotNil(t, updated.Borrower)
	assert.NotNil(t, updated.LastBorrowed)

	_, err = svc.SetToolCondition(context.Background(), "tool1", "Broken", nil)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	backend := &fakeBackend{teachers: []models.Teacher{{ID: "t1"}}}
	svc := newStateServiceForTest(backend, &recordingQueue{})
	require.NoError(t, svc.Load(context.Background()))

	err := svc.DeleteTeacher(context.Background(), "t1", false)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConfirmation))
	assert.Empty(t, backend.deletedTeachers)

	require.NoError(t, svc.DeleteTeacher(context.Background(), "t1", true))
	assert.Equal(t, []string{"t1"}, backend.deletedTeachers)
	assert.Empty(t, svc.Snapshot().Teachers)
}

func TestCreateTeacherFoldsIntoSnapshotSorted(t *testing.T) {
	backend := &fakeBackend{teachers: []models.Teacher{{ID: "t1", LastName: "Santos"}}}
	svc := newStateServiceForTest(backend, &recordingQueue{})
	require.NoError(t, svc.Load(context.Background()))

	req := validTeacherRequest()
	req.LastName = "Abad"
	_, err := svc.CreateTeacher(context.Background(), req)
	require.NoError(t, err)

	snap := svc.Snapshot()
	require.Len(t, snap.Teachers, 2)
	assert.Equal(t, "Abad", snap.Teachers[0].LastName)
}

func TestBootstrapBeforeLoad(t *testing.T) {
	svc := newStateServiceForTest(&fakeBackend{}, &recordingQueue{})

	snap, phase, err := svc.Bootstrap(context.Background())
	assert.Nil(t, snap)
	assert.Equal(t, models.PhaseLoading, phase)
	assert.NoError(t, err)
}
