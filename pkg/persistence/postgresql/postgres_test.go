package postgresql_test

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/dukex/bizflow/pkg/models"
	"github.com/dukex/bizflow/pkg/persistence"
	"github.com/dukex/bizflow/pkg/persistence/postgresql"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

var postgresContainer *postgres.PostgresContainer

func ptr(s string) *string { return &s }

func dropDb(ctx context.Context, t *testing.T, databaseURL string) {
	t.Helper()

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	for _, table := range []string{"tasks", "process_instances", "processes", "org_positions", "org_users", "schema_migrations"} {
		_, err = db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE")
		require.NoError(t, err)
	}

	err = db.Close()
	require.NoError(t, err)
}

func setupTestDB(t *testing.T) (*postgresql.Persistence, context.Context, string) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping PostgreSQL integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)

	if postgresContainer == nil || !postgresContainer.IsRunning() {
		var err error

		postgresContainer, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("bizflow_test"),
			postgres.WithUsername("bizflow"),
			postgres.WithPassword("bizflow"),
			postgres.BasicWaitStrategies(),
		)
		require.NoError(t, err)
	}

	databaseURL, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	dropDb(ctx, t, databaseURL)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
	require.NoError(t, err)

	t.Cleanup(func() {
		dropDb(ctx, t, databaseURL)

		err = p.Close(ctx)
		require.NoError(t, err)

		cancel()
	})

	return p, ctx, databaseURL
}

func TestNewPersistence_Migrations(t *testing.T) {
	_, ctx, databaseURL := setupTestDB(t)

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	defer func() {
		err := db.Close()
		require.NoError(t, err)
	}()

	for _, table := range []string{"processes", "process_instances", "tasks", "org_positions", "org_users"} {
		var exists bool

		err = db.QueryRowContext(ctx, `SELECT EXISTS (SELECT FROM
information_schema.tables WHERE table_name = $1)`, table).Scan(&exists)
		require.NoError(t, err)
		assert.True(t, exists, "%s table should exist", table)
	}

	var version int

	err = db.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_migrations").Scan(&version)
	require.NoError(t, err)
	assert.Equal(t, 2, version)
}

func TestNewPersistence_HealthCheck(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	assert.NoError(t, p.HealthCheck(ctx))
}

func TestProcessRepository_SaveGetReplaceAll(t *testing.T) {
	p, ctx, _ := setupTestDB(t)
	repo := p.ProcessRepository()

	process := &models.BusinessProcess{
		ID:    uuid.New().String(),
		Title: "Purchase approval",
		Steps: []*models.ProcessStep{
			{ID: "request", Title: "Request", AssigneeType: models.AssigneeTypeUser, AssigneeID: "u1", Order: 0},
			{ID: "approve", Title: "Approve", AssigneeType: models.AssigneeTypePosition, AssigneeID: "cfo", Order: 1},
		},
	}

	require.NoError(t, repo.Save(ctx, process))

	fetched, err := repo.GetByID(ctx, process.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.Equal(t, "Purchase approval", fetched.Title)
	require.Len(t, fetched.Steps, 2)
	assert.Equal(t, "approve", fetched.Steps[1].ID)
	assert.Equal(t, models.AssigneeTypePosition, fetched.Steps[1].AssigneeType)

	missing, err := repo.GetByID(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, missing)

	err = repo.ReplaceAll(ctx, []*models.BusinessProcess{{ID: "replacement", Title: "Replacement"}})
	require.NoError(t, err)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "replacement", all[0].ID)

	require.NoError(t, repo.Delete(ctx, "replacement"))

	all, err = repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestInstanceRepository_VersionedSave(t *testing.T) {
	p, ctx, _ := setupTestDB(t)
	repo := p.InstanceRepository()

	instance := &models.ProcessInstance{
		ID:            uuid.New().String(),
		ProcessID:     "p1",
		CurrentStepID: ptr("request"),
		Status:        models.InstanceStatusActive,
		StartedAt:     time.Now().UTC(),
		TaskIDs:       []string{"t1"},
	}

	require.NoError(t, repo.Save(ctx, instance))
	assert.Equal(t, int64(1), instance.Version)

	stale, err := repo.GetByID(ctx, instance.ID)
	require.NoError(t, err)
	require.NotNil(t, stale)
	assert.Equal(t, []string{"t1"}, stale.TaskIDs)

	instance.CurrentStepID = nil
	instance.Status = models.InstanceStatusCompleted
	require.NoError(t, repo.Save(ctx, instance))

	stale.Status = models.InstanceStatusPaused
	stale.PauseReason = "waiting for budget"
	err = repo.Save(ctx, stale)
	assert.ErrorIs(t, err, persistence.ErrVersionConflict)

	completed, err := repo.GetByStatus(ctx, models.InstanceStatusCompleted)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Nil(t, completed[0].CurrentStepID)

	byProcess, err := repo.GetByProcess(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, byProcess, 1)

	duplicate := &models.ProcessInstance{ID: instance.ID, ProcessID: "p1", Status: models.InstanceStatusActive, StartedAt: time.Now().UTC()}
	assert.ErrorIs(t, repo.Save(ctx, duplicate), persistence.ErrVersionConflict)
}

func TestTaskRepository(t *testing.T) {
	p, ctx, _ := setupTestDB(t)
	repo := p.TaskRepository()

	now := time.Now().UTC()
	task := &models.Task{
		ID:                uuid.New().String(),
		Title:             "Purchase approval: Request",
		Status:            models.TaskStatusNotStarted,
		Priority:          models.TaskPriorityMedium,
		AssigneeID:        "u1",
		StartDate:         now,
		EndDate:           now.Add(7 * 24 * time.Hour),
		ProcessID:         ptr("p1"),
		ProcessInstanceID: ptr("inst-1"),
		StepID:            ptr("request"),
	}

	require.NoError(t, repo.Save(ctx, task))

	fetched, err := repo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.Equal(t, "inst-1", fetched.InstanceID())
	assert.Equal(t, "request", fetched.StepRef())
	assert.Equal(t, models.TaskStatusNotStarted, fetched.Status)

	fetched.Status = models.TaskStatusDone
	require.NoError(t, repo.Save(ctx, fetched))

	byInstance, err := repo.GetByInstance(ctx, "inst-1")
	require.NoError(t, err)
	require.Len(t, byInstance, 1)
	assert.Equal(t, models.TaskStatusDone, byInstance[0].Status)

	byAssignee, err := repo.GetByAssignee(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, byAssignee, 1)

	require.NoError(t, repo.Delete(ctx, task.ID))

	fetched, err = repo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, fetched)
}

func TestOrgRepository(t *testing.T) {
	p, ctx, _ := setupTestDB(t)
	repo := p.OrgRepository()

	require.NoError(t, repo.SaveUser(ctx, &models.User{ID: "u1", Name: "Ada", Email: "ada@example.com"}))
	require.NoError(t, repo.SavePosition(ctx, &models.OrgPosition{ID: "ceo", Title: "CEO", HolderUserID: ptr("u1")}))
	require.NoError(t, repo.SavePosition(ctx, &models.OrgPosition{ID: "cfo", Title: "CFO", ManagerPositionID: ptr("ceo")}))

	positions, err := repo.Positions(ctx)
	require.NoError(t, err)
	require.Len(t, positions, 2)
	assert.Equal(t, "u1", *positions[0].HolderUserID)
	assert.Nil(t, positions[1].HolderUserID)
	assert.Equal(t, "ceo", *positions[1].ManagerPositionID)

	users, err := repo.Users(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "ada@example.com", users[0].Email)

	require.NoError(t, repo.DeletePosition(ctx, "ceo"))

	positions, err = repo.Positions(ctx)
	require.NoError(t, err)
	assert.Len(t, positions, 1)
}
