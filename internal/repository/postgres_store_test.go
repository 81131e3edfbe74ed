package repository

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"onboarding-platform/backend/pkg/models"
)

func TestPostgresStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test-db"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2)),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate container: %s", err)
		}
	}()

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatal(err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Close()

	store := NewPostgresStore(pool)
	require.NoError(t, store.Migrate(ctx))
	// migrations are idempotent
	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.Ping(ctx))

	tenant := &models.Tenant{Name: "acme.com", Domain: "acme.com"}
	require.NoError(t, store.CreateTenant(ctx, tenant))
	other := &models.Tenant{Name: "globex.com", Domain: "globex.com"}
	require.NoError(t, store.CreateTenant(ctx, other))

	t.Run("Tenant lookup", func(t *testing.T) {
		found, err := store.GetTenantByDomain(ctx, "acme.com")
		require.NoError(t, err)
		assert.Equal(t, tenant.ID, found.ID)

		_, err = store.GetTenantByDomain(ctx, "missing.org")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	newTask := func(t *testing.T, tenantID, title string) *models.TaskTemplate {
		task := &models.TaskTemplate{TenantID: tenantID, Title: title, Description: title + " details"}
		require.NoError(t, store.CreateTaskTemplate(ctx, task))
		require.NotZero(t, task.ID)
		return task
	}

	t.Run("Task template CRUD", func(t *testing.T) {
		task := newTask(t, tenant.ID, "Sign NDA")

		got, err := store.GetTaskTemplate(ctx, tenant.ID, task.ID)
		require.NoError(t, err)
		assert.Equal(t, "Sign NDA", got.Title)
		assert.Equal(t, tenant.ID, got.TenantID)

		_, err = store.GetTaskTemplate(ctx, other.ID, task.ID)
		assert.ErrorIs(t, err, ErrNotFound, "entries are tenant scoped")

		task.Title = "Sign the NDA"
		require.NoError(t, store.UpdateTaskTemplate(ctx, task))
		got, err = store.GetTaskTemplate(ctx, tenant.ID, task.ID)
		require.NoError(t, err)
		assert.Equal(t, "Sign the NDA", got.Title)

		err = store.UpdateTaskTemplate(ctx, &models.TaskTemplate{ID: 999999, TenantID: tenant.ID, Title: "x"})
		assert.ErrorIs(t, err, ErrNotFound)

		require.NoError(t, store.DeleteTaskTemplate(ctx, tenant.ID, task.ID))
		assert.ErrorIs(t, store.DeleteTaskTemplate(ctx, tenant.ID, task.ID), ErrNotFound)
	})

	t.Run("Replace template tasks", func(t *testing.T) {
		nda := newTask(t, tenant.ID, "NDA")
		laptop := newTask(t, tenant.ID, "Laptop")
		badge := newTask(t, tenant.ID, "Badge")

		tmpl := &models.OnboardingTemplate{TenantID: tenant.ID, Name: "Engineering", Department: "R&D", Category: "full-time"}
		require.NoError(t, store.CreateTemplate(ctx, tmpl))
		assert.Empty(t, tmpl.Tasks)

		tasks, err := store.GetTemplateTasks(ctx, tenant.ID, tmpl.ID)
		require.NoError(t, err)
		assert.Empty(t, tasks)
		assert.NotNil(t, tasks, "empty task list is [] not null")

		err = store.ReplaceTemplateTasks(ctx, tenant.ID, tmpl.ID, []models.TemplateTask{
			{TaskTemplateID: laptop.ID, Sequence: 1},
			{TaskTemplateID: nda.ID, Sequence: 2},
		})
		require.NoError(t, err)

		tasks, err = store.GetTemplateTasks(ctx, tenant.ID, tmpl.ID)
		require.NoError(t, err)
		require.Len(t, tasks, 2)
		assert.Equal(t, models.TemplateTask{TaskTemplateID: laptop.ID, Title: "Laptop", Description: "Laptop details", Sequence: 1}, tasks[0])
		assert.Equal(t, nda.ID, tasks[1].TaskTemplateID)
		assert.Equal(t, 2, tasks[1].Sequence)

		// full replace, not a merge
		err = store.ReplaceTemplateTasks(ctx, tenant.ID, tmpl.ID, []models.TemplateTask{
			{TaskTemplateID: badge.ID, Sequence: 1},
		})
		require.NoError(t, err)
		tasks, err = store.GetTemplateTasks(ctx, tenant.ID, tmpl.ID)
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, badge.ID, tasks[0].TaskTemplateID)

		count, err := store.CountTaskTemplateReferences(ctx, tenant.ID, badge.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		err = store.DeleteTaskTemplate(ctx, tenant.ID, badge.ID)
		assert.ErrorIs(t, err, ErrConflict, "referenced entries cannot be deleted")

		missing, err := store.MissingTaskTemplates(ctx, tenant.ID, []int64{nda.ID, 424242, laptop.ID})
		require.NoError(t, err)
		assert.Equal(t, []int64{424242}, missing)

		full, err := store.GetTemplate(ctx, tenant.ID, tmpl.ID)
		require.NoError(t, err)
		assert.Equal(t, "Engineering", full.Name)
		require.Len(t, full.Tasks, 1)

		all, err := store.ListTemplates(ctx, tenant.ID)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Len(t, all[0].Tasks, 1)

		require.NoError(t, store.ReplaceTemplateTasks(ctx, tenant.ID, tmpl.ID, nil))
		tasks, err = store.GetTemplateTasks(ctx, tenant.ID, tmpl.ID)
		require.NoError(t, err)
		assert.Empty(t, tasks)

		err = store.ReplaceTemplateTasks(ctx, other.ID, tmpl.ID, nil)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Template metadata", func(t *testing.T) {
		tmpl := &models.OnboardingTemplate{TenantID: tenant.ID, Name: "Sales"}
		require.NoError(t, store.CreateTemplate(ctx, tmpl))

		tmpl.Department = "Revenue"
		require.NoError(t, store.UpdateTemplate(ctx, tmpl))

		got, err := store.GetTemplate(ctx, tenant.ID, tmpl.ID)
		require.NoError(t, err)
		assert.Equal(t, "Revenue", got.Department)

		require.NoError(t, store.DeleteTemplate(ctx, tenant.ID, tmpl.ID))
		_, err = store.GetTemplate(ctx, tenant.ID, tmpl.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = store.GetTemplateTasks(ctx, tenant.ID, tmpl.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
