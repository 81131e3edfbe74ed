package repository

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"onboarding-platform/backend/pkg/models"
)

//go:embed schema.sql
var schemaSQL string

// foreignKeyViolation is the SQLSTATE raised when a row is still referenced.
const foreignKeyViolation = "23503"

// PostgresStore is a PostgreSQL implementation of the Repository interface.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the schema if it does not exist yet.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// GetTenantByDomain looks up a tenant by its email domain.
func (s *PostgresStore) GetTenantByDomain(ctx context.Context, domain string) (*models.Tenant, error) {
	var t models.Tenant
	err := s.db.QueryRow(ctx,
		"SELECT id, name, domain, created_at, updated_at FROM tenants WHERE domain = $1", domain,
	).Scan(&t.ID, &t.Name, &t.Domain, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

// CreateTenant inserts a tenant, assigning a new UUID when ID is empty.
func (s *PostgresStore) CreateTenant(ctx context.Context, tenant *models.Tenant) error {
	if tenant.ID == "" {
		tenant.ID = uuid.New().String()
	}
	return s.db.QueryRow(ctx,
		"INSERT INTO tenants (id, name, domain) VALUES ($1, $2, $3) RETURNING created_at, updated_at",
		tenant.ID, tenant.Name, tenant.Domain,
	).Scan(&tenant.CreatedAt, &tenant.UpdatedAt)
}

// ListTaskTemplates returns the tenant's task library ordered by id.
func (s *PostgresStore) ListTaskTemplates(ctx context.Context, tenantID string) ([]*models.TaskTemplate, error) {
	rows, err := s.db.Query(ctx,
		"SELECT id, tenant_id, title, description, created_at, updated_at FROM task_templates WHERE tenant_id = $1 ORDER BY id",
		tenantID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[models.TaskTemplate])
}

// GetTaskTemplate retrieves one library entry.
func (s *PostgresStore) GetTaskTemplate(ctx context.Context, tenantID string, id int64) (*models.TaskTemplate, error) {
	rows, err := s.db.Query(ctx,
		"SELECT id, tenant_id, title, description, created_at, updated_at FROM task_templates WHERE tenant_id = $1 AND id = $2",
		tenantID, id)
	if err != nil {
		return nil, err
	}
	task, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[models.TaskTemplate])
	if err != nil {
		return nil, notFound(err)
	}
	return task, nil
}

// CreateTaskTemplate inserts a library entry.
func (s *PostgresStore) CreateTaskTemplate(ctx context.Context, task *models.TaskTemplate) error {
	return s.db.QueryRow(ctx,
		"INSERT INTO task_templates (tenant_id, title, description) VALUES ($1, $2, $3) RETURNING id, created_at, updated_at",
		task.TenantID, task.Title, task.Description,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
}

// UpdateTaskTemplate updates title and description of an existing entry.
func (s *PostgresStore) UpdateTaskTemplate(ctx context.Context, task *models.TaskTemplate) error {
	err := s.db.QueryRow(ctx,
		"UPDATE task_templates SET title = $1, description = $2, updated_at = now() WHERE tenant_id = $3 AND id = $4 RETURNING created_at, updated_at",
		task.Title, task.Description, task.TenantID, task.ID,
	).Scan(&task.CreatedAt, &task.UpdatedAt)
	return notFound(err)
}

// DeleteTaskTemplate removes a library entry. Entries still referenced by a
// template are rejected with ErrConflict.
func (s *PostgresStore) DeleteTaskTemplate(ctx context.Context, tenantID string, id int64) error {
	tag, err := s.db.Exec(ctx, "DELETE FROM task_templates WHERE tenant_id = $1 AND id = $2", tenantID, id)
	if err != nil {
		return conflict(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CountTaskTemplateReferences counts templates whose sequence includes the entry.
func (s *PostgresStore) CountTaskTemplateReferences(ctx context.Context, tenantID string, id int64) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, `
		SELECT count(*) FROM onboarding_template_tasks tt
		JOIN onboarding_templates t ON t.id = tt.template_id
		WHERE t.tenant_id = $1 AND tt.task_template_id = $2`, tenantID, id).Scan(&n)
	return n, err
}

// MissingTaskTemplates returns the subset of ids absent from the tenant library.
func (s *PostgresStore) MissingTaskTemplates(ctx context.Context, tenantID string, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.db.Query(ctx, `
		SELECT wanted.id FROM unnest($2::bigint[]) AS wanted(id)
		WHERE NOT EXISTS (
			SELECT 1 FROM task_templates t WHERE t.id = wanted.id AND t.tenant_id = $1
		)
		ORDER BY wanted.id`, tenantID, ids)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

// ListTemplates returns the tenant's onboarding templates with their tasks.
func (s *PostgresStore) ListTemplates(ctx context.Context, tenantID string) ([]*models.OnboardingTemplate, error) {
	rows, err := s.db.Query(ctx,
		"SELECT id, tenant_id, name, description, department, category, created_at, updated_at FROM onboarding_templates WHERE tenant_id = $1 ORDER BY id",
		tenantID)
	if err != nil {
		return nil, err
	}
	templates, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByNameLax[models.OnboardingTemplate])
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]*models.OnboardingTemplate, len(templates))
	for _, t := range templates {
		t.Tasks = []models.TemplateTask{}
		byID[t.ID] = t
	}

	taskRows, err := s.db.Query(ctx, `
		SELECT tt.template_id, tt.task_template_id, lib.title, lib.description, tt.sequence
		FROM onboarding_template_tasks tt
		JOIN onboarding_templates t ON t.id = tt.template_id
		JOIN task_templates lib ON lib.id = tt.task_template_id
		WHERE t.tenant_id = $1
		ORDER BY tt.template_id, tt.sequence`, tenantID)
	if err != nil {
		return nil, err
	}
	defer taskRows.Close()

	for taskRows.Next() {
		var templateID int64
		var task models.TemplateTask
		if err := taskRows.Scan(&templateID, &task.TaskTemplateID, &task.Title, &task.Description, &task.Sequence); err != nil {
			return nil, err
		}
		if t, ok := byID[templateID]; ok {
			t.Tasks = append(t.Tasks, task)
		}
	}
	return templates, taskRows.Err()
}

// GetTemplate retrieves one onboarding template including its ordered tasks.
func (s *PostgresStore) GetTemplate(ctx context.Context, tenantID string, id int64) (*models.OnboardingTemplate, error) {
	var t models.OnboardingTemplate
	err := s.db.QueryRow(ctx,
		"SELECT id, tenant_id, name, description, department, category, created_at, updated_at FROM onboarding_templates WHERE tenant_id = $1 AND id = $2",
		tenantID, id,
	).Scan(&t.ID, &t.TenantID, &t.Name, &t.Description, &t.Department, &t.Category, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}

	t.Tasks, err = s.queryTemplateTasks(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTemplate inserts template metadata. Tasks are not written here.
func (s *PostgresStore) CreateTemplate(ctx context.Context, template *models.OnboardingTemplate) error {
	err := s.db.QueryRow(ctx, `
		INSERT INTO onboarding_templates (tenant_id, name, description, department, category)
		VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at, updated_at`,
		template.TenantID, template.Name, template.Description, template.Department, template.Category,
	).Scan(&template.ID, &template.CreatedAt, &template.UpdatedAt)
	if err != nil {
		return err
	}
	template.Tasks = []models.TemplateTask{}
	return nil
}

// UpdateTemplate updates template metadata only.
func (s *PostgresStore) UpdateTemplate(ctx context.Context, template *models.OnboardingTemplate) error {
	err := s.db.QueryRow(ctx, `
		UPDATE onboarding_templates
		SET name = $1, description = $2, department = $3, category = $4, updated_at = now()
		WHERE tenant_id = $5 AND id = $6
		RETURNING created_at, updated_at`,
		template.Name, template.Description, template.Department, template.Category, template.TenantID, template.ID,
	).Scan(&template.CreatedAt, &template.UpdatedAt)
	return notFound(err)
}

// DeleteTemplate removes a template; its task rows are removed by cascade.
func (s *PostgresStore) DeleteTemplate(ctx context.Context, tenantID string, id int64) error {
	tag, err := s.db.Exec(ctx, "DELETE FROM onboarding_templates WHERE tenant_id = $1 AND id = $2", tenantID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetTemplateTasks returns the template's tasks ordered by sequence.
func (s *PostgresStore) GetTemplateTasks(ctx context.Context, tenantID string, templateID int64) ([]models.TemplateTask, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM onboarding_templates WHERE tenant_id = $1 AND id = $2)",
		tenantID, templateID).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}
	return s.queryTemplateTasks(ctx, s.db, templateID)
}

// ReplaceTemplateTasks deletes the template's task rows and inserts tasks in
// one transaction. The template row is locked so concurrent replaces
// serialize; the last one to commit wins.
func (s *PostgresStore) ReplaceTemplateTasks(ctx context.Context, tenantID string, templateID int64, tasks []models.TemplateTask) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var locked int64
	err = tx.QueryRow(ctx,
		"SELECT id FROM onboarding_templates WHERE tenant_id = $1 AND id = $2 FOR UPDATE",
		tenantID, templateID).Scan(&locked)
	if err != nil {
		return notFound(err)
	}

	if _, err := tx.Exec(ctx, "DELETE FROM onboarding_template_tasks WHERE template_id = $1", templateID); err != nil {
		return err
	}

	if len(tasks) > 0 {
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"onboarding_template_tasks"},
			[]string{"template_id", "task_template_id", "sequence"},
			pgx.CopyFromSlice(len(tasks), func(i int) ([]any, error) {
				return []any{templateID, tasks[i].TaskTemplateID, tasks[i].Sequence}, nil
			}),
		)
		if err != nil {
			return conflict(err)
		}
	}

	if _, err := tx.Exec(ctx, "UPDATE onboarding_templates SET updated_at = now() WHERE id = $1", templateID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (s *PostgresStore) queryTemplateTasks(ctx context.Context, q querier, templateID int64) ([]models.TemplateTask, error) {
	rows, err := q.Query(ctx, `
		SELECT tt.task_template_id, lib.title, lib.description, tt.sequence
		FROM onboarding_template_tasks tt
		JOIN task_templates lib ON lib.id = tt.task_template_id
		WHERE tt.template_id = $1
		ORDER BY tt.sequence`, templateID)
	if err != nil {
		return nil, err
	}
	tasks, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.TemplateTask])
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []models.TemplateTask{}
	}
	return tasks, nil
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func conflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
		return fmt.Errorf("%w: %s", ErrConflict, pgErr.Detail)
	}
	return err
}
