package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"onboarding-platform/backend/pkg/models"
)

// CachedStore wraps a Repository with a Redis read-through cache for the task
// template library. Writes to the library evict the tenant's cached list.
type CachedStore struct {
	Repository
	redis *redis.Client
	ttl   time.Duration
}

// NewCachedStore creates a caching wrapper using the provided Redis client and TTL.
// A nil client or zero TTL disables caching.
func NewCachedStore(base Repository, client *redis.Client, ttl time.Duration) *CachedStore {
	if base == nil {
		panic("repository.NewCachedStore: base repository is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &CachedStore{Repository: base, redis: client, ttl: ttl}
}

// ListTaskTemplates serves the library from Redis when present.
func (c *CachedStore) ListTaskTemplates(ctx context.Context, tenantID string) ([]*models.TaskTemplate, error) {
	if tasks, ok := c.loadLibrary(ctx, tenantID); ok {
		return tasks, nil
	}

	tasks, err := c.Repository.ListTaskTemplates(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	c.storeLibrary(ctx, tenantID, tasks)
	return tasks, nil
}

// CreateTaskTemplate writes through and evicts the cached library.
func (c *CachedStore) CreateTaskTemplate(ctx context.Context, task *models.TaskTemplate) error {
	if err := c.Repository.CreateTaskTemplate(ctx, task); err != nil {
		return err
	}
	c.evict(ctx, task.TenantID)
	return nil
}

// UpdateTaskTemplate writes through and evicts the cached library.
func (c *CachedStore) UpdateTaskTemplate(ctx context.Context, task *models.TaskTemplate) error {
	if err := c.Repository.UpdateTaskTemplate(ctx, task); err != nil {
		return err
	}
	c.evict(ctx, task.TenantID)
	return nil
}

// DeleteTaskTemplate writes through and evicts the cached library.
func (c *CachedStore) DeleteTaskTemplate(ctx context.Context, tenantID string, id int64) error {
	if err := c.Repository.DeleteTaskTemplate(ctx, tenantID, id); err != nil {
		return err
	}
	c.evict(ctx, tenantID)
	return nil
}

func (c *CachedStore) loadLibrary(ctx context.Context, tenantID string) ([]*models.TaskTemplate, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, libraryCacheKey(tenantID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing store without failing.
			_ = c.redis.Del(ctx, libraryCacheKey(tenantID)).Err()
		}
		return nil, false
	}
	var tasks []*models.TaskTemplate
	if err := json.Unmarshal(data, &tasks); err != nil {
		_ = c.redis.Del(ctx, libraryCacheKey(tenantID)).Err()
		return nil, false
	}
	// TenantID is not part of the JSON form.
	for _, t := range tasks {
		t.TenantID = tenantID
	}
	return tasks, true
}

func (c *CachedStore) storeLibrary(ctx context.Context, tenantID string, tasks []*models.TaskTemplate) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, libraryCacheKey(tenantID), data, c.ttl).Err()
}

func (c *CachedStore) evict(ctx context.Context, tenantID string) {
	if c.redis == nil {
		return
	}
	_, _ = c.redis.Del(ctx, libraryCacheKey(tenantID)).Result()
}

func libraryCacheKey(tenantID string) string {
	return "onboarding:task-templates:" + tenantID
}
