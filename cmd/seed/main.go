package main

import (
	"context"
	_ "embed"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"gopkg.in/yaml.v3"

	"onboarding-platform/backend/internal/config"
	"onboarding-platform/backend/internal/logging"
	"onboarding-platform/backend/internal/repository"
	"onboarding-platform/backend/internal/services"
	"onboarding-platform/backend/pkg/models"
)

//go:embed fixtures.yaml
var defaultFixtures []byte

type fixtures struct {
	Tenant struct {
		Name   string `yaml:"name"`
		Domain string `yaml:"domain"`
	} `yaml:"tenant"`
	Library []struct {
		Title       string `yaml:"title"`
		Description string `yaml:"description"`
	} `yaml:"library"`
	Templates []struct {
		Name        string   `yaml:"name"`
		Description string   `yaml:"description"`
		Department  string   `yaml:"department"`
		Category    string   `yaml:"category"`
		Tasks       []string `yaml:"tasks"`
	} `yaml:"templates"`
}

func main() {
	ctx := context.Background()

	configFile := flag.String("config", "", "Path to config file")
	fixtureFile := flag.String("fixtures", "", "Path to a fixtures YAML file (defaults to the embedded set)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)

	data := defaultFixtures
	if *fixtureFile != "" {
		if data, err = os.ReadFile(*fixtureFile); err != nil {
			log.Fatalf("Failed to read fixtures: %v", err)
		}
	}
	var fx fixtures
	if err := yaml.Unmarshal(data, &fx); err != nil {
		log.Fatalf("Failed to parse fixtures: %v", err)
	}

	pool, err := pgxpool.New(ctx, cfg.ConnString())
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pool.Close()

	store := repository.NewPostgresStore(pool)
	if err := store.Migrate(ctx); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}
	svc, err := services.NewOnboardingService(store, logger)
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}

	if err := seed(ctx, store, svc, fx, logger); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	logger.Info("Seeding complete!")
}

func seed(ctx context.Context, tenants repository.TenantStore, svc services.Onboarding, fx fixtures, logger *logging.Logger) error {
	// 1. Ensure tenant exists
	domain := fx.Tenant.Domain
	if domain == "" {
		domain = "localhost"
	}
	tenant, err := tenants.GetTenantByDomain(ctx, domain)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		logger.Info("Creating default tenant", "domain", domain)
		tenant = &models.Tenant{Name: fx.Tenant.Name, Domain: domain}
		if err := tenants.CreateTenant(ctx, tenant); err != nil {
			return fmt.Errorf("create tenant: %w", err)
		}
	case err != nil:
		return fmt.Errorf("lookup tenant: %w", err)
	default:
		logger.Info("Found existing tenant", "id", tenant.ID)
	}

	// 2. Task library, deduplicated by title
	existing, err := svc.ListTaskTemplates(ctx, tenant.ID)
	if err != nil {
		return fmt.Errorf("list task templates: %w", err)
	}
	byTitle := make(map[string]int64, len(existing))
	for _, t := range existing {
		byTitle[t.Title] = t.ID
	}
	for _, item := range fx.Library {
		if _, ok := byTitle[item.Title]; ok {
			logger.Info("Skipping existing task template", "title", item.Title)
			continue
		}
		created, err := svc.CreateTaskTemplate(ctx, tenant.ID, models.TaskTemplateInput{Title: item.Title, Description: item.Description})
		if err != nil {
			return fmt.Errorf("create task template %q: %w", item.Title, err)
		}
		byTitle[created.Title] = created.ID
		logger.Info("Seeded task template", "title", created.Title, "id", created.ID)
	}

	// 3. Templates, deduplicated by name
	templates, err := svc.ListTemplates(ctx, tenant.ID)
	if err != nil {
		return fmt.Errorf("list templates: %w", err)
	}
	seen := make(map[string]bool, len(templates))
	for _, t := range templates {
		seen[t.Name] = true
	}
	for _, item := range fx.Templates {
		if seen[item.Name] {
			logger.Info("Skipping existing template", "name", item.Name)
			continue
		}
		tmpl, err := svc.CreateTemplate(ctx, tenant.ID, models.TemplateInput{
			Name:        item.Name,
			Description: item.Description,
			Department:  item.Department,
			Category:    item.Category,
		})
		if err != nil {
			return fmt.Errorf("create template %q: %w", item.Name, err)
		}

		tasks := make([]models.TemplateTask, 0, len(item.Tasks))
		for i, title := range item.Tasks {
			id, ok := byTitle[title]
			if !ok {
				return fmt.Errorf("template %q references unknown task %q", item.Name, title)
			}
			tasks = append(tasks, models.TemplateTask{TaskTemplateID: id, Sequence: i + 1})
		}
		if _, err := svc.ReplaceTemplateTasks(ctx, tenant.ID, tmpl.ID, tasks); err != nil {
			return fmt.Errorf("set tasks for %q: %w", item.Name, err)
		}
		logger.Info("Seeded template", "name", tmpl.Name, "id", tmpl.ID, "tasks", len(tasks))
	}
	return nil
}
