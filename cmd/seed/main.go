package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"pujabook/internal/config"
	"pujabook/internal/database"
	apperr "pujabook/internal/errors"
	"pujabook/internal/logger"
	"pujabook/internal/models"
	"pujabook/internal/repository"
	"pujabook/internal/search"
	"pujabook/internal/service"

	"github.com/shopspring/decimal"
)

var (
	adminName     = flag.String("name", "Super Admin", "Super admin display name")
	adminEmail    = flag.String("email", "", "Super admin email (required to create the account)")
	adminMobile   = flag.String("mobile", "", "Super admin mobile number")
	adminPassword = flag.String("password", "", "Super admin password, at least 8 characters")
	withCatalog   = flag.Bool("catalog", false, "Create a sample catalog when no pujas exist")
	reindex       = flag.Bool("reindex", false, "Push every puja into the Elasticsearch index")
	dryRun        = flag.Bool("dry-run", false, "Show what would be created without making changes")
)

type Seeder struct {
	repos    *repository.Repositories
	services *service.Services
	index    *search.ElasticsearchClient
}

func main() {
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, "text")

	slog.Info("Starting seed...")

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}

	repos := repository.NewRepositories(db)
	deps := service.Deps{Repos: repos, Auth: cfg.Auth}

	seeder := &Seeder{repos: repos}
	if cfg.Search.Enabled() {
		es, err := search.NewElasticsearchClient(cfg.Search)
		if err != nil {
			slog.Warn("Elasticsearch unavailable, index is not updated", "error", err)
		} else {
			seeder.index = es
			deps.Index = es
		}
	}
	seeder.services = service.NewServices(deps)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if *adminEmail != "" {
		if err := seeder.SuperAdmin(ctx); err != nil {
			slog.Error("Failed to create super admin", "error", err)
			os.Exit(1)
		}
	}

	if *withCatalog {
		if err := seeder.Catalog(ctx); err != nil {
			slog.Error("Failed to create sample catalog", "error", err)
			os.Exit(1)
		}
	}

	if *reindex {
		if err := seeder.Reindex(ctx); err != nil {
			slog.Error("Failed to reindex pujas", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Seed completed successfully!")
}

// SuperAdmin создает первого super_admin, если такого email еще нет
func (s *Seeder) SuperAdmin(ctx context.Context) error {
	existing, err := s.repos.Users.GetByEmail(ctx, *adminEmail)
	if err != nil {
		return err
	}
	if existing != nil {
		slog.Info("Super admin already exists, skipping", "email", *adminEmail, "role", existing.Role, "active", existing.IsActive)
		return nil
	}

	if len(*adminPassword) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	if *dryRun {
		slog.Info("[DRY RUN] Would create super admin", "email", *adminEmail, "mobile", *adminMobile)
		return nil
	}

	role := string(models.RoleSuperAdmin)
	user, err := s.services.Users.CreateAdmin(ctx, &models.CreateAdminRequest{
		Name:     *adminName,
		Email:    *adminEmail,
		Mobile:   *adminMobile,
		Password: *adminPassword,
		Role:     &role,
	})
	if err != nil {
		if errors.Is(err, apperr.ErrConflict) || errors.Is(err, apperr.ErrInvalidInput) {
			return fmt.Errorf("cannot create super admin: %s", apperr.Detail(err, err.Error()))
		}
		return err
	}
	// первый администратор считается подтвержденным
	if _, err := s.services.Users.VerifyEmail(ctx, user.ID); err != nil {
		return err
	}

	slog.Info("Super admin created", "user_id", user.ID, "email", *adminEmail)
	return nil
}

type sampleChadawa struct {
	name  string
	price int64
	note  bool
}

type samplePlan struct {
	name       string
	actual     int64
	discounted int64
}

type samplePuja struct {
	name        string
	description string
	plans       []samplePlan
	chadawas    []sampleChadawa
}

var sampleCatalog = []samplePuja{
	{
		name:        "Rudrabhishek Puja",
		description: "Abhishek of Lord Shiva with panchamrit and Vedic mantras",
		plans: []samplePlan{
			{name: "Individual", actual: 1100, discounted: 851},
			{name: "Family", actual: 2100, discounted: 1751},
		},
		chadawas: []sampleChadawa{
			{name: "Bilva Patra", price: 101},
			{name: "Deep Daan", price: 151},
		},
	},
	{
		name:        "Satyanarayan Katha",
		description: "Katha and puja of Lord Vishnu for prosperity",
		plans: []samplePlan{
			{name: "Standard", actual: 1500, discounted: 1100},
		},
		chadawas: []sampleChadawa{
			{name: "Prasad Bhog", price: 251},
			{name: "Sankalp with family names", price: 51, note: true},
		},
	},
	{
		name:        "Navgraha Shanti Puja",
		description: "Pacification of the nine planets",
		plans: []samplePlan{
			{name: "Individual", actual: 2100, discounted: 1501},
		},
		chadawas: []sampleChadawa{
			{name: "Navgraha Vastra", price: 301},
		},
	},
}

// Catalog создает пробный каталог, только если пудж еще нет
func (s *Seeder) Catalog(ctx context.Context) error {
	existing, err := s.repos.Pujas.List(ctx, 0, 1, false)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		slog.Info("Catalog already has pujas, skipping")
		return nil
	}

	for _, sample := range sampleCatalog {
		if *dryRun {
			slog.Info("[DRY RUN] Would create puja", "name", sample.name, "plans", len(sample.plans), "chadawas", len(sample.chadawas))
			continue
		}

		description := sample.description
		puja, err := s.services.Catalog.CreatePuja(ctx, &models.PujaInput{Name: sample.name, Description: &description})
		if err != nil {
			return err
		}

		for _, p := range sample.plans {
			discounted := decimal.NewFromInt(p.discounted)
			plan, err := s.services.Catalog.CreatePlan(ctx, &models.PlanInput{
				Name:            p.name,
				ActualPrice:     decimal.NewFromInt(p.actual),
				DiscountedPrice: &discounted,
			})
			if err != nil {
				return err
			}
			if err := s.services.Catalog.LinkPlan(ctx, puja.ID, plan.ID); err != nil {
				return err
			}
		}

		for _, ch := range sample.chadawas {
			chadawa, err := s.services.Catalog.CreateChadawa(ctx, &models.ChadawaInput{
				Name:         ch.name,
				Price:        decimal.NewFromInt(ch.price),
				RequiresNote: ch.note,
			})
			if err != nil {
				return err
			}
			if err := s.services.Catalog.LinkChadawa(ctx, puja.ID, chadawa.ID); err != nil {
				return err
			}
		}

		slog.Info("Created sample puja", "puja_id", puja.ID, "name", puja.Name)
	}

	return nil
}

// Reindex переиндексирует весь каталог пачками
func (s *Seeder) Reindex(ctx context.Context) error {
	if s.index == nil {
		return fmt.Errorf("ELASTICSEARCH_URL is not configured")
	}
	if err := s.index.HealthCheck(ctx); err != nil {
		return fmt.Errorf("cluster is not ready: %w", err)
	}

	const batch = 100
	indexed := 0
	for skip := 0; ; skip += batch {
		pujas, err := s.repos.Pujas.List(ctx, skip, batch, false)
		if err != nil {
			return err
		}
		for i := range pujas {
			if *dryRun {
				continue
			}
			if err := s.index.IndexPuja(ctx, &pujas[i]); err != nil {
				return fmt.Errorf("failed to index puja %d: %w", pujas[i].ID, err)
			}
			indexed++
		}
		if len(pujas) < batch {
			break
		}
	}

	slog.Info("Reindex completed", "indexed", indexed)
	return nil
}
