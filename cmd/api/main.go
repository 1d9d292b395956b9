// Command api runs the course marketplace HTTP API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/course-hub/course-market-hub/config"
	"github.com/course-hub/course-market-hub/internal/application/command"
	"github.com/course-hub/course-market-hub/internal/application/query"
	"github.com/course-hub/course-market-hub/internal/domain/course"
	"github.com/course-hub/course-market-hub/internal/domain/enrollment"
	"github.com/course-hub/course-market-hub/internal/domain/student"
	"github.com/course-hub/course-market-hub/internal/infrastructure/messaging"
	"github.com/course-hub/course-market-hub/internal/infrastructure/persistence/memory"
	"github.com/course-hub/course-market-hub/internal/infrastructure/persistence/postgres"
	"github.com/course-hub/course-market-hub/internal/infrastructure/persistence/redis"
	httpapi "github.com/course-hub/course-market-hub/internal/interface/http"
	"github.com/course-hub/course-market-hub/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log.Level, cfg.IsProduction())
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ──────────────────────────────────────────────────────────────────────────
	// Storage
	// ──────────────────────────────────────────────────────────────────────────

	var (
		catalog        course.Catalog
		studentRepo    student.Repository
		purchaseStore  enrollment.Store
		enrollmentRepo enrollment.Repository
	)

	if cfg.Database.URL != "" {
		conn, err := postgres.NewConnection(ctx, cfg.Database.URL)
		if err != nil {
			return err
		}
		defer conn.Close()

		if err := postgres.NewMigrator(conn).Migrate(ctx); err != nil {
			return err
		}

		catalog = postgres.NewCatalogRepository(conn)
		studentRepo = postgres.NewStudentRepository(conn)
		store := postgres.NewEnrollmentStore(conn)
		purchaseStore = store
		enrollmentRepo = store
		log.Info("using postgres storage")
	} else {
		store := memory.NewStore()
		catalog = store
		studentRepo = store
		purchaseStore = store
		enrollmentRepo = store
		log.Warn("DATABASE_URL is empty, using in-memory storage")
	}

	// ──────────────────────────────────────────────────────────────────────────
	// Cache (optional)
	// ──────────────────────────────────────────────────────────────────────────

	var cache *redis.CatalogCache
	if cfg.Redis.Addr != "" {
		cache, err = redis.NewCatalogCache(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.CacheTTL,
		})
		if err != nil {
			return err
		}
		defer func() { _ = cache.Close() }()
		log.Info("catalog cache enabled", zap.String("addr", cfg.Redis.Addr))
	}

	// nil interface values, not typed nils, when the cache is disabled
	var courseCache query.CourseCache
	var courseListCache query.CourseListCache
	var invalidator command.CatalogInvalidator
	if cache != nil {
		courseCache = cache
		courseListCache = cache
		invalidator = cache
	}

	// ──────────────────────────────────────────────────────────────────────────
	// Domain services and application handlers
	// ──────────────────────────────────────────────────────────────────────────

	eventBus := messaging.NewEventBus(messaging.WithLogger(log))

	policy := enrollment.Policy{
		MaxGroupsPerCourse: cfg.Enrollment.MaxGroupsPerCourse,
		GroupCapacity:      cfg.Enrollment.GroupCapacity,
	}
	enrollmentSvc := enrollment.NewService(
		purchaseStore,
		enrollment.NewAllocator(policy),
		eventBus,
		log,
		enrollment.WithPurchaseAttempts(cfg.Enrollment.MaxPurchaseAttempts),
	)

	apiHandler := httpapi.NewHandler(httpapi.HandlerDeps{
		RegisterStudent:      command.NewRegisterStudentHandler(studentRepo, eventBus, cfg.Enrollment.StartingBonuses),
		CreditBalance:        command.NewCreditBalanceHandler(studentRepo, eventBus),
		PurchaseCourse:       command.NewPurchaseCourseHandler(enrollmentSvc),
		CreateCourse:         command.NewCreateCourseHandler(catalog, invalidator, eventBus),
		SetAvailability:      command.NewSetAvailabilityHandler(catalog, invalidator, eventBus),
		CreateLesson:         command.NewCreateLessonHandler(catalog, invalidator),
		ListAvailableCourses: query.NewListAvailableCoursesHandler(catalog, enrollmentRepo, policy),
		ListCourses:          query.NewListCoursesHandler(catalog, courseListCache),
		GetCourse:            query.NewGetCourseHandler(catalog, courseCache),
		GetBalance:           query.NewGetBalanceHandler(studentRepo),
		ListGroups:           query.NewListGroupsHandler(catalog),
		GetMembership:        query.NewGetMembershipHandler(enrollmentRepo),
	}, log)

	// ──────────────────────────────────────────────────────────────────────────
	// HTTP server
	// ──────────────────────────────────────────────────────────────────────────

	server := httpapi.NewServer(httpapi.ServerConfig{
		Addr:            cfg.HTTP.Addr,
		ReadTimeout:     cfg.HTTP.ReadTimeout,
		WriteTimeout:    cfg.HTTP.WriteTimeout,
		IdleTimeout:     cfg.HTTP.IdleTimeout,
		ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
	}, apiHandler, log)

	return server.Start(ctx)
}
