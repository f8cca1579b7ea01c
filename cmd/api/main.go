package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bryanwahyu/threat-console/internal/application"
	appmail "github.com/bryanwahyu/threat-console/internal/application/mail"
	appthreat "github.com/bryanwahyu/threat-console/internal/application/threat"
	"github.com/bryanwahyu/threat-console/internal/config"
	"github.com/bryanwahyu/threat-console/internal/infra/ai/openai"
	mysqlp "github.com/bryanwahyu/threat-console/internal/infra/db/mysql"
	pgp "github.com/bryanwahyu/threat-console/internal/infra/db/postgres"
	"github.com/bryanwahyu/threat-console/internal/infra/httpserver"
	"github.com/bryanwahyu/threat-console/internal/infra/mail/emailjs"
	minioStore "github.com/bryanwahyu/threat-console/internal/infra/storage"
	"github.com/bryanwahyu/threat-console/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx := context.Background()
	checks := map[string]middleware.HealthChecker{}

	// vendors
	completer := openai.NewClient(openai.Options{
		APIKey:  cfg.AI.APIKey,
		BaseURL: cfg.AI.BaseURL,
		Model:   cfg.AI.Model,
		Timeout: cfg.AI.Timeout,
	})
	if !completer.Configured() {
		log.Printf("completion vendor not configured: analyses will fail until ai.apiKey is set")
	}
	sender := emailjs.NewClient(emailjs.Options{
		Endpoint:   cfg.Mail.Endpoint,
		ServiceID:  cfg.Mail.ServiceID,
		PublicKey:  cfg.Mail.PublicKey,
		PrivateKey: cfg.Mail.PrivateKey,
		Timeout:    cfg.Mail.Timeout,
	})

	// init services
	threatSvc := appthreat.NewService(completer)
	mailSvc := &appmail.Service{
		Sender: sender,
		IDs: appmail.Identifiers{
			ServiceID:        cfg.Mail.ServiceID,
			TemplatePassword: cfg.Mail.TemplatePassword,
			TemplateNotice:   cfg.Mail.TemplateNotice,
			PublicKey:        cfg.Mail.PublicKey,
		},
		SenderName:     cfg.Mail.SenderName,
		SimulatedDelay: cfg.Mail.SimulatedDelay,
		Clock:          application.SystemClock{},
	}
	if !mailSvc.IDs.Live() {
		log.Printf("mail vendor not configured: sends are simulated (delay=%s)", cfg.Mail.SimulatedDelay)
	}

	// optional database
	db, err := openDatabase(ctx, cfg)
	if err != nil {
		log.Fatalf("%s connect error: %v", cfg.Database.Driver, err)
	}
	if db != nil {
		defer db.Close()
		checks["database"] = &middleware.DatabaseHealthChecker{DB: db}

		switch cfg.Database.Driver {
		case "mysql":
			threatSvc.Archive = mysqlp.NewAnalysisRepository(db)
			mailSvc.Log = mysqlp.NewDispatchRepository(db)
		case "postgres":
			threatSvc.Archive = pgp.NewAnalysisRepository(db)
			mailSvc.Log = pgp.NewDispatchRepository(db)
		}
	}

	// optional minio
	if cfg.Minio.Enabled {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			log.Fatalf("minio init error: %v", err)
		}
		threatSvc.Reports = store
		checks["storage"] = middleware.CheckFunc(store.Check)
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit.Capacity, cfg.RateLimit.RefillRate)
	stopSweep := make(chan struct{})
	go limiter.RunSweeper(time.Minute, 10*time.Minute, stopSweep)

	// init router
	mux := chi.NewRouter()
	mux.Mount("/", httpserver.NewRouter(threatSvc, mailSvc, httpserver.Options{
		APIKeys:     cfg.Auth.APIKeys,
		CORSOrigins: cfg.Server.CORSOrigins,
		Limiter:     limiter,
		Checks:      checks,
	}))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.AI.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		log.Printf("server listening on %s model=%s mail_live=%t", addr, completer.Model(), mailSvc.IDs.Live())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down server...")
	close(stopSweep)

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

// openDatabase connects the configured driver and migrates when asked.
// No driver means no database.
func openDatabase(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	var (
		db      *sql.DB
		err     error
		migrate func(context.Context, *sql.DB) error
	)
	switch cfg.Database.Driver {
	case "":
		return nil, nil
	case "mysql":
		db, err = mysqlp.Connect(ctx, cfg.MySQLDSN())
		migrate = mysqlp.Migrate
	case "postgres":
		db, err = pgp.Connect(ctx, cfg.PostgresDSN())
		migrate = pgp.Migrate
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
	if err != nil {
		return nil, err
	}
	if cfg.Database.Migrate {
		if err := migrate(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return db, nil
}

