package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	api "github.com/mind-engage/lessonrunner/internal/api/http"
	"github.com/mind-engage/lessonrunner/internal/attempt"
	auth "github.com/mind-engage/lessonrunner/internal/auth/middleware"
	"github.com/mind-engage/lessonrunner/internal/config"
	"github.com/mind-engage/lessonrunner/internal/db"
	"github.com/mind-engage/lessonrunner/internal/event"
	"github.com/mind-engage/lessonrunner/internal/lesson"
	"github.com/mind-engage/lessonrunner/internal/logger"
	"github.com/mind-engage/lessonrunner/internal/preference"
	"github.com/mind-engage/lessonrunner/internal/session"
	"github.com/mind-engage/lessonrunner/internal/storage"
	syncx "github.com/mind-engage/lessonrunner/internal/sync"
)

func main() {
	cfg := config.FromEnv()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- DB (sql store + event log) ---
	var dbh *sql.DB
	if cfg.StoreDriver == "sql" || cfg.EventLog {
		octx, cancel := context.WithTimeout(ctx, 10*time.Second)
		dbh, err = db.Open(octx, db.Driver(cfg.DBDriver), cfg.DBDSN)
		cancel()
		if err != nil {
			log.Fatal("db open failed", "driver", cfg.DBDriver, "error", err.Error())
		}
		defer dbh.Close()
	}

	store, closeStore, err := openStore(ctx, cfg, dbh)
	if err != nil {
		log.Fatal("snapshot store", "driver", cfg.StoreDriver, "error", err.Error())
	}
	defer closeStore()

	// --- Outcome signals ---
	var (
		notifiers attempt.Notifiers
		events    api.EventFeed
	)
	if cfg.EventLog && dbh != nil {
		repo := syncx.NewEventRepo(dbh, cfg.SiteID)
		notifiers = append(notifiers, repo)
		events = repo
	}
	pub, err := event.NewEventPublisher(cfg.AMQPURL, cfg.AMQPExchange, log)
	if err != nil {
		// the broker is optional; outcomes still reach the event log
		log.Error("amqp publisher disabled", "error", err.Error())
	} else {
		defer pub.Close()
		notifiers = append(notifiers, pub)
	}

	// --- Sessions ---
	opts := []session.Option{
		session.WithAttemptConfig(attempt.Config{
			TrialBudget:  cfg.TrialBudget,
			TimerSeconds: cfg.TimerSeconds,
			AllowRevisit: cfg.AllowRevisit,
		}),
		session.WithNotifier(notifiers),
		session.WithLogger(log),
	}
	if cfg.TickMode == config.TickServer {
		opts = append(opts, session.WithScheduler(session.NewScheduler(cfg.TickInterval, log)))
	}
	sessions := session.NewManager(store, contentSource(cfg), opts...)
	defer sessions.Close()

	if _, err := sessions.Lesson(ctx); err != nil {
		log.Warn("no lesson loaded at startup", "error", err.Error())
	}

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	api.Mount(r, api.Deps{
		Auth: auth.NewAuthService(cfg.AuthHMACSecret),
		Login: auth.Login{
			LearnerPassHash: cfg.LearnerPassHash,
			AuthorUser:      cfg.AuthorUser,
			AuthorPassHash:  cfg.AuthorPassHash,
		},
		LocalLogin:  cfg.EnableLocalAuth,
		GuestLogin:  cfg.EnableGuestAuth,
		SecureLogin: cfg.Mode == config.ModeOnline,
		ClientTick:  cfg.TickMode == config.TickClient,
		Admins:      cfg.AdminSubjects,
		Sessions:    sessions,
		Preferences: preference.NewService(store),
		Events:      events,
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if dbh != nil {
			if err := dbh.PingContext(r.Context()); err != nil {
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				return
			}
		}
		if _, err := sessions.Lesson(r.Context()); err != nil {
			http.Error(w, "no lesson", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(200)
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()

	log.Info("listening", "addr", cfg.HTTPAddr, "mode", string(cfg.Mode), "store", cfg.StoreDriver, "tick_mode", string(cfg.TickMode))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("http server", "error", err.Error())
	}
}

func openStore(ctx context.Context, cfg config.Config, dbh *sql.DB) (storage.Store, func(), error) {
	noop := func() {}
	switch cfg.StoreDriver {
	case "memory":
		return storage.NewMemStore(), noop, nil
	case "fs":
		s, err := storage.NewFSStore(cfg.BlobBasePath)
		return s, noop, err
	case "sql":
		return storage.NewSQLStore(dbh), noop, nil
	case "redis":
		c, err := storage.OpenRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, noop, err
		}
		return storage.NewRedisStore(c, cfg.RedisPrefix), func() { _ = c.Close() }, nil
	case "mongo":
		c, err := storage.OpenMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, noop, err
		}
		return storage.NewMongoStore(c, cfg.MongoDatabase), func() { _ = c.Disconnect(context.Background()) }, nil
	default:
		return nil, noop, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}

func contentSource(cfg config.Config) lesson.Source {
	if cfg.ContentURL != "" {
		return lesson.NewHTTPSource(cfg.ContentURL)
	}
	return lesson.FileSource{Path: cfg.ContentFile}
}
