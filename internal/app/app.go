package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Freeeeeet/mentorship_service/internal/auth"
	"github.com/Freeeeeet/mentorship_service/internal/config"
	"github.com/Freeeeeet/mentorship_service/internal/controller/rest"
	"github.com/Freeeeeet/mentorship_service/internal/controller/telegram"
	"github.com/Freeeeeet/mentorship_service/internal/metrics"
	"github.com/Freeeeeet/mentorship_service/internal/notify"
	"github.com/Freeeeeet/mentorship_service/internal/profile"
	"github.com/Freeeeeet/mentorship_service/internal/repository"
	"github.com/Freeeeeet/mentorship_service/internal/repository/memory"
	"github.com/Freeeeeet/mentorship_service/internal/repository/postgres"
	"github.com/Freeeeeet/mentorship_service/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// App собранный сервис: хранилище, доменные сервисы и внешние интеграции
type App struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *metrics.Metrics

	pool       *pgxpool.Pool
	store      repository.Store
	links      notify.ChatLinks
	profiles   profile.Lookup
	redis      *goredis.Client
	natsSink   *notify.NatsSink
	bot        *bot.Bot
	dispatcher *notify.Dispatcher

	Services rest.Services
}

// New подключается к хранилищу и внешним системам; при ошибке всё уже открытое закрывается
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics.New(),
	}
	if err := a.init(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	if err := a.initStorage(ctx); err != nil {
		return err
	}
	a.initProfiles(ctx)

	sink, err := a.initSinks()
	if err != nil {
		return err
	}
	a.dispatcher = notify.NewDispatcher(sink, a.cfg.NotifyQueueSize, a.logger, a.metrics)

	opts := []service.Option{
		service.WithMetrics(a.metrics),
		service.WithNotifier(a.dispatcher),
	}
	a.Services = rest.Services{
		Directory: service.NewDirectoryService(a.store, a.logger, opts...),
		Requests:  service.NewRequestService(a.store, a.logger, opts...),
		Lifecycle: service.NewLifecycleService(a.store, a.logger, opts...),
		Sessions:  service.NewSessionService(a.store, a.logger, opts...),
		Feedback:  service.NewFeedbackService(a.store, a.logger, opts...),
		Dashboard: service.NewDashboardService(a.store, a.profiles, a.logger, opts...),
	}
	return nil
}

func (a *App) initStorage(ctx context.Context) error {
	switch a.cfg.Storage {
	case config.StorageMemory:
		a.logger.Warn("Using in-memory storage, data is lost on restart")
		a.store = memory.NewStore()
		a.links = notify.NewMemoryChatLinks()
		return nil
	default:
		pool, err := pgxpool.New(ctx, a.cfg.DBDSN)
		if err != nil {
			return fmt.Errorf("create postgres pool: %w", err)
		}
		a.pool = pool
		if err := pool.Ping(ctx); err != nil {
			return fmt.Errorf("ping postgres: %w", err)
		}
		a.store = postgres.NewStore(pool)
		a.links = postgres.NewChatLinkRepository(pool)
		a.logger.Info("Connected to PostgreSQL")
		return nil
	}
}

func (a *App) initProfiles(ctx context.Context) {
	var source profile.Lookup = profile.Static{}
	if a.pool != nil {
		source = profile.NewPgLookup(a.pool)
	}

	if a.cfg.RedisAddr == "" {
		a.profiles = source
		return
	}

	a.redis = goredis.NewClient(&goredis.Options{Addr: a.cfg.RedisAddr})
	if err := a.redis.Ping(ctx).Err(); err != nil {
		// кэш необязателен: CachedLookup сам уходит в источник при ошибках Redis
		a.logger.Warn("Redis is unreachable, profile cache will fall through", zap.Error(err))
	}
	a.profiles = profile.NewCachedLookup(source, a.redis, a.cfg.ProfileCacheTTL, a.logger)
}

func (a *App) initSinks() (notify.Sink, error) {
	sinks := notify.Multi{notify.NewLogSink(a.logger)}

	if a.cfg.NatsURL != "" {
		natsSink, err := notify.NewNatsSink(a.cfg.NatsURL, a.logger)
		if err != nil {
			return nil, err
		}
		a.natsSink = natsSink
		sinks = append(sinks, natsSink)
	}

	if a.cfg.TelegramToken != "" {
		b, err := bot.New(a.cfg.TelegramToken)
		if err != nil {
			return nil, fmt.Errorf("create telegram bot: %w", err)
		}
		a.bot = b
		sinks = append(sinks, notify.NewTelegramSink(b, a.links))
	}

	names := make([]string, 0, len(sinks))
	for _, s := range sinks {
		names = append(names, s.Name())
	}
	a.logger.Info("Notification sinks configured", zap.Strings("sinks", names))

	return sinks, nil
}

// Migrate применяет миграции; для in-memory хранилища ничего не делает
func (a *App) Migrate(ctx context.Context) error {
	return a.withMigrator(func(m *Migrator) error { return m.Run(ctx) })
}

// MigrateDown откатывает последнюю миграцию
func (a *App) MigrateDown(ctx context.Context) error {
	return a.withMigrator(func(m *Migrator) error { return m.Down(ctx) })
}

func (a *App) withMigrator(fn func(m *Migrator) error) error {
	if a.pool == nil {
		a.logger.Info("In-memory storage, migrations skipped")
		return nil
	}

	migrator, err := NewMigrator(a.pool, a.logger)
	if err != nil {
		return err
	}
	defer migrator.Close()

	return fn(migrator)
}

// Serve HTTP API, воркер уведомлений, sweep и Telegram-бот до отмены ctx
func (a *App) Serve(ctx context.Context) error {
	if err := a.cfg.RequireJWTSecret(); err != nil {
		return err
	}
	if err := a.Migrate(ctx); err != nil {
		return err
	}

	if a.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authenticator := auth.NewAuthenticator(a.cfg.JWTSecret)
	router := rest.NewRouter(rest.RouterConfig{
		Handler: rest.NewHandler(a.Services, a.logger),
		Auth:    authenticator,
		Metrics: a.metrics,
		Logger:  a.logger,
	})
	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	// Очередь уведомлений останавливается после HTTP-сервера, чтобы не потерять события последних запросов
	dispatchCtx, stopDispatch := context.WithCancel(context.WithoutCancel(ctx))
	defer stopDispatch()
	g.Go(func() error {
		return a.dispatcher.Run(dispatchCtx)
	})

	g.Go(func() error {
		a.logger.Info("HTTP server listening", zap.String("addr", a.cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		stopDispatch()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		a.logger.Info("HTTP server stopped")
		return nil
	})

	scheduler := NewScheduler(a.Services.Sessions, a.cfg.SweepInterval, a.logger)
	scheduler.Start(gctx)
	defer scheduler.Stop()

	if a.bot != nil {
		controller := telegram.NewBotController(a.bot, a.links, authenticator, a.Services.Dashboard, a.logger)
		if err := controller.RegisterHandlers(gctx); err != nil {
			a.logger.Warn("Telegram commands menu is not set", zap.Error(err))
		}
		g.Go(func() error {
			return controller.Start(gctx)
		})
	}

	return g.Wait()
}

// SweepOnce один проход завершения прошедших встреч
func (a *App) SweepOnce(ctx context.Context) (int64, error) {
	return a.Services.Sessions.CompleteElapsed(ctx)
}

// Close освобождает соединения в обратном порядке
func (a *App) Close() {
	if a.natsSink != nil {
		a.natsSink.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("Failed to close redis client", zap.Error(err))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
}
