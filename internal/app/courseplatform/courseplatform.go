package courseplatform

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/course-platform/internal/cache"
	"github.com/magabrotheeeer/course-platform/internal/config"
	"github.com/magabrotheeeer/course-platform/internal/http/handlers/subscription/webhook"
	"github.com/magabrotheeeer/course-platform/internal/lib/jwt"
	"github.com/magabrotheeeer/course-platform/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/course-platform/internal/lib/sl"
	"github.com/magabrotheeeer/course-platform/internal/migrations"
	"github.com/magabrotheeeer/course-platform/internal/paymentprovider"
	authservice "github.com/magabrotheeeer/course-platform/internal/services/auth"
	courseservice "github.com/magabrotheeeer/course-platform/internal/services/course"
	subservice "github.com/magabrotheeeer/course-platform/internal/services/subscription"
	"github.com/magabrotheeeer/course-platform/internal/storage"
)

const shutdownTimeout = 15 * time.Second

// App HTTP API платформы.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *storage.Storage
	cache  *cache.Cache
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// New подключает зависимости и собирает сервер. Redis и RabbitMQ
// необязательны: без Redis тарифы читаются из базы, без RabbitMQ
// события о смене статуса подписки не публикуются.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := storage.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err = db.CheckDatabaseReady(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	app := &App{logger: logger, db: db}

	var plansCache subservice.Cache
	if cfg.AddressRedis != "" {
		redisCache, err := cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			logger.Warn("redis unavailable, plans cache disabled", sl.Err(err))
		} else {
			app.cache = redisCache
			plansCache = redisCache
		}
	}

	var publisher subservice.Publisher
	if cfg.RabbitMQURL != "" {
		conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
		if err != nil {
			logger.Warn("rabbitmq unavailable, subscription events disabled", sl.Err(err))
		} else {
			ch, err := rabbitmq.SetupChannel(conn, cfg.Exchange, rabbitmq.SubscriptionQueues())
			if err != nil {
				_ = conn.Close()
				logger.Warn("rabbitmq channel setup failed, subscription events disabled", sl.Err(err))
			} else {
				app.conn, app.ch = conn, ch
				publisher = rabbitmq.NewPublisher(ch, cfg.Exchange)
			}
		}
	}

	gateway := paymentprovider.NewClient(cfg.Payment)
	var signatures webhook.SignatureVerifier
	if cfg.VerifySignature {
		signatures = gateway
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	subscriptionService := subservice.NewSubscriptionService(db, gateway, plansCache, publisher, cfg.PlansTTL, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, Deps{
		Auth:          authservice.NewAuthService(db, jwtMaker, logger),
		Subscriptions: subscriptionService,
		Courses:       courseservice.NewCourseService(db, subscriptionService, logger),
		Tokens:        jwtMaker,
		Signatures:    signatures,
		DB:            db,
	})

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

// Run запускает сервер и останавливает его по отмене ctx.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err = a.server.Shutdown(timeoutCtx)
	}
	a.close()
	return err
}

func (a *App) close() {
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close connection", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close redis", sl.Err(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", sl.Err(err))
	}
}
