// Package server carries the bootstrap shared by every socialhub binary:
// config, logging, infrastructure clients, the gin engine with its global
// middleware, and graceful shutdown. Each cmd/ main declares which
// infrastructure it needs and wires its own modules.
package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/rifqiokta/socialhub/config"
	"github.com/rifqiokta/socialhub/internal/container"
	pginfra "github.com/rifqiokta/socialhub/internal/infrastructure/postgres"
	"github.com/rifqiokta/socialhub/internal/interface/middleware"
	"github.com/rifqiokta/socialhub/pkg/cache"
	"github.com/rifqiokta/socialhub/pkg/eventbus"
	"github.com/rifqiokta/socialhub/pkg/helpers"
	"github.com/rifqiokta/socialhub/pkg/mailer"
	"github.com/rifqiokta/socialhub/pkg/validation"
)

// Needs declares the infrastructure a binary depends on. Redis is implied:
// every service rate-limits requests and most of them cache through it.
type Needs struct {
	Postgres   bool
	Migrations bool // run file migrations on startup (one binary owns these)
	Bus        bool
	EmailQueue bool
	ES         bool
	GCS        bool
	Mailgun    bool
}

// App is a bootstrapped service process.
type App struct {
	Cfg    *config.Config
	Engine *gin.Engine

	closers []func()
}

// Bootstrap loads config, builds the requested infrastructure, and publishes
// everything to the container. Store connectivity is fatal; the event bus is
// not, because a reachable broker is not required to serve reads and the bus
// reconnects on its own.
func Bootstrap(appName string, needs Needs) (*App, error) {
	_ = godotenv.Load() // load .env if present

	cfg := config.Load()
	cfg.AppName = appName
	logger := helpers.NewLogger(cfg.AppName, cfg.Env)
	gin.SetMode(cfg.GinMode)
	validation.Init()

	ctx := context.Background()
	app := &App{Cfg: cfg}

	container.SetConfig(cfg)
	container.SetLogger(logger)

	if needs.Postgres || needs.Migrations {
		pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, pool.Close)
		container.SetPGPool(pool)

		if needs.Migrations {
			if err := pginfra.Migrate(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
				app.Close()
				return nil, err
			}
		}
	}

	rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	app.closers = append(app.closers, func() { _ = rdb.Close() })
	container.SetRedis(rdb)
	container.SetJWT(helpers.NewJWTManager(cfg.JWTAccessSecret, cfg.AccessTTL))
	container.SetCacheCoordinator(cache.NewCoordinator(cache.NewRedisStore(rdb), cfg.CacheTTL, logger))

	if needs.Bus {
		bus := eventbus.New(eventbus.Options{
			URL:            cfg.RabbitMQURL,
			Exchange:       cfg.EventExchange,
			HandlerTimeout: cfg.BusHandlerTimeout,
			MaxRetries:     cfg.BusMaxRetries,
			Logger:         logger,
		})
		if err := bus.Connect(ctx); err != nil {
			logger.WithError(err).Warn("event bus unavailable, retrying in background")
			go bus.Reconnect()
		}
		container.SetBus(bus)
		app.closers = append(app.closers, func() { _ = bus.Close() })
	}

	if needs.EmailQueue {
		pub, err := eventbus.NewQueuePublisher(cfg.RabbitMQURL, cfg.EmailQueue)
		if err != nil {
			logger.WithError(err).Warn("email queue unavailable, security emails will be dropped")
		} else {
			container.SetEmailQueue(pub)
			app.closers = append(app.closers, pub.Close)
		}
	}

	if needs.ES {
		es, err := helpers.NewESClient(cfg.ESAddrs(), cfg.ElasticsearchUser, cfg.ElasticsearchPass)
		if err != nil {
			app.Close()
			return nil, err
		}
		container.SetES(es)
	}

	if needs.GCS {
		gcsClient, err := helpers.NewGCSClient(ctx, cfg.GCSCredentialsJSONPath)
		if err != nil {
			app.Close()
			return nil, err
		}
		container.SetGCS(gcsClient)
		app.closers = append(app.closers, func() { _ = gcsClient.Close() })
	}

	if needs.Mailgun {
		container.SetMailgun(mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender))
	}

	app.Engine = newEngine(cfg)
	return app, nil
}

func newEngine(cfg *config.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RealIP())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if cfg.HTTPLogEnabled {
		r.Use(gin.Logger())
	}
	return r
}

// Run serves the engine until SIGINT/SIGTERM, then shuts down gracefully and
// releases infrastructure in reverse construction order.
func (a *App) Run() error {
	logger := container.GetLogger()
	srv := &http.Server{Addr: ":" + a.Cfg.Port, Handler: a.Engine}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("%s listening on :%s", a.Cfg.AppName, a.Cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		a.Close()
		return err
	case <-quit:
	}
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := srv.Shutdown(ctx)
	a.Close()
	return err
}

// Close releases owned infrastructure in reverse order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
