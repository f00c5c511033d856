package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DioGolang/GeoDispatch/configs"
	"github.com/DioGolang/GeoDispatch/internal/application/usecase/location"
	"github.com/DioGolang/GeoDispatch/internal/application/usecase/nearest"
	"github.com/DioGolang/GeoDispatch/internal/application/usecase/notification"
	"github.com/DioGolang/GeoDispatch/internal/infra/database"
	"github.com/DioGolang/GeoDispatch/internal/infra/event"
	"github.com/DioGolang/GeoDispatch/internal/infra/web"
	"github.com/DioGolang/GeoDispatch/internal/infra/web/handler"
	mw "github.com/DioGolang/GeoDispatch/internal/infra/web/middleware"
	"github.com/DioGolang/GeoDispatch/pkg/logger"
	"github.com/DioGolang/GeoDispatch/pkg/metrics"
	otelpkg "github.com/DioGolang/GeoDispatch/pkg/otel"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/sync/errgroup"
)

const version = "1.0.0"

func main() {
	cfg, err := configs.LoadConfig(".")
	if err != nil {
		panic(err)
	}
	log := logger.NewLogger(cfg.ServiceName+"-api", cfg.IsProduction())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := otelpkg.InitProvider(ctx, cfg.ServiceName+"-api", cfg.OTELCollectorAddr, cfg.Environment, cfg.OTELSampleRatio)
	if err != nil {
		log.Error(ctx, "Failed to init tracer", logger.WithError(err))
		os.Exit(1)
	}
	defer shutdownTracer()

	db, err := sql.Open(cfg.DBDriver, cfg.DSN())
	if err != nil {
		panic(err)
	}
	defer db.Close()
	if err = db.PingContext(ctx); err != nil {
		log.Error(ctx, "Database unreachable", logger.WithError(err))
		os.Exit(1)
	}

	amqpConn, err := amqp.Dial(cfg.AMQPURL)
	if err != nil {
		log.Error(ctx, "RabbitMQ unreachable", logger.WithError(err))
		os.Exit(1)
	}
	defer amqpConn.Close()
	ch, err := amqpConn.Channel()
	if err != nil {
		panic(err)
	}
	defer ch.Close()

	reg := prometheus.NewRegistry()
	m := metrics.NewPrometheusMetrics(reg, cfg.ServiceName+"-api")

	drivers := database.NewDriverRepository(db)
	supermarkets := database.NewSupermarketRepository(db)
	tokens := database.NewTokenRepository(db)
	uow := database.NewUnitOfWork(db)

	throttle := location.NewThrottle(cfg.ThrottleMaxEntries, cfg.ThrottleStaleAfter)
	policy := location.Policy{
		RateLimit:              cfg.ThrottleRateLimit,
		MinMovementKm:          cfg.ThrottleMinMovementKm,
		JumpWarnKm:             cfg.ThrottleJumpWarnKm,
		ProximityCheckInterval: cfg.ProximityCheckInterval,
		StoreTimeout:           cfg.StoreTimeout,
	}
	submitUseCase := &location.SubmitMetricsDecorator{
		Next:    location.NewSubmitUseCase(drivers, uow, throttle, policy, log, m),
		Metrics: m,
	}
	driversUseCase := &nearest.DriversMetricsDecorator{
		Next:    nearest.NewDriversUseCase(drivers, cfg.StoreTimeout),
		Metrics: m,
	}
	supermarketsUseCase := &nearest.SupermarketsMetricsDecorator{
		Next:    nearest.NewSupermarketsUseCase(supermarkets, cfg.StoreTimeout),
		Metrics: m,
	}
	tokenUseCase := notification.NewTokenUseCase(tokens, log)

	health, err := handler.NewHealthHandler(cfg.ServiceName+"-api", version,
		handler.WithPostgres(db),
		handler.WithRabbitMQ(cfg.AMQPURL),
	)
	if err != nil {
		panic(err)
	}

	limiter := mw.NewRateLimiter(ctx, mw.RateLimiterConfig{
		RequestsPerSecond: cfg.HTTPRateLimitRPS,
		Burst:             cfg.HTTPRateLimitBurst,
		CleanupInterval:   time.Minute,
		ClientTimeout:     3 * time.Minute,
	})

	router := web.NewRouter(
		web.RouterConfig{
			ServiceName:    cfg.ServiceName + "-api",
			RequestTimeout: cfg.HTTPRequestTimeout,
			Gatherer:       reg,
			RateLimiter:    limiter,
		},
		web.Handlers{
			Location: handler.NewLocationHandler(submitUseCase, log),
			Nearest:  handler.NewNearestHandler(driversUseCase, supermarketsUseCase),
			Tokens:   handler.NewTokenHandler(tokenUseCase),
			Health:   health,
		},
		log, m,
	)

	relay := event.NewOutboxRelay(
		database.NewOutboxStore(db),
		event.NewPublisher(ch, cfg.AMQPExchange),
		log, m, event.DefaultRelayConfig(),
	)

	srv := &http.Server{
		Addr:              ":" + cfg.WebServerPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		relay.Run(gctx)
		return nil
	})
	g.Go(func() error {
		relay.RunRescuer(gctx)
		return nil
	})
	g.Go(func() error {
		log.Info(gctx, "Server running", logger.String("port", cfg.WebServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error(context.Background(), "API stopped with error", logger.WithError(err))
		os.Exit(1)
	}
	log.Info(context.Background(), "API stopped")
}
