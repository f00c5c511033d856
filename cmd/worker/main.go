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
	"github.com/DioGolang/GeoDispatch/internal/application/port/outbound"
	"github.com/DioGolang/GeoDispatch/internal/application/usecase/location"
	"github.com/DioGolang/GeoDispatch/internal/application/usecase/notification"
	"github.com/DioGolang/GeoDispatch/internal/application/usecase/proximity"
	"github.com/DioGolang/GeoDispatch/internal/domain/entity"
	"github.com/DioGolang/GeoDispatch/internal/infra/database"
	"github.com/DioGolang/GeoDispatch/internal/infra/event"
	pushinfra "github.com/DioGolang/GeoDispatch/internal/infra/notification"
	"github.com/DioGolang/GeoDispatch/internal/infra/storage"
	"github.com/DioGolang/GeoDispatch/internal/infra/web/handler"
	"github.com/DioGolang/GeoDispatch/pkg/logger"
	"github.com/DioGolang/GeoDispatch/pkg/metrics"
	otelpkg "github.com/DioGolang/GeoDispatch/pkg/otel"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/errgroup"
)

const (
	version     = "1.0.0"
	handlerName = "ProximityCheck"
)

func main() {
	cfg, err := configs.LoadConfig(".")
	if err != nil {
		panic(err)
	}
	serviceName := cfg.ServiceName + "-worker"
	log := logger.NewLogger(serviceName, cfg.IsProduction())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := otelpkg.InitProvider(ctx, serviceName, cfg.OTELCollectorAddr, cfg.Environment, cfg.OTELSampleRatio)
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

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr(), Password: cfg.RedisPassword})
	defer rdb.Close()
	claims := storage.NewRedisAdapter(rdb)

	amqpConn, err := amqp.Dial(cfg.AMQPURL)
	if err != nil {
		log.Error(ctx, "RabbitMQ unreachable", logger.WithError(err))
		os.Exit(1)
	}
	defer amqpConn.Close()

	reg := prometheus.NewRegistry()
	m := metrics.NewPrometheusMetrics(reg, serviceName)

	tokens := database.NewTokenRepository(db)
	transport := newTransport(ctx, cfg, log)

	dispatcher := notification.NewDispatcher(transport, tokens, notification.DispatcherConfig{
		Concurrency:    cfg.FCMConcurrency,
		SendTimeout:    cfg.FCMSendTimeout,
		CleanupTimeout: 10 * time.Second,
	}, log, m)
	defer dispatcher.Wait()

	coordinator := proximity.NewCoordinator(database.NewOrderRepository(db), tokens, claims, dispatcher, log, m)
	coordinator.ClaimTTL = cfg.ProximityClaimTTL

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    handlerName,
		Timeout: 30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
	})

	var h event.MessageHandler = event.NewLocationAcceptedHandler(coordinator, log, cfg.ProximityEventMaxAge, time.Now)
	h = event.WrapExponentialBackoff(log, m, handlerName, 2, 200*time.Millisecond,
		func(err error) bool { return errors.Is(err, entity.ErrStoreUnavailable) }, h)
	h = event.WrapResilientConsumer(m, handlerName, 15*time.Second, cb, h)
	h = event.WrapIdempotency(log, m, claims, handlerName, cfg.IdempotencyTTL, h)

	consumer := event.NewConsumer(amqpConn, cfg.AMQPExchange, cfg.AMQPPrefetch, log)

	health, err := handler.NewHealthHandler(serviceName, version,
		handler.WithPostgres(db),
		handler.WithRedis(rdb),
		handler.WithRabbitMQ(cfg.AMQPURL),
	)
	if err != nil {
		panic(err)
	}
	r := chi.NewRouter()
	r.Handle("/health", health)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: ":" + cfg.WorkerHTTPPort, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return consumer.Start(gctx, cfg.AMQPQueue, location.LocationAcceptedTopic, h)
	})
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error(context.Background(), "Worker stopped with error", logger.WithError(err))
		os.Exit(1)
	}
	log.Info(context.Background(), "Worker stopped")
}

// newTransport falls back to a transport that always reports unavailability
// when FCM is not configured, so location tracking keeps working without it.
func newTransport(ctx context.Context, cfg *configs.Conf, log logger.Logger) outbound.NotificationTransport {
	if cfg.FCMCredentialsFile == "" {
		log.Warn(ctx, "FCM credentials not configured, notifications disabled")
		return pushinfra.UnavailableTransport{}
	}
	creds, err := os.ReadFile(cfg.FCMCredentialsFile)
	if err != nil {
		log.Error(ctx, "Failed to read FCM credentials", logger.WithError(err))
		return pushinfra.UnavailableTransport{}
	}
	fcm, err := pushinfra.NewFCMTransport(ctx, cfg.FCMProjectID, creds, log)
	if err != nil {
		log.Error(ctx, "Failed to init FCM transport", logger.WithError(err))
		return pushinfra.UnavailableTransport{}
	}
	return pushinfra.NewBreakerTransport(fcm, gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "fcm",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.Requests >= 10 && float64(c.TotalFailures)/float64(c.Requests) >= 0.6
		},
	}))
}
