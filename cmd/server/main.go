package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/UMC-MyFit/my-fit-back-sub000/config"
	"github.com/UMC-MyFit/my-fit-back-sub000/internal/api"
	"github.com/UMC-MyFit/my-fit-back-sub000/internal/api/handler"
	"github.com/UMC-MyFit/my-fit-back-sub000/internal/api/middleware"
	"github.com/UMC-MyFit/my-fit-back-sub000/internal/auth"
	"github.com/UMC-MyFit/my-fit-back-sub000/internal/chatcache"
	"github.com/UMC-MyFit/my-fit-back-sub000/internal/realtime"
	"github.com/UMC-MyFit/my-fit-back-sub000/internal/repository"
	"github.com/UMC-MyFit/my-fit-back-sub000/internal/service"
	"github.com/UMC-MyFit/my-fit-back-sub000/pkg/cache"
	"github.com/UMC-MyFit/my-fit-back-sub000/pkg/database"
	"github.com/UMC-MyFit/my-fit-back-sub000/pkg/logger"
	"github.com/UMC-MyFit/my-fit-back-sub000/pkg/telemetry"
)

//	@title			MyFit API
//	@version		1.0
//	@description	관계, 채팅, 커피챗, 피드 API
//	@BasePath		/

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				"Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("load config: " + err.Error())
	}

	log, err := logger.Init(cfg.Log)
	if err != nil {
		panic("init logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	log.Info("starting myfit",
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("db_driver", cfg.Database.Driver),
	)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	sentryOn := cfg.Sentry.DSN != ""
	if sentryOn {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			Environment:      cfg.Sentry.Environment,
			AttachStacktrace: true,
		}); err != nil {
			log.Warn("sentry disabled", zap.Error(err))
			sentryOn = false
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	tracer, err := telemetry.NewProvider(context.Background(), cfg.Telemetry, log)
	if err != nil {
		log.Fatal("init tracing", zap.Error(err))
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatal("connect database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Error("close database", zap.Error(err))
		}
	}()
	log.Info("database connected")

	// Redis is optional: without it messages are read from the store and
	// realtime delivery is off.
	var (
		msgCache   chatcache.MessageCache
		sink       service.EventSink
		subscriber realtime.Subscriber
		stopDisp   func(context.Context) error
	)
	rdb, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		log.Warn("redis unavailable, running without cache and realtime", zap.Error(err))
	} else {
		defer func() { _ = rdb.Close() }()
		msgCache = chatcache.NewRedisCache(rdb, cfg.Chat.CacheSize, cfg.Chat.CacheTTL)
		broker := realtime.NewRedisBroker(rdb)
		disp := realtime.NewDispatcher(broker, cfg.Chat.DispatcherQueue, cfg.Chat.PublishTimeout)
		stopDisp = disp.Start(cfg.Chat.DispatcherWorkers)
		sink, subscriber = disp, broker
	}

	tokens := auth.NewManager(cfg.JWT)

	services := repository.NewServiceRepository(db)
	rooms := repository.NewChatRoomRepository(db)
	messages := repository.NewMessageRepository(db)
	notifications := repository.NewNotificationRepository(db)

	lifetime, cancelLifetime := context.WithCancel(context.Background())
	defer cancelLifetime()

	h := handler.New(handler.Deps{
		Users: service.NewUserService(db, services, tokens),
		Relations: service.NewRelationshipService(db, services,
			repository.NewInterestRepository(db),
			repository.NewNetworkRepository(db),
			repository.NewBlockRepository(db),
		),
		Chat: service.NewChatService(db, rooms, messages, services, msgCache, sink),
		Coffeechats: service.NewCoffeechatService(db, repository.NewCoffeechatRepository(db),
			rooms, messages, services, msgCache, sink),
		Feeds:         service.NewFeedService(db, repository.NewFeedRepository(db), notifications, services),
		Notifications: service.NewNotificationService(notifications),
		Subscriber:    subscriber,
		Lifetime:      lifetime,
	})

	if err := middleware.RegisterValidators(); err != nil {
		log.Fatal("register validators", zap.Error(err))
	}
	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		go limiter.Janitor(lifetime)
	}

	router := api.NewRouter(h, tokens, api.Options{
		ServiceName: cfg.Telemetry.ServiceName,
		Tracing:     tracer.Enabled(),
		Sentry:      sentryOn,
		Swagger:     cfg.Swagger.Enabled && !cfg.IsProduction(),
		RateLimiter: limiter,
		Logger:      log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	// websocket sessions are hijacked and not tracked by Shutdown
	cancelLifetime()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("http shutdown", zap.Error(err))
	}
	if stopDisp != nil {
		if err := stopDisp(ctx); err != nil {
			log.Warn("dispatcher did not drain", zap.Error(err))
		}
	}
	if err := tracer.Shutdown(ctx); err != nil {
		log.Warn("tracer shutdown", zap.Error(err))
	}
	log.Info("server exited")
}
