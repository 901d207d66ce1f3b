package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"

	"github.com/Zllawi/bassmaStore/internal/handlers"
	"github.com/Zllawi/bassmaStore/internal/payments"
	"github.com/Zllawi/bassmaStore/internal/platform/auth"
	"github.com/Zllawi/bassmaStore/internal/platform/config"
	pfirestore "github.com/Zllawi/bassmaStore/internal/platform/firestore"
	"github.com/Zllawi/bassmaStore/internal/platform/jobs"
	"github.com/Zllawi/bassmaStore/internal/platform/observability"
	"github.com/Zllawi/bassmaStore/internal/platform/secrets"
	platformstorage "github.com/Zllawi/bassmaStore/internal/platform/storage"
	"github.com/Zllawi/bassmaStore/internal/repositories"
	firestoreRepo "github.com/Zllawi/bassmaStore/internal/repositories/firestore"
	"github.com/Zllawi/bassmaStore/internal/services"
)

func main() {
	ctx := context.Background()
	startedAt := time.Now().UTC()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	ctx = observability.WithLogger(ctx, logger)

	fetcher, err := newSecretFetcher(ctx, logger)
	if err != nil {
		logger.Fatal("failed to initialise secret fetcher", zap.Error(err))
	}
	defer func() {
		if err := fetcher.Close(); err != nil {
			logger.Warn("secret fetcher close error", zap.Error(err))
		}
	}()

	cfg, err := config.Load(ctx,
		config.WithSecretResolver(config.SecretResolverFunc(fetcher.Resolve)),
	)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	firestoreProvider := pfirestore.NewProvider(cfg.Firestore)
	firestoreClient, err := firestoreProvider.Client(ctx)
	if err != nil {
		logger.Fatal("failed to initialise firestore client", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := firestoreProvider.Close(closeCtx); err != nil {
			logger.Warn("firestore close error", zap.Error(err))
		}
	}()

	counterRepo, err := firestoreRepo.NewCounterRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise counter repository", zap.Error(err))
	}
	userRepo, err := firestoreRepo.NewUserRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise user repository", zap.Error(err))
	}
	addressRepo, err := firestoreRepo.NewAddressRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise address repository", zap.Error(err))
	}
	productRepo, err := firestoreRepo.NewProductRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise product repository", zap.Error(err))
	}
	orderRepo, err := firestoreRepo.NewOrderRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise order repository", zap.Error(err))
	}

	tokens, err := auth.NewTokenManager(auth.TokenManagerConfig{
		AccessSecret:    cfg.Auth.AccessSecret,
		RefreshSecret:   cfg.Auth.RefreshSecret,
		AccessTokenTTL:  cfg.Auth.AccessTokenTTL,
		RefreshTokenTTL: cfg.Auth.RefreshTokenTTL,
	})
	if err != nil {
		logger.Fatal("failed to initialise token manager", zap.Error(err))
	}
	authenticator, err := auth.NewAuthenticator(tokens)
	if err != nil {
		logger.Fatal("failed to initialise authenticator", zap.Error(err))
	}

	counterService, err := services.NewCounterService(services.CounterServiceDeps{
		Repository: counterRepo,
	})
	if err != nil {
		logger.Fatal("failed to initialise counter service", zap.Error(err))
	}

	userService, err := services.NewUserService(services.UserServiceDeps{
		Users:     userRepo,
		Addresses: addressRepo,
		Tokens:    tokens,
		Logger:    logger.Named("users"),
	})
	if err != nil {
		logger.Fatal("failed to initialise user service", zap.Error(err))
	}

	var uploader services.ImageUploader
	if strings.TrimSpace(cfg.Storage.ImagesBucket) != "" {
		imageStore, err := platformstorage.NewImageStore(cfg.Storage.ImagesBucket, cfg.Storage.PublicURLPrefix)
		if err != nil {
			logger.Fatal("failed to initialise image store", zap.Error(err))
		}
		uploader = imageStore
	} else {
		logger.Warn("images bucket not configured; product image uploads disabled")
	}

	catalogService, err := services.NewCatalogService(services.CatalogServiceDeps{
		Products: productRepo,
		Images:   uploader,
		Logger:   logger.Named("catalog"),
	})
	if err != nil {
		logger.Fatal("failed to initialise catalog service", zap.Error(err))
	}

	var publisher services.OrderEventPublisher
	if topicID := strings.TrimSpace(cfg.PubSub.OrderEventTopic); topicID != "" {
		pubsubClient, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			logger.Fatal("failed to initialise pubsub client", zap.Error(err))
		}
		topic := pubsubClient.Topic(topicID)
		defer func() {
			topic.Stop()
			if err := pubsubClient.Close(); err != nil {
				logger.Warn("pubsub close error", zap.Error(err))
			}
		}()
		publisher, err = jobs.NewPubSubOrderEventPublisher(topic)
		if err != nil {
			logger.Fatal("failed to initialise order event publisher", zap.Error(err))
		}
	} else {
		logger.Warn("order event topic not configured; order events disabled")
	}

	var gateway services.PaymentGateway
	if strings.TrimSpace(cfg.PSP.StripeAPIKey) != "" {
		gateway, err = payments.NewStripeGateway(payments.StripeGatewayConfig{
			APIKey:   cfg.PSP.StripeAPIKey,
			Currency: cfg.PSP.Currency,
			Logger:   logger.Named("payments"),
		})
		if err != nil {
			logger.Fatal("failed to initialise stripe gateway", zap.Error(err))
		}
	} else {
		if cfg.IsProduction() {
			logger.Fatal("stripe api key is required in production")
		}
		logger.Warn("stripe api key not configured; using dummy payment gateway")
		gateway = payments.NewDummyGateway(cfg.PSP.Currency)
	}

	orderService, err := services.NewOrderService(services.OrderServiceDeps{
		Orders:    orderRepo,
		Products:  productRepo,
		Users:     userRepo,
		Addresses: addressRepo,
		Counter:   counterService,
		Publisher: publisher,
		Gateway:   gateway,
		Logger:    logger.Named("orders"),
		Clock:     time.Now,
	})
	if err != nil {
		logger.Fatal("failed to initialise order service", zap.Error(err))
	}

	systemService, err := newSystemService(firestoreClient, logger.Named("health"), startedAt)
	if err != nil {
		logger.Fatal("failed to initialise system service", zap.Error(err))
	}

	authHandlers := handlers.NewAuthHandlers(userService, authenticator, cfg.IsProduction())
	meHandlers := handlers.NewMeHandlers(userService, authenticator)
	userAdminHandlers := handlers.NewUserAdminHandlers(userService, authenticator)
	productHandlers := handlers.NewProductHandlers(catalogService, authenticator)
	orderHandlers := handlers.NewOrderHandlers(orderService, authenticator)
	healthHandlers := handlers.NewHealthHandlers(systemService)

	middlewares := []func(http.Handler) http.Handler{
		observability.InjectLoggerMiddleware(logger.Named("http")),
		observability.TraceMiddleware(cfg.Firestore.ProjectID),
		observability.RecoveryMiddleware(logger.Named("http")),
		observability.RequestLoggerMiddleware(cfg.Firestore.ProjectID),
		handlers.CORS(handlers.CORSConfig{
			AllowedOrigins: cfg.CORS.AllowedOrigins,
			AllowLocalhost: !cfg.IsProduction(),
		}),
		handlers.RateLimit(cfg.RateLimits.DefaultPerMinute, time.Minute),
	}

	router := handlers.NewRouter(
		handlers.WithMiddlewares(middlewares...),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithAuthRoutes(authHandlers.Routes),
		handlers.WithMeRoutes(meHandlers.Routes),
		handlers.WithUserRoutes(userAdminHandlers.Routes),
		handlers.WithProductRoutes(productHandlers.Routes),
		handlers.WithOrderRoutes(orderHandlers.Routes),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("bassma store api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newSecretFetcher(ctx context.Context, logger *zap.Logger) (*secrets.Fetcher, error) {
	opts := []secrets.Option{
		secrets.WithLogger(logger.Named("secrets")),
	}
	if project := strings.TrimSpace(os.Getenv("API_FIRESTORE_PROJECT_ID")); project != "" {
		opts = append(opts, secrets.WithProject(project))
	}
	return secrets.NewFetcher(ctx, opts...)
}

func newSystemService(client *firestore.Client, logger *zap.Logger, started time.Time) (services.SystemService, error) {
	checks := []repositories.DependencyCheck{
		{
			Name:    "firestore",
			Timeout: 1500 * time.Millisecond,
			Check: func(ctx context.Context) error {
				iter := client.Collections(ctx)
				_, err := iter.Next()
				if errors.Is(err, iterator.Done) {
					return nil
				}
				return err
			},
		},
	}
	healthRepo, err := repositories.NewDependencyHealthRepository(checks)
	if err != nil {
		return nil, err
	}
	return services.NewSystemService(services.SystemServiceDeps{
		Health:  healthRepo,
		Logger:  logger,
		Clock:   time.Now,
		Started: started,
	})
}
