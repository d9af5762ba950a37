package internal

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"trojmiasto-monitor/internal/adapters/geocoding"
	"trojmiasto-monitor/internal/adapters/geodistance"
	logger_adapter "trojmiasto-monitor/internal/adapters/logger"
	postgres_adapter "trojmiasto-monitor/internal/adapters/postgres"
	rabbitmq_adapter "trojmiasto-monitor/internal/adapters/rabbitmq"
	"trojmiasto-monitor/internal/adapters/rest"
	"trojmiasto-monitor/internal/adapters/trojmiastofetcher"
	"trojmiasto-monitor/internal/configs"
	"trojmiasto-monitor/internal/constants"
	"trojmiasto-monitor/internal/core/port"
	"trojmiasto-monitor/internal/core/usecase"
	"trojmiasto-monitor/internal/scheduler"
	"trojmiasto-monitor/pkg/fluentlogger"
	"trojmiasto-monitor/pkg/postgres"
	"trojmiasto-monitor/pkg/rabbitmq/rabbitmq_common"
	"trojmiasto-monitor/pkg/rabbitmq/rabbitmq_producer"

	"github.com/fluent/fluent-logger-golang/fluent"
	"github.com/jackc/pgx/v5/pgxpool"
)

// App – структура приложения
type App struct {
	config        *configs.AppConfig
	dbPool        *pgxpool.Pool
	connManager   *rabbitmq_common.ConnectionManager
	eventProducer *rabbitmq_producer.Publisher
	fluentClient  *fluent.Fluent
	logger        port.LoggerPort

	apiServer *rest.Server
	scheduler *scheduler.Scheduler
}

// NewApp создает новый экземпляр приложения.
// Это "Composition Root", где все зависимости создаются и связываются.
func NewApp() (*App, error) {
	appConfig, err := configs.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading application configuration: %w", err)
	}

	// --- 1. ИНИЦИАЛИЗАЦИЯ ЛОГГЕРОВ ---
	var activeLoggers []port.LoggerPort

	slogCfg := logger_adapter.SlogConfig{
		Level:    parseLogLevel(appConfig.StdoutLogger.Level),
		IsJSON:   false, // текстовый формат
		UseColor: true,
	}
	stdoutLogger := logger_adapter.NewSlogAdapter(slogCfg)
	activeLoggers = append(activeLoggers, stdoutLogger)

	// Добавляем Fluent Bit логгер, если он включен в конфигурации
	var fluentClient *fluent.Fluent
	if appConfig.FluentBit.Enabled {
		fluentClient, err = fluentlogger.NewClient(fluentlogger.Config{
			Host:      appConfig.FluentBit.Host,
			Port:      appConfig.FluentBit.Port,
			TagPrefix: appConfig.AppName,
		})
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit client", err, nil)
			return nil, fmt.Errorf("failed to create fluentbit client: %w", err)
		}

		fluentAdapter, err := logger_adapter.NewFluentLoggerAdapter(fluentClient, parseLogLevel(appConfig.FluentBit.Level))
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit adapter", err, nil)
			fluentClient.Close()
			return nil, err
		}
		activeLoggers = append(activeLoggers, fluentAdapter)
	}

	multiLogger, err := logger_adapter.NewMultiloggerAdapter(activeLoggers...)
	if err != nil {
		return nil, fmt.Errorf("failed to create multi-logger: %w", err)
	}

	baseLogger := multiLogger.WithFields(port.Fields{
		"service_name": appConfig.AppName,
	})
	appLogger := baseLogger.WithFields(port.Fields{"component": "app"})
	appLogger.Info("Logger system initialized", port.Fields{
		"active_loggers": len(activeLoggers), "fluent_enabled": appConfig.FluentBit.Enabled,
	})

	// --- 2. НИЗКОУРОВНЕВЫЕ ЗАВИСИМОСТИ ---
	dbPool, err := postgres.NewClient(context.Background(), postgres.Config{DatabaseURL: appConfig.Database.URL})
	if err != nil {
		appLogger.Error("Failed to connect to PostgreSQL", err, nil)
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	appLogger.Info("Successfully connected to PostgreSQL pool!", nil)

	listingStore, err := postgres_adapter.NewListingStoreAdapter(dbPool)
	if err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("failed to create listing store adapter: %w", err)
	}
	if err := listingStore.EnsureSchema(context.Background()); err != nil {
		appLogger.Error("Failed to ensure database schema", err, nil)
		dbPool.Close()
		return nil, err
	}

	listingQueries, err := postgres_adapter.NewListingQueryAdapter(dbPool)
	if err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("failed to create listing query adapter: %w", err)
	}

	// --- 3. ОПЦИОНАЛЬНЫЙ ИЗДАТЕЛЬ СОБЫТИЙ ---
	var connManager *rabbitmq_common.ConnectionManager
	var eventProducer *rabbitmq_producer.Publisher
	var listingEvents port.ListingEventsPort
	if appConfig.RabbitMQ.Enabled {
		connManagerLogger := baseLogger.WithFields(port.Fields{"component": "rabbitmq_conn_manager"})
		connManager, err = rabbitmq_common.GetManager(appConfig.RabbitMQ.URL, rabbitmq_adapter.NewPkgLoggerBridge(connManagerLogger))
		if err != nil {
			appLogger.Error("Failed to create connection manager", err, nil)
			dbPool.Close()
			return nil, fmt.Errorf("failed to create connection manager: %w", err)
		}

		producerLogger := baseLogger.WithFields(port.Fields{"component": "rabbitmq_producer"})
		producerCfg := rabbitmq_producer.PublisherConfig{
			Config:                   rabbitmq_common.Config{URL: appConfig.RabbitMQ.URL},
			ExchangeName:             constants.ListingsExchange,
			ExchangeType:             "direct",
			DurableExchange:          true,
			DeclareExchangeIfMissing: true,
			Logger:                   rabbitmq_adapter.NewPkgLoggerBridge(producerLogger),
		}
		eventProducer, err = rabbitmq_producer.NewPublisher(producerCfg, connManager)
		if err != nil {
			appLogger.Error("Failed to create event producer", err, port.Fields{"url": appConfig.RabbitMQ.URL})
			dbPool.Close()
			return nil, fmt.Errorf("failed to create event producer: %w", err)
		}

		listingEvents, err = rabbitmq_adapter.NewRabbitMQListingEventsAdapter(eventProducer)
		if err != nil {
			eventProducer.Close()
			dbPool.Close()
			return nil, err
		}
		appLogger.Info("RabbitMQ Event Producer initialized.", nil)
	}

	// --- 4. ИСХОДЯЩИЕ АДАПТЕРЫ ---
	fetcherAdapter := trojmiastofetcher.NewTrojmiastoFetcherAdapter(
		appConfig.Crawler.AllowedDomain,
		appConfig.Crawler.UserAgent,
	)

	geocoderAdapter := geocoding.NewNominatimGeocoderAdapter(
		geocoding.NewNominatimClient(appConfig.Geo.GeocoderBaseURL, appConfig.Geo.GeocoderUserAgent),
	)

	distanceAdapter, err := geodistance.NewGeoDistanceAdapter(appConfig.Geo.CoastlinePath)
	if err != nil {
		appLogger.Error("Failed to load coastline geometry", err, port.Fields{"path": appConfig.Geo.CoastlinePath})
		if eventProducer != nil {
			eventProducer.Close()
		}
		dbPool.Close()
		return nil, err
	}
	appLogger.Info("All outgoing adapters initialized.", nil)

	// --- 5. USE CASES ---
	processListingUseCase := usecase.NewProcessListingUseCase(
		fetcherAdapter, listingStore, geocoderAdapter, distanceAdapter, listingEvents)
	runCrawlUseCase := usecase.NewRunCrawlSessionUseCase(
		fetcherAdapter, listingStore, processListingUseCase,
		appConfig.Crawler.SeedURLs,
		appConfig.Crawler.FreshnessDays,
		appConfig.Crawler.Workers,
	)
	appLogger.Info("All use cases initialized.", nil)

	// --- 6. ВХОДЯЩИЕ ТОЧКИ: ПЛАНИРОВЩИК И REST ---
	schedulerLogger := baseLogger.WithFields(port.Fields{"component": "scheduler"})
	crawlScheduler := scheduler.NewScheduler(runCrawlUseCase, appConfig.Crawler.IntervalDays, schedulerLogger)

	apiHandlers := rest.NewListingsHandler(listingQueries)
	apiServer := rest.NewServer(appConfig.Rest.PORT, apiHandlers, baseLogger)

	application := &App{
		config:        appConfig,
		dbPool:        dbPool,
		connManager:   connManager,
		eventProducer: eventProducer,
		fluentClient:  fluentClient,
		logger:        appLogger,
		apiServer:     apiServer,
		scheduler:     crawlScheduler,
	}
	return application, nil
}

// Run запускает все компоненты приложения и управляет их жизненным циклом
func (a *App) Run() error {
	appCtx, cancelApp := context.WithCancel(context.Background())

	var wg sync.WaitGroup

	defer func() {
		a.logger.Info("App: Shutdown sequence initiated...", nil)

		wg.Wait()
		a.logger.Info("App: All background processes finished.", nil)

		if a.apiServer != nil {
			if err := a.apiServer.Stop(context.Background()); err != nil {
				a.logger.Error("App: Error closing api server", err, nil)
			}
		}
		if a.eventProducer != nil {
			if err := a.eventProducer.Close(); err != nil {
				a.logger.Error("App: Error closing event producer", err, nil)
			}
		}
		if a.connManager != nil {
			if err := a.connManager.Close(); err != nil {
				a.logger.Error("App: Error closing RabbitMQ connection", err, nil)
			}
		}
		if a.dbPool != nil {
			a.dbPool.Close()
			a.logger.Info("App: PostgreSQL pool closed.", nil)
		}
		if a.fluentClient != nil {
			a.fluentClient.Close()
		}
		a.logger.Info("Application shut down gracefully.", nil)
	}()

	a.logger.Info("Application is starting...", nil)

	wg.Add(1)
	go func() {
		defer wg.Done()
		a.scheduler.Run(appCtx)
	}()

	go func() {
		a.logger.Info("Starting HTTP server", port.Fields{"port": a.config.Rest.PORT})
		if err := a.apiServer.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	a.logger.Info("Application running. Waiting for signals...", nil)
	receivedSignal := <-quit
	a.logger.Info("App: Received signal. Shutting down...", port.Fields{"signal": receivedSignal.String()})

	cancelApp()
	return nil
}

func parseLogLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		// Возвращаем безопасное значение по умолчанию и логируем предупреждение
		log.Printf("Warning: Unknown log level '%s'. Defaulting to 'info'.", levelStr)
		return slog.LevelInfo
	}
}
