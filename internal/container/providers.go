package container

import (
	"database/sql"
	"fmt"

	"github.com/garyjia/travel-voucher/internal/application/dispatcher"
	"github.com/garyjia/travel-voucher/internal/application/port"
	"github.com/garyjia/travel-voucher/internal/application/service"
	"github.com/garyjia/travel-voucher/internal/application/workflow"
	"github.com/garyjia/travel-voucher/internal/infrastructure/export"
	"github.com/garyjia/travel-voucher/internal/infrastructure/external/googlemaps"
	infraLark "github.com/garyjia/travel-voucher/internal/infrastructure/external/lark"
	"github.com/garyjia/travel-voucher/internal/infrastructure/persistence/repository"
	"github.com/garyjia/travel-voucher/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/travel-voucher/migrations"
	"github.com/garyjia/travel-voucher/pkg/database"
	"go.uber.org/zap"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	DB             *database.DB
	TransactionMgr *sqlite.DB
}

// ExternalBundle holds the optional outbound integrations. Nil members are
// disabled and the services degrade accordingly.
type ExternalBundle struct {
	Distance  port.DistanceProvider
	Messenger port.MessageSender
	Exporter  port.VoucherExporter
}

// ProvideDatabase opens the database, applies embedded migrations and
// builds the transaction manager.
func ProvideDatabase(cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := database.Open(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	applied, err := database.NewMigrator(db, logger).Run(migrations.FS)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.Info("Migrations applied", zap.Int("count", applied))

	return &DatabaseBundle{
		DB:             db,
		TransactionMgr: sqlite.NewDB(db.DB, logger),
	}, nil
}

// ProvideRepositories creates all repositories from a database connection.
func ProvideRepositories(sqlDB *sql.DB, txManager port.TransactionManager, logger *zap.Logger) (*RepositoryBundle, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if txManager == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Vouchers: repository.NewVoucherRepository(sqlDB, logger),
		Trips:    repository.NewTripRepository(sqlDB, logger),
		Profiles: repository.NewProfileRepository(sqlDB, logger),
		Rates:    repository.NewMileageRateRepository(sqlDB, txManager, logger),
		History:  repository.NewHistoryRepository(sqlDB, logger),
	}, nil
}

// ProvideExternal creates the distance provider, messenger and exporter.
// Missing credentials disable the matching integration.
func ProvideExternal(cfg *Config, logger *zap.Logger) (*ExternalBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	bundle := &ExternalBundle{
		Exporter: export.NewExcelExporter(cfg.Export.Organization, logger),
	}

	if cfg.Mileage.GoogleMapsAPIKey != "" {
		client, err := googlemaps.NewClient(googlemaps.Config{
			APIKey:  cfg.Mileage.GoogleMapsAPIKey,
			Timeout: cfg.Mileage.LookupTimeout,
		}, logger)
		if err != nil {
			return nil, err
		}
		bundle.Distance = client
	} else {
		logger.Info("No maps API key configured, mileage will be estimated")
	}

	larkCfg := infraLark.Config{
		AppID:      cfg.Lark.AppID,
		AppSecret:  cfg.Lark.AppSecret,
		BaseURL:    cfg.Lark.BaseURL,
		APITimeout: cfg.Lark.APITimeout,
	}
	if larkCfg.Enabled() {
		bundle.Messenger = infraLark.NewMessenger(infraLark.NewClient(larkCfg, logger), logger)
	} else {
		logger.Info("Lark credentials not configured, notifications will be logged only")
	}

	return bundle, nil
}

// ProvideDispatcher creates the event dispatcher.
func ProvideDispatcher(logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return dispatcher.NewDispatcher(dispatcher.WithLogger(logger)), nil
}

// ServiceDeps holds dependencies required for creating services.
type ServiceDeps struct {
	Repos      *RepositoryBundle
	TxManager  port.TransactionManager
	External   *ExternalBundle
	Dispatcher dispatcher.Dispatcher
	Mileage    *MileageConfig
	Logger     *zap.Logger
}

// ProvideServices creates the application services and the lifecycle engine,
// and subscribes notifications to the dispatcher.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.TxManager == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}
	if deps.External == nil || deps.Mileage == nil {
		return nil, fmt.Errorf("external clients and mileage config are required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	serviceLogger := &zapLoggerAdapter{logger: deps.Logger}

	mileage := service.NewMileageService(deps.External.Distance, deps.Mileage.LookupTimeout, serviceLogger)
	notification := service.NewNotificationService(deps.Repos.Profiles, deps.External.Messenger, serviceLogger)
	if deps.Dispatcher != nil {
		notification.Register(deps.Dispatcher)
	}

	return &ServiceBundle{
		Mileage: mileage,
		Profile: service.NewProfileService(deps.Repos.Profiles, serviceLogger),
		Trip:    service.NewTripService(deps.Repos.Trips, mileage, serviceLogger),
		Voucher: service.NewVoucherService(service.VoucherServiceDeps{
			Vouchers:    deps.Repos.Vouchers,
			Trips:       deps.Repos.Trips,
			Profiles:    deps.Repos.Profiles,
			Rates:       deps.Repos.Rates,
			History:     deps.Repos.History,
			TxManager:   deps.TxManager,
			Exporter:    deps.External.Exporter,
			Dispatcher:  deps.Dispatcher,
			DefaultRate: deps.Mileage.DefaultRate,
			Logger:      serviceLogger,
		}),
		Notification: notification,
		Lifecycle:    workflow.NewEngine(
			deps.Repos.Vouchers,
			deps.Repos.Profiles,
			deps.Repos.History,
			deps.TxManager,
			workflow.WithDispatcher(deps.Dispatcher),
			workflow.WithLogger(deps.Logger),
		),
	}, nil
}
