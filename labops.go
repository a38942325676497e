package labops

import (
	"context"
	"fmt"
	"time"

	"github.com/blutspende/labops/config"
	"github.com/blutspende/labops/db"
	"github.com/blutspende/labops/migrator"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// App owns the connections of a labops process and the services built on them. Everything that
// New opened is released by Close.
type App struct {
	Config       config.Configuration
	Metrics      *Metrics
	Orders       OrderService
	Transfers    TransferService
	Flowcells    FlowcellService
	Observations ObservationService
	Invoices     InvoiceService
	Analyses     AnalysisService

	ctx         context.Context
	postgres    db.Postgres
	redisClient *redis.Client
	statsClient StatsClient
	authManager AuthManager
	logger      zerolog.Logger
}

func New(ctx context.Context, configuration config.Configuration, logger zerolog.Logger) (*App, error) {
	app := &App{
		Config:  configuration,
		Metrics: NewMetrics(),
		ctx:     ctx,
		logger:  logger,
	}

	app.postgres = db.NewPostgres(ctx, &configuration)
	err := app.postgres.Connect()
	if err != nil {
		return nil, errors.Wrap(err, "connecting to postgres failed")
	}
	dbConn := db.NewDbConnector(app.postgres)
	statusRepository := NewStatusRepository(dbConn, configuration.DBSchema)
	bundleService := NewBundleService(NewBundleRepository(dbConn, configuration.DBSchema), logger.With().Str("service", "bundle").Logger())

	restyClient := NewRestyClient(ctx, &configuration, true)
	limsRestyClient := restyClient
	if configuration.Authorization {
		app.authManager, err = NewAuthManager(&configuration, NewRestyClient(ctx, &configuration, true))
		if err != nil {
			app.Close()
			return nil, err
		}
		if configuration.ClientID != "" {
			limsRestyClient = NewRestyClientWithAuthManager(ctx, &configuration, app.authManager)
		}
	}
	lims, err := NewLimsClient(configuration.LimsURL, limsRestyClient)
	if err != nil {
		app.Close()
		return nil, err
	}

	var ticketClient TicketClient
	if configuration.TicketURL != "" {
		ticketClient, err = NewTicketClient(configuration.TicketURL, configuration.TicketAPIKey, restyClient)
		if err != nil {
			app.Close()
			return nil, err
		}
	} else {
		log.Warn().Msg("no ticket system configured, orders without ticket number get none")
	}

	locker := NewNoopLocker()
	if configuration.RedisUrl != "" {
		app.redisClient = redis.NewClient(&redis.Options{
			Addr: fmt.Sprintf("%s:%d", configuration.RedisUrl, configuration.RedisPort),
		})
		err = app.redisClient.Ping(ctx).Err()
		if err != nil {
			app.Close()
			return nil, errors.Wrap(err, "connecting to redis failed")
		}
		locker = NewRedisLocker(app.redisClient, time.Duration(configuration.ObservationLockSeconds)*time.Second)
	} else {
		log.Warn().Msg("no redis configured, concurrent observation uploads are not guarded")
	}

	if configuration.StatsDSN != "" {
		app.statsClient, err = NewStatsClient(configuration.StatsDSN, configuration.StatsRoot)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.Flowcells = NewFlowcellService(app.statsClient, statusRepository, bundleService, logger.With().Str("service", "flowcell").Logger())
	} else {
		log.Warn().Msg(MsgStatsNotConfigured)
	}

	app.Orders = NewOrderService(lims, ticketClient, statusRepository, logger.With().Str("service", "order").Logger())
	app.Transfers = NewTransferService(lims, statusRepository, logger.With().Str("service", "transfer").Logger())
	app.Observations = NewObservationService(statusRepository, bundleService, NewLoqusdbClient(configuration.Loqusdb), locker,
		logger.With().Str("service", "observation").Logger())
	app.Invoices = NewInvoiceService(statusRepository, lims, configuration.InvoiceFallbackCustomer, logger.With().Str("service", "invoice").Logger())
	app.Analyses = NewAnalysisService(statusRepository, bundleService, logger.With().Str("service", "analysis").Logger())

	return app, nil
}

// Migrate brings the status store schema up to date.
func (a *App) Migrate(ctx context.Context) error {
	sqlConn, err := a.postgres.GetDbConnection()
	if err != nil {
		return err
	}
	return migrator.NewMigrator().Run(ctx, sqlConn, a.Config.DBSchema)
}

func (a *App) RequireFlowcells() (FlowcellService, error) {
	if a.Flowcells == nil {
		return nil, ErrStatsNotConfigured
	}
	return a.Flowcells, nil
}

func (a *App) NewScheduler() (Scheduler, error) {
	return NewScheduler(a.ctx, a.Config.TransferSchedule, a.Transfers, a.Metrics, a.logger.With().Str("service", "scheduler").Logger())
}

func (a *App) NewAPI() GinApi {
	return NewAPI(&a.Config, a.authManager, a.Metrics, a.Orders, a.Transfers, a.Flowcells, a.Observations, a.Invoices, a.Analyses)
}

func (a *App) Close() {
	if a.statsClient != nil {
		if err := a.statsClient.Close(); err != nil {
			log.Error().Err(err).Msg("closing stats database failed")
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			log.Error().Err(err).Msg("closing redis failed")
		}
	}
	if a.postgres != nil {
		if err := a.postgres.Close(); err != nil {
			log.Error().Err(err).Msg("closing postgres failed")
		}
	}
}
