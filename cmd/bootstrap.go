package cmd

import (
	"context"
	"fmt"
	"log"

	"booking-engine/internal/data/repository"
	"booking-engine/internal/gateway"
	"booking-engine/internal/usecase"
	"booking-engine/internal/wire"
	"booking-engine/pkg/database"
	"booking-engine/pkg/mq"
	"booking-engine/pkg/obs"
	"booking-engine/pkg/utils"

	"go.uber.org/zap"
)

// runtime is everything a command needs, opened in dependency order and
// closed in reverse.
type runtime struct {
	config  *utils.Config
	logger  *zap.Logger
	db      database.PgxIface
	repo    *repository.Repository
	app     *wire.App
	closers []func()
}

func (rt *runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
}

// bootstrap loads config and opens the datastore. Commands that only touch
// the schema stop there; everything else also gets the wired services.
func bootstrap(ctx context.Context, withServices bool) (*runtime, error) {
	config, err := utils.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := utils.InitLogger(config.App)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}

	rt := &runtime{config: config, logger: logger}
	rt.closers = append(rt.closers, func() { _ = logger.Sync() })

	db, err := database.InitDB(config.Database)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("connect database: %w", err)
	}
	rt.db = db
	rt.closers = append(rt.closers, db.Close)
	logger.Info("Database connected successfully")

	if !withServices {
		return rt, nil
	}

	if err := rt.wire(ctx); err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

func (rt *runtime) wire(ctx context.Context) error {
	config, logger := rt.config, rt.logger

	shutdownTracer, err := obs.InitTracer(ctx, config.App.Name, config.Tracing)
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	rt.closers = append(rt.closers, func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Warn("Tracer shutdown failed", zap.Error(err))
		}
	})

	repo := repository.NewRepository(rt.db, logger)
	if config.Audit.Sink == "dynamodb" {
		ddb, err := database.InitDynamoDB(ctx, config.Audit)
		if err != nil {
			return fmt.Errorf("init dynamodb: %w", err)
		}
		repo.AuditLog = repository.NewDynamoAuditLogRepository(ddb, config.Audit.DynamoTable, logger)
		logger.Info("Audit log sink: dynamodb", zap.String("table", config.Audit.DynamoTable))
	}
	rt.repo = repo

	var publisher mq.EventPublisher = mq.NewNopPublisher(logger)
	if config.Broker.URL != "" {
		p, err := mq.NewPublisher(config.Broker.URL, config.Broker.Exchange)
		if err != nil {
			return fmt.Errorf("connect broker: %w", err)
		}
		publisher = p
		rt.closers = append(rt.closers, func() { _ = p.Close() })
		logger.Info("Event publisher connected", zap.String("exchange", config.Broker.Exchange))
	}

	gw, err := newGateway(config, logger)
	if err != nil {
		return err
	}

	refs, err := utils.NewReferenceGenerator(config.App.SnowflakeNode)
	if err != nil {
		return err
	}

	rt.app = wire.Wiring(repo, config, usecase.Deps{
		Gateway:    gw,
		Publisher:  publisher,
		References: refs,
	}, logger)
	return nil
}

func newGateway(config *utils.Config, logger *zap.Logger) (gateway.Gateway, error) {
	switch config.Gateway.Provider {
	case "mock":
		return gateway.NewMock(config.Gateway.SuccessURL, logger), nil
	case "mercadopago", "":
		gw, err := gateway.NewMercadoPago(config.Gateway.AccessToken, config.Gateway.NotificationURL, logger)
		if err != nil {
			return nil, fmt.Errorf("init payment gateway: %w", err)
		}
		return gw, nil
	default:
		return nil, fmt.Errorf("unknown payment gateway %q", config.Gateway.Provider)
	}
}
