// Command server runs the foundry service: the blueprint catalog, the
// deploy engine, the vesting instances, and the ledger behind them, exposed
// over one HTTP API. Main wires configuration into stores, services, and
// handlers; business logic lives in the internal packages.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	assethandler "foundry/internal/asset/handler"
	assetmetrics "foundry/internal/asset/metrics"
	assetservice "foundry/internal/asset/service"
	assetstore "foundry/internal/asset/store"
	"foundry/internal/audit"
	auditmemory "foundry/internal/audit/store/memory"
	auditpostgres "foundry/internal/audit/store/postgres"
	"foundry/internal/blueprint"
	factoryhandler "foundry/internal/factory/handler"
	factorymetrics "foundry/internal/factory/metrics"
	factoryservice "foundry/internal/factory/service"
	factorystore "foundry/internal/factory/store"
	httpapi "foundry/internal/http"
	"foundry/internal/platform/config"
	"foundry/internal/platform/httpserver"
	"foundry/internal/platform/kafka"
	kafkaconsumer "foundry/internal/platform/kafka/consumer"
	kafkaproducer "foundry/internal/platform/kafka/producer"
	"foundry/internal/platform/logger"
	platformmetrics "foundry/internal/platform/metrics"
	platformpostgres "foundry/internal/platform/postgres"
	platformredis "foundry/internal/platform/redis"
	registryhandler "foundry/internal/registry/handler"
	registrymetrics "foundry/internal/registry/metrics"
	registryservice "foundry/internal/registry/service"
	registrystore "foundry/internal/registry/store"
	"foundry/internal/token"
	tokenhandler "foundry/internal/token/handler"
	"foundry/internal/vesting"
	vestinghandler "foundry/internal/vesting/handler"
	vestingmetrics "foundry/internal/vesting/metrics"
	vestingservice "foundry/internal/vesting/service"
	vestingstore "foundry/internal/vesting/store"
	id "foundry/pkg/domain"
	paudit "foundry/pkg/platform/audit"
	auditconsumer "foundry/pkg/platform/audit/consumer"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.Server.LogLevel)
	slog.SetDefault(log)

	var readyChecks []httpapi.ReadyCheck

	// Backends. Nothing here is mandatory: without Postgres the stores run
	// in memory, without Redis the catalog cache is skipped, without Kafka
	// audit events stop at the store.
	var (
		auditStore audit.Store
		registrySt registryservice.Store
		vestingSt  vestingservice.Store
		factorySt  factoryservice.Store
		ledgerSt   assetservice.Store
	)
	if cfg.Postgres.Enabled() {
		db, err := platformpostgres.Open(ctx, cfg.Postgres)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		pool, err := platformpostgres.OpenPool(ctx, cfg.Postgres)
		if err != nil {
			return err
		}
		defer pool.Close()

		pgAudit := auditpostgres.New(db)
		pgRegistry := registrystore.NewPostgres(db)
		pgVesting := vestingstore.NewPostgres(db)
		pgFactory := factorystore.NewPostgres(db)
		pgLedger := assetstore.NewPostgresLedgerStore(pool)
		if err := ensureSchemas(ctx, pgAudit, pgRegistry, pgVesting, pgFactory, pgLedger); err != nil {
			return fmt.Errorf("failed to ensure postgres schema: %w", err)
		}

		auditStore = pgAudit
		registrySt = pgRegistry
		vestingSt = pgVesting
		factorySt = pgFactory
		ledgerSt = pgLedger
		readyChecks = append(readyChecks, httpapi.ReadyCheck{Name: "postgres", Check: db.PingContext})
	} else {
		auditStore = auditmemory.New()
		registrySt = registrystore.NewInMemoryStore()
		vestingSt = vestingstore.NewInMemoryStore()
		factorySt = factorystore.NewInMemoryStore()
		ledgerSt = assetstore.NewInMemoryLedgerStore()
		log.Warn("postgres not configured, state is in-memory and lost on restart")
	}

	regMetrics := registrymetrics.New()
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
		registrySt = registrystore.NewCachedStore(registrySt, redisClient.Client, cfg.Registry.CacheTTL, log, regMetrics)
		readyChecks = append(readyChecks, httpapi.ReadyCheck{Name: "redis", Check: redisClient.Health})
	}

	// Audit pipeline: domain services emit into the buffered publisher, the
	// worker drains it into the store and, when configured, onto Kafka.
	auditMetrics := audit.NewMetrics()
	publisher := audit.NewPublisher(0,
		audit.WithPublisherLogger(log),
		audit.WithPublisherMetrics(auditMetrics),
	)
	workerOpts := []audit.WorkerOption{
		audit.WithWorkerLogger(log),
		audit.WithWorkerMetrics(auditMetrics),
	}
	if cfg.Kafka.Enabled() {
		if err := kafka.EnsureTopic(ctx, cfg.Kafka.Brokers, cfg.Kafka.AuditTopic, 3, 1); err != nil {
			return fmt.Errorf("ensure audit topic: %w", err)
		}
		producer, err := kafkaproducer.New(cfg.Kafka.Brokers, log)
		if err != nil {
			return err
		}
		defer producer.Close()
		workerOpts = append(workerOpts, audit.WithStream(producer, cfg.Kafka.AuditTopic))
	}
	worker := audit.NewWorker(auditStore, publisher.Events(), workerOpts...)

	// Services. The blueprint host must know the vesting kind before the
	// registry will accept registrations for it.
	ledger, err := assetservice.New(ledgerSt,
		assetservice.WithLogger(log),
		assetservice.WithAuditPublisher(publisher),
		assetservice.WithMetrics(assetmetrics.New()),
	)
	if err != nil {
		return err
	}

	vestingSvc, err := vestingservice.New(vestingSt, ledger,
		vestingservice.WithLogger(log),
		vestingservice.WithAuditPublisher(publisher),
		vestingservice.WithMetrics(vestingmetrics.New()),
	)
	if err != nil {
		return err
	}

	host := blueprint.NewHost()
	if err := host.Register(blueprint.KindVesting, vesting.NewBlueprintFactory(vestingSvc)); err != nil {
		return err
	}

	registrySvc, err := registryservice.New(registrySt, host,
		registryservice.WithLogger(log),
		registryservice.WithAuditPublisher(publisher),
		registryservice.WithMetrics(regMetrics),
	)
	if err != nil {
		return err
	}

	accounts, err := resolveAccounts(cfg, log)
	if err != nil {
		return err
	}
	factorySvc, err := factoryservice.New(factorySt, registrySvc, host, ledger, accounts,
		factoryservice.WithLogger(log),
		factoryservice.WithAuditPublisher(publisher),
		factoryservice.WithMetrics(factorymetrics.New()),
	)
	if err != nil {
		return err
	}

	tokenSvc, err := token.NewService(
		cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer, cfg.Auth.JWTAudience, cfg.Auth.TokenTTL,
		token.WithLogger(log),
		token.WithAuditPublisher(publisher),
	)
	if err != nil {
		return err
	}

	router := httpapi.New(httpapi.Deps{
		Logger:         log,
		Metrics:        platformmetrics.NewHTTP(),
		Validator:      token.NewValidatorAdapter(tokenSvc),
		AdminToken:     cfg.Auth.AdminToken,
		AdminTokenHash: cfg.Auth.AdminTokenHash,
		Registry:       registryhandler.New(registrySvc, log),
		Factory:        factoryhandler.New(factorySvc, log),
		Vesting:        vestinghandler.New(vestingSvc, log),
		Assets:         assethandler.New(ledger, log),
		Tokens:         tokenhandler.New(tokenSvc, log),
		ReadyChecks:    readyChecks,
	})
	srv := httpserver.New(cfg.Server.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return worker.Run(ctx)
	})
	g.Go(func() error {
		log.Info("starting foundry", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		return httpserver.Shutdown(srv, cfg.Server.ShutdownTimeout)
	})
	if cfg.Kafka.Enabled() {
		eventRouter := auditconsumer.NewRouter(log, auditconsumer.NewMetricsHandler())
		eventRouter.Register(paudit.EventTokenIssued, auditconsumer.NewSecurityAlertHandler(log))
		consumer, err := kafkaconsumer.New(cfg.Kafka.Brokers, cfg.Kafka.ConsumerGroup,
			[]string{cfg.Kafka.AuditTopic}, eventRouter, log)
		if err != nil {
			return err
		}
		g.Go(func() error {
			return consumer.Run(ctx)
		})
	}

	return g.Wait()
}

// schemaStore is any store that can create its own tables.
type schemaStore interface {
	EnsureSchema(ctx context.Context) error
}

// ensureSchemas runs every store's schema creation before the server starts
// taking requests. Each EnsureSchema is idempotent, so restarts are safe.
func ensureSchemas(ctx context.Context, stores ...schemaStore) error {
	for _, store := range stores {
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
	}
	return nil
}

// resolveAccounts loads the fee token and settlement accounts, generating
// fresh development values for anything left unset. Generated accounts are
// logged so operators can mint against them.
func resolveAccounts(cfg *config.Config, log *slog.Logger) (factoryservice.Accounts, error) {
	var accounts factoryservice.Accounts
	var err error

	if cfg.Factory.FeeToken != "" {
		accounts.FeeToken, err = id.ParseTokenID(cfg.Factory.FeeToken)
		if err != nil {
			return accounts, fmt.Errorf("FOUNDRY_FEE_TOKEN: %w", err)
		}
	} else {
		accounts.FeeToken = id.NewTokenID()
		log.Warn("FOUNDRY_FEE_TOKEN not set, generated one", "fee_token", accounts.FeeToken.String())
	}

	if cfg.Factory.EscrowAccount != "" {
		accounts.Escrow, err = id.ParseAccountID(cfg.Factory.EscrowAccount)
		if err != nil {
			return accounts, fmt.Errorf("FOUNDRY_ESCROW_ACCOUNT: %w", err)
		}
	} else {
		accounts.Escrow = id.NewAccountID()
		log.Warn("FOUNDRY_ESCROW_ACCOUNT not set, generated one", "escrow_account", accounts.Escrow.String())
	}

	if cfg.Auth.AdminAccount != "" {
		accounts.Admin, err = id.ParseAccountID(cfg.Auth.AdminAccount)
		if err != nil {
			return accounts, fmt.Errorf("FOUNDRY_ADMIN_ACCOUNT: %w", err)
		}
	} else {
		accounts.Admin = id.NewAccountID()
		log.Warn("FOUNDRY_ADMIN_ACCOUNT not set, generated one", "admin_account", accounts.Admin.String())
	}

	return accounts, nil
}
