// Package collectible wires the collectible ledger module: datastore, ledger, offer book and HTTP API.
package collectible

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/collectible-ledger/common/errs"
	"github.com/gaze-network/collectible-ledger/internal/config"
	"github.com/gaze-network/collectible-ledger/internal/postgres"
	"github.com/gaze-network/collectible-ledger/modules/collectible/api/httphandler"
	collectibleconfig "github.com/gaze-network/collectible-ledger/modules/collectible/config"
	"github.com/gaze-network/collectible-ledger/modules/collectible/datagateway"
	"github.com/gaze-network/collectible-ledger/modules/collectible/internal/entity"
	"github.com/gaze-network/collectible-ledger/modules/collectible/ledger"
	"github.com/gaze-network/collectible-ledger/modules/collectible/repository/memory"
	collectiblepostgres "github.com/gaze-network/collectible-ledger/modules/collectible/repository/postgres"
	"github.com/gaze-network/collectible-ledger/pkg/eventbus"
	"github.com/gaze-network/collectible-ledger/pkg/logger"
	"github.com/gaze-network/collectible-ledger/pkg/logger/slogx"
	"github.com/gofiber/fiber/v2"
	"github.com/samber/do/v2"
)

type Module struct {
	Ledger    *ledger.Ledger
	OfferBook *ledger.OfferBook

	cleanupFuncs []func(context.Context) error
}

// New builds the module from the injected configuration, deploys the ledger and mounts the HTTP API.
func New(injector do.Injector) (*Module, error) {
	ctx := do.MustInvoke[context.Context](injector)
	conf := do.MustInvoke[config.Config](injector)
	moduleConf := conf.Collectible

	ctx = logger.WithContext(ctx, slogx.String("module", "collectible"))

	module := &Module{}
	dg, err := module.newDataGateway(ctx, moduleConf)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	var opts []ledger.Option
	if conf.Events.Enabled {
		bus := do.MustInvoke[*eventbus.Bus](injector)
		opts = append(opts, ledger.WithPublisher(bus, conf.Events.Topic))
	}
	module.Ledger = ledger.New(dg, opts...)
	module.OfferBook = ledger.NewOfferBook(module.Ledger)

	admin, err := entity.NewAddress(moduleConf.Administrator)
	if err != nil {
		return nil, errors.Wrap(err, "invalid administrator address")
	}
	deployment, err := module.Ledger.Deploy(ctx, ledger.DeployParams{
		Administrator: admin,
		Name:          moduleConf.Name,
		Symbol:        moduleConf.Symbol,
		CID:           moduleConf.CID,
		ContractURI:   moduleConf.ContractURI,
	})
	if err != nil {
		return nil, errors.Wrap(err, "can't deploy ledger")
	}
	logger.InfoContext(ctx, "Ledger ready",
		slogx.String("name", deployment.Name),
		slogx.Stringer("administrator", deployment.Administrator),
		slogx.Uint64("token_count", deployment.IssuedCount),
	)

	httpServer := do.MustInvoke[*fiber.App](injector)
	if err := httphandler.New(module.Ledger, module.OfferBook).Mount(httpServer); err != nil {
		return nil, errors.Wrap(err, "can't mount collectible API")
	}
	logger.InfoContext(ctx, "Mounted HTTP handler")

	return module, nil
}

func (m *Module) newDataGateway(ctx context.Context, conf collectibleconfig.Config) (datagateway.CollectibleDataGateway, error) {
	switch strings.ToLower(conf.Datastore) {
	case "", collectibleconfig.DatastoreMemory:
		logger.WarnContext(ctx, "Using in-memory datastore, state is lost on shutdown")
		return memory.NewRepository(), nil
	case "postgresql", collectibleconfig.DatastorePostgres, "pg":
		pg, err := postgres.NewPool(ctx, conf.Postgres)
		if err != nil {
			if errors.Is(err, errs.InvalidArgument) {
				return nil, errors.Wrap(err, "Invalid Postgres configuration for collectible")
			}
			return nil, errors.Wrap(err, "can't create Postgres connection pool")
		}
		m.cleanupFuncs = append(m.cleanupFuncs, func(context.Context) error {
			pg.Close()
			return nil
		})
		return collectiblepostgres.NewRepository(pg), nil
	default:
		return nil, errors.Wrapf(errs.Unsupported, "%q datastore is not supported", conf.Datastore)
	}
}

// Shutdown releases the datastore. It is called by the injector on shutdown.
func (m *Module) Shutdown(ctx context.Context) error {
	var errList []error
	for _, cleanup := range m.cleanupFuncs {
		if err := cleanup(ctx); err != nil {
			errList = append(errList, err)
		}
	}
	return errors.WithStack(errors.Join(errList...))
}
