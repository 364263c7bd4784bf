package main

import (
	"context"
	"log"
	"os"
	"runtime/debug"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flyroom/flyroom/modules/imports/domain/importing"
	"github.com/flyroom/flyroom/modules/imports/infrastructure/flybase"
	"github.com/flyroom/flyroom/modules/imports/infrastructure/session"
	"github.com/flyroom/flyroom/modules/imports/presentation/controllers"
	importservices "github.com/flyroom/flyroom/modules/imports/services"
	"github.com/flyroom/flyroom/modules/stocks/infrastructure/persistence"
	stockservices "github.com/flyroom/flyroom/modules/stocks/services"
	"github.com/flyroom/flyroom/pkg/application"
	"github.com/flyroom/flyroom/pkg/configuration"
	"github.com/flyroom/flyroom/pkg/metrics"
	"github.com/flyroom/flyroom/pkg/middleware"
	"github.com/flyroom/flyroom/pkg/server"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			log.Println(r)
			debug.PrintStack()
			os.Exit(1)
		}
	}()

	conf := configuration.Use()
	logger := conf.Logger()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	pool, err := pgxpool.New(ctx, conf.Database.ConnectionString())
	if err != nil {
		panic(err)
	}
	defer pool.Close()

	app := application.New(conf, pool)
	app.RegisterMiddleware(
		middleware.RequestLogger(logger),
		middleware.Metrics(),
		middleware.ProvidePool(pool),
		middleware.ProvideIdentity(),
	)

	catalog := flybase.NewOfflineCatalog()
	if conf.FlyBase.OfflineMode {
		logger.WithField("stocks", catalog.Len()).Info("FlyBase lookups running in offline mode")
	} else {
		catalog = flybase.NewCatalog()
		loader := flybase.NewLoader(conf.FlyBase.BaseURL, conf.FlyBase.Timeout, logger)
		// The dump is large; load in the background so startup is not
		// blocked. Lookups against an empty catalog simply miss.
		go func() {
			count, err := loader.Load(context.Background(), catalog)
			if err != nil {
				logger.WithError(err).Warn("FlyBase catalog load failed, repository lookups will miss")
				return
			}
			logger.WithFields(map[string]interface{}{
				"stocks":  count,
				"version": catalog.DataVersion(),
			}).Info("FlyBase catalog loaded")
		}()
	}

	stockService := stockservices.NewStockService(persistence.NewStockRepository(), app.EventPublisher())
	importService := importservices.NewImportService(
		stockService,
		persistence.NewTagRepository(),
		persistence.NewTrayRepository(),
		catalog,
		session.NewStore(conf.Import.SessionTTL),
		importing.NewDetector(conf.Import.EnableLLM),
		app.EventPublisher(),
		conf.Import.StockIDPrefix,
	)

	app.RegisterControllers(
		controllers.NewImportController(importService, conf.Import.MaxFileBytes),
	)
	if conf.Prometheus.Enabled {
		app.RegisterControllers(metrics.NewScrapeController(conf.Prometheus.Path))
	}

	logger.WithField("address", conf.SocketAddress).Info("starting server")
	if err := server.NewHTTPServer(app).Start(conf.SocketAddress); err != nil {
		log.Fatal(err)
	}
}
