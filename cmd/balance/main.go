// Command balance runs the balance authority: owner of every individual
// and group balance row, reached by the ledger orchestrator exclusively
// over HTTP.
package main

import (
	"context"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/punchamoorthee/pixelmoney/internal/balance"
	"github.com/punchamoorthee/pixelmoney/internal/config"
	"github.com/punchamoorthee/pixelmoney/internal/logging"
)

func main() {
	cfg, err := config.LoadBalance()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	db, err := pgxpool.New(ctx, cfg.DBSource)
	if err != nil {
		logger.Fatal("balance store connection failure", zap.Error(err))
	}
	defer db.Close()

	store := balance.NewStore(db)
	if err := store.InitSchema(ctx); err != nil {
		logger.Fatal("balance store schema init failure", zap.Error(err))
	}

	r := mux.NewRouter()
	balance.NewHandler(store, logger).Register(r)

	logger.Sugar().Infof("balance authority listening on :%s", cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, r))
}
