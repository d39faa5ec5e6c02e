// Command ledger runs the ledger orchestrator: the deposit, P2P transfer,
// contribution, and interbank transfer sagas behind the inbound HTTP
// surface.
package main

import (
	"context"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/punchamoorthee/pixelmoney/internal/balanceclient"
	"github.com/punchamoorthee/pixelmoney/internal/config"
	"github.com/punchamoorthee/pixelmoney/internal/eventstore"
	"github.com/punchamoorthee/pixelmoney/internal/interbank"
	"github.com/punchamoorthee/pixelmoney/internal/ledgerapi"
	"github.com/punchamoorthee/pixelmoney/internal/ledgersvc"
	"github.com/punchamoorthee/pixelmoney/internal/logging"
	"github.com/punchamoorthee/pixelmoney/internal/recipient"
)

func main() {
	cfg, err := config.LoadLedger()
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
		logger.Fatal("event store connection failure", zap.Error(err))
	}
	defer db.Close()

	es := eventstore.NewPostgres(db, cfg.IdempotencyKeyTTL)
	if err := es.InitSchema(ctx); err != nil {
		logger.Fatal("event store schema init failure", zap.Error(err))
	}

	svc := ledgersvc.New(ledgersvc.Deps{
		EventStore:     es,
		Balance:        balanceclient.New(cfg.BalanceBaseURL, cfg.BalanceCallTimeout),
		Recipient:      recipient.New(cfg.RecipientBaseURL, cfg.RecipientCallTimeout),
		Interbank:      interbank.New(cfg.InterbankBaseURL, cfg.InterbankAPIKey, cfg.InterbankCallTimeout),
		Log:            logger,
		OriginBank:     cfg.OriginBank,
		SupportedBanks: cfg.SupportedBanks,
	})

	r := mux.NewRouter()
	ledgerapi.NewHandler(svc, logger).Register(r)

	logger.Sugar().Infof("ledger orchestrator listening on :%s", cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, r))
}
