package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	lhttp "github.com/lundebo/buddy-bets/internal/ledger/http"
	"github.com/lundebo/buddy-bets/internal/ledger/money"
	"github.com/lundebo/buddy-bets/internal/ledger/producer"
	lrepo "github.com/lundebo/buddy-bets/internal/ledger/repo"
	srepo "github.com/lundebo/buddy-bets/internal/settlement/repo"
	"github.com/lundebo/buddy-bets/internal/settlement/snapshot"
	"github.com/lundebo/buddy-bets/internal/shared/config"
	"github.com/lundebo/buddy-bets/internal/shared/db"
	"github.com/lundebo/buddy-bets/internal/shared/kafka"
	"github.com/lundebo/buddy-bets/internal/shared/logger"
	"github.com/lundebo/buddy-bets/internal/shared/metrics"
)

func main() {
	cfg := config.Load()

	// Inicializa logger estruturado
	log, err := logger.New("ledger-service", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("starting service", zap.String("service", "ledger-service"), zap.String("env", cfg.Env))

	// Conexão com Postgres: apostas, transações, saldos, auditoria e snapshots
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	// Fuso usado no export e na exibição do horário do snapshot
	exportTZ, err := time.LoadLocation(cfg.SettlementTimezone)
	if err != nil {
		log.Fatal("load timezone", zap.String("tz", cfg.SettlementTimezone), zap.Error(err))
	}

	// Kafka producers: notificações fire-and-forget pós-transição
	betWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetDecided)
	defer betWriter.Close()
	txnWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicTransactionDecided)
	defer txnWriter.Close()
	settlementWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicSettlementCreated)
	defer settlementWriter.Close()

	publ := &producer.Publisher{
		BetWriter:        betWriter,
		TxnWriter:        txnWriter,
		SettlementWriter: settlementWriter,
	}

	// Repositórios e serviços
	ledger := lrepo.NewPostgres(pg, lrepo.Limits{
		MinBetAmount: money.Amount(cfg.MinBetAmount),
		MaxPayout:    money.Amount(cfg.MaxPayout),
	})
	snapStore := srepo.NewPostgres(pg)
	settle := snapshot.NewService(log, snapStore)

	api := lhttp.NewServer(log, ledger, settle, snapStore, publ, exportTZ)

	// Servidor de métricas e health check
	metrics.StartMetricsServer(cfg.MetricsPort, pg.PingContext)

	apiSrv := &http.Server{
		Addr:    ":" + cfg.HTTPPort, // ex: 8084
		Handler: api.Router(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("api listening", zap.String("addr", apiSrv.Addr))
		if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("api srv", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = apiSrv.Shutdown(shutdownCtx)
}
