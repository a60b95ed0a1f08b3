package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/lundebo/buddy-bets/internal/ledger/money"
	"github.com/lundebo/buddy-bets/internal/ledger/producer"
	lrepo "github.com/lundebo/buddy-bets/internal/ledger/repo"
	srepo "github.com/lundebo/buddy-bets/internal/settlement/repo"
	"github.com/lundebo/buddy-bets/internal/settlement/scheduler"
	"github.com/lundebo/buddy-bets/internal/settlement/snapshot"
	"github.com/lundebo/buddy-bets/internal/shared/cache"
	"github.com/lundebo/buddy-bets/internal/shared/config"
	"github.com/lundebo/buddy-bets/internal/shared/db"
	"github.com/lundebo/buddy-bets/internal/shared/kafka"
	"github.com/lundebo/buddy-bets/internal/shared/logger"
	"github.com/lundebo/buddy-bets/internal/shared/metrics"
)

func main() {
	cfg := config.Load()

	log, err := logger.New("settlement-worker", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("starting service", zap.String("service", "settlement-worker"), zap.String("env", cfg.Env))

	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	// Redis: lock de exclusão mútua entre instâncias do worker
	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer rdb.Close()

	tz, err := time.LoadLocation(cfg.SettlementTimezone)
	if err != nil {
		log.Fatal("load timezone", zap.String("tz", cfg.SettlementTimezone), zap.Error(err))
	}

	settlementWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicSettlementCreated)
	defer settlementWriter.Close()
	reminderWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicPendingBetsReminder)
	defer reminderWriter.Close()

	publ := &producer.Publisher{
		SettlementWriter: settlementWriter,
		ReminderWriter:   reminderWriter,
	}

	snapStore := srepo.NewPostgres(pg)
	settle := snapshot.NewService(log, snapStore)
	ledger := lrepo.NewPostgres(pg, lrepo.Limits{
		MinBetAmount: money.Amount(cfg.MinBetAmount),
		MaxPayout:    money.Amount(cfg.MaxPayout),
	})

	sched := scheduler.New(
		log,
		scheduler.Window{
			Weekday: cfg.SettlementWeekday,
			Hour:    cfg.SettlementHour,
			Minute:  cfg.SettlementMinute,
			Loc:     tz,
		},
		cfg.SchedulerPoll,
		cfg.SchedulerCooldown,
		rdb,
		cfg.SettlementLockName,
		cfg.SettlementLockTTL,
		settle,
		snapStore,
		publ,
	)

	// Servidor de métricas e health check (Postgres + Redis)
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return err
		}
		return rdb.Ping(ctx).Err()
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Lembrete periódico de apostas pendentes (best-effort)
	go scheduler.RunPendingBetsReminder(ctx, log, cfg.PendingBetsPeriod, ledger, publ)

	// Loop principal: bloqueia até o shutdown
	sched.Run(ctx)
}
