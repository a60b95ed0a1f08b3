package scheduler

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/lundebo/buddy-bets/internal/settlement/repo"
	"github.com/lundebo/buddy-bets/pkg/contracts/events"
)

var (
	runsTriggered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settlement_scheduler_runs_total",
		Help: "Rodadas de settlement disparadas pelo scheduler",
	})
	runsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_scheduler_skips_total",
		Help: "Ticks dentro da janela que não dispararam rodada",
	}, []string{"reason"})
)

// SnapshotCreator roda uma rodada de settlement e persiste o resultado.
type SnapshotCreator interface {
	CreateSnapshot(ctx context.Context) (*repo.Snapshot, error)
}

// Watermark expõe o horário da última rodada persistida.
type Watermark interface {
	LatestSnapshotTime(ctx context.Context) (time.Time, bool, error)
}

// SettlementPublisher notifica a criação do snapshot (best-effort).
type SettlementPublisher interface {
	PublishSettlementCreated(ctx context.Context, e events.SettlementCreated) error
}

// Locker é o subconjunto do client Redis usado pro lock de execução.
type Locker interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

// Scheduler dispara o settlement exatamente uma vez por janela semanal.
// Três guardas contra rodada dupla, na ordem:
//  1. watermark persistido (sobrevive a restart no meio da janela)
//  2. lock SetNX no Redis (exclusão mútua entre instâncias)
//  3. cooldown maior que a janela de detecção (debounce local)
type Scheduler struct {
	log       *zap.Logger
	window    Window
	poll      time.Duration
	cooldown  time.Duration
	lockName  string
	lockTTL   time.Duration
	locks     Locker
	snapshots SnapshotCreator
	watermark Watermark
	publ      SettlementPublisher

	now func() time.Time // injetável nos testes
}

func New(
	log *zap.Logger,
	window Window,
	poll, cooldown time.Duration,
	locks Locker,
	lockName string,
	lockTTL time.Duration,
	snapshots SnapshotCreator,
	watermark Watermark,
	publ SettlementPublisher,
) *Scheduler {
	return &Scheduler{
		log:       log,
		window:    window,
		poll:      poll,
		cooldown:  cooldown,
		lockName:  lockName,
		lockTTL:   lockTTL,
		locks:     locks,
		snapshots: snapshots,
		watermark: watermark,
		publ:      publ,
		now:       time.Now,
	}
}

// Run é o loop principal. Sai limpo quando o contexto é cancelado; o snapshot
// em si é um único INSERT atômico, então nunca fica rodada pela metade.
func (s *Scheduler) Run(ctx context.Context) {
	s.log.Info("settlement scheduler started",
		zap.String("weekday", s.window.Weekday.String()),
		zap.Int("hour", s.window.Hour),
		zap.Int("minute", s.window.Minute),
		zap.String("tz", s.window.Loc.String()),
	)

	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("settlement scheduler stopped")
			return
		case <-ticker.C:
			if s.tick(ctx) {
				// Cooldown maior que a janela pra não disparar de novo no mesmo minuto
				select {
				case <-ctx.Done():
				case <-time.After(s.cooldown):
				}
			}
		}
	}
}

// tick verifica a janela e, se for a hora, roda o settlement uma vez.
// Retorna true quando uma rodada foi executada (dispara o cooldown).
// Erros são logados e o loop segue pro próximo tick: uma rodada perdida não
// pode corromper a próxima.
func (s *Scheduler) tick(ctx context.Context) bool {
	now := s.now()
	if !s.window.Matches(now) {
		return false
	}

	// Guard 1: watermark persistido. Se já existe snapshot criado dentro
	// desta ocorrência da janela, a rodada já aconteceu (talvez em outra
	// instância, talvez antes de um restart).
	start := s.window.OccurrenceStart(now)
	last, ok, err := s.watermark.LatestSnapshotTime(ctx)
	if err != nil {
		s.log.Error("watermark read failed", zap.Error(err))
		return false
	}
	if ok && !last.Before(start.UTC()) {
		runsSkipped.WithLabelValues("watermark").Inc()
		return false
	}

	// Guard 2: lock de execução no Redis
	locked, err := s.locks.SetNX(ctx, s.lockName, now.UTC().Format(time.RFC3339), s.lockTTL).Result()
	if err != nil {
		// Sem Redis não dá pra garantir exclusão mútua; melhor pular o tick
		s.log.Error("settlement lock failed", zap.Error(err))
		return false
	}
	if !locked {
		runsSkipped.WithLabelValues("lock").Inc()
		return false
	}

	s.log.Info("running scheduled buddy settlement snapshot")
	snap, err := s.snapshots.CreateSnapshot(ctx)
	if err != nil {
		s.log.Error("scheduled settlement failed", zap.Error(err))
		return false
	}
	runsTriggered.Inc()

	// Notificação best-effort; falha não afeta o snapshot já persistido
	if err := s.publ.PublishSettlementCreated(ctx, events.SettlementCreated{
		SnapshotID:       snap.ID,
		UserCount:        snap.UserCount,
		TransactionCount: snap.TransactionCount,
		TotalVolume:      int64(snap.TotalVolume),
		CreatedAt:        snap.CreatedAt,
	}); err != nil {
		s.log.Warn("settlement notify failed", zap.Error(err))
	}

	return true
}
