package snapshot

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/lundebo/buddy-bets/internal/settlement/engine"
	"github.com/lundebo/buddy-bets/internal/settlement/repo"
)

var (
	snapshotsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settlement_snapshots_created_total",
		Help: "Snapshots de settlement persistidos",
	})
	adjustmentsEmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settlement_adjustments_total",
		Help: "Ajustes emitidos por desequilíbrio na soma dos saldos",
	})
)

// Store é o que o serviço de snapshot precisa da camada de persistência.
type Store interface {
	NonZeroBalances(ctx context.Context) ([]engine.Balance, error)
	InsertSnapshot(ctx context.Context, s *repo.Snapshot) error
}

// Service cria snapshots de settlement. Leitura pura contra o ledger: nenhum
// saldo é alterado aqui, só instruções de pagamento são produzidas pra
// execução manual fora do sistema.
type Service struct {
	log   *zap.Logger
	store Store
}

func NewService(log *zap.Logger, store Store) *Service {
	return &Service{log: log, store: store}
}

// CreateSnapshot lê os saldos, roda o netting e persiste o resultado como
// registro imutável. Chamadas repetidas geram snapshots novos e independentes;
// quem evita rodada duplicada é o scheduler, não o engine.
func (s *Service) CreateSnapshot(ctx context.Context) (*repo.Snapshot, error) {
	balances, err := s.store.NonZeroBalances(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	result := engine.Net(balances, now)

	payload, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}

	snap := &repo.Snapshot{
		ID:               uuid.NewString(),
		CreatedAt:        now,
		SettlementJSON:   string(payload),
		UserCount:        len(balances),
		TransactionCount: len(result.Instructions),
		TotalVolume:      result.TotalVolume(),
	}

	if err := s.store.InsertSnapshot(ctx, snap); err != nil {
		return nil, err
	}

	snapshotsCreated.Inc()
	adjustmentsEmitted.Add(float64(len(result.Adjustments)))

	if len(result.Adjustments) > 0 {
		// Soma dos saldos não fechou em zero: o plano sai mesmo assim,
		// com a discrepância sinalizada como ajuste
		s.log.Warn("settlement produced adjustments",
			zap.String("snapshotId", snap.ID),
			zap.Int("adjustments", len(result.Adjustments)),
		)
	}

	s.log.Info("settlement snapshot created",
		zap.String("snapshotId", snap.ID),
		zap.Int("users", snap.UserCount),
		zap.Int("instructions", snap.TransactionCount),
		zap.Int64("totalVolume", int64(snap.TotalVolume)),
	)

	return snap, nil
}
