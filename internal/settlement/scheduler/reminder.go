package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/lundebo/buddy-bets/pkg/contracts/events"
)

// PendingCounter conta apostas paradas em PENDING.
type PendingCounter interface {
	CountPendingBets(ctx context.Context) (count int, oldestID string, err error)
}

// ReminderPublisher envia o lembrete pro canal do notificador.
type ReminderPublisher interface {
	PublishPendingBetsReminder(ctx context.Context, e events.PendingBetsReminder) error
}

// RunPendingBetsReminder avisa periodicamente o notificador externo sobre
// apostas aguardando decisão do admin. Espera o primeiro tick pra não
// spammar a cada restart.
func RunPendingBetsReminder(ctx context.Context, log *zap.Logger, period time.Duration, counter PendingCounter, publ ReminderPublisher) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			count, oldest, err := counter.CountPendingBets(ctx)
			if err != nil {
				log.Error("pending bets count failed", zap.Error(err))
				continue
			}
			if count == 0 {
				continue
			}
			if err := publ.PublishPendingBetsReminder(ctx, events.PendingBetsReminder{
				PendingCount: count,
				OldestBetID:  oldest,
				Ts:           time.Now().UTC(),
			}); err != nil {
				log.Warn("pending bets reminder publish failed", zap.Error(err))
			}
		}
	}
}
