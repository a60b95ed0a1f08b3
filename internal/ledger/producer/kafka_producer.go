package producer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/lundebo/buddy-bets/pkg/contracts/events"
)

// Publisher envia os eventos pós-transição pro notificador externo.
// Entrega é best-effort: falha aqui nunca desfaz a mutação do ledger.
type Publisher struct {
	BetWriter        *kafka.Writer
	TxnWriter        *kafka.Writer
	SettlementWriter *kafka.Writer
	ReminderWriter   *kafka.Writer
}

func (p *Publisher) PublishBetDecided(ctx context.Context, e events.BetDecided) error {
	e.TsUnixMs = time.Now().UnixMilli()
	b, _ := json.Marshal(e)
	return p.BetWriter.WriteMessages(ctx, kafka.Message{Key: []byte(e.BetID), Value: b})
}

func (p *Publisher) PublishTransactionDecided(ctx context.Context, e events.TransactionDecided) error {
	e.TsUnixMs = time.Now().UnixMilli()
	b, _ := json.Marshal(e)
	return p.TxnWriter.WriteMessages(ctx, kafka.Message{Key: []byte(e.TransactionID), Value: b})
}

func (p *Publisher) PublishSettlementCreated(ctx context.Context, e events.SettlementCreated) error {
	b, _ := json.Marshal(e)
	return p.SettlementWriter.WriteMessages(ctx, kafka.Message{Key: []byte(e.SnapshotID), Value: b})
}

func (p *Publisher) PublishPendingBetsReminder(ctx context.Context, e events.PendingBetsReminder) error {
	b, _ := json.Marshal(e)
	return p.ReminderWriter.WriteMessages(ctx, kafka.Message{Value: b})
}
