package events

import "time"

// Evento publicado quando um snapshot de settlement é persistido.
type SettlementCreated struct {
	SnapshotID       string    `json:"snapshot_id"`
	UserCount        int       `json:"user_count"`
	TransactionCount int       `json:"transaction_count"`
	TotalVolume      int64     `json:"total_volume"`
	CreatedAt        time.Time `json:"created_at"`
}

// Lembrete periódico de apostas ainda aguardando decisão do admin.
type PendingBetsReminder struct {
	PendingCount int       `json:"pending_count"`
	OldestBetID  string    `json:"oldest_bet_id,omitempty"`
	Ts           time.Time `json:"ts"`
}
