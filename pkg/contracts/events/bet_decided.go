package events

// Evento emitido após cada transição administrativa de uma aposta.
type BetDecided struct {
	BetID     string  `json:"bet_id"`
	UserID    string  `json:"user_id"`
	Status    string  `json:"status"` // APPROVED | REJECTED | CANCELLED | WON | LOST | VOID
	Stake     int64   `json:"stake"`
	Odds      float64 `json:"odds"`
	Payout    int64   `json:"payout,omitempty"` // só para WON
	AdminUser string  `json:"admin_user,omitempty"`
	TsUnixMs  int64   `json:"ts_unix_ms"`
}
