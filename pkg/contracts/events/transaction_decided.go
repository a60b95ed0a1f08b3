package events

// Evento emitido após criação/aprovação/rejeição de depósito ou saque.
type TransactionDecided struct {
	TransactionID string `json:"transaction_id"`
	UserID        string `json:"user_id"`
	Type          string `json:"type"`   // DEPOSIT | WITHDRAWAL
	Status        string `json:"status"` // PENDING | COMPLETED | REJECTED
	Amount        int64  `json:"amount"`
	Platform      string `json:"platform,omitempty"`
	AdminUser     string `json:"admin_user,omitempty"`
	TsUnixMs      int64  `json:"ts_unix_ms"`
}
