package dto

type SubmitBetRequest struct {
	UserID string `json:"userId"`
	Stake  *int64 `json:"stake,omitempty"` // opcional; admin completa na aprovação
	Odds   float64 `json:"odds,omitempty"`
}

type ApproveBetRequest struct {
	BetID     string   `json:"betId"`
	AdminUser string   `json:"admin_user"`
	Stake     *int64   `json:"stake,omitempty"` // completa a aposta se veio sem valor
	Odds      *float64 `json:"odds,omitempty"`
}

type RejectBetRequest struct {
	BetID     string `json:"betId"`
	AdminUser string `json:"admin_user"`
}

type CancelBetRequest struct {
	BetID string `json:"betId"`
}

type ResolveBetRequest struct {
	BetID     string `json:"betId"`
	Outcome   string `json:"outcome"` // WON | LOST | VOID
	AdminUser string `json:"admin_user"`
}

type WithdrawalRequest struct {
	UserID        string `json:"userId"`
	Amount        int64  `json:"amount"`
	Platform      string `json:"platform"` // ex: "Vipps"
	PaymentDetail string `json:"payment_detail,omitempty"`
}

type DepositRequest struct {
	UserID        string `json:"userId"`
	Amount        int64  `json:"amount"`
	Platform      string `json:"platform"`
	PaymentDetail string `json:"payment_detail,omitempty"`
	AdminUser     string `json:"admin_user"`
	Completed     bool   `json:"completed"` // true credita na hora
}

type DecideTransactionRequest struct {
	TransactionID string `json:"transactionId"`
	AdminUser     string `json:"admin_user"`
}

type AdjustBalanceRequest struct {
	UserID    string `json:"userId"`
	Delta     int64  `json:"delta"`
	AdminUser string `json:"admin_user"`
	Reason    string `json:"reason"`
}
