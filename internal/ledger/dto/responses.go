package dto

import "time"

type BetResponse struct {
	BetID           string  `json:"betId"`
	UserID          string  `json:"userId"`
	Status          string  `json:"status"`
	Stake           *int64  `json:"stake,omitempty"`
	Odds            float64 `json:"odds,omitempty"`
	PotentialPayout int64   `json:"potential_payout"`
}

type TransactionResponse struct {
	TransactionID string `json:"transactionId"`
	Status        string `json:"status"`
}

type BalanceResponse struct {
	UserID  string `json:"userId"`
	Balance int64  `json:"balance"`
}

type SnapshotResponse struct {
	SnapshotID       string    `json:"snapshotId"`
	CreatedAt        time.Time `json:"created_at"`
	UserCount        int       `json:"user_count"`
	TransactionCount int       `json:"transaction_count"`
	TotalVolume      int64     `json:"total_volume"`
}
