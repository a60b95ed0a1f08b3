package repo

import (
	"time"

	"github.com/lundebo/buddy-bets/internal/ledger/money"
)

// BetStatus é o ciclo de vida completo de uma aposta. O status é a única
// fonte de verdade: o desfecho (ganhou/perdeu/anulada) faz parte do status.
type BetStatus string

const (
	BetPending   BetStatus = "PENDING"
	BetApproved  BetStatus = "APPROVED"
	BetWon       BetStatus = "WON"
	BetLost      BetStatus = "LOST"
	BetVoid      BetStatus = "VOID"
	BetRejected  BetStatus = "REJECTED"
	BetCancelled BetStatus = "CANCELLED"
)

// Terminal indica se o status encerra o ciclo de vida da aposta.
func (s BetStatus) Terminal() bool {
	return s != BetPending && s != BetApproved
}

// Outcome indica se o status é um desfecho de resolução (aplicável só a APPROVED).
func (s BetStatus) Outcome() bool {
	return s == BetWon || s == BetLost || s == BetVoid
}

// CanTransition valida a máquina de estados:
// PENDING -> APPROVED | REJECTED | CANCELLED
// APPROVED -> WON | LOST | VOID
func (s BetStatus) CanTransition(to BetStatus) bool {
	switch s {
	case BetPending:
		return to == BetApproved || to == BetRejected || to == BetCancelled
	case BetApproved:
		return to.Outcome()
	default:
		return false
	}
}

// Bet é o modelo persistido no Postgres.
// Stake pode ficar nulo até o admin completar a aposta na aprovação.
type Bet struct {
	ID        string
	UserID    string
	Stake     *money.Amount
	Odds      float64
	Status    BetStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PotentialPayout retorna floor(stake * odds); zero enquanto o stake não foi definido.
func (b *Bet) PotentialPayout() money.Amount {
	if b.Stake == nil {
		return 0
	}
	return money.PotentialPayout(*b.Stake, b.Odds)
}

// ledgerDelta calcula o efeito líquido da resolução sobre o saldo do dono.
// WON: +payout - stake; LOST: -stake; VOID: 0 (o stake nunca saiu do saldo).
func (b *Bet) ledgerDelta(outcome BetStatus) money.Amount {
	if b.Stake == nil {
		return 0
	}
	switch outcome {
	case BetWon:
		return money.NetGain(*b.Stake, b.Odds)
	case BetLost:
		return -*b.Stake
	default:
		return 0
	}
}

type TxnType string

const (
	TxnDeposit    TxnType = "DEPOSIT"
	TxnWithdrawal TxnType = "WITHDRAWAL"
)

type TxnStatus string

const (
	TxnPending   TxnStatus = "PENDING"
	TxnCompleted TxnStatus = "COMPLETED"
	TxnRejected  TxnStatus = "REJECTED"
)

func (s TxnStatus) Terminal() bool { return s != TxnPending }

// Transaction é um pedido de depósito ou saque.
type Transaction struct {
	ID            string
	UserID        string
	Type          TxnType
	Amount        money.Amount
	Platform      string // ex: "Vipps", "bank"
	PaymentDetail string
	Status        TxnStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// UserBalance é a posição líquida de um usuário dentro do grupo.
type UserBalance struct {
	UserID  string
	Balance money.Amount
	Version int64
}

// AuditEntry registra quem fez o quê em cada decisão administrativa.
type AuditEntry struct {
	ID         int64
	Timestamp  time.Time
	AdminUser  string
	Action     string
	TargetUser string
	Details    string
}
