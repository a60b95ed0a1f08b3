package repo

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lundebo/buddy-bets/internal/ledger/money"
)

func TestBetStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to BetStatus
		ok       bool
	}{
		{BetPending, BetApproved, true},
		{BetPending, BetRejected, true},
		{BetPending, BetCancelled, true},
		{BetPending, BetWon, false},
		{BetPending, BetLost, false},
		{BetApproved, BetWon, true},
		{BetApproved, BetLost, true},
		{BetApproved, BetVoid, true},
		{BetApproved, BetRejected, false},
		{BetApproved, BetCancelled, false},
		// estados terminais não transicionam pra lugar nenhum
		{BetWon, BetLost, false},
		{BetWon, BetWon, false},
		{BetLost, BetVoid, false},
		{BetVoid, BetApproved, false},
		{BetRejected, BetApproved, false},
		{BetCancelled, BetPending, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.ok, c.from.CanTransition(c.to), "%s -> %s", c.from, c.to)
	}
}

func TestBetStatusTerminal(t *testing.T) {
	assert.False(t, BetPending.Terminal())
	assert.False(t, BetApproved.Terminal())
	for _, s := range []BetStatus{BetWon, BetLost, BetVoid, BetRejected, BetCancelled} {
		assert.True(t, s.Terminal(), string(s))
	}
}

func TestLedgerDelta(t *testing.T) {
	stake := money.Amount(333)
	b := &Bet{Stake: &stake, Odds: 2.5}

	// WON: floor(333*2.5) - 333 = 499
	assert.Equal(t, money.Amount(499), b.ledgerDelta(BetWon))
	// LOST: -stake
	assert.Equal(t, money.Amount(-333), b.ledgerDelta(BetLost))
	// VOID: sem efeito, o stake nunca saiu do saldo
	assert.Equal(t, money.Amount(0), b.ledgerDelta(BetVoid))
}

func TestPotentialPayoutWithoutStake(t *testing.T) {
	b := &Bet{Odds: 3.0}
	assert.Equal(t, money.Amount(0), b.PotentialPayout())
	assert.Equal(t, money.Amount(0), b.ledgerDelta(BetWon))
}

func TestTxnStatusTerminal(t *testing.T) {
	assert.False(t, TxnPending.Terminal())
	assert.True(t, TxnCompleted.Terminal())
	assert.True(t, TxnRejected.Terminal())
}
