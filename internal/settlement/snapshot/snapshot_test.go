package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lundebo/buddy-bets/internal/ledger/money"
	"github.com/lundebo/buddy-bets/internal/settlement/engine"
	"github.com/lundebo/buddy-bets/internal/settlement/repo"
)

type fakeStore struct {
	balances  []engine.Balance
	readErr   error
	insertErr error
	inserted  []*repo.Snapshot
}

func (f *fakeStore) NonZeroBalances(ctx context.Context) ([]engine.Balance, error) {
	return f.balances, f.readErr
}

func (f *fakeStore) InsertSnapshot(ctx context.Context, s *repo.Snapshot) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, s)
	return nil
}

func TestCreateSnapshot(t *testing.T) {
	store := &fakeStore{balances: []engine.Balance{
		{UserID: "anna", Amount: -300},
		{UserID: "bjorn", Amount: 100},
		{UserID: "carl", Amount: 200},
	}}
	svc := NewService(zap.NewNop(), store)

	snap, err := svc.CreateSnapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, store.inserted, 1)
	assert.Same(t, snap, store.inserted[0])

	// metadados resumem o plano: participantes, instruções, volume
	assert.Equal(t, 3, snap.UserCount)
	assert.Equal(t, 2, snap.TransactionCount)
	assert.Equal(t, money.Amount(300), snap.TotalVolume)
	assert.NotEmpty(t, snap.ID)
	assert.False(t, snap.CreatedAt.IsZero())

	// o payload serializado reabre como um Result íntegro
	var result engine.Result
	require.NoError(t, json.Unmarshal([]byte(snap.SettlementJSON), &result))
	require.Len(t, result.Instructions, 2)
	assert.Empty(t, result.Adjustments)
	assert.Equal(t, "anna", result.Instructions[0].FromUser)
}

func TestCreateSnapshotRepeatable(t *testing.T) {
	store := &fakeStore{balances: []engine.Balance{
		{UserID: "anna", Amount: -100},
		{UserID: "bjorn", Amount: 100},
	}}
	svc := NewService(zap.NewNop(), store)

	// cada chamada gera um snapshot novo e independente
	first, err := svc.CreateSnapshot(context.Background())
	require.NoError(t, err)
	second, err := svc.CreateSnapshot(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Len(t, store.inserted, 2)
	assert.JSONEq(t, trimDates(t, first.SettlementJSON), trimDates(t, second.SettlementJSON))
}

func TestCreateSnapshotImbalanceBecomesAdjustment(t *testing.T) {
	// soma dos saldos não fecha em zero: o settlement sai mesmo assim
	store := &fakeStore{balances: []engine.Balance{
		{UserID: "anna", Amount: -500},
		{UserID: "bjorn", Amount: 300},
	}}
	svc := NewService(zap.NewNop(), store)

	snap, err := svc.CreateSnapshot(context.Background())
	require.NoError(t, err)

	var result engine.Result
	require.NoError(t, json.Unmarshal([]byte(snap.SettlementJSON), &result))
	require.Len(t, result.Adjustments, 1)
	assert.Equal(t, engine.ReasonUnmatchedDeficit, result.Adjustments[0].Reason)
}

func TestCreateSnapshotStoreFailure(t *testing.T) {
	boom := errors.New("store unreachable")

	svc := NewService(zap.NewNop(), &fakeStore{readErr: boom})
	_, err := svc.CreateSnapshot(context.Background())
	assert.ErrorIs(t, err, boom)

	store := &fakeStore{balances: []engine.Balance{{UserID: "a", Amount: -1}, {UserID: "b", Amount: 1}}, insertErr: boom}
	svc = NewService(zap.NewNop(), store)
	_, err = svc.CreateSnapshot(context.Background())
	assert.ErrorIs(t, err, boom)
	// falha no insert não deixa snapshot parcial registrado
	assert.Empty(t, store.inserted)
}

// trimDates zera o campo Date pra comparar dois payloads gerados em instantes diferentes.
func trimDates(t *testing.T, payload string) string {
	t.Helper()
	var result engine.Result
	require.NoError(t, json.Unmarshal([]byte(payload), &result))
	result.Date = time.Time{}
	b, err := json.Marshal(result)
	require.NoError(t, err)
	return string(b)
}
