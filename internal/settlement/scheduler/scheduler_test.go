package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lundebo/buddy-bets/internal/settlement/repo"
	"github.com/lundebo/buddy-bets/pkg/contracts/events"
)

type fakeCreator struct {
	snap  *repo.Snapshot
	err   error
	calls int
}

func (f *fakeCreator) CreateSnapshot(context.Context) (*repo.Snapshot, error) {
	f.calls++
	return f.snap, f.err
}

type fakeWatermark struct {
	last time.Time
	ok   bool
	err  error
}

func (f *fakeWatermark) LatestSnapshotTime(context.Context) (time.Time, bool, error) {
	return f.last, f.ok, f.err
}

type fakeLocker struct {
	granted bool
	err     error
	calls   int
}

func (f *fakeLocker) SetNX(context.Context, string, interface{}, time.Duration) *redis.BoolCmd {
	f.calls++
	return redis.NewBoolResult(f.granted, f.err)
}

type fakeSettlementPublisher struct {
	events []events.SettlementCreated
	err    error
}

func (f *fakeSettlementPublisher) PublishSettlementCreated(_ context.Context, e events.SettlementCreated) error {
	f.events = append(f.events, e)
	return f.err
}

// domingo 23:59 em Oslo (inverno, UTC+1)
var inWindow = time.Date(2025, 1, 5, 22, 59, 10, 0, time.UTC)

func newTestScheduler(t *testing.T, creator *fakeCreator, wm *fakeWatermark, locker *fakeLocker, publ *fakeSettlementPublisher, at time.Time) *Scheduler {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Oslo")
	require.NoError(t, err)

	s := New(
		zap.NewNop(),
		Window{Weekday: time.Sunday, Hour: 23, Minute: 59, Loc: loc},
		30*time.Second,
		2*time.Minute,
		locker,
		"settlement:run-lock",
		5*time.Minute,
		creator,
		wm,
		publ,
	)
	s.now = func() time.Time { return at }
	return s
}

func TestTickRunsInsideWindow(t *testing.T) {
	creator := &fakeCreator{snap: &repo.Snapshot{ID: "snap-1", CreatedAt: inWindow, UserCount: 3, TransactionCount: 2, TotalVolume: 300}}
	locker := &fakeLocker{granted: true}
	publ := &fakeSettlementPublisher{}
	s := newTestScheduler(t, creator, &fakeWatermark{}, locker, publ, inWindow)

	assert.True(t, s.tick(context.Background()))
	assert.Equal(t, 1, creator.calls)
	require.Len(t, publ.events, 1)
	assert.Equal(t, "snap-1", publ.events[0].SnapshotID)
}

func TestTickOutsideWindow(t *testing.T) {
	creator := &fakeCreator{}
	locker := &fakeLocker{granted: true}
	s := newTestScheduler(t, creator, &fakeWatermark{}, locker, &fakeSettlementPublisher{},
		time.Date(2025, 1, 6, 22, 59, 0, 0, time.UTC)) // segunda-feira

	assert.False(t, s.tick(context.Background()))
	assert.Zero(t, creator.calls)
	assert.Zero(t, locker.calls)
}

func TestTickSkipsWhenWatermarkCovered(t *testing.T) {
	// já existe snapshot criado dentro desta ocorrência da janela
	creator := &fakeCreator{}
	locker := &fakeLocker{granted: true}
	wm := &fakeWatermark{last: time.Date(2025, 1, 5, 22, 59, 5, 0, time.UTC), ok: true}
	s := newTestScheduler(t, creator, wm, locker, &fakeSettlementPublisher{}, inWindow)

	assert.False(t, s.tick(context.Background()))
	assert.Zero(t, creator.calls)
	assert.Zero(t, locker.calls)
}

func TestTickRunsWhenWatermarkIsOld(t *testing.T) {
	// último snapshot é da semana passada: a rodada desta janela ainda não aconteceu
	creator := &fakeCreator{snap: &repo.Snapshot{ID: "snap-2", CreatedAt: inWindow}}
	wm := &fakeWatermark{last: inWindow.AddDate(0, 0, -7), ok: true}
	s := newTestScheduler(t, creator, wm, &fakeLocker{granted: true}, &fakeSettlementPublisher{}, inWindow)

	assert.True(t, s.tick(context.Background()))
	assert.Equal(t, 1, creator.calls)
}

func TestTickSkipsWhenLockDenied(t *testing.T) {
	creator := &fakeCreator{}
	s := newTestScheduler(t, creator, &fakeWatermark{}, &fakeLocker{granted: false}, &fakeSettlementPublisher{}, inWindow)

	assert.False(t, s.tick(context.Background()))
	assert.Zero(t, creator.calls)
}

func TestTickSkipsWhenRedisDown(t *testing.T) {
	// sem exclusão mútua garantida, melhor não rodar
	creator := &fakeCreator{}
	s := newTestScheduler(t, creator, &fakeWatermark{}, &fakeLocker{err: errors.New("redis down")}, &fakeSettlementPublisher{}, inWindow)

	assert.False(t, s.tick(context.Background()))
	assert.Zero(t, creator.calls)
}

func TestTickSurvivesSnapshotFailure(t *testing.T) {
	creator := &fakeCreator{err: errors.New("pg down")}
	publ := &fakeSettlementPublisher{}
	s := newTestScheduler(t, creator, &fakeWatermark{}, &fakeLocker{granted: true}, publ, inWindow)

	// erro é logado, nada publicado, loop segue pro próximo tick
	assert.False(t, s.tick(context.Background()))
	assert.Empty(t, publ.events)
}

func TestTickNotifyFailureDoesNotUndoRun(t *testing.T) {
	creator := &fakeCreator{snap: &repo.Snapshot{ID: "snap-3", CreatedAt: inWindow}}
	publ := &fakeSettlementPublisher{err: errors.New("broker down")}
	s := newTestScheduler(t, creator, &fakeWatermark{}, &fakeLocker{granted: true}, publ, inWindow)

	// rodada conta como executada mesmo com o notificador fora
	assert.True(t, s.tick(context.Background()))
	assert.Equal(t, 1, creator.calls)
}
