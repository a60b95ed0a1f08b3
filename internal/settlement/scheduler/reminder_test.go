package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/lundebo/buddy-bets/pkg/contracts/events"
)

type fakePendingCounter struct {
	count  int
	oldest string
}

func (f *fakePendingCounter) CountPendingBets(context.Context) (int, string, error) {
	return f.count, f.oldest, nil
}

type fakeReminderPublisher struct {
	mu     sync.Mutex
	events []events.PendingBetsReminder
}

func (f *fakeReminderPublisher) PublishPendingBetsReminder(_ context.Context, e events.PendingBetsReminder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return nil
}

func (f *fakeReminderPublisher) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

func TestPendingBetsReminderPublishes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	publ := &fakeReminderPublisher{}
	done := make(chan struct{})
	go func() {
		RunPendingBetsReminder(ctx, zap.NewNop(), 10*time.Millisecond, &fakePendingCounter{count: 3, oldest: "bet-1"}, publ)
		close(done)
	}()

	assert.Eventually(t, func() bool { return publ.len() >= 1 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	publ.mu.Lock()
	defer publ.mu.Unlock()
	assert.Equal(t, 3, publ.events[0].PendingCount)
	assert.Equal(t, "bet-1", publ.events[0].OldestBetID)
}

func TestPendingBetsReminderQuietWhenNothingPending(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	publ := &fakeReminderPublisher{}
	done := make(chan struct{})
	go func() {
		RunPendingBetsReminder(ctx, zap.NewNop(), 5*time.Millisecond, &fakePendingCounter{count: 0}, publ)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done
	assert.Zero(t, publ.len())
}
