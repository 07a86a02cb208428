package workflow

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPoller_FirstStepIsImmediate(t *testing.T) {
	var calls atomic.Int32
	p := startPoller(context.Background(), time.Hour, func(context.Context) bool {
		calls.Add(1)
		return true
	})
	defer func() {
		p.Stop()
		<-p.Done()
	}()

	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
}

func TestPoller_StopsWhenStepReturnsFalse(t *testing.T) {
	var calls atomic.Int32
	p := startPoller(context.Background(), time.Millisecond, func(context.Context) bool {
		return calls.Add(1) < 3
	})

	select {
	case <-p.Done():
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
	assert.Equal(t, int32(3), calls.Load())
}

func TestPoller_StopAndCancel(t *testing.T) {
	p := startPoller(context.Background(), time.Millisecond, func(context.Context) bool { return true })
	p.Stop()
	p.Stop()
	<-p.Done()

	ctx, cancel := context.WithCancel(context.Background())
	p = startPoller(ctx, time.Hour, func(context.Context) bool { return true })
	cancel()
	select {
	case <-p.Done():
	case <-time.After(time.Second):
		t.Fatal("poller ignored cancellation")
	}
}
