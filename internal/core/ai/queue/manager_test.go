package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanJuricic26/chef-ai/internal/core/ai"
	"github.com/RyanJuricic26/chef-ai/internal/infrastructure/config"
)

func TestManagerPassesThrough(t *testing.T) {
	llm := ai.NewScripted("pong")
	m := NewManager(llm, config.QueueConfig{Workers: 2, MaxSize: 4})
	defer m.Close()

	out, err := m.Complete(context.Background(), ai.Prompt{User: "ping"})
	require.NoError(t, err)
	assert.Equal(t, "pong", out)
	assert.Equal(t, "ping", llm.Calls()[0].User)

	status := m.GetQueueStatus()
	assert.Equal(t, 1, status.ProcessedCount)
	assert.Equal(t, 2, status.Workers)
	assert.Equal(t, 4, status.MaxQueueSize)
}

func TestManagerPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	m := NewManager(ai.NewScripted("x").WithErrorAt(0, boom), config.QueueConfig{Workers: 1, MaxSize: 1})
	defer m.Close()

	_, err := m.Complete(context.Background(), ai.Prompt{})
	assert.ErrorIs(t, err, boom)
}

func TestManagerQueueFull(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	blocking := ai.CompleterFunc(func(ctx context.Context, p ai.Prompt) (string, error) {
		started <- struct{}{}
		<-release
		return "done", nil
	})
	m := NewManager(blocking, config.QueueConfig{Workers: 1, MaxSize: 1})
	defer m.Close()

	first := make(chan error, 1)
	go func() {
		_, err := m.Complete(context.Background(), ai.Prompt{})
		first <- err
	}()
	<-started

	// worker 忙碌中，第二個請求佔住隊列
	second := make(chan error, 1)
	go func() {
		_, err := m.Complete(context.Background(), ai.Prompt{})
		second <- err
	}()
	require.Eventually(t, func() bool { return m.GetQueueStatus().QueueLength == 1 }, time.Second, time.Millisecond)

	_, err := m.Complete(context.Background(), ai.Prompt{})
	assert.ErrorIs(t, err, ErrQueueFull)

	close(release)
	assert.NoError(t, <-first)
	assert.NoError(t, <-second)
}

func TestManagerCallerCancelled(t *testing.T) {
	release := make(chan struct{})
	blocking := ai.CompleterFunc(func(ctx context.Context, p ai.Prompt) (string, error) {
		<-release
		return "late", nil
	})
	m := NewManager(blocking, config.QueueConfig{Workers: 1, MaxSize: 2})
	defer m.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := m.Complete(ctx, ai.Prompt{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestManagerClosed(t *testing.T) {
	m := NewManager(ai.NewScripted("x"), config.QueueConfig{Workers: 1, MaxSize: 1})
	m.Close()
	m.Close()

	_, err := m.Complete(context.Background(), ai.Prompt{})
	assert.ErrorIs(t, err, ErrClosed)
}
