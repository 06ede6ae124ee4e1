package search

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sink struct {
	mu  sync.Mutex
	got []Query
}

func (s *sink) handle(_ context.Context, q Query) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, q)
}

func (s *sink) all() []Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Query(nil), s.got...)
}

func TestDeliversOnlyToOwnPage(t *testing.T) {
	d := New(0)
	balance, payments := &sink{}, &sink{}
	d.Subscribe("balance", balance.handle)
	d.Subscribe("payments", payments.handle)

	d.Publish(context.Background(), Query{ChatID: 1, Page: "balance", Text: "цемент"})

	assert.Equal(t, []Query{{ChatID: 1, Page: "balance", Text: "цемент"}}, balance.all())
	assert.Empty(t, payments.all())
}

func TestUnsubscribe(t *testing.T) {
	d := New(0)
	s := &sink{}
	unsub := d.Subscribe("balance", s.handle)

	unsub()
	unsub()
	d.Publish(context.Background(), Query{ChatID: 1, Page: "balance", Text: "abc"})

	assert.Empty(t, s.all())
	assert.Empty(t, d.subs)
}

func TestDebounceKeepsLast(t *testing.T) {
	d := New(30 * time.Millisecond)
	defer d.Close()
	s := &sink{}
	d.Subscribe("balance", s.handle)

	ctx := context.Background()
	d.Publish(ctx, Query{ChatID: 1, Page: "balance", Text: "цем"})
	d.Publish(ctx, Query{ChatID: 1, Page: "balance", Text: "цеме"})
	d.Publish(ctx, Query{ChatID: 1, Page: "balance", Text: "цемент"})
	assert.True(t, d.Searching(1))

	require.Eventually(t, func() bool { return len(s.all()) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)

	got := s.all()
	require.Len(t, got, 1)
	assert.Equal(t, "цемент", got[0].Text)
	assert.False(t, d.Searching(1))
}

func TestDebounceIsPerChat(t *testing.T) {
	d := New(20 * time.Millisecond)
	defer d.Close()
	s := &sink{}
	d.Subscribe("balance", s.handle)

	ctx := context.Background()
	d.Publish(ctx, Query{ChatID: 1, Page: "balance", Text: "abc"})
	d.Publish(ctx, Query{ChatID: 2, Page: "balance", Text: "xyz"})

	require.Eventually(t, func() bool { return len(s.all()) == 2 }, time.Second, 5*time.Millisecond)
}

func TestCancelDropsPending(t *testing.T) {
	d := New(20 * time.Millisecond)
	defer d.Close()
	s := &sink{}
	d.Subscribe("balance", s.handle)

	d.Publish(context.Background(), Query{ChatID: 1, Page: "balance", Text: "abc"})
	d.Cancel(1)
	time.Sleep(50 * time.Millisecond)

	assert.Empty(t, s.all())
	assert.False(t, d.Searching(1))
}

func TestClosedDispatcherIgnoresPublish(t *testing.T) {
	d := New(10 * time.Millisecond)
	s := &sink{}
	d.Subscribe("balance", s.handle)
	d.Close()

	d.Publish(context.Background(), Query{ChatID: 1, Page: "balance", Text: "abc"})
	time.Sleep(30 * time.Millisecond)

	assert.Empty(t, s.all())
}

func TestClosedImmediateDispatcherIgnoresPublish(t *testing.T) {
	d := New(0)
	s := &sink{}
	d.Subscribe("balance", s.handle)
	d.Close()

	d.Publish(context.Background(), Query{ChatID: 1, Page: "balance", Text: "abc"})

	assert.Empty(t, s.all())
}
