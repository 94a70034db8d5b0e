package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/service"
)

type fakeSubscriber struct {
	ch     chan []byte
	err    error
	closed bool
	mu     sync.Mutex
}

func (f *fakeSubscriber) Subscribe(context.Context, string) (<-chan []byte, func() error, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.ch, func() error {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.closed = true
		return nil
	}, nil
}

func TestWorkerDeliversDecodedNotifications(t *testing.T) {
	sub := &fakeSubscriber{ch: make(chan []byte, 2)}
	delivered := make(chan service.Notification, 2)
	w := NewNotificationWorker(nil, sub, "helpdesk.notifications", func(_ context.Context, n service.Notification) error {
		delivered <- n
		return nil
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	sub.ch <- []byte("not json")
	sub.ch <- []byte(`{"recipient_id":"tech-1","ticket_code":"TCK-000001","event_type":"ticket_assigned"}`)

	select {
	case n := <-delivered:
		assert.Equal(t, "tech-1", n.RecipientID)
		assert.Equal(t, "TCK-000001", n.TicketCode)
	case <-time.After(time.Second):
		t.Fatal("notification not delivered")
	}

	close(sub.ch)
	require.Eventually(t, func() bool {
		sub.mu.Lock()
		defer sub.mu.Unlock()
		return sub.closed
	}, time.Second, 10*time.Millisecond)
}

func TestWorkerWithoutSubscription(t *testing.T) {
	w := NewNotificationWorker(nil, &fakeSubscriber{err: errors.New("down")}, "ch", nil, nil)
	assert.NotPanics(t, func() { w.Start(context.Background()) })

	w = NewNotificationWorker(nil, nil, "", nil, nil)
	assert.NotPanics(t, func() { w.Start(context.Background()) })
}
