package memory

import (
	"context"
	"time"

	"github.com/mwantia/extio"
)

// mailbox is an unbounded FIFO of messages. Waiters block on notify, which
// is closed and replaced whenever the mailbox changes. All fields are
// guarded by the backend lock.
type mailbox struct {
	messages []extio.Message
	notify   chan struct{}
	closed   bool
}

func newMailbox() *mailbox {
	return &mailbox{
		notify: make(chan struct{}),
	}
}

// pushUnsafe MUST be called while holding the lock.
func (m *mailbox) pushUnsafe(msg extio.Message) {
	m.messages = append(m.messages, msg)
	close(m.notify)
	m.notify = make(chan struct{})
}

// closeUnsafe wakes every waiter. MUST be called while holding the lock.
func (m *mailbox) closeUnsafe() {
	if m.closed {
		return
	}
	m.closed = true
	close(m.notify)
}

// receive waits up to timeout for the next message of the mailbox returned
// by lookup. lookup runs under the lock on every wake-up and reports a
// failure when the mailbox went away.
func (mb *MemoryBackend) receive(ctx context.Context, op string, timeout time.Duration, lookup func() (*mailbox, error)) (extio.Delivery, error) {
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	for {
		if err := extio.ContextErr(ctx, op); err != nil {
			return extio.Delivery{}, err
		}

		mb.mu.Lock()
		box, err := lookup()
		if err != nil {
			mb.mu.Unlock()
			return extio.Delivery{}, err
		}
		if len(box.messages) > 0 {
			msg := box.messages[0]
			box.messages[0] = extio.Message{}
			box.messages = box.messages[1:]
			mb.mu.Unlock()

			msg.ReceivedAt = mb.now()
			return extio.Delivery{Message: msg}, nil
		}
		notify := box.notify
		mb.mu.Unlock()

		if expired == nil {
			return extio.Delivery{TimedOut: true}, nil
		}

		select {
		case <-ctx.Done():
			return extio.Delivery{}, extio.ContextErr(ctx, op)
		case <-expired:
			return extio.Delivery{TimedOut: true}, nil
		case <-notify:
		}
	}
}
