package memory

import (
	"context"
	"time"

	"github.com/mwantia/extio"
	"github.com/mwantia/extio/errors"
)

type subscription struct {
	topic string
	box   *mailbox
}

// memoryQueue fans every published message out to the mailbox of each
// current subscriber. Messages published while a topic has no subscribers
// are dropped.
type memoryQueue struct {
	extio.UnimplementedQueue
	mb *MemoryBackend
}

func (q *memoryQueue) Publish(ctx context.Context, topic string, data []byte) error {
	if err := extio.ContextErr(ctx, extio.OpQueuePublish); err != nil {
		return err
	}
	if topic == "" {
		return errors.InvalidArgument(extio.OpQueuePublish, "topic must not be empty")
	}

	q.mb.mu.Lock()
	defer q.mb.mu.Unlock()

	for _, box := range q.mb.topics[topic] {
		content := make([]byte, len(data))
		copy(content, data)
		box.pushUnsafe(extio.Message{Topic: topic, Data: content})
	}

	return nil
}

func (q *memoryQueue) Subscribe(ctx context.Context, topic string) (extio.Handle, error) {
	if err := extio.ContextErr(ctx, extio.OpQueueSubscribe); err != nil {
		return extio.Handle{}, err
	}
	if topic == "" {
		return extio.Handle{}, errors.InvalidArgument(extio.OpQueueSubscribe, "topic must not be empty")
	}

	q.mb.mu.Lock()
	defer q.mb.mu.Unlock()

	token := newToken()
	sub := &subscription{
		topic: topic,
		box:   newMailbox(),
	}
	q.mb.subscriptions[token] = sub
	if q.mb.topics[topic] == nil {
		q.mb.topics[topic] = make(map[string]*mailbox)
	}
	q.mb.topics[topic][token] = sub.box

	return extio.NewHandle(extio.GroupQueue, token), nil
}

func (q *memoryQueue) Poll(ctx context.Context, h extio.Handle, timeout time.Duration) (extio.Delivery, error) {
	if err := extio.CheckTimeout(extio.OpQueuePoll, timeout); err != nil {
		return extio.Delivery{}, err
	}

	return q.mb.receive(ctx, extio.OpQueuePoll, timeout, func() (*mailbox, error) {
		sub, exists := q.mb.subscriptions[h.Token()]
		if !exists || h.Group() != extio.GroupQueue {
			return nil, errors.StaleHandle(extio.OpQueuePoll, h.String())
		}
		return sub.box, nil
	})
}

func (q *memoryQueue) Unsubscribe(ctx context.Context, h extio.Handle) error {
	if err := extio.ContextErr(ctx, extio.OpQueueUnsubscribe); err != nil {
		return err
	}

	q.mb.mu.Lock()
	defer q.mb.mu.Unlock()

	sub, exists := q.mb.subscriptions[h.Token()]
	if !exists || h.Group() != extio.GroupQueue {
		return errors.StaleHandle(extio.OpQueueUnsubscribe, h.String())
	}

	delete(q.mb.subscriptions, h.Token())
	delete(q.mb.topics[sub.topic], h.Token())
	if len(q.mb.topics[sub.topic]) == 0 {
		delete(q.mb.topics, sub.topic)
	}
	sub.box.closeUnsafe()

	return nil
}
