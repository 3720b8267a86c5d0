package extio

import (
	"context"
	"time"

	"github.com/mwantia/extio/errors"
)

// QueueCapability exposes message queues and publish/subscribe.
type QueueCapability interface {
	// Publish delivers data to every current subscriber of topic.
	Publish(ctx context.Context, topic string, data []byte) error
	// Subscribe registers interest in topic and returns a subscription handle.
	Subscribe(ctx context.Context, topic string) (Handle, error)
	// Poll waits up to timeout for the next message. A timeout of zero
	// checks once without waiting; expiry yields the TimedOut marker.
	Poll(ctx context.Context, h Handle, timeout time.Duration) (Delivery, error)
	// Unsubscribe releases the subscription handle.
	Unsubscribe(ctx context.Context, h Handle) error

	mustEmbedUnimplementedQueue()
}

// UnimplementedQueue must be embedded by every QueueCapability implementation.
type UnimplementedQueue struct{}

func (UnimplementedQueue) Publish(context.Context, string, []byte) error {
	return errors.Unsupported(OpQueuePublish)
}

func (UnimplementedQueue) Subscribe(context.Context, string) (Handle, error) {
	return Handle{}, errors.Unsupported(OpQueueSubscribe)
}

func (UnimplementedQueue) Poll(context.Context, Handle, time.Duration) (Delivery, error) {
	return Delivery{}, errors.Unsupported(OpQueuePoll)
}

func (UnimplementedQueue) Unsubscribe(context.Context, Handle) error {
	return errors.Unsupported(OpQueueUnsubscribe)
}

func (UnimplementedQueue) mustEmbedUnimplementedQueue() {}
