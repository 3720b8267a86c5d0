package extio

import (
	"context"
	"time"

	"github.com/mwantia/extio/errors"
)

// IPCCapability exposes message passing between processes over named channels.
type IPCCapability interface {
	// Send delivers data to the named channel.
	Send(ctx context.Context, channel string, data []byte) error
	// Receive waits up to timeout for the next message on channel.
	Receive(ctx context.Context, channel string, timeout time.Duration) (Delivery, error)

	mustEmbedUnimplementedIPC()
}

// UnimplementedIPC must be embedded by every IPCCapability implementation.
type UnimplementedIPC struct{}

func (UnimplementedIPC) Send(context.Context, string, []byte) error {
	return errors.Unsupported(OpIPCSend)
}

func (UnimplementedIPC) Receive(context.Context, string, time.Duration) (Delivery, error) {
	return Delivery{}, errors.Unsupported(OpIPCReceive)
}

func (UnimplementedIPC) mustEmbedUnimplementedIPC() {}
