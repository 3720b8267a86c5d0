package memory

import (
	"context"
	"time"

	"github.com/mwantia/extio"
	"github.com/mwantia/extio/errors"
)

// memoryIPC delivers each message to exactly one receiver of the named
// channel. Channels are created on first use and buffer without limit.
type memoryIPC struct {
	extio.UnimplementedIPC
	mb *MemoryBackend
}

// channelUnsafe MUST be called while holding the lock.
func (mb *MemoryBackend) channelUnsafe(name string) *mailbox {
	box, exists := mb.channels[name]
	if !exists {
		box = newMailbox()
		mb.channels[name] = box
	}
	return box
}

func (i *memoryIPC) Send(ctx context.Context, channel string, data []byte) error {
	if err := extio.ContextErr(ctx, extio.OpIPCSend); err != nil {
		return err
	}
	if channel == "" {
		return errors.InvalidArgument(extio.OpIPCSend, "channel must not be empty")
	}

	content := make([]byte, len(data))
	copy(content, data)

	i.mb.mu.Lock()
	defer i.mb.mu.Unlock()

	i.mb.channelUnsafe(channel).pushUnsafe(extio.Message{Topic: channel, Data: content})
	return nil
}

func (i *memoryIPC) Receive(ctx context.Context, channel string, timeout time.Duration) (extio.Delivery, error) {
	if err := extio.CheckTimeout(extio.OpIPCReceive, timeout); err != nil {
		return extio.Delivery{}, err
	}
	if channel == "" {
		return extio.Delivery{}, errors.InvalidArgument(extio.OpIPCReceive, "channel must not be empty")
	}

	return i.mb.receive(ctx, extio.OpIPCReceive, timeout, func() (*mailbox, error) {
		box := i.mb.channelUnsafe(channel)
		if box.closed {
			return nil, errors.Unavailable(extio.OpIPCReceive, "channel '%s' is closed", channel)
		}
		return box, nil
	})
}
