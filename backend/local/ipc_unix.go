//go:build unix

package local

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/mwantia/extio"
	"github.com/mwantia/extio/errors"
)

const ipcSupported = true

// Datagrams above this size are truncated by the receiving socket.
const maxDatagramSize = 64 << 10

// receiver owns the socket bound for one channel. Concurrent receives on
// the same channel are serialized.
type receiver struct {
	mu   sync.Mutex
	conn *net.UnixConn
	path string
}

func (r *receiver) close() {
	r.conn.Close()
	os.Remove(r.path)
}

type localIPC struct {
	extio.UnimplementedIPC
	lb *LocalBackend
}

func newLocalIPC(lb *LocalBackend) extio.IPCCapability {
	return &localIPC{lb: lb}
}

func (i *localIPC) socketPath(op, channel string) (string, error) {
	if channel == "" {
		return "", errors.InvalidArgument(op, "channel name is empty")
	}
	if strings.ContainsAny(channel, `/\`) || channel == "." || channel == ".." {
		return "", errors.InvalidArgument(op, "invalid channel name '%s'", channel)
	}

	i.lb.mu.Lock()
	dir := i.lb.ipcDir
	i.lb.mu.Unlock()

	if dir == "" {
		return "", errors.Unavailable(op, "backend is not open")
	}
	return filepath.Join(dir, channel+".sock"), nil
}

// Send delivers data to the process that receives on channel. Without a
// bound receiver the message is rejected as Unavailable.
func (i *localIPC) Send(ctx context.Context, channel string, data []byte) error {
	if err := extio.ContextErr(ctx, extio.OpIPCSend); err != nil {
		return err
	}

	path, err := i.socketPath(extio.OpIPCSend, channel)
	if err != nil {
		return err
	}
	if len(data) > maxDatagramSize {
		return errors.InvalidArgument(extio.OpIPCSend, "message of %d bytes exceeds the limit of %d", len(data), maxDatagramSize)
	}

	conn, err := net.DialUnix("unixgram", nil, &net.UnixAddr{Name: path, Net: "unixgram"})
	if err != nil {
		if errors.Is(err, syscall.ENOENT) || errors.Is(err, syscall.ECONNREFUSED) {
			return errors.Wrap(err, errors.KindUnavailable, extio.OpIPCSend, "no receiver is bound to channel '"+channel+"'")
		}
		return errors.From(extio.OpIPCSend, err)
	}
	defer conn.Close()

	disarm := interruptible(ctx, conn, time.Time{})
	defer disarm()

	if _, err := conn.Write(data); err != nil {
		return ioError(ctx, extio.OpIPCSend, err)
	}
	return nil
}

// bind returns the receiver for channel, binding its socket on first use.
func (i *localIPC) bind(channel, path string) (*receiver, error) {
	i.lb.mu.Lock()
	defer i.lb.mu.Unlock()

	if r, exists := i.lb.receivers[channel]; exists {
		return r, nil
	}

	// A socket left behind by a crashed process blocks the bind.
	os.Remove(path)

	conn, err := net.ListenUnixgram("unixgram", &net.UnixAddr{Name: path, Net: "unixgram"})
	if err != nil {
		return nil, errors.From(extio.OpIPCReceive, err)
	}

	r := &receiver{conn: conn, path: path}
	i.lb.receivers[channel] = r
	return r, nil
}

func (i *localIPC) Receive(ctx context.Context, channel string, timeout time.Duration) (extio.Delivery, error) {
	if err := extio.ContextErr(ctx, extio.OpIPCReceive); err != nil {
		return extio.Delivery{}, err
	}
	if err := extio.CheckTimeout(extio.OpIPCReceive, timeout); err != nil {
		return extio.Delivery{}, err
	}

	path, err := i.socketPath(extio.OpIPCReceive, channel)
	if err != nil {
		return extio.Delivery{}, err
	}
	r, err := i.bind(channel, path)
	if err != nil {
		return extio.Delivery{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	buf := make([]byte, maxDatagramSize)

	var n int
	if timeout == 0 {
		n, err = receiveNow(r.conn, buf)
	} else {
		disarm := interruptible(ctx, r.conn, time.Now().Add(timeout))
		defer disarm()

		n, _, err = r.conn.ReadFromUnix(buf)
	}

	if err != nil {
		if cerr := extio.ContextErr(ctx, extio.OpIPCReceive); cerr != nil {
			return extio.Delivery{}, cerr
		}
		if deadline, ok := ctx.Deadline(); ok && !time.Now().Before(deadline) {
			return extio.Delivery{}, errors.From(extio.OpIPCReceive, context.DeadlineExceeded)
		}
		if errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, syscall.EAGAIN) {
			return extio.Delivery{TimedOut: true}, nil
		}
		return extio.Delivery{}, errors.From(extio.OpIPCReceive, err)
	}

	data := make([]byte, n)
	copy(data, buf[:n])

	return extio.Delivery{
		Message: extio.Message{
			Topic:      channel,
			Data:       data,
			ReceivedAt: time.Now(),
		},
	}, nil
}

// receiveNow reads one queued datagram without blocking. An empty queue
// reports EAGAIN.
func receiveNow(conn *net.UnixConn, buf []byte) (int, error) {
	raw, err := conn.SyscallConn()
	if err != nil {
		return 0, err
	}

	var n int
	var recvErr error
	err = raw.Read(func(fd uintptr) bool {
		n, _, recvErr = syscall.Recvfrom(int(fd), buf, syscall.MSG_DONTWAIT)
		return true
	})
	if err != nil {
		return 0, err
	}
	return n, recvErr
}
