package local

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coder/websocket"

	"github.com/mwantia/extio"
	"github.com/mwantia/extio/errors"
)

// Streams carry frames as a 4-byte big-endian length followed by the payload.
const frameHeaderSize = 4

// stream is either a framed TCP connection or a WebSocket, in which case
// every message is one frame.
type stream struct {
	conn   net.Conn
	reader *bufio.Reader
	ws     *websocket.Conn
	broken bool
}

// closeNow drops the connection without a WebSocket close handshake.
func (s *stream) closeNow() error {
	var err error
	if s.ws != nil {
		err = s.ws.CloseNow()
	} else {
		err = s.conn.Close()
	}
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

type localNetwork struct {
	extio.UnimplementedNetwork
	lb *LocalBackend
}

func (n *localNetwork) Request(ctx context.Context, req *extio.Request) (*extio.Response, error) {
	if err := extio.ContextErr(ctx, extio.OpNetworkRequest); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, errors.InvalidArgument(extio.OpNetworkRequest, "request is nil")
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return nil, errors.Wrap(err, errors.KindInvalidArgument, extio.OpNetworkRequest, "invalid request")
	}
	for key, values := range req.Header {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}

	resp, err := n.lb.options.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, errors.From(extio.OpNetworkRequest, err)
	}
	defer resp.Body.Close()

	limit := n.lb.options.MaxResponseSize
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, errors.From(extio.OpNetworkRequest, err)
	}
	if int64(len(data)) > limit {
		return nil, errors.Internal(extio.OpNetworkRequest, "response body exceeds %d bytes", limit)
	}

	return &extio.Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

// dialAddress accepts "tcp://host:port" as well as a bare "host:port".
func dialAddress(op, raw, scheme string) (string, error) {
	if !strings.Contains(raw, "://") {
		if _, _, err := net.SplitHostPort(raw); err != nil {
			return "", errors.Wrap(err, errors.KindInvalidArgument, op, "invalid address")
		}
		return raw, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", errors.Wrap(err, errors.KindInvalidArgument, op, "invalid address")
	}
	if u.Scheme != scheme {
		return "", errors.InvalidArgument(op, "unsupported scheme '%s', expected '%s'", u.Scheme, scheme)
	}
	if u.Port() == "" {
		return "", errors.InvalidArgument(op, "address '%s' has no port", raw)
	}
	return u.Host, nil
}

func (n *localNetwork) dial(ctx context.Context, op, network, addr string) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: n.lb.options.DialTimeout}
	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, errors.From(op, err)
	}
	return conn, nil
}

func (n *localNetwork) OpenStream(ctx context.Context, rawURL string) (extio.Handle, error) {
	if err := extio.ContextErr(ctx, extio.OpNetworkOpenStream); err != nil {
		return extio.Handle{}, err
	}

	s := &stream{}
	if isWebSocketURL(rawURL) {
		ws, err := n.dialWebSocket(ctx, extio.OpNetworkOpenStream, rawURL)
		if err != nil {
			return extio.Handle{}, err
		}
		s.ws = ws
	} else {
		addr, err := dialAddress(extio.OpNetworkOpenStream, rawURL, "tcp")
		if err != nil {
			return extio.Handle{}, err
		}
		conn, err := n.dial(ctx, extio.OpNetworkOpenStream, "tcp", addr)
		if err != nil {
			return extio.Handle{}, err
		}
		s.conn, s.reader = conn, bufio.NewReader(conn)
	}

	token := newToken()

	n.lb.mu.Lock()
	n.lb.streams[token] = s
	n.lb.mu.Unlock()

	return extio.NewHandle(extio.GroupNetwork, token), nil
}

func (lb *LocalBackend) streamHandle(op string, h extio.Handle) (*stream, error) {
	if h.Group() != extio.GroupNetwork {
		return nil, errors.StaleHandle(op, h.String())
	}

	lb.mu.Lock()
	defer lb.mu.Unlock()

	s, exists := lb.streams[h.Token()]
	if !exists {
		return nil, errors.StaleHandle(op, h.String())
	}
	if s.broken {
		return nil, errors.Unavailable(op, "stream was interrupted in the middle of a frame")
	}
	return s, nil
}

// interruptible arms conn with the earlier of deadline and the deadline of
// ctx, and breaks blocked I/O once ctx is done. A zero deadline leaves only
// ctx in charge. The returned function disarms it again.
func interruptible(ctx context.Context, conn net.Conn, deadline time.Time) func() {
	conn.SetDeadline(earliest(ctx, deadline))

	fired := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		conn.SetDeadline(time.Unix(1, 0))
		close(fired)
	})
	return func() {
		if !stop() {
			<-fired
		}
		conn.SetDeadline(time.Time{})
	}
}

func earliest(ctx context.Context, t time.Time) time.Time {
	if deadline, ok := ctx.Deadline(); ok && (t.IsZero() || deadline.Before(t)) {
		return deadline
	}
	return t
}

// ioError prefers the context's error over the deadline error it caused.
func ioError(ctx context.Context, op string, err error) error {
	if cerr := extio.ContextErr(ctx, op); cerr != nil {
		return cerr
	}
	return errors.From(op, err)
}

func (n *localNetwork) SendOn(ctx context.Context, h extio.Handle, frame []byte) error {
	if err := extio.ContextErr(ctx, extio.OpNetworkSendOn); err != nil {
		return err
	}

	s, err := n.lb.streamHandle(extio.OpNetworkSendOn, h)
	if err != nil {
		return err
	}
	if len(frame) > n.lb.options.MaxFrameSize {
		return errors.InvalidArgument(extio.OpNetworkSendOn, "frame of %d bytes exceeds the limit of %d", len(frame), n.lb.options.MaxFrameSize)
	}
	if s.ws != nil {
		return n.sendWebSocket(ctx, s, frame)
	}

	buf := make([]byte, frameHeaderSize+len(frame))
	binary.BigEndian.PutUint32(buf, uint32(len(frame)))
	copy(buf[frameHeaderSize:], frame)

	disarm := interruptible(ctx, s.conn, time.Time{})
	defer disarm()

	written, err := s.conn.Write(buf)
	if err != nil {
		if written > 0 {
			n.markBroken(s)
		}
		return ioError(ctx, extio.OpNetworkSendOn, err)
	}
	return nil
}

func (n *localNetwork) ReceiveFrom(ctx context.Context, h extio.Handle) (extio.Frame, error) {
	if err := extio.ContextErr(ctx, extio.OpNetworkReceiveFrom); err != nil {
		return extio.Frame{}, err
	}

	s, err := n.lb.streamHandle(extio.OpNetworkReceiveFrom, h)
	if err != nil {
		return extio.Frame{}, err
	}
	if s.ws != nil {
		return n.receiveWebSocket(ctx, s)
	}

	disarm := interruptible(ctx, s.conn, time.Time{})
	defer disarm()

	var header [frameHeaderSize]byte
	read, err := io.ReadFull(s.reader, header[:])
	if err != nil {
		if read == 0 && err == io.EOF {
			return extio.Frame{Data: []byte{}, EndOfStream: true}, nil
		}
		if read > 0 {
			n.markBroken(s)
		}
		return extio.Frame{}, ioError(ctx, extio.OpNetworkReceiveFrom, err)
	}

	size := binary.BigEndian.Uint32(header[:])
	if int64(size) > int64(n.lb.options.MaxFrameSize) {
		n.markBroken(s)
		return extio.Frame{}, errors.Internal(extio.OpNetworkReceiveFrom, "peer sent a frame of %d bytes", size)
	}

	data := make([]byte, size)
	if _, err := io.ReadFull(s.reader, data); err != nil {
		n.markBroken(s)
		return extio.Frame{}, ioError(ctx, extio.OpNetworkReceiveFrom, err)
	}

	return extio.Frame{Data: data}, nil
}

func (n *localNetwork) markBroken(s *stream) {
	n.lb.mu.Lock()
	s.broken = true
	n.lb.mu.Unlock()
}

func (n *localNetwork) CloseStream(ctx context.Context, h extio.Handle) error {
	if err := extio.ContextErr(ctx, extio.OpNetworkCloseStream); err != nil {
		return err
	}
	if h.Group() != extio.GroupNetwork {
		return errors.StaleHandle(extio.OpNetworkCloseStream, h.String())
	}

	n.lb.mu.Lock()
	s, exists := n.lb.streams[h.Token()]
	delete(n.lb.streams, h.Token())
	n.lb.mu.Unlock()

	if !exists {
		return errors.StaleHandle(extio.OpNetworkCloseStream, h.String())
	}
	if s.ws != nil {
		return closeWebSocket(s)
	}
	if err := s.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return errors.From(extio.OpNetworkCloseStream, err)
	}
	return nil
}

// Exchange writes data, half-closes the connection and reads the reply
// until the peer closes its side.
func (n *localNetwork) Exchange(ctx context.Context, addr string, data []byte) ([]byte, error) {
	if err := extio.ContextErr(ctx, extio.OpNetworkExchange); err != nil {
		return nil, err
	}

	target, err := dialAddress(extio.OpNetworkExchange, addr, "tcp")
	if err != nil {
		return nil, err
	}
	conn, err := n.dial(ctx, extio.OpNetworkExchange, "tcp", target)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	disarm := interruptible(ctx, conn, time.Time{})
	defer disarm()

	if _, err := conn.Write(data); err != nil {
		return nil, ioError(ctx, extio.OpNetworkExchange, err)
	}
	if tcp, ok := conn.(*net.TCPConn); ok {
		if err := tcp.CloseWrite(); err != nil {
			return nil, ioError(ctx, extio.OpNetworkExchange, err)
		}
	}

	limit := n.lb.options.MaxResponseSize
	reply, err := io.ReadAll(io.LimitReader(conn, limit+1))
	if err != nil {
		return nil, ioError(ctx, extio.OpNetworkExchange, err)
	}
	if int64(len(reply)) > limit {
		return nil, errors.Internal(extio.OpNetworkExchange, "reply exceeds %d bytes", limit)
	}
	return reply, nil
}

func (n *localNetwork) SendDatagram(ctx context.Context, addr string, data []byte) error {
	if err := extio.ContextErr(ctx, extio.OpNetworkSendDatagram); err != nil {
		return err
	}

	target, err := dialAddress(extio.OpNetworkSendDatagram, addr, "udp")
	if err != nil {
		return err
	}
	conn, err := n.dial(ctx, extio.OpNetworkSendDatagram, "udp", target)
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, err := conn.Write(data); err != nil {
		return ioError(ctx, extio.OpNetworkSendDatagram, err)
	}
	return nil
}
