package local

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/coder/websocket"

	"github.com/mwantia/extio"
	"github.com/mwantia/extio/errors"
)

// isWebSocketURL reports whether raw names a ws:// or wss:// endpoint.
func isWebSocketURL(raw string) bool {
	scheme, _, ok := strings.Cut(raw, "://")
	if !ok {
		return false
	}
	switch strings.ToLower(scheme) {
	case "ws", "wss":
		return true
	}
	return false
}

func (n *localNetwork) dialWebSocket(ctx context.Context, op, rawURL string) (*websocket.Conn, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrap(err, errors.KindInvalidArgument, op, "invalid address")
	}
	if u.Host == "" {
		return nil, errors.InvalidArgument(op, "address '%s' has no host", rawURL)
	}

	dialCtx := ctx
	if timeout := n.lb.options.DialTimeout; timeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	conn, resp, err := websocket.Dial(dialCtx, u.String(), &websocket.DialOptions{
		HTTPClient: n.lb.options.HTTPClient,
	})
	if err != nil {
		if cerr := extio.ContextErr(ctx, op); cerr != nil {
			return nil, cerr
		}
		if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
			return nil, errors.Wrap(err, handshakeKind(resp.StatusCode), op,
				fmt.Sprintf("websocket handshake rejected with status %d", resp.StatusCode))
		}
		return nil, errors.From(op, err)
	}
	conn.SetReadLimit(int64(n.lb.options.MaxFrameSize))

	return conn, nil
}

func handshakeKind(status int) errors.Kind {
	switch {
	case status == http.StatusNotFound:
		return errors.KindNotFound
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return errors.KindPermissionDenied
	case status >= 400 && status < 500:
		return errors.KindInvalidArgument
	}
	return errors.KindUnavailable
}

// sendWebSocket writes frame as one binary message. The library closes the
// connection when ctx ends mid-write, so any failure breaks the stream.
func (n *localNetwork) sendWebSocket(ctx context.Context, s *stream, frame []byte) error {
	if err := s.ws.Write(ctx, websocket.MessageBinary, frame); err != nil {
		n.markBroken(s)
		return ioError(ctx, extio.OpNetworkSendOn, err)
	}
	return nil
}

// receiveWebSocket reads one text or binary message. A normal or going-away
// close from the peer ends the stream.
func (n *localNetwork) receiveWebSocket(ctx context.Context, s *stream) (extio.Frame, error) {
	_, data, err := s.ws.Read(ctx)
	if err != nil {
		switch websocket.CloseStatus(err) {
		case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			return extio.Frame{Data: []byte{}, EndOfStream: true}, nil
		case websocket.StatusMessageTooBig:
			n.markBroken(s)
			return extio.Frame{}, errors.Wrap(err, errors.KindInternal, extio.OpNetworkReceiveFrom,
				fmt.Sprintf("peer sent a message larger than %d bytes", n.lb.options.MaxFrameSize))
		}
		n.markBroken(s)
		return extio.Frame{}, ioError(ctx, extio.OpNetworkReceiveFrom, err)
	}
	if data == nil {
		data = []byte{}
	}
	return extio.Frame{Data: data}, nil
}

func closeWebSocket(s *stream) error {
	if s.broken {
		s.ws.CloseNow()
		return nil
	}
	err := s.ws.Close(websocket.StatusNormalClosure, "")
	if err == nil || websocket.CloseStatus(err) != -1 || errors.Is(err, net.ErrClosed) {
		return nil
	}
	return errors.From(extio.OpNetworkCloseStream, err)
}
