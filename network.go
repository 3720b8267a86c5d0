package extio

import (
	"context"

	"github.com/mwantia/extio/errors"
)

// NetworkCapability exposes request/response, stream, socket and
// bidirectional message transports.
type NetworkCapability interface {
	// Request performs a single request/response exchange.
	Request(ctx context.Context, req *Request) (*Response, error)
	// OpenStream connects to url and returns a stream handle.
	OpenStream(ctx context.Context, url string) (Handle, error)
	// SendOn sends a single frame on the stream.
	SendOn(ctx context.Context, h Handle, frame []byte) error
	// ReceiveFrom waits for the next frame, or the end-of-stream marker.
	ReceiveFrom(ctx context.Context, h Handle) (Frame, error)
	// CloseStream releases the stream handle.
	CloseStream(ctx context.Context, h Handle) error
	// Exchange sends data to addr over a connection and returns everything
	// the peer answers until it closes the connection.
	Exchange(ctx context.Context, addr string, data []byte) ([]byte, error)
	// SendDatagram sends a single fire-and-forget datagram to addr.
	SendDatagram(ctx context.Context, addr string, data []byte) error

	mustEmbedUnimplementedNetwork()
}

// UnimplementedNetwork must be embedded by every NetworkCapability implementation.
type UnimplementedNetwork struct{}

func (UnimplementedNetwork) Request(context.Context, *Request) (*Response, error) {
	return nil, errors.Unsupported(OpNetworkRequest)
}

func (UnimplementedNetwork) OpenStream(context.Context, string) (Handle, error) {
	return Handle{}, errors.Unsupported(OpNetworkOpenStream)
}

func (UnimplementedNetwork) SendOn(context.Context, Handle, []byte) error {
	return errors.Unsupported(OpNetworkSendOn)
}

func (UnimplementedNetwork) ReceiveFrom(context.Context, Handle) (Frame, error) {
	return Frame{}, errors.Unsupported(OpNetworkReceiveFrom)
}

func (UnimplementedNetwork) CloseStream(context.Context, Handle) error {
	return errors.Unsupported(OpNetworkCloseStream)
}

func (UnimplementedNetwork) Exchange(context.Context, string, []byte) ([]byte, error) {
	return nil, errors.Unsupported(OpNetworkExchange)
}

func (UnimplementedNetwork) SendDatagram(context.Context, string, []byte) error {
	return errors.Unsupported(OpNetworkSendDatagram)
}

func (UnimplementedNetwork) mustEmbedUnimplementedNetwork() {}
