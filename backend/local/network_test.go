package local

import (
	"bufio"
	"context"
	"encoding/binary"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwantia/extio"
	"github.com/mwantia/extio/errors"
	"github.com/mwantia/extio/extiotest"
)

// listen starts a TCP server that hands every accepted connection to serve.
func listen(t *testing.T, serve func(net.Conn)) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() {
		ln.Close()
	})

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				serve(conn)
			}()
		}
	}()

	return ln.Addr().String()
}

// frameEcho answers every frame with the same payload and closes after
// a frame reading "bye".
func frameEcho(conn net.Conn) {
	reader := bufio.NewReader(conn)
	for {
		var header [4]byte
		if _, err := io.ReadFull(reader, header[:]); err != nil {
			return
		}
		payload := make([]byte, binary.BigEndian.Uint32(header[:]))
		if _, err := io.ReadFull(reader, payload); err != nil {
			return
		}
		if string(payload) == "bye" {
			return
		}
		conn.Write(append(header[:], payload...))
	}
}

func TestLocalNetwork_Request(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("X-Method", r.Method)
		w.Header().Set("X-Token", r.Header.Get("X-Token"))
		w.WriteHeader(http.StatusCreated)
		w.Write(body)
	}))
	defer server.Close()

	lb := newTestBackend(t)
	ctx := t.Context()

	resp, err := lb.Network().Request(ctx, &extio.Request{URL: server.URL})
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, resp.Header.Get("X-Method"))

	resp, err = lb.Network().Request(ctx, &extio.Request{
		Method: http.MethodPost,
		URL:    server.URL,
		Header: http.Header{"X-Token": {"abc"}},
		Body:   []byte("payload"),
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "abc", resp.Header.Get("X-Token"))
	assert.Equal(t, "payload", string(resp.Body))

	_, err = lb.Network().Request(ctx, &extio.Request{Method: "BAD METHOD", URL: server.URL})
	extiotest.RequireKind(t, err, errors.KindInvalidArgument)
}

func TestLocalNetwork_RequestCancelled(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	lb := newTestBackend(t)

	ctx, cancel := context.WithCancel(t.Context())
	time.AfterFunc(20*time.Millisecond, cancel)

	_, err := lb.Network().Request(ctx, &extio.Request{URL: server.URL})
	extiotest.RequireKind(t, err, errors.KindCancelled)
}

func TestLocalNetwork_Stream(t *testing.T) {
	addr := listen(t, frameEcho)

	lb := newTestBackend(t)
	network := lb.Network()
	ctx := t.Context()

	h, err := network.OpenStream(ctx, "tcp://"+addr)
	require.NoError(t, err)

	for _, payload := range []string{"hello", "", "world"} {
		require.NoError(t, network.SendOn(ctx, h, []byte(payload)))

		frame, err := network.ReceiveFrom(ctx, h)
		require.NoError(t, err)
		assert.False(t, frame.EndOfStream)
		assert.Equal(t, payload, string(frame.Data))
	}

	require.NoError(t, network.SendOn(ctx, h, []byte("bye")))
	frame, err := network.ReceiveFrom(ctx, h)
	require.NoError(t, err)
	assert.True(t, frame.EndOfStream)

	require.NoError(t, network.CloseStream(ctx, h))
	err = network.SendOn(ctx, h, []byte("late"))
	extiotest.RequireKind(t, err, errors.KindInvalidArgument)
}

func TestLocalNetwork_ReceiveTimeoutKeepsStream(t *testing.T) {
	addr := listen(t, frameEcho)

	lb := newTestBackend(t)
	network := lb.Network()

	h, err := network.OpenStream(t.Context(), addr)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()

	_, err = network.ReceiveFrom(ctx, h)
	extiotest.RequireKind(t, err, errors.KindTimeout)

	require.NoError(t, network.SendOn(t.Context(), h, []byte("still there")))
	frame, err := network.ReceiveFrom(t.Context(), h)
	require.NoError(t, err)
	assert.Equal(t, "still there", string(frame.Data))
}

func TestLocalNetwork_OpenStreamInvalid(t *testing.T) {
	lb := newTestBackend(t)
	ctx := t.Context()

	for _, url := range []string{"http://example.com:80", "tcp://example.com", "no-port"} {
		_, err := lb.Network().OpenStream(ctx, url)
		extiotest.RequireKind(t, err, errors.KindInvalidArgument)
	}
}

func TestLocalNetwork_Exchange(t *testing.T) {
	addr := listen(t, func(conn net.Conn) {
		data, _ := io.ReadAll(conn)
		conn.Write(append([]byte("echo:"), data...))
	})

	lb := newTestBackend(t)

	reply, err := lb.Network().Exchange(t.Context(), addr, []byte("ping"))
	require.NoError(t, err)
	assert.Equal(t, "echo:ping", string(reply))
}

func TestLocalNetwork_ExchangeRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	lb := newTestBackend(t)

	_, err = lb.Network().Exchange(t.Context(), addr, []byte("ping"))
	extiotest.RequireKind(t, err, errors.KindUnavailable)
}

func TestLocalNetwork_SendDatagram(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer pc.Close()

	lb := newTestBackend(t)
	require.NoError(t, lb.Network().SendDatagram(t.Context(), "udp://"+pc.LocalAddr().String(), []byte("beacon")))

	pc.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 64)
	n, _, err := pc.ReadFrom(buf)
	require.NoError(t, err)
	assert.Equal(t, "beacon", string(buf[:n]))
}
