//go:build unix

package local

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwantia/extio"
	"github.com/mwantia/extio/errors"
	"github.com/mwantia/extio/extiotest"
)

func TestLocalProcess_SpawnWait(t *testing.T) {
	lb := newTestBackend(t)
	proc := lb.Process()
	ctx := t.Context()

	h, err := proc.Spawn(ctx, extio.Command{Name: "sh", Args: []string{"-c", "exit 3"}})
	require.NoError(t, err)

	code, err := proc.Wait(ctx, h)
	require.NoError(t, err)
	assert.Equal(t, 3, code)

	_, err = proc.Wait(ctx, h)
	extiotest.RequireKind(t, err, errors.KindInvalidArgument)
	assert.Equal(t, errors.CodeStaleHandle, errors.GetCode(err))
}

func TestLocalProcess_WorkingDirectory(t *testing.T) {
	lb := newTestBackend(t)
	ctx := t.Context()

	require.NoError(t, lb.File().WriteAll(ctx, "work/marker", []byte("x")))

	h, err := lb.Process().Spawn(ctx, extio.Command{
		Name: "sh",
		Args: []string{"-c", "test -f marker"},
		Dir:  "work",
	})
	require.NoError(t, err)

	code, err := lb.Process().Wait(ctx, h)
	require.NoError(t, err)
	assert.Equal(t, 0, code)
}

func TestLocalProcess_WaitCancelledKeepsHandle(t *testing.T) {
	lb := newTestBackend(t)
	proc := lb.Process()

	h, err := proc.Spawn(t.Context(), extio.Command{Name: "sleep", Args: []string{"10"}})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()

	_, err = proc.Wait(ctx, h)
	extiotest.RequireKind(t, err, errors.KindTimeout)

	require.NoError(t, proc.Kill(t.Context(), h))

	err = proc.Kill(t.Context(), h)
	extiotest.RequireKind(t, err, errors.KindInvalidArgument)
}

func TestLocalProcess_Environment(t *testing.T) {
	t.Setenv("EXTIO_INHERITED", "yes")
	ctx := t.Context()

	tests := []struct {
		name string
		opts []Option
		env  map[string]string
		want int
	}{
		{"Isolated", nil, nil, 1},
		{"Inherited", []Option{WithInheritEnv()}, nil, 0},
		{"Explicit", []Option{WithInheritEnv()}, map[string]string{"EXTIO_INHERITED": "yes"}, 0},
		{"ExplicitReplaces", []Option{WithInheritEnv()}, map[string]string{"OTHER": "1"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lb := newTestBackend(t, tt.opts...)

			h, err := lb.Process().Spawn(ctx, extio.Command{
				Name: "sh",
				Args: []string{"-c", `test "$EXTIO_INHERITED" = yes`},
				Env:  tt.env,
			})
			require.NoError(t, err)

			code, err := lb.Process().Wait(ctx, h)
			require.NoError(t, err)
			assert.Equal(t, tt.want, code)
		})
	}
}

func TestLocalProcess_NotFound(t *testing.T) {
	lb := newTestBackend(t)

	_, err := lb.Process().Spawn(t.Context(), extio.Command{Name: "extio-no-such-binary"})
	extiotest.RequireKind(t, err, errors.KindNotFound)

	_, err = lb.Process().Spawn(t.Context(), extio.Command{})
	extiotest.RequireKind(t, err, errors.KindInvalidArgument)
}

func TestLocalProcess_Exec(t *testing.T) {
	lb := newTestBackend(t)

	//nolint:staticcheck
	result, err := lb.Process().Exec(t.Context(), "sh", "-c", "echo out; echo err >&2; exit 2")
	require.NoError(t, err)
	assert.Equal(t, 2, result.ExitCode)
	assert.Contains(t, string(result.Output), "out")
	assert.Contains(t, string(result.Output), "err")
}

func TestLocalProcess_ExecCancelled(t *testing.T) {
	lb := newTestBackend(t)

	ctx, cancel := context.WithCancel(t.Context())
	time.AfterFunc(20*time.Millisecond, cancel)

	start := time.Now()
	//nolint:staticcheck
	_, err := lb.Process().Exec(ctx, "sleep", "10")
	extiotest.RequireKind(t, err, errors.KindCancelled)
	assert.Less(t, time.Since(start), 5*time.Second)
}
