//go:build !unix

package local

import "github.com/mwantia/extio"

const ipcSupported = false

type receiver struct{}

func (*receiver) close() {}

func newLocalIPC(*LocalBackend) extio.IPCCapability {
	return extio.UnimplementedIPC{}
}
