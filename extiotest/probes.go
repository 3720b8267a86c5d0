// Package extiotest provides tooling for testing extio backends: a probe
// for every operation of the contract, randomized stub backends and a
// conformance suite.
package extiotest

import (
	"context"
	"time"

	"github.com/mwantia/extio"
)

// Result describes what a successful probe must produce.
type Result uint8

const (
	// ResultUnit operations only report an error.
	ResultUnit Result = iota
	// ResultValue operations may succeed with a zero value (0 bytes written,
	// an invalid signature).
	ResultValue
	// ResultRequired operations must produce a non-zero value on success
	// (a handle, a response, a tick sequence).
	ResultRequired
)

// Probe invokes a single operation with placeholder arguments.
type Probe struct {
	Op     string
	Group  extio.CapabilityGroup
	Result Result
	Call   func(ctx context.Context, b extio.Backend) (any, error)
}

// ProbeHandle is the handle passed to handle-consuming probes.
func ProbeHandle(group extio.CapabilityGroup) extio.Handle {
	return extio.NewHandle(group, "probe")
}

// Probes returns a probe for every operation in extio.Operations, in the
// same order.
func Probes() []Probe {
	fh := ProbeHandle(extio.GroupFile)
	nh := ProbeHandle(extio.GroupNetwork)
	ph := ProbeHandle(extio.GroupProcess)
	qh := ProbeHandle(extio.GroupQueue)

	return []Probe{
		{extio.OpFileOpen, extio.GroupFile, ResultRequired, func(ctx context.Context, b extio.Backend) (any, error) {
			return b.File().Open(ctx, "probe.txt", extio.ModeRead)
		}},
		{extio.OpFileRead, extio.GroupFile, ResultValue, func(ctx context.Context, b extio.Backend) (any, error) {
			return b.File().Read(ctx, fh, 16)
		}},
		{extio.OpFileWrite, extio.GroupFile, ResultValue, func(ctx context.Context, b extio.Backend) (any, error) {
			return b.File().Write(ctx, fh, []byte("probe"))
		}},
		{extio.OpFileClose, extio.GroupFile, ResultUnit, func(ctx context.Context, b extio.Backend) (any, error) {
			return nil, b.File().Close(ctx, fh)
		}},
		{extio.OpFileList, extio.GroupFile, ResultValue, func(ctx context.Context, b extio.Backend) (any, error) {
			return b.File().List(ctx, "probe")
		}},
		{extio.OpFileDelete, extio.GroupFile, ResultUnit, func(ctx context.Context, b extio.Backend) (any, error) {
			return nil, b.File().Delete(ctx, "probe.txt")
		}},
		{extio.OpFileReadAll, extio.GroupFile, ResultValue, func(ctx context.Context, b extio.Backend) (any, error) {
			return b.File().ReadAll(ctx, "probe.txt")
		}},
		{extio.OpFileWriteAll, extio.GroupFile, ResultUnit, func(ctx context.Context, b extio.Backend) (any, error) {
			return nil, b.File().WriteAll(ctx, "probe.txt", []byte("probe"))
		}},

		{extio.OpObjectStorePut, extio.GroupObjectStore, ResultUnit, func(ctx context.Context, b extio.Backend) (any, error) {
			return nil, b.ObjectStore().Put(ctx, "probe", "key", []byte("probe"))
		}},
		{extio.OpObjectStoreGet, extio.GroupObjectStore, ResultValue, func(ctx context.Context, b extio.Backend) (any, error) {
			return b.ObjectStore().Get(ctx, "probe", "key")
		}},
		{extio.OpObjectStoreDelete, extio.GroupObjectStore, ResultUnit, func(ctx context.Context, b extio.Backend) (any, error) {
			return nil, b.ObjectStore().Delete(ctx, "probe", "key")
		}},
		{extio.OpObjectStoreList, extio.GroupObjectStore, ResultValue, func(ctx context.Context, b extio.Backend) (any, error) {
			return b.ObjectStore().List(ctx, "probe", "")
		}},

		{extio.OpNetworkRequest, extio.GroupNetwork, ResultRequired, func(ctx context.Context, b extio.Backend) (any, error) {
			return b.Network().Request(ctx, &extio.Request{URL: "http://127.0.0.1:1/probe"})
		}},
		{extio.OpNetworkOpenStream, extio.GroupNetwork, ResultRequired, func(ctx context.Context, b extio.Backend) (any, error) {
			return b.Network().OpenStream(ctx, "tcp://127.0.0.1:1")
		}},
		{extio.OpNetworkSendOn, extio.GroupNetwork, ResultUnit, func(ctx context.Context, b extio.Backend) (any, error) {
			return nil, b.Network().SendOn(ctx, nh, []byte("probe"))
		}},
		{extio.OpNetworkReceiveFrom, extio.GroupNetwork, ResultValue, func(ctx context.Context, b extio.Backend) (any, error) {
			return b.Network().ReceiveFrom(ctx, nh)
		}},
		{extio.OpNetworkCloseStream, extio.GroupNetwork, ResultUnit, func(ctx context.Context, b extio.Backend) (any, error) {
			return nil, b.Network().CloseStream(ctx, nh)
		}},
		{extio.OpNetworkExchange, extio.GroupNetwork, ResultValue, func(ctx context.Context, b extio.Backend) (any, error) {
			return b.Network().Exchange(ctx, "127.0.0.1:1", []byte("probe"))
		}},
		{extio.OpNetworkSendDatagram, extio.GroupNetwork, ResultUnit, func(ctx context.Context, b extio.Backend) (any, error) {
			return nil, b.Network().SendDatagram(ctx, "127.0.0.1:1", []byte("probe"))
		}},

		{extio.OpDatabaseQuery, extio.GroupDatabase, ResultRequired, func(ctx context.Context, b extio.Backend) (any, error) {
			return b.Database().Query(ctx, "SELECT 1")
		}},
		{extio.OpDatabaseExecute, extio.GroupDatabase, ResultValue, func(ctx context.Context, b extio.Backend) (any, error) {
			return b.Database().Execute(ctx, "SELECT 1")
		}},

		{extio.OpProcessSpawn, extio.GroupProcess, ResultRequired, func(ctx context.Context, b extio.Backend) (any, error) {
			return b.Process().Spawn(ctx, extio.Command{Name: "true"})
		}},
		{extio.OpProcessWait, extio.GroupProcess, ResultValue, func(ctx context.Context, b extio.Backend) (any, error) {
			return b.Process().Wait(ctx, ph)
		}},
		{extio.OpProcessKill, extio.GroupProcess, ResultUnit, func(ctx context.Context, b extio.Backend) (any, error) {
			return nil, b.Process().Kill(ctx, ph)
		}},
		{extio.OpProcessExec, extio.GroupProcess, ResultRequired, func(ctx context.Context, b extio.Backend) (any, error) {
			return b.Process().Exec(ctx, "true") //nolint:staticcheck
		}},

		{extio.OpQueuePublish, extio.GroupQueue, ResultUnit, func(ctx context.Context, b extio.Backend) (any, error) {
			return nil, b.Queue().Publish(ctx, "probe", []byte("probe"))
		}},
		{extio.OpQueueSubscribe, extio.GroupQueue, ResultRequired, func(ctx context.Context, b extio.Backend) (any, error) {
			return b.Queue().Subscribe(ctx, "probe")
		}},
		{extio.OpQueuePoll, extio.GroupQueue, ResultValue, func(ctx context.Context, b extio.Backend) (any, error) {
			return b.Queue().Poll(ctx, qh, 0)
		}},
		{extio.OpQueueUnsubscribe, extio.GroupQueue, ResultUnit, func(ctx context.Context, b extio.Backend) (any, error) {
			return nil, b.Queue().Unsubscribe(ctx, qh)
		}},

		{extio.OpIPCSend, extio.GroupIPC, ResultUnit, func(ctx context.Context, b extio.Backend) (any, error) {
			return nil, b.IPC().Send(ctx, "probe", []byte("probe"))
		}},
		{extio.OpIPCReceive, extio.GroupIPC, ResultValue, func(ctx context.Context, b extio.Backend) (any, error) {
			return b.IPC().Receive(ctx, "probe", 0)
		}},

		{extio.OpScheduleAfter, extio.GroupSchedule, ResultUnit, func(ctx context.Context, b extio.Backend) (any, error) {
			return nil, b.Schedule().After(ctx, time.Millisecond)
		}},
		{extio.OpScheduleEvery, extio.GroupSchedule, ResultRequired, func(ctx context.Context, b extio.Backend) (any, error) {
			return b.Schedule().Every(ctx, time.Millisecond)
		}},
		{extio.OpScheduleNow, extio.GroupSchedule, ResultRequired, func(ctx context.Context, b extio.Backend) (any, error) {
			return b.Schedule().Now(ctx)
		}},

		{extio.OpConfigGet, extio.GroupConfig, ResultValue, func(ctx context.Context, b extio.Backend) (any, error) {
			return b.Config().Get(ctx, "probe")
		}},

		{extio.OpTelemetryLog, extio.GroupTelemetry, ResultUnit, func(ctx context.Context, b extio.Backend) (any, error) {
			return nil, b.Telemetry().Log(ctx, extio.LevelInfo, "probe", nil)
		}},
		{extio.OpTelemetryRecordMetric, extio.GroupTelemetry, ResultUnit, func(ctx context.Context, b extio.Backend) (any, error) {
			return nil, b.Telemetry().RecordMetric(ctx, "probe", 1, nil)
		}},

		{extio.OpCryptoSign, extio.GroupCrypto, ResultRequired, func(ctx context.Context, b extio.Backend) (any, error) {
			return b.Crypto().Sign(ctx, "probe", []byte("probe"))
		}},
		{extio.OpCryptoVerify, extio.GroupCrypto, ResultValue, func(ctx context.Context, b extio.Backend) (any, error) {
			return b.Crypto().Verify(ctx, "probe", []byte("probe"), []byte("signature"))
		}},
		{extio.OpCryptoGetSecret, extio.GroupCrypto, ResultValue, func(ctx context.Context, b extio.Backend) (any, error) {
			return b.Crypto().GetSecret(ctx, "probe")
		}},
	}
}
