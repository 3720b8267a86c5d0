package extio

import "strings"

// Canonical operation names. Error descriptors and logs refer to
// operations by these names.
const (
	OpFileOpen     = "File.open"
	OpFileRead     = "File.read"
	OpFileWrite    = "File.write"
	OpFileClose    = "File.close"
	OpFileList     = "File.list"
	OpFileDelete   = "File.delete"
	OpFileReadAll  = "File.read_all"
	OpFileWriteAll = "File.write_all"

	OpObjectStorePut    = "ObjectStore.put"
	OpObjectStoreGet    = "ObjectStore.get"
	OpObjectStoreDelete = "ObjectStore.delete"
	OpObjectStoreList   = "ObjectStore.list"

	OpNetworkRequest      = "Network.request"
	OpNetworkOpenStream   = "Network.open_stream"
	OpNetworkSendOn       = "Network.send_on"
	OpNetworkReceiveFrom  = "Network.receive_from"
	OpNetworkCloseStream  = "Network.close_stream"
	OpNetworkExchange     = "Network.exchange"
	OpNetworkSendDatagram = "Network.send_datagram"

	OpDatabaseQuery   = "Database.query"
	OpDatabaseExecute = "Database.execute"

	OpProcessSpawn = "Process.spawn"
	OpProcessWait  = "Process.wait"
	OpProcessKill  = "Process.kill"
	OpProcessExec  = "Process.exec"

	OpQueuePublish     = "Queue.publish"
	OpQueueSubscribe   = "Queue.subscribe"
	OpQueuePoll        = "Queue.poll"
	OpQueueUnsubscribe = "Queue.unsubscribe"

	OpIPCSend    = "IPC.send"
	OpIPCReceive = "IPC.receive"

	OpScheduleAfter = "Schedule.after"
	OpScheduleEvery = "Schedule.every"
	OpScheduleNow   = "Schedule.now"

	OpConfigGet = "Config.get"

	OpTelemetryLog          = "Telemetry.log"
	OpTelemetryRecordMetric = "Telemetry.record_metric"

	OpCryptoSign      = "Crypto.sign"
	OpCryptoVerify    = "Crypto.verify"
	OpCryptoGetSecret = "Crypto.get_secret"
)

// OperationInfo describes a single entry of the operation catalog.
type OperationInfo struct {
	Name  string          `json:"name"`
	Group CapabilityGroup `json:"group"`
	// Deprecated names the replacement of a deprecated operation.
	Deprecated string `json:"deprecated,omitempty"`
}

var catalog = []OperationInfo{
	{Name: OpFileOpen, Group: GroupFile},
	{Name: OpFileRead, Group: GroupFile},
	{Name: OpFileWrite, Group: GroupFile},
	{Name: OpFileClose, Group: GroupFile},
	{Name: OpFileList, Group: GroupFile},
	{Name: OpFileDelete, Group: GroupFile},
	{Name: OpFileReadAll, Group: GroupFile},
	{Name: OpFileWriteAll, Group: GroupFile},

	{Name: OpObjectStorePut, Group: GroupObjectStore},
	{Name: OpObjectStoreGet, Group: GroupObjectStore},
	{Name: OpObjectStoreDelete, Group: GroupObjectStore},
	{Name: OpObjectStoreList, Group: GroupObjectStore},

	{Name: OpNetworkRequest, Group: GroupNetwork},
	{Name: OpNetworkOpenStream, Group: GroupNetwork},
	{Name: OpNetworkSendOn, Group: GroupNetwork},
	{Name: OpNetworkReceiveFrom, Group: GroupNetwork},
	{Name: OpNetworkCloseStream, Group: GroupNetwork},
	{Name: OpNetworkExchange, Group: GroupNetwork},
	{Name: OpNetworkSendDatagram, Group: GroupNetwork},

	{Name: OpDatabaseQuery, Group: GroupDatabase},
	{Name: OpDatabaseExecute, Group: GroupDatabase},

	{Name: OpProcessSpawn, Group: GroupProcess},
	{Name: OpProcessWait, Group: GroupProcess},
	{Name: OpProcessKill, Group: GroupProcess},
	{Name: OpProcessExec, Group: GroupProcess, Deprecated: OpProcessSpawn + " + " + OpProcessWait},

	{Name: OpQueuePublish, Group: GroupQueue},
	{Name: OpQueueSubscribe, Group: GroupQueue},
	{Name: OpQueuePoll, Group: GroupQueue},
	{Name: OpQueueUnsubscribe, Group: GroupQueue},

	{Name: OpIPCSend, Group: GroupIPC},
	{Name: OpIPCReceive, Group: GroupIPC},

	{Name: OpScheduleAfter, Group: GroupSchedule},
	{Name: OpScheduleEvery, Group: GroupSchedule},
	{Name: OpScheduleNow, Group: GroupSchedule},

	{Name: OpConfigGet, Group: GroupConfig},

	{Name: OpTelemetryLog, Group: GroupTelemetry},
	{Name: OpTelemetryRecordMetric, Group: GroupTelemetry},

	{Name: OpCryptoSign, Group: GroupCrypto},
	{Name: OpCryptoVerify, Group: GroupCrypto},
	{Name: OpCryptoGetSecret, Group: GroupCrypto},
}

// Operations returns the full operation catalog in group order.
func Operations() []OperationInfo {
	out := make([]OperationInfo, len(catalog))
	copy(out, catalog)
	return out
}

// GroupOf returns the group an operation name belongs to.
func GroupOf(op string) (CapabilityGroup, bool) {
	group, _, ok := strings.Cut(op, ".")
	if !ok {
		return "", false
	}

	return ParseGroup(group)
}
