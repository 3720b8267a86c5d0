package extio

import (
	"net/http"
	"time"

	"github.com/mwantia/extio/log"
)

// OpenMode controls how File.open accesses a path. The zero value opens
// an existing file read-only.
type OpenMode uint8

const (
	ModeRead OpenMode = 1 << iota
	ModeWrite
	ModeCreate
	ModeTruncate
	ModeAppend

	ModeReadWrite = ModeRead | ModeWrite
)

// IsReadable reports whether reads are allowed; the zero mode is read-only.
func (m OpenMode) IsReadable() bool {
	return m == 0 || m&ModeRead != 0
}

func (m OpenMode) IsWritable() bool {
	return m&(ModeWrite|ModeAppend) != 0
}

func (m OpenMode) Has(flag OpenMode) bool {
	return m&flag == flag
}

// Entry is a single element returned by File.list.
type Entry struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	IsDir   bool      `json:"is_dir"`
	ModTime time.Time `json:"mod_time"`
}

// Request is the input of Network.request. An empty Method means GET.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Response is the result of Network.request.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Frame is a single message received from a stream. EndOfStream is the
// marker for a stream closed by the peer; it is a success, not a failure.
type Frame struct {
	Data        []byte
	EndOfStream bool
}

// Row is a single result row; values are ordered like ResultSet.Columns.
type Row []any

// ResultSet is the result of Database.query.
type ResultSet struct {
	Columns []string
	Rows    []Row
}

// Command is the input of Process.spawn. A nil Env means an empty
// environment unless the backend is configured to inherit its own.
type Command struct {
	Name string
	Args []string
	Env  map[string]string
	Dir  string
}

// ExecResult is the result of the deprecated Process.exec.
type ExecResult struct {
	ExitCode int
	Output   []byte
}

// Message is a payload delivered through Queue or IPC.
type Message struct {
	Topic      string
	Data       []byte
	ReceivedAt time.Time
}

// Delivery is the result of Queue.poll and IPC.receive. TimedOut is the
// timeout marker: no message arrived within the requested timeout.
type Delivery struct {
	Message  Message
	TimedOut bool
}

// Tick is a single event produced by Schedule.every.
type Tick struct {
	Seq  uint64
	Time time.Time
}

// Level is the severity of a Telemetry.log entry.
type Level uint8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// LogLevel maps l onto the levels of the log package.
func (l Level) LogLevel() log.LogLevel {
	switch l {
	case LevelDebug:
		return log.Debug
	case LevelWarn:
		return log.Warn
	case LevelError:
		return log.Error
	default:
		return log.Info
	}
}

// Fields are structured attributes of a Telemetry.log entry.
type Fields map[string]any

// Tags are dimensions of a Telemetry.record_metric sample.
type Tags map[string]string
