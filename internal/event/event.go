package event

// Type identifies the kind of event.
type Type int

const (
	CopyProgress Type = iota + 1
	CopyDone
	SyncDone
	CopyFailed
)

var typeNames = [...]string{
	CopyProgress: "CopyProgress",
	CopyDone:     "CopyDone",
	SyncDone:     "SyncDone",
	CopyFailed:   "CopyFailed",
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "Unknown"
}

// Event represents a single progress report from the copier.
type Event struct {
	Type  Type
	Bytes uint64 // cumulative bytes written when the event was published
	Err   error  // terminal error (CopyFailed) or flush failure (SyncDone)
}
