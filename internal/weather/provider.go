package weather

import (
	"context"
	"errors"
	"time"
)

// Provider abstracts the sensor service transport. Get issues one GET and
// returns the body of a 2xx response. Failures should be *FetchError values
// of kind ErrTransport; any other error is treated as one.
type Provider interface {
	Name() string
	Get(ctx context.Context, url string) ([]byte, error)
}

// LinkChecker reports whether the device has a usable network link.
// A nil error means connected; the error text is diagnostic.
type LinkChecker interface {
	Check() error
}

// ErrCorruptState is returned (wrapped) by StateStore.Load when retained
// data exists but cannot be decoded.
var ErrCorruptState = errors.New("corrupt retained state")

// StateStore retains State across suspend/resume. Load of a store that has
// never been saved returns the zero State and no error; unreadable data is
// reported as ErrCorruptState.
type StateStore interface {
	Load() (State, error)
	Save(st State) error
}

// HistoryStore keeps successful updates for the read surface.
type HistoryStore interface {
	SaveSnapshot(snapshot Snapshot)
	GetLatest() (Snapshot, error)
	GetRange(from, to time.Time) ([]Snapshot, error)
}

// Publisher pushes a fresh reading to the display.
type Publisher interface {
	Publish(ctx context.Context, st State, snapshot Snapshot) error
}

// Recorder receives poll outcomes; kind is "" on success.
type Recorder interface {
	ObservePoll(kind string, took time.Duration)
	ObserveState(st State)
}
