package idf

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// MarkerFile is the file name of the build marker.
	MarkerFile = "idf_build.lock"

	// DefaultMarkerStaleAfter is the age after which a marker counts as abandoned.
	DefaultMarkerStaleAfter = 5 * time.Minute
)

// MarkerInfo is the content of a build marker.
type MarkerInfo struct {
	Owner     string    `json:"owner"`
	WrittenAt time.Time `json:"written_at"`
}

// Marker is an advisory cross-process build lock backed by a file created
// with O_EXCL. It is not a mutex: a waiter may take over a live marker.
type Marker struct {
	path       string
	owner      string
	staleAfter time.Duration
	now        func() time.Time
}

// MarkerOption configures a Marker.
type MarkerOption func(*Marker)

// WithStaleAfter sets the age after which a marker is abandoned.
// Default is DefaultMarkerStaleAfter.
func WithStaleAfter(d time.Duration) MarkerOption {
	return func(m *Marker) {
		if d > 0 {
			m.staleAfter = d
		}
	}
}

// WithMarkerClock sets the time source.
func WithMarkerClock(now func() time.Time) MarkerOption {
	return func(m *Marker) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMarker returns a marker in dir owned by a fresh random owner id.
func NewMarker(dir string, opts ...MarkerOption) (*Marker, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	m := &Marker{
		path:       filepath.Join(dir, MarkerFile),
		owner:      uuid.NewString(),
		staleAfter: DefaultMarkerStaleAfter,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Owner returns the id this marker writes.
func (m *Marker) Owner() string {
	return m.owner
}

// Path returns the marker file path.
func (m *Marker) Path() string {
	return m.path
}

// Read returns the current marker content.
// ok is false when no marker exists.
func (m *Marker) Read() (info MarkerInfo, ok bool, err error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return MarkerInfo{}, false, nil
		}
		return MarkerInfo{}, false, err
	}
	if err := json.Unmarshal(data, &info); err != nil || info.WrittenAt.IsZero() {
		// Unreadable markers age by modification time.
		st, statErr := os.Stat(m.path)
		if statErr != nil {
			return MarkerInfo{}, false, statErr
		}
		info = MarkerInfo{WrittenAt: st.ModTime()}
	}
	return info, true, nil
}

// Stale reports whether info is older than the staleness threshold.
func (m *Marker) Stale(info MarkerInfo) bool {
	return m.now().Sub(info.WrittenAt) >= m.staleAfter
}

// Acquire creates the marker. A stale marker is removed first.
// Returns ErrMarkerHeld when a live marker of another owner exists.
// The returned release func removes the marker if this owner still holds
// it; it is safe to call more than once.
func (m *Marker) Acquire() (release func(), err error) {
	info, ok, err := m.Read()
	if err != nil {
		return nil, err
	}
	if ok {
		if !m.Stale(info) && info.Owner != m.owner {
			return nil, fmt.Errorf("%w: owner %s since %s", ErrMarkerHeld, info.Owner, info.WrittenAt.Format(time.RFC3339))
		}
		if err := m.remove(); err != nil {
			return nil, err
		}
	}
	return m.create()
}

// TakeOver replaces any existing marker with one owned by this marker.
func (m *Marker) TakeOver() (release func(), err error) {
	if err := m.remove(); err != nil {
		return nil, err
	}
	return m.create()
}

func (m *Marker) create() (func(), error) {
	f, err := os.OpenFile(m.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("%w: created concurrently", ErrMarkerHeld)
		}
		return nil, err
	}

	data, err := json.Marshal(MarkerInfo{Owner: m.owner, WrittenAt: m.now().UTC()})
	if err == nil {
		_, err = f.Write(data)
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(m.path)
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			info, ok, err := m.Read()
			if err != nil || !ok || info.Owner != m.owner {
				return
			}
			m.remove()
		})
	}, nil
}

func (m *Marker) remove() error {
	err := os.Remove(m.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
