package idf

import (
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func writeMarker(t *testing.T, m *Marker, owner string, at time.Time) {
	t.Helper()
	data, err := json.Marshal(MarkerInfo{Owner: owner, WrittenAt: at})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(m.Path(), data, 0o644))
}

func TestMarker_AcquireRelease(t *testing.T) {
	clock := newFakeClock()
	m, err := NewMarker(t.TempDir(), WithMarkerClock(clock.now))
	require.NoError(t, err)

	release, err := m.Acquire()
	require.NoError(t, err)

	info, ok, err := m.Read()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, m.Owner(), info.Owner)
	assert.True(t, clock.t.Equal(info.WrittenAt))

	release()
	release()
	_, ok, err = m.Read()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMarker_HeldByOther(t *testing.T) {
	clock := newFakeClock()
	dir := t.TempDir()
	mine, err := NewMarker(dir, WithMarkerClock(clock.now))
	require.NoError(t, err)
	theirs, err := NewMarker(dir, WithMarkerClock(clock.now))
	require.NoError(t, err)

	release, err := theirs.Acquire()
	require.NoError(t, err)
	defer release()

	_, err = mine.Acquire()
	assert.ErrorIs(t, err, ErrMarkerHeld)
}

func TestMarker_StaleIsRemoved(t *testing.T) {
	clock := newFakeClock()
	m, err := NewMarker(t.TempDir(), WithMarkerClock(clock.now), WithStaleAfter(time.Minute))
	require.NoError(t, err)

	writeMarker(t, m, "crashed-worker", clock.t)
	clock.advance(2 * time.Minute)

	release, err := m.Acquire()
	require.NoError(t, err)
	defer release()

	info, _, err := m.Read()
	require.NoError(t, err)
	assert.Equal(t, m.Owner(), info.Owner)
}

func TestMarker_TakeOver(t *testing.T) {
	clock := newFakeClock()
	m, err := NewMarker(t.TempDir(), WithMarkerClock(clock.now))
	require.NoError(t, err)
	writeMarker(t, m, "other", clock.t)

	release, err := m.TakeOver()
	require.NoError(t, err)

	info, _, err := m.Read()
	require.NoError(t, err)
	assert.Equal(t, m.Owner(), info.Owner)

	release()
	_, ok, err := m.Read()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMarker_ReleaseKeepsForeignMarker(t *testing.T) {
	clock := newFakeClock()
	m, err := NewMarker(t.TempDir(), WithMarkerClock(clock.now))
	require.NoError(t, err)

	release, err := m.Acquire()
	require.NoError(t, err)

	// Another worker took over in the meantime
	writeMarker(t, m, "other", clock.t)
	release()

	info, ok, err := m.Read()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "other", info.Owner)
}

func TestMarker_UnreadableContentUsesModTime(t *testing.T) {
	m, err := NewMarker(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(m.Path(), []byte("12345"), 0o644))

	info, ok, err := m.Read()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, info.Owner)
	assert.False(t, m.Stale(info))

	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(m.Path(), old, old))
	info, _, err = m.Read()
	require.NoError(t, err)
	assert.True(t, m.Stale(info))
}
