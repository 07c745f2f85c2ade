package rental

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/funhour/posd/internal/domain"
	"github.com/funhour/posd/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a settable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// recordingSink collects emitted rentals in order.
type recordingSink struct {
	mu      sync.Mutex
	rentals []domain.Rental
}

func (s *recordingSink) Add(r domain.Rental) {
	s.mu.Lock()
	s.rentals = append(s.rentals, r)
	s.mu.Unlock()
}

func (s *recordingSink) all() []domain.Rental {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Rental(nil), s.rentals...)
}

// failingStore errors on every operation.
type failingStore struct{}

func (failingStore) Load() ([]domain.Rental, error) { return nil, errors.New("disk gone") }
func (failingStore) Save([]domain.Rental) error     { return errors.New("disk gone") }

func newTestTracker(t *testing.T) (*Tracker, *recordingSink, *fakeClock, *store.FileRentalStore) {
	t.Helper()
	st, err := store.NewFileRentalStore(filepath.Join(t.TempDir(), "rentals.json"))
	require.NoError(t, err)
	clock := &fakeClock{now: time.UnixMilli(1_000_000)}
	sink := &recordingSink{}
	tr := NewTracker(st, sink, slog.Default(), WithClock(clock.Now))
	tr.Initialize()
	return tr, sink, clock, st
}

func rentalAt(id, name string, expireAt int64) domain.Rental {
	return domain.Rental{ID: id, CustomerName: name, ServiceName: "1 Hour", ExpireAt: expireAt}
}

func TestTickBeforeAndAfterExpiry(t *testing.T) {
	tr, sink, clock, _ := newTestTracker(t)
	start := clock.Now()

	tr.Enqueue(domain.Rental{
		CustomerName: "Ali",
		MobileNumber: "0500",
		ServiceName:  "1 Hour",
		ExpireAt:     start.UnixMilli() + 60000,
	})

	clock.Set(start.Add(59 * time.Second))
	tr.Tick()
	assert.Len(t, tr.Active(), 1)
	assert.Empty(t, sink.all())

	clock.Set(start.Add(61 * time.Second))
	tr.Tick()
	assert.Empty(t, tr.Active())
	require.Len(t, sink.all(), 1)
	assert.Equal(t, "Ali", sink.all()[0].CustomerName)
}

func TestNoDoubleEmission(t *testing.T) {
	tr, sink, clock, _ := newTestTracker(t)
	now := clock.Now().UnixMilli()

	tr.Enqueue(rentalAt("a", "Ali", now+1000))

	clock.Set(time.UnixMilli(now + 2000))
	tr.Tick()
	tr.Tick()
	tr.Tick()

	assert.Len(t, sink.all(), 1)
}

func TestExpiryBoundary(t *testing.T) {
	tr, sink, clock, _ := newTestTracker(t)
	now := clock.Now().UnixMilli()

	tr.Enqueue(rentalAt("exact", "A", now), rentalAt("later", "B", now+1))

	tr.Tick()

	emitted := sink.all()
	require.Len(t, emitted, 1)
	assert.Equal(t, "exact", emitted[0].ID)
	require.Len(t, tr.Active(), 1)
	assert.Equal(t, "later", tr.Active()[0].ID)
}

func TestSimultaneousExpiryKeepsEnqueueOrder(t *testing.T) {
	tr, sink, clock, _ := newTestTracker(t)
	deadline := clock.Now().UnixMilli() + 5000

	tr.Enqueue(rentalAt("first", "A", deadline))
	tr.Enqueue(rentalAt("second", "B", deadline))

	clock.Set(time.UnixMilli(deadline))
	tr.Tick()

	emitted := sink.all()
	require.Len(t, emitted, 2)
	assert.Equal(t, "first", emitted[0].ID)
	assert.Equal(t, "second", emitted[1].ID)
}

func TestPersistenceRoundTrip(t *testing.T) {
	tr, _, clock, st := newTestTracker(t)
	now := clock.Now().UnixMilli()

	r1 := rentalAt("r1", "Ali", now+60000)
	r2 := rentalAt("r2", "Sara", now+120000)
	tr.Enqueue(r1, r2)

	// Fresh tracker over the same file simulates a restart.
	reloaded := NewTracker(st, &recordingSink{}, slog.Default(), WithClock(clock.Now))
	reloaded.Initialize()

	assert.ElementsMatch(t, []domain.Rental{r1, r2}, reloaded.Active())
}

func TestInitializeDropsAlreadyExpiredWithoutAlert(t *testing.T) {
	st, err := store.NewFileRentalStore(filepath.Join(t.TempDir(), "rentals.json"))
	require.NoError(t, err)
	clock := &fakeClock{now: time.UnixMilli(10_000)}
	require.NoError(t, st.Save([]domain.Rental{
		rentalAt("stale", "Old", 5_000),
		rentalAt("live", "New", 60_000),
	}))

	sink := &recordingSink{}
	tr := NewTracker(st, sink, slog.Default(), WithClock(clock.Now))
	tr.Initialize()

	assert.Empty(t, sink.all())
	require.Len(t, tr.Active(), 1)
	assert.Equal(t, "live", tr.Active()[0].ID)

	// The pruned set is what survives the next restart.
	persisted, err := st.Load()
	require.NoError(t, err)
	require.Len(t, persisted, 1)
	assert.Equal(t, "live", persisted[0].ID)
}

func TestTickWithoutExpiriesDoesNotRewriteSlot(t *testing.T) {
	tr, _, clock, st := newTestTracker(t)
	now := clock.Now().UnixMilli()

	tr.Enqueue(rentalAt("r1", "Ali", now+60000))

	// Corrupt the slot behind the tracker's back; an expiry-free tick must
	// leave it untouched.
	require.NoError(t, st.Save([]domain.Rental{rentalAt("marker", "M", now+999999)}))
	tr.Tick()

	persisted, err := st.Load()
	require.NoError(t, err)
	require.Len(t, persisted, 1)
	assert.Equal(t, "marker", persisted[0].ID)
}

func TestFailOpenOnStorageErrors(t *testing.T) {
	clock := &fakeClock{now: time.UnixMilli(1_000_000)}
	sink := &recordingSink{}
	tr := NewTracker(failingStore{}, sink, slog.Default(), WithClock(clock.Now))

	tr.Initialize()
	assert.Empty(t, tr.Active())

	now := clock.Now().UnixMilli()
	tr.Enqueue(rentalAt("a", "Ali", now+1000))
	assert.Len(t, tr.Active(), 1)

	clock.Set(time.UnixMilli(now + 2000))
	tr.Tick()
	assert.Len(t, sink.all(), 1)
}

func TestRunRefusesDuplicateLoops(t *testing.T) {
	tr, _, _, _ := newTestTracker(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tr.Run(ctx, 10*time.Millisecond) }()

	require.Eventually(t, func() bool {
		tr.mu.Lock()
		defer tr.mu.Unlock()
		return tr.running
	}, time.Second, 5*time.Millisecond)

	assert.ErrorIs(t, tr.Run(ctx, 10*time.Millisecond), ErrAlreadyRunning)

	cancel()
	err := <-done
	assert.ErrorIs(t, err, context.Canceled)

	// After shutdown the loop can be started again.
	ctx2, cancel2 := context.WithCancel(context.Background())
	cancel2()
	assert.ErrorIs(t, tr.Run(ctx2, 10*time.Millisecond), context.Canceled)
}
