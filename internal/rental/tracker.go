// Package rental owns the durable set of active timed rentals and detects
// their expiry on a fixed cadence. Detection latency is bounded by the tick
// interval; a per-deadline timer would be more precise but the venue runs on
// minute granularity.
package rental

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/funhour/posd/internal/domain"
	"github.com/funhour/posd/internal/observability"
)

// ErrAlreadyRunning is returned by Run when a tick loop is already active.
var ErrAlreadyRunning = errors.New("tracker is already running")

// Store persists the active-rental list across restarts.
type Store interface {
	Load() ([]domain.Rental, error)
	Save(rentals []domain.Rental) error
}

// Sink receives each rental exactly once, at the tick that detects its expiry.
type Sink interface {
	Add(rental domain.Rental)
}

// Tracker is the exclusive owner of the active set. Enqueue and Tick are
// serialized by a mutex, so partition-persist-emit is one step and a rental
// can never be observed by a tick while an enqueue is mid-write.
type Tracker struct {
	store  Store
	sink   Sink
	logger *slog.Logger
	clock  func() time.Time

	mu      sync.Mutex
	active  []domain.Rental
	running bool
}

// Option customizes a Tracker.
type Option func(*Tracker)

// WithClock replaces the time source, letting tests drive expiry directly.
func WithClock(clock func() time.Time) Option {
	return func(t *Tracker) { t.clock = clock }
}

func NewTracker(store Store, sink Sink, logger *slog.Logger, opts ...Option) *Tracker {
	t := &Tracker{
		store:  store,
		sink:   sink,
		logger: logger,
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Initialize loads the active set from the store. Unreadable state is treated
// as empty: the tracker fails open and keeps working in memory. Rentals whose
// deadline already passed while the service was down are dropped without an
// alert; surfacing them minutes or hours late was judged worse than losing
// them.
func (t *Tracker) Initialize() {
	rentals, err := t.store.Load()
	if err != nil {
		t.logger.Warn("failed to load rental state, starting empty", "error", err)
		rentals = nil
	}

	now := t.clock()
	kept := rentals[:0]
	dropped := 0
	for _, r := range rentals {
		if r.Expired(now) {
			dropped++
			continue
		}
		kept = append(kept, r)
	}

	t.mu.Lock()
	t.active = kept
	t.mu.Unlock()

	if dropped > 0 {
		t.logger.Info("dropped rentals that expired while the service was down", "count", dropped)
		t.persist(kept)
	}
	observability.SetActiveRentals(len(kept))
	t.logger.Info("rental tracker initialized", "active", len(kept))
}

// Enqueue appends newly created rentals to the active set and persists the
// updated set before returning, so a restart never loses an accepted rental.
// A persist failure is logged and swallowed; the rentals stay tracked in
// memory for the rest of the session.
func (t *Tracker) Enqueue(rentals ...domain.Rental) {
	if len(rentals) == 0 {
		return
	}

	t.mu.Lock()
	t.active = append(t.active, rentals...)
	total := len(t.active)
	t.persist(t.active)
	t.mu.Unlock()

	observability.SetActiveRentals(total)
	for _, r := range rentals {
		t.logger.Info("rental tracked",
			"rental_id", r.ID,
			"service", r.ServiceName,
			"customer", r.CustomerName,
			"expire_at", time.UnixMilli(r.ExpireAt),
		)
	}
}

// Tick samples the clock once and moves every rental whose deadline has
// passed out of the active set, persists the remainder, and hands the expired
// ones to the sink in their active-set order. A rental leaves the active set
// exactly once, so it can never be emitted twice. When nothing expired the
// slot is not rewritten.
func (t *Tracker) Tick() {
	now := t.clock()
	observability.RecordTick()

	t.mu.Lock()
	var stillActive, justExpired []domain.Rental
	for _, r := range t.active {
		if r.Expired(now) {
			justExpired = append(justExpired, r)
		} else {
			stillActive = append(stillActive, r)
		}
	}
	if len(justExpired) == 0 {
		t.mu.Unlock()
		return
	}
	t.active = stillActive

	t.persist(stillActive)
	for _, r := range justExpired {
		t.logger.Info("rental expired", "rental_id", r.ID, "service", r.ServiceName, "customer", r.CustomerName)
		observability.RecordRentalExpired()
		t.sink.Add(r)
	}
	t.mu.Unlock()

	observability.SetActiveRentals(len(stillActive))
}

// Active returns a snapshot of the active set.
func (t *Tracker) Active() []domain.Rental {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]domain.Rental(nil), t.active...)
}

// Run drives Tick on the given interval until ctx is cancelled. Only one loop
// may run at a time; a second call returns ErrAlreadyRunning so a re-wired
// tracker cannot leak a duplicate timer.
func (t *Tracker) Run(ctx context.Context, interval time.Duration) error {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		return ErrAlreadyRunning
	}
	t.running = true
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		t.running = false
		t.mu.Unlock()
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	t.logger.Info("rental tracker running", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			t.logger.Info("rental tracker stopped")
			return ctx.Err()
		case <-ticker.C:
			t.Tick()
		}
	}
}

func (t *Tracker) persist(rentals []domain.Rental) {
	if err := t.store.Save(rentals); err != nil {
		t.logger.Warn("failed to persist rental state", "error", err)
	}
}
