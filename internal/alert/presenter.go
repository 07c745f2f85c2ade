// Package alert turns detected rental expiries into an acknowledgeable list
// with a single shared audible loop.
package alert

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/funhour/posd/internal/domain"
	"github.com/funhour/posd/internal/observability"
)

// Presenter owns the ordered sequence of expired, unacknowledged rentals and
// the one looping Player behind it. Entries keep insertion order, which is
// the order expiry was detected; stacking alerts never stacks sound.
type Presenter struct {
	player Player
	logger *slog.Logger

	mu      sync.Mutex
	expired []domain.Rental
}

func NewPresenter(player Player, logger *slog.Logger) *Presenter {
	return &Presenter{player: player, logger: logger}
}

// Add appends an expired rental to the sequence. The player starts only on
// the empty-to-non-empty transition, so simultaneous expiries share one loop.
// A blocked or failing audio start degrades to visual-only alerting and is
// never surfaced as an error.
func (p *Presenter) Add(rental domain.Rental) {
	p.mu.Lock()
	p.expired = append(p.expired, rental)
	first := len(p.expired) == 1
	p.mu.Unlock()

	if first {
		if err := p.player.Play(); err != nil {
			p.logger.Warn("alert sound unavailable, continuing visual-only", "error", err)
		}
	}
	p.logger.Info("alert raised", "rental_id", rental.ID, "service", rental.ServiceName, "customer", rental.CustomerName)
}

// Acknowledge removes exactly the entry at index. When the last entry is
// cleared the audio pauses and rewinds so the next expiry sounds instantly.
func (p *Presenter) Acknowledge(index int) error {
	p.mu.Lock()
	if index < 0 || index >= len(p.expired) {
		p.mu.Unlock()
		return fmt.Errorf("no alert at index %d", index)
	}
	rental := p.expired[index]
	p.expired = append(p.expired[:index], p.expired[index+1:]...)
	empty := len(p.expired) == 0
	p.mu.Unlock()

	if empty {
		p.player.Pause()
		p.player.Reset()
	}
	observability.RecordAlertAcknowledged()
	p.logger.Info("alert acknowledged", "rental_id", rental.ID, "remaining", !empty)
	return nil
}

// Pending returns a snapshot of the unacknowledged sequence in order.
func (p *Presenter) Pending() []domain.Rental {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.Rental(nil), p.expired...)
}
