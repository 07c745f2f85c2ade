// Package sale finalizes transactions: it records the receipt with the
// backend and, only once that is confirmed, registers the timed rentals the
// receipt contains.
package sale

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/funhour/posd/internal/domain"
	"github.com/funhour/posd/internal/observability"
	"github.com/google/uuid"
)

var (
	ErrNoCashSession     = errors.New("no open cash session")
	ErrUnknownService    = errors.New("unknown service")
	ErrInsufficientStock = errors.New("selected quantity exceeds available stock")
	ErrBadPaymentType    = errors.New("payment type must be cash or card")
)

// Backend is the subset of the venue API client the composer needs.
type Backend interface {
	CreateReceipt(ctx context.Context, receipt domain.Receipt) (string, error)
	UpdateInventory(ctx context.Context, productID string, inventory int) error
	PrintReceipt(ctx context.Context, receiptID string) error
}

// Tracker receives the rentals created by a confirmed sale.
type Tracker interface {
	Enqueue(rentals ...domain.Rental)
}

// Order is a cashier-submitted transaction before finalization.
type Order struct {
	CustomerName string
	MobileNumber string
	ServiceIDs   []int
	Products     []OrderProduct
	PaymentType  string
	CashID       string
}

// OrderProduct pairs a backend product with the quantity being sold. The
// inventory on the product is the count the cashier saw when building the
// order.
type OrderProduct struct {
	Product  domain.Product
	Quantity int
}

// Result reports a finalized sale. InventoryErr and PrintErr are follow-up
// failures after the receipt was durably recorded; they never roll the sale
// or its rentals back.
type Result struct {
	ReceiptID    string
	Rentals      []domain.Rental
	InventoryErr error
	PrintErr     error
}

type Composer struct {
	backend Backend
	tracker Tracker
	locale  string
	logger  *slog.Logger
	clock   func() time.Time
}

// Option customizes a Composer.
type Option func(*Composer)

// WithClock replaces the time source used for receipt and expiry timestamps.
func WithClock(clock func() time.Time) Option {
	return func(c *Composer) { c.clock = clock }
}

func NewComposer(backend Backend, tracker Tracker, locale string, logger *slog.Logger, opts ...Option) *Composer {
	c := &Composer{
		backend: backend,
		tracker: tracker,
		locale:  locale,
		logger:  logger,
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Finalize runs the two-phase sequence: phase one records the receipt with
// the backend; phase two, entered only on confirmed success, registers one
// rental per timed service. Inventory decrements and the print job follow and
// fail independently. On a phase-one error nothing is enqueued and the
// cashier's order is untouched, ready for retry.
func (c *Composer) Finalize(ctx context.Context, order Order) (*Result, error) {
	if order.CashID == "" {
		return nil, ErrNoCashSession
	}
	if order.PaymentType != "cash" && order.PaymentType != "card" {
		return nil, ErrBadPaymentType
	}

	services := make([]domain.Service, 0, len(order.ServiceIDs))
	for _, id := range order.ServiceIDs {
		svc, ok := domain.ServiceByID(id)
		if !ok {
			return nil, fmt.Errorf("%w: id %d", ErrUnknownService, id)
		}
		services = append(services, svc)
	}

	for _, p := range order.Products {
		if p.Quantity <= 0 {
			return nil, fmt.Errorf("invalid quantity %d for product %s", p.Quantity, p.Product.Name)
		}
		if p.Quantity > p.Product.Inventory {
			return nil, fmt.Errorf("%w: %s", ErrInsufficientStock, p.Product.Name)
		}
	}

	now := c.clock()
	receipt := c.buildReceipt(order, services, now)

	receiptID, err := c.backend.CreateReceipt(ctx, receipt)
	if err != nil {
		return nil, err
	}
	observability.RecordReceiptCreated()
	c.logger.Info("receipt saved", "receipt_id", receiptID, "total", receipt.Total, "payment", receipt.PaymentType)

	rentals := c.buildRentals(order, services, now)
	c.tracker.Enqueue(rentals...)

	result := &Result{ReceiptID: receiptID, Rentals: rentals}
	result.InventoryErr = c.decrementInventory(ctx, order.Products)
	if err := c.backend.PrintReceipt(ctx, receiptID); err != nil {
		c.logger.Warn("print dispatch failed", "receipt_id", receiptID, "error", err)
		result.PrintErr = err
	}
	return result, nil
}

func (c *Composer) buildReceipt(order Order, services []domain.Service, now time.Time) domain.Receipt {
	var total float64
	for _, s := range services {
		total += s.Price
	}
	products := make([]domain.ReceiptProduct, 0, len(order.Products))
	for _, p := range order.Products {
		total += p.Product.Price * float64(p.Quantity)
		products = append(products, domain.ReceiptProduct{
			ID:       p.Product.ID,
			Name:     p.Product.Name,
			Price:    p.Product.Price,
			Quantity: p.Quantity,
		})
	}

	return domain.Receipt{
		CustomerName: order.CustomerName,
		MobileNumber: order.MobileNumber,
		Services:     services,
		Products:     products,
		PaymentType:  order.PaymentType,
		Total:        total,
		VAT:          total * domain.VATRate,
		CashID:       order.CashID,
		CreatedAt:    now.UnixMilli(),
	}
}

// buildRentals produces one rental per timed service line. The display name
// is resolved for the terminal's locale here, at creation time, and the
// expiry instant is fixed and never recomputed.
func (c *Composer) buildRentals(order Order, services []domain.Service, now time.Time) []domain.Rental {
	rentals := make([]domain.Rental, 0, len(services))
	for _, s := range services {
		rentals = append(rentals, domain.Rental{
			ID:           uuid.NewString(),
			CustomerName: order.CustomerName,
			MobileNumber: order.MobileNumber,
			ServiceName:  s.LocalName(c.locale),
			ExpireAt:     now.Add(s.Duration()).UnixMilli(),
		})
	}
	return rentals
}

// decrementInventory pushes the post-sale counts to the backend. Failures are
// collected rather than aborting: the receipt is already saved and there is
// no distributed transaction across the two calls.
func (c *Composer) decrementInventory(ctx context.Context, products []OrderProduct) error {
	var errs []error
	for _, p := range products {
		newCount := p.Product.Inventory - p.Quantity
		if err := c.backend.UpdateInventory(ctx, p.Product.ID, newCount); err != nil {
			c.logger.Warn("inventory update failed", "product", p.Product.Name, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
