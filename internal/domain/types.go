package domain

import "time"

// VATRate is the VAT applied to every receipt total.
const VATRate = 0.15

// Rental is a client-tracked, time-boxed service sale. ExpireAt is fixed at
// creation and never mutated; the backend has no counterpart for this record.
type Rental struct {
	ID           string `json:"id,omitempty"`
	CustomerName string `json:"customerName"`
	MobileNumber string `json:"mobileNumber"`
	ServiceName  string `json:"serviceName"`
	ExpireAt     int64  `json:"expireAt"` // epoch milliseconds
}

// Expired reports whether the rental's deadline has passed at the sampled time.
func (r Rental) Expired(now time.Time) bool {
	return r.ExpireAt <= now.UnixMilli()
}

// Service is a timed rental offering from the venue catalog.
type Service struct {
	ID              int     `json:"id"`
	Name            string  `json:"name"`
	NameAr          string  `json:"name_ar"`
	Price           float64 `json:"price"`
	DurationMinutes int     `json:"duration"`
}

// LocalName resolves the display name for the given locale ("ar" or "en").
func (s Service) LocalName(locale string) string {
	if locale == "ar" && s.NameAr != "" {
		return s.NameAr
	}
	return s.Name
}

// Duration converts the catalog duration to a time.Duration.
func (s Service) Duration() time.Duration {
	return time.Duration(s.DurationMinutes) * time.Minute
}

// Catalog is the venue's fixed service list: hourly rentals and multi-day packages.
var Catalog = []Service{
	{ID: 1, Name: "1 Hour", NameAr: "ساعة واحدة", Price: 29, DurationMinutes: 60},
	{ID: 2, Name: "2 Hours", NameAr: "ساعتين", Price: 40, DurationMinutes: 120},
	{ID: 3, Name: "3 Hours", NameAr: "ثلاث ساعات", Price: 59, DurationMinutes: 180},
	{ID: 4, Name: "5-Day Monthly Package", NameAr: "باقة شهرية 5 أيام", Price: 650, DurationMinutes: 5 * 24 * 60},
	{ID: 5, Name: "3-Day Weekly Package", NameAr: "باقة أسبوعية 3 أيام", Price: 400, DurationMinutes: 3 * 24 * 60},
}

// ServiceByID looks up a catalog entry. The second return is false for unknown ids.
func ServiceByID(id int) (Service, bool) {
	for _, s := range Catalog {
		if s.ID == id {
			return s, true
		}
	}
	return Service{}, false
}

// Product is a retail item owned by the backend; ID is the backend's record id.
type Product struct {
	ID        string  `json:"_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Inventory int     `json:"inventory"`
}

// ReceiptProduct is a product line on a receipt.
type ReceiptProduct struct {
	ID       string  `json:"_id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// Receipt is the wire shape posted to the backend when a sale is finalized.
type Receipt struct {
	CustomerName string           `json:"customerName"`
	MobileNumber string           `json:"mobileNumber"`
	Services     []Service        `json:"services"`
	Products     []ReceiptProduct `json:"products"`
	PaymentType  string           `json:"paymentType"`
	Total        float64          `json:"total"`
	VAT          float64          `json:"vat"`
	CashID       string           `json:"cashId"`
	CreatedAt    int64            `json:"createdAt"` // epoch milliseconds
}

// CashSession is the backend's drawer record scoping today's receipts.
type CashSession struct {
	ID            string   `json:"_id,omitempty"`
	CashierEmail  string   `json:"cashierEmail"`
	OpeningAmount float64  `json:"openingCashAmount"`
	OpeningTime   int64    `json:"openingCashTime"`
	ClosingAmount *float64 `json:"closingCashAmount"`
	ClosingTime   *int64   `json:"closingCashTime"`
}
