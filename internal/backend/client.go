// Package backend is the JSON client for the venue's REST API, the system's
// source of truth for products, receipts, cash sessions, and printing.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/funhour/posd/internal/domain"
)

type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Products fetches the retail catalog with current inventory.
func (c *Client) Products(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	if err := c.do(ctx, http.MethodGet, "/products", nil, &products); err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	return products, nil
}

// UpdateInventory sets a product's inventory to the given count.
func (c *Client) UpdateInventory(ctx context.Context, productID string, inventory int) error {
	body := map[string]int{"inventory": inventory}
	if err := c.do(ctx, http.MethodPut, "/products/"+url.PathEscape(productID), body, nil); err != nil {
		return fmt.Errorf("failed to update inventory for product %s: %w", productID, err)
	}
	return nil
}

// CreateReceipt records the sale. It returns the backend's receipt id; a
// response without one is treated as a failed insert.
func (c *Client) CreateReceipt(ctx context.Context, receipt domain.Receipt) (string, error) {
	var resp struct {
		InsertedID string `json:"insertedId"`
	}
	if err := c.do(ctx, http.MethodPost, "/receipts", receipt, &resp); err != nil {
		return "", fmt.Errorf("failed to create receipt: %w", err)
	}
	if resp.InsertedID == "" {
		return "", fmt.Errorf("receipt was not inserted")
	}
	return resp.InsertedID, nil
}

// PrintReceipt dispatches a print job for a saved receipt.
func (c *Client) PrintReceipt(ctx context.Context, receiptID string) error {
	body := map[string]string{"receiptId": receiptID}
	if err := c.do(ctx, http.MethodPost, "/print", body, nil); err != nil {
		return fmt.Errorf("failed to print receipt: %w", err)
	}
	return nil
}

// CashSession fetches the cashier's open drawer session. A JSON null response
// means no session is open; that is not an error.
func (c *Client) CashSession(ctx context.Context, cashierEmail string) (*domain.CashSession, error) {
	var session *domain.CashSession
	if err := c.do(ctx, http.MethodGet, "/cashes/"+url.PathEscape(cashierEmail), nil, &session); err != nil {
		return nil, fmt.Errorf("failed to fetch cash session: %w", err)
	}
	return session, nil
}

// OpenCash opens a drawer session and returns its id.
func (c *Client) OpenCash(ctx context.Context, session domain.CashSession) (string, error) {
	var resp struct {
		InsertedID string `json:"insertedId"`
	}
	if err := c.do(ctx, http.MethodPost, "/cashes", session, &resp); err != nil {
		return "", fmt.Errorf("failed to open cash session: %w", err)
	}
	if resp.InsertedID == "" {
		return "", fmt.Errorf("cash session was not inserted")
	}
	return resp.InsertedID, nil
}

// CloseCash records the closing amount on an open session.
func (c *Client) CloseCash(ctx context.Context, sessionID string, amount float64, closedAt int64) error {
	body := map[string]any{
		"closingCashAmount": amount,
		"closingCashTime":   closedAt,
	}
	var resp struct {
		ModifiedCount int `json:"modifiedCount"`
	}
	if err := c.do(ctx, http.MethodPatch, "/cashes/"+url.PathEscape(sessionID), body, &resp); err != nil {
		return fmt.Errorf("failed to close cash session: %w", err)
	}
	if resp.ModifiedCount == 0 {
		return fmt.Errorf("cash session %s was not modified", sessionID)
	}
	return nil
}

// PrintCashReport dispatches the end-of-session drawer report.
func (c *Client) PrintCashReport(ctx context.Context, cashierName, cashierEmail, cashID string) error {
	body := map[string]string{
		"cashierName":  cashierName,
		"cashierEmail": cashierEmail,
		"cashId":       cashID,
	}
	if err := c.do(ctx, http.MethodPost, "/print-cash", body, nil); err != nil {
		return fmt.Errorf("failed to print cash report: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("backend returned status %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
