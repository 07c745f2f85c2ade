package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/funhour/posd/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProducts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/products", r.URL.Path)
		_ = json.NewEncoder(w).Encode([]domain.Product{
			{ID: "p1", Name: "Juice", Price: 5, Inventory: 12},
		})
	}))
	defer srv.Close()

	products, err := NewClient(srv.URL).Products(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Juice", products[0].Name)
	assert.Equal(t, 12, products[0].Inventory)
}

func TestCreateReceipt(t *testing.T) {
	var received domain.Receipt
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/receipts", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		_ = json.NewEncoder(w).Encode(map[string]string{"insertedId": "rcpt-1"})
	}))
	defer srv.Close()

	id, err := NewClient(srv.URL).CreateReceipt(context.Background(), domain.Receipt{
		CustomerName: "Ali",
		PaymentType:  "cash",
		Total:        29,
		VAT:          4.35,
	})
	require.NoError(t, err)
	assert.Equal(t, "rcpt-1", id)
	assert.Equal(t, "Ali", received.CustomerName)
}

func TestCreateReceiptMissingInsertedID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{})
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).CreateReceipt(context.Background(), domain.Receipt{})
	assert.Error(t, err)
}

func TestUpdateInventory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/products/p1", r.URL.Path)
		var body map[string]int
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 9, body["inventory"])
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("{}"))
	}))
	defer srv.Close()

	err := NewClient(srv.URL).UpdateInventory(context.Background(), "p1", 9)
	require.NoError(t, err)
}

func TestCashSessionNull(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cashes/cashier@funhour.local", r.URL.Path)
		_, _ = w.Write([]byte("null"))
	}))
	defer srv.Close()

	session, err := NewClient(srv.URL).CashSession(context.Background(), "cashier@funhour.local")
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestCashSessionOpen(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(domain.CashSession{
			ID:            "cash-1",
			CashierEmail:  "cashier@funhour.local",
			OpeningAmount: 500,
			OpeningTime:   1700000000000,
		})
	}))
	defer srv.Close()

	session, err := NewClient(srv.URL).CashSession(context.Background(), "cashier@funhour.local")
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, "cash-1", session.ID)
	assert.Nil(t, session.ClosingAmount)
}

func TestCloseCashNotModified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		_ = json.NewEncoder(w).Encode(map[string]int{"modifiedCount": 0})
	}))
	defer srv.Close()

	err := NewClient(srv.URL).CloseCash(context.Background(), "cash-1", 750, 1700000000000)
	assert.Error(t, err)
}

func TestBackendErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Products(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestPrintReceipt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/print", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "rcpt-1", body["receiptId"])
		_, _ = w.Write([]byte(`{"message":"queued"}`))
	}))
	defer srv.Close()

	require.NoError(t, NewClient(srv.URL).PrintReceipt(context.Background(), "rcpt-1"))
}
