package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/funhour/posd/internal/domain"
	"github.com/funhour/posd/internal/sale"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, message string) {
	s.writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// saleRequest is the cashier's order as submitted by the sale screen.
type saleRequest struct {
	CustomerName string            `json:"customerName"`
	MobileNumber string            `json:"mobileNumber"`
	ServiceIDs   []int             `json:"serviceIds"`
	Products     []saleRequestItem `json:"products"`
	PaymentType  string            `json:"paymentType"`
}

type saleRequestItem struct {
	domain.Product
	Quantity int `json:"quantity"`
}

type saleResponse struct {
	ReceiptID string          `json:"receiptId"`
	Rentals   []domain.Rental `json:"rentals"`
	Warnings  []string        `json:"warnings,omitempty"`
}

func (s *Server) handleCreateSale(w http.ResponseWriter, r *http.Request) {
	var req saleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	session, err := s.backend.CashSession(r.Context(), s.cashierEmail)
	if err != nil {
		s.logger.Error("cash session lookup failed", "error", err)
		s.writeError(w, http.StatusBadGateway, "backend_unavailable", "could not reach the venue backend")
		return
	}
	if session == nil {
		s.writeError(w, http.StatusConflict, "no_cash_session", "open the cash to generate receipt")
		return
	}

	order := sale.Order{
		CustomerName: req.CustomerName,
		MobileNumber: req.MobileNumber,
		ServiceIDs:   req.ServiceIDs,
		PaymentType:  req.PaymentType,
		CashID:       session.ID,
	}
	for _, item := range req.Products {
		order.Products = append(order.Products, sale.OrderProduct{Product: item.Product, Quantity: item.Quantity})
	}

	result, err := s.composer.Finalize(r.Context(), order)
	switch {
	case err == nil:
	case errors.Is(err, sale.ErrInsufficientStock):
		s.writeError(w, http.StatusUnprocessableEntity, "insufficient_stock", err.Error())
		return
	case errors.Is(err, sale.ErrUnknownService), errors.Is(err, sale.ErrBadPaymentType):
		s.writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	case errors.Is(err, sale.ErrNoCashSession):
		s.writeError(w, http.StatusConflict, "no_cash_session", err.Error())
		return
	default:
		s.logger.Error("sale finalization failed", "error", err)
		s.writeError(w, http.StatusBadGateway, "sale_failed", "failed to save receipt, nothing was recorded; retry the sale")
		return
	}

	resp := saleResponse{ReceiptID: result.ReceiptID, Rentals: result.Rentals}
	if result.InventoryErr != nil {
		resp.Warnings = append(resp.Warnings, "inventory update failed; correct stock counts manually")
	}
	if result.PrintErr != nil {
		resp.Warnings = append(resp.Warnings, "receipt print failed; reprint from the backend")
	}
	s.writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.backend.Products(r.Context())
	if err != nil {
		s.logger.Error("product fetch failed", "error", err)
		s.writeError(w, http.StatusBadGateway, "backend_unavailable", "failed to load products")
		return
	}
	s.writeJSON(w, http.StatusOK, products)
}

func (s *Server) handleListServices(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, domain.Catalog)
}

func (s *Server) handleListRentals(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.tracker.Active())
}

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.alerts.Pending())
}

func (s *Server) handleAcknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_request", "alert index must be a number")
		return
	}
	if err := s.alerts.Acknowledge(index); err != nil {
		s.writeError(w, http.StatusNotFound, "alert_not_found", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetCash(w http.ResponseWriter, r *http.Request) {
	session, err := s.backend.CashSession(r.Context(), s.cashierEmail)
	if err != nil {
		s.logger.Error("cash session lookup failed", "error", err)
		s.writeError(w, http.StatusBadGateway, "backend_unavailable", "failed to load cash session")
		return
	}
	s.writeJSON(w, http.StatusOK, session)
}

type openCashRequest struct {
	OpeningAmount float64 `json:"openingCashAmount"`
}

func (s *Server) handleOpenCash(w http.ResponseWriter, r *http.Request) {
	var req openCashRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if req.OpeningAmount <= 0 {
		s.writeError(w, http.StatusBadRequest, "invalid_request", "opening cash amount must be positive")
		return
	}

	existing, err := s.backend.CashSession(r.Context(), s.cashierEmail)
	if err != nil {
		s.logger.Error("cash session lookup failed", "error", err)
		s.writeError(w, http.StatusBadGateway, "backend_unavailable", "failed to load cash session")
		return
	}
	if existing != nil {
		s.writeError(w, http.StatusConflict, "cash_already_open", "close the current cash before opening a new one")
		return
	}

	id, err := s.backend.OpenCash(r.Context(), domain.CashSession{
		CashierEmail:  s.cashierEmail,
		OpeningAmount: req.OpeningAmount,
		OpeningTime:   time.Now().UnixMilli(),
	})
	if err != nil {
		s.logger.Error("cash open failed", "error", err)
		s.writeError(w, http.StatusBadGateway, "backend_unavailable", "failed to open cash session")
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{"insertedId": id})
}

type closeCashRequest struct {
	ClosingAmount float64 `json:"closingCashAmount"`
}

type closeCashResponse struct {
	Closed   bool     `json:"closed"`
	Warnings []string `json:"warnings,omitempty"`
}

func (s *Server) handleCloseCash(w http.ResponseWriter, r *http.Request) {
	var req closeCashRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if req.ClosingAmount <= 0 {
		s.writeError(w, http.StatusBadRequest, "invalid_request", "closing cash amount must be positive")
		return
	}

	session, err := s.backend.CashSession(r.Context(), s.cashierEmail)
	if err != nil {
		s.logger.Error("cash session lookup failed", "error", err)
		s.writeError(w, http.StatusBadGateway, "backend_unavailable", "failed to load cash session")
		return
	}
	if session == nil {
		s.writeError(w, http.StatusConflict, "no_cash_session", "can't close cash without opening cash")
		return
	}

	if err := s.backend.CloseCash(r.Context(), session.ID, req.ClosingAmount, time.Now().UnixMilli()); err != nil {
		s.logger.Error("cash close failed", "error", err)
		s.writeError(w, http.StatusBadGateway, "backend_unavailable", "failed to close cash session")
		return
	}

	resp := closeCashResponse{Closed: true}
	if err := s.backend.PrintCashReport(r.Context(), s.cashierName, s.cashierEmail, session.ID); err != nil {
		s.logger.Warn("cash report print failed", "cash_id", session.ID, "error", err)
		resp.Warnings = append(resp.Warnings, "cash report print failed")
	}
	s.writeJSON(w, http.StatusOK, resp)
}
