package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"famledger/internal/auth"
	"famledger/internal/model"
	"famledger/internal/store"
)

const defaultTransactionLimit = 50

type TransactionHandler struct {
	transactions *store.TransactionStore
	logger       *slog.Logger
}

func NewTransactionHandler(transactions *store.TransactionStore, logger *slog.Logger) *TransactionHandler {
	return &TransactionHandler{transactions: transactions, logger: logger}
}

func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type        string     `json:"type"`
		Category    string     `json:"category"`
		Amount      float64    `json:"amount"`
		Description string     `json:"description"`
		OccurredAt  *time.Time `json:"occurred_at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if req.Type != model.TypeExpense && req.Type != model.TypeIncome {
		errorJSON(w, http.StatusBadRequest, "type must be EXPENSE or INCOME")
		return
	}
	if req.Category == "" {
		errorJSON(w, http.StatusBadRequest, "category is required")
		return
	}
	if req.Amount <= 0 {
		errorJSON(w, http.StatusBadRequest, "amount must be positive")
		return
	}

	occurredAt := time.Now().UTC()
	if req.OccurredAt != nil {
		occurredAt = *req.OccurredAt
	}

	t, err := h.transactions.Create(auth.UserID(r.Context()), req.Type, req.Category, req.Amount, req.Description, occurredAt)
	if err != nil {
		h.logger.Error("create transaction", "error", err)
		errorJSON(w, http.StatusInternalServerError, "failed to create transaction")
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultTransactionLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			errorJSON(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	transactions, err := h.transactions.ListByUser(auth.UserID(r.Context()), limit)
	if err != nil {
		h.logger.Error("list transactions", "error", err)
		errorJSON(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}
	if transactions == nil {
		transactions = []model.Transaction{}
	}
	writeJSON(w, http.StatusOK, transactions)
}

func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "transactionID")
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	t, err := h.transactions.GetByID(id)
	if err != nil {
		h.logger.Error("get transaction", "error", err)
		errorJSON(w, http.StatusInternalServerError, "failed to delete transaction")
		return
	}
	if t == nil || t.UserID != auth.UserID(r.Context()) {
		errorJSON(w, http.StatusNotFound, "transaction not found")
		return
	}

	if err := h.transactions.Delete(id); err != nil {
		h.logger.Error("delete transaction", "error", err)
		errorJSON(w, http.StatusInternalServerError, "failed to delete transaction")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
