package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"famledger/internal/auth"
	"famledger/internal/family"
	"famledger/internal/model"
)

type BudgetHandler struct {
	svc    *family.Service
	logger *slog.Logger
}

func NewBudgetHandler(svc *family.Service, logger *slog.Logger) *BudgetHandler {
	return &BudgetHandler{svc: svc, logger: logger}
}

type budgetRequest struct {
	Category string  `json:"category"`
	Limit    float64 `json:"limit"`
	Period   string  `json:"period"`
}

func (h *BudgetHandler) Create(w http.ResponseWriter, r *http.Request) {
	familyID, err := pathID(r, "familyID")
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid family id")
		return
	}

	var req budgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	b, err := h.svc.CreateBudget(auth.UserID(r.Context()), familyID, req.Category, req.Limit, req.Period)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (h *BudgetHandler) List(w http.ResponseWriter, r *http.Request) {
	familyID, err := pathID(r, "familyID")
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid family id")
		return
	}

	budgets, err := h.svc.ListBudgets(auth.UserID(r.Context()), familyID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	if budgets == nil {
		budgets = []model.Budget{}
	}
	writeJSON(w, http.StatusOK, budgets)
}

func (h *BudgetHandler) Update(w http.ResponseWriter, r *http.Request) {
	familyID, err := pathID(r, "familyID")
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid family id")
		return
	}
	budgetID, err := pathID(r, "budgetID")
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid budget id")
		return
	}

	var req budgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	b, err := h.svc.UpdateBudget(auth.UserID(r.Context()), familyID, budgetID, req.Category, req.Limit, req.Period)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *BudgetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	familyID, err := pathID(r, "familyID")
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid family id")
		return
	}
	budgetID, err := pathID(r, "budgetID")
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid budget id")
		return
	}

	if err := h.svc.DeleteBudget(auth.UserID(r.Context()), familyID, budgetID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
