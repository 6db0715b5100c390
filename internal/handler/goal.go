package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"famledger/internal/auth"
	"famledger/internal/family"
	"famledger/internal/model"
)

type GoalHandler struct {
	svc    *family.Service
	logger *slog.Logger
}

func NewGoalHandler(svc *family.Service, logger *slog.Logger) *GoalHandler {
	return &GoalHandler{svc: svc, logger: logger}
}

type goalRequest struct {
	Title    string     `json:"title"`
	Target   float64    `json:"target"`
	Deadline *time.Time `json:"deadline"`
	Category string     `json:"category"`
}

func (h *GoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	familyID, err := pathID(r, "familyID")
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid family id")
		return
	}

	var req goalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	g, err := h.svc.CreateGoal(auth.UserID(r.Context()), familyID, req.Title, req.Target, req.Deadline, req.Category)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

func (h *GoalHandler) List(w http.ResponseWriter, r *http.Request) {
	familyID, err := pathID(r, "familyID")
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid family id")
		return
	}

	goals, err := h.svc.ListGoals(auth.UserID(r.Context()), familyID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	if goals == nil {
		goals = []model.Goal{}
	}
	writeJSON(w, http.StatusOK, goals)
}

func (h *GoalHandler) Update(w http.ResponseWriter, r *http.Request) {
	familyID, err := pathID(r, "familyID")
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid family id")
		return
	}
	goalID, err := pathID(r, "goalID")
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid goal id")
		return
	}

	var req goalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	g, err := h.svc.UpdateGoal(auth.UserID(r.Context()), familyID, goalID, req.Title, req.Target, req.Deadline, req.Category)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (h *GoalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	familyID, err := pathID(r, "familyID")
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid family id")
		return
	}
	goalID, err := pathID(r, "goalID")
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid goal id")
		return
	}

	if err := h.svc.DeleteGoal(auth.UserID(r.Context()), familyID, goalID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (h *GoalHandler) Contribute(w http.ResponseWriter, r *http.Request) {
	familyID, err := pathID(r, "familyID")
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid family id")
		return
	}
	goalID, err := pathID(r, "goalID")
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid goal id")
		return
	}

	var req struct {
		Amount float64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	contribution, goal, err := h.svc.Contribute(auth.UserID(r.Context()), familyID, goalID, req.Amount)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"contribution": contribution,
		"goal":         goal,
	})
}

func (h *GoalHandler) ListContributions(w http.ResponseWriter, r *http.Request) {
	familyID, err := pathID(r, "familyID")
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid family id")
		return
	}
	goalID, err := pathID(r, "goalID")
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid goal id")
		return
	}

	contributions, err := h.svc.ListContributions(auth.UserID(r.Context()), familyID, goalID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	if contributions == nil {
		contributions = []model.GoalContribution{}
	}
	writeJSON(w, http.StatusOK, contributions)
}
