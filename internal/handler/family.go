package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"famledger/internal/auth"
	"famledger/internal/family"
	"famledger/internal/model"
)

type FamilyHandler struct {
	svc    *family.Service
	logger *slog.Logger
}

func NewFamilyHandler(svc *family.Service, logger *slog.Logger) *FamilyHandler {
	return &FamilyHandler{svc: svc, logger: logger}
}

func (h *FamilyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	f, err := h.svc.CreateFamily(auth.UserID(r.Context()), req.Name)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

func (h *FamilyHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RoomCode    string `json:"room_code"`
		Permissions string `json:"permissions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	m, err := h.svc.RequestToJoin(auth.UserID(r.Context()), req.RoomCode, req.Permissions)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (h *FamilyHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := h.svc.PendingRequests(auth.UserID(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	if requests == nil {
		requests = []model.MemberDetail{}
	}
	writeJSON(w, http.StatusOK, requests)
}

func (h *FamilyHandler) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	memberID, err := pathID(r, "memberID")
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid member id")
		return
	}

	m, err := h.svc.AcceptRequest(auth.UserID(r.Context()), memberID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *FamilyHandler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	memberID, err := pathID(r, "memberID")
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid member id")
		return
	}

	m, err := h.svc.RejectRequest(auth.UserID(r.Context()), memberID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *FamilyHandler) MyFamily(w http.ResponseWriter, r *http.Request) {
	overview, err := h.svc.MyFamily(auth.UserID(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	// No family yet is a normal answer, not an error.
	writeJSON(w, http.StatusOK, overview)
}

func (h *FamilyHandler) UpdateMyPermissions(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Permissions string `json:"permissions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	m, err := h.svc.UpdateMyPermissions(auth.UserID(r.Context()), req.Permissions)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *FamilyHandler) UpdateMemberPermissions(w http.ResponseWriter, r *http.Request) {
	memberID, err := pathID(r, "memberID")
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid member id")
		return
	}

	var req struct {
		Permissions string `json:"permissions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	m, err := h.svc.UpdateMemberPermissions(auth.UserID(r.Context()), memberID, req.Permissions)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *FamilyHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	memberID, err := pathID(r, "memberID")
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid member id")
		return
	}

	if err := h.svc.RemoveMember(auth.UserID(r.Context()), memberID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"removed": true})
}

func (h *FamilyHandler) Leave(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.LeaveFamily(auth.UserID(r.Context())); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"left": true})
}

func (h *FamilyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	familyID, err := pathID(r, "familyID")
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid family id")
		return
	}

	if err := h.svc.DeleteFamily(auth.UserID(r.Context()), familyID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
