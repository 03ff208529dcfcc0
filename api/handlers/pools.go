package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/0xnevsweb/mitanda-chain/api/types"
	tandatypes "github.com/0xnevsweb/mitanda-chain/x/tanda/types"
)

// PoolHandler serves the pool registry endpoints
type PoolHandler struct {
	service types.TandaService
}

// NewPoolHandler creates a new PoolHandler
func NewPoolHandler(service types.TandaService) *PoolHandler {
	return &PoolHandler{service: service}
}

// HandlePools handles /v1/pools (GET list, POST create)
func (h *PoolHandler) HandlePools(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listPools(w, r)
	case http.MethodPost:
		h.createPool(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
	}
}

func (h *PoolHandler) listPools(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	offset := parseUintParam(r, "offset", 0)
	limit := parseUintParam(r, "limit", 50)

	resp, err := h.service.ListPools(r.Context(), status, offset, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *PoolHandler) createPool(w http.ResponseWriter, r *http.Request) {
	var req types.CreatePoolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "Failed to parse request body")
		return
	}

	pool, err := h.service.CreatePool(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, pool)
}

// GetPool handles GET /v1/pools/{id}
func (h *PoolHandler) GetPool(w http.ResponseWriter, r *http.Request) {
	pool, err := h.service.GetPool(r.Context(), poolID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pool)
}

// GetParticipants handles GET /v1/pools/{id}/participants
func (h *PoolHandler) GetParticipants(w http.ResponseWriter, r *http.Request) {
	participants, err := h.service.GetParticipants(r.Context(), poolID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"participants": participants,
	})
}

// GetEvictions handles GET /v1/pools/{id}/evictions
func (h *PoolHandler) GetEvictions(w http.ResponseWriter, r *http.Request) {
	evictions, err := h.service.GetEvictions(r.Context(), poolID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"evictions": evictions,
	})
}

// GetNextPayout handles GET /v1/pools/{id}/next-payout
func (h *PoolHandler) GetNextPayout(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.GetNextPayout(r.Context(), poolID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// GetPendingRandomness handles GET /v1/pools/{id}/randomness
func (h *PoolHandler) GetPendingRandomness(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.GetPendingRandomness(r.Context(), poolID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// JoinPool handles POST /v1/pools/{id}/join
func (h *PoolHandler) JoinPool(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}
	var req types.JoinPoolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "Failed to parse request body")
		return
	}

	resp, err := h.service.JoinPool(r.Context(), poolID(r), req.Address)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Contribute handles POST /v1/pools/{id}/contribute
func (h *PoolHandler) Contribute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}
	var req types.ContributeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "Failed to parse request body")
		return
	}

	pool, err := h.service.Contribute(r.Context(), poolID(r), req.Address, req.Cycles)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pool)
}

// TriggerPayout handles POST /v1/pools/{id}/payout. Permissionless, no
// body required.
func (h *PoolHandler) TriggerPayout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}

	resp, err := h.service.TriggerPayout(r.Context(), poolID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// RemoveParticipant handles POST /v1/pools/{id}/remove
func (h *PoolHandler) RemoveParticipant(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}
	var req types.RemoveParticipantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "Failed to parse request body")
		return
	}

	rec, err := h.service.RemoveParticipant(r.Context(), poolID(r), req.Creator, req.Address)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// GetMemberPools handles GET /v1/members/{address}/pools
func (h *PoolHandler) GetMemberPools(w http.ResponseWriter, r *http.Request) {
	address := r.Header.Get("X-Member-Address")
	if address == "" {
		writeError(w, http.StatusBadRequest, "missing_address", "Member address required")
		return
	}

	pools, err := h.service.GetMemberPools(r.Context(), address)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"pools": pools,
	})
}

// GetParams handles GET /v1/params
func (h *PoolHandler) GetParams(w http.ResponseWriter, r *http.Request) {
	params, err := h.service.GetParams(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, params)
}

// ============ Helpers ============

// poolID reads the pool ID the router stashed in the request headers
func poolID(r *http.Request) string {
	return r.Header.Get("X-Pool-ID")
}

func parseUintParam(r *http.Request, name string, def uint64) uint64 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return def
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, types.ErrorResponse{Error: code, Message: message})
}

// writeServiceError maps keeper errors to HTTP statuses
func writeServiceError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, tandatypes.ErrPoolNotFound),
		errors.Is(err, tandatypes.ErrNotParticipant),
		errors.Is(err, tandatypes.ErrRequestNotFound):
		status = http.StatusNotFound
	case errors.Is(err, tandatypes.ErrNotCreator),
		errors.Is(err, tandatypes.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, tandatypes.ErrPayoutInProgress):
		status = http.StatusConflict
	}
	writeError(w, status, "request_failed", err.Error())
}
