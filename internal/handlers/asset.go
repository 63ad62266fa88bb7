package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/crucial707/assettrack/internal/middleware"
	"github.com/crucial707/assettrack/internal/repo"
)

// AssetHandler serves the asset endpoints. Every mutation goes through the
// store/gateway, which pairs it with its audit event; the handler's only
// jobs are decoding, validation and status mapping.
type AssetHandler struct {
	Store   *repo.AssetStore
	Gateway *repo.Gateway
	Audit   *repo.AuditLog
}

//
// ==========================
// Create Asset
// ==========================
//

// CreateAsset accepts an arbitrary JSON object. Fields that are not columns
// of the assets table are dropped by the store, not rejected, so older and
// newer clients keep working across schema changes.
func (h *AssetHandler) CreateAsset(w http.ResponseWriter, r *http.Request) {
	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	actor := middleware.Username(r.Context())
	if err := h.Store.Create(r.Context(), fields, actor); err != nil {
		writeRepoError(w, err)
		return
	}

	tag, _ := fields["asset_tag"].(string)
	record, err := h.Store.GetByTag(r.Context(), tag)
	if err != nil {
		writeRepoError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(record)
}

//
// ==========================
// Get Asset By Tag
// ==========================
//

func (h *AssetHandler) GetAsset(w http.ResponseWriter, r *http.Request) {
	tag := chi.URLParam(r, "tag")

	record, err := h.Store.GetByTag(r.Context(), tag)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	if record == nil {
		JSONError(w, "asset not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(record)
}

//
// ==========================
// Update Asset (raw field edit)
// ==========================
//

func (h *AssetHandler) UpdateAsset(w http.ResponseWriter, r *http.Request) {
	tag := chi.URLParam(r, "tag")

	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	actor := middleware.Username(r.Context())
	if err := h.Gateway.UpdateFields(r.Context(), tag, fields, actor); err != nil {
		writeRepoError(w, err)
		return
	}

	record, err := h.Store.GetByTag(r.Context(), tag)
	if err != nil {
		writeRepoError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(record)
}

//
// ==========================
// Retire Asset
// ==========================
//

func (h *AssetHandler) RetireAsset(w http.ResponseWriter, r *http.Request) {
	tag := chi.URLParam(r, "tag")

	// Optional body: {"updated_date": "..."}; no body means the retirement
	// date stays unknown.
	var input struct {
		UpdatedDate *string `json:"updated_date"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			JSONError(w, "invalid JSON", http.StatusBadRequest)
			return
		}
	}

	actor := middleware.Username(r.Context())
	if err := h.Store.Retire(r.Context(), tag, input.UpdatedDate, actor); err != nil {
		writeRepoError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

//
// ==========================
// Transition Custody State
// ==========================
//

func (h *AssetHandler) TransitionCustodyState(w http.ResponseWriter, r *http.Request) {
	tag := chi.URLParam(r, "tag")

	var input struct {
		CustodyState string `json:"custody_state" validate:"required,min=1,max=100"`
		Notes        string `json:"notes" validate:"max=1000"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	// ===== Validate input =====
	validate := validator.New()
	if err := validate.Struct(input); err != nil {
		JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	actor := middleware.Username(r.Context())
	if err := h.Gateway.TransitionCustodyState(r.Context(), tag, input.CustodyState, actor, input.Notes); err != nil {
		writeRepoError(w, err)
		return
	}

	record, err := h.Store.GetByTag(r.Context(), tag)
	if err != nil {
		writeRepoError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(record)
}

//
// ==========================
// List Asset Events
// ==========================
//

// ListAssetEvents returns the audit trail for one asset in insertion order.
// Query: limit (default 50, max 200), offset (default 0).
func (h *AssetHandler) ListAssetEvents(w http.ResponseWriter, r *http.Request) {
	tag := chi.URLParam(r, "tag")

	limit := 50
	offset := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil && val > 0 && val <= 200 {
			limit = val
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if val, err := strconv.Atoi(o); err == nil && val >= 0 {
			offset = val
		}
	}

	events, err := h.Audit.List(r.Context(), tag, limit, offset)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(events)
}
