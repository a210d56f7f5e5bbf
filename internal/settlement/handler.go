package settlement

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vishal-ch336/divido/pkg/middleware"
	"github.com/vishal-ch336/divido/pkg/response"
)

// Handler handles HTTP requests for settlement operations
type Handler struct {
	service *Service
}

// NewHandler creates a new settlement handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for settlement endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.GetByID)

	r.Post("/{id}/confirm", h.Confirm)
	r.Post("/{id}/dispute", h.Dispute)

	r.Get("/group/{groupId}/suggestions", h.Suggestions)

	return r
}

// Create handles POST /settlements
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req CreateSettlementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	settlement, err := h.service.Create(r.Context(), userID, &req)
	if err != nil {
		h.writeError(w, err, "Failed to create settlement")
		return
	}

	response.JSON(w, http.StatusCreated, settlement.ToResponse())
}

// List handles GET /settlements
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var groupID *int64
	if raw := r.URL.Query().Get("group_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.BadRequest(w, "Invalid group ID")
			return
		}
		groupID = &id
	}

	var status *Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := Status(raw)
		if !ValidStatus(s) {
			response.BadRequest(w, "Invalid status filter")
			return
		}
		status = &s
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	settlements, total, err := h.service.List(r.Context(), userID, groupID, status, page, perPage)
	if err != nil {
		h.writeError(w, err, "Failed to list settlements")
		return
	}

	settlementResponses := make([]*SettlementResponse, len(settlements))
	for i, s := range settlements {
		settlementResponses[i] = s.ToResponse()
	}

	totalPages := (total + perPage - 1) / perPage
	response.JSONWithMeta(w, http.StatusOK, settlementResponses, &response.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	})
}

// GetByID handles GET /settlements/{id}
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	userID, settlementID, ok := h.actorAndSettlement(w, r)
	if !ok {
		return
	}

	settlement, err := h.service.GetByID(r.Context(), userID, settlementID)
	if err != nil {
		h.writeError(w, err, "Failed to get settlement")
		return
	}

	response.JSON(w, http.StatusOK, settlement.ToResponse())
}

// Confirm handles POST /settlements/{id}/confirm
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	userID, settlementID, ok := h.actorAndSettlement(w, r)
	if !ok {
		return
	}

	settlement, err := h.service.Confirm(r.Context(), userID, settlementID)
	if err != nil {
		h.writeError(w, err, "Failed to confirm settlement")
		return
	}

	response.JSON(w, http.StatusOK, settlement.ToResponse())
}

// Dispute handles POST /settlements/{id}/dispute
func (h *Handler) Dispute(w http.ResponseWriter, r *http.Request) {
	userID, settlementID, ok := h.actorAndSettlement(w, r)
	if !ok {
		return
	}

	settlement, err := h.service.Dispute(r.Context(), userID, settlementID)
	if err != nil {
		h.writeError(w, err, "Failed to dispute settlement")
		return
	}

	response.JSON(w, http.StatusOK, settlement.ToResponse())
}

// Suggestions handles GET /settlements/group/{groupId}/suggestions
func (h *Handler) Suggestions(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	groupID, err := strconv.ParseInt(chi.URLParam(r, "groupId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return
	}

	relations, err := h.service.Suggestions(r.Context(), userID, groupID)
	if err != nil {
		h.writeError(w, err, "Failed to compute suggestions")
		return
	}

	suggestions := make([]*SuggestionResponse, len(relations))
	for i, rel := range relations {
		suggestions[i] = &SuggestionResponse{
			FromUserID: rel.FromUserID,
			ToUserID:   rel.ToUserID,
			Amount:     rel.Amount.String(),
		}
	}

	response.JSON(w, http.StatusOK, suggestions)
}

func (h *Handler) actorAndSettlement(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return 0, 0, false
	}

	settlementID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid settlement ID")
		return 0, 0, false
	}

	return userID, settlementID, true
}

func (h *Handler) writeError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrSettlementNotFound), errors.Is(err, ErrGroupNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, ErrNotMember), errors.Is(err, ErrNotReceiver), errors.Is(err, ErrNotAdmin):
		response.Forbidden(w, err.Error())
	case errors.Is(err, ErrInvalidStatusChange):
		response.Conflict(w, err.Error())
	case errors.Is(err, ErrSelfSettlement),
		errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrInvalidNote),
		errors.Is(err, ErrInvalidPaymentMethod):
		response.BadRequest(w, err.Error())
	default:
		response.InternalError(w, fallback)
	}
}
