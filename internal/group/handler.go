package group

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vishal-ch336/divido/pkg/middleware"
	"github.com/vishal-ch336/divido/pkg/response"
)

// Handler handles HTTP requests for group operations
type Handler struct {
	service *Service
}

// NewHandler creates a new group handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for group endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.GetDetail)
	r.Delete("/{id}", h.Delete)

	r.Post("/{id}/members", h.AddMember)
	r.Delete("/{id}/members/{userId}", h.RemoveMember)

	r.Get("/{id}/balances", h.Balances)
	r.Get("/{id}/summary", h.Summary)

	return r
}

// Create handles POST /groups
// @Summary      Create a new group
// @Tags         groups
// @Accept       json
// @Produce      json
// @Param        request body CreateGroupRequest true "Group creation request"
// @Success      201 {object} response.APIResponse{data=GroupResponse}
// @Failure      400 {object} response.APIResponse
// @Router       /groups [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req CreateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if req.Name == "" || len(req.Name) > 100 {
		response.BadRequest(w, "Group name is required and must be at most 100 characters")
		return
	}
	if len(req.Description) > 500 {
		response.BadRequest(w, "Description must be at most 500 characters")
		return
	}

	group, err := h.service.Create(r.Context(), userID, &req)
	if err != nil {
		response.InternalError(w, "Failed to create group")
		return
	}

	response.JSON(w, http.StatusCreated, group.ToResponse())
}

// List handles GET /groups
// @Summary      List groups for the current user
// @Tags         groups
// @Produce      json
// @Success      200 {object} response.APIResponse{data=[]GroupResponse}
// @Router       /groups [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	groups, err := h.service.List(r.Context(), userID)
	if err != nil {
		response.InternalError(w, "Failed to list groups")
		return
	}

	groupResponses := make([]*GroupResponse, len(groups))
	for i, g := range groups {
		groupResponses[i] = g.ToResponse()
	}

	response.JSON(w, http.StatusOK, groupResponses)
}

// GetDetail handles GET /groups/{id}
// @Summary      Get group detail
// @Description  Group with members, total spend and transaction-derived debt relations
// @Tags         groups
// @Produce      json
// @Param        id path int true "Group ID"
// @Success      200 {object} response.APIResponse{data=GroupDetailResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /groups/{id} [get]
func (h *Handler) GetDetail(w http.ResponseWriter, r *http.Request) {
	userID, groupID, ok := h.actorAndGroup(w, r)
	if !ok {
		return
	}

	detail, err := h.service.GetDetail(r.Context(), userID, groupID)
	if err != nil {
		h.writeError(w, err, "Failed to get group")
		return
	}

	response.JSON(w, http.StatusOK, detail)
}

// Delete handles DELETE /groups/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, groupID, ok := h.actorAndGroup(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, groupID); err != nil {
		h.writeError(w, err, "Failed to delete group")
		return
	}

	response.JSON(w, http.StatusOK, nil)
}

// AddMember handles POST /groups/{id}/members
func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
	userID, groupID, ok := h.actorAndGroup(w, r)
	if !ok {
		return
	}

	var req AddMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	member, err := h.service.AddMember(r.Context(), userID, groupID, &req)
	if err != nil {
		h.writeError(w, err, "Failed to add member")
		return
	}

	response.JSON(w, http.StatusCreated, member.ToResponse())
}

// RemoveMember handles DELETE /groups/{id}/members/{userId}
func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	actorID, groupID, ok := h.actorAndGroup(w, r)
	if !ok {
		return
	}

	memberID, err := strconv.ParseInt(chi.URLParam(r, "userId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid user ID")
		return
	}

	if err := h.service.RemoveMember(r.Context(), actorID, groupID, memberID); err != nil {
		h.writeError(w, err, "Failed to remove member")
		return
	}

	response.JSON(w, http.StatusOK, nil)
}

// Balances handles GET /groups/{id}/balances
// @Summary      Get member balances
// @Tags         groups
// @Produce      json
// @Param        id path int true "Group ID"
// @Success      200 {object} response.APIResponse{data=[]BalanceResponse}
// @Router       /groups/{id}/balances [get]
func (h *Handler) Balances(w http.ResponseWriter, r *http.Request) {
	userID, groupID, ok := h.actorAndGroup(w, r)
	if !ok {
		return
	}

	balances, err := h.service.Balances(r.Context(), userID, groupID)
	if err != nil {
		h.writeError(w, err, "Failed to get balances")
		return
	}

	response.JSON(w, http.StatusOK, balances)
}

// Summary handles GET /groups/{id}/summary
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	userID, groupID, ok := h.actorAndGroup(w, r)
	if !ok {
		return
	}

	summary, err := h.service.Summary(r.Context(), userID, groupID)
	if err != nil {
		h.writeError(w, err, "Failed to get summary")
		return
	}

	response.JSON(w, http.StatusOK, summary)
}

func (h *Handler) actorAndGroup(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return 0, 0, false
	}

	groupID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return 0, 0, false
	}

	return userID, groupID, true
}

func (h *Handler) writeError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrGroupNotFound), errors.Is(err, ErrMemberNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, ErrNotAuthorized):
		response.Forbidden(w, err.Error())
	case errors.Is(err, ErrMemberAlreadyExists), errors.Is(err, ErrMemberHasBalance):
		response.Conflict(w, err.Error())
	default:
		response.InternalError(w, fallback)
	}
}
