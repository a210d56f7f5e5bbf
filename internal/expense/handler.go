package expense

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vishal-ch336/divido/internal/split"
	"github.com/vishal-ch336/divido/pkg/middleware"
	"github.com/vishal-ch336/divido/pkg/response"
)

// Handler handles HTTP requests for expense operations
type Handler struct {
	service *Service
}

// NewHandler creates a new expense handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for expense endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/{id}", h.GetByID)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)

	// Group-based listing
	r.Get("/group/{groupId}", h.ListByGroup)

	return r
}

// Create handles POST /expenses
// @Summary      Create a new expense
// @Description  Create an expense with automatic split calculation using the equal, percentage or share policy
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Param        request body CreateExpenseRequest true "Expense creation request"
// @Success      201 {object} response.APIResponse{data=ExpenseResponse}
// @Failure      400 {object} response.APIResponse
// @Router       /expenses [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req CreateExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	result, err := h.service.CreateExpense(r.Context(), userID, &req)
	if err != nil {
		h.writeError(w, err, "Failed to create expense")
		return
	}

	response.JSON(w, http.StatusCreated, toResponse(result))
}

// GetByID handles GET /expenses/{id}
// @Summary      Get an expense with its splits
// @Tags         expenses
// @Produce      json
// @Param        id path int true "Expense ID"
// @Success      200 {object} response.APIResponse{data=ExpenseResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /expenses/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	userID, expenseID, ok := h.actorAndExpense(w, r)
	if !ok {
		return
	}

	result, err := h.service.GetExpenseByID(r.Context(), userID, expenseID)
	if err != nil {
		h.writeError(w, err, "Failed to get expense")
		return
	}

	response.JSON(w, http.StatusOK, toResponse(result))
}

// Update handles PUT /expenses/{id}
// @Summary      Amend an expense
// @Description  Replaces the expense's amount, policy and participants; group balances are restated accordingly
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Param        id path int true "Expense ID"
// @Param        request body UpdateExpenseRequest true "Expense amendment request"
// @Success      200 {object} response.APIResponse{data=ExpenseResponse}
// @Failure      400 {object} response.APIResponse
// @Router       /expenses/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID, expenseID, ok := h.actorAndExpense(w, r)
	if !ok {
		return
	}

	var req UpdateExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	result, err := h.service.UpdateExpense(r.Context(), userID, expenseID, &req)
	if err != nil {
		h.writeError(w, err, "Failed to update expense")
		return
	}

	response.JSON(w, http.StatusOK, toResponse(result))
}

// Delete handles DELETE /expenses/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, expenseID, ok := h.actorAndExpense(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteExpense(r.Context(), userID, expenseID); err != nil {
		h.writeError(w, err, "Failed to delete expense")
		return
	}

	response.JSON(w, http.StatusOK, nil)
}

// ListByGroup handles GET /expenses/group/{groupId}
// @Summary      List a group's expenses
// @Tags         expenses
// @Produce      json
// @Param        groupId path int true "Group ID"
// @Param        page query int false "Page number"
// @Param        per_page query int false "Items per page"
// @Success      200 {object} response.APIResponse{data=[]ExpenseResponse}
// @Router       /expenses/group/{groupId} [get]
func (h *Handler) ListByGroup(w http.ResponseWriter, r *http.Request) {
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

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	expenses, total, err := h.service.ListByGroup(r.Context(), userID, groupID, page, perPage)
	if err != nil {
		h.writeError(w, err, "Failed to list expenses")
		return
	}

	expenseResponses := make([]*ExpenseResponse, len(expenses))
	for i, e := range expenses {
		expenseResponses[i] = e.ToResponse()
	}

	totalPages := (total + perPage - 1) / perPage
	response.JSONWithMeta(w, http.StatusOK, expenseResponses, &response.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	})
}

func (h *Handler) actorAndExpense(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return 0, 0, false
	}

	expenseID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid expense ID")
		return 0, 0, false
	}

	return userID, expenseID, true
}

func (h *Handler) writeError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrExpenseNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, ErrNotMember):
		response.Forbidden(w, err.Error())
	case errors.Is(err, ErrInvalidDescription),
		errors.Is(err, ErrInvalidCategory),
		errors.Is(err, ErrInvalidPaymentMethod),
		errors.Is(err, split.ErrUnknownPolicy),
		errors.Is(err, split.ErrNoParticipants),
		errors.Is(err, split.ErrInvalidAmount),
		errors.Is(err, split.ErrInvalidPercentages),
		errors.Is(err, split.ErrPercentageOutOfRange),
		errors.Is(err, split.ErrInvalidShares),
		errors.Is(err, split.ErrNegativeShares):
		response.BadRequest(w, err.Error())
	default:
		response.InternalError(w, fallback)
	}
}

func toResponse(result *ExpenseWithSplits) *ExpenseResponse {
	resp := result.Expense.ToResponse()
	resp.Splits = make([]*SplitResponse, len(result.Splits))
	for i, s := range result.Splits {
		resp.Splits[i] = s.ToResponse()
	}
	return resp
}
