package report

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shiftwise/shiftwise-backend/middleware"
)

type Handler struct {
	Service Service
}

func NewHandler(s Service) *Handler {
	return &Handler{Service: s}
}

// POST /api/v1/reports
func (h *Handler) CreateReport(c *gin.Context) {
	var input CreateReportInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.SubmittedBy == "" {
		input.SubmittedBy = c.GetString("user_name")
	}

	rep, err := h.Service.CreateReport(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, rep)
}

// GET /api/v1/reports/:id
func (h *Handler) GetReport(c *gin.Context) {
	rep, err := h.Service.GetReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

// GET /api/v1/issues
func (h *Handler) ListIssues(c *gin.Context) {
	views, err := h.Service.ListIssues(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

type transitionRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
	IssueEdit
}

// PATCH /api/v1/issues/:issueId/status
func (h *Handler) UpdateStatus(c *gin.Context) {
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor := Actor{Name: c.GetString("user_name")}
	if role, err := ParseRole(c.GetString("user_role")); err == nil {
		actor.Role = role
	}

	view, err := h.Service.ApplyTransition(
		c.Request.Context(),
		c.Param("issueId"),
		req.Status,
		req.Note,
		req.IssueEdit,
		actor,
		middleware.GetIPFromContext(c),
	)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// respondError maps the engine's error taxonomy onto HTTP statuses:
// validation problems 400, stale references 404, store failures 500.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrMalformedIdentifier),
		errors.Is(err, ErrInvalidStatus),
		errors.Is(err, ErrMissingJustification):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ErrReportNotFound), errors.Is(err, ErrIssueNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ErrStoreUnavailable):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "document store unavailable"})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}
