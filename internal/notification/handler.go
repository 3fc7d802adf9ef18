package notification

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shiftwise/shiftwise-backend/internal/report"
)

type Handler struct {
	Service Service
}

func NewHandler(s Service) *Handler {
	return &Handler{Service: s}
}

type dispatchRequest struct {
	IssueID    string `json:"issueId"`
	ReportID   string `json:"reportId"`
	ChangeType string `json:"changeType"`
	Title      string `json:"title"`
	Body       string `json:"body"`
}

// POST /api/v1/notifications
// Direct dispatch trigger, used for non-status edits (description, photos)
// as well as by integrations that handle the mutation themselves.
func (h *Handler) SendNotification(c *gin.Context) {
	var req dispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.IssueID == "" || req.ReportID == "" || req.ChangeType == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}

	result, err := h.Service.Dispatch(c.Request.Context(), req.IssueID, req.ReportID, req.ChangeType, req.Title, req.Body)
	if err != nil {
		switch {
		case errors.Is(err, report.ErrMalformedIdentifier):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, report.ErrReportNotFound), errors.Is(err, report.ErrIssueNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"notified": result.Notified,
		"failed":   result.Failed,
	})
}
