package reviews

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"review-backend/internal/shared/server/middleware"
	"review-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the reviews service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches review routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/analyze-pr", h.analyzePR)
	rg.GET("/status/:task_id", h.getStatus)
	rg.GET("/results/:task_id", h.getResults)
}

type analyzePRRequest struct {
	RepoURL     string `json:"repo_url"`
	PRNumber    int    `json:"pr_number"`
	GithubToken string `json:"github_token"`
}

func (h *Handler) analyzePR(c *gin.Context) {
	var req analyzePRRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	review, err := h.Svc.Create(ctx, req.RepoURL, req.PRNumber, req.GithubToken)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to start review", nil)
		}
		return
	}
	c.Set("taskId", review.ID)

	respond.JSON(c, http.StatusAccepted, gin.H{
		"task_id": review.ID,
		"status":  review.Status,
	})
}

func (h *Handler) getStatus(c *gin.Context) {
	taskID := c.Param("task_id")
	c.Set("taskId", taskID)

	review, err := h.Svc.Get(c.Request.Context(), taskID)
	if err != nil {
		h.respondLookupError(c, err)
		return
	}

	respond.OK(c, ProjectStatus(review))
}

func (h *Handler) getResults(c *gin.Context) {
	taskID := c.Param("task_id")
	c.Set("taskId", taskID)

	review, err := h.Svc.Get(c.Request.Context(), taskID)
	if err != nil {
		h.respondLookupError(c, err)
		return
	}

	respond.OK(c, ProjectResult(review))
}

func (h *Handler) respondLookupError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", "task id is required", nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "task not found", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "store_error", "failed to read task state", nil)
	}
}
