package users

import (
	"errors"
	"net/http"
	"strconv"

	"souvenir/internal/access"
	"souvenir/internal/domain"
	"souvenir/internal/middleware"
	"souvenir/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	protected.GET("/masters", h.Masters)

	users := protected.Group("/users")
	{
		users.GET("", h.List)
		users.PATCH("/:id/role", h.ChangeRole)
	}
}

func (h *Handler) List(c *gin.Context) {
	var role *domain.Role
	if raw := c.Query("role"); raw != "" {
		r := domain.Role(raw)
		role = &r
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	users, total, err := h.service.List(c.Request.Context(), middleware.Actor(c), role, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"users": directory(users),
		"total": total,
	})
}

func (h *Handler) Masters(c *gin.Context) {
	masters, err := h.service.Masters(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"masters": summaries(masters)})
}

type changeRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

func (h *Handler) ChangeRole(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid user ID")
		return
	}

	var req changeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	user, err := h.service.ChangeRole(c.Request.Context(), middleware.Actor(c), id, domain.Role(req.Role))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": user.Summary()})
}

// directoryRow is one entry of the staff user directory: the summary
// fields plus the role, which staff filter and act on.
type directoryRow struct {
	*domain.UserSummary
	Role domain.Role `json:"role"`
}

func directory(users []domain.User) []directoryRow {
	out := make([]directoryRow, 0, len(users))
	for i := range users {
		out = append(out, directoryRow{UserSummary: users[i].Summary(), Role: users[i].Role})
	}
	return out
}

func summaries(users []domain.User) []*domain.UserSummary {
	out := make([]*domain.UserSummary, 0, len(users))
	for i := range users {
		out = append(out, users[i].Summary())
	}
	return out
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, access.ErrDenied):
		response.Error(c, http.StatusForbidden, "ACCESS_DENIED", "Access denied")
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Unexpected server error")
	}
}
