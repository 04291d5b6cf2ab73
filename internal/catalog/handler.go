package catalog

import (
	"net/http"

	"souvenir/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// Handler serves the public price list. No auth: clients browse the
// catalog before they register.
type Handler struct{}

func NewHandler() *Handler { return &Handler{} }

func (h *Handler) RegisterRoutes(v1 *gin.RouterGroup) {
	v1.GET("/catalog/product-types", h.ListProductTypes)
}

func (h *Handler) ListProductTypes(c *gin.Context) {
	types := List()
	items := make([]gin.H, 0, len(types))
	for _, pt := range types {
		items = append(items, gin.H{
			"name":        pt.Name,
			"price_range": pt.RangeLabel,
			"price_min":   pt.Min,
			"price_max":   pt.Max,
		})
	}
	response.Success(c, http.StatusOK, gin.H{"product_types": items})
}
