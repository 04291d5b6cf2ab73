package catalog

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListProductTypes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler().RegisterRoutes(r.Group("/api/v1"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/catalog/product-types", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			ProductTypes []struct {
				Name       string  `json:"name"`
				PriceRange string  `json:"price_range"`
				PriceMin   float64 `json:"price_min"`
				PriceMax   float64 `json:"price_max"`
			} `json:"product_types"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Data.ProductTypes, len(productOrder))

	assert.Equal(t, "настенные часы", resp.Data.ProductTypes[0].Name, "catalog order preserved")

	byName := make(map[string]int)
	for i, pt := range resp.Data.ProductTypes {
		byName[pt.Name] = i
	}
	pencil := resp.Data.ProductTypes[byName["карандашница"]]
	assert.Equal(t, "66 BYN", pencil.PriceRange)
	assert.Equal(t, 66.0, pencil.PriceMin)
	assert.Equal(t, 66.0, pencil.PriceMax)

	clock := resp.Data.ProductTypes[byName["настенные часы"]]
	assert.Equal(t, "165-495 BYN", clock.PriceRange)
	assert.Equal(t, 165.0, clock.PriceMin)
	assert.Equal(t, 495.0, clock.PriceMax)
}
