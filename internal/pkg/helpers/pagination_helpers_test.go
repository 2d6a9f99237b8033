package helpers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestCalculateOffsetLimit(t *testing.T) {
	tests := []struct {
		name       string
		page, size int
		wantOffset uint64
		wantLimit  int
	}{
		{"first page", 1, 10, 0, 10},
		{"third page of twenty", 3, 20, 40, 20},
		{"zero page clamps to first", 0, 10, 0, 10},
		{"negative page clamps to first", -5, 50, 0, 50},
		{"zero size falls back to default", 2, 0, 10, 10},
		{"oversized size falls back to default", 2, 101, 10, 10},
		{"max size allowed", 2, 100, 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offset, limit := CalculateOffsetLimit(tt.page, tt.size)
			assert.Equal(t, tt.wantOffset, offset)
			assert.Equal(t, tt.wantLimit, limit)
		})
	}
}

func TestNewPaginationInfo(t *testing.T) {
	tests := []struct {
		name           string
		totalItems     int64
		page, size     int
		wantTotalPages int
	}{
		{"exact division", 100, 1, 20, 5},
		{"remainder rounds up", 95, 2, 10, 10},
		{"empty first page still reports one page", 0, 1, 10, 1},
		{"empty later page reports none", 0, 3, 10, 0},
		{"single item", 1, 1, 20, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := NewPaginationInfo(tt.totalItems, tt.page, tt.size)
			assert.Equal(t, tt.wantTotalPages, info.TotalPages)
			assert.Equal(t, tt.totalItems, info.TotalItems)
			assert.Equal(t, tt.page, info.CurrentPage)
		})
	}
}

func paginationContext(t *testing.T, rawQuery string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/questions?"+rawQuery, nil)
	return c
}

func TestParsePaginationParams(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantPage int
		wantSize int
	}{
		{"no params", "", 1, DefaultPageSize},
		{"explicit values", "page=2&size=30", 2, 30},
		{"garbage page", "page=abc&size=15", 1, 15},
		{"negative size", "page=1&size=-1", 1, DefaultPageSize},
		{"size above maximum", "page=1&size=500", 1, DefaultPageSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, size := ParsePaginationParams(paginationContext(t, tt.query))
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantSize, size)
		})
	}
}

func TestParsePaginationParamsWithDefault_SearchPageSize(t *testing.T) {
	page, size := ParsePaginationParamsWithDefault(paginationContext(t, ""), SearchPageSize)
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, size)

	_, size = ParsePaginationParamsWithDefault(paginationContext(t, "size=50"), SearchPageSize)
	assert.Equal(t, 50, size)
}
