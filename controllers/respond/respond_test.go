package respond

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/junaidrashid-git/yar-marketplace/apperr"
)

func TestError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		name string
		err  error
		code int
		body string
	}{
		{"validation", apperr.Validation("name", "required"), http.StatusBadRequest, `"field":"name"`},
		{"not found", fmt.Errorf("wrapped: %w", apperr.NotFound("order", "o-1")), http.StatusNotFound, `"order not found"`},
		{"conflict", apperr.Conflict("o-1", "cancelled", "mark_unavailable", "terminal"), http.StatusConflict, `"status":"cancelled"`},
		{"external", apperr.External("telr", errors.New("down")), http.StatusBadGateway, `"retryable":true`},
		{"other", errors.New("disk on fire"), http.StatusInternalServerError, `"internal error"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			Error(c, tt.err)
			assert.Equal(t, tt.code, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
			assert.NotContains(t, w.Body.String(), "disk on fire")
		})
	}
}
