package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zahlentech/str8up_server/internal/pkg/jwt"
	"github.com/zahlentech/str8up_server/internal/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testJWTSecret = "test-secret-key-for-middleware"

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	return resp
}

func adminRouter() *gin.Engine {
	router := gin.New()
	router.Use(AdminAuth(testJWTSecret))
	router.GET("/test", func(c *gin.Context) {
		name, ok := GetAdmin(c)
		c.JSON(http.StatusOK, gin.H{"admin": name, "ok": ok})
	})
	return router
}

func TestAdminAuth_Success(t *testing.T) {
	token, err := jwt.GenerateToken("ops", testJWTSecret, 24)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	adminRouter().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ops", body["admin"])
	assert.Equal(t, true, body["ok"])
}

func TestAdminAuth_Rejected(t *testing.T) {
	otherSecret, err := jwt.GenerateToken("ops", "different-secret", 24)
	require.NoError(t, err)
	expired, err := jwt.GenerateToken("ops", testJWTSecret, -1)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"no bearer prefix", "some-token-without-bearer"},
		{"garbage token", "Bearer invalid-token"},
		{"wrong secret", "Bearer " + otherSecret},
		{"expired", "Bearer " + expired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			adminRouter().ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, response.CodeAuthFailed, parseResponse(t, w).Code)
		})
	}
}

func TestGetAdmin(t *testing.T) {
	router := gin.New()
	router.GET("/test", func(c *gin.Context) {
		_, ok := GetAdmin(c)
		assert.False(t, ok)

		c.Set(AdminKey, 42)
		_, ok = GetAdmin(c)
		assert.False(t, ok)

		c.Set(AdminKey, "ops")
		name, ok := GetAdmin(c)
		assert.True(t, ok)
		assert.Equal(t, "ops", name)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
