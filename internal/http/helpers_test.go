package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	t.Run("accepts RFC 3339", func(t *testing.T) {
		got, err := parseDate("2026-08-15T10:30:00Z")
		require.NoError(t, err)
		assert.Equal(t, 2026, got.Year())
		assert.Equal(t, 10, got.Hour())
	})

	t.Run("accepts plain dates", func(t *testing.T) {
		got, err := parseDate("2026-08-15")
		require.NoError(t, err)
		assert.Equal(t, time.August, got.Month())
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := parseDate("15/08/2026")
		assert.Error(t, err)
	})
}

func TestParseIDParam(t *testing.T) {
	gin.SetMode(gin.TestMode)

	handler := func(c *gin.Context) {
		id, err := parseIDParam(c, "id")
		if err != nil {
			c.String(http.StatusBadRequest, err.Error())
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id})
	}

	router := gin.New()
	router.GET("/things/:id", handler)

	t.Run("parses a numeric id", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/things/42", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	for _, bad := range []string{"abc", "0", "-1", "1.5"} {
		t.Run("rejects "+bad, func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, "/things/"+bad, nil)
			router.ServeHTTP(w, req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RequestIDMiddleware())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	t.Run("generates an id", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/", nil)
		router.ServeHTTP(w, req)
		assert.NotEmpty(t, w.Header().Get(requestIDHeader))
	})

	t.Run("honors a client-provided id", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(requestIDHeader, "client-id-1")
		router.ServeHTTP(w, req)
		assert.Equal(t, "client-id-1", w.Header().Get(requestIDHeader))
	})
}
