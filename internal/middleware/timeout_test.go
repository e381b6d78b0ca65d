package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestTimeoutSetsRequestDeadline(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var deadline time.Time
	var ok bool
	router := gin.New()
	router.Use(Timeout(10 * time.Second))
	router.GET("/", func(c *gin.Context) {
		deadline, ok = c.Request.Context().Deadline()
		c.Status(http.StatusOK)
	})

	before := time.Now()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if !ok {
		t.Fatal("request context has no deadline")
	}
	remaining := deadline.Sub(before)
	if remaining <= 0 || remaining > 10*time.Second {
		t.Errorf("deadline in %v, want within 10s", remaining)
	}
}
