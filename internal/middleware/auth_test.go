package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/skillforge-hq/skillforge-backend/internal/logger"
	"github.com/skillforge-hq/skillforge-backend/internal/requestdata"
	"github.com/skillforge-hq/skillforge-backend/internal/services"
)

func newAuthRouter(t *testing.T, auth services.AuthService) (*gin.Engine, *uuid.UUID) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	mw := NewAuthMiddleware(log, auth)

	var seenUser uuid.UUID
	router := gin.New()
	router.GET("/protected", mw.RequireAuth(), func(c *gin.Context) {
		rd := requestdata.GetRequestData(c.Request.Context())
		seenUser = rd.UserID
		c.Status(http.StatusOK)
	})
	return router, &seenUser
}

func newTestAuthService(t *testing.T) services.AuthService {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return services.NewAuthService(log, "test-secret", time.Hour)
}

func TestRequireAuthBearerToken(t *testing.T) {
	auth := newTestAuthService(t)
	router, seenUser := newAuthRouter(t, auth)

	userID := uuid.New()
	token, err := auth.GenerateAccessToken(userID)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	if *seenUser != userID {
		t.Fatalf("user=%s want=%s", *seenUser, userID)
	}
}

func TestRequireAuthQueryToken(t *testing.T) {
	auth := newTestAuthService(t)
	router, seenUser := newAuthRouter(t, auth)

	userID := uuid.New()
	token, err := auth.GenerateAccessToken(userID)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/protected?token="+token, nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	if *seenUser != userID {
		t.Fatalf("user=%s want=%s", *seenUser, userID)
	}
}

func TestRequireAuthMissingToken(t *testing.T) {
	router, _ := newAuthRouter(t, newTestAuthService(t))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d", rr.Code)
	}
}

func TestRequireAuthRejectsForgedToken(t *testing.T) {
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	// Signed under a different secret.
	other := services.NewAuthService(log, "other-secret", time.Hour)
	token, err := other.GenerateAccessToken(uuid.New())
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	router, _ := newAuthRouter(t, newTestAuthService(t))
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d", rr.Code)
	}
}

func TestRequireAuthExpiredToken(t *testing.T) {
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	expired := services.NewAuthService(log, "test-secret", -time.Minute)
	token, err := expired.GenerateAccessToken(uuid.New())
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	router, _ := newAuthRouter(t, newTestAuthService(t))
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d", rr.Code)
	}
}
