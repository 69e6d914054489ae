package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "test-secret"

func signToken(t *testing.T, userID primitive.ObjectID, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  userID.Hex(),
		"role": role,
		"exp":  time.Now().Add(time.Minute).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func recordIdentityRouter(guard gin.HandlerFunc, gotID *primitive.ObjectID, gotRole *string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/resource", guard, func(c *gin.Context) {
		if v, ok := c.Get("userId"); ok {
			if id, ok := v.(primitive.ObjectID); ok {
				*gotID = id
			}
		}
		if v, ok := c.Get("role"); ok {
			*gotRole, _ = v.(string)
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func TestAuthGuardRejectsMissingToken(t *testing.T) {
	var id primitive.ObjectID
	var role string
	r := recordIdentityRouter(AuthGuard(testSecret), &id, &role)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/resource", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.True(t, id.IsZero())
}

func TestAuthGuardRejectsDisallowedRole(t *testing.T) {
	var id primitive.ObjectID
	var role string
	r := recordIdentityRouter(AuthGuard(testSecret, "admin"), &id, &role)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/resource", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, primitive.NewObjectID(), "user"))
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestAuthGuardSetsIdentity(t *testing.T) {
	userID := primitive.NewObjectID()
	var id primitive.ObjectID
	var role string
	r := recordIdentityRouter(AuthGuard(testSecret, "seller"), &id, &role)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/resource", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, userID, "seller"))
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, userID, id)
	require.Equal(t, "seller", role)
}

func TestOptionalAuthAnonymousPassesThrough(t *testing.T) {
	var id primitive.ObjectID
	var role string
	r := recordIdentityRouter(OptionalAuth(testSecret), &id, &role)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/resource", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, id.IsZero())
	require.Empty(t, role)
}

func TestOptionalAuthSetsIdentityWhenTokenValid(t *testing.T) {
	userID := primitive.NewObjectID()
	var id primitive.ObjectID
	var role string
	r := recordIdentityRouter(OptionalAuth(testSecret), &id, &role)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/resource", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, userID, "seller"))
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, userID, id)
	require.Equal(t, "seller", role)
}

func TestOptionalAuthIgnoresGarbageToken(t *testing.T) {
	var id primitive.ObjectID
	var role string
	r := recordIdentityRouter(OptionalAuth(testSecret), &id, &role)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/resource", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, id.IsZero())
}
