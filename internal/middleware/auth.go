package middleware

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// identityFromBearer parses an Authorization header and returns the
// user id and role carried by the token.
func identityFromBearer(secret, header string) (primitive.ObjectID, string, error) {
	raw := strings.TrimSpace(header)
	if raw == "" {
		return primitive.NilObjectID, "", errMissingToken
	}

	parts := strings.Split(raw, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return primitive.NilObjectID, "", errInvalidToken
	}

	token, err := jwt.Parse(parts[1], func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return primitive.NilObjectID, "", errInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return primitive.NilObjectID, "", errInvalidToken
	}

	sub, _ := claims["sub"].(string)
	userID, err := primitive.ObjectIDFromHex(strings.TrimSpace(sub))
	if err != nil {
		return primitive.NilObjectID, "", errInvalidToken
	}

	role, _ := claims["role"].(string)
	return userID, role, nil
}

var (
	errMissingToken = &authError{"missing token"}
	errInvalidToken = &authError{"invalid token"}
)

type authError struct{ msg string }

func (e *authError) Error() string { return e.msg }

// AuthGuard validates the bearer token, stores userId and role in the
// context and, when allowedRoles is non-empty, rejects other roles.
func AuthGuard(secret string, allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, role, err := identityFromBearer(secret, c.GetHeader("Authorization"))
		if err != nil {
			log.Println("[AUTH] [ERROR] token validation failed:", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		if len(allowedRoles) > 0 {
			match := false
			for _, r := range allowedRoles {
				if role == r {
					match = true
					break
				}
			}
			if !match {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
				return
			}
		}

		c.Set("userId", userID)
		c.Set("role", role)
		c.Next()
	}
}

// OptionalAuth stores userId and role when a valid bearer token is
// present and lets the request through anonymously otherwise. Public
// listings use it so signed-in requests can still apply owner filters.
func OptionalAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, role, err := identityFromBearer(secret, c.GetHeader("Authorization"))
		if err == nil {
			c.Set("userId", userID)
			c.Set("role", role)
		}
		c.Next()
	}
}
