package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"marketapi/internal/middleware"
)

// listingQueryRouter wires the product listing's filter parsing behind
// the same optional guard the real route uses and captures the query it
// would send to the database.
func listingQueryRouter(secret string, captured *bson.M) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/products", middleware.OptionalAuth(secret), func(c *gin.Context) {
		var requesterID *primitive.ObjectID
		if v, ok := c.Get("userId"); ok {
			if id, ok := v.(primitive.ObjectID); ok {
				requesterID = &id
			}
		}
		query, _ := buildProductQuery(parseProductFilterOptions(c, requesterID))
		*captured = query
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func TestSellerFilterAppliesForAuthenticatedListing(t *testing.T) {
	const secret = "listing-secret"
	sellerID := primitive.NewObjectID()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  sellerID.Hex(),
		"role": "seller",
		"exp":  time.Now().Add(time.Minute).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)

	var query bson.M
	r := listingQueryRouter(secret, &query)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/products?seller=true", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, sellerID, query["seller"])
}

func TestSellerFilterIgnoredForAnonymousListing(t *testing.T) {
	var query bson.M
	r := listingQueryRouter("listing-secret", &query)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/products?seller=true", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotContains(t, query, "seller")
}
