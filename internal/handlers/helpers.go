package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

func handlePanic(c *gin.Context, route string) {
	if r := recover(); r != nil {
		log.Printf("[%s] panic recovered: %v", route, r)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func ensureDBConnection(ctx context.Context, db *mongo.Database) error {
	checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return db.Client().Ping(checkCtx, readpref.Primary())
}

func respondWithError(c *gin.Context, status int, route string, message string) {
	log.Printf("[%s] returning error %d: %s", route, status, message)
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

func dbContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), 5*time.Second)
}

// requesterFromContext reads the id and role stored by the auth guard.
func requesterFromContext(c *gin.Context) (primitive.ObjectID, string, error) {
	idValue, ok := c.Get("userId")
	if !ok {
		return primitive.NilObjectID, "", errUnauthorized("unauthorized")
	}
	userID, ok := idValue.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, "", errUnauthorized("unauthorized")
	}

	roleValue, _ := c.Get("role")
	role, _ := roleValue.(string)

	return userID, role, nil
}
