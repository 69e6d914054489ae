package handlers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"marketapi/internal/models"
)

type userUpdateRequest struct {
	Name        *string             `json:"name"`
	Surname     *string             `json:"surname"`
	PhoneNumber *string             `json:"phoneNumber"`
	Address     *models.UserAddress `json:"address"`
}

// GetAllUsers lists accounts without credential fields. Admin only.
func GetAllUsers(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /users"
		defer handlePanic(c, route)

		window := limitAndSkip(parsePage(c.Query("page")), orderPageSize)
		findOptions := options.Find().
			SetSkip(window.Skip).
			SetLimit(window.Limit).
			SetSort(bson.D{{Key: "createdAt", Value: -1}})

		ctx, cancel := dbContext(c)
		defer cancel()

		cursor, err := db.Collection("users").Find(ctx, bson.M{}, findOptions)
		if err != nil {
			writeError(c, route, err)
			return
		}
		defer cursor.Close(ctx)

		users := make([]models.User, 0)
		if err := cursor.All(ctx, &users); err != nil {
			writeError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"result": users, "length": len(users)})
	}
}

// GetSingleUser fetches one account; non-admins only their own.
func GetSingleUser(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /users/:id"

		requesterID, role, err := requesterFromContext(c)
		if err != nil {
			writeError(c, route, err)
			return
		}

		ctx, cancel := dbContext(c)
		defer cancel()

		var user models.User
		if err := findByID(ctx, db.Collection("users"), c.Param("id"), &user); err != nil {
			writeError(c, route, err)
			return
		}

		if err := requesterMayMutate(role, requesterID, user.ID); err != nil {
			writeError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"user": user})
	}
}

// UpdateUser applies profile changes after the ownership check.
func UpdateUser(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /users/:id"
		defer handlePanic(c, route)

		requesterID, role, err := requesterFromContext(c)
		if err != nil {
			writeError(c, route, err)
			return
		}

		var req userUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, route, errBadRequest("invalid request body"))
			return
		}

		ctx, cancel := dbContext(c)
		defer cancel()

		var user models.User
		if err := findByID(ctx, db.Collection("users"), c.Param("id"), &user); err != nil {
			writeError(c, route, err)
			return
		}

		if err := requesterMayMutate(role, requesterID, user.ID); err != nil {
			writeError(c, route, err)
			return
		}

		if req.Name != nil {
			user.Name = strings.TrimSpace(*req.Name)
		}
		if req.Surname != nil {
			user.Surname = strings.TrimSpace(*req.Surname)
		}
		if req.PhoneNumber != nil {
			user.PhoneNumber = strings.TrimSpace(*req.PhoneNumber)
		}
		if req.Address != nil {
			user.Address = *req.Address
		}
		user.UpdatedAt = time.Now()

		if _, err := db.Collection("users").ReplaceOne(ctx, bson.M{"_id": user.ID}, user); err != nil {
			writeError(c, route, err)
			return
		}

		log.Println("[USER] [INFO] user updated:", user.ID.Hex())
		c.JSON(http.StatusOK, gin.H{"msg": "user updated", "user": user})
	}
}
