package handlers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"marketapi/internal/models"
)

type cartItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Amount    int    `json:"amount" binding:"required"`
}

// AddCartItem puts a product into the requester's cart, accumulating the
// amount when the line already exists.
func AddCartItem(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /cart"
		defer handlePanic(c, route)

		userID, _, err := requesterFromContext(c)
		if err != nil {
			writeError(c, route, err)
			return
		}

		var req cartItemRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Amount <= 0 {
			writeError(c, route, errBadRequest("productId and a positive amount are required"))
			return
		}

		ctx, cancel := dbContext(c)
		defer cancel()

		var product models.Product
		if err := findByID(ctx, db.Collection("products"), req.ProductID, &product); err != nil {
			writeError(c, route, err)
			return
		}
		if product.Stock < req.Amount {
			writeError(c, route, errBadRequest("not enough stock"))
			return
		}

		now := time.Now()
		_, err = db.Collection("cartitems").UpdateOne(ctx,
			bson.M{"user": userID, "product": product.ID},
			bson.M{
				"$inc": bson.M{"amount": req.Amount},
				"$set": bson.M{
					"price":     product.Price,
					"tax":       product.Tax,
					"updatedAt": now,
				},
				"$setOnInsert": bson.M{
					"user":      userID,
					"product":   product.ID,
					"createdAt": now,
				},
			},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			writeError(c, route, err)
			return
		}

		log.Println("[CART] [INFO] item added:", product.ID.Hex())
		c.JSON(http.StatusCreated, gin.H{"msg": "item added to cart"})
	}
}

// GetCart lists the requester's cart lines.
func GetCart(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /cart"
		defer handlePanic(c, route)

		userID, _, err := requesterFromContext(c)
		if err != nil {
			writeError(c, route, err)
			return
		}

		ctx, cancel := dbContext(c)
		defer cancel()

		cursor, err := db.Collection("cartitems").Find(ctx, bson.M{"user": userID})
		if err != nil {
			writeError(c, route, err)
			return
		}
		defer cursor.Close(ctx)

		items := make([]models.CartItem, 0)
		if err := cursor.All(ctx, &items); err != nil {
			writeError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"result": items, "length": len(items)})
	}
}

// RemoveCartItem deletes one product line from the requester's cart.
func RemoveCartItem(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /cart/:productId"
		defer handlePanic(c, route)

		userID, _, err := requesterFromContext(c)
		if err != nil {
			writeError(c, route, err)
			return
		}

		productID, err := primitive.ObjectIDFromHex(strings.TrimSpace(c.Param("productId")))
		if err != nil {
			writeError(c, route, errBadRequest("invalid productId"))
			return
		}

		ctx, cancel := dbContext(c)
		defer cancel()

		res, err := db.Collection("cartitems").DeleteOne(ctx, bson.M{
			"user":    userID,
			"product": productID,
		})
		if err != nil {
			writeError(c, route, err)
			return
		}
		if res.DeletedCount == 0 {
			writeError(c, route, errNotFound("cart item not found"))
			return
		}

		c.JSON(http.StatusOK, gin.H{"msg": "item removed from cart"})
	}
}
