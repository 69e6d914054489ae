package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"marketapi/internal/models"
)

type reviewCreateRequest struct {
	Title     string `json:"title" binding:"required"`
	Comment   string `json:"comment" binding:"required"`
	Rating    int    `json:"rating" binding:"required"`
	ProductID string `json:"productId" binding:"required"`
}

type reviewUpdateRequest struct {
	Title   *string `json:"title"`
	Comment *string `json:"comment"`
	Rating  *int    `json:"rating"`
}

// purchaseFinder is the slice of *mongo.Collection the eligibility gate
// needs.
type purchaseFinder interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
}

// reviewEligible allows a review only when the requester has a delivered
// order line for the product.
func reviewEligible(ctx context.Context, orders purchaseFinder, userID, productID primitive.ObjectID) error {
	err := orders.FindOne(ctx, bson.M{
		"user":    userID,
		"product": productID,
		"status":  models.StatusDelivered,
	}).Err()
	if err == mongo.ErrNoDocuments {
		return errUnauthorized("you did not purchase this item")
	}
	return err
}

// CreateReview inserts a review once the purchase gate passes: the
// requester must have a delivered order line for the product.
func CreateReview(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /reviews"
		defer handlePanic(c, route)

		userID, _, err := requesterFromContext(c)
		if err != nil {
			writeError(c, route, err)
			return
		}

		var req reviewCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, route, errBadRequest("title, comment, rating and productId are required"))
			return
		}
		if req.Rating < 1 || req.Rating > 5 {
			writeError(c, route, errBadRequest("rating must be between 1 and 5"))
			return
		}

		ctx, cancel := dbContext(c)
		defer cancel()

		var product models.Product
		if err := findByID(ctx, db.Collection("products"), req.ProductID, &product); err != nil {
			writeError(c, route, err)
			return
		}

		if err := reviewEligible(ctx, db.Collection("singleorders"), userID, product.ID); err != nil {
			writeError(c, route, err)
			return
		}

		now := time.Now()
		review := models.Review{
			Title:     req.Title,
			Comment:   req.Comment,
			Rating:    req.Rating,
			User:      userID,
			Product:   product.ID,
			CreatedAt: now,
			UpdatedAt: now,
		}

		res, err := db.Collection("reviews").InsertOne(ctx, review)
		if err != nil {
			writeError(c, route, err)
			return
		}
		if id, ok := res.InsertedID.(primitive.ObjectID); ok {
			review.ID = id
		}

		if err := recalcProductRating(ctx, db, product.ID); err != nil {
			log.Println("[REVIEW] [ERROR] rating aggregation failed:", err)
		}

		log.Println("[REVIEW] [INFO] review created for product:", product.ID.Hex())
		c.JSON(http.StatusCreated, gin.H{"msg": "review created", "review": review})
	}
}

// GetAllReviews lists reviews for a product, five per page.
func GetAllReviews(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /reviews"
		listReviews(c, db, route, nil)
	}
}

// GetMyReviews lists the requester's reviews, five per page.
func GetMyReviews(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /reviews/mine"

		userID, _, err := requesterFromContext(c)
		if err != nil {
			writeError(c, route, err)
			return
		}
		listReviews(c, db, route, &userID)
	}
}

func listReviews(c *gin.Context, db *mongo.Database, route string, userID *primitive.ObjectID) {
	defer handlePanic(c, route)

	var productID *primitive.ObjectID
	if raw := c.Query("product"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			writeError(c, route, errBadRequest("invalid product id"))
			return
		}
		productID = &id
	}

	query, window := buildReviewQuery(productID, userID, parsePage(c.Query("page")))

	findOptions := options.Find().
		SetSkip(window.Skip).
		SetLimit(window.Limit).
		SetSort(bson.D{{Key: "createdAt", Value: -1}})

	ctx, cancel := dbContext(c)
	defer cancel()

	cursor, err := db.Collection("reviews").Find(ctx, query, findOptions)
	if err != nil {
		writeError(c, route, err)
		return
	}
	defer cursor.Close(ctx)

	reviews := make([]models.Review, 0)
	if err := cursor.All(ctx, &reviews); err != nil {
		writeError(c, route, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": reviews, "length": len(reviews)})
}

// GetSingleReview fetches one review by id.
func GetSingleReview(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /reviews/:id"

		ctx, cancel := dbContext(c)
		defer cancel()

		var review models.Review
		if err := findByID(ctx, db.Collection("reviews"), c.Param("id"), &review); err != nil {
			writeError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"msg": "review fetched", "result": review})
	}
}

// UpdateReview lets the author or an admin edit a review.
func UpdateReview(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /reviews/:id"
		defer handlePanic(c, route)

		requesterID, role, err := requesterFromContext(c)
		if err != nil {
			writeError(c, route, err)
			return
		}

		var req reviewUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, route, errBadRequest("invalid request body"))
			return
		}

		ctx, cancel := dbContext(c)
		defer cancel()

		var review models.Review
		if err := findByID(ctx, db.Collection("reviews"), c.Param("id"), &review); err != nil {
			writeError(c, route, err)
			return
		}

		if err := requesterMayMutate(role, requesterID, review.User); err != nil {
			writeError(c, route, err)
			return
		}

		if req.Title != nil {
			review.Title = *req.Title
		}
		if req.Comment != nil {
			review.Comment = *req.Comment
		}
		if req.Rating != nil {
			if *req.Rating < 1 || *req.Rating > 5 {
				writeError(c, route, errBadRequest("rating must be between 1 and 5"))
				return
			}
			review.Rating = *req.Rating
		}
		review.UpdatedAt = time.Now()

		if _, err := db.Collection("reviews").ReplaceOne(ctx, bson.M{"_id": review.ID}, review); err != nil {
			writeError(c, route, err)
			return
		}

		if err := recalcProductRating(ctx, db, review.Product); err != nil {
			log.Println("[REVIEW] [ERROR] rating aggregation failed:", err)
		}

		c.JSON(http.StatusOK, gin.H{"msg": "review updated", "result": review})
	}
}

// DeleteReview removes a review and refreshes the product aggregates.
func DeleteReview(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /reviews/:id"
		defer handlePanic(c, route)

		requesterID, role, err := requesterFromContext(c)
		if err != nil {
			writeError(c, route, err)
			return
		}

		ctx, cancel := dbContext(c)
		defer cancel()

		var review models.Review
		if err := findByID(ctx, db.Collection("reviews"), c.Param("id"), &review); err != nil {
			writeError(c, route, err)
			return
		}

		if err := requesterMayMutate(role, requesterID, review.User); err != nil {
			writeError(c, route, err)
			return
		}

		if _, err := db.Collection("reviews").DeleteOne(ctx, bson.M{"_id": review.ID}); err != nil {
			writeError(c, route, err)
			return
		}

		if err := recalcProductRating(ctx, db, review.Product); err != nil {
			log.Println("[REVIEW] [ERROR] rating aggregation failed:", err)
		}

		c.JSON(http.StatusOK, gin.H{"msg": "review deleted"})
	}
}

// recalcProductRating recomputes numberOfReviews and averageRating from
// the live review set.
func recalcProductRating(ctx context.Context, db *mongo.Database, productID primitive.ObjectID) error {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"product": productID}}},
		{{Key: "$group", Value: bson.M{
			"_id":           "$product",
			"count":         bson.M{"$sum": 1},
			"averageRating": bson.M{"$avg": "$rating"},
		}}},
	}

	cursor, err := db.Collection("reviews").Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	numberOfReviews := 0
	averageRating := 0.0
	if cursor.Next(ctx) {
		var agg struct {
			Count         int     `bson:"count"`
			AverageRating float64 `bson:"averageRating"`
		}
		if err := cursor.Decode(&agg); err != nil {
			return err
		}
		numberOfReviews = agg.Count
		averageRating = agg.AverageRating
	}

	_, err = db.Collection("products").UpdateByID(ctx, productID, bson.M{
		"$set": bson.M{
			"numberOfReviews": numberOfReviews,
			"averageRating":   averageRating,
			"updatedAt":       time.Now(),
		},
	})
	return err
}
