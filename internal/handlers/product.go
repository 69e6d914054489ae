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

type productUpdateRequest struct {
	Name        *string   `json:"name"`
	Brand       *string   `json:"brand"`
	Price       *float64  `json:"price"`
	Tax         *float64  `json:"tax"`
	Images      *[]string `json:"images"`
	Description *[]string `json:"description"`
	Size        *[]string `json:"size"`
	Gender      *string   `json:"gender"`
	Category    *string   `json:"category"`
	SubCategory *string   `json:"subCategory"`
	Stock       *int      `json:"stock"`
}

// CreateProduct registers a new product for the requesting seller.
func CreateProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /products"
		defer handlePanic(c, route)

		sellerID, _, err := requesterFromContext(c)
		if err != nil {
			writeError(c, route, err)
			return
		}

		var req productCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, route, errBadRequest("invalid request body"))
			return
		}

		if err := validateNewProduct(req); err != nil {
			writeError(c, route, err)
			return
		}

		ctx, cancel := dbContext(c)
		defer cancel()

		count, err := db.Collection("products").CountDocuments(ctx, bson.M{
			"name":  req.Name,
			"brand": req.Brand,
		})
		if err != nil {
			writeError(c, route, err)
			return
		}
		if count > 0 {
			writeError(c, route, errConflict("product already exists"))
			return
		}

		now := time.Now()
		product := models.Product{
			Name:        strings.TrimSpace(req.Name),
			Brand:       strings.TrimSpace(req.Brand),
			Price:       req.Price,
			Tax:         req.Tax,
			Images:      models.StringList(req.Images),
			Description: models.StringList(req.Description),
			Size:        models.StringList(req.Size),
			Gender:      req.Gender,
			Category:    req.Category,
			SubCategory: req.SubCategory,
			Stock:       req.Stock,
			Seller:      sellerID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		res, err := db.Collection("products").InsertOne(ctx, product)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				writeError(c, route, errConflict("product already exists"))
				return
			}
			writeError(c, route, err)
			return
		}
		if id, ok := res.InsertedID.(primitive.ObjectID); ok {
			product.ID = id
		}

		log.Println("[PRODUCT] [INFO] product created:", product.Name)
		c.JSON(http.StatusCreated, gin.H{"msg": "product created", "product": product})
	}
}

// GetAllProducts lists products with the optional client filter applied.
func GetAllProducts(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /products"
		defer handlePanic(c, route)

		if err := ensureDBConnection(c.Request.Context(), db); err != nil {
			respondWithError(c, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}

		// The seller flag only applies when the request is authenticated.
		var requesterID *primitive.ObjectID
		if idValue, ok := c.Get("userId"); ok {
			if id, ok := idValue.(primitive.ObjectID); ok {
				requesterID = &id
			}
		}

		query, window := buildProductQuery(parseProductFilterOptions(c, requesterID))

		findOptions := options.Find().
			SetSkip(window.Skip).
			SetLimit(window.Limit).
			SetSort(bson.D{{Key: "createdAt", Value: -1}})

		ctx, cancel := dbContext(c)
		defer cancel()

		cursor, err := db.Collection("products").Find(ctx, query, findOptions)
		if err != nil {
			writeError(c, route, err)
			return
		}
		defer cursor.Close(ctx)

		products := make([]models.Product, 0)
		if err := cursor.All(ctx, &products); err != nil {
			writeError(c, route, err)
			return
		}

		log.Printf("[%s] returning %d products", route, len(products))
		c.JSON(http.StatusOK, gin.H{"result": products, "length": len(products)})
	}
}

// GetSingleProduct fetches one product by id.
func GetSingleProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /products/:id"

		ctx, cancel := dbContext(c)
		defer cancel()

		var product models.Product
		if err := findByID(ctx, db.Collection("products"), c.Param("id"), &product); err != nil {
			writeError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"product": product})
	}
}

// UpdateProduct applies a partial update after the ownership check.
func UpdateProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /products/:id"
		defer handlePanic(c, route)

		requesterID, role, err := requesterFromContext(c)
		if err != nil {
			writeError(c, route, err)
			return
		}

		var req productUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, route, errBadRequest("invalid request body"))
			return
		}

		ctx, cancel := dbContext(c)
		defer cancel()

		var product models.Product
		if err := findByID(ctx, db.Collection("products"), c.Param("id"), &product); err != nil {
			writeError(c, route, err)
			return
		}

		if err := requesterMayMutate(role, requesterID, product.Seller); err != nil {
			writeError(c, route, err)
			return
		}

		if req.Name != nil {
			product.Name = strings.TrimSpace(*req.Name)
		}
		if req.Brand != nil {
			product.Brand = strings.TrimSpace(*req.Brand)
		}
		if req.Price != nil {
			product.Price = *req.Price
		}
		if req.Tax != nil {
			product.Tax = *req.Tax
		}
		if req.Images != nil {
			product.Images = models.StringList(*req.Images)
		}
		if req.Description != nil {
			if err := validateDescription(*req.Description); err != nil {
				writeError(c, route, err)
				return
			}
			product.Description = models.StringList(*req.Description)
		}
		if req.Size != nil {
			product.Size = models.StringList(*req.Size)
		}
		if req.Gender != nil {
			if !validGender(*req.Gender) {
				writeError(c, route, errBadRequest("gender must be one of M, F, B"))
				return
			}
			product.Gender = *req.Gender
		}
		if req.Category != nil {
			product.Category = *req.Category
		}
		if req.SubCategory != nil {
			product.SubCategory = *req.SubCategory
		}
		if req.Category != nil || req.SubCategory != nil {
			if err := validateCategoryPair(product.Category, product.SubCategory); err != nil {
				writeError(c, route, err)
				return
			}
		}
		if req.Stock != nil {
			if *req.Stock < 0 {
				writeError(c, route, errBadRequest("stock can not be negative"))
				return
			}
			product.Stock = *req.Stock
		}
		product.UpdatedAt = time.Now()

		if _, err := db.Collection("products").ReplaceOne(ctx, bson.M{"_id": product.ID}, product); err != nil {
			writeError(c, route, err)
			return
		}

		log.Println("[PRODUCT] [INFO] product updated:", product.ID.Hex())
		c.JSON(http.StatusOK, gin.H{"msg": "product updated", "product": product})
	}
}

// DeleteProduct removes a product and cascades to its reviews and cart
// items. The steps are not transactional; a failure in between leaves
// orphans that the next cascade sweep would need to clean.
func DeleteProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /products/:id"
		defer handlePanic(c, route)

		requesterID, role, err := requesterFromContext(c)
		if err != nil {
			writeError(c, route, err)
			return
		}

		ctx, cancel := dbContext(c)
		defer cancel()

		var product models.Product
		if err := findByID(ctx, db.Collection("products"), c.Param("id"), &product); err != nil {
			writeError(c, route, err)
			return
		}

		if err := requesterMayMutate(role, requesterID, product.Seller); err != nil {
			writeError(c, route, err)
			return
		}

		if _, err := db.Collection("products").DeleteOne(ctx, bson.M{"_id": product.ID}); err != nil {
			writeError(c, route, err)
			return
		}

		if _, err := db.Collection("reviews").DeleteMany(ctx, bson.M{"product": product.ID}); err != nil {
			log.Println("[PRODUCT] [ERROR] review cascade failed:", err)
		}
		if _, err := db.Collection("cartitems").DeleteMany(ctx, bson.M{"product": product.ID}); err != nil {
			log.Println("[PRODUCT] [ERROR] cart cascade failed:", err)
		}

		log.Println("[PRODUCT] [INFO] product deleted:", product.ID.Hex())
		c.JSON(http.StatusOK, gin.H{"msg": "product, related reviews and cart items are deleted"})
	}
}
