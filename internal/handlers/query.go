package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Fixed page sizes; clients cannot raise them.
const (
	productPageSize int64 = 20
	reviewPageSize  int64 = 5
	orderPageSize   int64 = 20
)

type pageWindow struct {
	Limit int64
	Skip  int64
}

// limitAndSkip clamps the page to 1 and derives the cursor window.
func limitAndSkip(page, limit int64) pageWindow {
	if page < 1 {
		page = 1
	}
	return pageWindow{Limit: limit, Skip: (page - 1) * limit}
}

// containsRegex compiles a free-text field to a case-insensitive substring
// predicate.
func containsRegex(value string) bson.M {
	return bson.M{"$regex": strings.TrimSpace(value), "$options": "i"}
}

type priceRange struct {
	GTE *float64
	LTE *float64
}

type productFilterOptions struct {
	Name     string
	Brand    string
	Color    string
	Size     string
	Gender   string
	Rating   *float64
	Price    priceRange
	IsReview bool
	IsStock  bool
	Seller   *primitive.ObjectID
	Page     int64
}

// buildProductQuery translates the loosely-typed client filter into a
// document filter plus a limit/skip pair. Absent fields impose no
// constraint; the price range passes through as-is.
func buildProductQuery(opts productFilterOptions) (bson.M, pageWindow) {
	query := bson.M{}

	if strings.TrimSpace(opts.Name) != "" {
		query["name"] = containsRegex(opts.Name)
	}
	if strings.TrimSpace(opts.Brand) != "" {
		query["brand"] = containsRegex(opts.Brand)
	}
	if strings.TrimSpace(opts.Color) != "" {
		query["color"] = containsRegex(opts.Color)
	}
	if strings.TrimSpace(opts.Size) != "" {
		query["size"] = opts.Size
	}
	if strings.TrimSpace(opts.Gender) != "" {
		query["gender"] = opts.Gender
	}
	if opts.Rating != nil {
		query["averageRating"] = *opts.Rating
	}
	if opts.Price.GTE != nil || opts.Price.LTE != nil {
		price := bson.M{}
		if opts.Price.GTE != nil {
			price["$gte"] = *opts.Price.GTE
		}
		if opts.Price.LTE != nil {
			price["$lte"] = *opts.Price.LTE
		}
		query["price"] = price
	}
	if opts.IsReview {
		query["numberOfReviews"] = bson.M{"$gt": 0}
	}
	if opts.IsStock {
		query["stock"] = bson.M{"$gt": 0}
	}
	if opts.Seller != nil {
		query["seller"] = *opts.Seller
	}

	return query, limitAndSkip(opts.Page, productPageSize)
}

// buildReviewQuery scopes a review listing to a product and/or author.
func buildReviewQuery(productID, userID *primitive.ObjectID, page int64) (bson.M, pageWindow) {
	query := bson.M{}
	if productID != nil {
		query["product"] = *productID
	}
	if userID != nil {
		query["user"] = *userID
	}
	return query, limitAndSkip(page, reviewPageSize)
}

// parseProductFilterOptions reads filter fields off the query string.
// Invalid values are silently ignored, matching the contract that only
// well-formed constraints apply.
func parseProductFilterOptions(c *gin.Context, requesterID *primitive.ObjectID) productFilterOptions {
	opts := productFilterOptions{
		Name:   c.Query("name"),
		Brand:  c.Query("brand"),
		Color:  c.Query("color"),
		Size:   c.Query("size"),
		Gender: c.Query("gender"),
		Page:   parsePage(c.Query("page")),
	}

	if rating, err := strconv.ParseFloat(c.Query("rating"), 64); err == nil {
		opts.Rating = &rating
	}
	if gte, err := strconv.ParseFloat(c.Query("priceGte"), 64); err == nil {
		opts.Price.GTE = &gte
	}
	if lte, err := strconv.ParseFloat(c.Query("priceLte"), 64); err == nil {
		opts.Price.LTE = &lte
	}

	opts.IsReview = c.Query("isReview") == "true"
	opts.IsStock = c.Query("isStock") == "true"

	if c.Query("seller") == "true" && requesterID != nil {
		opts.Seller = requesterID
	}

	return opts
}

func parsePage(value string) int64 {
	page, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || page < 1 {
		return 1
	}
	return page
}
