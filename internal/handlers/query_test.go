package handlers

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestLimitAndSkip(t *testing.T) {
	cases := []struct {
		page     int64
		limit    int64
		wantSkip int64
	}{
		{1, 20, 0},
		{2, 20, 20},
		{5, 20, 80},
		{3, 5, 10},
		{0, 20, 0},
		{-4, 20, 0},
	}

	for _, tc := range cases {
		window := limitAndSkip(tc.page, tc.limit)
		if window.Skip != tc.wantSkip {
			t.Fatalf("limitAndSkip(%d, %d).Skip = %d, want %d", tc.page, tc.limit, window.Skip, tc.wantSkip)
		}
		if window.Limit != tc.limit {
			t.Fatalf("limitAndSkip(%d, %d).Limit = %d, want %d", tc.page, tc.limit, window.Limit, tc.limit)
		}
	}
}

func TestBuildProductQueryEmptyOptions(t *testing.T) {
	query, window := buildProductQuery(productFilterOptions{})
	if len(query) != 0 {
		t.Fatalf("expected empty query, got %v", query)
	}
	if window.Limit != productPageSize || window.Skip != 0 {
		t.Fatalf("unexpected window %+v", window)
	}
}

func TestBuildProductQueryTextFieldsAreCaseInsensitiveSubstrings(t *testing.T) {
	query, _ := buildProductQuery(productFilterOptions{Name: "shirt", Color: " Blue "})

	name, ok := query["name"].(bson.M)
	if !ok {
		t.Fatalf("expected regex predicate for name, got %v", query["name"])
	}
	if name["$regex"] != "shirt" || name["$options"] != "i" {
		t.Fatalf("unexpected name predicate %v", name)
	}

	color := query["color"].(bson.M)
	if color["$regex"] != "Blue" {
		t.Fatalf("expected trimmed color value, got %v", color["$regex"])
	}
}

func TestBuildProductQueryFlagsAndRange(t *testing.T) {
	gte, lte := 10.0, 50.0
	rating := 4.0
	seller := primitive.NewObjectID()

	query, window := buildProductQuery(productFilterOptions{
		Price:    priceRange{GTE: &gte, LTE: &lte},
		IsReview: true,
		IsStock:  true,
		Rating:   &rating,
		Seller:   &seller,
		Page:     3,
	})

	price := query["price"].(bson.M)
	if price["$gte"] != 10.0 || price["$lte"] != 50.0 {
		t.Fatalf("unexpected price predicate %v", price)
	}
	if query["numberOfReviews"].(bson.M)["$gt"] != 0 {
		t.Fatalf("expected numberOfReviews > 0, got %v", query["numberOfReviews"])
	}
	if query["stock"].(bson.M)["$gt"] != 0 {
		t.Fatalf("expected stock > 0, got %v", query["stock"])
	}
	if query["averageRating"] != 4.0 {
		t.Fatalf("expected exact rating, got %v", query["averageRating"])
	}
	if query["seller"] != seller {
		t.Fatalf("expected seller restriction, got %v", query["seller"])
	}
	if window.Skip != 2*productPageSize {
		t.Fatalf("expected skip %d, got %d", 2*productPageSize, window.Skip)
	}
}

func TestBuildReviewQueryPageSize(t *testing.T) {
	productID := primitive.NewObjectID()
	query, window := buildReviewQuery(&productID, nil, 4)

	if query["product"] != productID {
		t.Fatalf("expected product scope, got %v", query)
	}
	if _, ok := query["user"]; ok {
		t.Fatal("did not expect user scope")
	}
	if window.Limit != reviewPageSize {
		t.Fatalf("expected limit %d, got %d", reviewPageSize, window.Limit)
	}
	if window.Skip != 3*reviewPageSize {
		t.Fatalf("expected skip %d, got %d", 3*reviewPageSize, window.Skip)
	}
}

func TestParsePageIgnoresInvalidValues(t *testing.T) {
	for _, value := range []string{"", "abc", "0", "-2", "1.5"} {
		if got := parsePage(value); got != 1 {
			t.Fatalf("parsePage(%q) = %d, want 1", value, got)
		}
	}
	if got := parsePage("7"); got != 7 {
		t.Fatalf("parsePage(7) = %d", got)
	}
}
