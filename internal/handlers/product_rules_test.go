package handlers

import (
	"net/http"
	"strings"
	"testing"
)

func validProductRequest() productCreateRequest {
	return productCreateRequest{
		Name:        "Air Runner",
		Brand:       "Acme",
		Price:       59.99,
		Tax:         0.18,
		Images:      []string{"https://cdn.example.com/p/1.jpg"},
		Description: []string{"light", "breathable"},
		Size:        []string{"40", "41", "42"},
		Gender:      "B",
		Category:    "shoes",
		SubCategory: "sneakers",
		Stock:       10,
	}
}

func TestValidateNewProductAcceptsValidInput(t *testing.T) {
	if err := validateNewProduct(validProductRequest()); err != nil {
		t.Fatalf("expected valid product, got %v", err)
	}
}

func TestValidateNewProductMissingCredentials(t *testing.T) {
	req := validProductRequest()
	req.Brand = ""
	err := validateNewProduct(req)
	if err == nil || statusOf(err) != http.StatusBadRequest {
		t.Fatalf("expected BadRequest for missing brand, got %v", err)
	}
}

func TestValidateDescriptionTooManyEntries(t *testing.T) {
	description := []string{"a", "b", "c", "d", "e", "f", "g"}
	err := validateDescription(description)
	if err == nil || statusOf(err) != http.StatusBadRequest {
		t.Fatalf("expected BadRequest for 7 entries, got %v", err)
	}
}

func TestValidateDescriptionSixShortEntriesPass(t *testing.T) {
	description := []string{"one", "two", "three", "four", "five", "exactly 24 characters ok"}
	if len(description[5]) != 24 {
		t.Fatalf("fixture entry must be 24 chars, got %d", len(description[5]))
	}
	if err := validateDescription(description); err != nil {
		t.Fatalf("expected 6 entries of <=24 chars to pass, got %v", err)
	}
}

func TestValidateDescriptionEntryTooLong(t *testing.T) {
	err := validateDescription([]string{strings.Repeat("x", 25)})
	if err == nil || statusOf(err) != http.StatusBadRequest {
		t.Fatalf("expected BadRequest for 25-char entry, got %v", err)
	}
}

func TestValidateCategoryPairRejectsForeignSubCategory(t *testing.T) {
	req := validProductRequest()
	req.Category = "clothes"
	req.SubCategory = "sneakers"
	err := validateNewProduct(req)
	if err == nil || statusOf(err) != http.StatusBadRequest {
		t.Fatalf("expected BadRequest for clothes/sneakers, got %v", err)
	}
}

func TestValidateCategoryPairUnknownCategory(t *testing.T) {
	err := validateCategoryPair("furniture", "chairs")
	if err == nil || statusOf(err) != http.StatusBadRequest {
		t.Fatalf("expected BadRequest for unknown category, got %v", err)
	}
}
