package handlers

import (
	"fmt"
	"strings"

	"marketapi/internal/models"
)

const (
	maxDescriptionEntries     = 6
	maxDescriptionEntryLength = 24
)

// categoriesAndSubCategories is the allowed sub-category set per category.
var categoriesAndSubCategories = map[string][]string{
	"clothes": {"shirts", "pants", "jackets", "dresses", "hoodies"},
	"shoes":   {"sneakers", "boots", "heels", "sandals", "slippers"},
}

func validGender(gender string) bool {
	switch gender {
	case models.GenderMale, models.GenderFemale, models.GenderBoth:
		return true
	}
	return false
}

func validateDescription(description []string) error {
	if len(description) > maxDescriptionEntries {
		return errBadRequest(fmt.Sprintf("max description list length for a product is %d", maxDescriptionEntries))
	}
	for _, entry := range description {
		if len(entry) > maxDescriptionEntryLength {
			return errBadRequest(fmt.Sprintf("a description can not be longer than %d characters", maxDescriptionEntryLength))
		}
	}
	return nil
}

func validateCategoryPair(category, subCategory string) error {
	allowed, ok := categoriesAndSubCategories[category]
	if !ok {
		return errBadRequest("unknown category: " + category)
	}
	for _, sub := range allowed {
		if sub == subCategory {
			return nil
		}
	}
	return errBadRequest("sub-category does not match with the category")
}

type productCreateRequest struct {
	Name        string   `json:"name"`
	Brand       string   `json:"brand"`
	Price       float64  `json:"price"`
	Tax         float64  `json:"tax"`
	Images      []string `json:"images"`
	Description []string `json:"description"`
	Size        []string `json:"size"`
	Gender      string   `json:"gender"`
	Category    string   `json:"category"`
	SubCategory string   `json:"subCategory"`
	Stock       int      `json:"stock"`
}

func validateNewProduct(req productCreateRequest) error {
	if strings.TrimSpace(req.Name) == "" ||
		strings.TrimSpace(req.Brand) == "" ||
		req.Price == 0 ||
		req.Tax == 0 ||
		len(req.Images) == 0 ||
		len(req.Description) == 0 ||
		len(req.Size) == 0 ||
		req.Gender == "" ||
		req.Category == "" ||
		req.SubCategory == "" {
		return errBadRequest("missing credentials")
	}
	if req.Stock < 0 {
		return errBadRequest("stock can not be negative")
	}
	if !validGender(req.Gender) {
		return errBadRequest("gender must be one of M, F, B")
	}
	if err := validateDescription(req.Description); err != nil {
		return err
	}
	return validateCategoryPair(req.Category, req.SubCategory)
}
