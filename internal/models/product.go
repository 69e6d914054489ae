package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product gender values.
const (
	GenderMale   = "M"
	GenderFemale = "F"
	GenderBoth   = "B"
)

// Product represents a sellable item document. A (name, brand) pair is
// unique across the collection.
type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Brand       string             `bson:"brand" json:"brand"`
	Price       float64            `bson:"price" json:"price"`
	Tax         float64            `bson:"tax" json:"tax"`
	Images      StringList         `bson:"images" json:"images"`
	Description StringList         `bson:"description" json:"description"`
	Size        StringList         `bson:"size" json:"size"`
	Gender      string             `bson:"gender" json:"gender"`
	Category    string             `bson:"category" json:"category"`
	SubCategory string             `bson:"subCategory" json:"subCategory"`
	Stock       int                `bson:"stock" json:"stock"`

	NumberOfReviews int     `bson:"numberOfReviews" json:"numberOfReviews"`
	AverageRating   float64 `bson:"averageRating" json:"averageRating"`

	Seller    primitive.ObjectID `bson:"seller" json:"seller"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}
