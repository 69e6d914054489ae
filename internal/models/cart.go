package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartItem is a pending purchase line for a user. Items are consumed by
// order creation and removed when their product is deleted.
type CartItem struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	User      primitive.ObjectID `bson:"user" json:"user"`
	Product   primitive.ObjectID `bson:"product" json:"product"`
	Amount    int                `bson:"amount" json:"amount"`
	Price     float64            `bson:"price" json:"price"`
	Tax       float64            `bson:"tax" json:"tax"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}
