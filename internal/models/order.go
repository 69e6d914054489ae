package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order statuses. Transitions are driven by the payment provider outcome
// and by admin/seller/courier updates.
const (
	StatusPending   = "pending"
	StatusFailed    = "failed"
	StatusPaid      = "paid"
	StatusDelivered = "delivered"
	StatusCanceled  = "canceled"
)

// OrderItem is the per-product snapshot embedded in an order.
type OrderItem struct {
	Product primitive.ObjectID `bson:"product" json:"product"`
	Name    string             `bson:"name" json:"name"`
	Amount  int                `bson:"amount" json:"amount"`
	Price   float64            `bson:"price" json:"price"`
	Tax     float64            `bson:"tax" json:"tax"`
}

// Order is the persisted order document.
type Order struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	User       primitive.ObjectID `bson:"user" json:"user"`
	Items      []OrderItem        `bson:"items" json:"items"`
	TotalPrice float64            `bson:"totalPrice" json:"totalPrice"`
	Tax        float64            `bson:"tax" json:"tax"`
	Currency   string             `bson:"currency" json:"currency"`
	Status     string             `bson:"status" json:"status"`

	PaymentIntentID string `bson:"paymentIntentId,omitempty" json:"paymentIntentId,omitempty"`
	ClientSecret    string `bson:"clientSecret,omitempty" json:"-"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// SingleOrder is one product line of an order, stored in its own
// collection so sellers and couriers can track and update lines
// independently. The review eligibility gate queries this collection.
type SingleOrder struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Order     primitive.ObjectID `bson:"order" json:"order"`
	User      primitive.ObjectID `bson:"user" json:"user"`
	Product   primitive.ObjectID `bson:"product" json:"product"`
	Seller    primitive.ObjectID `bson:"seller" json:"seller"`
	Amount    int                `bson:"amount" json:"amount"`
	Price     float64            `bson:"price" json:"price"`
	Tax       float64            `bson:"tax" json:"tax"`
	Status    string             `bson:"status" json:"status"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}
