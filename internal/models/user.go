package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles. The first registered account becomes the admin; there is
// never a second one.
const (
	RoleAdmin   = "admin"
	RoleUser    = "user"
	RoleSeller  = "seller"
	RoleCourier = "courier"
)

// UserAddress holds the billing/shipping address used both for orders and
// for the payment provider's customer record.
type UserAddress struct {
	Street      string `bson:"street" json:"street"`
	City        string `bson:"city" json:"city"`
	PostalCode  string `bson:"postalCode" json:"postalCode"`
	Country     string `bson:"country" json:"country"`
	State       string `bson:"state" json:"state"`
	CountryCode string `bson:"countryCode,omitempty" json:"countryCode,omitempty"`
}

// User represents an account document.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Surname      string             `bson:"surname" json:"surname"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"passwordHash" json:"-"`
	Role         string             `bson:"role" json:"role"`
	PhoneNumber  string             `bson:"phoneNumber,omitempty" json:"phoneNumber,omitempty"`
	Address      UserAddress        `bson:"address" json:"address"`

	IsVerified        bool       `bson:"isVerified" json:"isVerified"`
	VerifiedAt        *time.Time `bson:"verifiedAt,omitempty" json:"verifiedAt,omitempty"`
	VerificationToken string     `bson:"verificationToken,omitempty" json:"-"`

	PasswordTokenHash    string    `bson:"passwordTokenHash,omitempty" json:"-"`
	PasswordTokenExpires time.Time `bson:"passwordTokenExpires,omitempty" json:"-"`

	// Cached payment-provider customer id, filled on first successful charge.
	StripeCustomerID string `bson:"stripeCustomerId,omitempty" json:"-"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
