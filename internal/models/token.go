package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RefreshToken stores the sha256 hash of an issued refresh token together
// with the client fingerprint it was issued to.
type RefreshToken struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	User            primitive.ObjectID  `bson:"user" json:"user"`
	TokenHash       string              `bson:"tokenHash" json:"-"`
	IP              string              `bson:"ip,omitempty" json:"-"`
	UserAgent       string              `bson:"userAgent,omitempty" json:"-"`
	ExpiresAt       time.Time           `bson:"expiresAt" json:"expiresAt"`
	Revoked         bool                `bson:"revoked" json:"revoked"`
	ReplacedByToken *primitive.ObjectID `bson:"replacedByToken,omitempty" json:"-"`
	CreatedAt       time.Time           `bson:"createdAt" json:"createdAt"`
}
