package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"marketapi/internal/models"
)

// fakePurchaseFinder returns a canned lookup result and records the
// filter it was asked for.
type fakePurchaseFinder struct {
	result *mongo.SingleResult
	filter bson.M
}

func (f *fakePurchaseFinder) FindOne(_ context.Context, filter interface{}, _ ...*options.FindOneOptions) *mongo.SingleResult {
	f.filter, _ = filter.(bson.M)
	return f.result
}

func TestReviewEligibleWithoutPurchase(t *testing.T) {
	finder := &fakePurchaseFinder{
		result: mongo.NewSingleResultFromDocument(bson.D{}, mongo.ErrNoDocuments, nil),
	}

	err := reviewEligible(context.Background(), finder, primitive.NewObjectID(), primitive.NewObjectID())

	require.Error(t, err)
	require.Equal(t, http.StatusUnauthorized, statusOf(err))
	require.EqualError(t, err, "you did not purchase this item")
}

func TestReviewEligibleWithDeliveredOrderLine(t *testing.T) {
	userID := primitive.NewObjectID()
	productID := primitive.NewObjectID()
	finder := &fakePurchaseFinder{
		result: mongo.NewSingleResultFromDocument(bson.D{{Key: "user", Value: userID}}, nil, nil),
	}

	err := reviewEligible(context.Background(), finder, userID, productID)

	require.NoError(t, err)
	require.Equal(t, bson.M{
		"user":    userID,
		"product": productID,
		"status":  models.StatusDelivered,
	}, finder.filter)
}

func TestReviewEligiblePropagatesLookupFailure(t *testing.T) {
	finder := &fakePurchaseFinder{
		result: mongo.NewSingleResultFromDocument(bson.D{}, mongo.ErrClientDisconnected, nil),
	}

	err := reviewEligible(context.Background(), finder, primitive.NewObjectID(), primitive.NewObjectID())

	require.ErrorIs(t, err, mongo.ErrClientDisconnected)
	require.Equal(t, http.StatusInternalServerError, statusOf(err))
}
