package handlers

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// findByID fetches a document by hex id into out. A missing document is a
// NotFound, never an Unauthorized.
func findByID(ctx context.Context, col *mongo.Collection, hexID string, out interface{}) error {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(hexID))
	if err != nil {
		return errBadRequest("invalid id")
	}

	if err := col.FindOne(ctx, bson.M{"_id": id}).Decode(out); err != nil {
		if err == mongo.ErrNoDocuments {
			return errNotFound(col.Name() + ": document not found")
		}
		return err
	}
	return nil
}
