package database

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func EnsureUserIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("users").Indexes()

	emailIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}},
		Options: options.Index().
			SetName("email_unique").
			SetUnique(true),
	}

	log.Println("EnsureUserIndexes: creating email_unique index")
	_, err := indexes.CreateOne(ctx, emailIndex)
	if err != nil {
		log.Println("EnsureUserIndexes: email index error:", err)
		return err
	}
	return nil
}

func EnsureProductIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("products").Indexes()

	nameBrandIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "name", Value: 1},
			{Key: "brand", Value: 1},
		},
		Options: options.Index().
			SetName("name_brand_unique").
			SetUnique(true),
	}

	log.Println("EnsureProductIndexes: creating name_brand_unique index")
	_, err := indexes.CreateOne(ctx, nameBrandIndex)
	if err != nil {
		log.Println("EnsureProductIndexes: name+brand index error:", err)
		return err
	}
	return nil
}

func EnsureReviewIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("reviews").Indexes()

	userProductIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "user", Value: 1},
			{Key: "product", Value: 1},
		},
		Options: options.Index().SetName("user_product_index"),
	}

	log.Println("EnsureReviewIndexes: creating user_product_index")
	_, err := indexes.CreateOne(ctx, userProductIndex)
	if err != nil {
		log.Println("EnsureReviewIndexes: user+product index error:", err)
		return err
	}
	return nil
}

func EnsureOrderIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	orderUserIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "user", Value: 1}},
		Options: options.Index().SetName("user_index"),
	}

	log.Println("EnsureOrderIndexes: creating orders user_index")
	if _, err := db.Collection("orders").Indexes().CreateOne(ctx, orderUserIndex); err != nil {
		log.Println("EnsureOrderIndexes: orders user index error:", err)
		return err
	}

	// The review eligibility gate queries lines by (user, product).
	singleOrderIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "user", Value: 1},
			{Key: "product", Value: 1},
		},
		Options: options.Index().SetName("user_product_index"),
	}

	log.Println("EnsureOrderIndexes: creating singleorders user_product_index")
	if _, err := db.Collection("singleorders").Indexes().CreateOne(ctx, singleOrderIndex); err != nil {
		log.Println("EnsureOrderIndexes: singleorders user+product index error:", err)
		return err
	}
	return nil
}
