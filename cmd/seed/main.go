package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"moduo/internal/model"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Seeds demo users for local development. Tokens for these users can be
// minted with the IDENTITY_JWT_SECRET the server runs with.
func main() {
	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}
	mongoDB := os.Getenv("MONGO_DB")
	if mongoDB == "" {
		mongoDB = "moduo"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(ctx)

	userColl := client.Database(mongoDB).Collection("users")

	users := []interface{}{
		model.User{
			ID:              uuid.New().String(),
			ExternalID:      "user_demo_host",
			Name:            "Ada Chen",
			Email:           "ada@example.com",
			ProfileImageURL: "https://avatars.example.com/ada.png",
			CreatedAt:       time.Now(),
		},
		model.User{
			ID:              uuid.New().String(),
			ExternalID:      "user_demo_participant",
			Name:            "Marcus Webb",
			Email:           "marcus@example.com",
			ProfileImageURL: "https://avatars.example.com/marcus.png",
			CreatedAt:       time.Now(),
		},
	}

	result, err := userColl.InsertMany(ctx, users)
	if err != nil {
		log.Fatalf("Failed to insert users: %v", err)
	}

	fmt.Printf("Successfully seeded %d demo users\n", len(result.InsertedIDs))
}
