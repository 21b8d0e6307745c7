package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	mongoMigration "reserva/internal/migrations/mongo"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	_ = godotenv.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		log.Fatalf("❌ Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(ctx)

	fmt.Printf("Connected to %s\n", mongoURI)

	if err := mongoMigration.RunMigration(ctx, client); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}

	fmt.Println("🎉 Migration completed.")
}
