package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/praxhub/praxhub/internal/store/postgres"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <connection-string>")
	}

	ctx := context.Background()

	db, err := postgres.NewFromConnString(ctx, os.Args[1])
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer db.Close()

	fmt.Println("Connected to database")

	if err := db.Migrate(ctx, postgres.InitialSchema); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	fmt.Println("Migration completed")
}
