package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// One-off maintenance for the production database: removes orphaned
// participant and winner rows and re-syncs listing counters. Run with
// go run scripts/cleanup.go
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")

	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		dbHost, dbPort, dbUser, dbPassword, dbName)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	log.Println("Connected to database successfully")

	res, err := db.Exec(`DELETE FROM participants WHERE listing_id NOT IN (SELECT id FROM listings)`)
	if err != nil {
		log.Fatalf("Failed to delete orphaned participants: %v", err)
	}
	if n, err := res.RowsAffected(); err == nil {
		log.Printf("Deleted %d orphaned participant(s)", n)
	}

	res, err = db.Exec(`DELETE FROM winners WHERE listing_id NOT IN (SELECT id FROM listings)`)
	if err != nil {
		log.Fatalf("Failed to delete orphaned winners: %v", err)
	}
	if n, err := res.RowsAffected(); err == nil {
		log.Printf("Deleted %d orphaned winner(s)", n)
	}

	// Counters can drift if rows were deleted by hand
	res, err = db.Exec(`
		UPDATE listings SET participants_count = (
			SELECT COUNT(*) FROM participants WHERE participants.listing_id = listings.id
		)
		WHERE participants_count <> (
			SELECT COUNT(*) FROM participants WHERE participants.listing_id = listings.id
		)
	`)
	if err != nil {
		log.Fatalf("Failed to re-sync participant counters: %v", err)
	}
	if n, err := res.RowsAffected(); err == nil {
		log.Printf("Re-synced %d listing counter(s)", n)
	}

	log.Println("Cleanup completed successfully")
}
