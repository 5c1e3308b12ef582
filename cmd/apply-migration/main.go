package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/chxru/sem5-webdev/internal/config"
	"github.com/chxru/sem5-webdev/internal/database"

	_ "github.com/lib/pq"
)

func main() {
	migrationFile := flag.String("file", "scripts/schema.sql", "migration file to apply")
	bedCount := flag.Int("beds", 0, "number of bed rows to seed (0 skips seeding)")
	flag.Parse()

	sqlContent, err := os.ReadFile(*migrationFile)
	if err != nil {
		log.Fatalf("Failed to read migration file: %v", err)
	}

	cfg := config.Load()
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Cannot connect to database: %v", err)
	}
	defer db.Close()

	fmt.Printf("Connected to database: %s\n", cfg.Database.Database)

	// Split SQL by semicolon and execute each statement
	statements := strings.Split(string(sqlContent), ";")
	executed := 0
	for i, stmt := range statements {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}

		if _, err := db.Exec(stmt); err != nil {
			log.Fatalf("Failed to execute statement %d: %v", i+1, err)
		}
		executed++
	}
	fmt.Printf("Executed %d statements\n", executed)

	if *bedCount > 0 {
		for i := 1; i <= *bedCount; i++ {
			_, err := db.Exec(
				`INSERT INTO stats.beds (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, i)
			if err != nil {
				log.Fatalf("Failed to seed bed %d: %v", i, err)
			}
		}
		fmt.Printf("Seeded %d bed rows\n", *bedCount)
	}

	fmt.Println("Migration completed")
}
