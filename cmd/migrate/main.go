package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/samirrijal/tactilemap/internal/adapters/postgres"
	"github.com/samirrijal/tactilemap/internal/pkg/config"
	"github.com/samirrijal/tactilemap/internal/pkg/logging"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|import FILE.geojson>")
	}
	_ = godotenv.Load()

	cfg, err := config.Load("tactilemap-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, "text")

	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Database.DSN(), 2)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	switch os.Args[1] {
	case "up":
		applied, err := postgres.Migrate(ctx, db)
		if err != nil {
			log.Fatalf("migrate: %v", err)
		}
		for _, f := range applied {
			fmt.Printf("OK  %s\n", f)
		}
		log.Println("all migrations applied")
	case "import":
		if len(os.Args) < 3 {
			log.Fatal("usage: migrate import FILE.geojson")
		}
		data, err := os.ReadFile(os.Args[2])
		if err != nil {
			log.Fatalf("read %s: %v", os.Args[2], err)
		}
		n, err := postgres.NewFeatureRepo(db, cfg.Database.FeaturesTable).ImportCollection(ctx, data)
		if err != nil {
			log.Fatalf("import %s: %v", os.Args[2], err)
		}
		fmt.Printf("imported %d features into %s\n", n, cfg.Database.FeaturesTable)
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}
