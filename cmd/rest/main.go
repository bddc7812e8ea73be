package main

import (
	"context"
	"log"

	"oral-coach-be/internal/bootstrap"
	"oral-coach-be/internal/config"
	"oral-coach-be/internal/model"
	"oral-coach-be/internal/server"
	"oral-coach-be/internal/tracer"
	"oral-coach-be/pkg/database"

	"gorm.io/gorm"
)

func main() {
	// 0. Initialize Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database (optional: without it, score history and
	// sustained-level lookups fall back to request-supplied data)
	var gormDB *gorm.DB
	if cfg.Database.Connection != "" {
		db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
		if err != nil {
			log.Printf("[WARN] Unable to connect to GORM DB: %v. Running without score persistence", err)
		} else {
			if err := db.AutoMigrate(&model.SessionScore{}); err != nil {
				log.Printf("[WARN] AutoMigrate failed: %v", err)
			}
			gormDB = db
		}
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)

	// 4. Start Background Services
	go func() {
		log.Println("Background: Starting Consumer Service...")
		if err := container.ConsumerService.Consume(context.Background()); err != nil {
			log.Printf("Background Consumer Error: %v", err)
		}
	}()

	// 5. Initialize Server
	srv := server.New(cfg, container)

	// 6. Run Server
	log.Fatal(srv.Run())
}
