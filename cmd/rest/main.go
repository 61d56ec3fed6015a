package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"sales-assistant-be/internal/bootstrap"
	"sales-assistant-be/internal/config"
	"sales-assistant-be/internal/server"
	"sales-assistant-be/internal/tracer"
	"sales-assistant-be/pkg/database"

	"gorm.io/gorm"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Tracer
	shutdownTracer := tracer.InitTracer(cfg.App.OtelEnabled)
	defer shutdownTracer(context.Background())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Initialize Database (optional for the file corpus)
	var gormDB *gorm.DB
	if cfg.Database.Connection != "" {
		db, err := database.NewGormDBFromDSN(cfg.Database.Connection, database.PoolConfig{
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			Verbose:         cfg.App.Environment != "production",
		})
		if err != nil {
			log.Panicf("Unable to connect to GORM DB: %v", err)
		}
		gormDB = db
	}

	// 4. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(ctx, gormDB, cfg)
	defer container.Close()

	// 5. Start Background Services
	log.Println("Background: Starting CRM Sync Service...")
	if err := container.CRMSyncService.Consume(ctx); err != nil {
		log.Printf("Background CRM Sync Error: %v", err)
	}
	if err := container.CorpusService.Watch(ctx); err != nil {
		log.Printf("Background Corpus Watch Error: %v", err)
	}

	// 6. Initialize Server
	srv := server.New(cfg, container)

	go func() {
		<-ctx.Done()
		log.Println("Shutting down server...")
		if err := srv.Shutdown(); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// 7. Run Server
	if err := srv.Run(); err != nil {
		log.Fatal(err)
	}
}
