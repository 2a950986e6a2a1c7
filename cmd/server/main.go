package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"resource-backend/internal/auth"
	"resource-backend/internal/config"
	"resource-backend/internal/engine"
	"resource-backend/internal/metadata"
	"resource-backend/internal/store"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Printf("Config loaded (port: %d, db: %s:%d/%s)", cfg.Server.Port, cfg.Database.Host, cfg.Database.Port, cfg.Database.Name)

	db, err := store.New(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	if err := db.Bootstrap(ctx); err != nil {
		log.Fatalf("Failed to bootstrap system tables: %v", err)
	}
	log.Println("System tables ready")

	reg := metadata.NewRegistry()
	if err := metadata.LoadAll(ctx, db.Pool, reg); err != nil {
		log.Printf("WARN: Failed to load resource descriptors: %v", err)
	}

	migrator := store.NewMigrator(db)
	if err := migrator.EnsureAll(ctx, reg); err != nil {
		log.Fatalf("Failed to provision resource tables: %v", err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: engine.ErrorHandler,
	})
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Auth routes stay open; everything under /api/:resource requires a token.
	tokens := auth.NewTokenService(cfg.Auth)
	authHandler := auth.NewHandler(db, tokens)
	auth.RegisterRoutes(app, authHandler)

	defaults := engine.DefaultsFromConfig(cfg.Engine)
	handler := engine.NewHandler(db, reg, defaults)
	engine.RegisterRoutes(app, handler, auth.Middleware(tokens))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Starting server on %s", addr)
	log.Fatal(app.Listen(addr))
}
