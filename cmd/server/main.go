package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"lims-backend/internal/auth"
	"lims-backend/internal/config"
	"lims-backend/internal/engine"
	"lims-backend/internal/metadata"
	"lims-backend/internal/store"
	"lims-backend/internal/users"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// .env is optional; real deployments use app.yaml or the environment
	_ = godotenv.Load()

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		secret = config.DevJWTSecret
		log.Warn("auth.dev_mode: signing tokens with the built-in development key; do not run this in production")
	}

	db, err := store.New(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("connect to database: %v", err)
	}
	defer db.Close()
	log.Infof("database connected (%s: %s)", cfg.Database.Driver, cfg.Database.DSN())

	reg := metadata.NewRegistry()
	if cfg.EntitiesFile != "" {
		if err := metadata.LoadFile(cfg.EntitiesFile, reg); err != nil {
			log.Fatalf("load entities: %v", err)
		}
		log.Infof("loaded %d entities from %s", len(reg.All()), cfg.EntitiesFile)
	} else {
		reg = metadata.NewDefaultRegistry()
	}

	if err := db.EnsureEntityTables(ctx, reg.All()); err != nil {
		log.Fatalf("create entity tables: %v", err)
	}

	usersEntity := reg.Get("users")
	if usersEntity == nil {
		log.Fatal("entity configuration must define a users entity")
	}
	userStore := users.NewStore(db, usersEntity)
	if err := userStore.EnsureDefaultAdmin(ctx, cfg.Auth.BootstrapUsername, cfg.Auth.BootstrapPassword); err != nil {
		log.Fatalf("bootstrap account: %v", err)
	}

	tokens := auth.NewTokenService(secret, cfg.Auth.TokenTTL)

	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler(log),
	})
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// unauthenticated routes first, then the gated entity engine
	auth.RegisterRoutes(app, auth.NewHandler(userStore, tokens))
	engine.RegisterEntityRoutes(app, engine.NewHandler(db, reg), auth.Middleware(tokens))

	registerStaticFallback(app, cfg.Server.StaticDir)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Infof("starting server on %s", addr)
	log.Fatal(app.Listen(addr))
}

// registerStaticFallback serves client assets and answers any other
// unmatched path with the login page.
func registerStaticFallback(app *fiber.App, dir string) {
	app.Static("/", dir)

	loginPage := filepath.Join(dir, "login.html")
	app.Use(func(c *fiber.Ctx) error {
		if _, err := os.Stat(loginPage); err != nil {
			return fiber.ErrNotFound
		}
		return c.SendFile(loginPage)
	})
}

func errorHandler(log *logrus.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var appErr *engine.AppError
		if errors.As(err, &appErr) {
			return c.Status(appErr.Status).JSON(appErr)
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(fiber.Map{"msg": fiberErr.Message})
		}

		log.Errorf("request failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"msg":  "Internal server error",
			"code": "INTERNAL_ERROR",
		})
	}
}
