package main

import (
	"log/slog"
	"os"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"quickchat/internal/auth"
	"quickchat/internal/chat"
	"quickchat/internal/config"
	"quickchat/internal/handlers"
	"quickchat/internal/media"
	"quickchat/internal/store"
)

func main() {
	cfg := config.Load()
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Error("open database", "path", cfg.DBPath, "err", err)
		os.Exit(1)
	}

	users := store.NewSQLiteUserStore(db)
	groups := store.NewSQLiteGroupStore(db)
	messages := store.NewSQLiteMessageStore(db)

	tokens := auth.NewJWT(cfg.JWTSecret, cfg.TokenTTL)

	var uploader media.Uploader = media.Disabled{}
	if cfg.MediaURL != "" {
		uploader = media.NewHTTPUploader(cfg.MediaURL)
	}

	registry := chat.NewRegistry(log)
	fanout := chat.NewFanout(registry, groups, log)

	userHandler := handlers.NewUserHandler(users, tokens, uploader)
	messageHandler := handlers.NewMessageHandler(users, messages, fanout, uploader)
	groupHandler := handlers.NewGroupHandler(groups, messages, fanout, uploader)

	app := fiber.New(fiber.Config{BodyLimit: 4 * 1024 * 1024})
	app.Use(recover.New())
	app.Use(logger.New())

	protected := auth.Middleware(tokens, users)

	app.Get("/api/status", func(c *fiber.Ctx) error {
		return c.SendString("Server is running")
	})

	authGroup := app.Group("/api/auth")
	authGroup.Post("/signup", userHandler.Signup)
	authGroup.Post("/login", userHandler.Login)
	authGroup.Get("/check", protected, userHandler.Check)
	authGroup.Put("/update-profile", protected, userHandler.UpdateProfile)

	msgGroup := app.Group("/api/messages", protected)
	msgGroup.Get("/users", messageHandler.SidebarUsers)
	msgGroup.Put("/mark/:id", messageHandler.MarkSeen)
	msgGroup.Post("/send/:id", messageHandler.Send)
	msgGroup.Get("/:id", messageHandler.Conversation)

	grpGroup := app.Group("/api/group", protected)
	grpGroup.Post("/create", groupHandler.Create)
	grpGroup.Get("/my-groups", groupHandler.MyGroups)
	grpGroup.Delete("/:id", groupHandler.Delete)
	grpGroup.Put("/rename/:id", groupHandler.Rename)
	grpGroup.Put("/add-members/:id", groupHandler.AddMembers)
	grpGroup.Put("/remove-member/:id", groupHandler.RemoveMember)
	grpGroup.Put("/transfer-admin/:id", groupHandler.TransferAdmin)
	grpGroup.Put("/leave/:id", groupHandler.Leave)
	grpGroup.Get("/messages/:id", groupHandler.Messages)
	grpGroup.Put("/messages/mark/:id", groupHandler.MarkSeen)
	grpGroup.Post("/send/:id", groupHandler.Send)

	app.Get("/ws", websocket.New(handlers.WS(registry)))

	log.Info("listening", "addr", cfg.Addr)
	if err := app.Listen(cfg.Addr); err != nil {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
