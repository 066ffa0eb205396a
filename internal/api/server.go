package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/campushub/chat-service/internal/auth"
	"github.com/campushub/chat-service/internal/config"
	"github.com/campushub/chat-service/internal/service"
	"github.com/campushub/chat-service/internal/storage"
	"github.com/campushub/chat-service/internal/ws"
)

type Server struct {
	chat  *service.ChatService
	gw    *ws.Gateway
	store storage.Store
	cfg   *config.Config
	log   *zap.SugaredLogger
}

// NewServer wires the HTTP surface: chat history and inbox reads, attachment
// upload, and the websocket upgrade endpoint.
func NewServer(cfg *config.Config, chat *service.ChatService, gw *ws.Gateway, store storage.Store, jv *auth.JWTValidator, log *zap.SugaredLogger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		BodyLimit:    int(cfg.Upload.MaxBytes()) + 1<<20, // headroom over the upload cap
	})
	app.Use(recover.New())
	app.Use(fiberlogger.New())

	s := &Server{chat: chat, gw: gw, store: store, cfg: cfg, log: log}

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	if cfg.Upload.Backend == "local" {
		app.Static(cfg.Upload.BaseURL, cfg.Upload.Dir)
	}

	chatGrp := app.Group("/chat")
	// The websocket handshake authenticates by userId query param; REST
	// routes carry a bearer token.
	chatGrp.Get("/ws", websocket.New(gw.Handler()))

	rest := chatGrp.Group("", JWTAuthMiddleware(jv))
	rest.Get("/history/:roomId", s.roomHistory)
	rest.Get("/conversations/:userId", s.conversations)
	rest.Get("/private/:userId/:partnerId", s.privateHistory)
	rest.Post("/upload", s.upload)

	return app
}

func JWTAuthMiddleware(jv *auth.JWTValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		h := c.Get("Authorization")
		const pref = "Bearer "
		if !strings.HasPrefix(h, pref) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing auth"})
		}
		sub, err := jv.Validate(strings.TrimPrefix(h, pref))
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token"})
		}
		c.Locals("user_id", sub)
		return c.Next()
	}
}
