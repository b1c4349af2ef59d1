package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/IBM/sarama"
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/illegalcall/mentor-tracker/internal/auth"
	"github.com/illegalcall/mentor-tracker/internal/config"
	"github.com/illegalcall/mentor-tracker/internal/events"
	"github.com/illegalcall/mentor-tracker/internal/group"
	"github.com/illegalcall/mentor-tracker/internal/images"
	"github.com/illegalcall/mentor-tracker/internal/leaderboard"
	"github.com/illegalcall/mentor-tracker/internal/profile"
	"github.com/illegalcall/mentor-tracker/internal/storage"
	"github.com/illegalcall/mentor-tracker/internal/store"
	"github.com/illegalcall/mentor-tracker/pkg/database"
)

type Server struct {
	app      *fiber.App
	cfg      *config.Config
	logger   *slog.Logger
	db       *database.Clients
	store    store.Accessor

	profiles *profile.Service
	groups   *group.Service
	auth     *auth.Service
	images   *images.Service
	board    *leaderboard.Board
}

// NewServer wires the services onto one Fiber app. A nil producer disables
// event publication.
func NewServer(cfg *config.Config, db *database.Clients, accessor store.Accessor, producer sarama.SyncProducer) (*Server, error) {
	if db == nil || db.Redis == nil {
		return nil, errors.New("redis client is required")
	}

	localStorage, err := storage.NewLocalStorage(cfg.Storage.ImageDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	var publisher events.Publisher = events.Nop{}
	if producer != nil {
		publisher = events.NewKafkaPublisher(producer, cfg.Kafka.Topic)
	}

	s := &Server{
		cfg:      cfg,
		logger:   slog.Default().With("component", "api"),
		db:       db,
		store:    accessor,
		profiles: profile.NewService(accessor, publisher),
		groups:   group.NewService(accessor, publisher),
		auth:     auth.NewService(accessor, cfg.JWT),
		images:   images.NewService(db.Redis, localStorage, cfg.Storage.MaxSize),
		board:    leaderboard.New(db.Redis),
	}

	s.app = fiber.New(fiber.Config{
		AppName:      "mentor-tracker",
		UnescapePath: true,
		BodyLimit:    bodyLimit(cfg.Storage.MaxSize),
		ErrorHandler: s.handleFiberError,
	})

	s.setupMiddleware()
	s.setupRoutes()

	return s, nil
}

func (s *Server) setupMiddleware() {
	s.app.Use(recover.New())
	s.app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status}\n",
	}))

	origins := s.cfg.Server.AllowedOrigins
	s.app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: origins != "" && !strings.Contains(origins, "*"),
	}))

	if s.cfg.Server.MaxRequests > 0 {
		s.app.Use(limiter.New(limiter.Config{
			Max:        s.cfg.Server.MaxRequests,
			Expiration: s.cfg.Server.RateWindow,
		}))
	}

	if s.cfg.Server.RequestTimeout > 0 {
		s.app.Use(func(c *fiber.Ctx) error {
			ctx, cancel := context.WithTimeout(c.UserContext(), s.cfg.Server.RequestTimeout)
			defer cancel()
			c.SetUserContext(ctx)
			return c.Next()
		})
	}
}

func (s *Server) setupRoutes() {
	protected := jwtware.New(jwtware.Config{
		SigningKey: []byte(s.cfg.JWT.Secret),
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		},
	})

	s.app.Get("/health", s.handleHealth)
	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	authGroup := s.app.Group("/auth")
	authGroup.Post("/signup", s.handleSignup)
	authGroup.Post("/login", s.handleLogin)

	s.app.Get("/profile", s.handleGetProfile)
	s.app.Put("/profile", protected, s.requireProfileOwner, s.handleUpdateProfile)
	s.app.Put("/profile/image", protected, s.requireProfileOwner, s.handleUpdateProfileImage)
	s.app.Get("/profile/role/:accountType", s.handleListByRole)

	s.app.Get("/group/:mentorName", s.handleListGroup)
	s.app.Get("/group/:mentorName/activity", s.handleGroupActivity)
	s.app.Put("/group/:mentorName/points", protected, s.handleAddGroupPoints)

	s.app.Get("/leaderboard", s.handleLeaderboard)

	s.app.Post("/images/upload", protected, s.handleUploadImage)
	s.app.Get("/images/user/:userId", s.handleListUserImages)
	s.app.Get("/images/:id", s.handleGetImage)
	s.app.Delete("/images/:id", protected, s.handleDeleteImage)
}

func (s *Server) Start() error {
	s.logger.Info("✅ API server listening", "addr", s.cfg.Server.Port)
	return s.app.Listen(s.cfg.Server.Port)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	ctx := c.UserContext()

	status := fiber.Map{"store": "ok", "redis": "ok"}
	healthy := true
	if err := s.store.Ping(ctx); err != nil {
		s.logger.Error("Store health check failed", "error", err)
		status["store"] = "unavailable"
		healthy = false
	}
	if err := s.db.Redis.Ping(ctx).Err(); err != nil {
		s.logger.Error("Redis health check failed", "error", err)
		status["redis"] = "unavailable"
		healthy = false
	}

	if !healthy {
		return c.Status(fiber.StatusServiceUnavailable).JSON(status)
	}
	return c.JSON(status)
}

// bodyLimit leaves room for base64 and multipart overhead on top of the
// image size limit.
func bodyLimit(maxImage int64) int {
	const floor = 4 * 1024 * 1024
	limit := int(maxImage)*2 + 64*1024
	if limit < floor {
		return floor
	}
	return limit
}
