package server

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"travelmate-web/internal/auth"
	"travelmate-web/internal/category"
	"travelmate-web/internal/config"
	"travelmate-web/internal/deletion"
	"travelmate-web/internal/editor"
	"travelmate-web/internal/place"
	"travelmate-web/internal/placeimage"
	"travelmate-web/internal/stream"
	"travelmate-web/internal/timeline"
	"travelmate-web/internal/trip"
	"travelmate-web/internal/upstream"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// bodyLimit leaves room for several images of up to 20MB in one upload.
const bodyLimit = 100 << 20

type Server struct {
	App      *fiber.App
	Cfg      config.Config
	DB       *pgxpool.Pool
	Redis    *redis.Client
	Stream   *stream.Hub
	Editor   *editor.Manager
	Registry *category.Registry
	Record   *deletion.Record

	stop context.CancelFunc
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit:    bodyLimit,
		ErrorHandler: errorHandler,
	})
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:      app,
		Cfg:      cfg,
		DB:       db,
		Redis:    redisClient,
		Stream:   stream.NewHub(redisClient),
		Registry: loadRegistry(cfg),
	}
	s.Record = deletion.NewRecord(deletionStore(cfg, db, redisClient))

	api := upstream.NewClient(cfg.APIBaseURL, cfg.APITimeout)
	builder := placeimage.NewBuilder(api, s.Registry, placeimage.Policy{
		ReplaceAll:      cfg.ReplaceAllImages,
		DefaultFallback: cfg.DefaultImageFallback,
	})
	s.Editor = editor.NewManager(api, s.Record, s.Registry, builder, s.Stream, cfg.SessionTTL)

	ctx, cancel := context.WithCancel(context.Background())
	s.stop = cancel
	if cfg.SessionTTL > 0 {
		go s.Editor.Run(ctx, sweepInterval(cfg.SessionTTL))
	}

	registerRoutes(s, api)
	return s
}

// Close stops background work. The fiber app is shut down by the caller.
func (s *Server) Close() {
	s.stop()
	s.Stream.Close()
}

func registerRoutes(s *Server, api *upstream.Client) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	if s.Cfg.AssetDir != "" {
		s.App.Static("/assets", s.Cfg.AssetDir)
	}

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)
	trips := s.App.Group("/trips")

	auth.RegisterRoutes(s.App.Group("/auth"), auth.NewService(api), jwtMiddleware)
	trip.RegisterRoutes(trips, trip.NewService(api, s.Registry), jwtMiddleware)
	place.RegisterRoutes(trips, place.NewService(api, s.Record, s.Registry), jwtMiddleware)
	timeline.RegisterRoutes(trips, timeline.NewService(api, s.Registry), jwtMiddleware)
	editor.RegisterRoutes(s.App.Group("/editor"), s.Editor, jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream, s.Editor, jwtMiddleware)
}

// errorHandler renders every error as {"error": message}.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		log.Printf("%s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

func loadRegistry(cfg config.Config) *category.Registry {
	if cfg.CategoryAssetsFile == "" {
		return category.NewRegistry(cfg.AssetBaseURL)
	}
	r, err := category.LoadFile(cfg.CategoryAssetsFile, cfg.AssetBaseURL)
	if err != nil {
		log.Printf("category assets %s: %v; using built-in assets", cfg.CategoryAssetsFile, err)
		return category.NewRegistry(cfg.AssetBaseURL)
	}
	return r
}

// deletionStore picks the configured backend and falls back to memory when
// its connection is missing.
func deletionStore(cfg config.Config, pg *pgxpool.Pool, rdb *redis.Client) deletion.Store {
	switch strings.ToLower(cfg.DeletionStore) {
	case "postgres":
		if pg == nil {
			log.Printf("deletion store: postgres not connected, using memory")
			return deletion.NewMemoryStore()
		}
		store := deletion.NewPostgresStore(pg)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.EnsureSchema(ctx); err != nil {
			log.Printf("deletion store schema: %v, using memory", err)
			return deletion.NewMemoryStore()
		}
		return store
	case "redis":
		if rdb == nil {
			log.Printf("deletion store: redis not configured, using memory")
			return deletion.NewMemoryStore()
		}
		return deletion.NewRedisStore(rdb)
	}
	return deletion.NewMemoryStore()
}

func sweepInterval(ttl time.Duration) time.Duration {
	if d := ttl / 4; d > time.Second {
		return d
	}
	return time.Second
}
