// Package server contains the HTTP handlers and routing for the shelter API.
package server

import (
	"context"
	"fmt"
	"time"

	"refugio/internal/auth"
	"refugio/internal/cache"
	"refugio/internal/config"
	"refugio/internal/database"
	"refugio/internal/mailer"
	"refugio/internal/media"
	"refugio/internal/middleware"
	"refugio/internal/repository"
	"refugio/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides the HTTP handlers.
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	promMiddleware *fiberprometheus.FiberPrometheus

	store    media.Store
	tokens   *auth.TokenService
	cookies  auth.CookieWriter
	notifier *service.Notifier

	animalService    *service.AnimalService
	newsService      *service.NewsService
	commentService   *service.CommentService
	adoptionService  *service.AdoptionService
	userService      *service.UserService
	dashboardService *service.DashboardService
}

// NewServer creates a server instance, establishing the database and Redis
// connections and the SMTP mailer itself.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	redisClient := cache.GetClient()

	sender, err := mailer.NewSMTPSender(cfg)
	if err != nil {
		return nil, fmt.Errorf("mailer initialization failed: %w", err)
	}

	store, err := media.NewDiskStore(cfg.MediaDir, cfg.BackendURL)
	if err != nil {
		return nil, fmt.Errorf("media store initialization failed: %w", err)
	}

	notifier := service.NewNotifier(sender, store, service.NotifierOptions{
		FrontendURL: cfg.FrontendURL,
		AdminEmail:  cfg.AdminEmail,
	})

	return NewServerWithDeps(cfg, db, redisClient, store, notifier)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Tests use this with an in-memory database, miniredis and a stub sender.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, store media.Store, notifier *service.Notifier) (*Server, error) {
	animalRepo := repository.NewAnimalRepository(db)
	newsRepo := repository.NewNewsRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	adoptionRepo := repository.NewAdoptionRepository(db)
	userRepo := repository.NewUserRepository(db)

	prom := middleware.InitMetrics("refugio-api")

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: prom,
		store:          store,
		tokens:         auth.NewTokenService(cfg.JWTSecret, redisClient),
		cookies: auth.CookieWriter{
			Domain: cfg.CookieDomain,
			Secure: cfg.IsProduction(),
		},
		notifier: notifier,
	}

	s.animalService = service.NewAnimalService(animalRepo, userRepo, store, notifier)
	s.newsService = service.NewNewsService(newsRepo, userRepo, store, notifier)
	s.commentService = service.NewCommentService(commentRepo, newsRepo, store)
	s.adoptionService = service.NewAdoptionService(adoptionRepo, animalRepo, store, notifier)
	s.userService = service.NewUserService(userRepo, store, notifier, redisClient)
	s.dashboardService = service.NewDashboardService(animalRepo, newsRepo, commentRepo, adoptionRepo, userRepo, store)

	return s, nil
}

// Shutdown releases server-owned resources: the notification worker drains
// and the database and Redis connections close.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.notifier != nil {
		s.notifier.Close()
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			middleware.Logger.Warn("redis close failed", "error", err.Error())
		}
	}
	if sqlDB, err := s.db.DB(); err == nil {
		return sqlDB.Close()
	}
	return nil
}

// SetupMiddleware configures the middleware stack for the Fiber app.
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context middleware to propagate request ID and user ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured logging (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS runs before middlewares that can short-circuit (e.g. limiter) so
	// browser clients still receive CORS headers on error responses. The
	// cookie scheme needs credentials.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application.
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	authRequired := middleware.AuthRequired(s.tokens)
	staffRequired := middleware.StaffRequired()

	api.Get("/metrics/dashboard", authRequired, staffRequired, monitor.New(monitor.Config{
		Title: "Refugio API Metrics",
	}))

	// Stored media (animal photos, news images, avatars, adoption PDFs)
	app.Get("/media/*", s.ServeMedia)

	// Session routes. Tokens travel only in cookies.
	api.Post("/token", middleware.RateLimit(
		s.redis, s.config.RateLimitLogin, 5*time.Minute, "login"), s.Login)
	api.Post("/token/refresh", s.Refresh)
	api.Post("/logout", s.Logout)

	// Registration and password reset
	usuarios := api.Group("/usuarios")
	usuarios.Post("/", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "signup"), s.Register)
	usuarios.Post("/password/olvidada", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "password_reset"), s.ForgotPassword)
	usuarios.Post("/password/restablecer", s.ResetPassword)

	// Own profile
	api.Get("/me", authRequired, s.Me)
	api.Patch("/me", authRequired, s.UpdateMe)
	api.Delete("/me", authRequired, s.DeleteMe)

	// Contact form
	api.Post("/contacto", middleware.RateLimit(
		s.redis, 5, 10*time.Minute, "contact"), s.Contact)

	// Animals: public browse, staff writes
	animales := api.Group("/animales")
	animales.Get("/", s.GetAnimales)
	animales.Get("/:id", s.GetAnimal)
	animales.Post("/", authRequired, staffRequired, s.CreateAnimal)
	animales.Put("/:id", authRequired, staffRequired, s.UpdateAnimal)
	animales.Delete("/:id", authRequired, staffRequired, s.DeleteAnimal)

	// News: public browse, staff writes. Comments nest under their post.
	noticias := api.Group("/noticias")
	noticias.Get("/", s.GetNoticias)
	noticias.Get("/:id/comentarios", s.GetComentarios)
	noticias.Get("/:id", s.GetNoticia)
	noticias.Post("/", authRequired, staffRequired, s.CreateNoticia)
	noticias.Put("/:id", authRequired, staffRequired, s.UpdateNoticia)
	noticias.Delete("/:id", authRequired, staffRequired, s.DeleteNoticia)
	noticias.Post("/:id/comentarios", authRequired, middleware.RateLimit(
		s.redis, s.config.RateLimitComments, time.Minute, "create_comment"), s.CreateComentario)

	// Comment edits stand alone; creation lives under the post.
	api.Put("/comentarios/:id", authRequired, s.UpdateComentario)
	api.Delete("/comentarios/:id", authRequired, s.DeleteComentario)

	// Adoption requests
	adopciones := api.Group("/adopciones", authRequired)
	adopciones.Get("/", staffRequired, s.GetAdopciones)
	adopciones.Get("/me", s.GetMisAdopciones)
	adopciones.Post("/", middleware.RateLimit(
		s.redis, s.config.RateLimitAdoptions, time.Hour, "create_adoption"), s.CreateAdopcion)
	adopciones.Patch("/:id/estado", staffRequired, s.SetAdopcionEstado)
	adopciones.Get("/:id", s.GetAdopcion)
	adopciones.Delete("/:id", s.DeleteAdopcion)

	// Staff dashboard
	admin := api.Group("/admin", authRequired, staffRequired)
	admin.Get("/dashboard", s.GetDashboard)
}
