// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gyma/internal/config"
	"gyma/internal/events"
	"gyma/internal/middleware"
	"gyma/internal/models"
	"gyma/internal/repository"
	"gyma/internal/service"
	"gyma/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// bodyLimit leaves room for the multipart framing around a full-size picture.
const bodyLimit = service.MaxPictureBytes + 1<<20

// AuthAPI is the account and login surface.
type AuthAPI interface {
	Register(ctx context.Context, input service.RegisterInput) (*models.User, error)
	Verify(ctx context.Context, code string) (*models.User, error)
	ResendVerification(ctx context.Context, email string) error
	Login(ctx context.Context, input service.LoginInput) (*service.LoginResult, error)
	Logout(ctx context.Context, token string) error
}

// PersonAPI edits the caller's own profile.
type PersonAPI interface {
	Upsert(ctx context.Context, callerID uint, input service.PersonInput) (*models.Person, bool, error)
}

// PictureAPI replaces the caller's profile picture.
type PictureAPI interface {
	UploadProfilePicture(ctx context.Context, callerID uint, in service.PictureInput) (*models.Person, error)
}

// ProfileAPI reads profiles.
type ProfileAPI interface {
	View(ctx context.Context, viewerID *uint, slug string) (*models.Profile, error)
	Me(ctx context.Context, callerID uint) (*models.MyProfile, error)
	Search(ctx context.Context, viewerID *uint, query string) ([]models.PersonSummary, error)
}

// FriendshipAPI runs relationship operations addressed by slug.
type FriendshipAPI interface {
	Request(ctx context.Context, callerID uint, slug string) (*service.FriendshipResult, error)
	Accept(ctx context.Context, callerID uint, slug string) (*service.FriendshipResult, error)
	Block(ctx context.Context, callerID uint, slug string) (*service.FriendshipResult, error)
	Unblock(ctx context.Context, callerID uint, slug string) (*service.FriendshipResult, error)
	Remove(ctx context.Context, callerID uint, slug string) (*service.FriendshipResult, error)
}

// FeedAPI assembles gyma feeds.
type FeedAPI interface {
	Mine(ctx context.Context, callerID uint, exclude []uint) ([]models.FeedEntry, error)
	Gymbros(ctx context.Context, callerID uint, exclude []uint) ([]models.FeedEntry, error)
	Public(ctx context.Context, viewerID *uint, exclude []uint) ([]models.FeedEntry, error)
	PublicAnonymous(ctx context.Context, exclude []uint) ([]models.FeedEntry, error)
	Profile(ctx context.Context, viewerID *uint, slug string, exclude []uint) ([]models.FeedEntry, error)
}

// GymaAPI records gym visits.
type GymaAPI interface {
	Start(ctx context.Context, token string) (*models.Gyma, error)
	End(ctx context.Context, token string) (*models.Gyma, error)
	AddExercise(ctx context.Context, token string, input service.ExerciseInput) (*models.Exercise, error)
	Delete(ctx context.Context, callerID, gymaID uint) error
}

// Services is everything the handlers call into.
type Services struct {
	Sessions    middleware.SessionResolver
	Auth        AuthAPI
	Persons     PersonAPI
	Pictures    PictureAPI
	Profiles    ProfileAPI
	Friendships FriendshipAPI
	Feeds       FeedAPI
	Gymas       GymaAPI
}

// Deps are the infrastructure handles the server is built on.
type Deps struct {
	DB        *gorm.DB
	Redis     *redis.Client
	Sessions  service.SessionStore
	Images    storage.Store
	Publisher events.Publisher
	Mailer    service.Mailer
}

// Server holds all dependencies and provides handlers
type Server struct {
	config *config.Config
	db     *gorm.DB
	redis  *redis.Client
	images storage.Store
	svc    Services
	app    *fiber.App
}

// NewServer builds repositories and services on top of deps.
func NewServer(cfg *config.Config, deps Deps) *Server {
	users := repository.NewUserRepository(deps.DB)
	persons := repository.NewPersonRepository(deps.DB)
	friendships := repository.NewFriendshipRepository(deps.DB)
	gymas := repository.NewGymaRepository(deps.DB)

	profiles := service.NewProfileService(persons, friendships)
	svc := Services{
		Sessions:    deps.Sessions,
		Auth:        service.NewAuthService(users, deps.Sessions, profiles, deps.Mailer),
		Persons:     service.NewPersonService(persons),
		Pictures:    service.NewImageService(persons, deps.Images),
		Profiles:    profiles,
		Friendships: service.NewFriendshipService(persons, friendships, deps.Publisher),
		Feeds:       service.NewFeedService(gymas, persons, friendships),
		Gymas:       service.NewGymaService(deps.Sessions, gymas, persons, deps.Publisher),
	}

	return &Server{
		config: cfg,
		db:     deps.DB,
		redis:  deps.Redis,
		images: deps.Images,
		svc:    svc,
	}
}

var (
	promOnce sync.Once
	prom     *fiberprometheus.FiberPrometheus
)

// httpMetrics registers the HTTP collectors once per process.
func httpMetrics() *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		prom = fiberprometheus.New("gyma-api")
	})
	return prom
}

// App builds the Fiber application with middleware and routes installed.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	app := fiber.New(fiber.Config{
		AppName:      "Gyma API",
		BodyLimit:    bodyLimit,
		ErrorHandler: errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		switch fe.Code {
		case fiber.StatusNotFound:
			return models.RespondWithError(c, fe.Code, models.NewNotFoundError("Route", c.Path()))
		case fiber.StatusMethodNotAllowed, fiber.StatusRequestEntityTooLarge, fiber.StatusBadRequest:
			return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message, Code: models.CodeValidation})
		}
	}
	middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
}

// SetupMiddleware installs the global middleware stack.
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	metrics := httpMetrics()
	metrics.RegisterAt(app, "/metrics")
	app.Use(metrics.Middleware)

	app.Use(helmet.New(helmet.Config{CrossOriginResourcePolicy: "cross-origin"}))
	app.Use(middleware.StructuredLogger())

	// CORS before anything that can short-circuit so error responses carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Gymakeys",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return models.Respond(c, models.NewRateLimitedError("Too many requests, please try again later."))
		},
	}))
}

// Per-route budgets. Routes behind SessionRequired are counted per user,
// the rest per IP.
var (
	registerLimit = middleware.Rule{Name: "register", Limit: 10, Window: time.Hour}
	loginLimit    = middleware.Rule{Name: "login", Limit: 10, Window: time.Minute}
	resendLimit   = middleware.Rule{Name: "resend", Limit: 3, Window: time.Hour, Policy: middleware.FailClosed}
	pictureLimit  = middleware.Rule{Name: "picture", Limit: 20, Window: time.Hour}
)

// SetupRoutes registers every endpoint.
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if local, ok := s.images.(*storage.Local); ok {
		for _, area := range []storage.Area{storage.AreaLarge, storage.AreaMedium} {
			app.Static("/"+storage.KeyPrefix+"/"+string(area), local.Dir(area), fiber.Static{MaxAge: 86400})
		}
	}

	required := middleware.SessionRequired(s.svc.Sessions)
	optional := middleware.OptionalSession(s.svc.Sessions)

	api := app.Group("/api/v1")

	api.Post("/user", middleware.Limit(s.redis, registerLimit), s.Register)

	auth := api.Group("/auth")
	auth.Post("/login", middleware.Limit(s.redis, loginLimit), s.Login)
	auth.Post("/logout", required, s.Logout)
	auth.Get("/verify/:code", s.Verify)
	auth.Post("/resend_verification_mail", middleware.Limit(s.redis, resendLimit), s.ResendVerification)

	person := api.Group("/person", required)
	person.Post("", s.UpsertPerson)
	person.Get("/me", s.GetMyProfile)
	person.Post("/picture", middleware.Limit(s.redis, pictureLimit), s.UploadPicture)

	profile := api.Group("/profile")
	for path, handler := range map[string]fiber.Handler{
		"/request/:slug":    s.RequestFriendship,
		"/accept/:slug":     s.AcceptFriendship,
		"/block/:slug":      s.BlockPerson,
		"/unblock/:slug":    s.UnblockPerson,
		"/disconnect/:slug": s.RemoveFriendship,
	} {
		profile.Get(path, required, handler)
		profile.Post(path, required, handler)
	}
	profile.Get("/:slug/gyma", optional, s.GetProfileFeed)
	profile.Get("/:slug", optional, s.GetProfile)

	api.Get("/search", optional, s.Search)

	gyma := api.Group("/gyma", required)
	gyma.Post("/start", s.StartGyma)
	gyma.Put("/end", s.EndGyma)
	gyma.Post("/exercise", s.AddExercise)
	gyma.Delete("/:id", s.DeleteGyma)

	api.Get("/mine", required, s.GetMineFeed)
	api.Get("/gymbro", required, s.GetGymbroFeed)
	api.Get("/pub/anonymous", s.GetAnonymousFeed)
	api.Get("/pub", optional, s.GetPublicFeed)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports whether the database and Redis answer.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "unavailable"
	if s.db != nil {
		dbStatus = "healthy"
		if sqlDB, err := s.db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "unhealthy"
		}
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus != "healthy" || redisStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start listens on the configured port until the app is shut down.
func (s *Server) Start() error {
	app := s.App()
	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	if err := app.Listen(":" + s.config.Port); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app == nil {
		return nil
	}
	return s.app.ShutdownWithContext(ctx)
}
