package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/beaufnet/quotes-api/docs"
	"github.com/beaufnet/quotes-api/internal/api/handler"
	"github.com/beaufnet/quotes-api/internal/api/middleware"
	"github.com/beaufnet/quotes-api/internal/core/domain"
	"github.com/beaufnet/quotes-api/internal/core/ports"
	"github.com/beaufnet/quotes-api/internal/core/service"
	"github.com/beaufnet/quotes-api/internal/infrastructure/captcha"
	"github.com/beaufnet/quotes-api/internal/infrastructure/config"
	mongodb "github.com/beaufnet/quotes-api/internal/infrastructure/db/mongo"
	redisdb "github.com/beaufnet/quotes-api/internal/infrastructure/db/redis"
	healthhandlers "github.com/beaufnet/quotes-api/internal/infrastructure/http/handlers"
	"github.com/beaufnet/quotes-api/internal/infrastructure/queue"
)

// NewRouter builds the Echo instance with all routes registered and returns
// it together with the user service, so main can run the admin bootstrap.
func NewRouter(
	db *mongo.Database,
	rdb *redis.Client,
	mailer *queue.Dispatcher,
	cfg *config.Config,
	log zerolog.Logger,
) (*echo.Echo, ports.UserService) {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)
	e.Validator = handler.NewValidator()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("quotes"))

	// --- Dependencies ---
	userRepo := mongodb.NewUserRepository(db)
	quoteRepo := mongodb.NewQuoteRepository(db)
	tokens := redisdb.NewConfirmationStore(rdb)
	verifier := captcha.NewVerifier(cfg.Captcha.SecretKey)

	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenTTL)
	userService := service.NewUserService(userRepo, verifier, tokens, mailer, service.AdminBootstrap{
		Username: cfg.Admin.Username,
		Password: cfg.Admin.Password,
	}, log)
	quoteService := service.NewQuoteService(quoteRepo, verifier, log)

	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	quoteHandler := handler.NewQuoteHandler(quoteService)

	auth := middleware.Auth(cfg.JWTSecret)
	optionalAuth := middleware.OptionalAuth(cfg.JWTSecret)
	adminOnly := middleware.RBAC(domain.RoleAdmin)

	// --- Auth & account routes ---
	e.POST("/login", authHandler.Login)
	e.POST("/signup", userHandler.Signup)
	e.GET("/confirm", userHandler.Confirm)

	users := e.Group("/users", auth)
	users.GET("", userHandler.List)
	users.GET("/:id", userHandler.Get)
	users.POST("", userHandler.Create, adminOnly)
	users.PATCH("/:id", userHandler.Patch)
	users.DELETE("/:id", userHandler.Delete)

	// --- Quote routes ---
	e.GET("/quotes", quoteHandler.List)
	e.POST("/quotes", quoteHandler.Create)
	e.GET("/quotes/unvalidated", quoteHandler.ListUnvalidated, auth, adminOnly)
	e.GET("/quotes/unvalidated/:id", quoteHandler.GetUnvalidated, auth, adminOnly)
	e.GET("/quotes/:id", quoteHandler.Get, optionalAuth)
	e.PATCH("/quotes/:id", quoteHandler.Patch, auth, adminOnly)
	e.DELETE("/quotes/:id", quoteHandler.Delete, auth, adminOnly)
	e.POST("/quotes/:id/validate", quoteHandler.Validate, auth, adminOnly)
	e.POST("/quotes/:id/unvalidate", quoteHandler.Unvalidate, auth, adminOnly)

	// --- Observability & docs (no auth required) ---
	healthHandler := healthhandlers.NewHealthHandler()
	healthDepsHandler := healthhandlers.NewHealthDependenciesHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthDepsHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e, userService
}
