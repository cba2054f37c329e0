package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/simsmaster/sims-backend/internal/config"
	"github.com/simsmaster/sims-backend/internal/handler"
	"github.com/simsmaster/sims-backend/internal/middleware"
	"github.com/simsmaster/sims-backend/internal/model"
	"github.com/simsmaster/sims-backend/internal/response"
	"github.com/simsmaster/sims-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth        *handler.AuthHandler
	User        *handler.UserHandler
	Class       *handler.ClassHandler
	Cart        *handler.CartHandler
	Application *handler.ApplicationHandler
	Payment     *handler.PaymentHandler
	View        *handler.ViewHandler
	WS          *handler.WSHandler
	System      *handler.SystemHandler
}

// Middlewares carries the dependencies of the auth and rate limit chains.
type Middlewares struct {
	Tokens      middleware.TokenValidator
	Roles       middleware.RoleResolver
	LoginLimits *middleware.RateLimiter
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(handlers *Handlers, mw *Middlewares, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware(log))

	brotliConfig := middleware.DefaultBrotliConfig
	brotliConfig.MinLength = cfg.CompressionMinBytes
	router.Use(middleware.BrotliWithConfig(brotliConfig))

	router.GET("/health", handlers.System.Health)

	jwt := middleware.RequireJWT(mw.Tokens)
	withRole := middleware.ResolveRole(mw.Roles)
	instructorOnly := middleware.RequireRole(mw.Roles, model.RoleInstructor, model.RoleAdmin)
	adminOnly := middleware.RequireRole(mw.Roles, model.RoleAdmin)
	viewCache := middleware.CacheControl(cfg.ViewCacheTTL)

	// ─── 1. Auth Group ─────────────────────────────────────────────────
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/register", handlers.Auth.Register)
		auth.POST("/login", mw.LoginLimits.Middleware(), handlers.Auth.Login)
		auth.GET("/me", jwt, handlers.Auth.Me)
	}

	api := router.Group("/api/v1")

	// ─── 2. Public catalog ─────────────────────────────────────────────
	{
		api.GET("/classes/popular", viewCache, handlers.View.PopularClasses)
		api.GET("/classes/approved", handlers.Class.ListApprovedClasses)
		api.GET("/instructors/popular", viewCache, handlers.View.PopularInstructors)
		api.GET("/instructors", handlers.User.ListInstructors)
	}

	// ─── 3. Authenticated Group ────────────────────────────────────────
	authed := api.Group("")
	authed.Use(jwt, withRole)
	{
		authed.POST("/payments", handlers.Payment.CommitPurchase)
		authed.GET("/payments/history/:email", handlers.Payment.PaymentHistory)
		authed.GET("/payments/history/:email/count", handlers.Payment.PaymentCount)
		authed.GET("/enrollments/:email/classes", handlers.Payment.EnrolledClasses)

		authed.GET("/cart", handlers.Cart.ListCart)
		authed.POST("/cart", handlers.Cart.AddToCart)
		authed.GET("/cart/items/:classId", handlers.Cart.CheckCartItem)
		authed.DELETE("/cart/items/:classId", handlers.Cart.RemoveCartItem)

		authed.POST("/applications", handlers.Application.Apply)
		authed.GET("/applications/:email", handlers.Application.GetApplication)

		authed.GET("/users/email/:email", handlers.User.GetUserByEmail)
		authed.GET("/classes/:id", handlers.Class.GetClass)
	}

	// ─── 4. Instructor Group ───────────────────────────────────────────
	instructor := api.Group("")
	instructor.Use(jwt, instructorOnly)
	{
		instructor.POST("/classes", handlers.Class.CreateClass)
		instructor.PUT("/classes/:id", handlers.Class.UpdateClass)
		instructor.GET("/classes/instructor/:email", handlers.Class.ListInstructorClasses)
	}

	// ─── 5. Admin Group ────────────────────────────────────────────────
	admin := api.Group("")
	admin.Use(jwt, adminOnly)
	{
		admin.GET("/admin/stats", handlers.View.AdminStats)
		admin.GET("/admin/system/metrics", handlers.System.SystemMetricsSSE)

		admin.GET("/classes", handlers.Class.ListClasses)
		admin.PATCH("/classes/:id/status", handlers.Class.ChangeStatus)

		admin.GET("/users", handlers.User.ListUsers)
		admin.GET("/users/:id", handlers.User.GetUser)
		admin.PUT("/users/:id", handlers.User.UpdateUser)
		admin.DELETE("/users/:id", handlers.User.DeleteUser)

		admin.GET("/applications", handlers.Application.ListApplications)
		admin.PUT("/applications/:email/role", handlers.Application.GrantRole)
		admin.DELETE("/applications/:email", handlers.Application.DeleteApplication)
	}

	// ─── 6. WebSocket Group ────────────────────────────────────────────
	ws := router.Group("/ws/v1")
	{
		ws.GET("/classes/seats", handlers.WS.SeatStream)
	}

	router.NoRoute(func(c *gin.Context) {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	})

	return router
}

// Compile-time checks that the services satisfy the middleware contracts.
var (
	_ middleware.TokenValidator = (*service.AuthService)(nil)
	_ middleware.RoleResolver   = (*service.UserService)(nil)
)
