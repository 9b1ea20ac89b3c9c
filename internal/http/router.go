package http

import (
	"log/slog"
	"time"

	"github.com/geocoder89/shopsphere/internal/auth"
	"github.com/geocoder89/shopsphere/internal/cache"
	"github.com/geocoder89/shopsphere/internal/config"
	"github.com/geocoder89/shopsphere/internal/domain/product"
	"github.com/geocoder89/shopsphere/internal/domain/user"
	"github.com/geocoder89/shopsphere/internal/http/handlers"
	"github.com/geocoder89/shopsphere/internal/http/middlewares"
	"github.com/geocoder89/shopsphere/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const serviceName = "shopsphere-api"

// Deps are the collaborators the router wires into handlers. AdminJobs,
// Gatherer and Checks are optional.
type Deps struct {
	Strategy  auth.Strategy
	Users     handlers.UserStore
	Products  handlers.ProductStore
	Orders    handlers.OrderService
	Offers    handlers.OfferService
	AdminJobs handlers.AdminJobsRepo
	Prom      *observability.Prom
	Gatherer  prometheus.Gatherer
	Checks    map[string]handlers.Check
}

func NewRouter(log *slog.Logger, cfg config.Config, deps Deps) *gin.Engine {
	if cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(middlewares.SecurityHeaders(cfg.IsProd()))
	r.Use(middlewares.CORSMiddleware(cfg.CORSOrigins))
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.RequestLogger(log, string(deps.Strategy.Type())))

	h := handlers.NewHealthHandler(deps.Checks)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	authm := middlewares.NewAuthMiddleware(deps.Strategy, deps.Prom)

	perMinute := cfg.RateLimitPerMinute
	if perMinute <= 0 {
		perMinute = 100
	}
	limiter := middlewares.NewRateLimiter(perMinute, time.Minute)

	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 10 << 10
	}

	api := r.Group("/api")
	api.Use(limiter.RateLimiterMiddleware(middlewares.KeyByIP))
	api.Use(middlewares.MaxBodyBytes(maxBody))
	api.Use(middlewares.RequireJSON())

	admin := []gin.HandlerFunc{authm.RequireAuth(), authm.RequireRoles(user.RoleAdmin)}
	staff := []gin.HandlerFunc{authm.RequireAuth(), authm.RequireRoles(user.RoleAdmin, user.RoleVendor)}

	usersHandler := handlers.NewUsersHandler(deps.Users, deps.Strategy)
	users := api.Group("/users")
	{
		users.POST("/register", usersHandler.Register)
		users.POST("/login", usersHandler.Login)
		users.GET("/profile", authm.RequireAuth(), usersHandler.Profile)
		users.GET("/:id", usersHandler.GetPublic)
		users.PUT("/:id/role", append(admin, usersHandler.UpdateRole)...)
	}

	sessionHandler := handlers.NewSessionHandler(deps.Strategy)
	session := api.Group("/session")
	{
		session.GET("/info", authm.OptionalAuth(), sessionHandler.Info)
		session.POST("/logout", authm.RequireAuth(), sessionHandler.Logout)
		session.GET("/compare", sessionHandler.Compare)
	}

	productsHandler := handlers.NewProductsHandler(deps.Products, cache.New[[]product.Product](5*time.Second))
	products := api.Group("/products")
	{
		products.GET("", productsHandler.List)
		products.GET("/vendor/my", authm.RequireAuth(), authm.RequireRoles(user.RoleVendor), productsHandler.ListMine)
		products.GET("/:id", productsHandler.Get)
		products.POST("", append(staff, productsHandler.Create)...)
		products.PUT("/:id", append(staff, productsHandler.Update)...)
		products.DELETE("/:id", append(admin, productsHandler.Delete)...)
	}

	ordersHandler := handlers.NewOrdersHandler(deps.Orders)
	orders := api.Group("/orders", authm.RequireAuth())
	{
		orders.POST("", ordersHandler.Place)
		orders.GET("/my", ordersHandler.ListMine)
		orders.GET("", authm.RequireRoles(user.RoleAdmin), ordersHandler.ListAll)
		orders.GET("/:id", ordersHandler.Get)
		orders.PUT("/:id/status", authm.RequireRoles(user.RoleAdmin), ordersHandler.UpdateStatus)
	}

	offersHandler := handlers.NewOffersHandler(deps.Offers)
	offers := api.Group("/offers")
	{
		offers.GET("", offersHandler.List)
		offers.POST("/apply", offersHandler.Apply)
		offers.POST("", append(admin, offersHandler.Create)...)
		offers.PUT("/:id", append(admin, offersHandler.Update)...)
		offers.DELETE("/:id", append(admin, offersHandler.Delete)...)
	}

	if deps.AdminJobs != nil {
		adminJobs := handlers.NewAdminJobsHandler(deps.AdminJobs)
		jobs := api.Group("/admin/jobs", admin...)
		{
			jobs.GET("", adminJobs.List)
			jobs.GET("/:id", adminJobs.GetByID)
			jobs.POST("/:id/retry", adminJobs.Retry)
			jobs.POST("/reprocess-dead", adminJobs.ReprocessDead)
		}
	}

	return r
}
