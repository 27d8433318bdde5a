// Package router provides HTTP routing, middleware configuration, and server setup for the web application
package router

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/amirphl/webbuilder-crm/app/dto"
	"github.com/amirphl/webbuilder-crm/app/handlers"
	"github.com/amirphl/webbuilder-crm/app/middleware"
	"github.com/amirphl/webbuilder-crm/config"
	_ "github.com/amirphl/webbuilder-crm/docs"
	"github.com/amirphl/webbuilder-crm/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cache"
	"github.com/gofiber/fiber/v3/middleware/compress"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggo/swag"
)

// HealthChecker reports whether a dependency is reachable
type HealthChecker func() error

// Handlers groups every HTTP handler the router mounts
type Handlers struct {
	Public    handlers.PublicHandlerInterface
	StaffAuth handlers.StaffAuthHandlerInterface
	Leads     handlers.LeadHandlerInterface
	Quotes    handlers.QuoteHandlerInterface
	Services  handlers.ServiceHandlerInterface
	Reports   handlers.ReportHandlerInterface
	Settings  handlers.SettingsHandlerInterface
}

// Router interface for HTTP routing
type Router interface {
	SetupRoutes()
	Start(address string) error
	GetApp() *fiber.App
}

// FiberRouter implements Router using Fiber v3
type FiberRouter struct {
	app         *fiber.App
	cfg         *config.ProductionConfig
	handlers    Handlers
	auth        *middleware.AuthMiddleware
	maintenance middleware.MaintenanceChecker
	dbHealth    HealthChecker
}

// NewFiberRouter creates a new Fiber router
func NewFiberRouter(
	cfg *config.ProductionConfig,
	h Handlers,
	auth *middleware.AuthMiddleware,
	maintenance middleware.MaintenanceChecker,
	dbHealth HealthChecker,
) *FiberRouter {
	app := fiber.New(fiber.Config{
		AppName:      "WebBuilder CRM API",
		ServerHeader: "WebBuilder-CRM",
		ErrorHandler: errorHandler,
		BodyLimit:    cfg.Server.BodyLimit,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		ProxyHeader:  cfg.Server.ProxyHeader,
		TrustProxy:   len(cfg.Server.TrustedProxies) > 0,
		TrustProxyConfig: fiber.TrustProxyConfig{
			Proxies: cfg.Server.TrustedProxies,
		},
	})

	return &FiberRouter{
		app:         app,
		cfg:         cfg,
		handlers:    h,
		auth:        auth,
		maintenance: maintenance,
		dbHealth:    dbHealth,
	}
}

// SetupRoutes configures all application routes
func (r *FiberRouter) SetupRoutes() {
	log.Println("Setting up routes...")

	r.setupMiddleware()

	r.app.Get("/health", r.healthCheck)
	if r.cfg.Metrics.Enabled {
		r.app.Get(r.cfg.Metrics.Path, adaptor.HTTPHandler(promhttp.Handler()))
	}

	api := r.app.Group("/api/v1")
	api.Get("/health", r.healthCheck)
	api.Get("/docs/swagger.json", r.serveSwaggerJSON)

	api.Use(r.rateLimit(r.cfg.Security.GlobalRateLimit, func(c fiber.Ctx) bool {
		return c.Path() == "/api/v1/health"
	}))

	// Public website
	public := api.Group("/public")
	public.Use(middleware.Maintenance(r.maintenance))
	public.Get("/services", cache.New(cache.Config{Expiration: time.Minute}), r.handlers.Public.ListServices)
	public.Get("/settings", r.handlers.Public.GetSettings)

	formLimit := r.rateLimit(r.cfg.Security.PublicRateLimit, nil)
	public.Post("/contact", formLimit, r.handlers.Public.SubmitContact)
	public.Post("/lead-capture", formLimit, r.handlers.Public.SubmitLeadCapture)
	public.Post("/quick-quote", formLimit, r.handlers.Public.SubmitQuickQuote)
	public.Post("/conversions", formLimit, r.handlers.Public.TrackConversion)

	// Staff authentication
	staffAuth := api.Group("/staff/auth", r.rateLimit(r.cfg.Security.AuthRateLimit, nil))
	staffAuth.Post("/captcha/init", r.handlers.StaffAuth.InitCaptcha)
	staffAuth.Post("/login", r.handlers.StaffAuth.Login)
	staffAuth.Post("/refresh", r.handlers.StaffAuth.Refresh)
	staffAuth.Post("/logout", r.auth.StaffAuthenticate(), r.handlers.StaffAuth.Logout)

	// Staff back office, registered after /staff/auth so those routes match first
	staff := api.Group("/staff", r.auth.StaffAuthenticate())

	staff.Get("/leads", r.handlers.Leads.ListLeads)
	staff.Post("/leads", r.handlers.Leads.CreateLead)
	staff.Post("/leads/bulk", r.handlers.Leads.BulkAction)
	staff.Get("/leads/:id", r.handlers.Leads.GetLead)
	staff.Put("/leads/:id", r.handlers.Leads.UpdateLead)
	staff.Delete("/leads/:id", r.handlers.Leads.DeleteLead)
	staff.Post("/leads/:id/status", r.handlers.Leads.ChangeStatus)

	staff.Get("/quotes", r.handlers.Quotes.ListQuotes)
	staff.Post("/quotes", r.handlers.Quotes.CreateQuote)
	staff.Get("/quotes/:id", r.handlers.Quotes.GetQuote)
	staff.Put("/quotes/:id", r.handlers.Quotes.UpdateQuote)
	staff.Delete("/quotes/:id", r.handlers.Quotes.DeleteQuote)
	staff.Post("/quotes/:id/status", r.handlers.Quotes.ChangeStatus)
	staff.Post("/quotes/:id/recalculate", r.handlers.Quotes.Recalculate)
	staff.Post("/quotes/:id/items", r.handlers.Quotes.AddItem)
	staff.Put("/quotes/:id/items/:item_id", r.handlers.Quotes.UpdateItem)
	staff.Delete("/quotes/:id/items/:item_id", r.handlers.Quotes.RemoveItem)

	staff.Get("/services", r.handlers.Services.ListServices)
	staff.Post("/services", r.handlers.Services.CreateService)
	staff.Put("/services/:id", r.handlers.Services.UpdateService)

	staff.Get("/conversions", r.handlers.Reports.ListConversions)
	staff.Get("/reports/dashboard", r.handlers.Reports.Dashboard)
	staff.Get("/reports/export", r.handlers.Reports.Export)

	staff.Get("/settings", r.handlers.Settings.GetSettings)
	staff.Put("/settings", r.handlers.Settings.UpdateSettings)

	r.app.Use(r.notFoundHandler)

	log.Println("Routes configured successfully")
}

// setupMiddleware configures global middleware
func (r *FiberRouter) setupMiddleware() {
	// Request ID middleware - must be first
	r.app.Use(requestid.New(requestid.Config{
		Header:    "X-Request-ID",
		Generator: generateRequestID,
	}))

	r.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, e any) {
			log.Printf(`{"time":"%s","level":"error","request_id":"%s","event":"panic","error":"%v","path":"%s","method":"%s","ip":"%s"}`,
				utils.UTCNow().Format(time.RFC3339),
				requestid.FromContext(c),
				e,
				c.Path(),
				c.Method(),
				c.IP(),
			)
		},
	}))

	if r.cfg.Metrics.Enabled {
		r.app.Use(middleware.Metrics())
	}

	r.app.Use(helmet.New(helmet.Config{
		XSSProtection:             "1; mode=block",
		ContentTypeNosniff:        "nosniff",
		XFrameOptions:             "DENY",
		HSTSMaxAge:                31536000, // 1 year
		ContentSecurityPolicy:     "default-src 'self'; img-src 'self' data:; frame-ancestors 'none';",
		ReferrerPolicy:            "strict-origin-when-cross-origin",
		CrossOriginResourcePolicy: "cross-origin",
		XDNSPrefetchControl:       "off",
		XDownloadOptions:          "noopen",
		XPermittedCrossDomain:     "none",
	}))

	r.app.Use(cors.New(cors.Config{
		AllowOrigins: r.cfg.Security.AllowedOrigins,
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"Authorization",
			"X-Requested-With",
			"X-Request-ID",
		},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: r.cfg.Security.AllowCredentials && !slicesHasWildcard(r.cfg.Security.AllowedOrigins),
		MaxAge:           r.cfg.Security.CORSMaxAge,
	}))

	r.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
		Next: func(c fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), r.cfg.Metrics.Path)
		},
	}))

	if r.cfg.Logging.EnableAccessLog {
		r.app.Use(logger.New(logger.Config{
			Format:     `{"time":"${time}","request_id":"${respHeader:X-Request-ID}","level":"info","method":"${method}","path":"${path}","ip":"${ip}","status":${status},"latency":"${latency}","bytes_in":${bytesReceived},"bytes_out":${bytesSent}}` + "\n",
			TimeFormat: time.RFC3339,
			TimeZone:   "UTC",
			Next: func(c fiber.Ctx) bool {
				return c.Path() == "/health" || c.Path() == "/api/v1/health" || c.Path() == r.cfg.Metrics.Path
			},
		}))
	}
}

// rateLimit limits requests per client IP over the configured window
func (r *FiberRouter) rateLimit(max int, next func(c fiber.Ctx) bool) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: r.cfg.Security.RateLimitWindow,
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.APIResponse{
				Success: false,
				Message: "Too many requests. Please try again later.",
				Error:   dto.ErrorDetail{Code: "RATE_LIMIT_EXCEEDED"},
			})
		},
		Next: next,
	})
}

// Start starts the HTTP server
func (r *FiberRouter) Start(address string) error {
	log.Printf("Starting server on %s", address)
	return r.app.Listen(address)
}

// GetApp returns the Fiber app instance
func (r *FiberRouter) GetApp() *fiber.App {
	return r.app
}

// healthCheck reports liveness and database reachability
func (r *FiberRouter) healthCheck(c fiber.Ctx) error {
	data := fiber.Map{
		"status":    "ok",
		"timestamp": utils.UTCNow().Unix(),
		"version":   r.cfg.Deployment.Version,
		"service":   "webbuilder-crm-api",
	}
	if r.dbHealth != nil {
		if err := r.dbHealth(); err != nil {
			log.Printf("health check: database unreachable: %v", err)
			data["status"] = "degraded"
			data["database"] = "unreachable"
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.APIResponse{
				Success: false,
				Message: "Service is degraded",
				Data:    data,
				Error:   dto.ErrorDetail{Code: "DATABASE_UNAVAILABLE"},
			})
		}
		data["database"] = "ok"
	}
	return c.JSON(dto.APIResponse{
		Success: true,
		Message: "Service is healthy",
		Data:    data,
	})
}

// serveSwaggerJSON serves the document registered by the docs package
func (r *FiberRouter) serveSwaggerJSON(c fiber.Ctx) error {
	doc, err := swag.ReadDoc()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.APIResponse{
			Success: false,
			Message: "Failed to load Swagger documentation",
			Error:   dto.ErrorDetail{Code: "SWAGGER_LOAD_ERROR"},
		})
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.SendString(doc)
}

func (r *FiberRouter) notFoundHandler(c fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(dto.APIResponse{
		Success: false,
		Message: "The requested resource was not found",
		Error: dto.ErrorDetail{
			Code: "NOT_FOUND",
			Details: fiber.Map{
				"path":       c.Path(),
				"method":     c.Method(),
				"request_id": requestid.FromContext(c),
			},
		},
	})
}

// errorHandler renders errors that escape the handlers, fiber errors keep their status
func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "An internal server error occurred"
	errCode := "INTERNAL_ERROR"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
		errCode = "HTTP_ERROR"
	}
	if code >= fiber.StatusInternalServerError {
		log.Printf("Error %d: %v", code, err)
	}

	return c.Status(code).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code: errCode,
			Details: fiber.Map{
				"timestamp":  utils.UTCNow().Unix(),
				"request_id": requestid.FromContext(c),
			},
		},
	})
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	_, _ = rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

func slicesHasWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
