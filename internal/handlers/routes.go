package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/sirupsen/logrus"

	"github.com/Windi-Fikriyansyah/gigmarket/internal/config"
	"github.com/Windi-Fikriyansyah/gigmarket/internal/logger"
	"github.com/Windi-Fikriyansyah/gigmarket/internal/metrics"
	"github.com/Windi-Fikriyansyah/gigmarket/internal/middleware"
	"github.com/Windi-Fikriyansyah/gigmarket/internal/models"
	"github.com/Windi-Fikriyansyah/gigmarket/internal/realtime"
	"github.com/Windi-Fikriyansyah/gigmarket/internal/services/payment"
	"github.com/Windi-Fikriyansyah/gigmarket/internal/storage"
	"github.com/Windi-Fikriyansyah/gigmarket/internal/store"
)

// Deps is everything the HTTP layer needs. Gateway and Limiter may be nil.
type Deps struct {
	Config   config.Config
	Store    store.Store
	Hub      *realtime.Hub
	Notifier Notifier
	Gateway  payment.Gateway
	Objects  storage.ObjectStore
	Limiter  middleware.Limiter
	Log      *logrus.Logger
}

type Access int

const (
	Public Access = iota
	Authenticated
	Seller
	Admin
)

type Route struct {
	Method      string
	Path        string
	Access      Access
	RateLimited bool
	Handler     fiber.Handler
}

// Routes is the route table under /api. Access decides the middleware chain.
func Routes(d Deps) []Route {
	cfg := d.Config
	authH := &AuthHandler{Users: d.Store, JWTSecret: cfg.JWTSecret, Expires: cfg.JWTExpiresMin, Log: d.Log}
	userH := &UserHandler{Users: d.Store, Log: d.Log}
	gigH := &GigHandler{Gigs: d.Store, Log: d.Log}
	orderH := &OrderHandler{Orders: d.Store, Gigs: d.Store, Notifier: d.Notifier, Log: d.Log}
	msgH := &MessageHandler{Messages: d.Store, Notifier: d.Notifier, Log: d.Log}
	payH := &PaymentHandler{Store: d.Store, Gateway: d.Gateway, Currency: cfg.PaymentCurrency, Log: d.Log}
	adminH := &AdminHandler{Stats: d.Store, Log: d.Log}
	uploadH := &UploadHandler{Objects: d.Objects, MaxBytes: cfg.MaxUploadBytes, Log: d.Log}

	routes := []Route{
		{fiber.MethodPost, "/auth/signup", Public, true, authH.Signup},
		{fiber.MethodPost, "/auth/login", Public, true, authH.Login},

		{fiber.MethodGet, "/users/profile", Authenticated, false, userH.GetProfile},
		{fiber.MethodPut, "/users/profile", Authenticated, false, userH.UpdateProfile},
		{fiber.MethodGet, "/users/:id", Public, false, userH.GetByID},

		{fiber.MethodPost, "/gigs", Seller, false, gigH.Create},
		{fiber.MethodGet, "/gigs", Public, false, gigH.List},
		{fiber.MethodGet, "/gigs/categories", Public, false, gigH.Categories},
		{fiber.MethodGet, "/gigs/:id", Public, false, gigH.Get},
		{fiber.MethodPut, "/gigs/:id", Authenticated, false, gigH.Update},
		{fiber.MethodDelete, "/gigs/:id", Authenticated, false, gigH.Delete},

		{fiber.MethodPost, "/orders", Authenticated, false, orderH.Create},
		{fiber.MethodGet, "/orders", Authenticated, false, orderH.List},
		{fiber.MethodPut, "/orders/:id/status", Authenticated, false, orderH.UpdateStatus},
		{fiber.MethodPut, "/orders/:id/deliver", Authenticated, false, orderH.Deliver},

		{fiber.MethodPost, "/messages", Authenticated, false, msgH.Send},
		{fiber.MethodGet, "/messages/:userId", Authenticated, false, msgH.Conversation},

		{fiber.MethodPost, "/payments/create-payment-intent", Authenticated, false, payH.CreateIntent},
		{fiber.MethodPost, "/payments/webhook", Public, false, payH.Webhook},

		{fiber.MethodGet, "/admin/user-stats", Admin, false, adminH.UserStats},
		{fiber.MethodGet, "/admin/gig-stats", Admin, false, adminH.GigStats},
		{fiber.MethodGet, "/admin/order-stats", Admin, false, adminH.OrderStats},

		{fiber.MethodPost, "/uploads", Authenticated, false, uploadH.Upload},
	}

	if cfg.GoogleEnabled() {
		googleH := &GoogleOAuthHandler{
			Users:           d.Store,
			OAuth:           NewGoogleOAuthConfig(cfg.GoogleClientID, cfg.GoogleSecret, cfg.GoogleRedirect),
			FrontendBaseURL: strings.TrimRight(cfg.FrontendBaseURL, "/"),
			JWTSecret:       cfg.JWTSecret,
			Expires:         cfg.JWTExpiresMin,
			Log:             d.Log,
		}
		routes = append(routes,
			Route{fiber.MethodGet, "/auth/google/start", Public, false, googleH.GoogleStart},
			Route{fiber.MethodGet, "/auth/google/callback", Public, false, googleH.GoogleCallback},
		)
	}
	return routes
}

func chain(d Deps, r Route) []fiber.Handler {
	var hs []fiber.Handler
	if r.RateLimited && d.Limiter != nil {
		hs = append(hs, middleware.RateLimit(d.Limiter, d.Log))
	}
	if r.Access != Public {
		hs = append(hs, middleware.JWTFromHeader(d.Config.JWTSecret), middleware.AttachJWTLocals())
	}
	switch r.Access {
	case Seller:
		hs = append(hs, middleware.RequireRoles(models.RoleSeller))
	case Admin:
		hs = append(hs, middleware.RequireAdmin())
	}
	return append(hs, r.Handler)
}

func NewApp(d Deps) *fiber.App {
	cfg := d.Config
	bodyLimit := 4 * 1024 * 1024
	if cfg.MaxUploadBytes > 0 && int(cfg.MaxUploadBytes)+1<<20 > bodyLimit {
		bodyLimit = int(cfg.MaxUploadBytes) + 1<<20
	}

	app := fiber.New(fiber.Config{
		AppName:      "gigmarket",
		ErrorHandler: ErrorHandler(d.Log),
		BodyLimit:    bodyLimit,
	})

	app.Use(requestid.New())
	app.Use(recover.New())
	app.Use(logger.Middleware(d.Log))
	app.Use(metrics.Middleware())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.CORSOrigins, ", "),
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, x-auth-token",
	}))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", metrics.Handler())

	if !cfg.MinioEnabled() && cfg.UploadDir != "" {
		app.Static("/uploads", cfg.UploadDir)
	}

	if d.Hub != nil {
		wsH := &WSHandler{Hub: d.Hub, JWTSecret: cfg.JWTSecret, Log: d.Log}
		app.Get("/ws/messages", wsH.Upgrade, wsH.Serve())
	}

	api := app.Group("/api")
	for _, r := range Routes(d) {
		api.Add(r.Method, r.Path, chain(d, r)...)
	}
	return app
}
