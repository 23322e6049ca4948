package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/hustlefy/hustlefy_be/internal/config"
	"github.com/hustlefy/hustlefy_be/internal/db"
	"github.com/hustlefy/hustlefy_be/internal/handlers"
	"github.com/hustlefy/hustlefy_be/internal/middleware"
	"github.com/hustlefy/hustlefy_be/internal/models"
	"github.com/hustlefy/hustlefy_be/internal/realtime"
)

// apiDeps carries everything registerRoutes wires into the route
// table.
type apiDeps struct {
	db          *gorm.DB
	jwtSecret   string
	authLimiter *middleware.RateLimiter

	auth          *handlers.AuthHandler
	google        *handlers.GoogleOAuthHandler
	otp           *handlers.OTPHandler
	profile       *handlers.ProfileHandler
	jobs          *handlers.JobHandler
	notifications *handlers.NotificationHandler
}

// registerRoutes builds the route table the shell and the web build
// consume. Public routes must stay registered before the protected
// group so the JWT middleware never sees them.
func registerRoutes(app *fiber.App, d apiDeps) {
	app.Options("/*", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	api := app.Group("/api")

	// public: auth + signup
	auth := api.Group("/auth", d.authLimiter.Handler())
	auth.Post("/register", d.auth.Register)
	auth.Post("/login", d.auth.Login)
	auth.Post("/logout", d.auth.Logout)
	auth.Post("/google", d.google.GoogleLogin)
	auth.Get("/google/start", d.google.GoogleStart)
	auth.Get("/google/callback", d.google.GoogleCallback)
	auth.Post("/send-otp", d.otp.SendOTP)
	auth.Post("/verify-otp", d.otp.VerifyOTP)

	// public: anonymous visitors browse the job list
	api.Get("/jobs", d.jobs.List)
	api.Get("/jobs/:id", d.jobs.Get)

	// protected (JWT)
	protected := api.Group("/",
		middleware.JWTFromHeader(d.jwtSecret),
		middleware.AttachJWTLocals(),
	)

	protected.Get("/auth/me", d.auth.Me)
	protected.Get("/profile", d.profile.Get)
	protected.Put("/profile", d.profile.Update)

	onboarded := middleware.RequireOnboarded(d.db)

	protected.Post("/jobs",
		middleware.RequireRoles("provider"), onboarded,
		d.jobs.Create,
	)
	protected.Get("/jobs/my/jobs",
		middleware.RequireRoles("provider"),
		d.jobs.MyJobs,
	)
	protected.Delete("/jobs/:id",
		middleware.RequireRoles("provider"),
		d.jobs.Delete,
	)
	protected.Get("/jobs/:id/applicants",
		middleware.RequireRoles("provider"),
		d.jobs.Applicants,
	)
	protected.Post("/jobs/:id/accept/:appId",
		middleware.RequireRoles("provider"),
		d.jobs.Accept,
	)
	protected.Post("/jobs/:id/reject/:appId",
		middleware.RequireRoles("provider"),
		d.jobs.Reject,
	)

	protected.Post("/jobs/:id/apply",
		middleware.RequireRoles("seeker"), onboarded,
		d.jobs.Apply,
	)
	protected.Get("/jobs/my/applications",
		middleware.RequireRoles("seeker"),
		d.jobs.MyApplications,
	)
	protected.Get("/seeker/feed",
		middleware.RequireRoles("seeker"), onboarded,
		d.jobs.Feed,
	)

	// WebSocket endpoint, token rides the query string
	app.Get("/ws/notifications", websocket.New(d.notifications.WebSocketHandler))
}

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	gdb, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	rdb := realtime.NewRedis()
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatal("redis not reachable:", err)
	}

	hub := realtime.NewHub()
	go hub.Run()
	go realtime.StartEventRelay(context.Background(), rdb, hub)

	if err := gdb.AutoMigrate(&models.User{}, &models.Job{}, &models.Application{}); err != nil {
		log.Fatal(err)
	}

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendBaseURL,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders:    "Content-Length",
		AllowCredentials: true,
	}))

	// brute-force brake on the credential endpoints
	authLimiter := middleware.NewRateLimiter(rate.Every(time.Second), 10)
	defer authLimiter.Stop()

	registerRoutes(app, apiDeps{
		db:          gdb,
		jwtSecret:   cfg.JWTSecret,
		authLimiter: authLimiter,

		auth: &handlers.AuthHandler{
			DB:        gdb,
			JWTSecret: cfg.JWTSecret,
			Expires:   cfg.JWTExpiresMin,
		},
		google: &handlers.GoogleOAuthHandler{
			DB:              gdb,
			JWTSecret:       cfg.JWTSecret,
			Expires:         cfg.JWTExpiresMin,
			GoogleClientID:  cfg.GoogleClientID,
			GoogleSecret:    cfg.GoogleSecret,
			GoogleRedirect:  cfg.GoogleRedirect,
			FrontendBaseURL: cfg.FrontendBaseURL,
		},
		otp:           handlers.NewOTPHandler(gdb, rdb, cfg.JWTSecret, cfg.JWTExpiresMin, time.Duration(cfg.OTPTTLMin)*time.Minute, cfg.OTPMaxAttempts),
		profile:       handlers.NewProfileHandler(gdb, cfg.JWTSecret, cfg.JWTExpiresMin),
		jobs:          handlers.NewJobHandler(gdb, hub, rdb),
		notifications: handlers.NewNotificationHandler(hub, cfg.JWTSecret),
	})

	log.Fatal(app.Listen(":" + cfg.AppPort))
}
