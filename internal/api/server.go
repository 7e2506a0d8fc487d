package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"

	"pujabook/internal/config"
	"pujabook/internal/database"
	"pujabook/internal/external"
	"pujabook/internal/handlers"
	"pujabook/internal/messaging"
	"pujabook/internal/metrics"
	"pujabook/internal/middleware"
	"pujabook/internal/models"
	"pujabook/internal/notification"
	"pujabook/internal/repository"
	"pujabook/internal/search"
	"pujabook/internal/service"
	"pujabook/internal/throttle"
	"pujabook/internal/validation"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server представляет HTTP сервер API
type Server struct {
	router     *gin.Engine
	config     *config.Config
	db         *database.DB
	nats       *messaging.NATSClient
	limiter    throttle.Limiter
	dispatcher *notification.Dispatcher
	services   *service.Services
}

// NewServer подключает зависимости и собирает роутер
func NewServer(cfg *config.Config) (*Server, error) {
	gin.SetMode(cfg.GinMode)
	metrics.MustRegister()

	if err := validation.RegisterBindings(); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.RunMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// NATS необязателен, без него события только не публикуются
	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	if !natsClient.Connected() {
		slog.Info("NATS_URL not set, domain events are not published")
	}

	limiter, err := throttle.New(cfg.Throttle)
	if err != nil {
		slog.Warn("OTP throttle unavailable, requests are not limited", "error", err)
		limiter = throttle.Noop{}
	}

	var index service.PujaIndex
	if cfg.Search.Enabled() {
		es, err := search.NewElasticsearchClient(cfg.Search)
		if err != nil {
			slog.Warn("Elasticsearch unavailable, catalog search uses SQL", "error", err)
		} else {
			index = es
		}
	}

	dispatcher := newDispatcher(cfg)

	if cfg.Razorpay.KeyID == "" || cfg.Razorpay.KeySecret == "" {
		slog.Warn("Razorpay credentials are not configured, payment orders and verification will fail")
	}

	repos := repository.NewRepositories(db)
	services := service.NewServices(service.Deps{
		Repos:     repos,
		Auth:      cfg.Auth,
		Gateway:   external.NewRazorpayClient(cfg.Razorpay),
		Notifier:  dispatcher,
		Publisher: natsClient,
		Index:     index,
		Limiter:   limiter,
	})

	h := handlers.NewHandlers(services, db, cfg.AppName, cfg.AppVersion)

	return &Server{
		router:     NewRouter(h, services.Auth, cfg.Debug),
		config:     cfg,
		db:         db,
		nats:       natsClient,
		limiter:    limiter,
		dispatcher: dispatcher,
		services:   services,
	}, nil
}

// newDispatcher включает только настроенные каналы доставки
func newDispatcher(cfg *config.Config) *notification.Dispatcher {
	var email notification.EmailSender
	if cfg.SMTP.Enabled() {
		client, err := external.NewSMTPClient(cfg.SMTP)
		if err != nil {
			slog.Warn("SMTP disabled", "error", err)
		} else {
			email = client
		}
	} else {
		slog.Info("SMTP not configured, emails are only logged")
	}

	var sms notification.SMSSender
	if cfg.Twilio.Enabled() {
		client, err := external.NewTwilioClient(cfg.Twilio)
		if err != nil {
			slog.Warn("Twilio disabled", "error", err)
		} else {
			sms = client
		}
	} else {
		slog.Info("Twilio not configured, SMS are only logged")
	}

	return notification.NewDispatcher(email, sms)
}

// NewRouter регистрирует middleware и все роуты API
func NewRouter(h *handlers.Handlers, auth middleware.Authenticator, debug bool) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(middleware.Metrics())

	router.GET("/", h.Root)
	router.GET("/health", h.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/signup", h.Signup)
		authGroup.POST("/request-otp", h.RequestOTP)
		authGroup.POST("/verify-otp", h.VerifyOTP)
		authGroup.POST("/admin-login", h.AdminLogin)
		authGroup.POST("/token", h.AdminLogin)
	}

	// Публичный каталог
	router.GET("/pujas", h.ListPujas)
	router.GET("/pujas/details", h.ListPujasWithDetails)
	router.GET("/pujas/search", h.SearchPujas)
	router.GET("/pujas/:id", h.GetPuja)
	router.GET("/pujas/:id/chadawas", h.ListPujaChadawas)
	router.GET("/pujas/:id/plans", h.ListPujaPlans)
	router.GET("/plans", h.ListPlans)
	router.GET("/plans/:id", h.GetPlan)
	router.GET("/chadawas", h.ListChadawas)
	router.GET("/chadawas/:id", h.GetChadawa)

	authed := router.Group("")
	authed.Use(middleware.BearerAuth(auth))
	{
		authed.GET("/user/profile", h.GetProfile)
		authed.PUT("/user/profile", h.UpdateProfile)
		authed.GET("/user/bookings", h.ListUserBookings)

		bookings := authed.Group("/bookings")
		{
			bookings.POST("", h.CreateBooking)
			bookings.GET("/:id", h.GetBooking)
			bookings.POST("/:id/cancel", h.CancelBooking)
			bookings.POST("/:id/chadawas", h.AttachChadawa)
			bookings.DELETE("/:id/chadawas/:chadawa_id", h.DetachChadawa)
		}

		payments := authed.Group("/payments")
		{
			payments.POST("/create-order/:booking_id", h.CreatePaymentOrder)
			payments.POST("/verify", h.VerifyPayment)
			payments.GET("/status/:booking_id", h.PaymentStatus)
			payments.GET("/user", h.ListUserPayments)
			payments.GET("/admin", middleware.RequireRole(models.RoleAdmin), h.ListAllPayments)
		}

		admin := authed.Group("/admin")
		admin.Use(middleware.RequireRole(models.RoleAdmin))
		{
			admin.GET("/bookings", h.ListAllBookings)
			admin.PUT("/bookings/:id", h.UpdateBooking)
			admin.GET("/payments", h.ListAllPayments)

			admin.GET("/users", h.ListUsers)
			admin.POST("/users/:id/approve", h.ApproveUser)
			admin.POST("/users/:id/deactivate", h.DeactivateUser)
			admin.POST("/users/:id/verify-email", h.VerifyUserEmail)
			admin.POST("/users/admins", middleware.RequireRole(models.RoleSuperAdmin), h.CreateAdmin)

			admin.POST("/pujas", h.CreatePuja)
			admin.PUT("/pujas/:id", h.UpdatePuja)
			admin.DELETE("/pujas/:id", h.DeletePuja)
			admin.POST("/pujas/images", h.AddPujaImage)
			admin.DELETE("/pujas/images/:image_id", h.DeletePujaImage)
			admin.POST("/pujas/:id/plans/:plan_id", h.LinkPlan)
			admin.DELETE("/pujas/:id/plans/:plan_id", h.UnlinkPlan)
			admin.POST("/pujas/:id/chadawas/:chadawa_id", h.LinkChadawa)
			admin.DELETE("/pujas/:id/chadawas/:chadawa_id", h.UnlinkChadawa)

			admin.POST("/plans", h.CreatePlan)
			admin.PUT("/plans/:id", h.UpdatePlan)
			admin.DELETE("/plans/:id", h.DeletePlan)

			admin.POST("/chadawas", h.CreateChadawa)
			admin.PUT("/chadawas/:id", h.UpdateChadawa)
			admin.DELETE("/chadawas/:id", h.DeleteChadawa)
		}
	}

	if debug {
		router.GET("/docs", routeList(router))
	}

	return router
}

// routeList отдает список зарегистрированных роутов, только в DEBUG
func routeList(router *gin.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		routes := router.Routes()
		out := make([]gin.H, 0, len(routes))
		for _, r := range routes {
			out = append(out, gin.H{"method": r.Method, "path": r.Path})
		}
		sort.Slice(out, func(i, j int) bool {
			return out[i]["path"].(string)+out[i]["method"].(string) < out[j]["path"].(string)+out[j]["method"].(string)
		})
		c.JSON(http.StatusOK, out)
	}
}

// GetRouter возвращает роутер для http.Server и тестов
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

// Cleanup дожидается отправки уведомлений и закрывает соединения
func (s *Server) Cleanup(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.dispatcher.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		slog.Warn("Notifications still in flight at shutdown")
	}

	if s.limiter != nil {
		if err := s.limiter.Close(); err != nil {
			slog.Error("Error closing throttle connection", "error", err)
		}
	}

	if s.nats != nil {
		if err := s.nats.Close(); err != nil {
			slog.Error("Error closing NATS connection", "error", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			slog.Error("Error closing database connection", "error", err)
			return err
		}
	}

	return nil
}
