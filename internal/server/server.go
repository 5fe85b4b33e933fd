package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/KAOS-CODM/KaosSub/internal/auth"
	"github.com/KAOS-CODM/KaosSub/internal/catalog"
	"github.com/KAOS-CODM/KaosSub/internal/config"
	"github.com/KAOS-CODM/KaosSub/internal/order"
	"github.com/KAOS-CODM/KaosSub/internal/payment"
	"github.com/KAOS-CODM/KaosSub/internal/provider"
	"github.com/KAOS-CODM/KaosSub/internal/wallet"
	"github.com/KAOS-CODM/KaosSub/internal/webhook"
)

type Server struct {
	router  *gin.Engine
	db      *sqlx.DB
	config  *config.Config
	reviews *webhook.ReviewQueue
	http    *http.Server
}

func New(db *sqlx.DB, cfg *config.Config) *Server {
	router := gin.Default()
	router.Use(corsMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(RequestLoggingMiddleware())

	ledger := wallet.NewLedger(db)
	providerClient := provider.NewClient(cfg.ProviderBaseURL, cfg.ProviderUsername, cfg.ProviderPassword, cfg.ExternalTimeout)

	intents := payment.NewRepository(db)
	gateway := payment.NewPaystackClient(cfg.PaystackBaseURL, cfg.PaystackSecretKey, cfg.ExternalTimeout)
	verifier := payment.NewVerifier(intents, gateway, ledger, cfg.PaymentCallbackURL)

	products := catalog.NewRepository(db)
	catalogService := catalog.NewService(products, providerClient)

	orders := order.NewRepository(db)
	orderService := order.NewService(orders, products, catalogService, providerClient, ledger, cfg.ExternalTimeout)

	reviews := webhook.NewReviewQueue(cfg.RedisAddr, orderService)

	walletHandler := wallet.NewHandler(ledger)
	paymentHandler := payment.NewHandler(verifier)
	catalogHandler := catalog.NewHandler(products, catalogService)
	orderHandler := order.NewHandler(orderService)
	webhookHandler := webhook.NewHandler(cfg.WebhookSecret, orderService, reviews)

	router.GET("/health", Health)
	router.GET("/metrics", Metrics())
	router.GET("/plans", catalogHandler.ListPlans)
	router.POST("/webhook/fulfillment", RateLimitMiddleware(20, 40), webhookHandler.Receive)

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)
	protected := router.Group("/")
	protected.Use(authMiddleware, RateLimitMiddleware(10, 20))
	{
		protected.GET("/wallet", walletHandler.GetBalance)
		protected.GET("/wallet/transactions", walletHandler.ListTransactions)
		protected.POST("/wallet/fund", paymentHandler.InitiatePayment)
		protected.GET("/wallet/fund/verify/:reference", paymentHandler.VerifyPayment)
		protected.GET("/wallet/payments", paymentHandler.ListPayments)
		protected.POST("/orders", orderHandler.CreateOrder)
		protected.GET("/orders", orderHandler.ListOrders)
		protected.GET("/orders/:id", orderHandler.GetOrder)
	}

	admin := router.Group("/admin")
	admin.Use(authMiddleware, auth.RequireRole("admin"))
	{
		admin.POST("/catalog/sync", catalogHandler.Sync)
		admin.GET("/provider/balance", ProviderBalance(providerClient))
		admin.POST("/orders/:id/cancel", orderHandler.CancelOrder)
	}

	return &Server{
		router:  router,
		db:      db,
		config:  cfg,
		reviews: reviews,
	}
}

// Reviews exposes the reconciliation queue so the entrypoint can run its
// worker and close it on shutdown.
func (s *Server) Reviews() *webhook.ReviewQueue {
	return s.reviews
}

func (s *Server) Handler() *gin.Engine {
	return s.router
}

func (s *Server) Start(port string) error {
	s.http = &http.Server{
		Addr:    ":" + port,
		Handler: s.router,
	}
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
