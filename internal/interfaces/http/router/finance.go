package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/oneflow/backend/internal/domain/finance"
	"github.com/oneflow/backend/internal/infrastructure/logger"
	"github.com/oneflow/backend/internal/interfaces/http/handler"
	"github.com/oneflow/backend/internal/interfaces/http/middleware"
)

// Handlers bundles the finance API handlers
type Handlers struct {
	Documents *handler.DocumentHandler
	Expenses  *handler.ExpenseHandler
	Requests  *handler.RequestHandler
	Transfer  *handler.TransferHandler
	System    *handler.SystemHandler
}

// FinanceGroup builds the /finance route table behind the given auth middleware
func FinanceGroup(h Handlers, auth gin.HandlerFunc) *DomainGroup {
	approvers := middleware.RequireRole(finance.RoleAdmin, finance.RoleProjectManager)

	g := NewDomainGroup("finance", "/finance").Use(auth)
	g.POST("/calculate", h.Documents.Calculate)
	g.GET("/integrity", h.Transfer.Integrity)
	g.POST("/import/:type", h.Transfer.Import)
	g.GET("/export/:type", h.Transfer.Export)

	g.Group("documents", "/documents/:type").
		GET("", h.Documents.List).
		POST("", h.Documents.Create).
		GET("/:id", h.Documents.GetByID).
		PUT("/:id", h.Documents.Update).
		DELETE("/:id", h.Documents.Delete).
		PATCH("/:id/status", h.Documents.ChangeStatus).
		GET("/:id/pdf", h.Documents.PDF)

	g.Group("expenses", "/expenses").
		GET("", h.Expenses.List).
		POST("", h.Expenses.Create).
		GET("/:id", h.Expenses.GetByID).
		PUT("/:id", h.Expenses.Update).
		DELETE("/:id", h.Expenses.Delete)

	g.Group("requests", "/requests").
		GET("", h.Requests.List).
		POST("", h.Requests.Create).
		GET("/:id", h.Requests.GetByID).
		POST("/:id/approve", approvers, h.Requests.Approve).
		POST("/:id/reject", approvers, h.Requests.Reject).
		GET("/:id/download", h.Requests.Download)

	return g
}

// EngineConfig configures the gin engine
type EngineConfig struct {
	ServiceName    string
	MaxBodySize    int64
	CORS           middleware.CORSConfig
	TrustedProxies []string
	TracingEnabled bool
	Authenticator  middleware.Authenticator
	Logger         *zap.Logger
	// Swagger guards /swagger; the document is built from the route table
	Swagger        middleware.SwaggerConfig
	ServiceVersion string
}

// NewEngine assembles the engine: global middleware, /health, /swagger and
// the authenticated /api/v1/finance routes
func NewEngine(cfg EngineConfig, h Handlers) (*gin.Engine, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}

	engine.Use(middleware.RequestID(), logger.Recovery(log))
	if cfg.TracingEnabled {
		engine.Use(middleware.Tracing(cfg.ServiceName)...)
	}
	engine.Use(
		logger.GinMiddleware(log),
		middleware.Secure(),
		middleware.CORSWithConfig(cfg.CORS),
		middleware.BodyLimit(cfg.MaxBodySize),
	)

	engine.GET("/health", h.System.Health)

	const apiBase = "/api/v1"
	financeRoutes := FinanceGroup(h, middleware.JWTAuth(cfg.Authenticator, log))
	r := NewRouter(engine, WithAPIVersion("v1"))
	r.Register(financeRoutes)
	r.Setup()

	doc, err := BuildOpenAPI(cfg.ServiceName, cfg.ServiceVersion, apiBase, financeRoutes.Routes(apiBase))
	if err != nil {
		return nil, err
	}
	mountSwagger(engine, doc, middleware.SwaggerProtection(cfg.Swagger))
	return engine, nil
}
