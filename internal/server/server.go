package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/perkly/perkly/internal/audit"
	auditdomain "github.com/perkly/perkly/internal/audit/domain"
	"github.com/perkly/perkly/internal/authorization"
	"github.com/perkly/perkly/internal/config"
	"github.com/perkly/perkly/internal/customer"
	customerdomain "github.com/perkly/perkly/internal/customer/domain"
	"github.com/perkly/perkly/internal/identity"
	identitydomain "github.com/perkly/perkly/internal/identity/domain"
	"github.com/perkly/perkly/internal/ledger"
	ledgerdomain "github.com/perkly/perkly/internal/ledger/domain"
	obsmetrics "github.com/perkly/perkly/internal/observability/metrics"
	"github.com/perkly/perkly/internal/ratelimit"
	"github.com/perkly/perkly/internal/reward"
	rewarddomain "github.com/perkly/perkly/internal/reward/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	obsmetrics.Module,
	fx.Provide(registerGin),
	authorization.Module,
	audit.Module,
	identity.Module,
	customer.Module,
	reward.Module,
	ledger.Module,
	ratelimit.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestContext())
	r.Use(RequestLogger(log))
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(log *zap.Logger, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(log, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine       *gin.Engine
	cfg          config.Config
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	identitySvc  identitydomain.Service
	authzSvc     authorization.Service
	auditSvc     auditdomain.Service
	customerSvc  customerdomain.Service
	rewardSvc    rewarddomain.Service
	ledgerSvc    ledgerdomain.Service
	visitLimiter *ratelimit.VisitIngestLimiter
	obsMetrics   *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	IdentitySvc  identitydomain.Service
	AuthzSvc     authorization.Service
	AuditSvc     auditdomain.Service
	CustomerSvc  customerdomain.Service
	RewardSvc    rewarddomain.Service
	LedgerSvc    ledgerdomain.Service
	VisitLimiter *ratelimit.VisitIngestLimiter `optional:"true"`
	ObsMetrics   *obsmetrics.Metrics           `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		db:           p.DB,
		log:          p.Log.Named("server"),
		genID:        p.GenID,
		identitySvc:  p.IdentitySvc,
		authzSvc:     p.AuthzSvc,
		auditSvc:     p.AuditSvc,
		customerSvc:  p.CustomerSvc,
		rewardSvc:    p.RewardSvc,
		ledgerSvc:    p.LedgerSvc,
		visitLimiter: p.VisitLimiter,
		obsMetrics:   p.ObsMetrics,
	}

	svc.registerPublicRoutes()
	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerPublicRoutes() {
	// The reward catalog doubles as the in-store display; no credential is
	// required to browse it.
	s.engine.GET("/api/rewards", s.TenantFromBearerOrQuery(), s.ListRewards)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api", s.BearerRequired())

	// -------- Visits --------
	api.POST("/visits", s.RequireAuthorization(authorization.ObjectVisit, authorization.ActionCreate), s.VisitIngestRateLimit(), s.RecordVisit)

	// -------- Rewards --------
	api.POST("/rewards", s.RequireAuthorization(authorization.ObjectReward, authorization.ActionCreate), s.CreateReward)
	api.GET("/rewards/:id", s.RequireAuthorization(authorization.ObjectReward, authorization.ActionView), s.GetRewardByID)
	api.DELETE("/rewards/:id", s.RequireAuthorization(authorization.ObjectReward, authorization.ActionDelete), s.DeleteReward)
	api.POST("/rewards/redeem", s.RequireAuthorization(authorization.ObjectReward, authorization.ActionRedeem), s.RedeemReward)

	// -------- Transactions --------
	api.GET("/transactions", s.RequireAuthorization(authorization.ObjectTransaction, authorization.ActionView), s.ListTransactions)

	// -------- Customers --------
	api.POST("/customers", s.RequireAuthorization(authorization.ObjectCustomer, authorization.ActionCreate), s.RegisterCustomer)
	api.GET("/customers", s.RequireAuthorization(authorization.ObjectCustomer, authorization.ActionView), s.SearchCustomers)
	api.GET("/customers/:id", s.RequireAuthorization(authorization.ObjectCustomer, authorization.ActionView), s.GetCustomerByID)
	api.POST("/customers/:id/deactivate", s.RequireAuthorization(authorization.ObjectCustomer, authorization.ActionManage), s.DeactivateCustomer)

	// -------- Tokens --------
	api.POST("/tokens", s.RequireAuthorization(authorization.ObjectToken, authorization.ActionManage), s.IssueToken)
	api.POST("/tokens/:id/revoke", s.RequireAuthorization(authorization.ObjectToken, authorization.ActionManage), s.RevokeToken)

	// -------- Audit logs --------
	api.GET("/audit-logs", s.RequireAuthorization(authorization.ObjectAuditLog, authorization.ActionView), s.ListAuditLogs)
}
