package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	commissiondomain "github.com/vendopay/vendopay/internal/commission/domain"
	"github.com/vendopay/vendopay/internal/config"
	payoutdomain "github.com/vendopay/vendopay/internal/payout/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(log))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	logger := log.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	log           *zap.Logger
	commissionSvc commissiondomain.Service
	payoutSvc     payoutdomain.Service
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	Log           *zap.Logger
	CommissionSvc commissiondomain.Service
	PayoutSvc     payoutdomain.Service
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		log:           p.Log.Named("server"),
		commissionSvc: p.CommissionSvc,
		payoutSvc:     p.PayoutSvc,
	}

	s.registerAPIRoutes()

	return s
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api/v1")

	api.POST("/orders/:order_id/commissions", s.CalculateForOrder)
	api.POST("/rates/resolve", s.ResolveRate)

	api.GET("/commissions", s.ListCommissions)
	api.GET("/commissions/:id", s.GetCommission)
	api.POST("/commissions/:id/dispute", s.DisputeCommission)
	api.POST("/commissions/recalculate", s.RecalculateCommissions)

	api.POST("/payouts", s.CreatePayout)
	api.GET("/payouts", s.ListPayouts)
	api.GET("/payouts/:id", s.GetPayout)
	api.POST("/payouts/:id/process", s.ProcessPayout)
	api.POST("/payouts/:id/fail", s.FailPayout)
	api.POST("/payouts/:id/cancel", s.CancelPayout)
}

func RunHTTP(lc fx.Lifecycle, cfg config.Config, s *Server) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: s.Engine(),
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
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

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(RunHTTP),
)
