package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/tutorledger/internal/billing"
	billingdomain "github.com/smallbiznis/tutorledger/internal/billing/domain"
	"github.com/smallbiznis/tutorledger/internal/config"
	"github.com/smallbiznis/tutorledger/internal/feedback"
	feedbackdomain "github.com/smallbiznis/tutorledger/internal/feedback/domain"
	"github.com/smallbiznis/tutorledger/internal/guardian"
	guardiandomain "github.com/smallbiznis/tutorledger/internal/guardian/domain"
	"github.com/smallbiznis/tutorledger/internal/invoice"
	invoicedomain "github.com/smallbiznis/tutorledger/internal/invoice/domain"
	"github.com/smallbiznis/tutorledger/internal/lesson"
	lessondomain "github.com/smallbiznis/tutorledger/internal/lesson/domain"
	"github.com/smallbiznis/tutorledger/internal/observability"
	obsmiddleware "github.com/smallbiznis/tutorledger/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/tutorledger/internal/observability/metrics"
	obstracing "github.com/smallbiznis/tutorledger/internal/observability/tracing"
	"github.com/smallbiznis/tutorledger/internal/payment"
	paymentdomain "github.com/smallbiznis/tutorledger/internal/payment/domain"
	"github.com/smallbiznis/tutorledger/internal/providers/pdf"
	"github.com/smallbiznis/tutorledger/internal/ratelimit"
	"github.com/smallbiznis/tutorledger/internal/student"
	studentdomain "github.com/smallbiznis/tutorledger/internal/student/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	billing.Module,
	guardian.Module,
	student.Module,
	lesson.Module,
	invoice.Module,
	payment.Module,
	feedback.Module,
	pdf.Module,
	ratelimit.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(httpMetrics.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
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

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	db          *gorm.DB
	genID       *snowflake.Node
	guardianSvc guardiandomain.Service
	studentSvc  studentdomain.Service
	lessonSvc   lessondomain.Service
	invoiceSvc  invoicedomain.Service
	paymentSvc  paymentdomain.Service
	feedbackSvc feedbackdomain.Service
	billingSvc  billingdomain.Service
	pdfRenderer pdf.Renderer
	obsMetrics  *obsmetrics.Metrics
	quoteLimit  *ratelimit.QuoteLimiter
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	DB          *gorm.DB
	GenID       *snowflake.Node
	GuardianSvc guardiandomain.Service
	StudentSvc  studentdomain.Service
	LessonSvc   lessondomain.Service
	InvoiceSvc  invoicedomain.Service
	PaymentSvc  paymentdomain.Service
	FeedbackSvc feedbackdomain.Service
	BillingSvc  billingdomain.Service
	PDFRenderer pdf.Renderer
	ObsMetrics  *obsmetrics.Metrics     `optional:"true"`
	QuoteLimit  *ratelimit.QuoteLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		db:          p.DB,
		genID:       p.GenID,
		guardianSvc: p.GuardianSvc,
		studentSvc:  p.StudentSvc,
		lessonSvc:   p.LessonSvc,
		invoiceSvc:  p.InvoiceSvc,
		paymentSvc:  p.PaymentSvc,
		feedbackSvc: p.FeedbackSvc,
		billingSvc:  p.BillingSvc,
		pdfRenderer: p.PDFRenderer,
		obsMetrics:  p.ObsMetrics,
		quoteLimit:  p.QuoteLimit,
	}

	svc.registerAdminRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/admin", s.OrgContext())

	admin.POST("/guardians", s.CreateGuardian)
	admin.GET("/guardians", s.ListGuardians)
	admin.GET("/guardians/:id", s.GetGuardianByID)
	admin.PATCH("/guardians/:id", s.UpdateGuardian)

	admin.POST("/students", s.CreateStudent)
	admin.GET("/students", s.ListStudents)
	admin.GET("/students/:id", s.GetStudentByID)
	admin.PATCH("/students/:id", s.UpdateStudent)

	admin.POST("/lessons", s.CreateLesson)
	admin.GET("/lessons", s.ListLessons)
	admin.GET("/lessons/:id", s.GetLessonByID)
	admin.PATCH("/lessons/:id", s.UpdateLesson)

	admin.POST("/invoices", s.CreateInvoice)
	admin.GET("/invoices", s.ListInvoices)
	admin.GET("/invoices/:id", s.GetInvoiceByID)
	admin.GET("/invoices/:id/totals", s.GetInvoiceTotals)
	admin.PATCH("/invoices/:id/coverage", s.UpdateInvoiceCoverage)
	admin.PATCH("/invoices/:id/amounts", s.UpdateInvoiceAmounts)
	admin.GET("/invoices/:id/receipt.pdf", s.GetInvoiceReceiptPDF)
	admin.GET("/invoices/:id/payments", s.ListInvoicePayments)

	admin.POST("/payments", s.RecordPayment)
	admin.GET("/payments", s.ListPayments)
	admin.POST("/payments/quote", s.QuoteRateLimit(), s.QuotePayment)

	admin.POST("/feedback", s.CreateFeedback)
	admin.GET("/feedback", s.ListFeedback)
}
