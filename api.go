package labops

import (
	"fmt"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/blutspende/labops/config"
	"github.com/blutspende/labops/middleware"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	timeout "github.com/vearne/gin-timeout"
)

type GinApi interface {
	Run() error
}

type api struct {
	config             *config.Configuration
	engine             *gin.Engine
	metrics            *Metrics
	orderService       OrderService
	transferService    TransferService
	flowcellService    FlowcellService
	observationService ObservationService
	invoiceService     InvoiceService
	analysisService    AnalysisService
}

func (api *api) Run() error {
	return api.engine.Run(fmt.Sprintf(":%d", api.config.APIPort))
}

// NewAPI wires the HTTP routes. flowcellService may be nil when no stats database is configured.
func NewAPI(config *config.Configuration, authManager AuthManager, metrics *Metrics, orderService OrderService,
	transferService TransferService, flowcellService FlowcellService, observationService ObservationService,
	invoiceService InvoiceService, analysisService AnalysisService) GinApi {
	return newAPI(gin.New(), config, authManager, metrics, orderService, transferService, flowcellService,
		observationService, invoiceService, analysisService)
}

func newAPI(engine *gin.Engine, config *config.Configuration, authManager AuthManager, metrics *Metrics,
	orderService OrderService, transferService TransferService, flowcellService FlowcellService,
	observationService ObservationService, invoiceService InvoiceService, analysisService AnalysisService) *api {

	if config.LogLevel <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine.Use(gin.Recovery())
	engine.Use(timeout.Timeout(
		timeout.WithTimeout(time.Duration(config.APIRequestTimeoutSeconds)*time.Second),
		timeout.WithErrorHttpCode(http.StatusRequestTimeout),
	))

	api := &api{
		config:             config,
		engine:             engine,
		metrics:            metrics,
		orderService:       orderService,
		transferService:    transferService,
		flowcellService:    flowcellService,
		observationService: observationService,
		invoiceService:     invoiceService,
		analysisService:    analysisService,
	}

	engine.Use(middleware.CreateCorsMiddleware(config))

	root := engine.Group("")
	root.GET("/health", api.GetHealth)
	root.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1Group := root.Group("v1")

	if config.Authorization {
		v1Group.Use(middleware.CheckAuth(authManager))
	}

	orders := v1Group.Group("", middleware.RequireAnyRole(config.Authorization, middleware.LabRoles...))
	{
		orders.POST("/orderforms", api.ParseOrderForm)
		orders.POST("/orders/:type", api.SubmitOrder)
	}

	automation := v1Group.Group("", middleware.RequireAnyRole(config.Authorization, middleware.AutomationRoles...))
	{
		automation.POST("/transfers/:kind/:stage", api.TransferStage)
		automation.POST("/flowcells/:name/transfer", api.TransferFlowcell)
		automation.POST("/observations/:analysisId", api.UploadObservations)
		automation.POST("/analyses", api.StoreAnalysis)
	}

	invoices := v1Group.Group("/invoices", middleware.RequireAnyRole(config.Authorization, middleware.AccountingRoles...))
	{
		invoices.GET("/:invoiceId", api.PrepareInvoice)
		invoices.GET("/:invoiceId/total", api.GetInvoiceTotal)
	}

	// Development-option enables debugger, this can have side-effects
	if config.Development {
		debug := root.Group("/debug/pprof")
		{
			debug.GET("/", gin.WrapF(pprof.Index))
			debug.GET("/cmdline", gin.WrapF(pprof.Cmdline))
			debug.GET("/profile", gin.WrapF(pprof.Profile))
			debug.GET("/symbol", gin.WrapF(pprof.Symbol))
			debug.GET("/trace", gin.WrapF(pprof.Trace))
			debug.GET("/heap", gin.WrapH(pprof.Handler("heap")))
			debug.GET("/goroutine", gin.WrapH(pprof.Handler("goroutine")))
		}
	}

	return api
}

// abortWithError translates service errors into client errors.
func (api *api) abortWithError(c *gin.Context, err error) {
	var validationError *OrderValidationError
	if errors.As(err, &validationError) {
		response := middleware.ErrOrderValidationFailed
		for _, fieldError := range validationError.Errors {
			response = response.WithDetail(middleware.ClientError{MessageKey: fieldError.Rule, Message: fieldError.Message}.
				WithParam("field", fieldError.Field))
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, response)
		return
	}

	switch {
	case errors.Is(err, ErrFormat), errors.Is(err, ErrUnsupportedOrderType), errors.Is(err, ErrInvalidStage),
		errors.Is(err, ErrInvalidIncludeOption), errors.Is(err, ErrInvalidCostCenter):
		c.AbortWithStatusJSON(http.StatusBadRequest, middleware.ErrInvalidOrMissingRequestParameter.WithMessage(err.Error()))
	case errors.Is(err, ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, middleware.ErrNotFound.WithMessage(err.Error()))
	case errors.Is(err, ErrDuplicateRecord), errors.Is(err, ErrUploadInProgress), errors.Is(err, ErrAnalysisNotFinished):
		c.AbortWithStatusJSON(http.StatusConflict, middleware.ErrConflict.WithMessage(err.Error()))
	case errors.Is(err, ErrStatsNotConfigured):
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, middleware.ErrUnavailable.WithMessage(err.Error()))
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, middleware.ErrInternal)
	}
}
