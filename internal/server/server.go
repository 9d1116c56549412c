package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/agenthands/claimcheck/internal/core"
	"github.com/agenthands/claimcheck/internal/core/model"
	"github.com/agenthands/claimcheck/internal/core/verdict"
	"github.com/agenthands/claimcheck/internal/logging"
)

const correlationHeader = "X-Correlation-ID"

// Verifier is the part of core.Pipeline the HTTP layer needs.
type Verifier interface {
	Verify(ctx context.Context, req core.Request) (*core.Response, error)
	Triples(ctx context.Context, sentence string) (*core.TriplesResponse, error)
}

type Server struct {
	Verifier    Verifier
	ServiceName string
	logger      *zap.Logger
}

func NewServer(v Verifier, serviceName string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{Verifier: v, ServiceName: serviceName, logger: logger}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(s.ServiceName))
	r.Use(s.correlate())

	r.POST("/api/verify", s.Verify)
	r.POST("/triples", s.Triples)
	r.GET("/health", s.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

// correlate tags the request with a correlation id, echoes it back and logs the request.
func (s *Server) correlate() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(correlationHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("correlation_id", id)
		c.Header(correlationHeader, id)
		c.Request = c.Request.WithContext(logging.WithCorrelationID(c.Request.Context(), id))

		start := time.Now()
		c.Next()
		s.logger.Info("request",
			zap.String("correlation_id", id),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

type VerifyRequest struct {
	Claim             string `json:"claim" binding:"required"`
	Mode              string `json:"mode"`
	UseCrossEncoder   *bool  `json:"use_cross_encoder"`
	ClassifierDbpedia string `json:"classifierDbpedia"`
	ClassifierBackup  string `json:"classifierBackup"`
}

// toCore validates the body beyond binding and fills defaults.
func (r VerifyRequest) toCore() (core.Request, error) {
	if strings.TrimSpace(r.Claim) == "" {
		return core.Request{}, errors.New("claim must not be empty")
	}
	mode, err := core.ParseMode(r.Mode)
	if err != nil {
		return core.Request{}, err
	}
	if r.ClassifierDbpedia != "" && !verdict.ValidStrategy(r.ClassifierDbpedia) {
		return core.Request{}, fmt.Errorf("classifierDbpedia must be LLM or DEBERTA; got %q", r.ClassifierDbpedia)
	}
	if r.ClassifierBackup != "" && !verdict.ValidStrategy(r.ClassifierBackup) {
		return core.Request{}, fmt.Errorf("classifierBackup must be LLM or DEBERTA; got %q", r.ClassifierBackup)
	}
	useCross := true
	if r.UseCrossEncoder != nil {
		useCross = *r.UseCrossEncoder
	}
	return core.Request{
		Claim:            r.Claim,
		Mode:             mode,
		UseCrossEncoder:  useCross,
		ClassifierKG:     r.ClassifierDbpedia,
		ClassifierBackup: r.ClassifierBackup,
	}, nil
}

func (s *Server) Verify(c *gin.Context) {
	var body VerifyRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindError(err)})
		return
	}
	req, err := body.toCore()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := s.Verifier.Verify(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

type TriplesRequest struct {
	Sentence string `json:"sentence" binding:"required"`
}

func (s *Server) Triples(c *gin.Context) {
	var body TriplesRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindError(err)})
		return
	}
	if strings.TrimSpace(body.Sentence) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sentence must not be empty"})
		return
	}

	resp, err := s.Verifier.Triples(c.Request.Context(), body.Sentence)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

const (
	msgNoTriple       = "no subject-predicate-object structure found in the claim"
	msgSourceDown     = "evidence source unavailable"
	msgInternalFailed = "internal error"
)

// fail maps pipeline errors onto status codes: 422 for claims without a triple,
// 502 for upstream evidence sources, 500 for the rest. The body carries a fixed
// message; the error itself is only logged.
func (s *Server) fail(c *gin.Context, err error) {
	id := c.GetString("correlation_id")

	status, msg := http.StatusInternalServerError, msgInternalFailed
	var ee *model.ExtractionError
	var re *model.RetrievalError
	switch {
	case errors.As(err, &ee):
		status, msg = http.StatusUnprocessableEntity, msgNoTriple
	case errors.As(err, &re):
		status, msg = http.StatusBadGateway, msgSourceDown
	}

	log := s.logger.Error
	if status < http.StatusInternalServerError {
		log = s.logger.Info
	}
	log("request failed",
		zap.String("correlation_id", id),
		zap.Int("status", status),
		zap.Error(err))
	c.JSON(status, gin.H{"error": msg, "correlation_id": id})
}

// bindError turns binding failures into a field-level message.
func bindError(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		fe := ve[0]
		field := strings.ToLower(fe.Field())
		if fe.Tag() == "required" {
			return field + " is required"
		}
		return fmt.Sprintf("%s failed validation %q", field, fe.Tag())
	}
	return "invalid request body: " + err.Error()
}
