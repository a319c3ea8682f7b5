// Package api serves the pipeline over HTTP.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/maastricht-university/ecg-pipeline/ecg"
	"github.com/maastricht-university/ecg-pipeline/orchestrator"
	"github.com/maastricht-university/ecg-pipeline/store"
)

type Server struct {
	pipeline *orchestrator.Pipeline
	store    store.Store
	log      logrus.FieldLogger
}

func NewServer(p *orchestrator.Pipeline, s store.Store, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{pipeline: p, store: s, log: log}
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Router builds the gin engine. mode is a gin mode ("release", "debug",
// "test").
func (s *Server) Router(mode string) *gin.Engine {
	if mode != "" {
		gin.SetMode(mode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestLogger())

	v1 := r.Group("/api/v1/ecg")
	{
		v1.POST("/diagnose", s.Diagnose)
		v1.POST("/detect", s.Detect)
		v1.GET("/diagnoses/:id", s.GetDiagnosis)
		v1.GET("/records/:record/diagnoses", s.RecordDiagnoses)
		v1.GET("/health", s.Health)
	}
	r.GET("/metrics", gin.WrapH(s.pipeline.Metrics().Handler()))
	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"elapsed": time.Since(start),
		}).Debug("http request")
	}
}

var inputErrors = []error{
	ecg.ErrCalibration,
	ecg.ErrInsufficientPeaks,
	ecg.ErrInvalidPeakSet,
	ecg.ErrUnsupportedMethod,
	ecg.ErrNoPeaksDetected,
	ecg.ErrUnknownTranche,
	ecg.ErrMalformedWaveform,
}

// statusOf maps pipeline errors onto HTTP status codes.
func statusOf(err error) int {
	for _, target := range inputErrors {
		if errors.Is(err, target) {
			return http.StatusUnprocessableEntity
		}
	}
	switch {
	case errors.Is(err, orchestrator.ErrClassifier):
		return http.StatusBadGateway
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(c *gin.Context, status int, msg string, err error) {
	body := ErrorResponse{Error: msg}
	if err != nil {
		body.Details = err.Error()
	}
	if status >= http.StatusInternalServerError {
		s.log.WithError(err).WithField("path", c.FullPath()).Error(msg)
	}
	c.AbortWithStatusJSON(status, body)
}
