package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/maastricht-university/ecg-pipeline/orchestrator"
	"github.com/maastricht-university/ecg-pipeline/record"
)

// Diagnose runs the full pipeline on a record posted as JSON.
func (s *Server) Diagnose(c *gin.Context) {
	s.run(c, s.pipeline.Run)
}

// Detect returns the detector verdicts only.
func (s *Server) Detect(c *gin.Context) {
	s.run(c, s.pipeline.Detect)
}

func (s *Server) run(c *gin.Context, fn func(context.Context, record.Record) (*orchestrator.Report, error)) {
	rec, err := record.Decode(c.Request.Body)
	if err != nil {
		s.fail(c, http.StatusBadRequest, "invalid record", err)
		return
	}
	rep, err := fn(c.Request.Context(), rec)
	if err != nil {
		s.fail(c, statusOf(err), "diagnosis failed", err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (s *Server) GetDiagnosis(c *gin.Context) {
	if s.store == nil {
		s.fail(c, http.StatusNotFound, "no diagnosis store configured", nil)
		return
	}
	row, err := s.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, statusOf(err), "diagnosis lookup failed", err)
		return
	}
	c.JSON(http.StatusOK, row)
}

func (s *Server) RecordDiagnoses(c *gin.Context) {
	if s.store == nil {
		s.fail(c, http.StatusNotFound, "no diagnosis store configured", nil)
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 0 {
		s.fail(c, http.StatusBadRequest, "invalid limit", err)
		return
	}
	rows, err := s.store.ByRecord(c.Request.Context(), c.Param("record"), limit)
	if err != nil {
		s.fail(c, statusOf(err), "diagnosis lookup failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"record": c.Param("record"), "diagnoses": rows})
}

func (s *Server) Health(c *gin.Context) {
	h, err := s.pipeline.Health(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "classifier": err.Error()})
		return
	}
	out := gin.H{"status": "ok"}
	if h != nil {
		out["classifier"] = h
	}
	c.JSON(http.StatusOK, out)
}
