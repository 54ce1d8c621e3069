package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"homemoney/internal/cache"
	"homemoney/internal/core"
	"homemoney/internal/export"
	"homemoney/internal/log"
	"homemoney/internal/services"
)

// Cached response keys and lifetimes.
const (
	cacheKeyExpenses   = "expenses"
	cacheKeyStatistics = "statistics"
	expensesTTL        = 60 * time.Second
	statisticsTTL      = 5 * time.Minute
)

func (s *Server) handleIndex(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"message":   "Home Money API is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleReady(c *gin.Context) {
	if err := s.svc.Ping(c.Request.Context()); err != nil {
		s.logger.WarnContext(c.Request.Context(), "Readiness check failed", log.FieldError, err.Error())
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (s *Server) handleListExpenses(c *gin.Context) {
	ctx := c.Request.Context()
	var records []core.ExpenseRecord
	if s.cache != nil && s.cache.GetJSON(ctx, cacheKeyExpenses, &records) && records != nil {
		c.JSON(http.StatusOK, records)
		return
	}

	records, err := s.svc.ListExpenses(ctx)
	if err != nil {
		s.internalError(c, "Failed to list expenses", err)
		return
	}
	if s.cache != nil {
		s.cache.Set(ctx, cacheKeyExpenses, records, cache.TTL(expensesTTL))
	}
	c.JSON(http.StatusOK, records)
}

func (s *Server) handleCreateExpense(c *gin.Context) {
	ctx := c.Request.Context()
	var in services.ExpenseInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	id, err := s.svc.CreateExpense(ctx, in)
	if err != nil {
		if services.IsValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		s.internalError(c, "Failed to create expense", err)
		return
	}

	if s.cache != nil {
		s.cache.Remove(ctx, cacheKeyExpenses)
		s.cache.Remove(ctx, cacheKeyStatistics)
	}
	c.JSON(http.StatusCreated, gin.H{"message": "expense saved", "id": id})
}

func (s *Server) handleStatistics(c *gin.Context) {
	ctx := c.Request.Context()
	var stats []core.Statistic
	if s.cache != nil && s.cache.GetJSON(ctx, cacheKeyStatistics, &stats) && stats != nil {
		c.JSON(http.StatusOK, stats)
		return
	}

	stats, err := s.svc.Statistics(ctx)
	if err != nil {
		s.internalError(c, "Failed to compute statistics", err)
		return
	}
	if stats == nil {
		stats = []core.Statistic{}
	}
	if s.cache != nil {
		s.cache.Set(ctx, cacheKeyStatistics, stats, cache.TTL(statisticsTTL))
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) handleCSVPath(c *gin.Context) {
	path, err := s.svc.RewriteMirror(c.Request.Context())
	if err != nil {
		s.internalError(c, "Failed to write CSV export", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"path": path})
}

func (s *Server) handleCSVRaw(c *gin.Context) {
	data, err := s.svc.ReadMirror()
	if err != nil {
		if os.IsNotExist(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "CSV file not found"})
			return
		}
		s.internalError(c, "Failed to read CSV export", err)
		return
	}
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

func (s *Server) handleExportCSV(c *gin.Context) {
	records, err := s.svc.ListExpenses(c.Request.Context())
	if err != nil {
		s.internalError(c, "Failed to export expenses", err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, records, time.Now().Format(core.DateLayout)); err != nil {
		s.internalError(c, "Failed to export expenses", err)
		return
	}
	c.Header("Content-Disposition", attachment("csv"))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (s *Server) handleExportExcel(c *gin.Context) {
	records, err := s.svc.ListExpenses(c.Request.Context())
	if err != nil {
		s.internalError(c, "Failed to export expenses", err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteExcel(&buf, records); err != nil {
		s.internalError(c, "Failed to export expenses", err)
		return
	}
	c.Header("Content-Disposition", attachment("xlsx"))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func attachment(ext string) string {
	return fmt.Sprintf(`attachment; filename="expenses_%s.%s"`, time.Now().Format("20060102"), ext)
}

// internalError answers 500, or 503 TIMEOUT when the request deadline ran
// out underneath the handler.
func (s *Server) internalError(c *gin.Context, msg string, err error) {
	ctx := c.Request.Context()
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		log.FromContext(ctx).WarnContext(ctx, msg,
			log.FieldPath, c.Request.URL.Path,
			log.FieldErrorType, log.ErrorTypeTimeout,
			log.FieldError, err.Error())
		c.JSON(http.StatusServiceUnavailable, errorBody("TIMEOUT", "request timed out"))
		return
	}
	fields := log.NewFields().
		WithError(err).
		WithErrorType(log.ErrorTypeInternal).
		WithHTTPRequest(c.Request.Method, c.Request.URL.Path, c.Request.URL.RawQuery, "")
	log.FromContext(c.Request.Context()).ErrorContext(c.Request.Context(), msg, fields.ToSlice()...)
	c.JSON(http.StatusInternalServerError, errorBody("INTERNAL_ERROR", msg))
}
