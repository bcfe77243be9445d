package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	ledgerdomain "github.com/perkly/perkly/internal/ledger/domain"
	"github.com/perkly/perkly/internal/tenantctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	rateLimitReasonTenantRate          = "tenant-rate"
	rateLimitReasonCustomerConcurrency = "customer-concurrency"
)

type recordVisitRequest struct {
	CustomerID string           `json:"customer_id"`
	Amount     *decimal.Decimal `json:"amount"`
	Points     *int64           `json:"points,omitempty"`
	Notes      string           `json:"notes,omitempty"`
	VisitDate  string           `json:"visit_date,omitempty"`
}

func (s *Server) RecordVisit(c *gin.Context) {
	var req recordVisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	// A pointer distinguishes a missing amount from a zero one.
	if req.Amount == nil {
		AbortWithError(c, newValidationError("amount", "amount_required", "amount is required"))
		return
	}

	var visitDate *time.Time
	if strings.TrimSpace(req.VisitDate) != "" {
		parsed, err := parseOptionalTime(req.VisitDate, false)
		if err != nil {
			AbortWithError(c, newValidationError("visit_date", "invalid_visit_date", "invalid visit_date"))
			return
		}
		visitDate = parsed
	}

	resp, err := s.ledgerSvc.RecordVisit(c.Request.Context(), ledgerdomain.RecordVisitRequest{
		CustomerID: strings.TrimSpace(req.CustomerID),
		Amount:     *req.Amount,
		Points:     req.Points,
		Notes:      strings.TrimSpace(req.Notes),
		VisitDate:  visitDate,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// VisitIngestRateLimit throttles visit logging ahead of the ledger. The
// limiter is best effort; when it is disabled every request passes through.
func (s *Server) VisitIngestRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.visitLimiter.Enabled() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		tenantID, ok := tenantctx.TenantIDFromContext(ctx)
		if !ok || tenantID == 0 {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		allowed, err := s.visitLimiter.Allow(ctx, tenantID)
		if err != nil {
			s.log.Warn("visit ingest rate limit check failed", zap.Error(err))
			AbortWithError(c, ErrServiceUnavailable)
			return
		}
		if !allowed {
			s.denyVisitIngest(c, rateLimitReasonTenantRate)
			return
		}

		customerID, err := readVisitIngestKey(c)
		if err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}

		if customerID != "" {
			release, acquired, err := s.visitLimiter.AcquireCustomerLock(ctx, tenantID, customerID)
			if err != nil {
				s.log.Warn("visit ingest concurrency lock failed", zap.Error(err))
				AbortWithError(c, ErrServiceUnavailable)
				return
			}
			if !acquired {
				s.denyVisitIngest(c, rateLimitReasonCustomerConcurrency)
				return
			}
			defer release()
		}

		c.Next()
	}
}

func (s *Server) denyVisitIngest(c *gin.Context, reason string) {
	s.log.Warn("visit ingest rate limit exceeded",
		zap.String("reason", reason),
		zap.String("path", c.Request.URL.Path),
	)
	c.Header("Retry-After", "1")
	c.Header("X-Rate-Limited-Reason", reason)
	AbortWithError(c, ErrRateLimited)
}

func readVisitIngestKey(c *gin.Context) (string, error) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return "", err
	}
	c.Request.Body = io.NopCloser(bytes.NewBuffer(body))
	if len(body) == 0 {
		return "", nil
	}

	var payload struct {
		CustomerID string `json:"customer_id"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", nil
	}
	return strings.TrimSpace(payload.CustomerID), nil
}

func isLedgerValidationError(err error) bool {
	switch err {
	case ledgerdomain.ErrInvalidTenant,
		ledgerdomain.ErrInvalidID,
		ledgerdomain.ErrInvalidAmount,
		ledgerdomain.ErrInvalidPoints,
		ledgerdomain.ErrInvalidType:
		return true
	default:
		return false
	}
}
