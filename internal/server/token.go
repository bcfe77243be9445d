package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	identitydomain "github.com/perkly/perkly/internal/identity/domain"
)

type issueTokenRequest struct {
	Name       string `json:"name"`
	Role       string `json:"role"`
	CustomerID string `json:"customer_id,omitempty"`
	ExpiresAt  string `json:"expires_at,omitempty"`
}

func (s *Server) IssueToken(c *gin.Context) {
	var req issueTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	expiresAt, err := parseOptionalTime(req.ExpiresAt, false)
	if err != nil {
		AbortWithError(c, newValidationError("expires_at", "invalid_expires_at", "invalid expires_at"))
		return
	}

	resp, err := s.identitySvc.Issue(c.Request.Context(), identitydomain.IssueTokenRequest{
		Name:       strings.TrimSpace(req.Name),
		Role:       strings.TrimSpace(req.Role),
		CustomerID: strings.TrimSpace(req.CustomerID),
		ExpiresAt:  expiresAt,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RevokeToken(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.identitySvc.Revoke(c.Request.Context(), identitydomain.RevokeTokenRequest{ID: id}); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"id": id, "revoked": true}})
}

func isTokenValidationError(err error) bool {
	switch err {
	case identitydomain.ErrInvalidTenant,
		identitydomain.ErrInvalidName,
		identitydomain.ErrInvalidRole,
		identitydomain.ErrInvalidID:
		return true
	default:
		return false
	}
}
