package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	ledgerdomain "github.com/perkly/perkly/internal/ledger/domain"
	rewarddomain "github.com/perkly/perkly/internal/reward/domain"
	"github.com/perkly/perkly/pkg/db/pagination"
)

type createRewardRequest struct {
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	PointsRequired int64  `json:"points_required"`
}

func (s *Server) CreateReward(c *gin.Context) {
	var req createRewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.rewardSvc.Create(c.Request.Context(), rewarddomain.CreateRewardRequest{
		Name:           strings.TrimSpace(req.Name),
		Description:    strings.TrimSpace(req.Description),
		PointsRequired: req.PointsRequired,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListRewards(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Status string `form:"status"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.rewardSvc.List(c.Request.Context(), rewarddomain.ListRewardRequest{
		Pagination: query.Pagination,
		Status:     strings.TrimSpace(query.Status),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetRewardByID(c *gin.Context) {
	resp, err := s.rewardSvc.GetByID(c.Request.Context(), rewarddomain.GetRewardRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteReward(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.rewardSvc.Delete(c.Request.Context(), rewarddomain.DeleteRewardRequest{ID: id}); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"id": id, "deleted": true}})
}

type redeemRewardRequest struct {
	CustomerID string `json:"customer_id"`
	RewardID   string `json:"reward_id"`
}

func (s *Server) RedeemReward(c *gin.Context) {
	var req redeemRewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.ledgerSvc.RedeemReward(c.Request.Context(), ledgerdomain.RedeemRewardRequest{
		CustomerID: strings.TrimSpace(req.CustomerID),
		RewardID:   strings.TrimSpace(req.RewardID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isRewardValidationError(err error) bool {
	switch err {
	case rewarddomain.ErrInvalidTenant,
		rewarddomain.ErrInvalidName,
		rewarddomain.ErrInvalidPoints,
		rewarddomain.ErrInvalidStatus,
		rewarddomain.ErrInvalidID:
		return true
	default:
		return false
	}
}
