package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	plandomain "github.com/smallbiznis/tierway/internal/plan/domain"
)

func (s *Server) ListPlans(c *gin.Context) {
	req := plandomain.ListPlansRequest{
		DiscountsOnly: c.Query("discounts_only") == "true",
	}

	resp, err := s.planSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPlanByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.planSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListPlansForTier(c *gin.Context) {
	level, err := strconv.Atoi(strings.TrimSpace(c.Param("level")))
	if err != nil || level < 1 {
		AbortWithError(c, newValidationError("level", "invalid_tier_level", "tier level must be a positive integer"))
		return
	}

	resp, err := s.planSvc.ListForTier(c.Request.Context(), level)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
