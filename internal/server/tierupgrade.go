package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func (s *Server) EvaluateTierUpgrade(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("userId"))
	results, err := s.tierUpgradeSvc.Evaluate(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": results})
}

func (s *Server) GetDetailedEvaluationResults(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("userId"))
	results, err := s.tierUpgradeSvc.DetailedResults(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": results})
}

func (s *Server) GetApplicableRules(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("userId"))
	rules, err := s.tierUpgradeSvc.ApplicableRules(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": rules})
}

func (s *Server) GetBestApplicableRule(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("userId"))
	rule, err := s.tierUpgradeSvc.BestApplicableRule(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": rule})
}

func (s *Server) GetUpgradeEligibility(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("userId"))
	eligible, err := s.tierUpgradeSvc.IsEligibleForUpgrade(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"eligible": eligible}})
}

func (s *Server) ProcessAutomaticUpgrades(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("userId"))
	upgraded, err := s.tierUpgradeSvc.ProcessAutomaticUpgrades(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"upgraded": upgraded}})
}
