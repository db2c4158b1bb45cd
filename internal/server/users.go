package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func (s *Server) GetUser(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("userId"))
	resp, err := s.userSvc.Get(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetMembershipStatus(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("userId"))
	resp, err := s.userSvc.MembershipStatus(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
