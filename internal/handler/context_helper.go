package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Smritiii29/regulatory-compliance-monitoring-system/internal/access"
	"github.com/Smritiii29/regulatory-compliance-monitoring-system/internal/middleware"
	"github.com/Smritiii29/regulatory-compliance-monitoring-system/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

func actorFromContext(c *gin.Context) (access.Actor, bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		return access.Actor{}, false
	}
	return access.ActorFromClaims(claims), true
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return page, pageSize
}
