package middleware

import (
	"strings"

	"mkwa_fitness_backend/internal/config"
	"mkwa_fitness_backend/internal/model"
	"mkwa_fitness_backend/internal/util"
	"mkwa_fitness_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthMiddleware 校验宿主平台签发的 JWT，载荷写入上下文
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}

		if tokenString == "" {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		cfg := c.MustGet("config").(*config.Config)
		claims, err := util.ParseJWT(tokenString, cfg.JWT.Secret)
		if err != nil {
			logger.Log.Debug("jwt parse failed", zap.Error(err))
			util.Unauthorized(c)
			c.Abort()
			return
		}

		c.Set("member", claims)
		c.Next()
	}
}

// RoleMiddleware 角色门禁，管理员可访问所有受限路由
func RoleMiddleware(roles ...model.MemberRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := util.GetMemberFromContext(c)
		if claims == nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		hasRole := false
		for _, role := range roles {
			if claims.Role == model.RoleAdmin || claims.Role == role {
				hasRole = true
				break
			}
		}

		if !hasRole {
			util.Forbidden(c)
			c.Abort()
			return
		}
		c.Next()
	}
}

// SelfOrAdmin 仅允许本人或管理员访问指定会员的资源
func SelfOrAdmin(c *gin.Context, memberID uint) bool {
	claims := util.GetMemberFromContext(c)
	if claims == nil {
		util.Unauthorized(c)
		return false
	}
	if claims.Role != model.RoleAdmin && claims.MemberID != memberID {
		util.Forbidden(c)
		return false
	}
	return true
}
