package middleware

import (
	"school_quiz_backend/internal/config"
	"school_quiz_backend/internal/model"
	"school_quiz_backend/internal/util"
	"school_quiz_backend/pkg/logger"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// bearerToken 优先取 Authorization 头，其次取 ?token=，方便直接下载证书
func bearerToken(c *gin.Context) string {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return c.Query("token")
}

func authenticate(c *gin.Context, cfg *config.Config) (*util.Claims, bool) {
	tokenString := bearerToken(c)
	if tokenString == "" {
		return nil, false
	}
	claims, err := util.ParseJWT(tokenString, cfg.JWT.Secret)
	if err != nil {
		logger.Log.Debug("JWT parse failed", zap.String("path", c.FullPath()), zap.Error(err))
		return nil, false
	}
	return claims, true
}

// AuthMiddleware 教师/管理员账号登录态
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := authenticate(c, cfg)
		if !ok || claims.Role == model.Respondent || claims.UserID == 0 {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		c.Set("user", claims)
		c.Next()
	}
}

// AttemptAuthMiddleware 答题凭证或教师账号均可通过，具体权限由业务层判断
func AttemptAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := authenticate(c, cfg)
		if !ok {
			util.Unauthorized(c)
			c.Abort()
			return
		}
		if claims.Role == model.Respondent && claims.AttemptID == 0 {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		c.Set("user", claims)
		c.Next()
	}
}

func RoleMiddleware(roles ...model.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := util.GetUserFromContext(c)
		if user == nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		// 管理员拥有所有教师权限
		if user.Role != model.Admin && !slices.Contains(roles, user.Role) {
			util.Forbidden(c)
			c.Abort()
			return
		}
		c.Next()
	}
}
