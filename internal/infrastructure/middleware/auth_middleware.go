package middleware

import (
	"strings"

	"proctorhub/internal/core/ports"
	apperrors "proctorhub/pkg/errors"
	"proctorhub/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ExaminerKey is the gin context key holding the authenticated *domain.Examiner
const ExaminerKey = "examiner"

// AuthMiddleware requires a valid examiner bearer token. When enabled is false
// every request passes. Websocket clients may send the token as ?token= since
// browsers cannot set headers on the upgrade request.
func AuthMiddleware(authService ports.AuthService, enabled bool) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		token, appErr := bearerToken(c)
		if appErr != nil {
			abortWithError(c, appErr)
			return
		}

		examiner, err := authService.ValidateToken(token)
		if err != nil {
			abortWithError(c, apperrors.NewUnauthorizedError(err.Error()))
			return
		}

		c.Set(ExaminerKey, examiner)
		c.Request = c.Request.WithContext(logger.WithExaminer(c.Request.Context(), examiner.Username))
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, *apperrors.AppError) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if token := c.Query("token"); token != "" {
			return token, nil
		}
		return "", apperrors.NewUnauthorizedError("authorization header required")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", apperrors.NewUnauthorizedError("invalid authorization header format")
	}
	return parts[1], nil
}
