package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
)

// Timeout 给请求上下文设置截止时间。事务和行锁等待继承该
// 上下文，超时由错误映射层转成可重试的并发冲突错误。
func Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
