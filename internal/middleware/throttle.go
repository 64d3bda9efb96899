package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ==================== 冷却限流中间件 ====================

// Throttle 按用户 + 场景维度进行冷却限流
//
// 使用示例:
//
//	router.GET("/api/maps/geocode",
//	    middleware.Throttle(middleware.ScopeMapsGeocode, 0),
//	    controller.Geocode,
//	)
//
// 参数:
//   - scope: 限流场景
//   - interval: 冷却间隔，0 表示使用默认值
func Throttle(scope ThrottleScope, interval time.Duration) gin.HandlerFunc {
	if interval == 0 {
		interval = GetInterval(scope)
	}

	return func(c *gin.Context) {
		userID := GetUserID(c)
		if userID == 0 {
			// 未认证请求按客户端 IP 限流
			key := fmt.Sprintf("ip:%s:%s", c.ClientIP(), scope)
			if denyThrottled(c, key, interval, scope) {
				return
			}
			c.Next()
			return
		}

		key := UserThrottleKey(userID, scope)
		if denyThrottled(c, key, interval, scope) {
			return
		}

		c.Next()
	}
}

// denyThrottled 限流检查，命中冷却时写出 429 并中止
func denyThrottled(c *gin.Context, key string, interval time.Duration, scope ThrottleScope) bool {
	result := GetLimiter().Check(key, interval)
	if result.Allowed {
		return false
	}

	retryAfter := int(result.RetryAfter.Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}
	c.JSON(http.StatusTooManyRequests, gin.H{
		"code":    429,
		"message": formatRetryMessage(result.RetryAfter),
		"data": gin.H{
			"retry_after": retryAfter,
			"scope":       scope,
		},
	})
	c.Abort()
	return true
}

// ==================== 辅助函数 ====================

// formatRetryMessage 格式化重试提示信息
func formatRetryMessage(d time.Duration) string {
	seconds := int(d.Seconds())
	if seconds < 1 {
		seconds = 1
	}

	if seconds < 60 {
		return fmt.Sprintf("请求过于频繁，请 %d 秒后重试", seconds)
	}

	minutes := seconds / 60
	remainingSeconds := seconds % 60
	if remainingSeconds == 0 {
		return fmt.Sprintf("请求过于频繁，请 %d 分钟后重试", minutes)
	}
	return fmt.Sprintf("请求过于频繁，请 %d 分 %d 秒后重试", minutes, remainingSeconds)
}
