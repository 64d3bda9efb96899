package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"estate_dev_v1_202609/internal/service"
	"estate_dev_v1_202609/internal/wizard"
)

// ==================== 统一响应辅助 ====================

// ok 成功响应
func ok(ctx *gin.Context, data interface{}) {
	ctx.JSON(http.StatusOK, gin.H{
		"code": 0,
		"data": data,
	})
}

// okMsg 带提示的成功响应
func okMsg(ctx *gin.Context, message string, data interface{}) {
	ctx.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": message,
		"data":    data,
	})
}

// okPage 分页响应
func okPage(ctx *gin.Context, list interface{}, total int64) {
	ctx.JSON(http.StatusOK, gin.H{
		"code": 0,
		"data": gin.H{
			"list":  list,
			"total": total,
		},
	})
}

// badRequest 参数错误响应
func badRequest(ctx *gin.Context, err error) {
	ctx.JSON(http.StatusBadRequest, gin.H{
		"code":    400,
		"message": "参数错误: " + err.Error(),
	})
}

// fail 业务错误响应，按服务层哨兵错误映射状态码
func fail(ctx *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrInvalidState):
		status = http.StatusConflict
	case errors.Is(err, service.ErrDuplicate):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrServiceUnavailable):
		status = http.StatusServiceUnavailable
	case errors.Is(err, wizard.ErrNotComplete),
		errors.Is(err, wizard.ErrStepInvalid),
		errors.Is(err, wizard.ErrStepUnreachable):
		status = http.StatusBadRequest
	}

	ctx.JSON(status, gin.H{
		"code":    status,
		"message": err.Error(),
	})
}
