package controller

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"estate_dev_v1_202609/internal/middleware"
	"estate_dev_v1_202609/internal/service"
)

// ==================== DashboardController 工作台控制器 ====================

// DashboardController 开发商工作台控制器
type DashboardController struct {
	dashboardService *service.DashboardService
}

// NewDashboardController 创建工作台控制器
func NewDashboardController(dashboardService *service.DashboardService) *DashboardController {
	return &DashboardController{dashboardService: dashboardService}
}

// GetKPI 工作台指标
// @Summary 工作台核心指标
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.KPIResponse
// @Router /dashboard/kpi [get]
func (c *DashboardController) GetKPI(ctx *gin.Context) {
	resp, err := c.dashboardService.GetKPI(ctx.Request.Context(), middleware.GetAgencyID(ctx))
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, resp)
}

// GetActivityFeed 动态流
// @Summary 工作台动态流
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码"
// @Success 200 {object} dto.ActivityFeedResponse
// @Router /dashboard/activity [get]
func (c *DashboardController) GetActivityFeed(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(ctx.DefaultQuery("page_size", "20"))

	resp, err := c.dashboardService.GetActivityFeed(ctx.Request.Context(), middleware.GetAgencyID(ctx), page, pageSize)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, resp)
}
