package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"estate_dev_v1_202609/internal/api/dto"
	"estate_dev_v1_202609/internal/middleware"
	"estate_dev_v1_202609/internal/service"
)

// ==================== BillingController 账务控制器 ====================

// BillingController 订阅结账与 webhook 控制器
type BillingController struct {
	billingService *service.BillingService
}

// NewBillingController 创建账务控制器
func NewBillingController(billingService *service.BillingService) *BillingController {
	return &BillingController{billingService: billingService}
}

// ==================== 结账 ====================

// CreateCheckout 发起订阅结账
// @Summary 发起订阅结账
// @Tags Billing
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CheckoutRequest true "结账参数"
// @Success 200 {object} dto.CheckoutResponse
// @Failure 503 {object} map[string]interface{}
// @Router /billing/checkout [post]
func (c *BillingController) CreateCheckout(ctx *gin.Context) {
	var req dto.CheckoutRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	resp, err := c.billingService.CreateCheckout(ctx.Request.Context(), middleware.GetAgencyID(ctx), &req)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, resp)
}

// ==================== Webhook ====================

// Webhook Stripe webhook 入口
// 验签失败回 400 让 Stripe 重试；验签通过一律 200 ACK
// @Summary Stripe webhook
// @Tags Billing
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /billing/webhook [post]
func (c *BillingController) Webhook(ctx *gin.Context) {
	payload, err := ctx.GetRawData()
	if err != nil {
		badRequest(ctx, err)
		return
	}

	sigHeader := ctx.GetHeader("Stripe-Signature")
	if err := c.billingService.HandleWebhook(ctx.Request.Context(), payload, sigHeader); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": err.Error(),
		})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"received": true})
}

// ==================== 查询 ====================

// GetMySubscription 当前租户订阅
// @Summary 当前租户的活动订阅
// @Tags Billing
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.SubscriptionVO
// @Router /billing/subscription [get]
func (c *BillingController) GetMySubscription(ctx *gin.Context) {
	vo, err := c.billingService.GetMySubscription(ctx.Request.Context(), middleware.GetAgencyID(ctx))
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, vo)
}

// ListMyInvoices 当前租户账单
// @Summary 当前租户的账单列表
// @Tags Billing
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码"
// @Success 200 {array} dto.InvoiceVO
// @Router /billing/invoices [get]
func (c *BillingController) ListMyInvoices(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(ctx.DefaultQuery("page_size", "20"))

	list, total, err := c.billingService.ListMyInvoices(ctx.Request.Context(), middleware.GetAgencyID(ctx), page, pageSize)
	if err != nil {
		fail(ctx, err)
		return
	}
	okPage(ctx, list, total)
}

// Overview 管理端账务总览
// @Summary 账务总览（管理员）
// @Tags Billing
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.BillingOverviewVO
// @Router /admin/billing/overview [get]
func (c *BillingController) Overview(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(ctx.DefaultQuery("page_size", "50"))

	overview, err := c.billingService.Overview(ctx.Request.Context(), page, pageSize)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, overview)
}
