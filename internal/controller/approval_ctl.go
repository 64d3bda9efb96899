package controller

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"estate_dev_v1_202609/internal/api/dto"
	"estate_dev_v1_202609/internal/middleware"
	"estate_dev_v1_202609/internal/service"
)

// ==================== ApprovalController 审核控制器 ====================

// ApprovalController 审核队列控制器（审核员侧）
type ApprovalController struct {
	approvalService *service.ApprovalService
	listingService  *service.ListingService
}

// NewApprovalController 创建审核控制器
func NewApprovalController(approvalService *service.ApprovalService, listingService *service.ListingService) *ApprovalController {
	return &ApprovalController{
		approvalService: approvalService,
		listingService:  listingService,
	}
}

// ListQueue 审核队列
// @Summary 审核队列列表
// @Tags Approval
// @Produce json
// @Security BearerAuth
// @Param status query string false "条目状态过滤"
// @Success 200 {array} dto.QueueEntryVO
// @Router /approvals [get]
func (c *ApprovalController) ListQueue(ctx *gin.Context) {
	var req dto.ListQueueRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	list, total, err := c.approvalService.ListQueue(ctx.Request.Context(), &req)
	if err != nil {
		fail(ctx, err)
		return
	}
	okPage(ctx, list, total)
}

// GetEntry 队列条目详情
// @Summary 队列条目详情
// @Tags Approval
// @Produce json
// @Security BearerAuth
// @Param id path int true "条目 ID"
// @Success 200 {object} dto.QueueEntryVO
// @Router /approvals/{id} [get]
func (c *ApprovalController) GetEntry(ctx *gin.Context) {
	entryID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		badRequest(ctx, err)
		return
	}

	vo, err := c.approvalService.GetQueueEntry(ctx.Request.Context(), entryID)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, vo)
}

// GetListing 审核对象详情（审核员视角，不限租户）
// @Summary 审核对象房源详情
// @Tags Approval
// @Produce json
// @Security BearerAuth
// @Param id path int true "房源 ID"
// @Success 200 {object} dto.ListingDetailVO
// @Router /approvals/listings/{id} [get]
func (c *ApprovalController) GetListing(ctx *gin.Context) {
	listingID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		badRequest(ctx, err)
		return
	}

	// agencyID = 0 跳过归属校验
	detail, err := c.listingService.GetDetail(ctx.Request.Context(), 0, listingID)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, detail)
}

// Review 审核裁决
// @Summary 审核裁决（通过/驳回）
// @Tags Approval
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "条目 ID"
// @Param request body dto.ReviewRequest true "裁决"
// @Success 200 {object} dto.QueueEntryVO
// @Failure 409 {object} map[string]interface{}
// @Router /approvals/{id}/review [post]
func (c *ApprovalController) Review(ctx *gin.Context) {
	entryID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		badRequest(ctx, err)
		return
	}

	var req dto.ReviewRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	vo, err := c.approvalService.Review(ctx.Request.Context(), middleware.GetUserID(ctx), entryID, &req)
	if err != nil {
		fail(ctx, err)
		return
	}
	okMsg(ctx, "已裁决", vo)
}
