package controller

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"estate_dev_v1_202609/internal/api/dto"
	"estate_dev_v1_202609/internal/middleware"
	"estate_dev_v1_202609/internal/service"
)

// ==================== WizardController 创建向导控制器 ====================

// WizardController 房源创建向导控制器
type WizardController struct {
	wizardService *service.WizardService
}

// NewWizardController 创建向导控制器
func NewWizardController(wizardService *service.WizardService) *WizardController {
	return &WizardController{wizardService: wizardService}
}

// GetState 获取向导状态
// @Summary 获取当前向导状态
// @Tags Wizard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.WizardStateResponse
// @Router /wizard [get]
func (c *WizardController) GetState(ctx *gin.Context) {
	state, err := c.wizardService.GetState(ctx.Request.Context(),
		middleware.GetUserID(ctx), middleware.GetAgencyID(ctx))
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, state)
}

// UpdateForm 保存表单快照
// @Summary 保存表单快照（不校验）
// @Tags Wizard
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateFormRequest true "表单快照"
// @Success 200 {object} dto.WizardStateResponse
// @Router /wizard/form [put]
func (c *WizardController) UpdateForm(ctx *gin.Context) {
	var req dto.UpdateFormRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	state, err := c.wizardService.UpdateForm(ctx.Request.Context(),
		middleware.GetUserID(ctx), middleware.GetAgencyID(ctx), &req)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, state)
}

// Next 前进一步
// @Summary 前进一步（校验当前步骤）
// @Tags Wizard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.WizardStateResponse
// @Router /wizard/next [post]
func (c *WizardController) Next(ctx *gin.Context) {
	state, err := c.wizardService.Next(ctx.Request.Context(),
		middleware.GetUserID(ctx), middleware.GetAgencyID(ctx))
	if err != nil {
		fail(ctx, err)
		return
	}
	// 校验失败时 state.Errors 非空，步骤不前进
	ok(ctx, state)
}

// Prev 后退一步
// @Summary 后退一步
// @Tags Wizard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.WizardStateResponse
// @Router /wizard/prev [post]
func (c *WizardController) Prev(ctx *gin.Context) {
	state, err := c.wizardService.Prev(ctx.Request.Context(),
		middleware.GetUserID(ctx), middleware.GetAgencyID(ctx))
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, state)
}

// GoTo 跳转步骤
// @Summary 跳转到指定步骤（仅已解锁）
// @Tags Wizard
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.GoToStepRequest true "目标步骤"
// @Success 200 {object} dto.WizardStateResponse
// @Router /wizard/goto [post]
func (c *WizardController) GoTo(ctx *gin.Context) {
	var req dto.GoToStepRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	state, err := c.wizardService.GoTo(ctx.Request.Context(),
		middleware.GetUserID(ctx), middleware.GetAgencyID(ctx), req.Step)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, state)
}

// Submit 提交审核
// @Summary 提交审核
// @Tags Wizard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.SubmitWizardResponse
// @Failure 400 {object} map[string]interface{}
// @Router /wizard/submit [post]
func (c *WizardController) Submit(ctx *gin.Context) {
	resp, err := c.wizardService.Submit(ctx.Request.Context(),
		middleware.GetUserID(ctx), middleware.GetAgencyID(ctx))
	if err != nil {
		fail(ctx, err)
		return
	}
	okMsg(ctx, "已提交审核", resp)
}

// Discard 放弃向导
// @Summary 放弃向导与草稿
// @Tags Wizard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /wizard [delete]
func (c *WizardController) Discard(ctx *gin.Context) {
	if err := c.wizardService.Discard(ctx.Request.Context(), middleware.GetUserID(ctx)); err != nil {
		fail(ctx, err)
		return
	}
	okMsg(ctx, "已放弃", nil)
}

// ResumeRejected 驳回后继续编辑
// @Summary 把被驳回的房源装回向导
// @Tags Wizard
// @Produce json
// @Security BearerAuth
// @Param id path int true "房源 ID"
// @Success 200 {object} dto.WizardStateResponse
// @Router /wizard/resume/{id} [post]
func (c *WizardController) ResumeRejected(ctx *gin.Context) {
	listingID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		badRequest(ctx, err)
		return
	}

	state, err := c.wizardService.ResumeRejected(ctx.Request.Context(),
		middleware.GetUserID(ctx), middleware.GetAgencyID(ctx), listingID)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, state)
}
