package controller

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"estate_dev_v1_202609/internal/api/dto"
	"estate_dev_v1_202609/internal/middleware"
	"estate_dev_v1_202609/internal/service"
)

// ==================== BrandController 品牌模拟控制器 ====================

// BrandController 平台品牌档案与模拟控制器（超管专用）
type BrandController struct {
	brandService *service.BrandService
}

// NewBrandController 创建品牌控制器
func NewBrandController(brandService *service.BrandService) *BrandController {
	return &BrandController{brandService: brandService}
}

// List 品牌列表
// @Summary 品牌档案列表
// @Tags Brand
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.BrandVO
// @Router /admin/brands [get]
func (c *BrandController) List(ctx *gin.Context) {
	list, err := c.brandService.List(ctx.Request.Context())
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, list)
}

// Create 创建品牌档案
// @Summary 创建品牌档案（同时建影子租户）
// @Tags Brand
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateBrandRequest true "品牌信息"
// @Success 200 {object} dto.BrandVO
// @Router /admin/brands [post]
func (c *BrandController) Create(ctx *gin.Context) {
	var req dto.CreateBrandRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	vo, err := c.brandService.Create(ctx.Request.Context(), middleware.GetUserID(ctx), &req)
	if err != nil {
		fail(ctx, err)
		return
	}
	okMsg(ctx, "已创建", vo)
}

// Update 更新品牌档案
// @Summary 更新品牌档案
// @Tags Brand
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "品牌 ID"
// @Param request body dto.UpdateBrandRequest true "更新内容"
// @Success 200 {object} dto.BrandVO
// @Router /admin/brands/{id} [put]
func (c *BrandController) Update(ctx *gin.Context) {
	brandID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		badRequest(ctx, err)
		return
	}

	var req dto.UpdateBrandRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	vo, err := c.brandService.Update(ctx.Request.Context(), brandID, &req)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, vo)
}

// Delete 删除品牌档案
// @Summary 删除品牌档案
// @Tags Brand
// @Produce json
// @Security BearerAuth
// @Param id path int true "品牌 ID"
// @Success 200 {object} map[string]interface{}
// @Router /admin/brands/{id} [delete]
func (c *BrandController) Delete(ctx *gin.Context) {
	brandID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		badRequest(ctx, err)
		return
	}

	if err := c.brandService.Delete(ctx.Request.Context(), brandID); err != nil {
		fail(ctx, err)
		return
	}
	okMsg(ctx, "已删除", nil)
}

// Emulate 签发模拟 Token
// @Summary 以品牌身份进入影子租户
// @Tags Brand
// @Produce json
// @Security BearerAuth
// @Param id path int true "品牌 ID"
// @Success 200 {object} dto.EmulateResponse
// @Router /admin/brands/{id}/emulate [post]
func (c *BrandController) Emulate(ctx *gin.Context) {
	brandID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		badRequest(ctx, err)
		return
	}

	resp, err := c.brandService.Emulate(ctx.Request.Context(),
		middleware.GetUserID(ctx), middleware.GetUsername(ctx), brandID)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, resp)
}

// SeedListings 播种演示房源
// @Summary 以品牌影子租户播种演示房源
// @Tags Brand
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "品牌 ID"
// @Param request body dto.SeedListingsRequest true "播种数量"
// @Success 200 {object} dto.SeedListingsResponse
// @Router /admin/brands/{id}/seed [post]
func (c *BrandController) SeedListings(ctx *gin.Context) {
	brandID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		badRequest(ctx, err)
		return
	}

	var req dto.SeedListingsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	resp, err := c.brandService.SeedListings(ctx.Request.Context(), brandID, req.Count)
	if err != nil {
		fail(ctx, err)
		return
	}
	okMsg(ctx, "播种完成", resp)
}
