package controller

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"estate_dev_v1_202609/internal/api/dto"
	"estate_dev_v1_202609/internal/middleware"
	"estate_dev_v1_202609/internal/service"
)

// ==================== ListingController 房源控制器 ====================

// ListingController 房源控制器
type ListingController struct {
	listingService  *service.ListingService
	approvalService *service.ApprovalService
}

// NewListingController 创建房源控制器
func NewListingController(listingService *service.ListingService, approvalService *service.ApprovalService) *ListingController {
	return &ListingController{
		listingService:  listingService,
		approvalService: approvalService,
	}
}

// ==================== 租户侧 ====================

// List 房源列表
// @Summary 本租户房源列表
// @Tags Listing
// @Produce json
// @Security BearerAuth
// @Param status query string false "状态过滤"
// @Success 200 {array} dto.ListingVO
// @Router /listings [get]
func (c *ListingController) List(ctx *gin.Context) {
	var req dto.ListListingsRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	list, total, err := c.listingService.ListByAgency(ctx.Request.Context(), middleware.GetAgencyID(ctx), &req)
	if err != nil {
		fail(ctx, err)
		return
	}
	okPage(ctx, list, total)
}

// Get 房源详情
// @Summary 房源详情
// @Tags Listing
// @Produce json
// @Security BearerAuth
// @Param id path int true "房源 ID"
// @Success 200 {object} dto.ListingDetailVO
// @Router /listings/{id} [get]
func (c *ListingController) Get(ctx *gin.Context) {
	listingID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		badRequest(ctx, err)
		return
	}

	detail, err := c.listingService.GetDetail(ctx.Request.Context(), middleware.GetAgencyID(ctx), listingID)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, detail)
}

// Update 更新房源
// @Summary 更新房源基础字段（仅 draft/rejected）
// @Tags Listing
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "房源 ID"
// @Param request body dto.UpdateListingRequest true "更新内容"
// @Success 200 {object} dto.ListingDetailVO
// @Router /listings/{id} [put]
func (c *ListingController) Update(ctx *gin.Context) {
	listingID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		badRequest(ctx, err)
		return
	}

	var req dto.UpdateListingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	detail, err := c.listingService.Update(ctx.Request.Context(), middleware.GetAgencyID(ctx), listingID, &req)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, detail)
}

// Delete 删除草稿房源
// @Summary 删除房源（仅草稿）
// @Tags Listing
// @Produce json
// @Security BearerAuth
// @Param id path int true "房源 ID"
// @Success 200 {object} map[string]interface{}
// @Router /listings/{id} [delete]
func (c *ListingController) Delete(ctx *gin.Context) {
	listingID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		badRequest(ctx, err)
		return
	}

	if err := c.listingService.Delete(ctx.Request.Context(), middleware.GetAgencyID(ctx), listingID); err != nil {
		fail(ctx, err)
		return
	}
	okMsg(ctx, "已删除", nil)
}

// Publish 显式发布
// @Summary 发布已审核通过的房源
// @Tags Listing
// @Produce json
// @Security BearerAuth
// @Param id path int true "房源 ID"
// @Success 200 {object} map[string]interface{}
// @Router /listings/{id}/publish [post]
func (c *ListingController) Publish(ctx *gin.Context) {
	listingID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		badRequest(ctx, err)
		return
	}

	listing, err := c.approvalService.Publish(ctx.Request.Context(), middleware.GetAgencyID(ctx), listingID)
	if err != nil {
		fail(ctx, err)
		return
	}
	okMsg(ctx, "已发布", gin.H{
		"listing_id":   listing.ID,
		"published_at": listing.PublishedAt,
	})
}

// Archive 下架归档
// @Summary 下架归档
// @Tags Listing
// @Produce json
// @Security BearerAuth
// @Param id path int true "房源 ID"
// @Success 200 {object} map[string]interface{}
// @Router /listings/{id}/archive [post]
func (c *ListingController) Archive(ctx *gin.Context) {
	listingID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		badRequest(ctx, err)
		return
	}

	if err := c.approvalService.Archive(ctx.Request.Context(), middleware.GetAgencyID(ctx), listingID); err != nil {
		fail(ctx, err)
		return
	}
	okMsg(ctx, "已下架", nil)
}

// ==================== 媒体维护 ====================

// ReorderMedia 媒体重排
// @Summary 按给定顺序重排媒体
// @Tags Listing
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "房源 ID"
// @Param request body dto.ReorderMediaRequest true "期望顺序"
// @Success 200 {object} map[string]interface{}
// @Router /listings/{id}/media/reorder [put]
func (c *ListingController) ReorderMedia(ctx *gin.Context) {
	listingID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		badRequest(ctx, err)
		return
	}

	var req dto.ReorderMediaRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	if err := c.listingService.ReorderMedia(ctx.Request.Context(), middleware.GetAgencyID(ctx), listingID, &req); err != nil {
		fail(ctx, err)
		return
	}
	okMsg(ctx, "已重排", nil)
}

// SetPrimaryMedia 指定主图
// @Summary 指定主图
// @Tags Listing
// @Produce json
// @Security BearerAuth
// @Param id path int true "房源 ID"
// @Param mediaId path int true "媒体 ID"
// @Success 200 {object} map[string]interface{}
// @Router /listings/{id}/media/{mediaId}/primary [put]
func (c *ListingController) SetPrimaryMedia(ctx *gin.Context) {
	listingID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		badRequest(ctx, err)
		return
	}
	mediaID, err := strconv.ParseInt(ctx.Param("mediaId"), 10, 64)
	if err != nil {
		badRequest(ctx, err)
		return
	}

	if err := c.listingService.SetPrimaryMedia(ctx.Request.Context(), middleware.GetAgencyID(ctx), listingID, mediaID); err != nil {
		fail(ctx, err)
		return
	}
	okMsg(ctx, "已设为主图", nil)
}

// DeleteMedia 删除媒体
// @Summary 删除单个媒体
// @Tags Listing
// @Produce json
// @Security BearerAuth
// @Param id path int true "房源 ID"
// @Param mediaId path int true "媒体 ID"
// @Success 200 {object} map[string]interface{}
// @Router /listings/{id}/media/{mediaId} [delete]
func (c *ListingController) DeleteMedia(ctx *gin.Context) {
	listingID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		badRequest(ctx, err)
		return
	}
	mediaID, err := strconv.ParseInt(ctx.Param("mediaId"), 10, 64)
	if err != nil {
		badRequest(ctx, err)
		return
	}

	if err := c.listingService.DeleteMedia(ctx.Request.Context(), middleware.GetAgencyID(ctx), listingID, mediaID); err != nil {
		fail(ctx, err)
		return
	}
	okMsg(ctx, "已删除", nil)
}

// ==================== 公开侧 ====================

// PublicList 公开房源列表
// @Summary 已发布房源列表（公开）
// @Tags Public
// @Produce json
// @Success 200 {array} dto.ListingVO
// @Router /public/listings [get]
func (c *ListingController) PublicList(ctx *gin.Context) {
	var req dto.ListListingsRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	list, total, err := c.listingService.ListPublished(ctx.Request.Context(), &req)
	if err != nil {
		fail(ctx, err)
		return
	}
	okPage(ctx, list, total)
}

// PublicGet 公开房源详情
// @Summary 已发布房源详情（公开）
// @Tags Public
// @Produce json
// @Param id path int true "房源 ID"
// @Success 200 {object} dto.ListingDetailVO
// @Router /public/listings/{id} [get]
func (c *ListingController) PublicGet(ctx *gin.Context) {
	listingID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		badRequest(ctx, err)
		return
	}

	detail, err := c.listingService.GetPublicDetail(ctx.Request.Context(), listingID)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, detail)
}
