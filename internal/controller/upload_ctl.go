package controller

import (
	"github.com/gin-gonic/gin"

	"estate_dev_v1_202609/internal/api/dto"
	"estate_dev_v1_202609/internal/middleware"
	"estate_dev_v1_202609/internal/service"
)

// ==================== UploadController 直传控制器 ====================

// UploadController 媒体直传控制器
// 字节流不经过本服务：签发预签名 URL → 客户端直传 → 挂载登记
type UploadController struct {
	storageService *service.StorageService // 可为 nil，未配置时接口 503
	listingService *service.ListingService
}

// NewUploadController 创建直传控制器
func NewUploadController(storageService *service.StorageService, listingService *service.ListingService) *UploadController {
	return &UploadController{
		storageService: storageService,
		listingService: listingService,
	}
}

// Presign 申请直传签名
// @Summary 申请媒体直传签名 URL
// @Tags Upload
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.PresignUploadRequest true "文件信息"
// @Success 200 {object} dto.PresignUploadResponse
// @Failure 503 {object} map[string]interface{}
// @Router /uploads/presign [post]
func (c *UploadController) Presign(ctx *gin.Context) {
	if c.storageService == nil {
		fail(ctx, service.ErrServiceUnavailable)
		return
	}

	var req dto.PresignUploadRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	resp, err := c.storageService.PresignUpload(ctx.Request.Context(), middleware.GetAgencyID(ctx), &req)
	if err != nil {
		badRequest(ctx, err)
		return
	}
	ok(ctx, resp)
}

// Attach 直传完成后挂载到房源
// @Summary 登记直传完成的媒体
// @Tags Upload
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.AttachMediaRequest true "挂载信息"
// @Success 200 {object} dto.MediaVO
// @Router /uploads/attach [post]
func (c *UploadController) Attach(ctx *gin.Context) {
	if c.storageService == nil {
		fail(ctx, service.ErrServiceUnavailable)
		return
	}

	var req dto.AttachMediaRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	url := c.storageService.PublicURL(req.StorageKey)
	contentType := ctx.GetHeader("X-Content-Type")

	vo, err := c.listingService.AttachMedia(ctx.Request.Context(), middleware.GetAgencyID(ctx), &req, url, contentType)
	if err != nil {
		fail(ctx, err)
		return
	}
	okMsg(ctx, "已挂载", vo)
}
