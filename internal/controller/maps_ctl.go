package controller

import (
	"github.com/gin-gonic/gin"

	"estate_dev_v1_202609/internal/api/dto"
	"estate_dev_v1_202609/internal/service"
)

// ==================== MapsController 地图代理控制器 ====================

// MapsController Google Maps 代理控制器
type MapsController struct {
	mapsService *service.MapsService
}

// NewMapsController 创建地图代理控制器
func NewMapsController(mapsService *service.MapsService) *MapsController {
	return &MapsController{mapsService: mapsService}
}

// Geocode 地址解析
// @Summary 地址正向解析
// @Tags Maps
// @Produce json
// @Security BearerAuth
// @Param address query string true "地址"
// @Success 200 {object} dto.GeocodeVO
// @Failure 503 {object} map[string]interface{}
// @Router /maps/geocode [get]
func (c *MapsController) Geocode(ctx *gin.Context) {
	var req dto.GeocodeRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	vo, err := c.mapsService.Geocode(ctx.Request.Context(), &req)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, vo)
}

// Autocomplete 地址联想
// @Summary 地址联想
// @Tags Maps
// @Produce json
// @Security BearerAuth
// @Param input query string true "输入片段"
// @Success 200 {array} dto.AutocompleteVO
// @Router /maps/autocomplete [get]
func (c *MapsController) Autocomplete(ctx *gin.Context) {
	var req dto.AutocompleteRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	vos, err := c.mapsService.Autocomplete(ctx.Request.Context(), &req)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, vos)
}

// StaticMap 静态地图
// @Summary 静态地图 URL
// @Tags Maps
// @Produce json
// @Security BearerAuth
// @Param latitude query number true "纬度"
// @Param longitude query number true "经度"
// @Success 200 {object} dto.StaticMapResponse
// @Router /maps/static [get]
func (c *MapsController) StaticMap(ctx *gin.Context) {
	var req dto.StaticMapRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	resp, err := c.mapsService.StaticMap(ctx.Request.Context(), &req)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, resp)
}
