package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"estate_dev_v1_202609/internal/api/dto"
	"estate_dev_v1_202609/pkg/gmaps"
	"estate_dev_v1_202609/pkg/utils"
)

// 地图结果缓存时长：地址解析结果基本不变，候选列表短缓存
const (
	geocodeCacheTTL  = 24 * time.Hour
	suggestCacheTTL  = 10 * time.Minute
	defaultMapZoom   = 15
	defaultMapWidth  = 640
	defaultMapHeight = 400
)

// ==================== MapsService 地图代理服务 ====================

// MapsService Google Maps 上游代理
// API Key 只保存在服务端，前端一律经此转发；结果缓存降低配额消耗
type MapsService struct {
	client *gmaps.Client // 可为 nil，未配置时返回 ErrServiceUnavailable
}

// NewMapsService 创建地图代理服务
func NewMapsService(client *gmaps.Client) *MapsService {
	return &MapsService{client: client}
}

// Available 上游是否已配置
func (s *MapsService) Available() bool {
	return s.client != nil
}

// ==================== 代理操作 ====================

// Geocode 地址正向解析
func (s *MapsService) Geocode(ctx context.Context, req *dto.GeocodeRequest) (*dto.GeocodeVO, error) {
	if s.client == nil {
		return nil, ErrServiceUnavailable
	}

	cacheKey := fmt.Sprintf("maps:geocode:%s", req.Address)
	if cached, ok := utils.GetCache(cacheKey); ok {
		var vo dto.GeocodeVO
		if json.Unmarshal([]byte(cached), &vo) == nil {
			return &vo, nil
		}
	}

	result, err := s.client.Geocode(ctx, req.Address)
	if err != nil {
		return nil, fmt.Errorf("地址解析失败: %v", err)
	}
	if result == nil {
		return nil, ErrNotFound
	}

	vo := &dto.GeocodeVO{
		FormattedAddress: result.FormattedAddress,
		Latitude:         result.Latitude,
		Longitude:        result.Longitude,
		PlaceID:          result.PlaceID,
	}
	if data, err := json.Marshal(vo); err == nil {
		utils.SetCache(cacheKey, string(data), geocodeCacheTTL)
	}
	return vo, nil
}

// Autocomplete 地址联想
// 上游 ZERO_RESULTS 返回空列表而非错误
func (s *MapsService) Autocomplete(ctx context.Context, req *dto.AutocompleteRequest) ([]dto.AutocompleteVO, error) {
	if s.client == nil {
		return nil, ErrServiceUnavailable
	}

	cacheKey := fmt.Sprintf("maps:suggest:%s", req.Input)
	if cached, ok := utils.GetCache(cacheKey); ok {
		var vos []dto.AutocompleteVO
		if json.Unmarshal([]byte(cached), &vos) == nil {
			return vos, nil
		}
	}

	predictions, err := s.client.Autocomplete(ctx, req.Input)
	if err != nil {
		return nil, fmt.Errorf("地址联想失败: %v", err)
	}

	vos := make([]dto.AutocompleteVO, len(predictions))
	for i, p := range predictions {
		vos[i] = dto.AutocompleteVO{
			Description: p.Description,
			PlaceID:     p.PlaceID,
		}
	}
	if data, err := json.Marshal(vos); err == nil {
		utils.SetCache(cacheKey, string(data), suggestCacheTTL)
	}
	return vos, nil
}

// StaticMap 生成静态地图 URL（带服务端 Key 签名参数）
func (s *MapsService) StaticMap(ctx context.Context, req *dto.StaticMapRequest) (*dto.StaticMapResponse, error) {
	if s.client == nil {
		return nil, ErrServiceUnavailable
	}

	zoom := req.Zoom
	if zoom == 0 {
		zoom = defaultMapZoom
	}
	width := req.Width
	if width == 0 {
		width = defaultMapWidth
	}
	height := req.Height
	if height == 0 {
		height = defaultMapHeight
	}

	return &dto.StaticMapResponse{
		URL: s.client.StaticMapURL(req.Latitude, req.Longitude, zoom, width, height),
	}, nil
}
