// Package gmaps 封装 Google Maps 系列 API 的出站调用。
// 服务端代理这些请求以避免把密钥下发给浏览器。
package gmaps

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultBaseURL = "https://maps.googleapis.com"

// Client Google Maps API 客户端
type Client struct {
	http   *resty.Client
	apiKey string
}

// NewClient 创建客户端
// apiKey 为空时返回 nil，调用方据此降级
func NewClient(apiKey string) *Client {
	return NewClientWithBaseURL(apiKey, defaultBaseURL)
}

// NewClientWithBaseURL 指定上游地址的客户端（测试与私有代理用）
func NewClientWithBaseURL(apiKey, baseURL string) *Client {
	if apiKey == "" {
		return nil
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(2)

	return &Client{
		http:   client,
		apiKey: apiKey,
	}
}

// Geocode 地址转坐标
func (c *Client) Geocode(ctx context.Context, address string) (*GeocodeResult, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"address": address,
			"key":     c.apiKey,
		}).
		Get("/maps/api/geocode/json")
	if err != nil {
		return nil, fmt.Errorf("请求 Geocoding API 失败: %v", err)
	}

	var parsed geocodeResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return nil, fmt.Errorf("解析 Geocoding 响应失败: %v", err)
	}
	if parsed.Status != "OK" || len(parsed.Results) == 0 {
		return nil, fmt.Errorf("地理编码失败 [%s]: %s", parsed.Status, parsed.ErrorMessage)
	}

	first := parsed.Results[0]
	return &GeocodeResult{
		FormattedAddress: first.FormattedAddress,
		Latitude:         first.Geometry.Location.Lat,
		Longitude:        first.Geometry.Location.Lng,
		PlaceID:          first.PlaceID,
	}, nil
}

// Autocomplete 地点自动补全
func (c *Client) Autocomplete(ctx context.Context, input string) ([]Prediction, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"input": input,
			"key":   c.apiKey,
		}).
		Get("/maps/api/place/autocomplete/json")
	if err != nil {
		return nil, fmt.Errorf("请求 Places API 失败: %v", err)
	}

	var parsed autocompleteResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return nil, fmt.Errorf("解析 Places 响应失败: %v", err)
	}
	// ZERO_RESULTS 是正常情况，返回空列表
	if parsed.Status != "OK" && parsed.Status != "ZERO_RESULTS" {
		return nil, fmt.Errorf("自动补全失败 [%s]: %s", parsed.Status, parsed.ErrorMessage)
	}

	predictions := make([]Prediction, len(parsed.Predictions))
	for i, p := range parsed.Predictions {
		predictions[i] = Prediction{
			Description: p.Description,
			PlaceID:     p.PlaceID,
		}
	}
	return predictions, nil
}

// StaticMapURL 生成静态地图 URL（带密钥，前端 img 直接引用）
func (c *Client) StaticMapURL(lat, lng float64, zoom, width, height int) string {
	params := url.Values{}
	params.Set("center", fmt.Sprintf("%f,%f", lat, lng))
	params.Set("zoom", fmt.Sprintf("%d", zoom))
	params.Set("size", fmt.Sprintf("%dx%d", width, height))
	params.Set("markers", fmt.Sprintf("%f,%f", lat, lng))
	params.Set("key", c.apiKey)
	return defaultBaseURL + "/maps/api/staticmap?" + params.Encode()
}
