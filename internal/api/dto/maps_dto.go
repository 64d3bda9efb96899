package dto

// GeocodeRequest 地址正向解析
type GeocodeRequest struct {
	Address string `form:"address" binding:"required,max=255"`
}

// GeocodeVO 解析结果
type GeocodeVO struct {
	FormattedAddress string  `json:"formatted_address"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	PlaceID          string  `json:"place_id"`
}

// AutocompleteRequest 地址联想
type AutocompleteRequest struct {
	Input string `form:"input" binding:"required,min=2,max=120"`
}

// AutocompleteVO 联想候选
type AutocompleteVO struct {
	Description string `json:"description"`
	PlaceID     string `json:"place_id"`
}

// StaticMapRequest 静态地图
type StaticMapRequest struct {
	Latitude  float64 `form:"latitude" binding:"required"`
	Longitude float64 `form:"longitude" binding:"required"`
	Zoom      int     `form:"zoom" binding:"omitempty,min=1,max=20"`
	Width     int     `form:"width" binding:"omitempty,min=100,max=1280"`
	Height    int     `form:"height" binding:"omitempty,min=100,max=1280"`
}

// StaticMapResponse 静态地图地址
type StaticMapResponse struct {
	URL string `json:"url"`
}
