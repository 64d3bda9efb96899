package gmaps

// ==================== 响应 DTO ====================

// GeocodeResult 地理编码结果
type GeocodeResult struct {
	FormattedAddress string  `json:"formatted_address"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	PlaceID          string  `json:"place_id"`
}

// geocodeResponse Google Geocoding API 原始响应
type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
		PlaceID          string `json:"place_id"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
	ErrorMessage string `json:"error_message"`
}

// Prediction 地点自动补全候选
type Prediction struct {
	Description string `json:"description"`
	PlaceID     string `json:"place_id"`
}

// autocompleteResponse Places Autocomplete API 原始响应
type autocompleteResponse struct {
	Status      string `json:"status"`
	Predictions []struct {
		Description string `json:"description"`
		PlaceID     string `json:"place_id"`
	} `json:"predictions"`
	ErrorMessage string `json:"error_message"`
}
