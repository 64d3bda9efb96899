package dto

import "encoding/json"

// ==================== 查询 ====================

// ListListingsRequest 房源列表查询
type ListListingsRequest struct {
	Status       string `form:"status"`
	Action       string `form:"action"`
	PropertyType string `form:"property_type"`
	City         string `form:"city"`
	Page         int    `form:"page"`
	PageSize     int    `form:"page_size"`
}

// MediaVO 媒体视图
type MediaVO struct {
	ID          int64  `json:"id"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Position    int    `json:"position"`
	IsPrimary   bool   `json:"is_primary"`
}

// ListingVO 房源列表项视图
type ListingVO struct {
	ID             int64    `json:"id"`
	AgencyID       int64    `json:"agency_id"`
	Action         string   `json:"action"`
	PropertyType   string   `json:"property_type"`
	Title          string   `json:"title"`
	City           string   `json:"city"`
	Badges         []string `json:"badges"`
	Status         string   `json:"status"`
	ApprovalStatus string   `json:"approval_status"`
	IsPublished    bool     `json:"is_published"`
	PublishedAt    string   `json:"published_at,omitempty"`
	PrimaryImage   string   `json:"primary_image,omitempty"`
	PriceDisplay   string   `json:"price_display"`
	CreatedAt      string   `json:"created_at"`
}

// ListingDetailVO 房源详情视图
type ListingDetailVO struct {
	ListingVO
	Description     string          `json:"description"`
	Details         json.RawMessage `json:"details"`
	Address         string          `json:"address"`
	Province        string          `json:"province"`
	Latitude        float64         `json:"latitude"`
	Longitude       float64         `json:"longitude"`
	RejectionReason string          `json:"rejection_reason,omitempty"`
	Media           []MediaVO       `json:"media"`
}

// ==================== 变更 ====================

// UpdateListingRequest 更新房源（仅 draft/rejected 状态）
// 指针字段为空表示不改动；并发编辑为后写覆盖
type UpdateListingRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Badges      []string `json:"badges"`
	AutoPublish *bool    `json:"auto_publish"`
}

// ReorderMediaRequest 媒体重排请求：按期望顺序给出全部媒体 ID
type ReorderMediaRequest struct {
	MediaIDs []int64 `json:"media_ids" binding:"required,min=1"`
}
