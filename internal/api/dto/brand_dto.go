package dto

import "time"

// CreateBrandRequest 创建品牌档案
type CreateBrandRequest struct {
	Name    string `json:"name" binding:"required,max=100"`
	Slug    string `json:"slug" binding:"required,max=100"`
	Tagline string `json:"tagline" binding:"max=255"`
	LogoURL string `json:"logo_url" binding:"omitempty,url"`
}

// UpdateBrandRequest 更新品牌档案
type UpdateBrandRequest struct {
	Tagline  *string `json:"tagline"`
	LogoURL  *string `json:"logo_url"`
	IsActive *bool   `json:"is_active"`
}

// BrandVO 品牌视图
type BrandVO struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Slug           string `json:"slug"`
	Tagline        string `json:"tagline"`
	LogoURL        string `json:"logo_url"`
	ShadowAgencyID int64  `json:"shadow_agency_id"`
	IsActive       bool   `json:"is_active"`
}

// EmulateResponse 品牌模拟令牌
type EmulateResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	Brand       BrandVO   `json:"brand"`
}

// SeedListingsRequest 播种演示房源
type SeedListingsRequest struct {
	Count int `json:"count" binding:"required,min=1,max=50"`
}

// SeedListingsResponse 播种结果
type SeedListingsResponse struct {
	CreatedIDs []int64 `json:"created_ids"`
}
