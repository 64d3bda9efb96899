package model

import "time"

// ==================== 品牌档案 ====================

// BrandProfile 平台自营品牌档案
// 超管可"模拟"品牌身份，以其影子租户播种演示房源
type BrandProfile struct {
	BaseModel
	Name    string `gorm:"size:100;uniqueIndex;not null;comment:品牌名"`
	Slug    string `gorm:"size:100;uniqueIndex;comment:URL标识"`
	Tagline string `gorm:"size:255;comment:宣传语"`
	LogoURL string `gorm:"size:2048;comment:品牌Logo"`

	// 平台内影子租户，品牌播种的房源都挂在它名下
	ShadowAgencyID int64 `gorm:"index;comment:影子租户ID"`

	// 创建该档案的超管
	OwnerAdminID int64 `gorm:"index;comment:创建超管ID"`

	IsActive bool `gorm:"default:true"`
}

func (*BrandProfile) TableName() string {
	return "brand_profiles"
}

// ==================== 动态事件 ====================

// 动态动词常量
const (
	ActivityListingCreated   = "listing_created"
	ActivityListingSubmitted = "listing_submitted"
	ActivityListingReviewed  = "listing_reviewed"
	ActivityListingPublished = "listing_published"
	ActivityListingArchived  = "listing_archived"
	ActivityMediaUploaded    = "media_uploaded"
	ActivitySubscription     = "subscription_changed"
	ActivityInvoicePaid      = "invoice_paid"
)

// ActivityEvent 开发商工作台动态流
type ActivityEvent struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	CreatedAt  time.Time `gorm:"index"`
	AgencyID   int64     `gorm:"index;not null;comment:开发商ID"`
	ActorID    int64     `gorm:"index;comment:操作人ID"`
	Verb       string    `gorm:"size:50;index;comment:动作"`
	ObjectType string    `gorm:"size:32;comment:对象类型"`
	ObjectID   int64     `gorm:"comment:对象ID"`
	Summary    string    `gorm:"size:512;comment:摘要"`
}

func (*ActivityEvent) TableName() string {
	return "activity_events"
}
