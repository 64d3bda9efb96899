package model

import (
	"errors"
	"time"

	"gorm.io/datatypes"
)

// ==================== 房源详情（按类型分流的标签联合） ====================

// ApartmentDetails 公寓详情
type ApartmentDetails struct {
	Bedrooms    int     `json:"bedrooms"`
	Bathrooms   int     `json:"bathrooms"`
	FloorArea   float64 `json:"floor_area"` // 平方米
	Floor       int     `json:"floor"`
	TotalFloors int     `json:"total_floors"`
	HasElevator bool    `json:"has_elevator"`
	HasBalcony  bool    `json:"has_balcony"`
	ParkingBays int     `json:"parking_bays"`
}

// HouseDetails 独栋详情
type HouseDetails struct {
	Bedrooms  int     `json:"bedrooms"`
	Bathrooms int     `json:"bathrooms"`
	FloorArea float64 `json:"floor_area"`
	LandArea  float64 `json:"land_area"`
	Storeys   int     `json:"storeys"`
	HasGarage bool    `json:"has_garage"`
	HasPool   bool    `json:"has_pool"`
}

// FarmDetails 农场详情
type FarmDetails struct {
	LandArea      float64 `json:"land_area"` // 公顷
	ArableArea    float64 `json:"arable_area"`
	WaterRights   bool    `json:"water_rights"`
	HasHomestead  bool    `json:"has_homestead"`
	OutbuildingCt int     `json:"outbuilding_count"`
}

// LandDetails 地块详情
type LandDetails struct {
	Area     float64 `json:"area"`
	Zoning   string  `json:"zoning"`
	Serviced bool    `json:"serviced"` // 是否通水电
}

// CommercialDetails 商业地产详情
type CommercialDetails struct {
	FloorArea   float64 `json:"floor_area"`
	Units       int     `json:"units"`
	Zoning      string  `json:"zoning"`
	ParkingBays int     `json:"parking_bays"`
}

// SharedLivingDetails 合租详情
type SharedLivingDetails struct {
	Rooms           int  `json:"rooms"`
	SharedBathrooms int  `json:"shared_bathrooms"`
	Furnished       bool `json:"furnished"`
	BillsIncluded   bool `json:"bills_included"`
}

// PropertyDetails 房源详情联合体
// 只允许与 Listing.PropertyType 对应的变体非空，整体以 JSON 存库
type PropertyDetails struct {
	Apartment    *ApartmentDetails    `json:"apartment,omitempty"`
	House        *HouseDetails        `json:"house,omitempty"`
	Farm         *FarmDetails         `json:"farm,omitempty"`
	Land         *LandDetails         `json:"land,omitempty"`
	Commercial   *CommercialDetails   `json:"commercial,omitempty"`
	SharedLiving *SharedLivingDetails `json:"shared_living,omitempty"`
}

// Validate 校验详情与房源类型匹配
func (d *PropertyDetails) Validate(propertyType string) error {
	if d == nil {
		return errors.New("缺少房源详情")
	}
	switch propertyType {
	case PropertyTypeApartment:
		if d.Apartment == nil {
			return errors.New("缺少公寓详情")
		}
		if d.Apartment.Bedrooms < 0 || d.Apartment.FloorArea <= 0 {
			return errors.New("公寓详情不完整")
		}
	case PropertyTypeHouse:
		if d.House == nil {
			return errors.New("缺少独栋详情")
		}
		if d.House.FloorArea <= 0 {
			return errors.New("独栋详情不完整")
		}
	case PropertyTypeFarm:
		if d.Farm == nil || d.Farm.LandArea <= 0 {
			return errors.New("农场详情不完整")
		}
	case PropertyTypeLand:
		if d.Land == nil || d.Land.Area <= 0 {
			return errors.New("地块详情不完整")
		}
	case PropertyTypeCommercial:
		if d.Commercial == nil || d.Commercial.FloorArea <= 0 {
			return errors.New("商业地产详情不完整")
		}
	case PropertyTypeSharedLiving:
		if d.SharedLiving == nil || d.SharedLiving.Rooms <= 0 {
			return errors.New("合租详情不完整")
		}
	default:
		return errors.New("未知房源类型")
	}
	return nil
}

// ==================== 房源 ====================

// Listing 房源/项目主表
type Listing struct {
	BaseModel
	AgencyID  int64 `gorm:"index;not null;comment:所属开发商ID"`
	CreatorID int64 `gorm:"index;not null;comment:创建人ID"`
	CreatedBy int64 `gorm:"comment:审计-创建人"`
	UpdatedBy int64 `gorm:"comment:审计-最后修改人"`

	// 基础信息
	Action       string         `gorm:"size:20;index;not null;comment:交易方式 sell/rent/auction"`
	PropertyType string         `gorm:"size:32;index;not null;comment:房源类型"`
	Badges       StringSlice    `gorm:"type:json;comment:标签徽章"`
	Title        string         `gorm:"size:140;comment:标题"`
	Description  string         `gorm:"type:text;comment:描述"`
	Details      datatypes.JSON `gorm:"comment:类型详情联合体"`

	// 定价（分），按交易方式取用对应字段
	CurrencyCode         string `gorm:"size:3;default:ZAR;comment:货币代码"`
	SalePriceAmount      int64  `gorm:"comment:售价(分)"`
	MonthlyRentAmount    int64  `gorm:"comment:月租(分)"`
	DepositAmount        int64  `gorm:"comment:押金(分)"`
	AuctionStartAmount   int64  `gorm:"comment:起拍价(分)"`
	AuctionReserveAmount int64  `gorm:"comment:保留价(分)"`

	// 位置
	Address   string  `gorm:"size:255;comment:地址"`
	City      string  `gorm:"size:100;index;comment:城市"`
	Province  string  `gorm:"size:100;comment:省份"`
	Latitude  float64 `gorm:"comment:纬度"`
	Longitude float64 `gorm:"comment:经度"`

	// 生命周期
	Status          string     `gorm:"size:32;index;default:draft;comment:生命周期状态"`
	ApprovalStatus  string     `gorm:"size:32;index;default:none;comment:审核状态"`
	RejectionReason string     `gorm:"size:1024;comment:驳回原因"`
	IsPublished     bool       `gorm:"default:false;index"`
	PublishedAt     *time.Time `gorm:"comment:发布时间"`
	AutoPublish     bool       `gorm:"default:false;comment:审核通过后自动发布"`

	// 关联
	Media []ListingMedia `gorm:"foreignKey:ListingID"`
}

func (*Listing) TableName() string {
	return "listings"
}

// CanSubmit 检查是否可提交审核
func (l *Listing) CanSubmit() error {
	if l.Status != ListingStatusDraft && l.Status != ListingStatusRejected {
		return errors.New("当前状态不允许提交审核")
	}
	if l.Title == "" {
		return errors.New("标题不能为空")
	}
	if !ValidAction(l.Action) {
		return errors.New("交易方式无效")
	}
	if !ValidPropertyType(l.PropertyType) {
		return errors.New("房源类型无效")
	}
	return nil
}

// CanEdit 检查是否可由所有者编辑
func (l *Listing) CanEdit() bool {
	return l.Status == ListingStatusDraft || l.Status == ListingStatusRejected
}

// MarkPendingReview 标记为待审核
func (l *Listing) MarkPendingReview() {
	l.Status = ListingStatusPendingReview
	l.ApprovalStatus = ApprovalStatusPending
	l.RejectionReason = ""
}

// MarkReviewed 记录审核结果
func (l *Listing) MarkReviewed(approved bool, reason string) {
	if approved {
		l.Status = ListingStatusApproved
		l.ApprovalStatus = ApprovalStatusApproved
		l.RejectionReason = ""
	} else {
		l.Status = ListingStatusRejected
		l.ApprovalStatus = ApprovalStatusRejected
		l.RejectionReason = reason
	}
}

// MarkPublished 标记为已发布
// published_at 只在这里赋值，保证与 status 同步
func (l *Listing) MarkPublished(now time.Time) error {
	if l.ApprovalStatus != ApprovalStatusApproved {
		return errors.New("未通过审核的房源不能发布")
	}
	l.Status = ListingStatusPublished
	l.IsPublished = true
	l.PublishedAt = &now
	return nil
}

// MarkArchived 下架归档
func (l *Listing) MarkArchived() {
	l.Status = ListingStatusArchived
	l.IsPublished = false
	l.PublishedAt = nil
}

// ==================== 房源媒体 ====================

// ListingMedia 房源媒体（图片/视频），按 Position 排序，至多一张主图
type ListingMedia struct {
	BaseModel
	ListingID   int64  `gorm:"index;not null;comment:房源ID"`
	StorageKey  string `gorm:"size:512;comment:对象存储Key"`
	URL         string `gorm:"size:2048;comment:公开访问URL"`
	ContentType string `gorm:"size:64;comment:媒体类型"`
	Position    int    `gorm:"index;comment:排序位置"`
	IsPrimary   bool   `gorm:"default:false;comment:是否主图"`
	Width       int    `gorm:"comment:宽度"`
	Height      int    `gorm:"comment:高度"`
}

func (*ListingMedia) TableName() string {
	return "listing_media"
}

// ==================== 向导草稿快照 ====================

// ListingDraft 创建向导的服务端快照
// 保存不做校验，任意步骤都可落库；提交审核后清除
type ListingDraft struct {
	BaseModel
	OwnerID        int64          `gorm:"index;not null;comment:所有者ID"`
	AgencyID       int64          `gorm:"index;comment:所属开发商ID"`
	ListingID      int64          `gorm:"index;comment:已关联的房源ID，0表示尚未创建"`
	CurrentStep    int            `gorm:"default:1;comment:当前步骤"`
	CompletedSteps StringSlice    `gorm:"type:json;comment:已完成步骤"`
	Payload        datatypes.JSON `gorm:"comment:向导表单快照"`
}

func (*ListingDraft) TableName() string {
	return "listing_drafts"
}
