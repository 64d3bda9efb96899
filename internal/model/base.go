package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

// ==================== 基础模型 ====================

type BaseModel struct {
	ID        int64          `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// ==================== 状态常量 ====================

const (
	// 房源生命周期状态
	ListingStatusDraft         = "draft"
	ListingStatusPendingReview = "pending_review"
	ListingStatusApproved      = "approved"
	ListingStatusRejected      = "rejected"
	ListingStatusPublished     = "published"
	ListingStatusArchived      = "archived"

	// 审核状态
	ApprovalStatusNone     = "none"
	ApprovalStatusPending  = "pending"
	ApprovalStatusApproved = "approved"
	ApprovalStatusRejected = "rejected"

	// 审核队列条目状态
	QueueStatusPending  = "pending"
	QueueStatusApproved = "approved"
	QueueStatusRejected = "rejected"

	// 订阅状态
	SubscriptionStatusActive   = "active"
	SubscriptionStatusPastDue  = "past_due"
	SubscriptionStatusCanceled = "canceled"
	SubscriptionStatusExpired  = "expired"

	// 账单状态
	InvoiceStatusOpen   = "open"
	InvoiceStatusPaid   = "paid"
	InvoiceStatusFailed = "failed"
)

// ==================== 交易方式 / 房源类型 ====================

const (
	ActionSell    = "sell"
	ActionRent    = "rent"
	ActionAuction = "auction"
)

const (
	PropertyTypeApartment    = "apartment"
	PropertyTypeHouse        = "house"
	PropertyTypeFarm         = "farm"
	PropertyTypeLand         = "land"
	PropertyTypeCommercial   = "commercial"
	PropertyTypeSharedLiving = "shared_living"
)

// ValidAction 校验交易方式
func ValidAction(action string) bool {
	switch action {
	case ActionSell, ActionRent, ActionAuction:
		return true
	}
	return false
}

// ValidPropertyType 校验房源类型
func ValidPropertyType(pt string) bool {
	switch pt {
	case PropertyTypeApartment, PropertyTypeHouse, PropertyTypeFarm,
		PropertyTypeLand, PropertyTypeCommercial, PropertyTypeSharedLiving:
		return true
	}
	return false
}

// ==================== JSON 类型 ====================

// StringSlice 字符串切片（JSON 存储）
type StringSlice []string

func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	return json.Marshal(s)
}

func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = []string{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		if str, ok := value.(string); ok {
			bytes = []byte(str)
		} else {
			return errors.New("type assertion to []byte failed")
		}
	}
	return json.Unmarshal(bytes, s)
}

// JSONMap JSON对象（map 存储）
type JSONMap map[string]interface{}

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	return json.Marshal(m)
}

func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = make(map[string]interface{})
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		if str, ok := value.(string); ok {
			bytes = []byte(str)
		} else {
			return errors.New("type assertion to []byte failed")
		}
	}
	return json.Unmarshal(bytes, m)
}
