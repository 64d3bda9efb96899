package model

import (
	"time"

	"gorm.io/datatypes"
)

// ==================== 订阅 ====================

// Subscription Stripe 订阅的本地镜像
// 以 StripeSubscriptionID 为幂等键，webhook 重放不产生重复行
type Subscription struct {
	BaseModel
	AgencyID             int64      `gorm:"index;not null;comment:开发商ID"`
	StripeSubscriptionID string     `gorm:"size:64;uniqueIndex;not null;comment:Stripe订阅ID"`
	StripeCustomerID     string     `gorm:"size:64;index;comment:Stripe客户ID"`
	Plan                 string     `gorm:"size:50;comment:套餐"`
	Status               string     `gorm:"size:20;index;default:active;comment:订阅状态"`
	CurrentPeriodEnd     *time.Time `gorm:"index;comment:当前计费周期结束时间"`
	CanceledAt           *time.Time
}

func (*Subscription) TableName() string {
	return "subscriptions"
}

// IsExpired 计费周期已过且未续费
func (s *Subscription) IsExpired(now time.Time) bool {
	return s.Status == SubscriptionStatusActive &&
		s.CurrentPeriodEnd != nil && s.CurrentPeriodEnd.Before(now)
}

// ==================== 账单 ====================

// Invoice Stripe 账单的本地镜像，幂等键 StripeInvoiceID
type Invoice struct {
	BaseModel
	AgencyID        int64      `gorm:"index;not null;comment:开发商ID"`
	StripeInvoiceID string     `gorm:"size:64;uniqueIndex;not null;comment:Stripe账单ID"`
	AmountDue       int64      `gorm:"comment:应付金额(分)"`
	CurrencyCode    string     `gorm:"size:3;comment:货币"`
	Status          string     `gorm:"size:20;index;default:open;comment:账单状态"`
	PaidAt          *time.Time `gorm:"comment:支付时间"`
	HostedURL       string     `gorm:"size:2048;comment:Stripe托管账单页"`
}

func (*Invoice) TableName() string {
	return "invoices"
}

// ==================== Webhook 事件台账 ====================

// WebhookEvent 已处理的 Stripe 事件台账
// EventID 唯一索引即幂等屏障：重放事件在插入时冲突，直接 ACK
type WebhookEvent struct {
	BaseModel
	EventID     string         `gorm:"size:64;uniqueIndex;not null;comment:Stripe事件ID"`
	EventType   string         `gorm:"size:64;index;comment:事件类型"`
	Payload     datatypes.JSON `gorm:"comment:原始事件体"`
	ProcessedAt *time.Time     `gorm:"comment:处理完成时间"`
	HandlerErr  string         `gorm:"size:1024;comment:处理错误(仍ACK)"`
}

func (*WebhookEvent) TableName() string {
	return "webhook_events"
}
