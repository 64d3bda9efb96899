package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"estate_dev_v1_202609/internal/model"
)

// ==================== 仓储接口 ====================

// SubscriptionRepository 订阅仓储接口
type SubscriptionRepository interface {
	Upsert(ctx context.Context, sub *model.Subscription) error
	GetByStripeID(ctx context.Context, stripeSubID string) (*model.Subscription, error)
	GetActiveByAgencyID(ctx context.Context, agencyID int64) (*model.Subscription, error)
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error
	FindExpired(ctx context.Context, now time.Time) ([]*model.Subscription, error)
	ListAll(ctx context.Context, page, pageSize int) ([]model.Subscription, int64, error)
}

// InvoiceRepository 账单仓储接口
type InvoiceRepository interface {
	Upsert(ctx context.Context, invoice *model.Invoice) error
	GetByStripeID(ctx context.Context, stripeInvoiceID string) (*model.Invoice, error)
	ListByAgencyID(ctx context.Context, agencyID int64, page, pageSize int) ([]model.Invoice, int64, error)
}

// WebhookEventRepository Webhook 事件台账仓储接口
type WebhookEventRepository interface {
	// Record 记录事件，事件 ID 已存在时返回 ErrDuplicatedKey 语义（duplicate=true）
	Record(ctx context.Context, event *model.WebhookEvent) (duplicate bool, err error)
	MarkProcessed(ctx context.Context, eventID string, handlerErr string) error
	GetByEventID(ctx context.Context, eventID string) (*model.WebhookEvent, error)
}

// ==================== Subscription 实现 ====================

type subscriptionRepo struct {
	db *gorm.DB
}

// NewSubscriptionRepository 创建订阅仓储
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepo{db: db}
}

// Upsert 以 stripe_subscription_id 为冲突键的插入或更新
// webhook 重放落到同一行，不产生重复订阅
func (r *subscriptionRepo) Upsert(ctx context.Context, sub *model.Subscription) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "stripe_subscription_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"agency_id", "stripe_customer_id", "plan", "status",
			"current_period_end", "canceled_at", "updated_at",
		}),
	}).Create(sub).Error
}

func (r *subscriptionRepo) GetByStripeID(ctx context.Context, stripeSubID string) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.WithContext(ctx).Where("stripe_subscription_id = ?", stripeSubID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepo) GetActiveByAgencyID(ctx context.Context, agencyID int64) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.WithContext(ctx).
		Where("agency_id = ? AND status = ?", agencyID, model.SubscriptionStatusActive).
		Order("id DESC").
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepo) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.Subscription{}).Where("id = ?", id).Updates(fields).Error
}

// FindExpired 查找计费周期已过仍标记 active 的订阅
func (r *subscriptionRepo) FindExpired(ctx context.Context, now time.Time) ([]*model.Subscription, error) {
	var subs []*model.Subscription
	err := r.db.WithContext(ctx).
		Where("status = ? AND current_period_end IS NOT NULL AND current_period_end < ?",
			model.SubscriptionStatusActive, now).
		Find(&subs).Error
	return subs, err
}

func (r *subscriptionRepo) ListAll(ctx context.Context, page, pageSize int) ([]model.Subscription, int64, error) {
	var subs []model.Subscription
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Subscription{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	err := query.Order("created_at DESC").Limit(pageSize).Offset((page - 1) * pageSize).Find(&subs).Error
	return subs, total, err
}

// ==================== Invoice 实现 ====================

type invoiceRepo struct {
	db *gorm.DB
}

// NewInvoiceRepository 创建账单仓储
func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &invoiceRepo{db: db}
}

// Upsert 以 stripe_invoice_id 为冲突键的插入或更新
func (r *invoiceRepo) Upsert(ctx context.Context, invoice *model.Invoice) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "stripe_invoice_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"agency_id", "amount_due", "currency_code", "status",
			"paid_at", "hosted_url", "updated_at",
		}),
	}).Create(invoice).Error
}

func (r *invoiceRepo) GetByStripeID(ctx context.Context, stripeInvoiceID string) (*model.Invoice, error) {
	var invoice model.Invoice
	err := r.db.WithContext(ctx).Where("stripe_invoice_id = ?", stripeInvoiceID).First(&invoice).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepo) ListByAgencyID(ctx context.Context, agencyID int64, page, pageSize int) ([]model.Invoice, int64, error) {
	var invoices []model.Invoice
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Invoice{}).Where("agency_id = ?", agencyID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	err := query.Order("created_at DESC").Limit(pageSize).Offset((page - 1) * pageSize).Find(&invoices).Error
	return invoices, total, err
}

// ==================== WebhookEvent 实现 ====================

type webhookEventRepo struct {
	db *gorm.DB
}

// NewWebhookEventRepository 创建事件台账仓储
func NewWebhookEventRepository(db *gorm.DB) WebhookEventRepository {
	return &webhookEventRepo{db: db}
}

// Record 插入事件台账
// event_id 唯一索引冲突即视为重放，返回 duplicate=true 且不报错
func (r *webhookEventRepo) Record(ctx context.Context, event *model.WebhookEvent) (bool, error) {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(event)
	if result.Error != nil {
		return false, result.Error
	}
	// RowsAffected == 0 说明撞上了已有事件
	return result.RowsAffected == 0, nil
}

func (r *webhookEventRepo) MarkProcessed(ctx context.Context, eventID string, handlerErr string) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&model.WebhookEvent{}).
		Where("event_id = ?", eventID).
		Updates(map[string]interface{}{
			"processed_at": &now,
			"handler_err":  handlerErr,
		}).Error
}

func (r *webhookEventRepo) GetByEventID(ctx context.Context, eventID string) (*model.WebhookEvent, error) {
	var event model.WebhookEvent
	err := r.db.WithContext(ctx).Where("event_id = ?", eventID).First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}
