package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"gorm.io/gorm"

	"estate_dev_v1_202609/internal/api/dto"
	"estate_dev_v1_202609/internal/model"
	"estate_dev_v1_202609/internal/repository"
	"estate_dev_v1_202609/pkg/stripe"
)

// ==================== 外部服务依赖 ====================

// BillingNotifierInterface 账务通知接口（实现见 email_svc.go）
type BillingNotifierInterface interface {
	SendWelcome(ctx context.Context, to, agencyName string) error
	SendPaymentFailed(ctx context.Context, to, agencyName string, amountDue int64, currency string) error
}

// ==================== BillingService 账务服务 ====================

// BillingService 订阅结账与 webhook 对账服务
type BillingService struct {
	client        *stripe.Client // 可为 nil，未配置时结账接口返回 ErrServiceUnavailable
	webhookSecret string

	subRepo      repository.SubscriptionRepository
	invoiceRepo  repository.InvoiceRepository
	eventRepo    repository.WebhookEventRepository
	agencyRepo   repository.AgencyRepository
	activityRepo repository.ActivityRepository
	notifier     BillingNotifierInterface // 可为 nil
}

// NewBillingService 创建账务服务
func NewBillingService(
	client *stripe.Client,
	webhookSecret string,
	subRepo repository.SubscriptionRepository,
	invoiceRepo repository.InvoiceRepository,
	eventRepo repository.WebhookEventRepository,
	agencyRepo repository.AgencyRepository,
	activityRepo repository.ActivityRepository,
	notifier BillingNotifierInterface,
) *BillingService {
	return &BillingService{
		client:        client,
		webhookSecret: webhookSecret,
		subRepo:       subRepo,
		invoiceRepo:   invoiceRepo,
		eventRepo:     eventRepo,
		agencyRepo:    agencyRepo,
		activityRepo:  activityRepo,
		notifier:      notifier,
	}
}

// ==================== 结账 ====================

// CreateCheckout 发起订阅结账，返回 Stripe 托管页跳转信息
func (s *BillingService) CreateCheckout(ctx context.Context, agencyID int64, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	if s.client == nil {
		return nil, ErrServiceUnavailable
	}

	agency, err := s.agencyRepo.GetByID(ctx, agencyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	session, err := s.client.CreateCheckoutSession(ctx, &stripe.CheckoutParams{
		PriceID:           req.PriceID,
		CustomerID:        agency.StripeCustomerID,
		SuccessURL:        req.SuccessURL,
		CancelURL:         req.CancelURL,
		ClientReferenceID: strconv.FormatInt(agencyID, 10),
	})
	if err != nil {
		return nil, fmt.Errorf("创建结账会话失败: %v", err)
	}

	return &dto.CheckoutResponse{
		SessionID: session.ID,
		URL:       session.URL,
	}, nil
}

// ==================== Webhook 对账 ====================

// HandleWebhook 处理 Stripe webhook
// 签名校验失败返回 error（上层回 400）；验签通过后一律 ACK：
// 事件先落台账（event_id 撞唯一索引即重放，直接跳过），处理
// 失败只记录 handler_err，交给 Stripe 的重试与人工补账
func (s *BillingService) HandleWebhook(ctx context.Context, payload []byte, sigHeader string) error {
	event, err := stripe.ConstructEvent(payload, sigHeader, s.webhookSecret)
	if err != nil {
		return err
	}

	duplicate, err := s.eventRepo.Record(ctx, &model.WebhookEvent{
		EventID:   event.ID,
		EventType: string(event.Type),
		Payload:   payload,
	})
	if err != nil {
		return err
	}
	if duplicate {
		log.Printf("[账务] 跳过重放事件 %s (%s)", event.ID, event.Type)
		return nil
	}

	handlerErr := s.dispatch(ctx, event)
	errMsg := ""
	if handlerErr != nil {
		errMsg = handlerErr.Error()
		log.Printf("[账务] 事件 %s (%s) 处理失败: %v", event.ID, event.Type, handlerErr)
	}
	if err := s.eventRepo.MarkProcessed(ctx, event.ID, errMsg); err != nil {
		log.Printf("[账务] 事件 %s 台账更新失败: %v", event.ID, err)
	}
	return nil
}

// dispatch 按事件类型分发
func (s *BillingService) dispatch(ctx context.Context, event *stripe.Event) error {
	switch event.Type {
	case stripe.EventCheckoutSessionCompleted:
		return s.handleCheckoutCompleted(ctx, event.Data.Object)
	case stripe.EventSubscriptionCreated, stripe.EventSubscriptionUpdated:
		return s.handleSubscriptionUpsert(ctx, event.Data.Object)
	case stripe.EventSubscriptionDeleted:
		return s.handleSubscriptionDeleted(ctx, event.Data.Object)
	case stripe.EventInvoicePaid:
		return s.handleInvoicePaid(ctx, event.Data.Object)
	case stripe.EventInvoicePaymentFailed:
		return s.handleInvoiceFailed(ctx, event.Data.Object)
	default:
		// 未订阅的类型：记台账即可
		return nil
	}
}

// handleCheckoutCompleted 结账完成：绑定 Stripe 客户并激活租户
// 激活标记做二次触发防护，重复事件不会再发欢迎邮件
func (s *BillingService) handleCheckoutCompleted(ctx context.Context, object json.RawMessage) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(object, &session); err != nil {
		return fmt.Errorf("结账会话解析失败: %v", err)
	}

	agency, err := s.resolveAgency(ctx, session.ClientReferenceID, session.Customer)
	if err != nil {
		return err
	}

	fields := map[string]interface{}{
		"stripe_customer_id": session.Customer,
	}
	alreadyActivated := agency.IsActivated
	if !alreadyActivated {
		now := time.Now()
		fields["is_activated"] = true
		fields["activated_at"] = &now
	}
	if err := s.agencyRepo.UpdateFields(ctx, agency.ID, fields); err != nil {
		return err
	}

	s.recordActivity(ctx, agency.ID, model.ActivitySubscription, fmt.Sprintf("订阅结账完成: %s", agency.Name))

	if !alreadyActivated && s.notifier != nil && agency.ContactEmail != "" {
		if err := s.notifier.SendWelcome(ctx, agency.ContactEmail, agency.Name); err != nil {
			log.Printf("[账务] 欢迎邮件发送失败 agency=%d: %v", agency.ID, err)
		}
	}
	return nil
}

// handleSubscriptionUpsert 订阅创建/变更：镜像到本地
func (s *BillingService) handleSubscriptionUpsert(ctx context.Context, object json.RawMessage) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(object, &sub); err != nil {
		return fmt.Errorf("订阅对象解析失败: %v", err)
	}

	agency, err := s.resolveAgency(ctx, "", sub.Customer)
	if err != nil {
		return err
	}

	local := &model.Subscription{
		AgencyID:             agency.ID,
		StripeSubscriptionID: sub.ID,
		StripeCustomerID:     sub.Customer,
		Plan:                 sub.Plan(),
		Status:               mapSubscriptionStatus(sub.Status),
	}
	if sub.CurrentPeriodEnd > 0 {
		end := time.Unix(sub.CurrentPeriodEnd, 0)
		local.CurrentPeriodEnd = &end
	}
	if sub.CanceledAt > 0 {
		canceled := time.Unix(sub.CanceledAt, 0)
		local.CanceledAt = &canceled
	}
	if err := s.subRepo.Upsert(ctx, local); err != nil {
		return err
	}

	s.recordActivity(ctx, agency.ID, model.ActivitySubscription,
		fmt.Sprintf("订阅状态: %s (%s)", local.Status, local.Plan))
	return nil
}

// handleSubscriptionDeleted 订阅删除：置 canceled 并停用租户
func (s *BillingService) handleSubscriptionDeleted(ctx context.Context, object json.RawMessage) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(object, &sub); err != nil {
		return fmt.Errorf("订阅对象解析失败: %v", err)
	}

	local, err := s.subRepo.GetByStripeID(ctx, sub.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 本地没有镜像，无从撤销
			return nil
		}
		return err
	}

	now := time.Now()
	if err := s.subRepo.UpdateFields(ctx, local.ID, map[string]interface{}{
		"status":      model.SubscriptionStatusCanceled,
		"canceled_at": &now,
	}); err != nil {
		return err
	}

	return s.agencyRepo.UpdateFields(ctx, local.AgencyID, map[string]interface{}{
		"is_activated": false,
	})
}

// handleInvoicePaid 账单支付成功
func (s *BillingService) handleInvoicePaid(ctx context.Context, object json.RawMessage) error {
	invoice, agencyID, err := s.parseInvoice(ctx, object)
	if err != nil {
		return err
	}

	invoice.Status = model.InvoiceStatusPaid
	if err := s.invoiceRepo.Upsert(ctx, invoice); err != nil {
		return err
	}

	s.recordActivity(ctx, agencyID, model.ActivityInvoicePaid,
		fmt.Sprintf("账单支付成功: %s %.2f", invoice.CurrencyCode, float64(invoice.AmountDue)/100))
	return nil
}

// handleInvoiceFailed 账单扣款失败：订阅置 past_due 并发催款邮件
func (s *BillingService) handleInvoiceFailed(ctx context.Context, object json.RawMessage) error {
	invoice, agencyID, err := s.parseInvoice(ctx, object)
	if err != nil {
		return err
	}

	invoice.Status = model.InvoiceStatusFailed
	invoice.PaidAt = nil
	if err := s.invoiceRepo.Upsert(ctx, invoice); err != nil {
		return err
	}

	if sub, err := s.subRepo.GetActiveByAgencyID(ctx, agencyID); err == nil {
		if err := s.subRepo.UpdateFields(ctx, sub.ID, map[string]interface{}{
			"status": model.SubscriptionStatusPastDue,
		}); err != nil {
			return err
		}
	}

	if s.notifier != nil {
		if agency, err := s.agencyRepo.GetByID(ctx, agencyID); err == nil && agency.ContactEmail != "" {
			if err := s.notifier.SendPaymentFailed(ctx, agency.ContactEmail, agency.Name,
				invoice.AmountDue, invoice.CurrencyCode); err != nil {
				log.Printf("[账务] 催款邮件发送失败 agency=%d: %v", agencyID, err)
			}
		}
	}
	return nil
}

// ==================== 查询 ====================

// GetMySubscription 当前租户的活动订阅
func (s *BillingService) GetMySubscription(ctx context.Context, agencyID int64) (*dto.SubscriptionVO, error) {
	sub, err := s.subRepo.GetActiveByAgencyID(ctx, agencyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	vo := toSubscriptionVO(sub)
	return &vo, nil
}

// ListMyInvoices 当前租户的账单列表
func (s *BillingService) ListMyInvoices(ctx context.Context, agencyID int64, page, pageSize int) ([]dto.InvoiceVO, int64, error) {
	invoices, total, err := s.invoiceRepo.ListByAgencyID(ctx, agencyID, page, pageSize)
	if err != nil {
		return nil, 0, err
	}

	vos := make([]dto.InvoiceVO, len(invoices))
	for i := range invoices {
		vos[i] = toInvoiceVO(&invoices[i])
	}
	return vos, total, nil
}

// Overview 管理端账务总览
func (s *BillingService) Overview(ctx context.Context, page, pageSize int) (*dto.BillingOverviewVO, error) {
	subs, total, err := s.subRepo.ListAll(ctx, page, pageSize)
	if err != nil {
		return nil, err
	}

	overview := &dto.BillingOverviewVO{
		TotalSubscriptions: total,
	}
	for i := range subs {
		if subs[i].Status == model.SubscriptionStatusActive {
			overview.ActiveSubscriptions++
		}
		overview.Subscriptions = append(overview.Subscriptions, toSubscriptionVO(&subs[i]))
	}
	return overview, nil
}

// ==================== 辅助方法 ====================

// resolveAgency 定位事件归属的租户
// 优先 client_reference_id（结账会话带回），其次 Stripe 客户 ID
func (s *BillingService) resolveAgency(ctx context.Context, clientRef, customerID string) (*model.Agency, error) {
	if clientRef != "" {
		if agencyID, err := strconv.ParseInt(clientRef, 10, 64); err == nil {
			agency, err := s.agencyRepo.GetByID(ctx, agencyID)
			if err == nil {
				return agency, nil
			}
		}
	}
	if customerID != "" {
		agency, err := s.agencyRepo.GetByStripeCustomerID(ctx, customerID)
		if err == nil {
			return agency, nil
		}
	}
	return nil, fmt.Errorf("事件无法关联租户 (ref=%q customer=%q)", clientRef, customerID)
}

// parseInvoice 解析账单对象并定位租户
func (s *BillingService) parseInvoice(ctx context.Context, object json.RawMessage) (*model.Invoice, int64, error) {
	var inv stripe.Invoice
	if err := json.Unmarshal(object, &inv); err != nil {
		return nil, 0, fmt.Errorf("账单对象解析失败: %v", err)
	}

	agency, err := s.resolveAgency(ctx, "", inv.Customer)
	if err != nil {
		return nil, 0, err
	}

	local := &model.Invoice{
		AgencyID:        agency.ID,
		StripeInvoiceID: inv.ID,
		AmountDue:       inv.AmountDue,
		CurrencyCode:    inv.Currency,
		HostedURL:       inv.HostedInvoiceURL,
	}
	if inv.StatusTransition.PaidAt > 0 {
		paid := time.Unix(inv.StatusTransition.PaidAt, 0)
		local.PaidAt = &paid
	}
	return local, agency.ID, nil
}

func (s *BillingService) recordActivity(ctx context.Context, agencyID int64, verb, summary string) {
	if err := s.activityRepo.Create(ctx, &model.ActivityEvent{
		AgencyID:   agencyID,
		Verb:       verb,
		ObjectType: "billing",
		Summary:    summary,
	}); err != nil {
		log.Printf("[账务] 记录动态失败 agency=%d: %v", agencyID, err)
	}
}

// mapSubscriptionStatus Stripe 订阅状态映射到本地枚举
func mapSubscriptionStatus(status string) string {
	switch status {
	case "active", "trialing":
		return model.SubscriptionStatusActive
	case "past_due", "unpaid":
		return model.SubscriptionStatusPastDue
	case "canceled", "incomplete_expired":
		return model.SubscriptionStatusCanceled
	default:
		return status
	}
}

func toSubscriptionVO(sub *model.Subscription) dto.SubscriptionVO {
	vo := dto.SubscriptionVO{
		ID:       sub.ID,
		AgencyID: sub.AgencyID,
		Plan:     sub.Plan,
		Status:   sub.Status,
	}
	if sub.CurrentPeriodEnd != nil {
		vo.CurrentPeriodEnd = sub.CurrentPeriodEnd.Format("2006-01-02 15:04:05")
	}
	return vo
}

func toInvoiceVO(inv *model.Invoice) dto.InvoiceVO {
	vo := dto.InvoiceVO{
		ID:           inv.ID,
		AmountDue:    inv.AmountDue,
		CurrencyCode: inv.CurrencyCode,
		Status:       inv.Status,
		HostedURL:    inv.HostedURL,
	}
	if inv.PaidAt != nil {
		vo.PaidAt = inv.PaidAt.Format("2006-01-02 15:04:05")
	}
	return vo
}
