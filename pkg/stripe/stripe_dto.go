package stripe

import "encoding/json"

// ==================== 事件类型 ====================

// EventType Stripe 事件类型（封闭枚举）
// webhook 处理按此枚举做穷尽分发，未列出的类型走默认空分支
type EventType string

const (
	EventCheckoutSessionCompleted EventType = "checkout.session.completed"
	EventSubscriptionCreated      EventType = "customer.subscription.created"
	EventSubscriptionUpdated      EventType = "customer.subscription.updated"
	EventSubscriptionDeleted      EventType = "customer.subscription.deleted"
	EventInvoicePaid              EventType = "invoice.paid"
	EventInvoicePaymentFailed     EventType = "invoice.payment_failed"
)

// Event 解析后的 webhook 事件
type Event struct {
	ID      string    `json:"id"`
	Type    EventType `json:"type"`
	Created int64     `json:"created"`
	Data    struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// ==================== 对象 DTO ====================

// CheckoutSession 结账会话对象
type CheckoutSession struct {
	ID           string `json:"id"`
	URL          string `json:"url"`
	Customer     string `json:"customer"`
	Subscription string `json:"subscription"`
	Status       string `json:"status"`
	// 创建会话时带上的业务引用，回传开发商 ID
	ClientReferenceID string `json:"client_reference_id"`
}

// Subscription 订阅对象
type Subscription struct {
	ID               string `json:"id"`
	Customer         string `json:"customer"`
	Status           string `json:"status"`
	CurrentPeriodEnd int64  `json:"current_period_end"`
	CanceledAt       int64  `json:"canceled_at"`
	Items            struct {
		Data []struct {
			Price struct {
				ID       string `json:"id"`
				Nickname string `json:"nickname"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
}

// Plan 取订阅绑定的套餐标识
func (s *Subscription) Plan() string {
	if len(s.Items.Data) == 0 {
		return ""
	}
	if n := s.Items.Data[0].Price.Nickname; n != "" {
		return n
	}
	return s.Items.Data[0].Price.ID
}

// Invoice 账单对象
type Invoice struct {
	ID               string `json:"id"`
	Customer         string `json:"customer"`
	AmountDue        int64  `json:"amount_due"`
	Currency         string `json:"currency"`
	Status           string `json:"status"`
	HostedInvoiceURL string `json:"hosted_invoice_url"`
	StatusTransition struct {
		PaidAt int64 `json:"paid_at"`
	} `json:"status_transitions"`
}

// APIError Stripe 错误响应
type APIError struct {
	ErrorInfo struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
