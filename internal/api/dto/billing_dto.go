package dto

// CheckoutRequest 发起订阅结账
type CheckoutRequest struct {
	PriceID    string `json:"price_id" binding:"required"`
	SuccessURL string `json:"success_url" binding:"required,url"`
	CancelURL  string `json:"cancel_url" binding:"required,url"`
}

// CheckoutResponse 结账会话跳转信息
type CheckoutResponse struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// SubscriptionVO 订阅视图
type SubscriptionVO struct {
	ID               int64  `json:"id"`
	AgencyID         int64  `json:"agency_id"`
	Plan             string `json:"plan"`
	Status           string `json:"status"`
	CurrentPeriodEnd string `json:"current_period_end,omitempty"`
}

// InvoiceVO 账单视图
type InvoiceVO struct {
	ID           int64  `json:"id"`
	AmountDue    int64  `json:"amount_due"`
	CurrencyCode string `json:"currency_code"`
	Status       string `json:"status"`
	PaidAt       string `json:"paid_at,omitempty"`
	HostedURL    string `json:"hosted_url,omitempty"`
}

// BillingOverviewVO 管理端账务总览
type BillingOverviewVO struct {
	TotalSubscriptions  int64            `json:"total_subscriptions"`
	ActiveSubscriptions int64            `json:"active_subscriptions"`
	Subscriptions       []SubscriptionVO `json:"subscriptions"`
}
