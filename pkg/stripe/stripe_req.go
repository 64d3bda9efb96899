// Package stripe 封装对 Stripe API 的出站调用与 webhook 签名校验。
// 只覆盖本系统用到的结账/订阅/账单子集，不是完整 SDK。
package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultBaseURL = "https://api.stripe.com"

// Client Stripe API 客户端
type Client struct {
	http      *resty.Client
	secretKey string
}

// NewClient 创建客户端
// secretKey 为空时返回 nil，调用方据此降级
func NewClient(secretKey string) *Client {
	if secretKey == "" {
		return nil
	}

	client := resty.New().
		SetBaseURL(defaultBaseURL).
		SetTimeout(15 * time.Second).
		SetRetryCount(2).
		SetAuthToken(secretKey).
		SetHeader("Content-Type", "application/x-www-form-urlencoded")

	return &Client{
		http:      client,
		secretKey: secretKey,
	}
}

// ==================== Checkout ====================

// CheckoutParams 创建结账会话参数
type CheckoutParams struct {
	PriceID           string
	CustomerID        string // 已有客户可复用，为空则 Stripe 新建
	SuccessURL        string
	CancelURL         string
	ClientReferenceID string // 业务侧引用（开发商 ID）
}

// CreateCheckoutSession 创建订阅模式的结账会话
func (c *Client) CreateCheckoutSession(ctx context.Context, params *CheckoutParams) (*CheckoutSession, error) {
	form := map[string]string{
		"mode":                    "subscription",
		"line_items[0][price]":    params.PriceID,
		"line_items[0][quantity]": "1",
		"success_url":             params.SuccessURL,
		"cancel_url":              params.CancelURL,
		"client_reference_id":     params.ClientReferenceID,
	}
	if params.CustomerID != "" {
		form["customer"] = params.CustomerID
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(form).
		Post("/v1/checkout/sessions")
	if err != nil {
		return nil, fmt.Errorf("请求 Stripe 失败: %v", err)
	}
	if resp.IsError() {
		return nil, parseAPIError(resp.Body())
	}

	var session CheckoutSession
	if err := json.Unmarshal(resp.Body(), &session); err != nil {
		return nil, fmt.Errorf("解析结账会话失败: %v", err)
	}
	return &session, nil
}

// ==================== Subscription ====================

// GetSubscription 查询订阅
func (c *Client) GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Get("/v1/subscriptions/" + subscriptionID)
	if err != nil {
		return nil, fmt.Errorf("请求 Stripe 失败: %v", err)
	}
	if resp.IsError() {
		return nil, parseAPIError(resp.Body())
	}

	var sub Subscription
	if err := json.Unmarshal(resp.Body(), &sub); err != nil {
		return nil, fmt.Errorf("解析订阅失败: %v", err)
	}
	return &sub, nil
}

// CancelSubscription 取消订阅
func (c *Client) CancelSubscription(ctx context.Context, subscriptionID string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		Delete("/v1/subscriptions/" + subscriptionID)
	if err != nil {
		return fmt.Errorf("请求 Stripe 失败: %v", err)
	}
	if resp.IsError() {
		return parseAPIError(resp.Body())
	}
	return nil
}

// ==================== 错误解析 ====================

func parseAPIError(body []byte) error {
	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.ErrorInfo.Message != "" {
		return fmt.Errorf("Stripe 拒绝请求 [%s]: %s", apiErr.ErrorInfo.Code, apiErr.ErrorInfo.Message)
	}
	return fmt.Errorf("Stripe 拒绝请求: %s", string(body))
}
