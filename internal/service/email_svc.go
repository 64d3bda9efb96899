package service

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"

	"gopkg.in/gomail.v2"
)

// ==================== 接口定义 ====================

// EmailProvider 邮件提供者接口
type EmailProvider interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// ==================== 配置 ====================

type EmailConfig struct {
	Provider string // "smtp" | "mock"
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// ==================== 工厂方法 ====================

func NewEmailProvider(cfg *EmailConfig) (EmailProvider, error) {
	switch cfg.Provider {
	case "smtp":
		return NewSMTPProvider(cfg)
	case "mock":
		return NewMockEmailProvider(), nil
	default:
		return nil, fmt.Errorf("不支持的邮件提供者: %s", cfg.Provider)
	}
}

// ==================== EmailService 邮件服务 ====================

// EmailService 业务邮件服务
// 同时实现审核通知与账务通知接口
type EmailService struct {
	provider EmailProvider
}

// NewEmailService 创建邮件服务
func NewEmailService(provider EmailProvider) *EmailService {
	return &EmailService{provider: provider}
}

// SendReviewResult 审核结果通知
func (s *EmailService) SendReviewResult(ctx context.Context, to, listingTitle string, approved bool, notes string) error {
	subject := fmt.Sprintf("房源审核结果：%s", listingTitle)
	body := fmt.Sprintf(`<p>您提交的房源 <b>%s</b> 审核%s。</p>`, listingTitle, decisionLabel(approved))
	if !approved && notes != "" {
		body += fmt.Sprintf(`<p>驳回原因：%s</p><p>修改后可重新提交审核。</p>`, notes)
	}
	return s.provider.Send(ctx, to, subject, body)
}

// SendWelcome 订阅开通欢迎邮件
func (s *EmailService) SendWelcome(ctx context.Context, to, agencyName string) error {
	subject := "欢迎入驻"
	body := fmt.Sprintf(`<p>%s 您好，</p><p>订阅已开通，账号已激活，现在可以发布房源了。</p>`, agencyName)
	return s.provider.Send(ctx, to, subject, body)
}

// SendPaymentFailed 扣款失败催款邮件
func (s *EmailService) SendPaymentFailed(ctx context.Context, to, agencyName string, amountDue int64, currency string) error {
	subject := "订阅扣款失败"
	body := fmt.Sprintf(`<p>%s 您好，</p><p>本期账单 %s %.2f 扣款失败，请尽快更新支付方式，以免影响房源展示。</p>`,
		agencyName, currency, float64(amountDue)/100)
	return s.provider.Send(ctx, to, subject, body)
}

// ==================== SMTP 实现 ====================

type SMTPProvider struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPProvider(cfg *EmailConfig) (*SMTPProvider, error) {
	if cfg.Host == "" || cfg.From == "" {
		return nil, fmt.Errorf("SMTP 配置不完整")
	}
	port := cfg.Port
	if port == 0 {
		port = 587
	}
	return &SMTPProvider{
		dialer: gomail.NewDialer(cfg.Host, port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}, nil
}

func (p *SMTPProvider) Send(ctx context.Context, to, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", p.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := p.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("SMTP 发送失败: %v", err)
	}
	return nil
}

// ==================== Mock 实现 (开发测试用) ====================

// MockEmailProvider 开发环境邮件桩
// 只记日志并留存发送记录，按 failRate 概率模拟发送失败
type MockEmailProvider struct {
	mu       sync.Mutex
	Sent     []MockEmail
	failRate float64
	rng      func() float64
}

// MockEmail 发送记录
type MockEmail struct {
	To      string
	Subject string
	Body    string
}

func NewMockEmailProvider() *MockEmailProvider {
	return &MockEmailProvider{
		failRate: 0.05,
		rng:      rand.Float64,
	}
}

// SetFailure 调整模拟失败概率与随机源（测试用）
func (p *MockEmailProvider) SetFailure(rate float64, rng func() float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failRate = rate
	if rng != nil {
		p.rng = rng
	}
}

func (p *MockEmailProvider) Send(ctx context.Context, to, subject, htmlBody string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.rng() < p.failRate {
		return fmt.Errorf("模拟发送失败: %s", to)
	}

	p.Sent = append(p.Sent, MockEmail{To: to, Subject: subject, Body: htmlBody})
	log.Printf("[邮件][mock] to=%s subject=%s", to, subject)
	return nil
}
