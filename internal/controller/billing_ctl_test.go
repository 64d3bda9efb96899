package controller

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"estate_dev_v1_202609/internal/model"
	"estate_dev_v1_202609/internal/repository"
	"estate_dev_v1_202609/internal/service"
	"estate_dev_v1_202609/pkg/stripe"
)

const billingCtlSecret = "whsec_ctl_test"

// ==================== 测试辅助 ====================

func setupBillingCtlRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}
	err = db.AutoMigrate(
		&model.Agency{}, &model.Subscription{}, &model.Invoice{},
		&model.WebhookEvent{}, &model.ActivityEvent{},
	)
	if err != nil {
		t.Fatalf("数据库迁移失败: %v", err)
	}

	billingSvc := service.NewBillingService(
		nil, billingCtlSecret,
		repository.NewSubscriptionRepository(db),
		repository.NewInvoiceRepository(db),
		repository.NewWebhookEventRepository(db),
		repository.NewAgencyRepository(db),
		repository.NewActivityRepository(db),
		nil,
	)
	ctl := NewBillingController(billingSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.POST("/api/billing/webhook", ctl.Webhook)
	return r, db
}

func postWebhook(router *gin.Engine, payload []byte, sigHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/billing/webhook", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if sigHeader != "" {
		req.Header.Set("Stripe-Signature", sigHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// ==================== 测试用例 ====================

func TestBillingController_WebhookBadSignature(t *testing.T) {
	router, _ := setupBillingCtlRouter(t)
	payload := []byte(`{"id":"evt_ctl_1","type":"invoice.paid","data":{"object":{}}}`)

	// 无签名头
	if w := postWebhook(router, payload, ""); w.Code != http.StatusBadRequest {
		t.Errorf("无签名 status = %d, want 400", w.Code)
	}

	// 错误密钥签名
	bad := stripe.SignPayload(payload, time.Now().Unix(), "whsec_wrong")
	if w := postWebhook(router, payload, bad); w.Code != http.StatusBadRequest {
		t.Errorf("坏签名 status = %d, want 400", w.Code)
	}
}

func TestBillingController_WebhookAck(t *testing.T) {
	router, db := setupBillingCtlRouter(t)

	// 未知客户的事件也要 ACK，错误留在账本里
	payload := []byte(fmt.Sprintf(
		`{"id":"evt_ctl_2","type":"checkout.session.completed","created":%d,"data":{"object":{"id":"cs_1","customer":"cus_missing","client_reference_id":"999"}}}`,
		time.Now().Unix()))
	header := stripe.SignPayload(payload, time.Now().Unix(), billingCtlSecret)

	w := postWebhook(router, payload, header)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var ledger model.WebhookEvent
	if err := db.Where("event_id = ?", "evt_ctl_2").First(&ledger).Error; err != nil {
		t.Fatalf("账本未落库: %v", err)
	}

	// 精确重放同样 ACK
	if w := postWebhook(router, payload, header); w.Code != http.StatusOK {
		t.Errorf("重放 status = %d, want 200", w.Code)
	}
	var count int64
	db.Model(&model.WebhookEvent{}).Where("event_id = ?", "evt_ctl_2").Count(&count)
	if count != 1 {
		t.Errorf("账本行数 = %d, want 1", count)
	}
}
