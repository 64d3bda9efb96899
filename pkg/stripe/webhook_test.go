package stripe

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

const testWebhookSecret = "whsec_unit_test"

func TestConstructEvent_Valid(t *testing.T) {
	payload := []byte(`{"id":"evt_001","type":"invoice.paid","created":1756700000,"data":{"object":{}}}`)
	now := time.Now()
	header := SignPayload(payload, now.Unix(), testWebhookSecret)

	event, err := ConstructEventWithTolerance(payload, header, testWebhookSecret, DefaultTolerance, now)
	if err != nil {
		t.Fatalf("ConstructEventWithTolerance() error = %v", err)
	}
	if event.ID != "evt_001" {
		t.Errorf("ID = %s, want evt_001", event.ID)
	}
	if event.Type != EventInvoicePaid {
		t.Errorf("Type = %s, want invoice.paid", event.Type)
	}
}

func TestConstructEvent_WrongSecret(t *testing.T) {
	payload := []byte(`{"id":"evt_002","type":"invoice.paid"}`)
	now := time.Now()
	header := SignPayload(payload, now.Unix(), "whsec_other")

	if _, err := ConstructEventWithTolerance(payload, header, testWebhookSecret, DefaultTolerance, now); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("error = %v, want ErrInvalidSignature", err)
	}
}

func TestConstructEvent_TamperedPayload(t *testing.T) {
	payload := []byte(`{"id":"evt_003","type":"invoice.paid"}`)
	now := time.Now()
	header := SignPayload(payload, now.Unix(), testWebhookSecret)

	tampered := []byte(`{"id":"evt_003","type":"invoice.payment_failed"}`)
	if _, err := ConstructEventWithTolerance(tampered, header, testWebhookSecret, DefaultTolerance, now); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("error = %v, want ErrInvalidSignature", err)
	}
}

func TestConstructEvent_StaleTimestamp(t *testing.T) {
	payload := []byte(`{"id":"evt_004","type":"invoice.paid"}`)
	now := time.Now()
	header := SignPayload(payload, now.Add(-10*time.Minute).Unix(), testWebhookSecret)

	if _, err := ConstructEventWithTolerance(payload, header, testWebhookSecret, DefaultTolerance, now); !errors.Is(err, ErrTimestampTooOld) {
		t.Fatalf("error = %v, want ErrTimestampTooOld", err)
	}

	// 容忍窗口关闭时旧时间戳也放行
	if _, err := ConstructEventWithTolerance(payload, header, testWebhookSecret, 0, now); err != nil {
		t.Fatalf("tolerance=0 error = %v", err)
	}
}

func TestConstructEvent_BadHeader(t *testing.T) {
	payload := []byte(`{"id":"evt_005","type":"invoice.paid"}`)
	now := time.Now()
	ts := now.Unix()

	cases := []struct {
		name    string
		header  string
		wantErr error
	}{
		{"缺少签名头", "", ErrMissingSignature},
		{"缺少v1", fmt.Sprintf("t=%d", ts), ErrInvalidSignature},
		{"缺少时间戳", "v1=deadbeef", ErrInvalidSignature},
		{"时间戳非数字", "t=abc,v1=deadbeef", ErrInvalidSignature},
		{"签名非hex", fmt.Sprintf("t=%d,v1=zzzz", ts), ErrInvalidSignature},
	}
	for _, tc := range cases {
		_, err := ConstructEventWithTolerance(payload, tc.header, testWebhookSecret, DefaultTolerance, now)
		if !errors.Is(err, tc.wantErr) {
			t.Errorf("%s: error = %v, want %v", tc.name, err, tc.wantErr)
		}
	}
}

func TestConstructEvent_MultipleSignatures(t *testing.T) {
	payload := []byte(`{"id":"evt_006","type":"checkout.session.completed","data":{"object":{}}}`)
	now := time.Now()
	good := SignPayload(payload, now.Unix(), testWebhookSecret)
	// 额外附带一个坏签名，任一 v1 命中即通过
	header := good + ",v1=0000000000000000000000000000000000000000000000000000000000000000"

	event, err := ConstructEventWithTolerance(payload, header, testWebhookSecret, DefaultTolerance, now)
	if err != nil {
		t.Fatalf("ConstructEventWithTolerance() error = %v", err)
	}
	if event.Type != EventCheckoutSessionCompleted {
		t.Errorf("Type = %s", event.Type)
	}
}
