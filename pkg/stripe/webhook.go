package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// 签名校验错误
var (
	ErrMissingSignature = errors.New("缺少签名头")
	ErrInvalidSignature = errors.New("签名校验失败")
	ErrTimestampTooOld  = errors.New("签名时间戳超出容忍窗口")
)

// DefaultTolerance 时间戳容忍窗口，防重放
const DefaultTolerance = 5 * time.Minute

// ConstructEvent 校验签名并解析事件
// 签名头格式: t=<unix>,v1=<hex hmac>[,v1=...]
// 签名算法: HMAC-SHA256(secret, "<t>.<payload>")
func ConstructEvent(payload []byte, sigHeader, secret string) (*Event, error) {
	return ConstructEventWithTolerance(payload, sigHeader, secret, DefaultTolerance, time.Now())
}

// ConstructEventWithTolerance 带自定义容忍窗口的解析（测试用）
func ConstructEventWithTolerance(payload []byte, sigHeader, secret string, tolerance time.Duration, now time.Time) (*Event, error) {
	timestamp, signatures, err := parseSignatureHeader(sigHeader)
	if err != nil {
		return nil, err
	}

	if tolerance > 0 {
		ts := time.Unix(timestamp, 0)
		if now.Sub(ts) > tolerance {
			return nil, ErrTimestampTooOld
		}
	}

	expected := ComputeSignature(payload, timestamp, secret)
	valid := false
	for _, sig := range signatures {
		sigBytes, err := hex.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(sigBytes, expected) {
			valid = true
			break
		}
	}
	if !valid {
		return nil, ErrInvalidSignature
	}

	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("事件体解析失败: %v", err)
	}
	return &event, nil
}

// ComputeSignature 计算签名原文 "<t>.<payload>" 的 HMAC-SHA256
func ComputeSignature(payload []byte, timestamp int64, secret string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	return mac.Sum(nil)
}

// SignPayload 生成签名头（测试与本地模拟用）
func SignPayload(payload []byte, timestamp int64, secret string) string {
	sig := ComputeSignature(payload, timestamp, secret)
	return fmt.Sprintf("t=%d,v1=%s", timestamp, hex.EncodeToString(sig))
}

// parseSignatureHeader 解析签名头，允许多个 v1 条目
func parseSignatureHeader(header string) (int64, []string, error) {
	if header == "" {
		return 0, nil, ErrMissingSignature
	}

	var timestamp int64 = -1
	var signatures []string

	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			ts, err := strconv.ParseInt(kv[1], 10, 64)
			if err != nil {
				return 0, nil, ErrInvalidSignature
			}
			timestamp = ts
		case "v1":
			signatures = append(signatures, kv[1])
		}
	}

	if timestamp < 0 || len(signatures) == 0 {
		return 0, nil, ErrInvalidSignature
	}
	return timestamp, signatures, nil
}
