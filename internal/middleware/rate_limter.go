package middleware

import (
	"fmt"
	"sync"
	"time"
)

// ==================== CooldownLimiter 冷却限流器 ====================

// CooldownLimiter 冷却限流器
// 防止前端频繁触发地图代理 / 看板刷新导致上游配额耗尽
type CooldownLimiter struct {
	locks sync.Map // key -> *lockEntry
}

// lockEntry 锁条目
type lockEntry struct {
	lastTime time.Time
	mu       sync.Mutex
}

// 全局限流器实例
var globalLimiter = &CooldownLimiter{}

// GetLimiter 获取全局限流器
func GetLimiter() *CooldownLimiter {
	return globalLimiter
}

// ==================== 限流检查 ====================

// CheckResult 检查结果
type CheckResult struct {
	Allowed    bool          // 是否允许
	RetryAfter time.Duration // 剩余冷却时间
}

// Check 检查是否允许执行
// key: 限流键，如 "user:123:maps_geocode"
// interval: 冷却间隔
func (r *CooldownLimiter) Check(key string, interval time.Duration) CheckResult {
	// 获取或创建锁条目
	actual, _ := r.locks.LoadOrStore(key, &lockEntry{})
	entry := actual.(*lockEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(entry.lastTime)

	if elapsed < interval {
		return CheckResult{
			Allowed:    false,
			RetryAfter: interval - elapsed,
		}
	}

	// 更新最后执行时间
	entry.lastTime = now
	return CheckResult{
		Allowed:    true,
		RetryAfter: 0,
	}
}

// CheckOnly 仅检查，不更新时间
func (r *CooldownLimiter) CheckOnly(key string, interval time.Duration) CheckResult {
	actual, ok := r.locks.Load(key)
	if !ok {
		return CheckResult{Allowed: true}
	}

	entry := actual.(*lockEntry)
	entry.mu.Lock()
	defer entry.mu.Unlock()

	elapsed := time.Since(entry.lastTime)
	if elapsed < interval {
		return CheckResult{
			Allowed:    false,
			RetryAfter: interval - elapsed,
		}
	}

	return CheckResult{Allowed: true}
}

// Reset 重置指定 key 的限流
func (r *CooldownLimiter) Reset(key string) {
	r.locks.Delete(key)
}

// ==================== Key 生成工具 ====================

// ThrottleScope 限流场景
type ThrottleScope string

const (
	ScopeMapsGeocode  ThrottleScope = "maps_geocode"
	ScopeMapsSuggest  ThrottleScope = "maps_suggest"
	ScopeDashboard    ThrottleScope = "dashboard"
	ScopeWizardSubmit ThrottleScope = "wizard_submit"
)

// UserThrottleKey 生成用户级限流 Key
func UserThrottleKey(userID int64, scope ThrottleScope) string {
	return fmt.Sprintf("user:%d:%s", userID, scope)
}

// AgencyThrottleKey 生成机构级限流 Key
func AgencyThrottleKey(agencyID int64, scope ThrottleScope) string {
	return fmt.Sprintf("agency:%d:%s", agencyID, scope)
}

// ==================== 默认限流间隔 ====================

// DefaultIntervals 默认限流间隔配置
var DefaultIntervals = map[ThrottleScope]time.Duration{
	ScopeMapsGeocode:  1 * time.Second,
	ScopeMapsSuggest:  300 * time.Millisecond,
	ScopeDashboard:    5 * time.Second,
	ScopeWizardSubmit: 3 * time.Second,
}

// GetInterval 获取场景的默认间隔
func GetInterval(scope ThrottleScope) time.Duration {
	if interval, ok := DefaultIntervals[scope]; ok {
		return interval
	}
	return 1 * time.Second
}
