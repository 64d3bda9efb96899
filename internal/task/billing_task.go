package task

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"estate_dev_v1_202609/internal/model"
	"estate_dev_v1_202609/internal/repository"
)

// ==================== SubscriptionExpireTask 订阅过期任务 ====================

// SubscriptionExpireTask 定时扫描计费周期已过仍标记 active 的订阅
// Stripe webhook 正常送达时本任务无事可做，只兜底漏收的情况
type SubscriptionExpireTask struct {
	subRepo    repository.SubscriptionRepository
	agencyRepo repository.AgencyRepository
	cron       *cron.Cron

	// 宽限期：周期结束后保留一段时间，等 Stripe 续费事件到达
	gracePeriod time.Duration
}

// NewSubscriptionExpireTask 创建订阅过期任务
func NewSubscriptionExpireTask(subRepo repository.SubscriptionRepository, agencyRepo repository.AgencyRepository) *SubscriptionExpireTask {
	return &SubscriptionExpireTask{
		subRepo:     subRepo,
		agencyRepo:  agencyRepo,
		cron:        cron.New(cron.WithSeconds()),
		gracePeriod: 24 * time.Hour,
	}
}

// SetGracePeriod 设置过期宽限期
func (t *SubscriptionExpireTask) SetGracePeriod(d time.Duration) {
	if d >= 0 {
		t.gracePeriod = d
	}
}

// Start 启动定时任务
func (t *SubscriptionExpireTask) Start() {
	// 每小时执行
	_, err := t.cron.AddFunc("0 0 * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		t.expireSweep(ctx)
	})
	if err != nil {
		log.Printf("[SubscriptionExpireTask] 定时任务启动失败: %v", err)
		return
	}

	t.cron.Start()
	log.Println("[SubscriptionExpireTask] 已启动 (每小时)")
}

// Stop 停止任务
func (t *SubscriptionExpireTask) Stop() {
	ctx := t.cron.Stop()
	<-ctx.Done()
	log.Println("[SubscriptionExpireTask] 已停止")
}

// ExpireNow 手动触发一次扫描
func (t *SubscriptionExpireTask) ExpireNow(ctx context.Context) {
	t.expireSweep(ctx)
}

// expireSweep 扫描并标记过期订阅
func (t *SubscriptionExpireTask) expireSweep(ctx context.Context) {
	cutoff := time.Now().Add(-t.gracePeriod)
	subs, err := t.subRepo.FindExpired(ctx, cutoff)
	if err != nil {
		log.Printf("[SubscriptionExpireTask] 查询过期订阅失败: %v", err)
		return
	}

	if len(subs) == 0 {
		return
	}

	log.Printf("[SubscriptionExpireTask] 发现 %d 个过期订阅", len(subs))

	var expiredCount int
	for _, sub := range subs {
		if err := t.expireOne(ctx, sub); err != nil {
			log.Printf("[SubscriptionExpireTask] 订阅 %s 标记过期失败: %v", sub.StripeSubscriptionID, err)
			continue
		}
		expiredCount++
	}

	log.Printf("[SubscriptionExpireTask] 处理完成: 已过期 %d", expiredCount)
}

// expireOne 标记单个订阅过期并停用开发商
func (t *SubscriptionExpireTask) expireOne(ctx context.Context, sub *model.Subscription) error {
	if err := t.subRepo.UpdateFields(ctx, sub.ID, map[string]interface{}{
		"status": model.SubscriptionStatusExpired,
	}); err != nil {
		return err
	}

	// 该开发商可能还有别的有效订阅，有则不停用
	active, err := t.subRepo.GetActiveByAgencyID(ctx, sub.AgencyID)
	if err == nil && active != nil && active.ID != sub.ID {
		return nil
	}

	return t.agencyRepo.UpdateFields(ctx, sub.AgencyID, map[string]interface{}{
		"is_activated": false,
	})
}
