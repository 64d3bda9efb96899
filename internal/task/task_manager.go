package task

import (
	"context"
	"errors"
	"log"
	"time"

	"estate_dev_v1_202609/internal/repository"
)

// ==================== TaskManager 后台任务管理器 ====================

// ErrTaskDisabled 任务未启用
var ErrTaskDisabled = errors.New("任务未启用")

// TaskManager 统一管理后台定时任务
// 管理范围：自动发布扫描、草稿清理、订阅过期兜底
type TaskManager struct {
	publishTask *PublishSweepTask
	cleanupTask *DraftCleanupTask
	expireTask  *SubscriptionExpireTask
}

// TaskManagerDeps 任务管理器依赖
type TaskManagerDeps struct {
	ListingRepo  repository.ListingRepository
	DraftRepo    repository.DraftRepository
	SubRepo      repository.SubscriptionRepository
	AgencyRepo   repository.AgencyRepository
	ActivityRepo repository.ActivityRepository
}

// TaskManagerConfig 任务管理器配置
type TaskManagerConfig struct {
	// 自动发布扫描
	PublishEnabled     bool
	PublishConcurrency int
	PublishBatchSize   int

	// 草稿清理
	CleanupEnabled   bool
	CleanupRetention time.Duration

	// 订阅过期兜底
	ExpireEnabled     bool
	ExpireGracePeriod time.Duration
}

// DefaultConfig 默认配置
func DefaultConfig() *TaskManagerConfig {
	return &TaskManagerConfig{
		PublishEnabled:     true,
		PublishConcurrency: 5,
		PublishBatchSize:   100,

		CleanupEnabled:   true,
		CleanupRetention: 30 * 24 * time.Hour,

		ExpireEnabled:     true,
		ExpireGracePeriod: 24 * time.Hour,
	}
}

// NewTaskManager 创建任务管理器
func NewTaskManager(deps *TaskManagerDeps, cfg *TaskManagerConfig) *TaskManager {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	tm := &TaskManager{}

	// 自动发布扫描
	if cfg.PublishEnabled && deps.ListingRepo != nil {
		tm.publishTask = NewPublishSweepTask(deps.ListingRepo, deps.ActivityRepo)
		tm.publishTask.SetConcurrency(cfg.PublishConcurrency, cfg.PublishBatchSize)
	}

	// 草稿清理
	if cfg.CleanupEnabled && deps.DraftRepo != nil {
		tm.cleanupTask = NewDraftCleanupTask(deps.DraftRepo)
		tm.cleanupTask.SetRetention(cfg.CleanupRetention)
	}

	// 订阅过期兜底
	if cfg.ExpireEnabled && deps.SubRepo != nil && deps.AgencyRepo != nil {
		tm.expireTask = NewSubscriptionExpireTask(deps.SubRepo, deps.AgencyRepo)
		tm.expireTask.SetGracePeriod(cfg.ExpireGracePeriod)
	}

	return tm
}

// ==================== 生命周期管理 ====================

// Start 启动所有任务
func (tm *TaskManager) Start() {
	log.Println("[TaskManager] 正在启动后台任务...")

	if tm.publishTask != nil {
		tm.publishTask.Start()
	}
	if tm.cleanupTask != nil {
		tm.cleanupTask.Start()
	}
	if tm.expireTask != nil {
		tm.expireTask.Start()
	}

	log.Println("[TaskManager] 后台任务已全部启动")
}

// Stop 停止所有任务
func (tm *TaskManager) Stop() {
	log.Println("[TaskManager] 正在停止后台任务...")

	if tm.publishTask != nil {
		tm.publishTask.Stop()
	}
	if tm.cleanupTask != nil {
		tm.cleanupTask.Stop()
	}
	if tm.expireTask != nil {
		tm.expireTask.Stop()
	}

	log.Println("[TaskManager] 后台任务已全部停止")
}

// ==================== 手动触发接口 ====================

// TriggerPublishSweep 触发一次自动发布扫描
func (tm *TaskManager) TriggerPublishSweep(ctx context.Context) error {
	if tm.publishTask == nil {
		return ErrTaskDisabled
	}
	tm.publishTask.SweepNow(ctx)
	return nil
}

// TriggerDraftCleanup 触发一次草稿清理
func (tm *TaskManager) TriggerDraftCleanup(ctx context.Context) error {
	if tm.cleanupTask == nil {
		return ErrTaskDisabled
	}
	tm.cleanupTask.CleanupNow(ctx)
	return nil
}

// TriggerSubscriptionExpire 触发一次订阅过期扫描
func (tm *TaskManager) TriggerSubscriptionExpire(ctx context.Context) error {
	if tm.expireTask == nil {
		return ErrTaskDisabled
	}
	tm.expireTask.ExpireNow(ctx)
	return nil
}
