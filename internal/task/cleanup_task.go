package task

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"estate_dev_v1_202609/internal/repository"
)

// ==================== DraftCleanupTask 草稿清理任务 ====================

// DraftCleanupTask 定时清理长期未更新的向导草稿快照
type DraftCleanupTask struct {
	draftRepo repository.DraftRepository
	cron      *cron.Cron

	// 草稿保留时长，超过后视为废弃
	retention time.Duration
}

// NewDraftCleanupTask 创建草稿清理任务
func NewDraftCleanupTask(draftRepo repository.DraftRepository) *DraftCleanupTask {
	return &DraftCleanupTask{
		draftRepo: draftRepo,
		cron:      cron.New(cron.WithSeconds()),
		retention: 30 * 24 * time.Hour,
	}
}

// SetRetention 设置草稿保留时长
func (t *DraftCleanupTask) SetRetention(d time.Duration) {
	if d > 0 {
		t.retention = d
	}
}

// Start 启动定时任务
func (t *DraftCleanupTask) Start() {
	// 每天凌晨 3:30 执行
	_, err := t.cron.AddFunc("0 30 3 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		t.cleanup(ctx)
	})
	if err != nil {
		log.Printf("[DraftCleanupTask] 定时任务启动失败: %v", err)
		return
	}

	t.cron.Start()
	log.Println("[DraftCleanupTask] 已启动 (每天 03:30)")
}

// Stop 停止任务
func (t *DraftCleanupTask) Stop() {
	ctx := t.cron.Stop()
	<-ctx.Done()
	log.Println("[DraftCleanupTask] 已停止")
}

// CleanupNow 手动触发一次清理
func (t *DraftCleanupTask) CleanupNow(ctx context.Context) {
	t.cleanup(ctx)
}

// cleanup 清理过期草稿
func (t *DraftCleanupTask) cleanup(ctx context.Context) {
	before := time.Now().Add(-t.retention)
	deleted, err := t.draftRepo.DeleteIdleBefore(ctx, before)
	if err != nil {
		log.Printf("[DraftCleanupTask] 清理草稿失败: %v", err)
		return
	}
	if deleted > 0 {
		log.Printf("[DraftCleanupTask] 已清理 %d 个过期草稿 (早于 %s)", deleted, before.Format("2006-01-02"))
	}
}
