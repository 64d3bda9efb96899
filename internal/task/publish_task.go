package task

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"estate_dev_v1_202609/internal/model"
	"estate_dev_v1_202609/internal/repository"
)

// ==================== PublishSweepTask 自动发布任务 ====================

// PublishSweepTask 定时扫描审核通过且开启自动发布的房源并上架
// 覆盖审核通过时服务崩溃、auto_publish 事后打开等漏发场景
type PublishSweepTask struct {
	listingRepo  repository.ListingRepository
	activityRepo repository.ActivityRepository
	cron         *cron.Cron

	// 并发控制
	concurrencyLimit int
	batchSize        int
}

// NewPublishSweepTask 创建自动发布任务
func NewPublishSweepTask(listingRepo repository.ListingRepository, activityRepo repository.ActivityRepository) *PublishSweepTask {
	return &PublishSweepTask{
		listingRepo:      listingRepo,
		activityRepo:     activityRepo,
		cron:             cron.New(cron.WithSeconds()),
		concurrencyLimit: 5,
		batchSize:        100,
	}
}

// SetConcurrency 设置并发参数
func (t *PublishSweepTask) SetConcurrency(limit, batchSize int) {
	t.concurrencyLimit = limit
	t.batchSize = batchSize
}

// Start 启动定时任务
func (t *PublishSweepTask) Start() {
	// 首次执行（延迟 15 秒）
	go func() {
		time.Sleep(15 * time.Second)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		log.Println("[PublishSweepTask] 执行首次发布扫描...")
		t.sweep(ctx)
	}()

	// 每分钟执行
	_, err := t.cron.AddFunc("0 * * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		t.sweep(ctx)
	})
	if err != nil {
		log.Printf("[PublishSweepTask] 定时任务启动失败: %v", err)
		return
	}

	t.cron.Start()
	log.Println("[PublishSweepTask] 已启动 (每分钟)")
}

// Stop 停止任务
func (t *PublishSweepTask) Stop() {
	ctx := t.cron.Stop()
	<-ctx.Done()
	log.Println("[PublishSweepTask] 已停止")
}

// SweepNow 手动触发一次扫描
func (t *PublishSweepTask) SweepNow(ctx context.Context) {
	t.sweep(ctx)
}

// sweep 扫描并发布
func (t *PublishSweepTask) sweep(ctx context.Context) {
	listings, err := t.listingRepo.FindAutoPublishable(ctx, t.batchSize)
	if err != nil {
		log.Printf("[PublishSweepTask] 查询待发布房源失败: %v", err)
		return
	}

	if len(listings) == 0 {
		return
	}

	log.Printf("[PublishSweepTask] 发现 %d 个待自动发布房源", len(listings))

	sem := make(chan struct{}, t.concurrencyLimit)
	var wg sync.WaitGroup
	var successCount, failCount int
	var mu sync.Mutex

	for i := range listings {
		listing := listings[i]
		select {
		case <-ctx.Done():
			log.Println("[PublishSweepTask] 任务超时停止")
			wg.Wait()
			return
		default:
		}

		sem <- struct{}{}
		wg.Add(1)

		go func(listing *model.Listing) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := t.publishOne(ctx, listing); err != nil {
				log.Printf("[PublishSweepTask] 房源 %s(%d) 发布失败: %v", listing.Title, listing.ID, err)
				mu.Lock()
				failCount++
				mu.Unlock()
			} else {
				mu.Lock()
				successCount++
				mu.Unlock()
			}
		}(listing)
	}

	wg.Wait()
	log.Printf("[PublishSweepTask] 扫描完成: 成功 %d, 失败 %d", successCount, failCount)
}

// publishOne 发布单个房源
func (t *PublishSweepTask) publishOne(ctx context.Context, listing *model.Listing) error {
	if err := listing.MarkPublished(time.Now()); err != nil {
		return err
	}
	if err := t.listingRepo.Update(ctx, listing); err != nil {
		return err
	}

	// 活动流记录失败不影响发布结果
	event := &model.ActivityEvent{
		AgencyID:   listing.AgencyID,
		Verb:       model.ActivityListingPublished,
		ObjectType: "listing",
		ObjectID:   listing.ID,
		Summary:    fmt.Sprintf("房源「%s」已自动发布", listing.Title),
	}
	if err := t.activityRepo.Create(ctx, event); err != nil {
		log.Printf("[PublishSweepTask] 房源 %d 活动流记录失败: %v", listing.ID, err)
	}
	return nil
}
