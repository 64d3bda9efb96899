package task

import (
	"context"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"estate_dev_v1_202609/internal/model"
	"estate_dev_v1_202609/internal/repository"
)

// ==================== 辅助函数 ====================

func setupTaskTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}

	err = db.AutoMigrate(
		&model.Agency{}, &model.Listing{}, &model.ListingDraft{},
		&model.Subscription{}, &model.ActivityEvent{},
	)
	if err != nil {
		t.Fatalf("数据库迁移失败: %v", err)
	}

	return db
}

func timePtr(tm time.Time) *time.Time { return &tm }

// ==================== PublishSweepTask 测试 ====================

func TestPublishSweepTask_Sweep(t *testing.T) {
	db := setupTaskTestDB(t)
	ctx := context.Background()

	listings := []model.Listing{
		// 审核通过 + 自动发布：扫到
		{AgencyID: 1, CreatorID: 1, Title: "待发布一", Action: model.ActionSell,
			PropertyType: model.PropertyTypeHouse, Status: model.ListingStatusApproved,
			ApprovalStatus: model.ApprovalStatusApproved, AutoPublish: true},
		{AgencyID: 1, CreatorID: 1, Title: "待发布二", Action: model.ActionRent,
			PropertyType: model.PropertyTypeApartment, Status: model.ListingStatusApproved,
			ApprovalStatus: model.ApprovalStatusApproved, AutoPublish: true},
		// 审核通过但未开自动发布：不扫
		{AgencyID: 1, CreatorID: 1, Title: "手动发布", Action: model.ActionSell,
			PropertyType: model.PropertyTypeHouse, Status: model.ListingStatusApproved,
			ApprovalStatus: model.ApprovalStatusApproved, AutoPublish: false},
		// 已发布的不重复处理
		{AgencyID: 1, CreatorID: 1, Title: "已上架", Action: model.ActionSell,
			PropertyType: model.PropertyTypeHouse, Status: model.ListingStatusPublished,
			ApprovalStatus: model.ApprovalStatusApproved, AutoPublish: true, IsPublished: true},
	}
	for i := range listings {
		if err := db.Create(&listings[i]).Error; err != nil {
			t.Fatalf("创建房源失败: %v", err)
		}
	}

	task := NewPublishSweepTask(
		repository.NewListingRepository(db),
		repository.NewActivityRepository(db),
	)
	task.SweepNow(ctx)

	var published int64
	db.Model(&model.Listing{}).Where("is_published = ?", true).Count(&published)
	if published != 3 {
		t.Errorf("已发布数 = %d, want 3", published)
	}

	var first model.Listing
	db.First(&first, listings[0].ID)
	if first.Status != model.ListingStatusPublished || first.PublishedAt == nil {
		t.Errorf("房源未发布: status=%s", first.Status)
	}

	var manual model.Listing
	db.First(&manual, listings[2].ID)
	if manual.IsPublished {
		t.Error("未开启自动发布的房源被发布了")
	}

	// 每次成功发布记一条动态
	var events int64
	db.Model(&model.ActivityEvent{}).Where("verb = ?", model.ActivityListingPublished).Count(&events)
	if events != 2 {
		t.Errorf("发布动态数 = %d, want 2", events)
	}

	// 再扫一遍应无事可做
	task.SweepNow(ctx)
	db.Model(&model.ActivityEvent{}).Where("verb = ?", model.ActivityListingPublished).Count(&events)
	if events != 2 {
		t.Errorf("重复扫描后动态数 = %d, want 2", events)
	}
}

// ==================== DraftCleanupTask 测试 ====================

func TestDraftCleanupTask_Cleanup(t *testing.T) {
	db := setupTaskTestDB(t)

	drafts := []model.ListingDraft{
		{OwnerID: 1, AgencyID: 1, CurrentStep: 3},
		{OwnerID: 1, AgencyID: 1, CurrentStep: 5},
		{OwnerID: 2, AgencyID: 2, CurrentStep: 1},
	}
	for i := range drafts {
		if err := db.Create(&drafts[i]).Error; err != nil {
			t.Fatalf("创建草稿失败: %v", err)
		}
	}
	// 前两份草稿放旧，绕过 gorm 的 updated_at 自动维护
	stale := time.Now().Add(-40 * 24 * time.Hour)
	db.Model(&model.ListingDraft{}).Where("id IN ?", []int64{drafts[0].ID, drafts[1].ID}).
		UpdateColumn("updated_at", stale)

	task := NewDraftCleanupTask(repository.NewDraftRepository(db))
	task.SetRetention(30 * 24 * time.Hour)
	task.CleanupNow(context.Background())

	var remaining []model.ListingDraft
	db.Find(&remaining)
	if len(remaining) != 1 {
		t.Fatalf("剩余草稿数 = %d, want 1", len(remaining))
	}
	if remaining[0].ID != drafts[2].ID {
		t.Errorf("留下的草稿 = %d, want %d", remaining[0].ID, drafts[2].ID)
	}
}

// ==================== SubscriptionExpireTask 测试 ====================

func TestSubscriptionExpireTask_Expire(t *testing.T) {
	db := setupTaskTestDB(t)
	ctx := context.Background()

	agency := &model.Agency{Name: "过期开发商", IsActivated: true}
	if err := db.Create(agency).Error; err != nil {
		t.Fatalf("创建开发商失败: %v", err)
	}

	now := time.Now()
	sub := &model.Subscription{
		AgencyID:             agency.ID,
		StripeSubscriptionID: "sub_expired_1",
		Status:               model.SubscriptionStatusActive,
		Plan:                 "基础版",
		CurrentPeriodEnd:     timePtr(now.Add(-48 * time.Hour)),
	}
	if err := db.Create(sub).Error; err != nil {
		t.Fatalf("创建订阅失败: %v", err)
	}

	task := NewSubscriptionExpireTask(
		repository.NewSubscriptionRepository(db),
		repository.NewAgencyRepository(db),
	)
	task.SetGracePeriod(24 * time.Hour)
	task.ExpireNow(ctx)

	var got model.Subscription
	db.First(&got, sub.ID)
	if got.Status != model.SubscriptionStatusExpired {
		t.Errorf("订阅状态 = %s, want expired", got.Status)
	}

	var gotAgency model.Agency
	db.First(&gotAgency, agency.ID)
	if gotAgency.IsActivated {
		t.Error("无有效订阅的开发商未被停用")
	}
}

func TestSubscriptionExpireTask_GracePeriod(t *testing.T) {
	db := setupTaskTestDB(t)

	agency := &model.Agency{Name: "宽限期开发商", IsActivated: true}
	db.Create(agency)

	// 刚过期 2 小时，仍在 24 小时宽限期内
	sub := &model.Subscription{
		AgencyID:             agency.ID,
		StripeSubscriptionID: "sub_grace_1",
		Status:               model.SubscriptionStatusActive,
		CurrentPeriodEnd:     timePtr(time.Now().Add(-2 * time.Hour)),
	}
	db.Create(sub)

	task := NewSubscriptionExpireTask(
		repository.NewSubscriptionRepository(db),
		repository.NewAgencyRepository(db),
	)
	task.SetGracePeriod(24 * time.Hour)
	task.ExpireNow(context.Background())

	var got model.Subscription
	db.First(&got, sub.ID)
	if got.Status != model.SubscriptionStatusActive {
		t.Errorf("宽限期内订阅被标记为 %s", got.Status)
	}
}

func TestSubscriptionExpireTask_KeepsAgencyWithOtherActiveSub(t *testing.T) {
	db := setupTaskTestDB(t)

	agency := &model.Agency{Name: "换套餐开发商", IsActivated: true}
	db.Create(agency)

	now := time.Now()
	expired := &model.Subscription{
		AgencyID:             agency.ID,
		StripeSubscriptionID: "sub_old_plan",
		Status:               model.SubscriptionStatusActive,
		CurrentPeriodEnd:     timePtr(now.Add(-72 * time.Hour)),
	}
	current := &model.Subscription{
		AgencyID:             agency.ID,
		StripeSubscriptionID: "sub_new_plan",
		Status:               model.SubscriptionStatusActive,
		CurrentPeriodEnd:     timePtr(now.Add(30 * 24 * time.Hour)),
	}
	db.Create(expired)
	db.Create(current)

	task := NewSubscriptionExpireTask(
		repository.NewSubscriptionRepository(db),
		repository.NewAgencyRepository(db),
	)
	task.SetGracePeriod(24 * time.Hour)
	task.ExpireNow(context.Background())

	var gotOld model.Subscription
	db.First(&gotOld, expired.ID)
	if gotOld.Status != model.SubscriptionStatusExpired {
		t.Errorf("旧订阅状态 = %s, want expired", gotOld.Status)
	}

	// 还有一份有效订阅，开发商保持激活
	var gotAgency model.Agency
	db.First(&gotAgency, agency.ID)
	if !gotAgency.IsActivated {
		t.Error("仍有有效订阅的开发商被停用")
	}
}

// ==================== TaskManager 测试 ====================

func TestTaskManager_DisabledTrigger(t *testing.T) {
	db := setupTaskTestDB(t)

	cfg := DefaultConfig()
	cfg.PublishEnabled = false

	tm := NewTaskManager(&TaskManagerDeps{
		ListingRepo:  repository.NewListingRepository(db),
		DraftRepo:    repository.NewDraftRepository(db),
		SubRepo:      repository.NewSubscriptionRepository(db),
		AgencyRepo:   repository.NewAgencyRepository(db),
		ActivityRepo: repository.NewActivityRepository(db),
	}, cfg)

	if err := tm.TriggerPublishSweep(context.Background()); err != ErrTaskDisabled {
		t.Errorf("TriggerPublishSweep() error = %v, want ErrTaskDisabled", err)
	}
	if err := tm.TriggerDraftCleanup(context.Background()); err != nil {
		t.Errorf("TriggerDraftCleanup() error = %v", err)
	}
}
