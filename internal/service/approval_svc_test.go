package service

import (
	"context"
	"errors"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"estate_dev_v1_202609/internal/api/dto"
	"estate_dev_v1_202609/internal/model"
	"estate_dev_v1_202609/internal/repository"
)

// ==================== 测试辅助函数 ====================

func setupApprovalTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}

	err = db.AutoMigrate(
		&model.Agency{}, &model.Listing{}, &model.ListingMedia{},
		&model.ApprovalQueueEntry{}, &model.ActivityEvent{},
	)
	if err != nil {
		t.Fatalf("数据库迁移失败: %v", err)
	}
	return db
}

func newApprovalTestService(t *testing.T) (*ApprovalService, *MockEmailProvider, *gorm.DB) {
	db := setupApprovalTestDB(t)
	uow := repository.NewListingUnitOfWork(db)

	mock := NewMockEmailProvider()
	mock.SetFailure(0, nil)

	svc := NewApprovalService(
		uow,
		repository.NewAgencyRepository(db),
		repository.NewActivityRepository(db),
		NewEmailService(mock),
	)
	return svc, mock, db
}

// seedPendingListing 造一个待审房源与对应队列条目
func seedPendingListing(t *testing.T, db *gorm.DB, autoPublish bool) (*model.Listing, *model.ApprovalQueueEntry) {
	t.Helper()

	agency := &model.Agency{Name: "测试开发商", ContactEmail: "dev@example.com"}
	if err := db.Create(agency).Error; err != nil {
		t.Fatalf("创建租户失败: %v", err)
	}

	listing := &model.Listing{
		AgencyID:        agency.ID,
		CreatorID:       7,
		Action:          model.ActionSell,
		PropertyType:    model.PropertyTypeHouse,
		Title:           "待审核独栋",
		Address:         "8 Oak Avenue",
		City:            "Johannesburg",
		SalePriceAmount: 325000000,
		Status:          model.ListingStatusPendingReview,
		ApprovalStatus:  model.ApprovalStatusPending,
		AutoPublish:     autoPublish,
	}
	if err := db.Create(listing).Error; err != nil {
		t.Fatalf("创建房源失败: %v", err)
	}
	db.Create(&model.ListingMedia{ListingID: listing.ID, StorageKey: "a.jpg", IsPrimary: true})

	entry := &model.ApprovalQueueEntry{
		ListingID:   listing.ID,
		SubmittedBy: 7,
		Status:      model.QueueStatusPending,
		SubmitCount: 1,
	}
	if err := db.Create(entry).Error; err != nil {
		t.Fatalf("创建队列条目失败: %v", err)
	}
	return listing, entry
}

// ==================== 审核裁决 ====================

func TestApprovalService_ReviewApprove(t *testing.T) {
	svc, mock, db := newApprovalTestService(t)
	ctx := context.Background()
	listing, entry := seedPendingListing(t, db, false)

	vo, err := svc.Review(ctx, 2, entry.ID, &dto.ReviewRequest{Decision: "approved"})
	if err != nil {
		t.Fatalf("Review() error = %v", err)
	}
	if vo.Status != model.QueueStatusApproved || vo.ReviewerID != 2 {
		t.Errorf("条目视图异常: %+v", vo)
	}
	if vo.DecidedAt == "" {
		t.Error("裁决时间未设置")
	}

	var updated model.Listing
	db.First(&updated, listing.ID)
	if updated.Status != model.ListingStatusApproved {
		t.Errorf("Status = %s, want approved", updated.Status)
	}
	// 未开自动发布：通过不等于上架
	if updated.IsPublished || updated.PublishedAt != nil {
		t.Error("未开自动发布的房源不应上架")
	}

	var stored model.ApprovalQueueEntry
	db.First(&stored, entry.ID)
	if len(stored.Compliance) == 0 {
		t.Error("合规检查结果未落库")
	}

	// 审核结果邮件发给租户联系邮箱
	if len(mock.Sent) != 1 || mock.Sent[0].To != "dev@example.com" {
		t.Errorf("通知邮件异常: %+v", mock.Sent)
	}
}

func TestApprovalService_ReviewApproveAutoPublish(t *testing.T) {
	svc, _, db := newApprovalTestService(t)
	ctx := context.Background()
	listing, entry := seedPendingListing(t, db, true)

	if _, err := svc.Review(ctx, 2, entry.ID, &dto.ReviewRequest{Decision: "approved"}); err != nil {
		t.Fatalf("Review() error = %v", err)
	}

	var updated model.Listing
	db.First(&updated, listing.ID)
	if updated.Status != model.ListingStatusPublished || !updated.IsPublished {
		t.Errorf("自动发布未生效: status=%s published=%v", updated.Status, updated.IsPublished)
	}
	if updated.PublishedAt == nil {
		t.Error("PublishedAt 未设置")
	}
}

func TestApprovalService_ReviewReject(t *testing.T) {
	svc, _, db := newApprovalTestService(t)
	ctx := context.Background()
	listing, entry := seedPendingListing(t, db, false)

	_, err := svc.Review(ctx, 2, entry.ID, &dto.ReviewRequest{Decision: "rejected", Notes: "照片模糊"})
	if err != nil {
		t.Fatalf("Review() error = %v", err)
	}

	var updated model.Listing
	db.First(&updated, listing.ID)
	if updated.Status != model.ListingStatusRejected {
		t.Errorf("Status = %s, want rejected", updated.Status)
	}
	if updated.RejectionReason != "照片模糊" {
		t.Errorf("RejectionReason = %q", updated.RejectionReason)
	}
	if !updated.CanEdit() {
		t.Error("驳回房源应回到可编辑窗口")
	}
}

func TestApprovalService_ReviewTwice(t *testing.T) {
	svc, _, db := newApprovalTestService(t)
	ctx := context.Background()
	_, entry := seedPendingListing(t, db, false)

	if _, err := svc.Review(ctx, 2, entry.ID, &dto.ReviewRequest{Decision: "approved"}); err != nil {
		t.Fatalf("首次 Review() error = %v", err)
	}
	if _, err := svc.Review(ctx, 3, entry.ID, &dto.ReviewRequest{Decision: "rejected"}); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("重复 Review() error = %v, want ErrInvalidState", err)
	}
}

func TestApprovalService_ReviewMissingEntry(t *testing.T) {
	svc, _, _ := newApprovalTestService(t)
	if _, err := svc.Review(context.Background(), 2, 999, &dto.ReviewRequest{Decision: "approved"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Review() error = %v, want ErrNotFound", err)
	}
}

// ==================== 发布 / 下架 ====================

func TestApprovalService_PublishFlow(t *testing.T) {
	svc, _, db := newApprovalTestService(t)
	ctx := context.Background()
	listing, entry := seedPendingListing(t, db, false)

	// 未审核通过不能发布
	if _, err := svc.Publish(ctx, listing.AgencyID, listing.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("未通过审核 Publish() error = %v, want ErrInvalidState", err)
	}

	if _, err := svc.Review(ctx, 2, entry.ID, &dto.ReviewRequest{Decision: "approved"}); err != nil {
		t.Fatalf("Review() error = %v", err)
	}

	published, err := svc.Publish(ctx, listing.AgencyID, listing.ID)
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if !published.IsPublished || published.PublishedAt == nil {
		t.Error("发布未生效")
	}
	firstPublishedAt := *published.PublishedAt

	// 重复发布幂等，不刷新时间
	again, err := svc.Publish(ctx, listing.AgencyID, listing.ID)
	if err != nil {
		t.Fatalf("重复 Publish() error = %v", err)
	}
	if !again.PublishedAt.Equal(firstPublishedAt) {
		t.Error("重复发布刷新了发布时间")
	}

	// 越权发布被拒
	if _, err := svc.Publish(ctx, listing.AgencyID+1, listing.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("越权 Publish() error = %v, want ErrForbidden", err)
	}
}

func TestApprovalService_Archive(t *testing.T) {
	svc, _, db := newApprovalTestService(t)
	ctx := context.Background()
	listing, entry := seedPendingListing(t, db, true)

	if _, err := svc.Review(ctx, 2, entry.ID, &dto.ReviewRequest{Decision: "approved"}); err != nil {
		t.Fatalf("Review() error = %v", err)
	}

	if err := svc.Archive(ctx, listing.AgencyID, listing.ID); err != nil {
		t.Fatalf("Archive() error = %v", err)
	}

	var updated model.Listing
	db.First(&updated, listing.ID)
	if updated.Status != model.ListingStatusArchived || updated.IsPublished {
		t.Errorf("下架未生效: status=%s published=%v", updated.Status, updated.IsPublished)
	}

	// 重复下架幂等
	if err := svc.Archive(ctx, listing.AgencyID, listing.ID); err != nil {
		t.Fatalf("重复 Archive() error = %v", err)
	}
}

// ==================== 队列查询 ====================

func TestApprovalService_ListQueue(t *testing.T) {
	svc, _, db := newApprovalTestService(t)
	ctx := context.Background()
	seedPendingListing(t, db, false)
	_, entry := seedPendingListing(t, db, false)

	if _, err := svc.Review(ctx, 2, entry.ID, &dto.ReviewRequest{Decision: "approved"}); err != nil {
		t.Fatalf("Review() error = %v", err)
	}

	pending, total, err := svc.ListQueue(ctx, &dto.ListQueueRequest{Status: model.QueueStatusPending, Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("ListQueue() error = %v", err)
	}
	if total != 1 || len(pending) != 1 {
		t.Errorf("待审条目数 = %d/%d, want 1", len(pending), total)
	}
	if pending[0].ListingTitle == "" {
		t.Error("条目视图缺少房源标题")
	}

	_, all, err := svc.ListQueue(ctx, &dto.ListQueueRequest{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("ListQueue() error = %v", err)
	}
	if all != 2 {
		t.Errorf("全部条目数 = %d, want 2", all)
	}
}
