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

func setupListingTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}

	err = db.AutoMigrate(&model.Listing{}, &model.ListingMedia{}, &model.ActivityEvent{})
	if err != nil {
		t.Fatalf("数据库迁移失败: %v", err)
	}
	return db
}

func newListingTestService(t *testing.T) (*ListingService, *gorm.DB) {
	db := setupListingTestDB(t)
	svc := NewListingService(repository.NewListingUnitOfWork(db), repository.NewActivityRepository(db), nil)
	return svc, db
}

func seedDraftListing(t *testing.T, db *gorm.DB, agencyID int64) *model.Listing {
	t.Helper()
	listing := &model.Listing{
		AgencyID:     agencyID,
		CreatorID:    7,
		Action:       model.ActionRent,
		PropertyType: model.PropertyTypeApartment,
		Title:        "市中心两居室",
		City:         "Cape Town",
		Status:       model.ListingStatusDraft,
	}
	if err := db.Create(listing).Error; err != nil {
		t.Fatalf("创建房源失败: %v", err)
	}
	return listing
}

func attachTestMedia(t *testing.T, svc *ListingService, agencyID, listingID int64, key string, primary bool) *dto.MediaVO {
	t.Helper()
	vo, err := svc.AttachMedia(context.Background(), agencyID, &dto.AttachMediaRequest{
		ListingID:  listingID,
		StorageKey: key,
		IsPrimary:  primary,
	}, "https://cdn.example.com/"+key, "image/jpeg")
	if err != nil {
		t.Fatalf("AttachMedia(%s) error = %v", key, err)
	}
	return vo
}

func loadMedia(t *testing.T, db *gorm.DB, listingID int64) []model.ListingMedia {
	t.Helper()
	var media []model.ListingMedia
	if err := db.Where("listing_id = ?", listingID).Order("position ASC").Find(&media).Error; err != nil {
		t.Fatalf("查询媒体失败: %v", err)
	}
	return media
}

func countPrimary(media []model.ListingMedia) int {
	n := 0
	for _, m := range media {
		if m.IsPrimary {
			n++
		}
	}
	return n
}

// ==================== 媒体挂载 ====================

func TestListingService_AttachMediaFirstIsPrimary(t *testing.T) {
	svc, db := newListingTestService(t)
	listing := seedDraftListing(t, db, 3)

	first := attachTestMedia(t, svc, 3, listing.ID, "a.jpg", false)
	if !first.IsPrimary || first.Position != 0 {
		t.Errorf("首张媒体应为主图且位置 0: %+v", first)
	}

	second := attachTestMedia(t, svc, 3, listing.ID, "b.jpg", false)
	if second.IsPrimary || second.Position != 1 {
		t.Errorf("第二张媒体异常: %+v", second)
	}

	// 显式指定主图会顶替原主图
	third := attachTestMedia(t, svc, 3, listing.ID, "c.jpg", true)
	if !third.IsPrimary {
		t.Error("显式主图未生效")
	}

	media := loadMedia(t, db, listing.ID)
	if countPrimary(media) != 1 {
		t.Errorf("主图数 = %d, want 1", countPrimary(media))
	}
}

func TestListingService_AttachMediaForbidden(t *testing.T) {
	svc, db := newListingTestService(t)
	listing := seedDraftListing(t, db, 3)

	_, err := svc.AttachMedia(context.Background(), 99, &dto.AttachMediaRequest{
		ListingID:  listing.ID,
		StorageKey: "x.jpg",
	}, "https://cdn.example.com/x.jpg", "image/jpeg")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("AttachMedia() error = %v, want ErrForbidden", err)
	}
}

// ==================== 重排与主图 ====================

func TestListingService_ReorderMedia(t *testing.T) {
	svc, db := newListingTestService(t)
	ctx := context.Background()
	listing := seedDraftListing(t, db, 3)

	a := attachTestMedia(t, svc, 3, listing.ID, "a.jpg", false)
	b := attachTestMedia(t, svc, 3, listing.ID, "b.jpg", false)
	c := attachTestMedia(t, svc, 3, listing.ID, "c.jpg", false)

	// 缺一个 ID 拒绝
	err := svc.ReorderMedia(ctx, 3, listing.ID, &dto.ReorderMediaRequest{MediaIDs: []int64{c.ID, a.ID}})
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("部分 ID 重排 error = %v, want ErrInvalidState", err)
	}

	// 混入他人 ID 拒绝
	err = svc.ReorderMedia(ctx, 3, listing.ID, &dto.ReorderMediaRequest{MediaIDs: []int64{c.ID, a.ID, 999}})
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("无效 ID 重排 error = %v, want ErrInvalidState", err)
	}

	if err := svc.ReorderMedia(ctx, 3, listing.ID, &dto.ReorderMediaRequest{MediaIDs: []int64{c.ID, a.ID, b.ID}}); err != nil {
		t.Fatalf("ReorderMedia() error = %v", err)
	}

	media := loadMedia(t, db, listing.ID)
	wantOrder := []int64{c.ID, a.ID, b.ID}
	for i, m := range media {
		if m.ID != wantOrder[i] || m.Position != i {
			t.Errorf("位置 %d: id=%d position=%d, want id=%d", i, m.ID, m.Position, wantOrder[i])
		}
	}
}

func TestListingService_SetPrimaryMedia(t *testing.T) {
	svc, db := newListingTestService(t)
	ctx := context.Background()
	listing := seedDraftListing(t, db, 3)

	attachTestMedia(t, svc, 3, listing.ID, "a.jpg", false)
	b := attachTestMedia(t, svc, 3, listing.ID, "b.jpg", false)

	if err := svc.SetPrimaryMedia(ctx, 3, listing.ID, b.ID); err != nil {
		t.Fatalf("SetPrimaryMedia() error = %v", err)
	}

	media := loadMedia(t, db, listing.ID)
	if countPrimary(media) != 1 {
		t.Errorf("主图数 = %d, want 1", countPrimary(media))
	}
	for _, m := range media {
		if m.ID == b.ID && !m.IsPrimary {
			t.Error("指定主图未生效")
		}
	}

	// 其他房源的媒体不能指定
	other := seedDraftListing(t, db, 3)
	if err := svc.SetPrimaryMedia(ctx, 3, other.ID, b.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("跨房源 SetPrimaryMedia() error = %v, want ErrForbidden", err)
	}
}

func TestListingService_DeleteMediaCompacts(t *testing.T) {
	svc, db := newListingTestService(t)
	ctx := context.Background()
	listing := seedDraftListing(t, db, 3)

	a := attachTestMedia(t, svc, 3, listing.ID, "a.jpg", false) // 主图
	b := attachTestMedia(t, svc, 3, listing.ID, "b.jpg", false)
	c := attachTestMedia(t, svc, 3, listing.ID, "c.jpg", false)

	// 删掉主图：位置压实，首图顶上
	if err := svc.DeleteMedia(ctx, 3, listing.ID, a.ID); err != nil {
		t.Fatalf("DeleteMedia() error = %v", err)
	}

	media := loadMedia(t, db, listing.ID)
	if len(media) != 2 {
		t.Fatalf("剩余媒体数 = %d, want 2", len(media))
	}
	if media[0].ID != b.ID || media[0].Position != 0 || media[1].ID != c.ID || media[1].Position != 1 {
		t.Errorf("位置未压实: %+v", media)
	}
	if !media[0].IsPrimary || countPrimary(media) != 1 {
		t.Error("主图未顶替")
	}
}

// ==================== 基础字段更新 ====================

func TestListingService_UpdateEditWindow(t *testing.T) {
	svc, db := newListingTestService(t)
	ctx := context.Background()
	listing := seedDraftListing(t, db, 3)

	title := "翻新后的两居室"
	auto := true
	if _, err := svc.Update(ctx, 3, listing.ID, &dto.UpdateListingRequest{Title: &title, AutoPublish: &auto}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	var updated model.Listing
	db.First(&updated, listing.ID)
	if updated.Title != title || !updated.AutoPublish {
		t.Errorf("更新未生效: title=%q auto=%v", updated.Title, updated.AutoPublish)
	}

	// 出编辑窗口后基础字段冻结
	db.Model(&updated).Update("status", model.ListingStatusPendingReview)
	if _, err := svc.Update(ctx, 3, listing.ID, &dto.UpdateListingRequest{Title: &title}); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("冻结期 Update() error = %v, want ErrInvalidState", err)
	}

	// auto_publish 开关不受窗口限制
	off := false
	if _, err := svc.Update(ctx, 3, listing.ID, &dto.UpdateListingRequest{AutoPublish: &off}); err != nil {
		t.Fatalf("冻结期切换 auto_publish error = %v", err)
	}
	db.First(&updated, listing.ID)
	if updated.AutoPublish {
		t.Error("auto_publish 未关闭")
	}
}

func TestListingService_DeleteDraftOnly(t *testing.T) {
	svc, db := newListingTestService(t)
	ctx := context.Background()
	listing := seedDraftListing(t, db, 3)
	attachTestMedia(t, svc, 3, listing.ID, "a.jpg", false)

	if err := svc.Delete(ctx, 3, listing.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if len(loadMedia(t, db, listing.ID)) != 0 {
		t.Error("删除房源后媒体残留")
	}

	// 非草稿不可删
	other := seedDraftListing(t, db, 3)
	db.Model(other).Update("status", model.ListingStatusPublished)
	if err := svc.Delete(ctx, 3, other.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("非草稿 Delete() error = %v, want ErrInvalidState", err)
	}
}

// ==================== 公开查询 ====================

func TestListingService_PublicDetailOnlyPublished(t *testing.T) {
	svc, db := newListingTestService(t)
	ctx := context.Background()
	listing := seedDraftListing(t, db, 3)

	if _, err := svc.GetPublicDetail(ctx, listing.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("未发布房源 GetPublicDetail() error = %v, want ErrNotFound", err)
	}

	db.Model(&model.Listing{}).Where("id = ?", listing.ID).Updates(map[string]interface{}{
		"status":           model.ListingStatusPublished,
		"is_published":     true,
		"rejection_reason": "历史驳回记录",
	})

	detail, err := svc.GetPublicDetail(ctx, listing.ID)
	if err != nil {
		t.Fatalf("GetPublicDetail() error = %v", err)
	}
	// 内部审核信息不外露
	if detail.RejectionReason != "" {
		t.Errorf("公开详情泄露驳回原因: %q", detail.RejectionReason)
	}
}
