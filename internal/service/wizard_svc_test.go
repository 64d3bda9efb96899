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
	"estate_dev_v1_202609/internal/wizard"
)

// ==================== 测试辅助函数 ====================

func setupWizardTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}

	err = db.AutoMigrate(
		&model.Listing{}, &model.ListingMedia{}, &model.ListingDraft{},
		&model.ApprovalQueueEntry{}, &model.ActivityEvent{},
	)
	if err != nil {
		t.Fatalf("数据库迁移失败: %v", err)
	}
	return db
}

func newWizardTestService(t *testing.T) (*WizardService, *gorm.DB) {
	db := setupWizardTestDB(t)
	uow := repository.NewListingUnitOfWork(db)
	svc := NewWizardService(uow, repository.NewActivityRepository(db))
	return svc, db
}

// validWizardForm 可通过全量校验的出售独栋表单
func validWizardForm() wizard.Form {
	return wizard.Form{
		Action:       model.ActionSell,
		PropertyType: model.PropertyTypeHouse,
		Badges:       []string{"学区"},
		Details: model.PropertyDetails{
			House: &model.HouseDetails{
				Bedrooms:  4,
				Bathrooms: 2,
				FloorArea: 220,
				LandArea:  600,
				Storeys:   2,
				HasGarage: true,
			},
		},
		Title:       "约翰内斯堡北郊四居室独栋",
		Description: "带花园与双车位车库",
		Pricing: wizard.Pricing{
			SalePrice:    3250000,
			CurrencyCode: "ZAR",
		},
		Location: wizard.Location{
			Address:   "8 Oak Avenue",
			City:      "Johannesburg",
			Province:  "Gauteng",
			Latitude:  -26.10,
			Longitude: 28.05,
		},
		Media: []wizard.MediaItem{
			{StorageKey: "agency-1/front.jpg", URL: "https://cdn.example.com/front.jpg", ContentType: "image/jpeg", IsPrimary: true},
		},
	}
}

// ==================== 会话与草稿 ====================

func TestWizardService_DraftRestoreAcrossRestart(t *testing.T) {
	svc, db := newWizardTestService(t)
	ctx := context.Background()

	form := validWizardForm()
	if _, err := svc.UpdateForm(ctx, 1, 1, &dto.UpdateFormRequest{Form: form}); err != nil {
		t.Fatalf("UpdateForm() error = %v", err)
	}
	if _, err := svc.Next(ctx, 1, 1); err != nil {
		t.Fatalf("Next() error = %v", err)
	}

	// 模拟服务重启：新实例的会话只能靠草稿快照恢复
	restarted := NewWizardService(repository.NewListingUnitOfWork(db), repository.NewActivityRepository(db))
	state, err := restarted.GetState(ctx, 1, 1)
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if state.Step != 2 {
		t.Errorf("恢复后步骤 = %d, want 2", state.Step)
	}
	if state.Form.Title != form.Title {
		t.Errorf("恢复后标题 = %q", state.Form.Title)
	}
}

func TestWizardService_NextReturnsFieldErrors(t *testing.T) {
	svc, _ := newWizardTestService(t)
	ctx := context.Background()

	// 空表单前进：校验失败不报 error，字段错误随状态带回
	state, err := svc.Next(ctx, 1, 1)
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if state.Step != 1 {
		t.Errorf("校验失败后步骤 = %d, want 1", state.Step)
	}
	if _, ok := state.Errors["action"]; !ok {
		t.Errorf("缺少 action 字段错误: %v", state.Errors)
	}
}

func TestWizardService_GoToLockedStep(t *testing.T) {
	svc, _ := newWizardTestService(t)
	ctx := context.Background()

	if _, err := svc.GoTo(ctx, 1, 1, 6); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("GoTo(6) error = %v, want ErrInvalidState", err)
	}
}

func TestWizardService_Discard(t *testing.T) {
	svc, db := newWizardTestService(t)
	ctx := context.Background()

	if _, err := svc.UpdateForm(ctx, 1, 1, &dto.UpdateFormRequest{Form: validWizardForm()}); err != nil {
		t.Fatalf("UpdateForm() error = %v", err)
	}
	if err := svc.Discard(ctx, 1); err != nil {
		t.Fatalf("Discard() error = %v", err)
	}

	var count int64
	db.Model(&model.ListingDraft{}).Where("owner_id = ?", 1).Count(&count)
	if count != 0 {
		t.Errorf("放弃后仍有 %d 份草稿", count)
	}
}

// ==================== 提交审核 ====================

func TestWizardService_Submit(t *testing.T) {
	svc, db := newWizardTestService(t)
	ctx := context.Background()

	if _, err := svc.UpdateForm(ctx, 7, 3, &dto.UpdateFormRequest{Form: validWizardForm()}); err != nil {
		t.Fatalf("UpdateForm() error = %v", err)
	}

	resp, err := svc.Submit(ctx, 7, 3)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if resp.ListingID == 0 || resp.QueueEntryID == 0 {
		t.Fatalf("提交结果不完整: %+v", resp)
	}

	var listing model.Listing
	if err := db.First(&listing, resp.ListingID).Error; err != nil {
		t.Fatalf("房源未落库: %v", err)
	}
	if listing.Status != model.ListingStatusPendingReview {
		t.Errorf("Status = %s, want pending_review", listing.Status)
	}
	if listing.ApprovalStatus != model.ApprovalStatusPending {
		t.Errorf("ApprovalStatus = %s, want pending", listing.ApprovalStatus)
	}
	if listing.SalePriceAmount != 325000000 {
		t.Errorf("SalePriceAmount = %d, want 325000000", listing.SalePriceAmount)
	}

	var mediaCount int64
	db.Model(&model.ListingMedia{}).Where("listing_id = ?", resp.ListingID).Count(&mediaCount)
	if mediaCount != 1 {
		t.Errorf("媒体行数 = %d, want 1", mediaCount)
	}

	var entry model.ApprovalQueueEntry
	if err := db.First(&entry, resp.QueueEntryID).Error; err != nil {
		t.Fatalf("队列条目未落库: %v", err)
	}
	if entry.Status != model.QueueStatusPending || entry.SubmitCount != 1 {
		t.Errorf("队列条目异常: status=%s count=%d", entry.Status, entry.SubmitCount)
	}

	// 提交成功后草稿被清除
	var draftCount int64
	db.Model(&model.ListingDraft{}).Where("owner_id = ?", 7).Count(&draftCount)
	if draftCount != 0 {
		t.Errorf("提交后仍有 %d 份草稿", draftCount)
	}
}

func TestWizardService_SubmitIncomplete(t *testing.T) {
	svc, _ := newWizardTestService(t)
	ctx := context.Background()

	form := validWizardForm()
	form.Media = nil // 缺少媒体
	if _, err := svc.UpdateForm(ctx, 1, 1, &dto.UpdateFormRequest{Form: form}); err != nil {
		t.Fatalf("UpdateForm() error = %v", err)
	}

	if _, err := svc.Submit(ctx, 1, 1); !errors.Is(err, wizard.ErrNotComplete) {
		t.Fatalf("Submit() error = %v, want ErrNotComplete", err)
	}

	// 字段错误留在会话里，GetState 带回
	state, err := svc.GetState(ctx, 1, 1)
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if _, ok := state.Errors["media"]; !ok {
		t.Errorf("缺少 media 字段错误: %v", state.Errors)
	}
}

func TestWizardService_ResubmitAfterRejection(t *testing.T) {
	svc, db := newWizardTestService(t)
	ctx := context.Background()

	if _, err := svc.UpdateForm(ctx, 7, 3, &dto.UpdateFormRequest{Form: validWizardForm()}); err != nil {
		t.Fatalf("UpdateForm() error = %v", err)
	}
	first, err := svc.Submit(ctx, 7, 3)
	if err != nil {
		t.Fatalf("首次 Submit() error = %v", err)
	}

	// 模拟审核驳回
	rejectListingForTest(t, db, first.ListingID, first.QueueEntryID, "标题与照片不符")

	// 装回向导并修正后重新提交
	state, err := svc.ResumeRejected(ctx, 7, 3, first.ListingID)
	if err != nil {
		t.Fatalf("ResumeRejected() error = %v", err)
	}
	if state.Step != 9 {
		t.Errorf("装回后步骤 = %d, want 9", state.Step)
	}

	form := state.Form
	form.Title = "约翰内斯堡北郊四居室独栋（实拍更新）"
	if _, err := svc.UpdateForm(ctx, 7, 3, &dto.UpdateFormRequest{Form: form}); err != nil {
		t.Fatalf("UpdateForm() error = %v", err)
	}

	second, err := svc.Submit(ctx, 7, 3)
	if err != nil {
		t.Fatalf("再次 Submit() error = %v", err)
	}

	// 复用原房源行与原队列条目，不新增
	if second.ListingID != first.ListingID {
		t.Errorf("再次提交生成了新房源: %d -> %d", first.ListingID, second.ListingID)
	}
	if second.QueueEntryID != first.QueueEntryID {
		t.Errorf("再次提交生成了新队列条目: %d -> %d", first.QueueEntryID, second.QueueEntryID)
	}

	var entryCount int64
	db.Model(&model.ApprovalQueueEntry{}).Where("listing_id = ?", first.ListingID).Count(&entryCount)
	if entryCount != 1 {
		t.Errorf("队列条目行数 = %d, want 1", entryCount)
	}

	var entry model.ApprovalQueueEntry
	db.First(&entry, first.QueueEntryID)
	if entry.Status != model.QueueStatusPending || entry.SubmitCount != 2 {
		t.Errorf("重开条目异常: status=%s count=%d", entry.Status, entry.SubmitCount)
	}

	var listing model.Listing
	db.First(&listing, first.ListingID)
	if listing.Title != form.Title {
		t.Errorf("标题未更新: %q", listing.Title)
	}
	if listing.RejectionReason != "" {
		t.Errorf("重新提交后驳回原因未清空: %q", listing.RejectionReason)
	}
}

func TestWizardService_ResumeRejectedForbidden(t *testing.T) {
	svc, db := newWizardTestService(t)
	ctx := context.Background()

	db.Create(&model.Listing{
		AgencyID: 99, CreatorID: 5,
		Action: model.ActionSell, PropertyType: model.PropertyTypeHouse,
		Title: "别家的房源", Status: model.ListingStatusRejected,
	})

	var listing model.Listing
	db.First(&listing)
	if _, err := svc.ResumeRejected(ctx, 7, 3, listing.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("ResumeRejected() error = %v, want ErrForbidden", err)
	}
}

// rejectListingForTest 把房源和队列条目置为驳回态
func rejectListingForTest(t *testing.T, db *gorm.DB, listingID, entryID int64, reason string) {
	t.Helper()
	err := db.Model(&model.Listing{}).Where("id = ?", listingID).Updates(map[string]interface{}{
		"status":           model.ListingStatusRejected,
		"approval_status":  model.ApprovalStatusRejected,
		"rejection_reason": reason,
	}).Error
	if err != nil {
		t.Fatalf("驳回房源失败: %v", err)
	}
	err = db.Model(&model.ApprovalQueueEntry{}).Where("id = ?", entryID).Updates(map[string]interface{}{
		"status":         model.QueueStatusRejected,
		"reviewer_id":    2,
		"reviewer_notes": reason,
	}).Error
	if err != nil {
		t.Fatalf("驳回队列条目失败: %v", err)
	}
}
