package model

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ==================== 测试辅助函数 ====================

func setupModelTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}

	if err := db.AutoMigrate(&Listing{}, &ListingDraft{}); err != nil {
		t.Fatalf("数据库迁移失败: %v", err)
	}
	return db
}

// ==================== JSON 列落库 ====================

// 值类型字段走 driver.Valuer 序列化，列值不能被展开成多列
func TestStringSlice_ListingRoundtrip(t *testing.T) {
	db := setupModelTestDB(t)

	listing := &Listing{
		AgencyID:     1,
		CreatorID:    1,
		Action:       ActionSell,
		PropertyType: PropertyTypeHouse,
		Title:        "海景独栋",
		Badges:       StringSlice{"featured", "new"},
		Status:       ListingStatusPublished,
	}
	if err := db.Create(listing).Error; err != nil {
		t.Fatalf("创建房源失败: %v", err)
	}

	var got Listing
	if err := db.First(&got, listing.ID).Error; err != nil {
		t.Fatalf("查询房源失败: %v", err)
	}
	if got.Status != ListingStatusPublished {
		t.Errorf("状态列被写错: got %q", got.Status)
	}
	if len(got.Badges) != 2 || got.Badges[0] != "featured" || got.Badges[1] != "new" {
		t.Errorf("徽章读回不一致: got %v", got.Badges)
	}
}

func TestStringSlice_DraftRoundtrip(t *testing.T) {
	db := setupModelTestDB(t)

	draft := &ListingDraft{
		OwnerID:        1,
		AgencyID:       1,
		CurrentStep:    3,
		CompletedSteps: StringSlice{"1", "2"},
	}
	if err := db.Create(draft).Error; err != nil {
		t.Fatalf("创建草稿失败: %v", err)
	}

	var got ListingDraft
	if err := db.First(&got, draft.ID).Error; err != nil {
		t.Fatalf("查询草稿失败: %v", err)
	}
	if got.CurrentStep != 3 {
		t.Errorf("当前步骤读回不一致: got %d", got.CurrentStep)
	}
	if len(got.CompletedSteps) != 2 || got.CompletedSteps[0] != "1" {
		t.Errorf("已完成步骤读回不一致: got %v", got.CompletedSteps)
	}
}

func TestStringSlice_NilValue(t *testing.T) {
	var s StringSlice
	v, err := s.Value()
	if err != nil {
		t.Fatalf("空切片序列化失败: %v", err)
	}
	if str, ok := v.(string); ok && str != "[]" {
		t.Errorf("空切片应序列化为空数组: got %v", v)
	}
}
