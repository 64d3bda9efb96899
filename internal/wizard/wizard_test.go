package wizard

import (
	"errors"
	"testing"

	"estate_dev_v1_202609/internal/model"
)

// ==================== 测试辅助函数 ====================

// fillRentApartment 填出一份可通过全部校验的租赁公寓表单
func fillRentApartment(s *Session) {
	s.Form.Action = model.ActionRent
	s.Form.PropertyType = model.PropertyTypeApartment
	s.Form.Badges = []string{"地铁沿线", "拎包入住"}
	s.Form.Details = model.PropertyDetails{
		Apartment: &model.ApartmentDetails{
			Bedrooms:    2,
			Bathrooms:   1,
			FloorArea:   68.5,
			Floor:       5,
			TotalFloors: 12,
			HasElevator: true,
		},
	}
	s.Form.Title = "开普敦市中心两居室公寓"
	s.Form.Description = "近地铁，精装修，拎包入住"
	s.Form.Pricing = Pricing{
		MonthlyRent:  8500,
		Deposit:      17000,
		CurrencyCode: "ZAR",
	}
	s.Form.Location = Location{
		Address:   "12 Long Street",
		City:      "Cape Town",
		Province:  "Western Cape",
		Latitude:  -33.92,
		Longitude: 18.42,
	}
	s.Form.Media = []MediaItem{
		{StorageKey: "agency-1/a.jpg", URL: "https://cdn.example.com/a.jpg", ContentType: "image/jpeg", IsPrimary: true},
		{StorageKey: "agency-1/b.jpg", URL: "https://cdn.example.com/b.jpg", ContentType: "image/jpeg"},
	}
}

// advanceAll 从第一步推到预览步骤
func advanceAll(t *testing.T, s *Session) {
	t.Helper()
	for s.Step() < LastStep {
		if err := s.Next(); err != nil {
			t.Fatalf("步骤 %s Next() error = %v, 字段错误 %v", s.Step().Name(), err, s.Errors())
		}
	}
}

// ==================== 步骤推进测试 ====================

func TestSession_NextBlockedByValidation(t *testing.T) {
	s := NewSession(1, 1)

	// 第一步未选交易方式，不允许前进
	err := s.Next()
	if !errors.Is(err, ErrStepInvalid) {
		t.Fatalf("Next() error = %v, want ErrStepInvalid", err)
	}
	if s.Step() != StepAction {
		t.Errorf("校验失败后步骤变为 %s", s.Step().Name())
	}
	if _, ok := s.Errors()["action"]; !ok {
		t.Errorf("缺少 action 字段错误: %v", s.Errors())
	}

	// 填上后可以前进
	s.Form.Action = model.ActionSell
	if err := s.Next(); err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if s.Step() != StepPropertyType {
		t.Errorf("Step() = %s, want property_type", s.Step().Name())
	}
	if !s.Completed(StepAction) {
		t.Error("第一步未标记完成")
	}
}

func TestSession_RentApartmentWalkthrough(t *testing.T) {
	s := NewSession(1, 1)
	fillRentApartment(s)

	advanceAll(t, s)

	if s.Step() != StepPreview {
		t.Fatalf("Step() = %s, want preview", s.Step().Name())
	}
	// 预览步骤复查通过后停留在最后一步
	if err := s.Next(); err != nil {
		t.Fatalf("预览步骤 Next() error = %v", err)
	}
	if s.Step() != LastStep {
		t.Errorf("Step() = %d, want %d", s.Step(), LastStep)
	}
}

func TestSession_PricingByAction(t *testing.T) {
	s := NewSession(1, 1)
	fillRentApartment(s)

	// 拍卖：保留价低于起拍价
	s.Form.Action = model.ActionAuction
	s.Form.Pricing = Pricing{AuctionStart: 500000, AuctionReserve: 400000}
	errs := s.validateStep(StepPricing)
	if _, ok := errs["pricing.auction_reserve"]; !ok {
		t.Errorf("保留价低于起拍价未报错: %v", errs)
	}

	// 保留价为 0 表示不设保留价
	s.Form.Pricing.AuctionReserve = 0
	if errs := s.validateStep(StepPricing); len(errs) != 0 {
		t.Errorf("不设保留价不应报错: %v", errs)
	}

	// 出售：只看售价
	s.Form.Action = model.ActionSell
	s.Form.Pricing = Pricing{SalePrice: 1200000}
	if errs := s.validateStep(StepPricing); len(errs) != 0 {
		t.Errorf("售价有效不应报错: %v", errs)
	}
}

func TestSession_PrevAlwaysAllowed(t *testing.T) {
	s := NewSession(1, 1)
	fillRentApartment(s)

	if err := s.Next(); err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	s.Prev()
	if s.Step() != StepAction {
		t.Errorf("Step() = %s, want action", s.Step().Name())
	}
	// 第一步继续后退保持不动
	s.Prev()
	if s.Step() != StepAction {
		t.Errorf("第一步 Prev() 后 Step() = %s", s.Step().Name())
	}
}

func TestSession_GoToGuard(t *testing.T) {
	s := NewSession(1, 1)
	fillRentApartment(s)

	// 未完成任何步骤时最多跳到第 1+1 步
	if err := s.GoTo(StepPricing); !errors.Is(err, ErrStepUnreachable) {
		t.Fatalf("GoTo(pricing) error = %v, want ErrStepUnreachable", err)
	}
	if s.Step() != StepAction {
		t.Errorf("跳转失败后步骤变为 %s", s.Step().Name())
	}

	// 完成前两步后可以回跳，也可以跳到已完成最大步骤+1
	if err := s.Next(); err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if err := s.Next(); err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if err := s.GoTo(StepAction); err != nil {
		t.Errorf("回跳第一步 error = %v", err)
	}
	if err := s.GoTo(StepBadges); err != nil {
		t.Errorf("跳到已解锁步骤 error = %v", err)
	}
	if err := s.GoTo(0); !errors.Is(err, ErrStepUnreachable) {
		t.Errorf("GoTo(0) error = %v, want ErrStepUnreachable", err)
	}
}

// ==================== 产出测试 ====================

func TestSession_BuildListingIncomplete(t *testing.T) {
	s := NewSession(1, 1)
	s.Form.Action = model.ActionSell

	if _, err := s.BuildListing(); !errors.Is(err, ErrNotComplete) {
		t.Fatalf("BuildListing() error = %v, want ErrNotComplete", err)
	}
	if len(s.Errors()) == 0 {
		t.Error("未完整表单应留下字段错误")
	}
}

func TestSession_BuildListing(t *testing.T) {
	s := NewSession(7, 3)
	fillRentApartment(s)

	listing, err := s.BuildListing()
	if err != nil {
		t.Fatalf("BuildListing() error = %v", err)
	}

	if listing.AgencyID != 3 || listing.CreatorID != 7 {
		t.Errorf("归属错误: agency=%d creator=%d", listing.AgencyID, listing.CreatorID)
	}
	if listing.MonthlyRentAmount != 850000 {
		t.Errorf("MonthlyRentAmount = %d, want 850000", listing.MonthlyRentAmount)
	}
	if listing.DepositAmount != 1700000 {
		t.Errorf("DepositAmount = %d, want 1700000", listing.DepositAmount)
	}
	if listing.Status != model.ListingStatusDraft || listing.ApprovalStatus != model.ApprovalStatusNone {
		t.Errorf("初始状态错误: %s/%s", listing.Status, listing.ApprovalStatus)
	}
}

func TestSession_BuildMediaDefaultPrimary(t *testing.T) {
	s := NewSession(1, 1)
	s.Form.Media = []MediaItem{
		{StorageKey: "a.jpg", ContentType: "image/jpeg"},
		{StorageKey: "b.jpg", ContentType: "image/jpeg"},
	}

	media := s.BuildMedia(42)
	if len(media) != 2 {
		t.Fatalf("len(media) = %d, want 2", len(media))
	}
	if !media[0].IsPrimary {
		t.Error("未显式指定主图时第一张应为主图")
	}
	if media[1].IsPrimary {
		t.Error("第二张不应为主图")
	}
	if media[0].ListingID != 42 || media[1].Position != 1 {
		t.Errorf("关联错误: listing=%d position=%d", media[0].ListingID, media[1].Position)
	}
}

// ==================== 快照测试 ====================

func TestSession_SnapshotRestore(t *testing.T) {
	s := NewSession(1, 2)
	fillRentApartment(s)
	advanceAll(t, s)

	data, err := s.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}

	restored, err := Restore(1, 2, data)
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if restored.Step() != s.Step() {
		t.Errorf("恢复后步骤 = %s, want %s", restored.Step().Name(), s.Step().Name())
	}
	if restored.Form.Title != s.Form.Title {
		t.Errorf("恢复后标题 = %q", restored.Form.Title)
	}
	for st := FirstStep; st < LastStep; st++ {
		if !restored.Completed(st) {
			t.Errorf("恢复后步骤 %s 未标记完成", st.Name())
		}
	}
}

func TestRestore_CorruptSnapshot(t *testing.T) {
	if _, err := Restore(1, 1, []byte("not json")); err == nil {
		t.Fatal("损坏快照应返回错误")
	}
}

func TestFromListing(t *testing.T) {
	s := NewSession(7, 3)
	fillRentApartment(s)
	listing, err := s.BuildListing()
	if err != nil {
		t.Fatalf("BuildListing() error = %v", err)
	}
	listing.ID = 99
	listing.Media = s.BuildMedia(99)

	resumed, err := FromListing(7, 3, listing)
	if err != nil {
		t.Fatalf("FromListing() error = %v", err)
	}
	if resumed.ListingID != 99 {
		t.Errorf("ListingID = %d, want 99", resumed.ListingID)
	}
	if resumed.Step() != LastStep {
		t.Errorf("Step() = %s, want preview", resumed.Step().Name())
	}
	if resumed.Form.Pricing.MonthlyRent != 8500 {
		t.Errorf("MonthlyRent = %v, want 8500", resumed.Form.Pricing.MonthlyRent)
	}
	if len(resumed.Form.Media) != 2 || !resumed.Form.Media[0].IsPrimary {
		t.Errorf("媒体恢复错误: %+v", resumed.Form.Media)
	}

	// 装回后应能直接通过全量校验再次提交
	if _, err := resumed.BuildListing(); err != nil {
		t.Errorf("恢复会话 BuildListing() error = %v", err)
	}
}
