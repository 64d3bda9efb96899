// Package wizard 实现房源创建向导的会话状态机。
// 每个会话持有一个 Session 实例，步骤 1..9 顺序推进；
// 校验失败只收集字段错误并阻止前进，从不 panic。
package wizard

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"estate_dev_v1_202609/internal/model"
)

// ==================== 步骤定义 ====================

// Step 向导步骤
type Step int

const (
	StepAction          Step = 1 // 交易方式
	StepPropertyType    Step = 2 // 房源类型
	StepBadges          Step = 3 // 标签徽章
	StepPropertyDetails Step = 4 // 类型详情
	StepBasicInfo       Step = 5 // 标题描述
	StepPricing         Step = 6 // 定价
	StepLocation        Step = 7 // 位置
	StepMedia           Step = 8 // 媒体
	StepPreview         Step = 9 // 预览确认
)

const (
	FirstStep = StepAction
	LastStep  = StepPreview
)

var stepNames = map[Step]string{
	StepAction:          "action",
	StepPropertyType:    "property_type",
	StepBadges:          "badges",
	StepPropertyDetails: "property_details",
	StepBasicInfo:       "basic_info",
	StepPricing:         "pricing",
	StepLocation:        "location",
	StepMedia:           "media",
	StepPreview:         "preview",
}

// Name 步骤名称
func (s Step) Name() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return fmt.Sprintf("step_%d", int(s))
}

// ==================== 错误定义 ====================

var (
	// ErrStepInvalid 当前步骤校验未通过，字段错误见 Session.Errors()
	ErrStepInvalid = errors.New("当前步骤校验未通过")
	// ErrStepUnreachable 目标步骤尚未解锁
	ErrStepUnreachable = errors.New("目标步骤尚未解锁")
	// ErrNotComplete 向导未填写完整，不能提交审核
	ErrNotComplete = errors.New("向导未填写完整")
)

// ==================== 表单 ====================

// MediaItem 已上传的媒体项（字节流经预签名 URL 直传，这里只记元数据）
type MediaItem struct {
	StorageKey  string `json:"storage_key"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	IsPrimary   bool   `json:"is_primary"`
}

// Pricing 定价输入，按交易方式取用对应字段（单位：元）
type Pricing struct {
	SalePrice      float64 `json:"sale_price"`
	MonthlyRent    float64 `json:"monthly_rent"`
	Deposit        float64 `json:"deposit"`
	AuctionStart   float64 `json:"auction_start"`
	AuctionReserve float64 `json:"auction_reserve"`
	CurrencyCode   string  `json:"currency_code"`
}

// Location 位置输入
type Location struct {
	Address   string  `json:"address"`
	City      string  `json:"city"`
	Province  string  `json:"province"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Form 向导累积的表单状态
type Form struct {
	Action       string                `json:"action"`
	PropertyType string                `json:"property_type"`
	Badges       []string              `json:"badges"`
	Details      model.PropertyDetails `json:"details"`
	Title        string                `json:"title"`
	Description  string                `json:"description"`
	Pricing      Pricing               `json:"pricing"`
	Location     Location              `json:"location"`
	Media        []MediaItem           `json:"media"`
}

// ==================== 会话状态机 ====================

// Session 单个会话持有的向导状态
// 不做任何共享：一个会话一个实例，上层按会话键持有
type Session struct {
	OwnerID  int64
	AgencyID int64
	// 提交后关联的房源 ID，0 表示尚未提交
	ListingID int64

	Form Form

	step      Step
	completed map[Step]bool
	errors    map[string]string
}

// NewSession 创建新的向导会话
func NewSession(ownerID, agencyID int64) *Session {
	return &Session{
		OwnerID:   ownerID,
		AgencyID:  agencyID,
		step:      FirstStep,
		completed: make(map[Step]bool),
		errors:    make(map[string]string),
	}
}

// Step 当前步骤
func (s *Session) Step() Step {
	return s.step
}

// Errors 最近一次校验的字段错误
func (s *Session) Errors() map[string]string {
	return s.errors
}

// Completed 步骤是否已完成
func (s *Session) Completed(step Step) bool {
	return s.completed[step]
}

// maxCompleted 已完成的最大步骤
func (s *Session) maxCompleted() Step {
	max := Step(0)
	for step, done := range s.completed {
		if done && step > max {
			max = step
		}
	}
	return max
}

// Next 前进一步：当前步骤校验通过才允许
func (s *Session) Next() error {
	s.errors = s.validateStep(s.step)
	if len(s.errors) > 0 {
		return ErrStepInvalid
	}
	s.completed[s.step] = true
	if s.step < LastStep {
		s.step++
	}
	return nil
}

// Prev 后退一步，总是允许
func (s *Session) Prev() {
	if s.step > FirstStep {
		s.step--
	}
}

// GoTo 跳转到指定步骤
// 仅允许 n <= max(completed)+1，否则不改变状态
func (s *Session) GoTo(n Step) error {
	if n < FirstStep || n > LastStep {
		return ErrStepUnreachable
	}
	if n > s.maxCompleted()+1 {
		return ErrStepUnreachable
	}
	s.step = n
	return nil
}

// ==================== 校验 ====================

// validateStep 逐步骤的字段校验，返回字段级错误
func (s *Session) validateStep(step Step) map[string]string {
	errs := make(map[string]string)
	f := &s.Form

	switch step {
	case StepAction:
		if !model.ValidAction(f.Action) {
			errs["action"] = "请选择交易方式"
		}
	case StepPropertyType:
		if !model.ValidPropertyType(f.PropertyType) {
			errs["property_type"] = "请选择房源类型"
		}
	case StepBadges:
		// 徽章可选，只限制数量
		if len(f.Badges) > 5 {
			errs["badges"] = "徽章最多 5 个"
		}
	case StepPropertyDetails:
		if err := f.Details.Validate(f.PropertyType); err != nil {
			errs["details"] = err.Error()
		}
	case StepBasicInfo:
		if len(strings.TrimSpace(f.Title)) < 5 {
			errs["title"] = "标题至少 5 个字符"
		}
		if strings.TrimSpace(f.Description) == "" {
			errs["description"] = "描述不能为空"
		}
	case StepPricing:
		s.validatePricing(errs)
	case StepLocation:
		if strings.TrimSpace(f.Location.Address) == "" {
			errs["location.address"] = "地址不能为空"
		}
		if strings.TrimSpace(f.Location.City) == "" {
			errs["location.city"] = "城市不能为空"
		}
		if f.Location.Latitude < -90 || f.Location.Latitude > 90 {
			errs["location.latitude"] = "纬度超出范围"
		}
		if f.Location.Longitude < -180 || f.Location.Longitude > 180 {
			errs["location.longitude"] = "经度超出范围"
		}
	case StepMedia:
		if len(f.Media) == 0 {
			errs["media"] = "至少上传一张图片"
		}
		primaryCount := 0
		for _, m := range f.Media {
			if m.IsPrimary {
				primaryCount++
			}
		}
		if primaryCount > 1 {
			errs["media.primary"] = "主图只能有一张"
		}
	case StepPreview:
		// 预览步骤复查全部前序步骤
		for st := FirstStep; st < StepPreview; st++ {
			for field, msg := range s.validateStep(st) {
				errs[field] = msg
			}
		}
	}

	return errs
}

// validatePricing 按交易方式分流的定价校验
func (s *Session) validatePricing(errs map[string]string) {
	p := &s.Form.Pricing
	switch s.Form.Action {
	case model.ActionSell:
		if p.SalePrice <= 0 {
			errs["pricing.sale_price"] = "售价必须大于 0"
		}
	case model.ActionRent:
		if p.MonthlyRent <= 0 {
			errs["pricing.monthly_rent"] = "月租必须大于 0"
		}
		if p.Deposit < 0 {
			errs["pricing.deposit"] = "押金不能为负"
		}
	case model.ActionAuction:
		if p.AuctionStart <= 0 {
			errs["pricing.auction_start"] = "起拍价必须大于 0"
		}
		if p.AuctionReserve > 0 && p.AuctionReserve < p.AuctionStart {
			errs["pricing.auction_reserve"] = "保留价不能低于起拍价"
		}
	default:
		errs["pricing"] = "请先选择交易方式"
	}
}

// ValidateAll 全量校验（提交审核前）
func (s *Session) ValidateAll() map[string]string {
	errs := make(map[string]string)
	for st := FirstStep; st <= LastStep; st++ {
		if st == StepPreview {
			continue // 预览步骤本身就是复查，避免重复
		}
		for field, msg := range s.validateStep(st) {
			errs[field] = msg
		}
	}
	return errs
}

// ==================== 产出 ====================

// BuildListing 由向导状态构建房源行（提交审核时调用）
// 校验未通过时返回 ErrNotComplete，Session 保持不变
func (s *Session) BuildListing() (*model.Listing, error) {
	s.errors = s.ValidateAll()
	if len(s.errors) > 0 {
		return nil, ErrNotComplete
	}

	detailsJSON, err := json.Marshal(&s.Form.Details)
	if err != nil {
		return nil, fmt.Errorf("详情序列化失败: %v", err)
	}

	currency := s.Form.Pricing.CurrencyCode
	if currency == "" {
		currency = "ZAR"
	}

	listing := &model.Listing{
		AgencyID:     s.AgencyID,
		CreatorID:    s.OwnerID,
		Action:       s.Form.Action,
		PropertyType: s.Form.PropertyType,
		Badges:       model.StringSlice(s.Form.Badges),
		Title:        s.Form.Title,
		Description:  s.Form.Description,
		Details:      detailsJSON,
		CurrencyCode: currency,

		SalePriceAmount:      toCents(s.Form.Pricing.SalePrice),
		MonthlyRentAmount:    toCents(s.Form.Pricing.MonthlyRent),
		DepositAmount:        toCents(s.Form.Pricing.Deposit),
		AuctionStartAmount:   toCents(s.Form.Pricing.AuctionStart),
		AuctionReserveAmount: toCents(s.Form.Pricing.AuctionReserve),

		Address:   s.Form.Location.Address,
		City:      s.Form.Location.City,
		Province:  s.Form.Location.Province,
		Latitude:  s.Form.Location.Latitude,
		Longitude: s.Form.Location.Longitude,

		Status:         model.ListingStatusDraft,
		ApprovalStatus: model.ApprovalStatusNone,
	}

	return listing, nil
}

// BuildMedia 由向导状态构建媒体行
// 没有显式主图时，第一张默认为主图
func (s *Session) BuildMedia(listingID int64) []model.ListingMedia {
	media := make([]model.ListingMedia, len(s.Form.Media))
	hasPrimary := false
	for _, m := range s.Form.Media {
		if m.IsPrimary {
			hasPrimary = true
			break
		}
	}
	for i, m := range s.Form.Media {
		media[i] = model.ListingMedia{
			ListingID:   listingID,
			StorageKey:  m.StorageKey,
			URL:         m.URL,
			ContentType: m.ContentType,
			Position:    i,
			IsPrimary:   m.IsPrimary || (!hasPrimary && i == 0),
		}
	}
	return media
}

func toCents(amount float64) int64 {
	return int64(amount*100 + 0.5)
}

// ==================== 快照 ====================

// snapshot 落库用的序列化结构
type snapshot struct {
	Form      Form  `json:"form"`
	Step      Step  `json:"step"`
	Completed []int `json:"completed"`
	ListingID int64 `json:"listing_id"`
}

// Snapshot 序列化当前状态（保存草稿，不做校验）
func (s *Session) Snapshot() ([]byte, error) {
	snap := snapshot{
		Form:      s.Form,
		Step:      s.step,
		ListingID: s.ListingID,
	}
	for step, done := range s.completed {
		if done {
			snap.Completed = append(snap.Completed, int(step))
		}
	}
	return json.Marshal(&snap)
}

// FromListing 把已落库的房源装回向导（驳回后继续编辑）
// 所有步骤视为已完成，定位到预览步骤
func FromListing(ownerID, agencyID int64, listing *model.Listing) (*Session, error) {
	var details model.PropertyDetails
	if len(listing.Details) > 0 {
		if err := json.Unmarshal(listing.Details, &details); err != nil {
			return nil, fmt.Errorf("房源详情解析失败: %v", err)
		}
	}

	s := NewSession(ownerID, agencyID)
	s.ListingID = listing.ID
	s.Form = Form{
		Action:       listing.Action,
		PropertyType: listing.PropertyType,
		Badges:       []string(listing.Badges),
		Details:      details,
		Title:        listing.Title,
		Description:  listing.Description,
		Pricing: Pricing{
			SalePrice:      fromCents(listing.SalePriceAmount),
			MonthlyRent:    fromCents(listing.MonthlyRentAmount),
			Deposit:        fromCents(listing.DepositAmount),
			AuctionStart:   fromCents(listing.AuctionStartAmount),
			AuctionReserve: fromCents(listing.AuctionReserveAmount),
			CurrencyCode:   listing.CurrencyCode,
		},
		Location: Location{
			Address:   listing.Address,
			City:      listing.City,
			Province:  listing.Province,
			Latitude:  listing.Latitude,
			Longitude: listing.Longitude,
		},
	}
	for _, m := range listing.Media {
		s.Form.Media = append(s.Form.Media, MediaItem{
			StorageKey:  m.StorageKey,
			URL:         m.URL,
			ContentType: m.ContentType,
			IsPrimary:   m.IsPrimary,
		})
	}
	for st := FirstStep; st < LastStep; st++ {
		s.completed[st] = true
	}
	s.step = LastStep
	return s, nil
}

func fromCents(amount int64) float64 {
	return float64(amount) / 100
}

// Restore 从快照恢复会话
func Restore(ownerID, agencyID int64, data []byte) (*Session, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("草稿快照解析失败: %v", err)
	}

	s := NewSession(ownerID, agencyID)
	s.Form = snap.Form
	s.ListingID = snap.ListingID
	if snap.Step >= FirstStep && snap.Step <= LastStep {
		s.step = snap.Step
	}
	for _, step := range snap.Completed {
		s.completed[Step(step)] = true
	}
	return s, nil
}
