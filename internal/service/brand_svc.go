package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"gorm.io/gorm"

	"estate_dev_v1_202609/internal/api/dto"
	"estate_dev_v1_202609/internal/middleware"
	"estate_dev_v1_202609/internal/model"
	"estate_dev_v1_202609/internal/repository"
)

// ==================== BrandService 品牌模拟服务 ====================

// BrandService 平台自营品牌档案与模拟入口
// 每个品牌挂一个影子租户，超管可拿模拟 Token 以开发者身份操作它
type BrandService struct {
	brandRepo    repository.BrandRepository
	agencyRepo   repository.AgencyRepository
	uow          *repository.ListingUnitOfWork
	activityRepo repository.ActivityRepository
}

// NewBrandService 创建品牌模拟服务
func NewBrandService(
	brandRepo repository.BrandRepository,
	agencyRepo repository.AgencyRepository,
	uow *repository.ListingUnitOfWork,
	activityRepo repository.ActivityRepository,
) *BrandService {
	return &BrandService{
		brandRepo:    brandRepo,
		agencyRepo:   agencyRepo,
		uow:          uow,
		activityRepo: activityRepo,
	}
}

// ==================== 档案管理 ====================

// Create 创建品牌档案，同时建影子租户
// 影子租户直接激活：品牌播种不走订阅流程
func (s *BrandService) Create(ctx context.Context, adminID int64, req *dto.CreateBrandRequest) (*dto.BrandVO, error) {
	if _, err := s.brandRepo.GetBySlug(ctx, req.Slug); err == nil {
		return nil, ErrDuplicate
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	now := time.Now()
	shadow := &model.Agency{
		Name:          fmt.Sprintf("%s (品牌)", req.Name),
		LogoURL:       req.LogoURL,
		IsActivated:   true,
		ActivatedAt:   &now,
		IsBrandShadow: true,
	}
	if err := s.agencyRepo.Create(ctx, shadow); err != nil {
		return nil, err
	}

	brand := &model.BrandProfile{
		Name:           req.Name,
		Slug:           req.Slug,
		Tagline:        req.Tagline,
		LogoURL:        req.LogoURL,
		ShadowAgencyID: shadow.ID,
		OwnerAdminID:   adminID,
		IsActive:       true,
	}
	if err := s.brandRepo.Create(ctx, brand); err != nil {
		return nil, err
	}

	vo := toBrandVO(brand)
	return &vo, nil
}

// Update 更新品牌档案
func (s *BrandService) Update(ctx context.Context, brandID int64, req *dto.UpdateBrandRequest) (*dto.BrandVO, error) {
	brand, err := s.getBrand(ctx, brandID)
	if err != nil {
		return nil, err
	}

	if req.Tagline != nil {
		brand.Tagline = *req.Tagline
	}
	if req.LogoURL != nil {
		brand.LogoURL = *req.LogoURL
	}
	if req.IsActive != nil {
		brand.IsActive = *req.IsActive
	}
	if err := s.brandRepo.Update(ctx, brand); err != nil {
		return nil, err
	}

	vo := toBrandVO(brand)
	return &vo, nil
}

// Delete 删除品牌档案（影子租户与其房源保留，便于追溯）
func (s *BrandService) Delete(ctx context.Context, brandID int64) error {
	if _, err := s.getBrand(ctx, brandID); err != nil {
		return err
	}
	return s.brandRepo.Delete(ctx, brandID)
}

// List 品牌档案列表
func (s *BrandService) List(ctx context.Context) ([]dto.BrandVO, error) {
	brands, err := s.brandRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	vos := make([]dto.BrandVO, len(brands))
	for i := range brands {
		vos[i] = toBrandVO(&brands[i])
	}
	return vos, nil
}

// ==================== 模拟入口 ====================

// Emulate 签发品牌模拟 Token
// 持有者在 Token 有效期内以开发者身份落在影子租户
func (s *BrandService) Emulate(ctx context.Context, adminID int64, adminName string, brandID int64) (*dto.EmulateResponse, error) {
	brand, err := s.getBrand(ctx, brandID)
	if err != nil {
		return nil, err
	}
	if !brand.IsActive {
		return nil, ErrInvalidState
	}

	token, expiresAt, err := middleware.GenerateEmulationToken(adminID, adminName, brand.ShadowAgencyID, brand.ID)
	if err != nil {
		return nil, err
	}

	return &dto.EmulateResponse{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		Brand:       toBrandVO(brand),
	}, nil
}

// ==================== 播种演示房源 ====================

// 播种素材池
var (
	seedCities = []string{"Cape Town", "Johannesburg", "Durban", "Pretoria", "Stellenbosch"}
	seedTitles = []string{
		"样板公寓 海景两房", "花园独栋 带泳池", "城央精装单间",
		"近校区合租房 拎包入住", "投资型商铺 沿街旺铺", "河畔地块 规划齐备",
	}
	seedBadges = []string{"featured", "new", "verified"}
)

// SeedListings 以影子租户名义批量播种演示房源
// 播种内容直接进入已发布状态，不占用审核队列
func (s *BrandService) SeedListings(ctx context.Context, brandID int64, count int) (*dto.SeedListingsResponse, error) {
	brand, err := s.getBrand(ctx, brandID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	rng := rand.New(rand.NewSource(now.UnixNano()))

	var created []int64
	err = s.uow.Transaction(ctx, func(tx *repository.ListingUnitOfWork) error {
		for i := 0; i < count; i++ {
			listing, err := buildSeedListing(brand, rng, now)
			if err != nil {
				return err
			}
			if err := tx.Listings.Create(ctx, listing); err != nil {
				return err
			}
			created = append(created, listing.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	_ = s.activityRepo.Create(ctx, &model.ActivityEvent{
		AgencyID:   brand.ShadowAgencyID,
		ActorID:    brand.OwnerAdminID,
		Verb:       model.ActivityListingPublished,
		ObjectType: "brand",
		ObjectID:   brand.ID,
		Summary:    fmt.Sprintf("品牌播种 %d 套演示房源: %s", len(created), brand.Name),
	})

	return &dto.SeedListingsResponse{CreatedIDs: created}, nil
}

// buildSeedListing 生成一套演示房源
func buildSeedListing(brand *model.BrandProfile, rng *rand.Rand, now time.Time) (*model.Listing, error) {
	actions := []string{model.ActionSell, model.ActionRent, model.ActionAuction}
	action := actions[rng.Intn(len(actions))]

	details, _ := json.Marshal(&model.PropertyDetails{
		Apartment: &model.ApartmentDetails{
			Bedrooms:    1 + rng.Intn(4),
			Bathrooms:   1 + rng.Intn(3),
			FloorArea:   45 + float64(rng.Intn(150)),
			Floor:       1 + rng.Intn(20),
			TotalFloors: 25,
			HasElevator: true,
		},
	})

	listing := &model.Listing{
		AgencyID:     brand.ShadowAgencyID,
		CreatorID:    brand.OwnerAdminID,
		Action:       action,
		PropertyType: model.PropertyTypeApartment,
		Badges:       model.StringSlice{seedBadges[rng.Intn(len(seedBadges))]},
		Title:        fmt.Sprintf("[%s] %s", brand.Name, seedTitles[rng.Intn(len(seedTitles))]),
		Description:  fmt.Sprintf("%s 出品演示房源。%s", brand.Name, brand.Tagline),
		Details:      details,
		CurrencyCode: "ZAR",

		Address:  fmt.Sprintf("%d Demo Street", 1+rng.Intn(200)),
		City:     seedCities[rng.Intn(len(seedCities))],
		Province: "Western Cape",
		// 南非范围内的随机坐标
		Latitude:  -34 + rng.Float64()*8,
		Longitude: 18 + rng.Float64()*10,

		Status:         model.ListingStatusPublished,
		ApprovalStatus: model.ApprovalStatusApproved,
	}

	switch action {
	case model.ActionSell:
		listing.SalePriceAmount = int64(800_000+rng.Intn(4_000_000)) * 100
	case model.ActionRent:
		listing.MonthlyRentAmount = int64(8_000+rng.Intn(30_000)) * 100
		listing.DepositAmount = listing.MonthlyRentAmount * 2
	case model.ActionAuction:
		listing.AuctionStartAmount = int64(500_000+rng.Intn(2_000_000)) * 100
		listing.AuctionReserveAmount = listing.AuctionStartAmount * 12 / 10
	}

	if err := listing.MarkPublished(now); err != nil {
		return nil, err
	}
	return listing, nil
}

// ==================== 辅助方法 ====================

func (s *BrandService) getBrand(ctx context.Context, brandID int64) (*model.BrandProfile, error) {
	brand, err := s.brandRepo.GetByID(ctx, brandID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return brand, nil
}

func toBrandVO(b *model.BrandProfile) dto.BrandVO {
	return dto.BrandVO{
		ID:             b.ID,
		Name:           b.Name,
		Slug:           b.Slug,
		Tagline:        b.Tagline,
		LogoURL:        b.LogoURL,
		ShadowAgencyID: b.ShadowAgencyID,
		IsActive:       b.IsActive,
	}
}
