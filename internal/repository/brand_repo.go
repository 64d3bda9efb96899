package repository

import (
	"context"

	"gorm.io/gorm"

	"estate_dev_v1_202609/internal/model"
)

// ==================== 仓储接口 ====================

// BrandRepository 品牌档案仓储接口
type BrandRepository interface {
	Create(ctx context.Context, brand *model.BrandProfile) error
	GetByID(ctx context.Context, id int64) (*model.BrandProfile, error)
	GetBySlug(ctx context.Context, slug string) (*model.BrandProfile, error)
	Update(ctx context.Context, brand *model.BrandProfile) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]model.BrandProfile, error)
}

// ActivityRepository 动态流仓储接口
type ActivityRepository interface {
	Create(ctx context.Context, event *model.ActivityEvent) error
	ListByAgencyID(ctx context.Context, agencyID int64, page, pageSize int) ([]model.ActivityEvent, int64, error)
}

// ==================== Brand 实现 ====================

type brandRepo struct {
	db *gorm.DB
}

// NewBrandRepository 创建品牌仓储
func NewBrandRepository(db *gorm.DB) BrandRepository {
	return &brandRepo{db: db}
}

func (r *brandRepo) Create(ctx context.Context, brand *model.BrandProfile) error {
	return r.db.WithContext(ctx).Create(brand).Error
}

func (r *brandRepo) GetByID(ctx context.Context, id int64) (*model.BrandProfile, error) {
	var brand model.BrandProfile
	if err := r.db.WithContext(ctx).First(&brand, id).Error; err != nil {
		return nil, err
	}
	return &brand, nil
}

func (r *brandRepo) GetBySlug(ctx context.Context, slug string) (*model.BrandProfile, error) {
	var brand model.BrandProfile
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&brand).Error; err != nil {
		return nil, err
	}
	return &brand, nil
}

func (r *brandRepo) Update(ctx context.Context, brand *model.BrandProfile) error {
	return r.db.WithContext(ctx).Save(brand).Error
}

func (r *brandRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.BrandProfile{}, id).Error
}

func (r *brandRepo) List(ctx context.Context) ([]model.BrandProfile, error) {
	var brands []model.BrandProfile
	err := r.db.WithContext(ctx).Order("id ASC").Find(&brands).Error
	return brands, err
}

// ==================== Activity 实现 ====================

type activityRepo struct {
	db *gorm.DB
}

// NewActivityRepository 创建动态流仓储
func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepo{db: db}
}

func (r *activityRepo) Create(ctx context.Context, event *model.ActivityEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *activityRepo) ListByAgencyID(ctx context.Context, agencyID int64, page, pageSize int) ([]model.ActivityEvent, int64, error) {
	var events []model.ActivityEvent
	var total int64

	query := r.db.WithContext(ctx).Model(&model.ActivityEvent{}).Where("agency_id = ?", agencyID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	err := query.Order("created_at DESC").Limit(pageSize).Offset((page - 1) * pageSize).Find(&events).Error
	return events, total, err
}
