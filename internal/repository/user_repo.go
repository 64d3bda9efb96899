package repository

import (
	"context"

	"gorm.io/gorm"

	"estate_dev_v1_202609/internal/model"
)

// ==================== 仓储接口 ====================

// UserRepository 用户仓储接口
type UserRepository interface {
	Create(ctx context.Context, user *model.SysUser) error
	GetByID(ctx context.Context, id int64) (*model.SysUser, error)
	GetByUsername(ctx context.Context, username string) (*model.SysUser, error)
	Update(ctx context.Context, user *model.SysUser) error
	ListByAgencyID(ctx context.Context, agencyID int64) ([]model.SysUser, error)
}

// AgencyRepository 开发商（租户）仓储接口
type AgencyRepository interface {
	Create(ctx context.Context, agency *model.Agency) error
	GetByID(ctx context.Context, id int64) (*model.Agency, error)
	GetByStripeCustomerID(ctx context.Context, customerID string) (*model.Agency, error)
	Update(ctx context.Context, agency *model.Agency) error
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error
}

// ==================== User 实现 ====================

type userRepo struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓储
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *model.SysUser) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*model.SysUser, error) {
	var user model.SysUser
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*model.SysUser, error) {
	var user model.SysUser
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) Update(ctx context.Context, user *model.SysUser) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *userRepo) ListByAgencyID(ctx context.Context, agencyID int64) ([]model.SysUser, error) {
	var users []model.SysUser
	err := r.db.WithContext(ctx).Where("agency_id = ?", agencyID).Order("id ASC").Find(&users).Error
	return users, err
}

// ==================== Agency 实现 ====================

type agencyRepo struct {
	db *gorm.DB
}

// NewAgencyRepository 创建开发商仓储
func NewAgencyRepository(db *gorm.DB) AgencyRepository {
	return &agencyRepo{db: db}
}

func (r *agencyRepo) Create(ctx context.Context, agency *model.Agency) error {
	return r.db.WithContext(ctx).Create(agency).Error
}

func (r *agencyRepo) GetByID(ctx context.Context, id int64) (*model.Agency, error) {
	var agency model.Agency
	if err := r.db.WithContext(ctx).First(&agency, id).Error; err != nil {
		return nil, err
	}
	return &agency, nil
}

func (r *agencyRepo) GetByStripeCustomerID(ctx context.Context, customerID string) (*model.Agency, error) {
	var agency model.Agency
	err := r.db.WithContext(ctx).Where("stripe_customer_id = ?", customerID).First(&agency).Error
	if err != nil {
		return nil, err
	}
	return &agency, nil
}

func (r *agencyRepo) Update(ctx context.Context, agency *model.Agency) error {
	return r.db.WithContext(ctx).Save(agency).Error
}

func (r *agencyRepo) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.Agency{}).Where("id = ?", id).Updates(fields).Error
}
