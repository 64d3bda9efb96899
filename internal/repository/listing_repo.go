package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"estate_dev_v1_202609/internal/model"
)

// ==================== 仓储接口 ====================

// ListingRepository 房源仓储接口
type ListingRepository interface {
	Create(ctx context.Context, listing *model.Listing) error
	GetByID(ctx context.Context, id int64) (*model.Listing, error)
	GetWithMedia(ctx context.Context, id int64) (*model.Listing, error)
	Update(ctx context.Context, listing *model.Listing) error
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter ListingFilter) ([]model.Listing, int64, error)
	CountByStatus(ctx context.Context, agencyID int64) (map[string]int64, error)

	// 发布扫描相关
	FindAutoPublishable(ctx context.Context, limit int) ([]*model.Listing, error)
}

// MediaRepository 房源媒体仓储接口
type MediaRepository interface {
	Create(ctx context.Context, media *model.ListingMedia) error
	CreateBatch(ctx context.Context, media []model.ListingMedia) error
	GetByID(ctx context.Context, id int64) (*model.ListingMedia, error)
	GetByListingID(ctx context.Context, listingID int64) ([]model.ListingMedia, error)
	Delete(ctx context.Context, id int64) error
	DeleteByListingID(ctx context.Context, listingID int64) error

	// 排序 / 主图
	UpdatePosition(ctx context.Context, id int64, position int) error
	ClearPrimary(ctx context.Context, listingID int64) error
	SetPrimary(ctx context.Context, id int64) error
}

// DraftRepository 向导草稿快照仓储接口
type DraftRepository interface {
	Save(ctx context.Context, draft *model.ListingDraft) error
	GetByOwner(ctx context.Context, ownerID int64) (*model.ListingDraft, error)
	DeleteByOwner(ctx context.Context, ownerID int64) error
	DeleteIdleBefore(ctx context.Context, before time.Time) (int64, error)
}

// ==================== 过滤条件 ====================

// ListingFilter 房源查询过滤条件
type ListingFilter struct {
	AgencyID      int64
	Status        string
	Action        string
	PropertyType  string
	City          string
	PublishedOnly bool
	Page          int
	PageSize      int
}

// ==================== Listing 仓储实现 ====================

type listingRepo struct {
	db *gorm.DB
}

// NewListingRepository 创建房源仓储
func NewListingRepository(db *gorm.DB) ListingRepository {
	return &listingRepo{db: db}
}

func (r *listingRepo) Create(ctx context.Context, listing *model.Listing) error {
	return r.db.WithContext(ctx).Create(listing).Error
}

func (r *listingRepo) GetByID(ctx context.Context, id int64) (*model.Listing, error) {
	var listing model.Listing
	if err := r.db.WithContext(ctx).First(&listing, id).Error; err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *listingRepo) GetWithMedia(ctx context.Context, id int64) (*model.Listing, error) {
	var listing model.Listing
	err := r.db.WithContext(ctx).
		Preload("Media", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&listing, id).Error
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *listingRepo) Update(ctx context.Context, listing *model.Listing) error {
	return r.db.WithContext(ctx).Save(listing).Error
}

func (r *listingRepo) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.Listing{}).Where("id = ?", id).Updates(fields).Error
}

func (r *listingRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.Listing{}, id).Error
}

func (r *listingRepo) List(ctx context.Context, filter ListingFilter) ([]model.Listing, int64, error) {
	var listings []model.Listing
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Listing{})

	if filter.AgencyID > 0 {
		query = query.Where("agency_id = ?", filter.AgencyID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.PropertyType != "" {
		query = query.Where("property_type = ?", filter.PropertyType)
	}
	if filter.City != "" {
		query = query.Where("city = ?", filter.City)
	}
	if filter.PublishedOnly {
		query = query.Where("is_published = ?", true)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	offset := (filter.Page - 1) * filter.PageSize
	if err := query.Order("created_at DESC").Limit(filter.PageSize).Offset(offset).Find(&listings).Error; err != nil {
		return nil, 0, err
	}

	return listings, total, nil
}

// CountByStatus 按状态统计，供工作台 KPI 使用
func (r *listingRepo) CountByStatus(ctx context.Context, agencyID int64) (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&model.Listing{}).
		Select("status, count(*) as count").
		Where("agency_id = ?", agencyID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make(map[string]int64, len(rows))
	for _, r := range rows {
		result[r.Status] = r.Count
	}
	return result, nil
}

// FindAutoPublishable 查找审核通过且开启自动发布的房源
func (r *listingRepo) FindAutoPublishable(ctx context.Context, limit int) ([]*model.Listing, error) {
	var listings []*model.Listing
	err := r.db.WithContext(ctx).
		Where("approval_status = ? AND auto_publish = ? AND is_published = ?",
			model.ApprovalStatusApproved, true, false).
		Limit(limit).
		Find(&listings).Error
	return listings, err
}

// ==================== Media 仓储实现 ====================

type mediaRepo struct {
	db *gorm.DB
}

// NewMediaRepository 创建媒体仓储
func NewMediaRepository(db *gorm.DB) MediaRepository {
	return &mediaRepo{db: db}
}

func (r *mediaRepo) Create(ctx context.Context, media *model.ListingMedia) error {
	return r.db.WithContext(ctx).Create(media).Error
}

func (r *mediaRepo) CreateBatch(ctx context.Context, media []model.ListingMedia) error {
	if len(media) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&media).Error
}

func (r *mediaRepo) GetByID(ctx context.Context, id int64) (*model.ListingMedia, error) {
	var media model.ListingMedia
	if err := r.db.WithContext(ctx).First(&media, id).Error; err != nil {
		return nil, err
	}
	return &media, nil
}

func (r *mediaRepo) GetByListingID(ctx context.Context, listingID int64) ([]model.ListingMedia, error) {
	var media []model.ListingMedia
	err := r.db.WithContext(ctx).
		Where("listing_id = ?", listingID).
		Order("position ASC").
		Find(&media).Error
	return media, err
}

func (r *mediaRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.ListingMedia{}, id).Error
}

func (r *mediaRepo) DeleteByListingID(ctx context.Context, listingID int64) error {
	return r.db.WithContext(ctx).Where("listing_id = ?", listingID).Delete(&model.ListingMedia{}).Error
}

func (r *mediaRepo) UpdatePosition(ctx context.Context, id int64, position int) error {
	return r.db.WithContext(ctx).
		Model(&model.ListingMedia{}).
		Where("id = ?", id).
		Update("position", position).Error
}

// ClearPrimary 清除房源下所有主图标记
func (r *mediaRepo) ClearPrimary(ctx context.Context, listingID int64) error {
	return r.db.WithContext(ctx).
		Model(&model.ListingMedia{}).
		Where("listing_id = ?", listingID).
		Update("is_primary", false).Error
}

func (r *mediaRepo) SetPrimary(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).
		Model(&model.ListingMedia{}).
		Where("id = ?", id).
		Update("is_primary", true).Error
}

// ==================== Draft 仓储实现 ====================

type draftRepo struct {
	db *gorm.DB
}

// NewDraftRepository 创建向导草稿仓储
func NewDraftRepository(db *gorm.DB) DraftRepository {
	return &draftRepo{db: db}
}

// Save 保存快照：同一所有者只有一份草稿，存在则覆盖
func (r *draftRepo) Save(ctx context.Context, draft *model.ListingDraft) error {
	var existing model.ListingDraft
	err := r.db.WithContext(ctx).Where("owner_id = ?", draft.OwnerID).First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		return r.db.WithContext(ctx).Create(draft).Error
	}
	if err != nil {
		return err
	}
	draft.ID = existing.ID
	draft.CreatedAt = existing.CreatedAt
	return r.db.WithContext(ctx).Save(draft).Error
}

func (r *draftRepo) GetByOwner(ctx context.Context, ownerID int64) (*model.ListingDraft, error) {
	var draft model.ListingDraft
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).First(&draft).Error; err != nil {
		return nil, err
	}
	return &draft, nil
}

func (r *draftRepo) DeleteByOwner(ctx context.Context, ownerID int64) error {
	return r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Delete(&model.ListingDraft{}).Error
}

// DeleteIdleBefore 清理长期未更新的草稿快照
func (r *draftRepo) DeleteIdleBefore(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("updated_at < ?", before).
		Delete(&model.ListingDraft{})
	return result.RowsAffected, result.Error
}

// ==================== 事务支持 ====================

// ListingUnitOfWork 房源工作单元（事务）
// 提交审核等多表写入走这里，保证房源行与队列条目一致落库
type ListingUnitOfWork struct {
	db       *gorm.DB
	Listings ListingRepository
	Media    MediaRepository
	Queue    ApprovalQueueRepository
	Drafts   DraftRepository
}

// NewListingUnitOfWork 创建工作单元
func NewListingUnitOfWork(db *gorm.DB) *ListingUnitOfWork {
	return &ListingUnitOfWork{
		db:       db,
		Listings: NewListingRepository(db),
		Media:    NewMediaRepository(db),
		Queue:    NewApprovalQueueRepository(db),
		Drafts:   NewDraftRepository(db),
	}
}

// Transaction 执行事务
func (u *ListingUnitOfWork) Transaction(ctx context.Context, fn func(uow *ListingUnitOfWork) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txUow := &ListingUnitOfWork{
			db:       tx,
			Listings: NewListingRepository(tx),
			Media:    NewMediaRepository(tx),
			Queue:    NewApprovalQueueRepository(tx),
			Drafts:   NewDraftRepository(tx),
		}
		return fn(txUow)
	})
}
