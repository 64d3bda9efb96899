package repository

import (
	"context"

	"gorm.io/gorm"

	"estate_dev_v1_202609/internal/model"
)

// ==================== 仓储接口 ====================

// ApprovalQueueRepository 审核队列仓储接口
type ApprovalQueueRepository interface {
	Create(ctx context.Context, entry *model.ApprovalQueueEntry) error
	GetByID(ctx context.Context, id int64) (*model.ApprovalQueueEntry, error)
	Update(ctx context.Context, entry *model.ApprovalQueueEntry) error
	GetOpenByListingID(ctx context.Context, listingID int64) (*model.ApprovalQueueEntry, error)
	GetLatestByListingID(ctx context.Context, listingID int64) (*model.ApprovalQueueEntry, error)
	List(ctx context.Context, filter QueueFilter) ([]model.ApprovalQueueEntry, int64, error)
	CountOpen(ctx context.Context, agencyID int64) (int64, error)
}

// QueueFilter 队列查询过滤条件
type QueueFilter struct {
	Status   string
	Page     int
	PageSize int
}

// ==================== 实现 ====================

type approvalQueueRepo struct {
	db *gorm.DB
}

// NewApprovalQueueRepository 创建审核队列仓储
func NewApprovalQueueRepository(db *gorm.DB) ApprovalQueueRepository {
	return &approvalQueueRepo{db: db}
}

func (r *approvalQueueRepo) Create(ctx context.Context, entry *model.ApprovalQueueEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *approvalQueueRepo) GetByID(ctx context.Context, id int64) (*model.ApprovalQueueEntry, error) {
	var entry model.ApprovalQueueEntry
	if err := r.db.WithContext(ctx).First(&entry, id).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *approvalQueueRepo) Update(ctx context.Context, entry *model.ApprovalQueueEntry) error {
	return r.db.WithContext(ctx).Save(entry).Error
}

// GetOpenByListingID 查找房源当前的待审条目（不变式：至多一条）
func (r *approvalQueueRepo) GetOpenByListingID(ctx context.Context, listingID int64) (*model.ApprovalQueueEntry, error) {
	var entry model.ApprovalQueueEntry
	err := r.db.WithContext(ctx).
		Where("listing_id = ? AND status = ?", listingID, model.QueueStatusPending).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// GetLatestByListingID 查找房源最近一条队列条目（驳回后重提交时复用）
func (r *approvalQueueRepo) GetLatestByListingID(ctx context.Context, listingID int64) (*model.ApprovalQueueEntry, error) {
	var entry model.ApprovalQueueEntry
	err := r.db.WithContext(ctx).
		Where("listing_id = ?", listingID).
		Order("id DESC").
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *approvalQueueRepo) List(ctx context.Context, filter QueueFilter) ([]model.ApprovalQueueEntry, int64, error) {
	var entries []model.ApprovalQueueEntry
	var total int64

	query := r.db.WithContext(ctx).Model(&model.ApprovalQueueEntry{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
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
	if err := query.Order("created_at ASC").Limit(filter.PageSize).Offset(offset).Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

// CountOpen 统计开发商名下待审条目数
func (r *approvalQueueRepo) CountOpen(ctx context.Context, agencyID int64) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).
		Model(&model.ApprovalQueueEntry{}).
		Where("approval_queue_entries.status = ?", model.QueueStatusPending)
	if agencyID > 0 {
		query = query.
			Joins("JOIN listings ON listings.id = approval_queue_entries.listing_id").
			Where("listings.agency_id = ?", agencyID)
	}
	err := query.Count(&count).Error
	return count, err
}
