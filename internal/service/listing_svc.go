package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"estate_dev_v1_202609/internal/api/dto"
	"estate_dev_v1_202609/internal/model"
	"estate_dev_v1_202609/internal/repository"
)

// publicListCacheTTL 公开列表缓存时长
const publicListCacheTTL = 30 * time.Second

// publicListCacheKey 公开列表缓存键，含全部筛选维度
func publicListCacheKey(req *dto.ListListingsRequest) string {
	return fmt.Sprintf("listing:public:%s:%s:%s:%d:%d",
		req.Action, req.PropertyType, req.City, req.Page, req.PageSize)
}

// publicListCache 公开列表缓存体
type publicListCache struct {
	List  []dto.ListingVO `json:"list"`
	Total int64           `json:"total"`
}

// ==================== ListingService 房源服务 ====================

// ListingService 房源查询与维护服务
type ListingService struct {
	uow          *repository.ListingUnitOfWork
	activityRepo repository.ActivityRepository
	rdb          *redis.Client // 可为 nil，缓存自动退化
}

// NewListingService 创建房源服务
func NewListingService(uow *repository.ListingUnitOfWork, activityRepo repository.ActivityRepository, rdb *redis.Client) *ListingService {
	return &ListingService{uow: uow, activityRepo: activityRepo, rdb: rdb}
}

// ==================== 查询 ====================

// ListByAgency 租户侧房源列表
func (s *ListingService) ListByAgency(ctx context.Context, agencyID int64, req *dto.ListListingsRequest) ([]dto.ListingVO, int64, error) {
	listings, total, err := s.uow.Listings.List(ctx, repository.ListingFilter{
		AgencyID:     agencyID,
		Status:       req.Status,
		Action:       req.Action,
		PropertyType: req.PropertyType,
		City:         req.City,
		Page:         req.Page,
		PageSize:     req.PageSize,
	})
	if err != nil {
		return nil, 0, err
	}
	return s.toVOList(ctx, listings), total, nil
}

// ListPublished 公开侧已发布房源列表，不限租户
// Redis 按筛选条件做 30 秒 cache-aside，上下架最迟 30 秒可见
func (s *ListingService) ListPublished(ctx context.Context, req *dto.ListListingsRequest) ([]dto.ListingVO, int64, error) {
	cacheKey := publicListCacheKey(req)
	if s.rdb != nil {
		if data, err := s.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
			var cached publicListCache
			if json.Unmarshal(data, &cached) == nil {
				return cached.List, cached.Total, nil
			}
		}
	}

	listings, total, err := s.uow.Listings.List(ctx, repository.ListingFilter{
		Action:        req.Action,
		PropertyType:  req.PropertyType,
		City:          req.City,
		PublishedOnly: true,
		Page:          req.Page,
		PageSize:      req.PageSize,
	})
	if err != nil {
		return nil, 0, err
	}
	vos := s.toVOList(ctx, listings)

	if s.rdb != nil {
		if data, err := json.Marshal(publicListCache{List: vos, Total: total}); err == nil {
			_ = s.rdb.Set(ctx, cacheKey, data, publicListCacheTTL).Err()
		}
	}
	return vos, total, nil
}

// GetDetail 房源详情（租户侧，校验归属）
func (s *ListingService) GetDetail(ctx context.Context, agencyID, listingID int64) (*dto.ListingDetailVO, error) {
	listing, err := s.uow.Listings.GetWithMedia(ctx, listingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if agencyID > 0 && listing.AgencyID != agencyID {
		return nil, ErrForbidden
	}
	return s.toDetailVO(listing), nil
}

// GetPublicDetail 公开侧详情，仅已发布可见
func (s *ListingService) GetPublicDetail(ctx context.Context, listingID int64) (*dto.ListingDetailVO, error) {
	listing, err := s.uow.Listings.GetWithMedia(ctx, listingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !listing.IsPublished {
		return nil, ErrNotFound
	}
	vo := s.toDetailVO(listing)
	vo.RejectionReason = ""
	return vo, nil
}

// ==================== 变更 ====================

// Update 更新房源基础字段
// 仅 draft/rejected 可编辑；并发编辑为后写覆盖
func (s *ListingService) Update(ctx context.Context, agencyID, listingID int64, req *dto.UpdateListingRequest) (*dto.ListingDetailVO, error) {
	listing, err := s.getOwned(ctx, agencyID, listingID)
	if err != nil {
		return nil, err
	}
	if !listing.CanEdit() {
		// auto_publish 开关不受编辑窗口限制
		if req.Title != nil || req.Description != nil || req.Badges != nil {
			return nil, ErrInvalidState
		}
	}

	if req.Title != nil {
		listing.Title = *req.Title
	}
	if req.Description != nil {
		listing.Description = *req.Description
	}
	if req.Badges != nil {
		listing.Badges = model.StringSlice(req.Badges)
	}
	if req.AutoPublish != nil {
		listing.AutoPublish = *req.AutoPublish
	}

	if err := s.uow.Listings.Update(ctx, listing); err != nil {
		return nil, err
	}
	return s.GetDetail(ctx, agencyID, listingID)
}

// Delete 删除房源（软删除），仅草稿可删
func (s *ListingService) Delete(ctx context.Context, agencyID, listingID int64) error {
	listing, err := s.getOwned(ctx, agencyID, listingID)
	if err != nil {
		return err
	}
	if listing.Status != model.ListingStatusDraft {
		return ErrInvalidState
	}

	err = s.uow.Transaction(ctx, func(tx *repository.ListingUnitOfWork) error {
		if err := tx.Media.DeleteByListingID(ctx, listingID); err != nil {
			return err
		}
		return tx.Listings.Delete(ctx, listingID)
	})
	if err != nil {
		return err
	}

	s.invalidateKPICache(ctx, agencyID)
	return nil
}

// ==================== 媒体维护 ====================

// AttachMedia 把直传完成的对象挂载到房源
func (s *ListingService) AttachMedia(ctx context.Context, agencyID int64, req *dto.AttachMediaRequest, url, contentType string) (*dto.MediaVO, error) {
	listing, err := s.getOwned(ctx, agencyID, req.ListingID)
	if err != nil {
		return nil, err
	}

	existing, err := s.uow.Media.GetByListingID(ctx, req.ListingID)
	if err != nil {
		return nil, err
	}

	media := &model.ListingMedia{
		ListingID:   req.ListingID,
		StorageKey:  req.StorageKey,
		URL:         url,
		ContentType: contentType,
		Position:    len(existing),
		IsPrimary:   req.IsPrimary || len(existing) == 0,
	}

	err = s.uow.Transaction(ctx, func(tx *repository.ListingUnitOfWork) error {
		if media.IsPrimary {
			if err := tx.Media.ClearPrimary(ctx, req.ListingID); err != nil {
				return err
			}
		}
		return tx.Media.Create(ctx, media)
	})
	if err != nil {
		return nil, err
	}

	_ = s.activityRepo.Create(ctx, &model.ActivityEvent{
		AgencyID:   agencyID,
		Verb:       model.ActivityMediaUploaded,
		ObjectType: "listing",
		ObjectID:   listing.ID,
		Summary:    fmt.Sprintf("上传媒体: %s", listing.Title),
	})

	vo := toMediaVO(media)
	return &vo, nil
}

// ReorderMedia 重排媒体
// 客户端按期望顺序给出全部媒体 ID，落库后位置从 0 连续
func (s *ListingService) ReorderMedia(ctx context.Context, agencyID, listingID int64, req *dto.ReorderMediaRequest) error {
	if _, err := s.getOwned(ctx, agencyID, listingID); err != nil {
		return err
	}

	existing, err := s.uow.Media.GetByListingID(ctx, listingID)
	if err != nil {
		return err
	}
	if len(req.MediaIDs) != len(existing) {
		return ErrInvalidState
	}
	owned := make(map[int64]bool, len(existing))
	for _, m := range existing {
		owned[m.ID] = true
	}
	for _, id := range req.MediaIDs {
		if !owned[id] {
			return ErrInvalidState
		}
	}

	return s.uow.Transaction(ctx, func(tx *repository.ListingUnitOfWork) error {
		for pos, id := range req.MediaIDs {
			if err := tx.Media.UpdatePosition(ctx, id, pos); err != nil {
				return err
			}
		}
		return nil
	})
}

// SetPrimaryMedia 指定主图，同一房源只保留一张
func (s *ListingService) SetPrimaryMedia(ctx context.Context, agencyID, listingID, mediaID int64) error {
	if _, err := s.getOwned(ctx, agencyID, listingID); err != nil {
		return err
	}

	media, err := s.uow.Media.GetByID(ctx, mediaID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if media.ListingID != listingID {
		return ErrForbidden
	}

	return s.uow.Transaction(ctx, func(tx *repository.ListingUnitOfWork) error {
		if err := tx.Media.ClearPrimary(ctx, listingID); err != nil {
			return err
		}
		return tx.Media.SetPrimary(ctx, mediaID)
	})
}

// DeleteMedia 删除单个媒体并压实位置
func (s *ListingService) DeleteMedia(ctx context.Context, agencyID, listingID, mediaID int64) error {
	if _, err := s.getOwned(ctx, agencyID, listingID); err != nil {
		return err
	}

	media, err := s.uow.Media.GetByID(ctx, mediaID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if media.ListingID != listingID {
		return ErrForbidden
	}

	return s.uow.Transaction(ctx, func(tx *repository.ListingUnitOfWork) error {
		if err := tx.Media.Delete(ctx, mediaID); err != nil {
			return err
		}
		remaining, err := tx.Media.GetByListingID(ctx, listingID)
		if err != nil {
			return err
		}
		hasPrimary := false
		for pos, m := range remaining {
			if m.Position != pos {
				if err := tx.Media.UpdatePosition(ctx, m.ID, pos); err != nil {
					return err
				}
			}
			if m.IsPrimary {
				hasPrimary = true
			}
		}
		// 主图被删则首图顶上
		if !hasPrimary && len(remaining) > 0 {
			return tx.Media.SetPrimary(ctx, remaining[0].ID)
		}
		return nil
	})
}

// ==================== 辅助方法 ====================

// getOwned 加载房源并校验租户归属
func (s *ListingService) getOwned(ctx context.Context, agencyID, listingID int64) (*model.Listing, error) {
	listing, err := s.uow.Listings.GetByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if listing.AgencyID != agencyID {
		return nil, ErrForbidden
	}
	return listing, nil
}

// invalidateKPICache 房源状态变化后失效工作台缓存
func (s *ListingService) invalidateKPICache(ctx context.Context, agencyID int64) {
	if s.rdb == nil {
		return
	}
	_ = s.rdb.Del(ctx, kpiCacheKey(agencyID)).Err()
}

func (s *ListingService) toVOList(ctx context.Context, listings []model.Listing) []dto.ListingVO {
	vos := make([]dto.ListingVO, len(listings))
	for i := range listings {
		vos[i] = s.toVO(&listings[i])
		// 列表页补主图
		media, err := s.uow.Media.GetByListingID(ctx, listings[i].ID)
		if err == nil {
			for _, m := range media {
				if m.IsPrimary {
					vos[i].PrimaryImage = m.URL
					break
				}
			}
		}
	}
	return vos
}

func (s *ListingService) toVO(l *model.Listing) dto.ListingVO {
	vo := dto.ListingVO{
		ID:             l.ID,
		AgencyID:       l.AgencyID,
		Action:         l.Action,
		PropertyType:   l.PropertyType,
		Title:          l.Title,
		City:           l.City,
		Badges:         []string(l.Badges),
		Status:         l.Status,
		ApprovalStatus: l.ApprovalStatus,
		IsPublished:    l.IsPublished,
		PriceDisplay:   formatPrice(l),
		CreatedAt:      l.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if l.PublishedAt != nil {
		vo.PublishedAt = l.PublishedAt.Format("2006-01-02 15:04:05")
	}
	return vo
}

func (s *ListingService) toDetailVO(l *model.Listing) *dto.ListingDetailVO {
	vo := &dto.ListingDetailVO{
		ListingVO:       s.toVO(l),
		Description:     l.Description,
		Details:         []byte(l.Details),
		Address:         l.Address,
		Province:        l.Province,
		Latitude:        l.Latitude,
		Longitude:       l.Longitude,
		RejectionReason: l.RejectionReason,
	}
	for i := range l.Media {
		vo.Media = append(vo.Media, toMediaVO(&l.Media[i]))
		if l.Media[i].IsPrimary {
			vo.PrimaryImage = l.Media[i].URL
		}
	}
	return vo
}

func toMediaVO(m *model.ListingMedia) dto.MediaVO {
	return dto.MediaVO{
		ID:          m.ID,
		URL:         m.URL,
		ContentType: m.ContentType,
		Position:    m.Position,
		IsPrimary:   m.IsPrimary,
	}
}

// formatPrice 按交易方式生成展示价格
func formatPrice(l *model.Listing) string {
	switch l.Action {
	case model.ActionSell:
		return fmt.Sprintf("%s %.2f", l.CurrencyCode, float64(l.SalePriceAmount)/100)
	case model.ActionRent:
		return fmt.Sprintf("%s %.2f/月", l.CurrencyCode, float64(l.MonthlyRentAmount)/100)
	case model.ActionAuction:
		return fmt.Sprintf("%s %.2f 起拍", l.CurrencyCode, float64(l.AuctionStartAmount)/100)
	}
	return ""
}
