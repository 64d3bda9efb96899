package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"estate_dev_v1_202609/internal/api/dto"
	"estate_dev_v1_202609/internal/model"
	"estate_dev_v1_202609/internal/repository"
)

// kpiCacheTTL 工作台指标缓存时长
const kpiCacheTTL = 60 * time.Second

// kpiCacheKey 工作台指标缓存键
func kpiCacheKey(agencyID int64) string {
	return fmt.Sprintf("dashboard:kpi:%d", agencyID)
}

// ==================== DashboardService 工作台服务 ====================

// DashboardService 开发商工作台（KPI + 动态流）
type DashboardService struct {
	listingRepo  repository.ListingRepository
	queueRepo    repository.ApprovalQueueRepository
	subRepo      repository.SubscriptionRepository
	activityRepo repository.ActivityRepository
	rdb          *redis.Client // 可为 nil，直接查库
}

// NewDashboardService 创建工作台服务
func NewDashboardService(
	listingRepo repository.ListingRepository,
	queueRepo repository.ApprovalQueueRepository,
	subRepo repository.SubscriptionRepository,
	activityRepo repository.ActivityRepository,
	rdb *redis.Client,
) *DashboardService {
	return &DashboardService{
		listingRepo:  listingRepo,
		queueRepo:    queueRepo,
		subRepo:      subRepo,
		activityRepo: activityRepo,
		rdb:          rdb,
	}
}

// ==================== KPI ====================

// GetKPI 工作台核心指标
// Redis 做 60 秒的 cache-aside；Redis 不可用时退化为直接查库
func (s *DashboardService) GetKPI(ctx context.Context, agencyID int64) (*dto.KPIResponse, error) {
	if s.rdb != nil {
		cached, err := s.rdb.Get(ctx, kpiCacheKey(agencyID)).Bytes()
		if err == nil {
			var resp dto.KPIResponse
			if json.Unmarshal(cached, &resp) == nil {
				return &resp, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			log.Printf("[工作台] 缓存读取失败 agency=%d: %v", agencyID, err)
		}
	}

	resp, err := s.computeKPI(ctx, agencyID)
	if err != nil {
		return nil, err
	}

	if s.rdb != nil {
		if data, err := json.Marshal(resp); err == nil {
			if err := s.rdb.Set(ctx, kpiCacheKey(agencyID), data, kpiCacheTTL).Err(); err != nil {
				log.Printf("[工作台] 缓存写入失败 agency=%d: %v", agencyID, err)
			}
		}
	}
	return resp, nil
}

// computeKPI 从库中聚合指标
func (s *DashboardService) computeKPI(ctx context.Context, agencyID int64) (*dto.KPIResponse, error) {
	byStatus, err := s.listingRepo.CountByStatus(ctx, agencyID)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, count := range byStatus {
		total += count
	}

	openApprovals, err := s.queueRepo.CountOpen(ctx, agencyID)
	if err != nil {
		return nil, err
	}

	resp := &dto.KPIResponse{
		TotalListings:     total,
		ListingsByStatus:  byStatus,
		PublishedListings: byStatus[model.ListingStatusPublished],
		OpenApprovals:     openApprovals,
	}

	// 订阅信息可缺省：未订阅的租户照常出指标
	if sub, err := s.subRepo.GetActiveByAgencyID(ctx, agencyID); err == nil {
		resp.SubscriptionPlan = sub.Plan
		resp.SubscriptionState = sub.Status
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	return resp, nil
}

// ==================== 动态流 ====================

// GetActivityFeed 工作台动态流
// 动态流只是陪衬信息，查询失败时降级为空页，不拖垮整个工作台
func (s *DashboardService) GetActivityFeed(ctx context.Context, agencyID int64, page, pageSize int) (*dto.ActivityFeedResponse, error) {
	if page <= 0 {
		page = 1
	}

	events, total, err := s.activityRepo.ListByAgencyID(ctx, agencyID, page, pageSize)
	if err != nil {
		log.Printf("[工作台] 动态流查询失败 agency=%d: %v", agencyID, err)
		return &dto.ActivityFeedResponse{Items: []dto.ActivityVO{}, Page: page}, nil
	}
	resp := &dto.ActivityFeedResponse{
		Items: make([]dto.ActivityVO, len(events)),
		Total: total,
		Page:  page,
	}
	for i, ev := range events {
		resp.Items[i] = dto.ActivityVO{
			ID:         ev.ID,
			Verb:       ev.Verb,
			ObjectType: ev.ObjectType,
			ObjectID:   ev.ObjectID,
			Summary:    ev.Summary,
			CreatedAt:  ev.CreatedAt.Format("2006-01-02 15:04:05"),
		}
	}
	return resp, nil
}
