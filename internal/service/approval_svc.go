package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"estate_dev_v1_202609/internal/api/dto"
	"estate_dev_v1_202609/internal/model"
	"estate_dev_v1_202609/internal/repository"
)

// ==================== 外部服务依赖 ====================

// ReviewNotifierInterface 审核结果通知接口（实现见 email_svc.go）
type ReviewNotifierInterface interface {
	SendReviewResult(ctx context.Context, to, listingTitle string, approved bool, notes string) error
}

// ==================== ApprovalService 审核服务 ====================

// ApprovalService 审核队列与发布服务
type ApprovalService struct {
	uow          *repository.ListingUnitOfWork
	agencyRepo   repository.AgencyRepository
	activityRepo repository.ActivityRepository
	notifier     ReviewNotifierInterface // 可为 nil
}

// NewApprovalService 创建审核服务
func NewApprovalService(
	uow *repository.ListingUnitOfWork,
	agencyRepo repository.AgencyRepository,
	activityRepo repository.ActivityRepository,
	notifier ReviewNotifierInterface,
) *ApprovalService {
	return &ApprovalService{
		uow:          uow,
		agencyRepo:   agencyRepo,
		activityRepo: activityRepo,
		notifier:     notifier,
	}
}

// ==================== 队列查询 ====================

// ListQueue 审核队列列表（审核员侧）
func (s *ApprovalService) ListQueue(ctx context.Context, req *dto.ListQueueRequest) ([]dto.QueueEntryVO, int64, error) {
	entries, total, err := s.uow.Queue.List(ctx, repository.QueueFilter{
		Status:   req.Status,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		return nil, 0, err
	}

	vos := make([]dto.QueueEntryVO, len(entries))
	for i := range entries {
		vos[i] = s.toQueueVO(ctx, &entries[i])
	}
	return vos, total, nil
}

// GetQueueEntry 审核队列条目详情
func (s *ApprovalService) GetQueueEntry(ctx context.Context, entryID int64) (*dto.QueueEntryVO, error) {
	entry, err := s.uow.Queue.GetByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	vo := s.toQueueVO(ctx, entry)
	return &vo, nil
}

// ==================== 审核裁决 ====================

// complianceResult 裁决时自动执行的合规检查，结果随条目落库
type complianceResult struct {
	HasTitle    bool `json:"has_title"`
	HasMedia    bool `json:"has_media"`
	HasLocation bool `json:"has_location"`
	HasPricing  bool `json:"has_pricing"`
}

// Review 审核裁决
// 条目与房源行在同一事务内更新；开启自动发布的房源通过后立即发布
func (s *ApprovalService) Review(ctx context.Context, reviewerID, entryID int64, req *dto.ReviewRequest) (*dto.QueueEntryVO, error) {
	approved := req.Decision == "approved"
	now := time.Now()

	var entry *model.ApprovalQueueEntry
	var listing *model.Listing
	err := s.uow.Transaction(ctx, func(tx *repository.ListingUnitOfWork) error {
		var err error
		entry, err = tx.Queue.GetByID(ctx, entryID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if !entry.IsOpen() {
			return ErrInvalidState
		}

		listing, err = tx.Listings.GetWithMedia(ctx, entry.ListingID)
		if err != nil {
			return err
		}

		if err := entry.Decide(approved, reviewerID, req.Notes, now); err != nil {
			return ErrInvalidState
		}
		compliance, _ := json.Marshal(&complianceResult{
			HasTitle:    listing.Title != "",
			HasMedia:    len(listing.Media) > 0,
			HasLocation: listing.Address != "" && listing.City != "",
			HasPricing:  listing.SalePriceAmount > 0 || listing.MonthlyRentAmount > 0 || listing.AuctionStartAmount > 0,
		})
		entry.Compliance = compliance
		if err := tx.Queue.Update(ctx, entry); err != nil {
			return err
		}

		listing.MarkReviewed(approved, req.Notes)
		if approved && listing.AutoPublish {
			if err := listing.MarkPublished(now); err != nil {
				return err
			}
		}
		return tx.Listings.Update(ctx, listing)
	})
	if err != nil {
		return nil, err
	}

	// 动态流与邮件通知尽力而为
	s.recordActivity(ctx, listing, reviewerID, model.ActivityListingReviewed,
		fmt.Sprintf("审核%s: %s", decisionLabel(approved), listing.Title))
	if listing.IsPublished {
		s.recordActivity(ctx, listing, reviewerID, model.ActivityListingPublished,
			fmt.Sprintf("自动发布: %s", listing.Title))
	}
	s.notifyReviewResult(ctx, listing, approved, req.Notes)

	vo := s.toQueueVO(ctx, entry)
	return &vo, nil
}

// ==================== 发布 / 下架 ====================

// Publish 显式发布（所有者侧），仅审核通过的房源可发布
func (s *ApprovalService) Publish(ctx context.Context, agencyID, listingID int64) (*model.Listing, error) {
	listing, err := s.uow.Listings.GetByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if agencyID > 0 && listing.AgencyID != agencyID {
		return nil, ErrForbidden
	}
	if listing.IsPublished {
		// 重复发布视为幂等
		return listing, nil
	}

	if err := listing.MarkPublished(time.Now()); err != nil {
		return nil, ErrInvalidState
	}
	if err := s.uow.Listings.Update(ctx, listing); err != nil {
		return nil, err
	}

	s.recordActivity(ctx, listing, 0, model.ActivityListingPublished, fmt.Sprintf("发布房源: %s", listing.Title))
	return listing, nil
}

// Archive 下架归档
func (s *ApprovalService) Archive(ctx context.Context, agencyID, listingID int64) error {
	listing, err := s.uow.Listings.GetByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if agencyID > 0 && listing.AgencyID != agencyID {
		return ErrForbidden
	}
	if listing.Status == model.ListingStatusArchived {
		return nil
	}

	listing.MarkArchived()
	if err := s.uow.Listings.Update(ctx, listing); err != nil {
		return err
	}

	s.recordActivity(ctx, listing, 0, model.ActivityListingArchived, fmt.Sprintf("下架房源: %s", listing.Title))
	return nil
}

// ==================== 辅助方法 ====================

func (s *ApprovalService) recordActivity(ctx context.Context, listing *model.Listing, actorID int64, verb, summary string) {
	if err := s.activityRepo.Create(ctx, &model.ActivityEvent{
		AgencyID:   listing.AgencyID,
		ActorID:    actorID,
		Verb:       verb,
		ObjectType: "listing",
		ObjectID:   listing.ID,
		Summary:    summary,
	}); err != nil {
		log.Printf("[审核] 记录动态失败 listing=%d: %v", listing.ID, err)
	}
}

// notifyReviewResult 审核结果邮件，失败只记日志
func (s *ApprovalService) notifyReviewResult(ctx context.Context, listing *model.Listing, approved bool, notes string) {
	if s.notifier == nil {
		return
	}
	agency, err := s.agencyRepo.GetByID(ctx, listing.AgencyID)
	if err != nil || agency.ContactEmail == "" {
		return
	}
	if err := s.notifier.SendReviewResult(ctx, agency.ContactEmail, listing.Title, approved, notes); err != nil {
		log.Printf("[审核] 通知邮件发送失败 listing=%d: %v", listing.ID, err)
	}
}

func (s *ApprovalService) toQueueVO(ctx context.Context, entry *model.ApprovalQueueEntry) dto.QueueEntryVO {
	vo := dto.QueueEntryVO{
		ID:          entry.ID,
		ListingID:   entry.ListingID,
		Status:      entry.Status,
		SubmittedBy: entry.SubmittedBy,
		SubmitCount: entry.SubmitCount,
		ReviewerID:  entry.ReviewerID,
		Notes:       entry.ReviewerNotes,
		CreatedAt:   entry.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if entry.DecidedAt != nil {
		vo.DecidedAt = entry.DecidedAt.Format("2006-01-02 15:04:05")
	}
	if listing, err := s.uow.Listings.GetByID(ctx, entry.ListingID); err == nil {
		vo.ListingTitle = listing.Title
		vo.AgencyID = listing.AgencyID
	}
	return vo
}

func decisionLabel(approved bool) string {
	if approved {
		return "通过"
	}
	return "驳回"
}
