package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gorm.io/gorm"

	"estate_dev_v1_202609/internal/api/dto"
	"estate_dev_v1_202609/internal/model"
	"estate_dev_v1_202609/internal/repository"
	"estate_dev_v1_202609/internal/wizard"
)

// ==================== WizardService 创建向导服务 ====================

// WizardService 房源创建向导服务
// 会话常驻内存，每次变更同步落一份草稿快照，重启后可恢复
type WizardService struct {
	uow          *repository.ListingUnitOfWork
	activityRepo repository.ActivityRepository

	// 会话管理：一个所有者同一时刻只有一个活动向导
	sessions     map[int64]*wizard.Session
	sessionMutex sync.RWMutex
}

// NewWizardService 创建向导服务
func NewWizardService(uow *repository.ListingUnitOfWork, activityRepo repository.ActivityRepository) *WizardService {
	return &WizardService{
		uow:          uow,
		activityRepo: activityRepo,
		sessions:     make(map[int64]*wizard.Session),
	}
}

// ==================== 会话管理 ====================

// loadSession 获取所有者的向导会话
// 内存没有时尝试从草稿快照恢复，再没有则新建
func (s *WizardService) loadSession(ctx context.Context, ownerID, agencyID int64) (*wizard.Session, error) {
	s.sessionMutex.RLock()
	sess, ok := s.sessions[ownerID]
	s.sessionMutex.RUnlock()
	if ok {
		return sess, nil
	}

	s.sessionMutex.Lock()
	defer s.sessionMutex.Unlock()

	// 双检：拿写锁期间可能已被其他请求恢复
	if sess, ok := s.sessions[ownerID]; ok {
		return sess, nil
	}

	draft, err := s.uow.Drafts.GetByOwner(ctx, ownerID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		sess = wizard.NewSession(ownerID, agencyID)
	} else {
		sess, err = wizard.Restore(ownerID, agencyID, draft.Payload)
		if err != nil {
			// 快照损坏：丢弃并重新开始
			_ = s.uow.Drafts.DeleteByOwner(ctx, ownerID)
			sess = wizard.NewSession(ownerID, agencyID)
		}
	}

	s.sessions[ownerID] = sess
	return sess, nil
}

// persist 落草稿快照，保存不做校验
func (s *WizardService) persist(ctx context.Context, sess *wizard.Session) error {
	payload, err := sess.Snapshot()
	if err != nil {
		return fmt.Errorf("草稿快照序列化失败: %v", err)
	}

	var completed model.StringSlice
	for st := wizard.FirstStep; st <= wizard.LastStep; st++ {
		if sess.Completed(st) {
			completed = append(completed, st.Name())
		}
	}

	return s.uow.Drafts.Save(ctx, &model.ListingDraft{
		OwnerID:        sess.OwnerID,
		AgencyID:       sess.AgencyID,
		ListingID:      sess.ListingID,
		CurrentStep:    int(sess.Step()),
		CompletedSteps: completed,
		Payload:        payload,
	})
}

// ==================== 向导操作 ====================

// GetState 获取当前向导状态
func (s *WizardService) GetState(ctx context.Context, ownerID, agencyID int64) (*dto.WizardStateResponse, error) {
	sess, err := s.loadSession(ctx, ownerID, agencyID)
	if err != nil {
		return nil, err
	}
	return s.toState(sess), nil
}

// UpdateForm 整体替换表单快照并保存草稿
// 只存不校验，校验发生在 Next/Submit
func (s *WizardService) UpdateForm(ctx context.Context, ownerID, agencyID int64, req *dto.UpdateFormRequest) (*dto.WizardStateResponse, error) {
	sess, err := s.loadSession(ctx, ownerID, agencyID)
	if err != nil {
		return nil, err
	}

	sess.Form = req.Form
	if err := s.persist(ctx, sess); err != nil {
		return nil, err
	}
	return s.toState(sess), nil
}

// Next 前进一步
// 校验未通过时返回当前状态（含字段错误），不报 error
func (s *WizardService) Next(ctx context.Context, ownerID, agencyID int64) (*dto.WizardStateResponse, error) {
	sess, err := s.loadSession(ctx, ownerID, agencyID)
	if err != nil {
		return nil, err
	}

	if err := sess.Next(); err != nil && !errors.Is(err, wizard.ErrStepInvalid) {
		return nil, err
	}
	if err := s.persist(ctx, sess); err != nil {
		return nil, err
	}
	return s.toState(sess), nil
}

// Prev 后退一步
func (s *WizardService) Prev(ctx context.Context, ownerID, agencyID int64) (*dto.WizardStateResponse, error) {
	sess, err := s.loadSession(ctx, ownerID, agencyID)
	if err != nil {
		return nil, err
	}

	sess.Prev()
	if err := s.persist(ctx, sess); err != nil {
		return nil, err
	}
	return s.toState(sess), nil
}

// GoTo 跳转到指定步骤，只允许已解锁的步骤
func (s *WizardService) GoTo(ctx context.Context, ownerID, agencyID int64, step int) (*dto.WizardStateResponse, error) {
	sess, err := s.loadSession(ctx, ownerID, agencyID)
	if err != nil {
		return nil, err
	}

	if err := sess.GoTo(wizard.Step(step)); err != nil {
		return nil, ErrInvalidState
	}
	if err := s.persist(ctx, sess); err != nil {
		return nil, err
	}
	return s.toState(sess), nil
}

// Discard 放弃向导：清内存会话与草稿快照
func (s *WizardService) Discard(ctx context.Context, ownerID int64) error {
	s.sessionMutex.Lock()
	delete(s.sessions, ownerID)
	s.sessionMutex.Unlock()

	return s.uow.Drafts.DeleteByOwner(ctx, ownerID)
}

// ==================== 提交审核 ====================

// Submit 提交审核
// 全量校验通过后在同一事务内落房源、媒体、审核队列条目并清除草稿
func (s *WizardService) Submit(ctx context.Context, ownerID, agencyID int64) (*dto.SubmitWizardResponse, error) {
	sess, err := s.loadSession(ctx, ownerID, agencyID)
	if err != nil {
		return nil, err
	}

	listing, err := sess.BuildListing()
	if err != nil {
		// 字段错误保留在会话里，由 GetState 带回
		return nil, err
	}

	var queueEntryID int64
	err = s.uow.Transaction(ctx, func(tx *repository.ListingUnitOfWork) error {
		if sess.ListingID > 0 {
			// 驳回后重新提交：复用原房源行与原队列条目
			existing, err := tx.Listings.GetByID(ctx, sess.ListingID)
			if err != nil {
				return err
			}
			if existing.AgencyID != agencyID {
				return ErrForbidden
			}
			if !existing.CanEdit() {
				return ErrInvalidState
			}

			listing.ID = existing.ID
			listing.CreatedAt = existing.CreatedAt
			listing.CreatorID = existing.CreatorID
			listing.MarkPendingReview()
			if err := tx.Listings.Update(ctx, listing); err != nil {
				return err
			}

			// 重建媒体行
			if err := tx.Media.DeleteByListingID(ctx, listing.ID); err != nil {
				return err
			}
			if err := tx.Media.CreateBatch(ctx, sess.BuildMedia(listing.ID)); err != nil {
				return err
			}

			entry, err := tx.Queue.GetLatestByListingID(ctx, listing.ID)
			if err != nil {
				return err
			}
			if entry.IsOpen() {
				// 已有待审条目，不再新增
				queueEntryID = entry.ID
				return nil
			}
			if err := entry.Reopen(ownerID); err != nil {
				return fmt.Errorf("重开审核条目失败: %v", err)
			}
			if err := tx.Queue.Update(ctx, entry); err != nil {
				return err
			}
			queueEntryID = entry.ID
			return nil
		}

		// 首次提交：建房源 + 媒体 + 队列条目
		if err := listing.CanSubmit(); err != nil {
			return err
		}
		listing.MarkPendingReview()
		if err := tx.Listings.Create(ctx, listing); err != nil {
			return err
		}
		if err := tx.Media.CreateBatch(ctx, sess.BuildMedia(listing.ID)); err != nil {
			return err
		}

		entry := &model.ApprovalQueueEntry{
			ListingID:   listing.ID,
			SubmittedBy: ownerID,
			Status:      model.QueueStatusPending,
		}
		if err := tx.Queue.Create(ctx, entry); err != nil {
			return err
		}
		queueEntryID = entry.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 提交成功：清会话与草稿
	s.sessionMutex.Lock()
	delete(s.sessions, ownerID)
	s.sessionMutex.Unlock()
	_ = s.uow.Drafts.DeleteByOwner(ctx, ownerID)

	// 动态流尽力而为，失败不影响提交
	_ = s.activityRepo.Create(ctx, &model.ActivityEvent{
		AgencyID:   agencyID,
		ActorID:    ownerID,
		Verb:       model.ActivityListingSubmitted,
		ObjectType: "listing",
		ObjectID:   listing.ID,
		Summary:    fmt.Sprintf("提交审核: %s", listing.Title),
	})

	return &dto.SubmitWizardResponse{
		ListingID:    listing.ID,
		QueueEntryID: queueEntryID,
	}, nil
}

// ResumeRejected 驳回后继续编辑：把被驳回的房源装回向导
func (s *WizardService) ResumeRejected(ctx context.Context, ownerID, agencyID, listingID int64) (*dto.WizardStateResponse, error) {
	listing, err := s.uow.Listings.GetWithMedia(ctx, listingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if listing.AgencyID != agencyID {
		return nil, ErrForbidden
	}
	if !listing.CanEdit() {
		return nil, ErrInvalidState
	}

	sess, err := wizard.FromListing(ownerID, agencyID, listing)
	if err != nil {
		return nil, err
	}

	s.sessionMutex.Lock()
	s.sessions[ownerID] = sess
	s.sessionMutex.Unlock()

	if err := s.persist(ctx, sess); err != nil {
		return nil, err
	}
	return s.toState(sess), nil
}

// ==================== 辅助方法 ====================

// toState 转换为 DTO
func (s *WizardService) toState(sess *wizard.Session) *dto.WizardStateResponse {
	var completed []int
	for st := wizard.FirstStep; st <= wizard.LastStep; st++ {
		if sess.Completed(st) {
			completed = append(completed, int(st))
		}
	}
	return &dto.WizardStateResponse{
		Step:           int(sess.Step()),
		StepName:       sess.Step().Name(),
		CompletedSteps: completed,
		Errors:         sess.Errors(),
		Form:           sess.Form,
	}
}
