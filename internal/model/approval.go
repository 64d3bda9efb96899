package model

import (
	"errors"
	"time"

	"gorm.io/datatypes"
)

// ApprovalQueueEntry 审核队列条目
// 一次提交对应一条记录；同一房源同一时刻至多一条 pending。
// 驳回后再次提交时复用原条目（重新打开），不新增行。
type ApprovalQueueEntry struct {
	BaseModel
	ListingID   int64  `gorm:"index;not null;comment:房源ID"`
	SubmittedBy int64  `gorm:"index;comment:提交人ID"`
	Status      string `gorm:"size:20;index;default:pending;comment:条目状态"`

	// 审核结论
	ReviewerID    int64          `gorm:"index;comment:审核员ID"`
	ReviewerNotes string         `gorm:"size:1024;comment:审核备注"`
	Compliance    datatypes.JSON `gorm:"comment:合规检查结果"`
	DecidedAt     *time.Time     `gorm:"comment:裁决时间"`

	// 重开计数：驳回→重新提交会自增
	SubmitCount int `gorm:"default:1;comment:提交次数"`
}

func (*ApprovalQueueEntry) TableName() string {
	return "approval_queue_entries"
}

// IsOpen 是否为待审条目
func (e *ApprovalQueueEntry) IsOpen() bool {
	return e.Status == QueueStatusPending
}

// Decide 落审核结论
func (e *ApprovalQueueEntry) Decide(approved bool, reviewerID int64, notes string, now time.Time) error {
	if !e.IsOpen() {
		return errors.New("条目已裁决，不能重复审核")
	}
	if approved {
		e.Status = QueueStatusApproved
	} else {
		e.Status = QueueStatusRejected
	}
	e.ReviewerID = reviewerID
	e.ReviewerNotes = notes
	e.DecidedAt = &now
	return nil
}

// Reopen 驳回后重新提交时复用条目
func (e *ApprovalQueueEntry) Reopen(submitterID int64) error {
	if e.Status != QueueStatusRejected {
		return errors.New("仅驳回条目可重新打开")
	}
	e.Status = QueueStatusPending
	e.SubmittedBy = submitterID
	e.ReviewerID = 0
	e.ReviewerNotes = ""
	e.DecidedAt = nil
	e.SubmitCount++
	return nil
}
