package dto

// ReviewRequest 审核裁决请求
type ReviewRequest struct {
	Decision string `json:"decision" binding:"required,oneof=approved rejected"`
	Notes    string `json:"notes" binding:"max=1024"`
}

// QueueEntryVO 审核队列条目视图
type QueueEntryVO struct {
	ID           int64  `json:"id"`
	ListingID    int64  `json:"listing_id"`
	ListingTitle string `json:"listing_title"`
	AgencyID     int64  `json:"agency_id"`
	Status       string `json:"status"`
	SubmittedBy  int64  `json:"submitted_by"`
	SubmitCount  int    `json:"submit_count"`
	ReviewerID   int64  `json:"reviewer_id,omitempty"`
	Notes        string `json:"notes,omitempty"`
	CreatedAt    string `json:"created_at"`
	DecidedAt    string `json:"decided_at,omitempty"`
}

// ListQueueRequest 队列查询
type ListQueueRequest struct {
	Status   string `form:"status"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}
