package dto

// KPIResponse 工作台核心指标
type KPIResponse struct {
	TotalListings     int64            `json:"total_listings"`
	ListingsByStatus  map[string]int64 `json:"listings_by_status"`
	PublishedListings int64            `json:"published_listings"`
	OpenApprovals     int64            `json:"open_approvals"`
	SubscriptionPlan  string           `json:"subscription_plan,omitempty"`
	SubscriptionState string           `json:"subscription_state,omitempty"`
}

// ActivityVO 动态流条目
type ActivityVO struct {
	ID         int64  `json:"id"`
	Verb       string `json:"verb"`
	ObjectType string `json:"object_type"`
	ObjectID   int64  `json:"object_id"`
	Summary    string `json:"summary"`
	CreatedAt  string `json:"created_at"`
}

// ActivityFeedResponse 动态流分页响应
type ActivityFeedResponse struct {
	Items []ActivityVO `json:"items"`
	Total int64        `json:"total"`
	Page  int          `json:"page"`
}
