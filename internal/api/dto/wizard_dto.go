package dto

import "estate_dev_v1_202609/internal/wizard"

// WizardStateResponse 向导会话当前状态
type WizardStateResponse struct {
	Step           int               `json:"step"`
	StepName       string            `json:"step_name"`
	CompletedSteps []int             `json:"completed_steps"`
	Errors         map[string]string `json:"errors,omitempty"`
	Form           wizard.Form       `json:"form"`
}

// UpdateFormRequest 更新表单请求：整体替换当前表单快照
// 客户端每步编辑后推送，服务端不在此处校验
type UpdateFormRequest struct {
	Form wizard.Form `json:"form" binding:"required"`
}

// GoToStepRequest 跳转步骤请求
type GoToStepRequest struct {
	Step int `json:"step" binding:"required,min=1,max=9"`
}

// SubmitWizardResponse 提交审核结果
type SubmitWizardResponse struct {
	ListingID    int64 `json:"listing_id"`
	QueueEntryID int64 `json:"queue_entry_id"`
}
