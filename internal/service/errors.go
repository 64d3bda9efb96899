package service

import "errors"

// ==================== 服务层通用错误 ====================

var (
	// 通用
	ErrNotFound           = errors.New("资源不存在")
	ErrForbidden          = errors.New("无权操作该资源")
	ErrInvalidState       = errors.New("当前状态不允许该操作")
	ErrDuplicate          = errors.New("资源已存在")
	ErrServiceUnavailable = errors.New("外部服务未配置或暂不可用")

	// 认证相关
	ErrInvalidCredentials = errors.New("用户名或密码错误")
	ErrUserDisabled       = errors.New("用户已禁用")
	ErrInvalidToken       = errors.New("Token 无效")
	ErrUserNotFound       = errors.New("用户不存在")
	ErrUsernameExists     = errors.New("用户名已存在")
	ErrEmailExists        = errors.New("邮箱已存在")
	ErrAgencyDeactivated  = errors.New("机构订阅已失效，请先续费")
)
