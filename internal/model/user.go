package model

import "time"

// 系统级角色常量
const (
	RoleDeveloper = "developer" // 开发商账号成员
	RoleReviewer  = "reviewer"  // 平台审核员
	RoleAdmin     = "admin"     // 超级管理员
)

// SysUser 系统用户账号
type SysUser struct {
	BaseModel
	Username string `gorm:"size:100;uniqueIndex;not null"`
	Password string `gorm:"size:255;not null"` // 哈希密码
	Email    string `gorm:"size:100"`

	// 系统级角色: developer (开发商成员), reviewer (审核员), admin (超管)
	Role string `gorm:"size:20;default:'developer'"`

	IsActive bool `gorm:"default:true"`

	// 所属开发商（租户），审核员与超管为 0
	AgencyID int64   `gorm:"index"`
	Agency   *Agency `gorm:"foreignKey:AgencyID"`
}

func (SysUser) TableName() string {
	return "sys_users"
}

// Agency 开发商/中介（租户）
type Agency struct {
	BaseModel
	Name         string `gorm:"size:150;not null"`
	ContactEmail string `gorm:"size:100"`
	Phone        string `gorm:"size:30"`
	Website      string `gorm:"size:255"`
	LogoURL      string `gorm:"size:2048"`

	// 激活标记：结账完成 webhook 触发后置位
	IsActivated bool       `gorm:"default:false;index"`
	ActivatedAt *time.Time

	// Stripe 客户绑定
	StripeCustomerID string `gorm:"size:64;index"`

	// 平台品牌影子租户标记（品牌模拟器播种演示内容用）
	IsBrandShadow bool `gorm:"default:false"`

	Members []SysUser `gorm:"foreignKey:AgencyID"`
}

func (Agency) TableName() string {
	return "agencies"
}
