package service

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"estate_dev_v1_202609/internal/api/dto"
	"estate_dev_v1_202609/internal/middleware"
	"estate_dev_v1_202609/internal/model"
	"estate_dev_v1_202609/internal/repository"
)

// ==================== UserService 用户服务 ====================

// UserService 用户与租户注册服务
type UserService struct {
	userRepo   repository.UserRepository
	agencyRepo repository.AgencyRepository
}

// NewUserService 创建用户服务
func NewUserService(userRepo repository.UserRepository, agencyRepo repository.AgencyRepository) *UserService {
	return &UserService{userRepo: userRepo, agencyRepo: agencyRepo}
}

// ==================== 认证相关 ====================

// Login 用户登录
func (s *UserService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	// 查找用户
	user, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	// 检查状态
	if !user.IsActive {
		return nil, ErrUserDisabled
	}

	// 验证密码
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	// 生成 Token
	accessToken, refreshToken, err := middleware.GenerateTokenPair(user.ID, user.Username, user.Role, user.AgencyID)
	if err != nil {
		return nil, err
	}

	cfg := middleware.GetJWTConfig()
	return &dto.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(cfg.AccessTokenTTL),
		User:         s.toUserInfo(user),
	}, nil
}

// Register 注册开发商账号
// 同时创建租户（Agency）与首个成员账号，租户在结账完成前保持未激活
func (s *UserService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.LoginResponse, error) {
	// 检查用户名是否存在
	existing, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUsernameExists
	}

	// 加密密码
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	// 创建租户
	agency := &model.Agency{
		Name:         req.AgencyName,
		ContactEmail: req.Email,
	}
	if err := s.agencyRepo.Create(ctx, agency); err != nil {
		return nil, err
	}

	// 创建首个成员账号
	user := &model.SysUser{
		Username: req.Username,
		Password: string(hashedPassword),
		Email:    req.Email,
		Role:     model.RoleDeveloper,
		IsActive: true,
		AgencyID: agency.ID,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	// 注册即登录
	accessToken, refreshToken, err := middleware.GenerateTokenPair(user.ID, user.Username, user.Role, user.AgencyID)
	if err != nil {
		return nil, err
	}

	cfg := middleware.GetJWTConfig()
	return &dto.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(cfg.AccessTokenTTL),
		User:         s.toUserInfo(user),
	}, nil
}

// RefreshToken 刷新 Token
func (s *UserService) RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.RefreshTokenResponse, error) {
	// 解析 Refresh Token
	claims, err := middleware.ParseToken(req.RefreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}

	// 验证是否为 Refresh Token
	if claims.Subject != "refresh" {
		return nil, ErrInvalidToken
	}

	// 重新加载用户，角色或租户可能已变更
	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserDisabled
	}

	accessToken, err := middleware.GenerateAccessToken(user.ID, user.Username, user.Role, user.AgencyID)
	if err != nil {
		return nil, err
	}

	cfg := middleware.GetJWTConfig()
	return &dto.RefreshTokenResponse{
		AccessToken: accessToken,
		ExpiresAt:   time.Now().Add(cfg.AccessTokenTTL),
	}, nil
}

// GetProfile 获取当前用户信息
func (s *UserService) GetProfile(ctx context.Context, userID int64) (*dto.UserInfo, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	info := s.toUserInfo(user)
	return &info, nil
}

// ==================== 辅助方法 ====================

// toUserInfo 转换为 DTO
func (s *UserService) toUserInfo(user *model.SysUser) dto.UserInfo {
	return dto.UserInfo{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
		AgencyID: user.AgencyID,
	}
}
