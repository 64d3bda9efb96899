package service

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"estate_dev_v1_202609/internal/api/dto"
)

// ==================== 接口定义 ====================

// StorageProvider 存储提供者接口
type StorageProvider interface {
	// PresignPut 生成直传签名 URL，客户端凭此直接 PUT 媒体字节流
	PresignPut(ctx context.Context, key, contentType string, expires time.Duration) (uploadURL string, err error)

	// PresignGet 私有对象的临时读取 URL
	PresignGet(ctx context.Context, key string, expires time.Duration) (signedURL string, err error)

	// Upload 服务端直接上传（品牌播种等内部用途）
	Upload(ctx context.Context, data []byte, key, contentType string) (url string, err error)

	// Delete 删除对象
	Delete(ctx context.Context, key string) error

	// PublicURL 对象的公开访问 URL
	PublicURL(key string) string
}

// ==================== 配置 ====================

type StorageConfig struct {
	Provider  string // "s3" | "local"
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	Endpoint  string // 自定义端点 (MinIO 等)
	CDNDomain string // CDN 域名 (可选)
	BasePath  string // 基础路径前缀
}

// ==================== 工厂方法 ====================

func NewStorageProvider(cfg *StorageConfig) (StorageProvider, error) {
	switch cfg.Provider {
	case "s3":
		return NewS3Storage(cfg)
	case "local":
		return NewLocalStorage(cfg)
	default:
		return nil, fmt.Errorf("不支持的存储提供者: %s", cfg.Provider)
	}
}

// ==================== 上传约束 ====================

// 允许直传的媒体类型
var allowedContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"video/mp4":  ".mp4",
}

// maxUploadSize 单个媒体上限
const maxUploadSize = 20 << 20 // 20 MB

// presignTTL 直传签名有效期
const presignTTL = 15 * time.Minute

// ==================== StorageService 存储服务 ====================

// StorageService 媒体存储服务，包装 StorageProvider
type StorageService struct {
	provider StorageProvider
	config   *StorageConfig
}

// NewStorageService 创建存储服务
func NewStorageService(cfg *StorageConfig) (*StorageService, error) {
	provider, err := NewStorageProvider(cfg)
	if err != nil {
		return nil, err
	}
	return &StorageService{
		provider: provider,
		config:   cfg,
	}, nil
}

// PresignUpload 校验媒体类型与大小后签发直传 URL
// 字节流不经过本服务，客户端直传后调挂载接口登记元数据
func (s *StorageService) PresignUpload(ctx context.Context, agencyID int64, req *dto.PresignUploadRequest) (*dto.PresignUploadResponse, error) {
	ext, ok := allowedContentTypes[req.ContentType]
	if !ok {
		return nil, fmt.Errorf("不支持的媒体类型: %s", req.ContentType)
	}
	if req.SizeBytes > maxUploadSize {
		return nil, fmt.Errorf("文件超出大小限制 (%d MB)", maxUploadSize>>20)
	}

	key := s.generateKey(agencyID, ext)
	uploadURL, err := s.provider.PresignPut(ctx, key, req.ContentType, presignTTL)
	if err != nil {
		return nil, fmt.Errorf("签发直传 URL 失败: %v", err)
	}

	return &dto.PresignUploadResponse{
		UploadURL:  uploadURL,
		StorageKey: key,
		PublicURL:  s.provider.PublicURL(key),
		ExpiresIn:  int64(presignTTL.Seconds()),
	}, nil
}

// PublicURL 对象的公开访问 URL
func (s *StorageService) PublicURL(key string) string {
	return s.provider.PublicURL(key)
}

// Upload 服务端直接上传
func (s *StorageService) Upload(ctx context.Context, data []byte, key, contentType string) (string, error) {
	return s.provider.Upload(ctx, data, key, contentType)
}

// Delete 删除对象
func (s *StorageService) Delete(ctx context.Context, key string) error {
	return s.provider.Delete(ctx, key)
}

// GetSignedURL 私有对象的临时读取 URL
func (s *StorageService) GetSignedURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	return s.provider.PresignGet(ctx, key, expires)
}

// generateKey 生成对象 Key：按租户与日期分目录，文件名用 UUID
func (s *StorageService) generateKey(agencyID int64, ext string) string {
	datePath := time.Now().Format("2006/01/02")
	filename := fmt.Sprintf("%s%s", uuid.New().String(), ext)
	if s.config.BasePath != "" {
		return fmt.Sprintf("%s/agency-%d/%s/%s", s.config.BasePath, agencyID, datePath, filename)
	}
	return fmt.Sprintf("agency-%d/%s/%s", agencyID, datePath, filename)
}

// ==================== S3 实现 ====================

type S3Storage struct {
	client    *s3.Client
	presign   *s3.PresignClient
	bucket    string
	region    string
	cdnDomain string
}

func NewS3Storage(cfg *StorageConfig) (*S3Storage, error) {
	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("加载AWS配置失败: %v", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Storage{
		client:    client,
		presign:   s3.NewPresignClient(client),
		bucket:    cfg.Bucket,
		region:    cfg.Region,
		cdnDomain: cfg.CDNDomain,
	}, nil
}

func (s *S3Storage) PresignPut(ctx context.Context, key, contentType string, expires time.Duration) (string, error) {
	presigned, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return "", err
	}
	return presigned.URL, nil
}

func (s *S3Storage) PresignGet(ctx context.Context, key string, expires time.Duration) (string, error) {
	presigned, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return "", err
	}
	return presigned.URL, nil
}

func (s *S3Storage) Upload(ctx context.Context, data []byte, key, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("上传S3失败: %v", err)
	}
	return s.PublicURL(key), nil
}

func (s *S3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err
}

func (s *S3Storage) PublicURL(key string) string {
	if s.cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", s.cdnDomain, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

// ==================== 本地存储 (开发测试用) ====================

type LocalStorage struct {
	rootDir string
	baseURL string
}

func NewLocalStorage(cfg *StorageConfig) (*LocalStorage, error) {
	rootDir := cfg.BasePath
	if rootDir == "" {
		rootDir = "./uploads"
	}
	baseURL := cfg.Endpoint
	if baseURL == "" {
		baseURL = "http://localhost:8080/uploads"
	}
	if err := os.MkdirAll(rootDir, 0o755); err != nil {
		return nil, fmt.Errorf("创建上传目录失败: %v", err)
	}

	return &LocalStorage{
		rootDir: rootDir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// PresignPut 本地存储没有签名机制，直接返回公开 URL
// 开发环境由静态文件路由接收 PUT
func (s *LocalStorage) PresignPut(ctx context.Context, key, contentType string, expires time.Duration) (string, error) {
	return fmt.Sprintf("%s/%s", s.baseURL, key), nil
}

func (s *LocalStorage) PresignGet(ctx context.Context, key string, expires time.Duration) (string, error) {
	return s.PublicURL(key), nil
}

func (s *LocalStorage) Upload(ctx context.Context, data []byte, key, contentType string) (string, error) {
	path := filepath.Join(s.rootDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("创建目录失败: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("写入文件失败: %v", err)
	}
	return s.PublicURL(key), nil
}

func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	path := filepath.Join(s.rootDir, filepath.FromSlash(key))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *LocalStorage) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s", s.baseURL, key)
}
