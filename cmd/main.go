package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"gorm.io/gorm"

	"estate_dev_v1_202609/internal/controller"
	"estate_dev_v1_202609/internal/middleware"
	"estate_dev_v1_202609/internal/model"
	"estate_dev_v1_202609/internal/repository"
	"estate_dev_v1_202609/internal/router"
	"estate_dev_v1_202609/internal/service"
	"estate_dev_v1_202609/internal/task"
	"estate_dev_v1_202609/pkg/cache"
	"estate_dev_v1_202609/pkg/database"
	"estate_dev_v1_202609/pkg/gmaps"
	"estate_dev_v1_202609/pkg/stripe"
)

func main() {
	// 1. 加载环境变量
	if err := godotenv.Load(); err != nil {
		log.Println("未找到 .env 文件，使用系统环境变量")
	}

	// 2. 初始化数据库
	db := initDatabase()

	// 3. 初始化依赖
	deps := initDependencies(db)

	// 4. 启动定时任务
	taskManager := initTasks(deps)
	defer taskManager.Stop()

	// 5. 初始化路由
	r := gin.Default()
	router.InitRoutes(r, deps.Controllers)

	// 6. 启动服务
	startServer(r)
}

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	DB          *gorm.DB
	Redis       *redis.Client
	Repos       *Repositories
	Services    *Services
	Controllers *router.Controllers
}

// Repositories 仓库集合
type Repositories struct {
	User         repository.UserRepository
	Agency       repository.AgencyRepository
	ListingUow   *repository.ListingUnitOfWork
	Subscription repository.SubscriptionRepository
	Invoice      repository.InvoiceRepository
	WebhookEvent repository.WebhookEventRepository
	Brand        repository.BrandRepository
	Activity     repository.ActivityRepository
}

// Services 服务集合
type Services struct {
	User      *service.UserService
	Wizard    *service.WizardService
	Listing   *service.ListingService
	Approval  *service.ApprovalService
	Billing   *service.BillingService
	Dashboard *service.DashboardService
	Brand     *service.BrandService
	Storage   *service.StorageService
	Email     *service.EmailService
	Maps      *service.MapsService
}

// ==================== 初始化函数 ====================

// initDatabase 初始化数据库并注册审计回调
func initDatabase() *gorm.DB {
	db := database.InitDB(
		getEnv("DATABASE_DSN", ""),
		// 租户与账号
		&model.SysUser{}, &model.Agency{},
		// 房源
		&model.Listing{}, &model.ListingMedia{}, &model.ListingDraft{},
		// 审核
		&model.ApprovalQueueEntry{},
		// 账务
		&model.Subscription{}, &model.Invoice{}, &model.WebhookEvent{},
		// 品牌与活动流
		&model.BrandProfile{}, &model.ActivityEvent{},
	)
	middleware.RegisterAuditCallbacks(db)
	return db
}

// initDependencies 初始化所有依赖
func initDependencies(db *gorm.DB) *Dependencies {
	// -------- JWT 配置 --------
	if secret := getEnv("JWT_SECRET", ""); secret != "" {
		cfg := middleware.DefaultJWTConfig()
		cfg.SecretKey = secret
		middleware.SetJWTConfig(cfg)
	}

	// -------- Redis（可选，失败降级） --------
	rdb := cache.InitRedis(
		getEnv("REDIS_ADDR", ""),
		getEnv("REDIS_PASSWORD", ""),
		getEnvInt("REDIS_DB", 0),
	)

	// -------- Repo 层 --------
	repos := initRepositories(db)

	// -------- 外围服务（可选，失败降级） --------
	storageSvc := initStorageService()
	emailSvc := initEmailService()
	mapsSvc := service.NewMapsService(initMapsClient())

	var reviewNotifier service.ReviewNotifierInterface
	var billingNotifier service.BillingNotifierInterface
	if emailSvc != nil {
		reviewNotifier = emailSvc
		billingNotifier = emailSvc
	}

	// -------- 业务服务 --------
	services := &Services{
		Storage: storageSvc,
		Email:   emailSvc,
		Maps:    mapsSvc,
	}

	services.User = service.NewUserService(repos.User, repos.Agency)
	services.Wizard = service.NewWizardService(repos.ListingUow, repos.Activity)
	services.Listing = service.NewListingService(repos.ListingUow, repos.Activity, rdb)
	services.Approval = service.NewApprovalService(repos.ListingUow, repos.Agency, repos.Activity, reviewNotifier)
	services.Billing = service.NewBillingService(
		initStripeClient(),
		getEnv("STRIPE_WEBHOOK_SECRET", ""),
		repos.Subscription, repos.Invoice, repos.WebhookEvent,
		repos.Agency, repos.Activity,
		billingNotifier,
	)
	services.Dashboard = service.NewDashboardService(
		repos.ListingUow.Listings, repos.ListingUow.Queue,
		repos.Subscription, repos.Activity, rdb,
	)
	services.Brand = service.NewBrandService(repos.Brand, repos.Agency, repos.ListingUow, repos.Activity)

	// -------- Controller 层 --------
	controllers := initControllers(services)

	return &Dependencies{
		DB:          db,
		Redis:       rdb,
		Repos:       repos,
		Services:    services,
		Controllers: controllers,
	}
}

// initRepositories 初始化所有仓库
func initRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:         repository.NewUserRepository(db),
		Agency:       repository.NewAgencyRepository(db),
		ListingUow:   repository.NewListingUnitOfWork(db),
		Subscription: repository.NewSubscriptionRepository(db),
		Invoice:      repository.NewInvoiceRepository(db),
		WebhookEvent: repository.NewWebhookEventRepository(db),
		Brand:        repository.NewBrandRepository(db),
		Activity:     repository.NewActivityRepository(db),
	}
}

// initStorageService 初始化对象存储服务
func initStorageService() *service.StorageService {
	storageSvc, err := service.NewStorageService(&service.StorageConfig{
		Provider:  getEnv("STORAGE_PROVIDER", "s3"),
		Bucket:    getEnv("AWS_BUCKET", ""),
		Region:    getEnv("AWS_REGION", ""),
		AccessKey: getEnv("AWS_ACCESS_KEY_ID", ""),
		SecretKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		Endpoint:  getEnv("AWS_ENDPOINT", ""),
		CDNDomain: getEnv("AWS_CDN_DOMAIN", ""),
		BasePath:  getEnv("STORAGE_BASE_PATH", "estate-portal"),
	})
	if err != nil {
		log.Printf("警告: 存储服务初始化失败，直传功能不可用: %v", err)
		return nil
	}
	return storageSvc
}

// initEmailService 初始化邮件服务
func initEmailService() *service.EmailService {
	provider, err := service.NewEmailProvider(&service.EmailConfig{
		Provider: getEnv("EMAIL_PROVIDER", "smtp"),
		Host:     getEnv("SMTP_HOST", ""),
		Port:     getEnvInt("SMTP_PORT", 587),
		Username: getEnv("SMTP_USERNAME", ""),
		Password: getEnv("SMTP_PASSWORD", ""),
		From:     getEnv("SMTP_FROM", ""),
	})
	if err != nil {
		log.Printf("警告: 邮件服务初始化失败，通知功能不可用: %v", err)
		return nil
	}
	return service.NewEmailService(provider)
}

// initStripeClient 初始化 Stripe 客户端
func initStripeClient() *stripe.Client {
	secretKey := getEnv("STRIPE_SECRET_KEY", "")
	if secretKey == "" {
		log.Println("警告: 未配置 STRIPE_SECRET_KEY，结账功能不可用")
		return nil
	}
	return stripe.NewClient(secretKey)
}

// initMapsClient 初始化 Google Maps 客户端
func initMapsClient() *gmaps.Client {
	apiKey := getEnv("GOOGLE_MAPS_API_KEY", "")
	if apiKey == "" {
		log.Println("警告: 未配置 GOOGLE_MAPS_API_KEY，地图功能不可用")
		return nil
	}
	return gmaps.NewClient(apiKey)
}

// initControllers 初始化所有控制器
func initControllers(svc *Services) *router.Controllers {
	return &router.Controllers{
		User:      controller.NewUserController(svc.User),
		Wizard:    controller.NewWizardController(svc.Wizard),
		Listing:   controller.NewListingController(svc.Listing, svc.Approval),
		Approval:  controller.NewApprovalController(svc.Approval, svc.Listing),
		Billing:   controller.NewBillingController(svc.Billing),
		Dashboard: controller.NewDashboardController(svc.Dashboard),
		Brand:     controller.NewBrandController(svc.Brand),
		Upload:    controller.NewUploadController(svc.Storage, svc.Listing),
		Maps:      controller.NewMapsController(svc.Maps),
	}
}

// ==================== 定时任务 ====================

// initTasks 初始化定时任务
func initTasks(deps *Dependencies) *task.TaskManager {
	tm := task.NewTaskManager(&task.TaskManagerDeps{
		ListingRepo:  deps.Repos.ListingUow.Listings,
		DraftRepo:    deps.Repos.ListingUow.Drafts,
		SubRepo:      deps.Repos.Subscription,
		AgencyRepo:   deps.Repos.Agency,
		ActivityRepo: deps.Repos.Activity,
	}, nil)
	tm.Start()
	return tm
}

// ==================== 服务启动 ====================

// startServer 启动服务
func startServer(r *gin.Engine) {
	port := getEnv("SERVER_PORT", "8080")

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{getEnv("CORS_ORIGIN", "*")},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Content-Type", "Stripe-Signature"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: corsHandler.Handler(r),
	}

	// 异步启动服务
	go func() {
		log.Printf("服务启动在 :%s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("服务启动失败: %v", err)
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("正在关闭服务...")

	// 优雅关闭，最多等待 30 秒
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("服务强制关闭: %v", err)
	}

	log.Println("服务已退出")
}

// ==================== 工具函数 ====================

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err != nil {
			log.Printf("警告: 环境变量 %s 不是数字，使用默认值 %d", key, defaultValue)
		} else {
			return n
		}
	}
	return defaultValue
}
