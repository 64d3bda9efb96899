package router

import (
	"github.com/gin-gonic/gin"

	"estate_dev_v1_202609/internal/controller"
	"estate_dev_v1_202609/internal/middleware"
	"estate_dev_v1_202609/internal/model"
)

// Controllers 路由依赖的全部控制器
type Controllers struct {
	User      *controller.UserController
	Wizard    *controller.WizardController
	Listing   *controller.ListingController
	Approval  *controller.ApprovalController
	Billing   *controller.BillingController
	Dashboard *controller.DashboardController
	Brand     *controller.BrandController
	Upload    *controller.UploadController
	Maps      *controller.MapsController
}

// InitRoutes 注册所有路由
func InitRoutes(r *gin.Engine, c *Controllers) {
	api := r.Group("/api")
	{
		// auth 鉴权组（开放）
		auth := api.Group("/auth")
		{
			auth.POST("/login", c.User.Login)
			auth.POST("/register", c.User.Register)
			auth.POST("/refresh", c.User.RefreshToken)
			auth.GET("/profile", middleware.JWTAuth(), c.User.GetProfile)
		}

		// public 公开门户（无需登录）
		public := api.Group("/public")
		{
			public.GET("/listings", c.Listing.PublicList)
			public.GET("/listings/:id", c.Listing.PublicGet)
		}

		// billing webhook：Stripe 回调，验签代替鉴权
		api.POST("/billing/webhook", c.Billing.Webhook)

		// ==================== 登录后接口 ====================
		authed := api.Group("", middleware.JWTAuth(), middleware.AuditContext())

		// wizard 创建向导（开发商）
		wz := authed.Group("/wizard", middleware.RequireRole(model.RoleDeveloper))
		{
			wz.GET("", c.Wizard.GetState)
			wz.DELETE("", c.Wizard.Discard)
			wz.PUT("/form", c.Wizard.UpdateForm)
			wz.POST("/next", c.Wizard.Next)
			wz.POST("/prev", c.Wizard.Prev)
			wz.POST("/goto", c.Wizard.GoTo)
			wz.POST("/submit",
				middleware.Throttle(middleware.ScopeWizardSubmit, 0),
				c.Wizard.Submit)
			wz.POST("/resume/:id", c.Wizard.ResumeRejected)
		}

		// listing 房源管理（开发商）
		listings := authed.Group("/listings", middleware.RequireRole(model.RoleDeveloper))
		{
			listings.GET("", c.Listing.List)
			listings.GET("/:id", c.Listing.Get)
			listings.PUT("/:id", c.Listing.Update)
			listings.DELETE("/:id", c.Listing.Delete)
			listings.POST("/:id/publish", c.Listing.Publish)
			listings.POST("/:id/archive", c.Listing.Archive)
			listings.PUT("/:id/media/reorder", c.Listing.ReorderMedia)
			listings.PUT("/:id/media/:mediaId/primary", c.Listing.SetPrimaryMedia)
			listings.DELETE("/:id/media/:mediaId", c.Listing.DeleteMedia)
		}

		// upload 媒体直传（开发商）
		uploads := authed.Group("/uploads", middleware.RequireRole(model.RoleDeveloper))
		{
			uploads.POST("/presign", c.Upload.Presign)
			uploads.POST("/attach", c.Upload.Attach)
		}

		// maps 地图代理（登录即可，带冷却限流）
		maps := authed.Group("/maps")
		{
			maps.GET("/geocode",
				middleware.Throttle(middleware.ScopeMapsGeocode, 0),
				c.Maps.Geocode)
			maps.GET("/autocomplete",
				middleware.Throttle(middleware.ScopeMapsSuggest, 0),
				c.Maps.Autocomplete)
			maps.GET("/static", c.Maps.StaticMap)
		}

		// dashboard 工作台（开发商）
		dashboard := authed.Group("/dashboard", middleware.RequireRole(model.RoleDeveloper))
		{
			dashboard.GET("/kpi", c.Dashboard.GetKPI)
			dashboard.GET("/activity", c.Dashboard.GetActivityFeed)
		}

		// billing 账务（开发商）
		billing := authed.Group("/billing", middleware.RequireRole(model.RoleDeveloper))
		{
			billing.POST("/checkout", c.Billing.CreateCheckout)
			billing.GET("/subscription", c.Billing.GetMySubscription)
			billing.GET("/invoices", c.Billing.ListMyInvoices)
		}

		// approval 审核队列（审核员与超管）
		approvals := authed.Group("/approvals", middleware.RequireRole(model.RoleReviewer, model.RoleAdmin))
		{
			approvals.GET("", c.Approval.ListQueue)
			approvals.GET("/:id", c.Approval.GetEntry)
			approvals.GET("/listings/:id", c.Approval.GetListing)
			approvals.POST("/:id/review", c.Approval.Review)
		}

		// admin 超管专区
		admin := authed.Group("/admin", middleware.RequireRole(model.RoleAdmin))
		{
			admin.GET("/billing/overview", c.Billing.Overview)

			brands := admin.Group("/brands")
			{
				brands.GET("", c.Brand.List)
				brands.POST("", c.Brand.Create)
				brands.PUT("/:id", c.Brand.Update)
				brands.DELETE("/:id", c.Brand.Delete)
				brands.POST("/:id/emulate", c.Brand.Emulate)
				brands.POST("/:id/seed", c.Brand.SeedListings)
			}
		}
	}
}
