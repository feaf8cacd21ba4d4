package api

import (
	"net/http"

	"alcyxob/nutrition-app/internal/domain"
	"alcyxob/nutrition-app/internal/service"

	"github.com/gin-gonic/gin"
)

// Services bundles the dependencies of the router.
type Services struct {
	Auth        service.AuthService
	Plan        service.PlanService
	Meal        service.MealService
	DayPlan     service.DayPlanService
	Checklist   service.ChecklistService
	Admin       service.AdminService
	Restriction service.RestrictionService
}

func SetupRoutes(router *gin.Engine, jwtSecret string, s Services) {
	authHandler := NewAuthHandler(s.Auth)
	planHandler := NewPlanHandler(s.Plan)
	mealHandler := NewMealHandler(s.Meal)
	dayPlanHandler := NewDayPlanHandler(s.DayPlan)
	checklistHandler := NewChecklistHandler(s.Checklist)
	adminHandler := NewAdminHandler(s.Admin)
	restrictionHandler := NewRestrictionHandler(s.Restriction)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(AuthMiddleware(jwtSecret))
	{
		protected.GET("/me", authHandler.Me)

		protected.GET("/profile", planHandler.GetProfile)
		protected.PUT("/profile", planHandler.PutProfile)

		planGroup := protected.Group("/plan")
		{
			planGroup.GET("", planHandler.GetPlan)
			planGroup.PUT("", planHandler.UpdatePlan)
			planGroup.POST("/generate", planHandler.GeneratePlan)
			planGroup.GET("/portions/summary", planHandler.PortionSummary)
			planGroup.PATCH("/portions/:slot", planHandler.UpdatePortion)
		}

		protected.GET("/meals", mealHandler.GetMyMeals)
		protected.POST("/meals", mealHandler.CreateMeal)
		protected.GET("/meals/:id", mealHandler.GetMeal)
		protected.PUT("/meals/:id/ingredients", mealHandler.ReplaceIngredients)
		protected.GET("/catalog", mealHandler.GetCatalog)
		protected.GET("/restrictions", restrictionHandler.ListRestrictions)

		dayPlanGroup := protected.Group("/dayplan")
		{
			dayPlanGroup.GET("", dayPlanHandler.GetDayPlan)
			dayPlanGroup.POST("/lock", dayPlanHandler.Lock)
			dayPlanGroup.PUT("/menu-days", dayPlanHandler.SetMenuDays)
			dayPlanGroup.POST("/:slot/entries", dayPlanHandler.AddEntry)
			dayPlanGroup.PATCH("/:slot/entries/:entryId", dayPlanHandler.UpdateEntry)
			dayPlanGroup.DELETE("/:slot/entries/:entryId", dayPlanHandler.RemoveEntry)
			dayPlanGroup.POST("/:slot/macros/:macro", dayPlanHandler.AddWithinMacro)
			dayPlanGroup.GET("/:slot/macros/:macro/options", dayPlanHandler.MacroOptions)
		}

		checklistGroup := protected.Group("/checklist")
		{
			checklistGroup.GET("", checklistHandler.GetChecklist)
			checklistGroup.PUT("/start-day", checklistHandler.SetStartDay)
			checklistGroup.POST("/days/:idx", checklistHandler.MarkDay)
			checklistGroup.POST("/reset", checklistHandler.ResetWeek)
			checklistGroup.GET("/comparisons", checklistHandler.Comparisons)
		}

		adminGroup := protected.Group("/admin")
		adminGroup.Use(RoleMiddleware(domain.RoleAdmin))
		{
			adminGroup.GET("/summary", adminHandler.Summary)
			adminGroup.GET("/users", adminHandler.ListUsers)
			adminGroup.GET("/users/:id", adminHandler.UserDetail)
			adminGroup.POST("/reports", adminHandler.ExportReport)
			adminGroup.PUT("/catalog", mealHandler.UpsertCatalogGroup)
			adminGroup.PUT("/restrictions", restrictionHandler.UpsertRestriction)
		}
	}
}
