package handlers

import "github.com/gin-gonic/gin"

// Set groups the handlers served by the API
type Set struct {
	Health     *HealthHandlers
	Users      *UserHandlers
	Workers    *WorkerHandlers
	Markets    *MarketHandlers
	Documents  *DocumentHandlers
	Onboarding *OnboardingHandlers
}

// Register mounts every route on r. auth runs before each route that
// needs an authenticated user.
func (s *Set) Register(r gin.IRouter, auth ...gin.HandlerFunc) {
	r.GET("/health", s.Health.Health)

	v1 := r.Group("/v1")
	v1.GET("/documents/cpf/:cpf", s.Documents.CheckCPF)
	v1.GET("/documents/cnpj/:cnpj", s.Documents.CheckCNPJ)

	authed := v1.Group("", auth...)
	authed.GET("/me", s.Users.GetMe)
	authed.GET("/cnpj/:cnpj", s.Documents.LookupCNPJ)

	workers := authed.Group("/workers")
	{
		workers.POST("", s.Workers.CreateWorker)
		workers.GET("/me", s.Workers.GetMyWorker)
		workers.PATCH("/me", s.Workers.UpdateMyWorker)
		workers.POST("/me/documents", s.Workers.UploadDocuments)
	}

	markets := authed.Group("/markets")
	{
		markets.POST("", s.Markets.CreateMarket)
		markets.GET("/me", s.Markets.GetMyMarket)
		markets.PATCH("/me", s.Markets.UpdateMyMarket)
		markets.POST("/me/photos", s.Markets.UploadPhoto)
		markets.DELETE("/me/photos", s.Markets.RemovePhoto)
	}

	flow := authed.Group("/onboarding/:role")
	{
		flow.GET("", s.Onboarding.GetOnboarding)
		flow.DELETE("", s.Onboarding.Discard)
		flow.POST("/start", s.Onboarding.StartOnboarding)
		flow.PUT("/steps/:step", s.Onboarding.SubmitStep)
		flow.POST("/back", s.Onboarding.Back)
		flow.POST("/jump", s.Onboarding.Jump)
		flow.POST("/reset", s.Onboarding.Reset)
		flow.POST("/complete", s.Onboarding.Complete)
		flow.POST("/uploads/:slot", s.Onboarding.UploadAsset)
		flow.DELETE("/uploads/:slot", s.Onboarding.RemoveAsset)
	}
}
