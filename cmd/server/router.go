package server

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/thereayou/wetube/internal/handlers"
	"github.com/thereayou/wetube/internal/middleware"
)

func APIEndpoints(r *gin.Engine, authH *handlers.AuthHandler, userH *handlers.UserHandler, log *slog.Logger) {
	r.GET("/", userH.Home)
	r.GET("/users/:id", userH.See)
	r.NoRoute(userH.NotFound)

	// Только для анонимных клиентов
	public := r.Group("/", middleware.PublicOnly(log))
	{
		public.GET("/join", authH.GetJoin)
		public.POST("/join", authH.PostJoin)
		public.GET("/login", authH.GetLogin)
		public.POST("/login", authH.PostLogin)
	}

	github := r.Group("/auth/github", middleware.PublicOnly(log))
	{
		github.GET("/start", authH.StartGithubLogin)
		github.GET("/finish", authH.FinishGithubLogin)
	}

	// Только для залогиненных
	private := r.Group("/", middleware.RequireLogin(log))
	{
		private.GET("/logout", authH.Logout)
		private.POST("/logout", authH.Logout)
		private.GET("/edit-profile", userH.GetEdit)
		private.POST("/edit-profile", userH.PostEdit)
		private.GET("/change-password", userH.GetChangePassword)
		private.POST("/change-password", userH.PostChangePassword)
	}
}
