package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"mybox/config"
	"mybox/database"
	"mybox/handlers"
	"mybox/logger"
	"mybox/middleware"
	"mybox/models"
	"mybox/repositories"
	"mybox/services"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

func main() {
	log.Println("starting mybox service")

	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}
	logger.SetLevel(cfg.Log.Level)

	if err := database.InitMySQL(&cfg.Database); err != nil {
		log.Fatalf("init mysql failed: %v", err)
	}

	database.DB.AutoMigrate(
		&models.User{},
		&models.Folder{},
		&models.File{},
		&models.Contact{},
		&models.ContactGroup{},
		&models.ShareGrant{},
	)
	log.Println("database migration completed")

	if err := database.InitRedis(&cfg.Redis); err != nil {
		log.Fatalf("init redis failed: %v", err)
	}

	if err := os.MkdirAll(filepath.Join(cfg.Storage.BasePath, "uploads"), 0o755); err != nil {
		log.Fatalf("create uploads dir failed: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(cfg.Storage.BasePath, "thumbnails"), 0o755); err != nil {
		log.Fatalf("create thumbnails dir failed: %v", err)
	}

	repoContainer := repositories.NewGormRepositories(database.DB, database.RedisClient).BuildContainer()
	serviceContainer := services.NewContainer(repoContainer)
	handlers.SetServices(serviceContainer)

	services.StartCleanupWorkers(context.Background(), serviceContainer.Cleanup)
	log.Println("cleanup workers started")

	r := gin.Default()
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.RequestLogger())
	setupRoutes(r)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("server listening on http://%s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("server start failed: %v", err)
	}
}

func setupRoutes(r *gin.Engine) {
	api := r.Group("/api")

	api.GET("/health", handlers.HealthCheck)

	auth := api.Group("/auth")
	auth.Use(middleware.RateLimiter(context.Background(), rate.Limit(5), 10))
	{
		auth.POST("/register", handlers.Register)
		auth.POST("/login", handlers.Login)
	}

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware())
	{
		protected.GET("/auth/profile", handlers.GetProfile)

		protected.GET("/folders", handlers.ListFolders)
		protected.POST("/folders", handlers.CreateFolder)
		protected.GET("/folders/:id", handlers.GetFolder)
		protected.PUT("/folders/:id", handlers.RenameFolder)
		protected.DELETE("/folders/:id", handlers.DeleteFolder)
		protected.GET("/folders/:id/size", handlers.GetFolderSize)
		protected.GET("/folders/:id/path", handlers.GetFolderPath)
		protected.POST("/folders/:id/favorite", handlers.ToggleFolderFavorite)
		protected.GET("/folders/:id/shares", handlers.ListFolderGrants)
		protected.POST("/folders/:id/shares", handlers.ShareFolderWithContact)
		protected.POST("/folders/:id/shares/group", handlers.ShareFolderWithGroup)
		protected.PUT("/folders/:id/shares/expiry", handlers.SetFolderShareExpiry)
		protected.DELETE("/folders/:id/shares/:grant_id", handlers.RevokeFolderGrant)

		protected.GET("/files", handlers.ListFiles)
		protected.POST("/files/upload", handlers.UploadFile)
		protected.GET("/files/:id", handlers.GetFile)
		protected.GET("/files/:id/download", handlers.DownloadFile)
		protected.GET("/files/:id/thumbnail", handlers.GetThumbnail)
		protected.PUT("/files/:id/rename", handlers.RenameFile)
		protected.PUT("/files/:id/move", handlers.MoveFile)
		protected.PUT("/files/:id/policy", handlers.SetDownloadPolicy)
		protected.DELETE("/files/:id", handlers.DeleteFile)
		protected.POST("/files/:id/favorite", handlers.ToggleFileFavorite)
		protected.GET("/files/:id/shares", handlers.ListFileGrants)
		protected.POST("/files/:id/shares", handlers.ShareFileWithContact)
		protected.POST("/files/:id/shares/group", handlers.ShareFileWithGroup)
		protected.PUT("/files/:id/shares/expiry", handlers.SetFileShareExpiry)
		protected.DELETE("/files/:id/shares/:grant_id", handlers.RevokeFileGrant)

		protected.GET("/shares/received", handlers.SharedWithMe)
		protected.GET("/shares/browse/:slug", handlers.BrowseSharedFolder)

		protected.GET("/trash", handlers.ListTrash)
		protected.POST("/trash/files/:id/restore", handlers.RestoreFile)
		protected.POST("/trash/folders/:id/restore", handlers.RestoreFolder)
		protected.POST("/trash/files/:id/archive", handlers.ArchiveFile)
		protected.POST("/trash/empty", handlers.EmptyTrash)

		protected.GET("/contacts", handlers.ListContacts)
		protected.POST("/contacts", handlers.CreateContact)
		protected.DELETE("/contacts/:id", handlers.DeleteContact)
		protected.GET("/contacts/groups", handlers.ListContactGroups)
		protected.POST("/contacts/groups", handlers.CreateContactGroup)
		protected.POST("/contacts/groups/:id/members", handlers.AddContactToGroup)
		protected.DELETE("/contacts/groups/:id", handlers.DeleteContactGroup)
	}
}
