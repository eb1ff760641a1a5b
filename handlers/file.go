package handlers

import (
	"net/http"
	"strconv"
	"time"

	"mybox/services"
	"mybox/utils"

	"github.com/gin-gonic/gin"
)

type RenameFileRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type MoveFileRequest struct {
	FolderID *uint `json:"folder_id"`
}

type DownloadPolicyRequest struct {
	DownloadLimit *uint      `json:"download_limit"`
	ExpiresAt     *time.Time `json:"expires_at"`
}

func UploadFile(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "file is required")
		return
	}

	folderID, ok := formFolderID(c)
	if !ok {
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "failed to read upload")
		return
	}
	defer src.Close()

	file, err := getServices().File.Upload(c.Request.Context(), currentUserID(c), services.UploadInput{
		Name:        fileHeader.Filename,
		Description: c.PostForm("description"),
		MimeType:    fileHeader.Header.Get("Content-Type"),
		FolderID:    folderID,
		Content:     src,
	})
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, file)
}

func formFolderID(c *gin.Context) (*uint, bool) {
	raw := c.PostForm("folder_id")
	if raw == "" || raw == "0" {
		return nil, true
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid folder_id")
		return nil, false
	}
	parsed := uint(id)
	return &parsed, true
}

func ListFiles(c *gin.Context) {
	folderID, ok := parentIDQuery(c, "folder_id")
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	files, err := getServices().File.ListFiles(c.Request.Context(), currentUserID(c), folderID)
	if respondServiceError(c, err) {
		return
	}

	total := int64(len(files))
	start := (page - 1) * pageSize
	if start > len(files) {
		start = len(files)
	}
	end := start + pageSize
	if end > len(files) {
		end = len(files)
	}

	utils.Success(c, gin.H{
		"files":      files[start:end],
		"pagination": utils.NewPagination(page, pageSize, total),
	})
}

func GetFile(c *gin.Context) {
	fileID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	file, err := getServices().File.GetFile(c.Request.Context(), currentUserID(c), fileID)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, file)
}

func DownloadFile(c *gin.Context) {
	fileID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	file, path, err := getServices().File.Download(c.Request.Context(), currentUserID(c), fileID)
	if respondServiceError(c, err) {
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+file.Name+`"`)
	if file.MimeType != "" {
		c.Header("Content-Type", file.MimeType)
	}
	c.File(path)
}

func GetThumbnail(c *gin.Context) {
	fileID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	path, err := getServices().File.ThumbnailPath(c.Request.Context(), currentUserID(c), fileID)
	if respondServiceError(c, err) {
		return
	}
	c.File(path)
}

func RenameFile(c *gin.Context) {
	fileID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req RenameFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	file, err := getServices().File.RenameFile(c.Request.Context(), currentUserID(c), fileID, req.Name, req.Description)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, file)
}

func MoveFile(c *gin.Context) {
	fileID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req MoveFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	file, err := getServices().File.MoveFile(c.Request.Context(), currentUserID(c), fileID, req.FolderID)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, file)
}

func DeleteFile(c *gin.Context) {
	fileID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := getServices().File.DeleteFile(c.Request.Context(), currentUserID(c), fileID); respondServiceError(c, err) {
		return
	}
	utils.Success(c, gin.H{"deleted": true})
}

func ToggleFileFavorite(c *gin.Context) {
	fileID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	favorite, err := getServices().File.ToggleFavorite(c.Request.Context(), currentUserID(c), fileID)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, gin.H{"is_favorite": favorite})
}

func SetDownloadPolicy(c *gin.Context) {
	fileID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req DownloadPolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	err := getServices().File.SetDownloadPolicy(c.Request.Context(), currentUserID(c), fileID, req.DownloadLimit, req.ExpiresAt)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, gin.H{"updated": true})
}
