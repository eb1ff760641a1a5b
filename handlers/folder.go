package handlers

import (
	"net/http"
	"strconv"

	"mybox/utils"

	"github.com/gin-gonic/gin"
)

type CreateFolderRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	ParentID    *uint  `json:"parent_id"`
}

type RenameFolderRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		utils.Error(c, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return uint(id), true
}

// parentIDQuery reads an optional folder_id query parameter; absent or
// "0" means the drive root.
func parentIDQuery(c *gin.Context, name string) (*uint, bool) {
	raw := c.Query(name)
	if raw == "" || raw == "0" {
		return nil, true
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid "+name)
		return nil, false
	}
	parsed := uint(id)
	return &parsed, true
}

func CreateFolder(c *gin.Context) {
	var req CreateFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	folder, err := getServices().Folder.CreateFolder(c.Request.Context(), currentUserID(c), req.Name, req.Description, req.ParentID)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, folder)
}

func ListFolders(c *gin.Context) {
	parentID, ok := parentIDQuery(c, "parent_id")
	if !ok {
		return
	}

	folders, err := getServices().Folder.ListChildren(c.Request.Context(), currentUserID(c), parentID)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, gin.H{"folders": folders})
}

func GetFolder(c *gin.Context) {
	folderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	folder, err := getServices().Folder.GetFolder(c.Request.Context(), currentUserID(c), folderID)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, folder)
}

func RenameFolder(c *gin.Context) {
	folderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req RenameFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	folder, err := getServices().Folder.RenameFolder(c.Request.Context(), currentUserID(c), folderID, req.Name, req.Description)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, folder)
}

func DeleteFolder(c *gin.Context) {
	folderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := getServices().Folder.DeleteFolder(c.Request.Context(), currentUserID(c), folderID); respondServiceError(c, err) {
		return
	}
	utils.Success(c, gin.H{"deleted": true})
}

func GetFolderSize(c *gin.Context) {
	folderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	size, err := getServices().Folder.FolderSize(c.Request.Context(), currentUserID(c), folderID)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, gin.H{"size": size, "size_human": utils.HumanSize(size)})
}

func GetFolderPath(c *gin.Context) {
	folderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	path, err := getServices().Folder.FolderPath(c.Request.Context(), currentUserID(c), folderID)
	if respondServiceError(c, err) {
		return
	}
	depth, err := getServices().Folder.FolderDepth(c.Request.Context(), currentUserID(c), folderID)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, gin.H{"path": path, "depth": depth})
}

func ToggleFolderFavorite(c *gin.Context) {
	folderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	favorite, err := getServices().Folder.ToggleFavorite(c.Request.Context(), currentUserID(c), folderID)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, gin.H{"is_favorite": favorite})
}
