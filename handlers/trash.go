package handlers

import (
	"mybox/utils"

	"github.com/gin-gonic/gin"
)

func ListTrash(c *gin.Context) {
	view, err := getServices().Trash.List(c.Request.Context(), currentUserID(c))
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, view)
}

func RestoreFile(c *gin.Context) {
	fileID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := getServices().Trash.RestoreFile(c.Request.Context(), currentUserID(c), fileID); respondServiceError(c, err) {
		return
	}
	utils.Success(c, gin.H{"restored": true})
}

func RestoreFolder(c *gin.Context) {
	folderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	withChildren := c.Query("with_children") == "true"

	if err := getServices().Trash.RestoreFolder(c.Request.Context(), currentUserID(c), folderID, withChildren); respondServiceError(c, err) {
		return
	}
	utils.Success(c, gin.H{"restored": true})
}

func ArchiveFile(c *gin.Context) {
	fileID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := getServices().Trash.ArchiveFile(c.Request.Context(), currentUserID(c), fileID); respondServiceError(c, err) {
		return
	}
	utils.Success(c, gin.H{"archived": true})
}

func EmptyTrash(c *gin.Context) {
	if err := getServices().Trash.Empty(c.Request.Context(), currentUserID(c)); respondServiceError(c, err) {
		return
	}
	utils.Success(c, gin.H{"emptied": true})
}
