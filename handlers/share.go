package handlers

import (
	"net/http"
	"time"

	"mybox/utils"

	"github.com/gin-gonic/gin"
)

type AddContactRequest struct {
	ContactID uint       `json:"contact_id" binding:"required"`
	ExpiresAt *time.Time `json:"expires_at"`
}

type AddGroupRequest struct {
	GroupID   uint       `json:"group_id" binding:"required"`
	ExpiresAt *time.Time `json:"expires_at"`
}

func ListFileGrants(c *gin.Context) {
	fileID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	grants, err := getServices().Share.ResolveFileGrants(c.Request.Context(), currentUserID(c), fileID)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, gin.H{"grants": grants})
}

func ListFolderGrants(c *gin.Context) {
	folderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	grants, err := getServices().Share.ResolveFolderGrants(c.Request.Context(), currentUserID(c), folderID)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, gin.H{"grants": grants})
}

func ShareFileWithContact(c *gin.Context) {
	fileID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req AddContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	grant, already, err := getServices().Share.AddContactToFile(c.Request.Context(), currentUserID(c), fileID, req.ContactID, req.ExpiresAt)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, gin.H{"grant": grant, "already_shared": already})
}

func ShareFolderWithContact(c *gin.Context) {
	folderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req AddContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	grant, already, err := getServices().Share.AddContactToFolder(c.Request.Context(), currentUserID(c), folderID, req.ContactID, req.ExpiresAt)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, gin.H{"grant": grant, "already_shared": already})
}

func ShareFileWithGroup(c *gin.Context) {
	fileID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req AddGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	added, err := getServices().Share.AddGroupToFile(c.Request.Context(), currentUserID(c), fileID, req.GroupID, req.ExpiresAt)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, gin.H{"added": added})
}

func ShareFolderWithGroup(c *gin.Context) {
	folderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req AddGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	added, err := getServices().Share.AddGroupToFolder(c.Request.Context(), currentUserID(c), folderID, req.GroupID, req.ExpiresAt)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, gin.H{"added": added})
}

type ShareExpiryRequest struct {
	ExpiresAt *time.Time `json:"expires_at"`
}

// SetFileShareExpiry sets a target-wide expiry past which no grant on
// the file resolves; a null expires_at clears it.
func SetFileShareExpiry(c *gin.Context) {
	fileID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req ShareExpiryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	err := getServices().Share.SetFileShareExpiry(c.Request.Context(), currentUserID(c), fileID, req.ExpiresAt)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, gin.H{"share_expires_at": req.ExpiresAt})
}

func SetFolderShareExpiry(c *gin.Context) {
	folderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req ShareExpiryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	err := getServices().Share.SetFolderShareExpiry(c.Request.Context(), currentUserID(c), folderID, req.ExpiresAt)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, gin.H{"share_expires_at": req.ExpiresAt})
}

func RevokeFileGrant(c *gin.Context) {
	fileID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	grantID, ok := parseIDParam(c, "grant_id")
	if !ok {
		return
	}

	err := getServices().Share.RemoveContactFromFile(c.Request.Context(), currentUserID(c), fileID, grantID)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, gin.H{"revoked": true})
}

func RevokeFolderGrant(c *gin.Context) {
	folderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	grantID, ok := parseIDParam(c, "grant_id")
	if !ok {
		return
	}

	err := getServices().Share.RemoveContactFromFolder(c.Request.Context(), currentUserID(c), folderID, grantID)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, gin.H{"revoked": true})
}

func SharedWithMe(c *gin.Context) {
	grants, err := getServices().Share.SharedWithMe(c.Request.Context(), currentUserID(c))
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, gin.H{"shares": grants})
}

// BrowseSharedFolder serves a shared folder to its recipient; the
// optional subfolder query navigates inside the shared subtree.
func BrowseSharedFolder(c *gin.Context) {
	slug := c.Param("slug")
	if slug == "" {
		utils.Error(c, http.StatusBadRequest, "share slug is required")
		return
	}

	view, err := getServices().Share.BrowseSharedFolder(c.Request.Context(), currentUserID(c), slug, c.Query("subfolder"))
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, view)
}
