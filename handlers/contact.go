package handlers

import (
	"net/http"
	"strconv"

	"mybox/utils"

	"github.com/gin-gonic/gin"
)

type CreateContactRequest struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name"`
	Email     string `json:"email" binding:"required,email"`
}

type CreateGroupRequest struct {
	Name string `json:"name" binding:"required"`
}

type AddGroupMemberRequest struct {
	ContactID uint `json:"contact_id" binding:"required"`
}

func CreateContact(c *gin.Context) {
	var req CreateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	contact, err := getServices().Contact.CreateContact(c.Request.Context(), currentUserID(c), req.FirstName, req.LastName, req.Email)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, contact)
}

func ListContacts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	contacts, err := getServices().Contact.ListContacts(c.Request.Context(), currentUserID(c), limit)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, gin.H{"contacts": contacts})
}

func DeleteContact(c *gin.Context) {
	contactID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := getServices().Contact.DeleteContact(c.Request.Context(), currentUserID(c), contactID); respondServiceError(c, err) {
		return
	}
	utils.Success(c, gin.H{"deleted": true})
}

func CreateContactGroup(c *gin.Context) {
	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	group, err := getServices().Contact.CreateGroup(c.Request.Context(), currentUserID(c), req.Name)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, group)
}

func ListContactGroups(c *gin.Context) {
	groups, err := getServices().Contact.ListGroups(c.Request.Context(), currentUserID(c))
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, gin.H{"groups": groups})
}

func AddContactToGroup(c *gin.Context) {
	groupID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req AddGroupMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	err := getServices().Contact.AddContactToGroup(c.Request.Context(), currentUserID(c), groupID, req.ContactID)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, gin.H{"added": true})
}

func DeleteContactGroup(c *gin.Context) {
	groupID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := getServices().Contact.DeleteGroup(c.Request.Context(), currentUserID(c), groupID); respondServiceError(c, err) {
		return
	}
	utils.Success(c, gin.H{"deleted": true})
}
