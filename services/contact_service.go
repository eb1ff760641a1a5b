package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"mybox/models"
	"mybox/repositories"

	"gorm.io/gorm"
)

type ContactService interface {
	CreateContact(ctx context.Context, userID uint, firstName, lastName, email string) (models.Contact, error)
	ListContacts(ctx context.Context, userID uint, limit int) ([]models.Contact, error)
	DeleteContact(ctx context.Context, userID, contactID uint) error
	CreateGroup(ctx context.Context, userID uint, name string) (models.ContactGroup, error)
	ListGroups(ctx context.Context, userID uint) ([]models.ContactGroup, error)
	AddContactToGroup(ctx context.Context, userID, groupID, contactID uint) error
	DeleteGroup(ctx context.Context, userID, groupID uint) error
}

type contactService struct {
	contacts repositories.ContactRepository
}

func NewContactService(contacts repositories.ContactRepository) ContactService {
	return &contactService{contacts: contacts}
}

func (s *contactService) CreateContact(ctx context.Context, userID uint, firstName, lastName, email string) (models.Contact, error) {
	firstName = strings.TrimSpace(firstName)
	if firstName == "" {
		return models.Contact{}, newValidationError("first name is required")
	}
	email = strings.TrimSpace(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return models.Contact{}, newValidationError("a valid email address is required")
	}

	contact := models.Contact{
		UserID:    userID,
		FirstName: firstName,
		LastName:  strings.TrimSpace(lastName),
		Email:     email,
	}
	if err := s.contacts.Create(ctx, nil, &contact); err != nil {
		return models.Contact{}, newInternalError("failed to create contact", err)
	}
	return contact, nil
}

func (s *contactService) ListContacts(ctx context.Context, userID uint, limit int) ([]models.Contact, error) {
	if limit <= 0 || limit > 500 {
		limit = 500
	}
	contacts, err := s.contacts.ListByUser(ctx, nil, userID, limit)
	if err != nil {
		return nil, newInternalError("failed to list contacts", err)
	}
	return contacts, nil
}

func (s *contactService) DeleteContact(ctx context.Context, userID, contactID uint) error {
	if _, err := s.contacts.GetByIDAndUser(ctx, nil, contactID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newNotFoundError("contact not found")
		}
		return newInternalError("failed to load contact", err)
	}
	if err := s.contacts.SoftDeleteByID(ctx, nil, contactID, userID); err != nil {
		return newInternalError("failed to delete contact", err)
	}
	return nil
}

func (s *contactService) CreateGroup(ctx context.Context, userID uint, name string) (models.ContactGroup, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.ContactGroup{}, newValidationError("group name is required")
	}

	group := models.ContactGroup{UserID: userID, Name: name}
	if err := s.contacts.CreateGroup(ctx, nil, &group); err != nil {
		return models.ContactGroup{}, newInternalError("failed to create group", err)
	}
	return group, nil
}

func (s *contactService) ListGroups(ctx context.Context, userID uint) ([]models.ContactGroup, error) {
	groups, err := s.contacts.ListGroupsByUser(ctx, nil, userID)
	if err != nil {
		return nil, newInternalError("failed to list groups", err)
	}
	return groups, nil
}

func (s *contactService) AddContactToGroup(ctx context.Context, userID, groupID, contactID uint) error {
	group, err := s.contacts.GetGroupByIDAndUser(ctx, nil, groupID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newNotFoundError("group not found")
		}
		return newInternalError("failed to load group", err)
	}

	contact, err := s.contacts.GetByIDAndUser(ctx, nil, contactID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newNotFoundError("contact not found")
		}
		return newInternalError("failed to load contact", err)
	}

	for _, member := range group.Contacts {
		if member.ID == contact.ID {
			return nil
		}
	}
	if err := s.contacts.AddToGroup(ctx, nil, &group, contact); err != nil {
		return newInternalError("failed to add contact to group", err)
	}
	return nil
}

func (s *contactService) DeleteGroup(ctx context.Context, userID, groupID uint) error {
	if _, err := s.contacts.GetGroupByIDAndUser(ctx, nil, groupID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newNotFoundError("group not found")
		}
		return newInternalError("failed to load group", err)
	}
	if err := s.contacts.SoftDeleteGroupByID(ctx, nil, groupID, userID); err != nil {
		return newInternalError("failed to delete group", err)
	}
	return nil
}
