package services

import "mybox/repositories"

type Container struct {
	Auth    AuthService
	Folder  FolderService
	File    FileService
	Share   ShareService
	Trash   TrashService
	Contact ContactService
	Cleanup CleanupService
}

func NewContainer(repos repositories.Container) *Container {
	return &Container{
		Auth:    NewAuthService(repos.Users),
		Folder:  NewFolderService(repos.TxManager, repos.Folders, repos.Files, repos.Shares, repos.Sizes),
		File:    NewFileService(repos.TxManager, repos.Folders, repos.Files, repos.Shares, repos.Sizes),
		Share:   NewShareService(repos.TxManager, repos.Users, repos.Folders, repos.Files, repos.Shares, repos.Contacts),
		Trash:   NewTrashService(repos.TxManager, repos.Folders, repos.Files, repos.Sizes),
		Contact: NewContactService(repos.Contacts),
		Cleanup: NewCleanupService(repos.TxManager, repos.Files, repos.Shares),
	}
}
