package services

import (
	"context"
	"fmt"

	"mybox/models"
	"mybox/repositories"

	"gorm.io/gorm"
)

// folderWalker holds the parent-chain and subtree traversals shared by the
// folder, share and trash services. Folders form an adjacency list, so both
// directions are explicit queue walks rather than path-prefix queries.
type folderWalker struct {
	folders repositories.FolderRepository
}

// ancestors returns the chain of folders above startParentID, nearest
// first. With stopAtDeleted the walk ends before the first soft-deleted
// ancestor; otherwise deleted ancestors are included, which restore needs.
// The walk is capped at maxFolderDepth hops so a corrupted parent link
// cannot loop forever.
func (w folderWalker) ancestors(ctx context.Context, tx *gorm.DB, userID uint, startParentID *uint, stopAtDeleted bool) ([]models.Folder, error) {
	var chain []models.Folder
	current := startParentID
	for current != nil {
		if len(chain) > maxFolderDepth {
			return nil, fmt.Errorf("folder hierarchy exceeds %d levels, possible cycle at folder %d", maxFolderDepth, *current)
		}
		folder, err := w.folders.GetByIDAndUserUnscoped(ctx, tx, *current, userID)
		if err != nil {
			return nil, err
		}
		if stopAtDeleted && folder.Deleted() {
			break
		}
		chain = append(chain, folder)
		current = folder.ParentID
	}
	return chain, nil
}

// subtreeIDs collects folder, plus every descendant folder ID, breadth
// first. includeDeleted widens the walk to soft-deleted children, which the
// delete cascade and downward restore need.
func (w folderWalker) subtreeIDs(ctx context.Context, tx *gorm.DB, userID uint, folderID uint, includeDeleted bool) ([]uint, error) {
	ids := []uint{folderID}
	queue := []uint{folderID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		parentID := current
		var children []models.Folder
		var err error
		if includeDeleted {
			children, err = w.folders.ListByParentUnscoped(ctx, tx, userID, &parentID)
		} else {
			children, err = w.folders.ListByParent(ctx, tx, userID, &parentID)
		}
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			ids = append(ids, child.ID)
			queue = append(queue, child.ID)
		}
	}
	return ids, nil
}

// depth counts the ancestors of a folder; a folder directly under the
// user's root has depth 1.
func (w folderWalker) depth(ctx context.Context, tx *gorm.DB, userID uint, parentID *uint) (int, error) {
	chain, err := w.ancestors(ctx, tx, userID, parentID, false)
	if err != nil {
		return 0, err
	}
	return len(chain), nil
}

// fullPath joins folder names from the root down to and including the
// given folder.
func (w folderWalker) fullPath(ctx context.Context, tx *gorm.DB, folder models.Folder) (string, error) {
	chain, err := w.ancestors(ctx, tx, folder.UserID, folder.ParentID, false)
	if err != nil {
		return "", err
	}

	path := "/" + folder.Name
	for _, ancestor := range chain {
		path = "/" + ancestor.Name + path
	}
	return path, nil
}
