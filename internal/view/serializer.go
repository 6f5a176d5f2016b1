// Package view renders messages into per-viewer projections.
package view

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ademetov/messenger-server/internal/store"
)

// Classifier reports the friend relationship of subject relative to viewer,
// one of "requested", "invited", "friend" or "none".
type Classifier interface {
	Classify(ctx context.Context, viewerID, subjectID int64) (string, error)
}

// Author is the public profile projection of a message author.
type Author struct {
	ID         int64  `json:"id"`
	Username   string `json:"username"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	FullName   string `json:"full_name"`
	FriendType string `json:"friend_type"`
	Pfp        string `json:"pfp"`
}

// Image is one attachment as exposed to viewers.
type Image struct {
	URL string `json:"url"`
}

// Message is the viewer-specific projection of a stored message.
type Message struct {
	ID        int64     `json:"id"`
	Author    Author    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	IsMine    bool      `json:"is_mine"`
	Images    []Image   `json:"images"`
	Deleted   bool      `json:"deleted"`
	Edited    bool      `json:"edited"`
}

// deletedAuthor is the stable placeholder identity for messages whose author
// account no longer exists.
var deletedAuthor = Author{
	ID:         0,
	Username:   "DeletedAccount",
	FirstName:  "Deleted",
	LastName:   "Account",
	FullName:   "Deleted Account",
	FriendType: "none",
}

// Renderer builds message views scoped to a viewer.
type Renderer struct {
	users      store.UserStore
	classifier Classifier
}

// NewRenderer constructs a renderer over the user store and the friend
// relation collaborator.
func NewRenderer(users store.UserStore, classifier Classifier) *Renderer {
	return &Renderer{
		users:      users,
		classifier: classifier,
	}
}

// Render projects a message and its attachments for one viewer. Deleted
// messages are redacted to empty content and no images even though the
// stored record is retained; is_mine is false when the viewer is absent.
func (r *Renderer) Render(ctx context.Context, msg *store.Message, images []*store.MessageImage, viewerID int64) (*Message, error) {
	author, err := r.renderAuthor(ctx, msg.AuthorID, viewerID)
	if err != nil {
		return nil, err
	}

	out := &Message{
		ID:        msg.ID,
		Author:    author,
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
		IsMine:    msg.AuthorID != nil && viewerID != 0 && *msg.AuthorID == viewerID,
		Images:    make([]Image, 0, len(images)),
		Deleted:   msg.Deleted,
		Edited:    msg.Edited,
	}

	if msg.Deleted {
		out.Content = ""
		return out, nil
	}

	for _, img := range images {
		out.Images = append(out.Images, Image{URL: img.URL})
	}

	return out, nil
}

func (r *Renderer) renderAuthor(ctx context.Context, authorID *int64, viewerID int64) (Author, error) {
	if authorID == nil {
		return deletedAuthor, nil
	}

	user, err := r.users.GetUserByID(ctx, *authorID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return deletedAuthor, nil
		}
		return Author{}, fmt.Errorf("load author: %w", err)
	}

	friendType, err := r.classifier.Classify(ctx, viewerID, user.ID)
	if err != nil {
		return Author{}, fmt.Errorf("classify author: %w", err)
	}

	return Author{
		ID:         user.ID,
		Username:   user.Username,
		FirstName:  user.FirstName,
		LastName:   user.LastName,
		FullName:   user.FullName(),
		FriendType: friendType,
		Pfp:        user.Pfp,
	}, nil
}
