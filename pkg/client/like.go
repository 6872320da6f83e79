package client

import (
	"context"
	"sync"
)

// Liker persists like rows for the signed-in user.
type Liker interface {
	InsertLike(ctx context.Context, videoID string) error
	DeleteLike(ctx context.Context, videoID string) error
}

// LikeButton is the heart on a video card. Toggle updates the shown state
// before the request goes out and rolls back if it fails.
//
// Overlapping toggles are not serialized: each one sends its own request and
// rolls back to whatever it saw when it started.
type LikeButton struct {
	VideoID string

	userID   string
	api      Liker
	notify   Notifier
	onChange func(ctx context.Context)
	onRender func(liked bool, count int)

	mu    sync.Mutex
	liked bool
	count int
}

type LikeButtonOption func(*LikeButton)

// OnLikeChange is called after every persisted or failed toggle so the parent
// view can reload its liked set.
func OnLikeChange(fn func(ctx context.Context)) LikeButtonOption {
	return func(b *LikeButton) { b.onChange = fn }
}

// OnRender is called whenever the displayed state changes.
func OnRender(fn func(liked bool, count int)) LikeButtonOption {
	return func(b *LikeButton) { b.onRender = fn }
}

func NewLikeButton(api Liker, notify Notifier, videoID, userID string, liked bool, count int, opts ...LikeButtonOption) *LikeButton {
	b := &LikeButton{
		VideoID: videoID,
		userID:  userID,
		api:     api,
		notify:  notify,
		liked:   liked,
		count:   count,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *LikeButton) State() (liked bool, count int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.liked, b.count
}

func (b *LikeButton) set(liked bool, count int) {
	b.mu.Lock()
	b.liked, b.count = liked, count
	b.mu.Unlock()
	if b.onRender != nil {
		b.onRender(liked, count)
	}
}

// Toggle flips the like. It returns ErrNotSignedIn without touching anything
// when there is no current user, or the persistence error after rolling back.
func (b *LikeButton) Toggle(ctx context.Context) error {
	if b.userID == "" {
		b.notify.Error("Please log in to like videos")
		return ErrNotSignedIn
	}

	prevLiked, prevCount := b.State()
	liked := !prevLiked
	count := prevCount - 1
	if liked {
		count = prevCount + 1
	}
	b.set(liked, count)

	var err error
	if liked {
		err = b.api.InsertLike(ctx, b.VideoID)
	} else {
		err = b.api.DeleteLike(ctx, b.VideoID)
	}
	if err != nil {
		b.set(prevLiked, prevCount)
		if liked {
			b.notify.Error("Failed to like video")
		} else {
			b.notify.Error("Failed to unlike video")
		}
	}

	if b.onChange != nil {
		b.onChange(ctx)
	}
	return err
}
