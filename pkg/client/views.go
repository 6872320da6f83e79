package client

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"campustube/pkg/models"
)

// Backend is everything the views call on the API. *Client implements it.
type Backend interface {
	Liker
	Uploader
	ListVideos(ctx context.Context, q VideoQuery) ([]models.Video, error)
	Profile(ctx context.Context, id string) (*models.Profile, error)
	LikedVideoIDs(ctx context.Context, userID string) ([]string, error)
	SignOut(ctx context.Context) error
}

// App holds the page-level views: feed, search, own profile, sign-out.
type App struct {
	backend Backend
	notify  Notifier
	log     *zap.Logger
}

func NewApp(backend Backend, notify Notifier, log *zap.Logger) *App {
	if log == nil {
		log = zap.NewNop()
	}
	return &App{backend: backend, notify: notify, log: log}
}

// Page is one rendered list of videos and the viewer's liked set.
type Page struct {
	UserID  string
	Profile *models.Profile
	Videos  []models.Video

	mu    sync.RWMutex
	liked map[string]bool
}

func (p *Page) IsLiked(videoID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.liked[videoID]
}

func (p *Page) setLiked(liked map[string]bool) {
	p.mu.Lock()
	p.liked = liked
	p.mu.Unlock()
}

// LikeButton builds the button for Videos[i], refreshing the page's liked
// set through app after each toggle.
func (p *Page) LikeButton(app *App, i int, opts ...LikeButtonOption) *LikeButton {
	v := p.Videos[i]
	refresh := OnLikeChange(func(ctx context.Context) {
		if liked, ok := app.RefreshLikes(ctx); ok {
			p.setLiked(liked)
		}
	})
	opts = append([]LikeButtonOption{refresh}, opts...)
	return NewLikeButton(app.backend, app.notify, v.ID, p.UserID, p.IsLiked(v.ID), v.LikesCount, opts...)
}

func (a *App) likedSet(ctx context.Context, userID string) (map[string]bool, error) {
	ids, err := a.backend.LikedVideoIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	liked := make(map[string]bool, len(ids))
	for _, id := range ids {
		liked[id] = true
	}
	return liked, nil
}

// fill loads the viewer's likes into p; a failure leaves the set empty.
func (a *App) fill(ctx context.Context, p *Page) {
	if p.UserID == "" {
		return
	}
	liked, err := a.likedSet(ctx, p.UserID)
	if err != nil {
		a.log.Warn("error fetching likes", zap.String("user_id", p.UserID), zap.Error(err))
		return
	}
	p.setLiked(liked)
}

func (a *App) currentUser(ctx context.Context) string {
	userID, err := a.backend.GetUser(ctx)
	if err != nil {
		a.log.Warn("error fetching current user", zap.Error(err))
		return ""
	}
	return userID
}

// Home lists published videos, newest first.
func (a *App) Home(ctx context.Context) (*Page, error) {
	p := &Page{UserID: a.currentUser(ctx)}

	videos, err := a.backend.ListVideos(ctx, VideoQuery{Status: models.StatusPublished})
	if err != nil {
		a.log.Error("error fetching videos", zap.Error(err))
		return p, err
	}
	p.Videos = videos
	a.fill(ctx, p)
	return p, nil
}

// Explore searches published videos by title or description. A blank query
// sends nothing and returns an empty page.
func (a *App) Explore(ctx context.Context, query string) (*Page, error) {
	if strings.TrimSpace(query) == "" {
		return &Page{}, nil
	}
	p := &Page{UserID: a.currentUser(ctx)}

	videos, err := a.backend.ListVideos(ctx, VideoQuery{
		Status: models.StatusPublished,
		Search: SanitizeSearchInput(query),
	})
	if err != nil {
		a.log.Error("error searching videos", zap.String("query", query), zap.Error(err))
		return p, err
	}
	p.Videos = videos
	a.fill(ctx, p)
	return p, nil
}

// Profile shows the signed-in user's profile and all of their videos,
// whatever their moderation status.
func (a *App) Profile(ctx context.Context) (*Page, error) {
	p := &Page{UserID: a.currentUser(ctx)}
	if p.UserID == "" {
		return p, ErrNotSignedIn
	}

	profile, err := a.backend.Profile(ctx, p.UserID)
	if err != nil {
		a.log.Warn("error fetching profile", zap.String("user_id", p.UserID), zap.Error(err))
	}
	p.Profile = profile

	videos, err := a.backend.ListVideos(ctx, VideoQuery{UserID: p.UserID})
	if err != nil {
		a.log.Error("error fetching user videos", zap.String("user_id", p.UserID), zap.Error(err))
		return p, err
	}
	p.Videos = videos
	a.fill(ctx, p)
	return p, nil
}

// RefreshLikes re-reads the viewer's liked set. ok is false when there is no
// signed-in user or the read failed, in which case the caller keeps its set.
func (a *App) RefreshLikes(ctx context.Context) (liked map[string]bool, ok bool) {
	userID := a.currentUser(ctx)
	if userID == "" {
		return nil, false
	}
	liked, err := a.likedSet(ctx, userID)
	if err != nil {
		a.log.Warn("error refreshing likes", zap.String("user_id", userID), zap.Error(err))
		return nil, false
	}
	return liked, true
}

func (a *App) SignOut(ctx context.Context) error {
	if err := a.backend.SignOut(ctx); err != nil {
		a.log.Warn("sign out failed", zap.Error(err))
		a.notify.Error("Error logging out")
		return err
	}
	a.notify.Success("Logged out successfully")
	return nil
}

// Upload returns a fresh upload form bound to the same backend.
func (a *App) Upload(prober DurationProber) *UploadForm {
	return NewUploadForm(a.backend, prober, a.notify, a.log)
}
