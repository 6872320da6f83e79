package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"campustube/pkg/auth"
	"campustube/pkg/database"
	"campustube/pkg/events"
)

// ObjectStore is the media bucket behind /storage.
type ObjectStore interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) error
	PublicURL(key string) string
}

type Handler struct {
	store      *database.Store
	objects    ObjectStore
	tokens     *auth.Tokens
	events     events.Publisher
	log        *zap.Logger
	moderators map[string]bool
	maxUpload  int64
}

type Options struct {
	Store           *database.Store
	Objects         ObjectStore
	Tokens          *auth.Tokens
	Events          events.Publisher
	Log             *zap.Logger
	ModeratorEmails []string
	MaxUploadBytes  int64
}

func New(opts Options) *Handler {
	h := &Handler{
		store:      opts.Store,
		objects:    opts.Objects,
		tokens:     opts.Tokens,
		events:     opts.Events,
		log:        opts.Log,
		moderators: make(map[string]bool),
		maxUpload:  opts.MaxUploadBytes,
	}
	if h.events == nil {
		h.events = events.Nop()
	}
	if h.log == nil {
		h.log = zap.NewNop()
	}
	for _, email := range opts.ModeratorEmails {
		h.moderators[strings.ToLower(email)] = true
	}
	return h
}

func (h *Handler) Register(r gin.IRouter) {
	optional := h.tokens.Optional()
	required := h.tokens.Required()

	authGrp := r.Group("/auth")
	authGrp.POST("/signup", h.SignUp)
	authGrp.POST("/login", h.Login)
	authGrp.POST("/logout", required, h.Logout)
	authGrp.GET("/user", optional, h.CurrentUser)

	r.GET("/videos", optional, h.ListVideos)
	r.GET("/videos/:id", optional, h.GetVideo)
	r.POST("/videos", required, h.CreateVideo)
	r.PATCH("/videos/:id/status", required, h.SetVideoStatus)

	r.GET("/profiles/:id", h.GetProfile)

	r.GET("/likes", required, h.ListLikes)
	r.POST("/likes", required, h.CreateLike)
	r.DELETE("/likes", required, h.DeleteLike)

	r.POST("/storage/:bucket/*key", required, h.UploadObject)
	r.GET("/storage/:bucket/public/*key", h.PublicURL)
}

// fail maps store errors onto HTTP statuses and records anything unexpected.
func (h *Handler) fail(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": msg})
	case errors.Is(err, database.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": msg})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}

func (h *Handler) publish(subject string, event interface{}) {
	if err := h.events.Publish(subject, event); err != nil {
		h.log.Warn("failed to publish event", zap.String("subject", subject), zap.Error(err))
	}
}
