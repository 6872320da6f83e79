package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"campustube/pkg/auth"
	"campustube/pkg/database"
	"campustube/pkg/events"
	"campustube/pkg/models"
	"campustube/pkg/search"
)

type CreateVideoRequest struct {
	Title        string   `json:"title" binding:"required,max=100"`
	Description  string   `json:"description" binding:"max=500"`
	VideoURL     string   `json:"video_url" binding:"required"`
	ThumbnailURL string   `json:"thumbnail_url"`
	Tags         []string `json:"tags"`
}

type StatusRequest struct {
	Status models.Status `json:"status" binding:"required"`
}

// ListVideos supports status, user_id and q (an escaped search fragment).
// Non-published videos are only listed for their owner.
func (h *Handler) ListVideos(c *gin.Context) {
	filter := database.VideoFilter{
		Status: models.Status(c.Query("status")),
		UserID: c.Query("user_id"),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	claims := auth.FromContext(c)
	ownList := claims != nil && filter.UserID == claims.UserID
	if filter.Status != models.StatusPublished && !ownList {
		filter.Status = models.StatusPublished
	}

	if q := c.Query("q"); q != "" {
		pattern, err := search.Pattern(q)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid search query"})
			return
		}
		filter.Pattern = pattern
	}

	videos, err := h.store.ListVideos(filter)
	if err != nil {
		h.fail(c, err, "Failed to fetch videos")
		return
	}
	c.JSON(http.StatusOK, gin.H{"videos": videos})
}

// GetVideo hides unpublished videos from everyone but their owner.
func (h *Handler) GetVideo(c *gin.Context) {
	video, err := h.store.Video(c.Param("id"))
	if err != nil {
		h.fail(c, err, "Video not found")
		return
	}
	if claims := auth.FromContext(c); video.Status != models.StatusPublished &&
		(claims == nil || claims.UserID != video.UserID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Video not found"})
		return
	}
	c.JSON(http.StatusOK, video)
}

func (h *Handler) CreateVideo(c *gin.Context) {
	var req CreateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	claims := auth.FromContext(c)

	tags := models.Tags{}
	for _, tag := range req.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}

	video := &models.Video{
		ID:           uuid.NewString(),
		UserID:       claims.UserID,
		Title:        req.Title,
		Description:  req.Description,
		VideoURL:     req.VideoURL,
		ThumbnailURL: req.ThumbnailURL,
		Status:       models.StatusPending,
		Tags:         tags,
	}
	if err := h.store.CreateVideo(video); err != nil {
		h.fail(c, err, "Failed to save video information to the database")
		return
	}

	h.log.Info("video created", zap.String("video_id", video.ID), zap.String("user_id", video.UserID))
	h.publish(events.VideoUploaded, events.VideoUploadedEvent{
		VideoID:   video.ID,
		UserID:    video.UserID,
		Title:     video.Title,
		CreatedAt: video.CreatedAt,
	})
	c.JSON(http.StatusCreated, video)
}

// SetVideoStatus is the moderation hook; only configured moderators may call it.
func (h *Handler) SetVideoStatus(c *gin.Context) {
	claims := auth.FromContext(c)
	if !h.moderators[strings.ToLower(claims.Email)] {
		c.JSON(http.StatusForbidden, gin.H{"error": "Moderator access required"})
		return
	}

	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil || !req.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	if err := h.store.SetVideoStatus(c.Param("id"), req.Status); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			h.fail(c, err, "Video not found")
			return
		}
		h.fail(c, err, "Failed to update video status")
		return
	}
	h.log.Info("video moderated",
		zap.String("video_id", c.Param("id")),
		zap.String("status", string(req.Status)),
		zap.String("moderator", claims.Email),
		zap.Time("at", time.Now()))
	c.JSON(http.StatusOK, gin.H{"status": req.Status})
}
