package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"campustube/pkg/auth"
	"campustube/pkg/events"
)

type LikeRequest struct {
	VideoID string `json:"video_id" binding:"required"`
}

// ListLikes returns the ids of videos the caller liked. A user_id query, if
// given, must name the caller.
func (h *Handler) ListLikes(c *gin.Context) {
	claims := auth.FromContext(c)
	if userID := c.Query("user_id"); userID != "" && userID != claims.UserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Cannot read another user's likes"})
		return
	}

	ids, err := h.store.LikedVideoIDs(claims.UserID)
	if err != nil {
		h.fail(c, err, "Failed to fetch likes")
		return
	}
	c.JSON(http.StatusOK, gin.H{"video_ids": ids})
}

func (h *Handler) CreateLike(c *gin.Context) {
	var req LikeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	claims := auth.FromContext(c)

	if err := h.store.InsertLike(claims.UserID, req.VideoID); err != nil {
		h.fail(c, err, "Failed to like video")
		return
	}
	h.publish(events.LikeCreated, events.LikeEvent{VideoID: req.VideoID, UserID: claims.UserID, CreatedAt: time.Now()})
	c.JSON(http.StatusCreated, gin.H{"user_id": claims.UserID, "video_id": req.VideoID})
}

func (h *Handler) DeleteLike(c *gin.Context) {
	videoID := c.Query("video_id")
	if videoID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "video_id is required"})
		return
	}
	claims := auth.FromContext(c)

	if err := h.store.DeleteLike(claims.UserID, videoID); err != nil {
		h.fail(c, err, "Failed to unlike video")
		return
	}
	h.publish(events.LikeDeleted, events.LikeEvent{VideoID: videoID, UserID: claims.UserID, CreatedAt: time.Now()})
	c.Status(http.StatusNoContent)
}
