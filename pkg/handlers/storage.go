package handlers

import (
	"errors"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"campustube/pkg/auth"
)

// objectKey joins bucket and key, refusing keys that climb out of the bucket.
func objectKey(bucket, key string) (string, bool) {
	key = strings.TrimPrefix(key, "/")
	if bucket == "" || key == "" || strings.Contains(bucket, "/") {
		return "", false
	}
	clean := path.Clean(key)
	if clean != key || strings.HasPrefix(clean, "..") {
		return "", false
	}
	return bucket + "/" + clean, true
}

// UploadObject stores the multipart "file" field. Callers may only write
// under their own user id, matching the <user_id>/<name> layout clients use.
func (h *Handler) UploadObject(c *gin.Context) {
	claims := auth.FromContext(c)
	key, ok := objectKey(c.Param("bucket"), c.Param("key"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid object key"})
		return
	}
	if !strings.HasPrefix(strings.TrimPrefix(c.Param("key"), "/"), claims.UserID+"/") {
		c.JSON(http.StatusForbidden, gin.H{"error": "Objects must be stored under your user id"})
		return
	}

	if h.maxUpload > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
	}
	file, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "File not found in form data"})
		return
	}

	src, err := file.Open()
	if err != nil {
		h.fail(c, err, "Failed to open uploaded file")
		return
	}
	defer src.Close()

	if err := h.objects.Upload(c.Request.Context(), key, src, file.Header.Get("Content-Type")); err != nil {
		h.fail(c, err, "Failed to upload file")
		return
	}

	h.log.Info("object uploaded", zap.String("key", key), zap.Int64("size", file.Size))
	c.JSON(http.StatusOK, gin.H{"key": key, "public_url": h.objects.PublicURL(key)})
}

func (h *Handler) PublicURL(c *gin.Context) {
	key, ok := objectKey(c.Param("bucket"), c.Param("key"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid object key"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"public_url": h.objects.PublicURL(key)})
}
