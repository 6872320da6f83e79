package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"campustube/pkg/models"
)

const (
	MaxUploadBytes    = 20 * 1024 * 1024
	MaxVideoDuration  = 60 * time.Second
	MaxTitleLen       = 100
	MaxDescriptionLen = 500

	VideoBucket = "videos"
)

var (
	ErrFileTooLarge  = errors.New("file is larger than 20MB")
	ErrNotVideo      = errors.New("file is not a video")
	ErrTooLong       = errors.New("video is longer than 60 seconds")
	ErrNoFile        = errors.New("no video file selected")
	ErrInvalidFields = errors.New("invalid title or description")
)

// Uploader is the slice of the API the upload form needs.
type Uploader interface {
	GetUser(ctx context.Context) (string, error)
	UploadObject(ctx context.Context, bucket, key string, body io.Reader, contentType string) error
	PublicURL(ctx context.Context, bucket, key string) (string, error)
	InsertVideo(ctx context.Context, v NewVideo) (*models.Video, error)
}

// UploadForm mirrors the upload page: a selected file plus text fields.
// SelectFile runs the cheap local checks so oversized or overlong videos
// never reach the network.
type UploadForm struct {
	Title       string
	Description string
	// Tags is the comma-separated tag input.
	Tags string

	api    Uploader
	prober DurationProber
	notify Notifier
	log    *zap.Logger
	now    func() time.Time

	file     string
	mimeType string
}

func NewUploadForm(api Uploader, prober DurationProber, notify Notifier, log *zap.Logger) *UploadForm {
	if log == nil {
		log = zap.NewNop()
	}
	return &UploadForm{
		api:    api,
		prober: prober,
		notify: notify,
		log:    log,
		now:    time.Now,
	}
}

// File is the currently selected path, or "".
func (f *UploadForm) File() string {
	return f.file
}

// SelectFile validates path and stores it as the selected video. Size and
// type rejections keep the previous selection; a duration rejection clears it.
func (f *UploadForm) SelectFile(ctx context.Context, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Size() > MaxUploadBytes {
		f.notify.Error("File size must be less than 20MB")
		return ErrFileTooLarge
	}

	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(mt.String(), "video/") {
		f.notify.Error("Please upload a video file")
		return ErrNotVideo
	}

	f.file = path
	f.mimeType = mt.String()

	d, err := f.prober.Duration(ctx, path)
	if err != nil {
		// Without metadata the selection stands, as a browser would leave it.
		f.log.Warn("could not read video duration", zap.String("file", path), zap.Error(err))
		return nil
	}
	if d > MaxVideoDuration {
		f.notify.Error("Video must be 60 seconds or less")
		f.file = ""
		f.mimeType = ""
		return ErrTooLong
	}
	return nil
}

// ParseTags splits comma-separated input, trimming and dropping empties.
func ParseTags(s string) []string {
	tags := []string{}
	for _, tag := range strings.Split(s, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// objectName is <user_id>/<unix_millis>.<ext>, where ext is whatever follows
// the last dot of the file name.
func objectName(userID, path string, now time.Time) string {
	base := filepath.Base(path)
	ext := base[strings.LastIndex(base, ".")+1:]
	return fmt.Sprintf("%s/%d.%s", userID, now.UnixMilli(), ext)
}

// Submit uploads the selected file and creates its video row as pending.
func (f *UploadForm) Submit(ctx context.Context) (*models.Video, error) {
	if f.file == "" {
		f.notify.Error("Please select a video file")
		return nil, ErrNoFile
	}
	title := strings.TrimSpace(f.Title)
	if title == "" || utf8.RuneCountInString(f.Title) > MaxTitleLen ||
		utf8.RuneCountInString(f.Description) > MaxDescriptionLen {
		f.notify.Error("Title is required (max 100 characters); description max 500 characters")
		return nil, ErrInvalidFields
	}

	video, err := f.submit(ctx)
	if err != nil {
		if errors.Is(err, ErrNotSignedIn) {
			f.notify.Error("Please log in to upload videos")
		} else {
			f.log.Error("upload failed", zap.Error(err))
			f.notify.Error(uploadErrorMessage(err))
		}
		return nil, err
	}

	f.notify.Success("Video uploaded successfully! Awaiting approval.")
	return video, nil
}

func (f *UploadForm) submit(ctx context.Context) (*models.Video, error) {
	userID, err := f.api.GetUser(ctx)
	if err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, ErrNotSignedIn
	}

	file, err := os.Open(f.file)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	key := objectName(userID, f.file, f.now())
	if err := f.api.UploadObject(ctx, VideoBucket, key, file, f.mimeType); err != nil {
		return nil, err
	}
	publicURL, err := f.api.PublicURL(ctx, VideoBucket, key)
	if err != nil {
		return nil, err
	}

	return f.api.InsertVideo(ctx, NewVideo{
		Title:       f.Title,
		Description: f.Description,
		VideoURL:    publicURL,
		Tags:        ParseTags(f.Tags),
	})
}

func uploadErrorMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return "Failed to upload video"
}
