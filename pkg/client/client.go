// Package client is the campustube SDK: typed calls against the API plus the
// client-side behaviour of the app (search sanitizing, optimistic likes,
// upload checks and the page views built on them).
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"sync"
	"time"

	"campustube/pkg/models"
)

var ErrNotSignedIn = errors.New("not signed in")

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

type Session struct {
	Token  string `yaml:"token" json:"token"`
	UserID string `yaml:"user_id" json:"user_id"`
}

type Client struct {
	baseURL string
	http    *http.Client

	mu      sync.RWMutex
	session Session
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithSession(s Session) Option {
	return func(c *Client) { c.session = s }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Session() Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

func (c *Client) setSession(s Session) {
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	if token := c.Session().Token; token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func (c *Client) send(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var body struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		if body.Error == "" {
			body.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: body.Error}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

type SignUpParams struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FullName    string `json:"full_name"`
	MatriculeID string `json:"matricule_id"`
}

func (c *Client) SignUp(ctx context.Context, p SignUpParams) (Session, error) {
	var s Session
	if err := c.do(ctx, http.MethodPost, "/auth/signup", nil, p, &s); err != nil {
		return Session{}, err
	}
	c.setSession(s)
	return s, nil
}

func (c *Client) SignIn(ctx context.Context, email, password string) (Session, error) {
	var s Session
	in := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, in, &s); err != nil {
		return Session{}, err
	}
	c.setSession(s)
	return s, nil
}

// SignOut revokes the token server-side; the local session is only dropped
// once the server has accepted it.
func (c *Client) SignOut(ctx context.Context) error {
	if c.Session().Token == "" {
		return nil
	}
	if err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil); err != nil {
		return err
	}
	c.setSession(Session{})
	return nil
}

// GetUser returns the authenticated user's id, or "" when signed out.
func (c *Client) GetUser(ctx context.Context) (string, error) {
	if c.Session().Token == "" {
		return "", nil
	}
	var resp struct {
		User *struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/user", nil, nil, &resp); err != nil {
		return "", err
	}
	if resp.User == nil {
		return "", nil
	}
	return resp.User.ID, nil
}

// VideoQuery filters ListVideos. Search must already be sanitized.
type VideoQuery struct {
	Status models.Status
	UserID string
	Search string
}

func (c *Client) ListVideos(ctx context.Context, q VideoQuery) ([]models.Video, error) {
	query := url.Values{}
	if q.Status != "" {
		query.Set("status", string(q.Status))
	}
	if q.UserID != "" {
		query.Set("user_id", q.UserID)
	}
	if q.Search != "" {
		query.Set("q", q.Search)
	}
	var resp struct {
		Videos []models.Video `json:"videos"`
	}
	if err := c.do(ctx, http.MethodGet, "/videos", query, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Videos, nil
}

func (c *Client) Video(ctx context.Context, id string) (*models.Video, error) {
	var video models.Video
	if err := c.do(ctx, http.MethodGet, "/videos/"+url.PathEscape(id), nil, nil, &video); err != nil {
		return nil, err
	}
	return &video, nil
}

type NewVideo struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	VideoURL     string   `json:"video_url"`
	ThumbnailURL string   `json:"thumbnail_url,omitempty"`
	Tags         []string `json:"tags"`
}

func (c *Client) InsertVideo(ctx context.Context, v NewVideo) (*models.Video, error) {
	var video models.Video
	if err := c.do(ctx, http.MethodPost, "/videos", nil, v, &video); err != nil {
		return nil, err
	}
	return &video, nil
}

func (c *Client) Profile(ctx context.Context, id string) (*models.Profile, error) {
	var profile models.Profile
	if err := c.do(ctx, http.MethodGet, "/profiles/"+url.PathEscape(id), nil, nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *Client) LikedVideoIDs(ctx context.Context, userID string) ([]string, error) {
	var resp struct {
		VideoIDs []string `json:"video_ids"`
	}
	query := url.Values{"user_id": {userID}}
	if err := c.do(ctx, http.MethodGet, "/likes", query, nil, &resp); err != nil {
		return nil, err
	}
	return resp.VideoIDs, nil
}

func (c *Client) InsertLike(ctx context.Context, videoID string) error {
	return c.do(ctx, http.MethodPost, "/likes", nil, map[string]string{"video_id": videoID}, nil)
}

func (c *Client) DeleteLike(ctx context.Context, videoID string) error {
	return c.do(ctx, http.MethodDelete, "/likes", url.Values{"video_id": {videoID}}, nil, nil)
}

// UploadObject streams body as a multipart upload to bucket/key.
func (c *Client) UploadObject(ctx context.Context, bucket, key string, body io.Reader, contentType string) error {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		h := make(textproto.MIMEHeader)
		name := key[strings.LastIndex(key, "/")+1:]
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, name))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		h.Set("Content-Type", contentType)

		part, err := mw.CreatePart(h)
		if err == nil {
			_, err = io.Copy(part, body)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := c.newRequest(ctx, http.MethodPost, "/storage/"+url.PathEscape(bucket)+"/"+key, nil, pr)
	if err != nil {
		pr.Close()
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	err = c.send(req, nil)
	pr.Close()
	return err
}

func (c *Client) PublicURL(ctx context.Context, bucket, key string) (string, error) {
	var resp struct {
		PublicURL string `json:"public_url"`
	}
	path := "/storage/" + url.PathEscape(bucket) + "/public/" + key
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &resp); err != nil {
		return "", err
	}
	return resp.PublicURL, nil
}
