package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campustube/pkg/auth"
	"campustube/pkg/database"
	"campustube/pkg/events"
	"campustube/pkg/models"
)

type memObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (m *memObjects) Upload(_ context.Context, key string, body io.Reader, _ string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memObjects) PublicURL(key string) string {
	return "https://cdn.test/" + key
}

type recordedEvent struct {
	subject string
	event   interface{}
}

type recorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recorder) Publish(subject string, event interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{subject, event})
	return nil
}

func (r *recorder) Close() {}

func (r *recorder) subjects() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.subject
	}
	return out
}

type testServer struct {
	t       *testing.T
	router  *gin.Engine
	store   *database.Store
	objects *memObjects
	events  *recorder
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Init("sqlite3", filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ts := &testServer{
		t:       t,
		router:  gin.New(),
		store:   database.NewStore(db),
		objects: &memObjects{objects: map[string][]byte{}},
		events:  &recorder{},
	}
	h := New(Options{
		Store:           ts.store,
		Objects:         ts.objects,
		Tokens:          auth.NewTokens("secret", time.Hour, auth.NewDBDenylist(db)),
		Events:          ts.events,
		ModeratorEmails: []string{"Mod@iuget.cm"},
		MaxUploadBytes:  1 << 20,
	})
	h.Register(ts.router)
	return ts
}

func (ts *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	ts.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(ts.t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testServer) signUp(email string) SessionResponse {
	ts.t.Helper()
	w := ts.do(http.MethodPost, "/auth/signup", "", gin.H{
		"email": email, "password": "secret1", "full_name": "Student " + email, "matricule_id": "IUG-" + email,
	})
	require.Equal(ts.t, http.StatusCreated, w.Code, w.Body.String())
	var s SessionResponse
	require.NoError(ts.t, json.Unmarshal(w.Body.Bytes(), &s))
	return s
}

func (ts *testServer) createVideo(token, title string) models.Video {
	ts.t.Helper()
	w := ts.do(http.MethodPost, "/videos", token, gin.H{
		"title": title, "description": "desc", "video_url": "https://cdn.test/x.mp4", "tags": []string{" campus ", "", "music"},
	})
	require.Equal(ts.t, http.StatusCreated, w.Code, w.Body.String())
	var v models.Video
	require.NoError(ts.t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func decodeVideos(t *testing.T, w *httptest.ResponseRecorder) []models.Video {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Videos []models.Video `json:"videos"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Videos
}

func TestAuthFlow(t *testing.T) {
	ts := newTestServer(t)
	s := ts.signUp("ada@iuget.cm")

	w := ts.do(http.MethodPost, "/auth/signup", "", gin.H{"email": "ADA@iuget.cm", "password": "secret1", "matricule_id": "x"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = ts.do(http.MethodPost, "/auth/login", "", gin.H{"email": "ada@iuget.cm", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(http.MethodPost, "/auth/login", "", gin.H{"email": "ada@iuget.cm", "password": "secret1"})
	require.Equal(t, http.StatusOK, w.Code)
	var login SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	assert.Equal(t, s.UserID, login.UserID)

	w = ts.do(http.MethodGet, "/auth/user", login.Token, nil)
	assert.JSONEq(t, `{"user": {"id": "`+s.UserID+`", "email": "ada@iuget.cm"}}`, w.Body.String())

	w = ts.do(http.MethodGet, "/auth/user", "", nil)
	assert.JSONEq(t, `{"user": null}`, w.Body.String())

	w = ts.do(http.MethodGet, "/profiles/"+s.UserID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"matricule_id":"IUG-ada@iuget.cm"`)

	w = ts.do(http.MethodPost, "/auth/logout", login.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(http.MethodPost, "/auth/logout", login.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(http.MethodGet, "/auth/user", login.Token, nil)
	assert.JSONEq(t, `{"user": null}`, w.Body.String())
}

func TestVideos_ModerationAndVisibility(t *testing.T) {
	ts := newTestServer(t)
	owner := ts.signUp("ada@iuget.cm")
	other := ts.signUp("bob@iuget.cm")
	mod := ts.signUp("mod@iuget.cm")

	v := ts.createVideo(owner.Token, "Campus tour")
	assert.Equal(t, models.StatusPending, v.Status)
	assert.Equal(t, models.Tags{"campus", "music"}, v.Tags)
	assert.Equal(t, []string{events.VideoUploaded}, ts.events.subjects())

	assert.Empty(t, decodeVideos(t, ts.do(http.MethodGet, "/videos?status=published", "", nil)))

	own := decodeVideos(t, ts.do(http.MethodGet, "/videos?user_id="+owner.UserID, owner.Token, nil))
	require.Len(t, own, 1)
	assert.Equal(t, v.ID, own[0].ID)

	// Someone else asking for the owner's list only sees published videos.
	assert.Empty(t, decodeVideos(t, ts.do(http.MethodGet, "/videos?user_id="+owner.UserID, other.Token, nil)))

	w := ts.do(http.MethodGet, "/videos/"+v.ID, other.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = ts.do(http.MethodGet, "/videos/"+v.ID, owner.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.do(http.MethodPatch, "/videos/"+v.ID+"/status", other.Token, gin.H{"status": "published"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = ts.do(http.MethodPatch, "/videos/"+v.ID+"/status", mod.Token, gin.H{"status": "archived"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(http.MethodPatch, "/videos/missing/status", mod.Token, gin.H{"status": "published"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(http.MethodPatch, "/videos/"+v.ID+"/status", mod.Token, gin.H{"status": "published"})
	require.Equal(t, http.StatusOK, w.Code)

	feed := decodeVideos(t, ts.do(http.MethodGet, "/videos?status=published", "", nil))
	require.Len(t, feed, 1)
	require.NotNil(t, feed[0].Profile)
	assert.Equal(t, "Student ada@iuget.cm", feed[0].Profile.FullName)

	w = ts.do(http.MethodGet, "/videos/"+v.ID, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestVideos_Search(t *testing.T) {
	ts := newTestServer(t)
	owner := ts.signUp("ada@iuget.cm")
	mod := ts.signUp("mod@iuget.cm")

	for _, title := range []string{"50% off_test", "500 offXtest", "don't stop"} {
		v := ts.createVideo(owner.Token, title)
		w := ts.do(http.MethodPatch, "/videos/"+v.ID+"/status", mod.Token, gin.H{"status": "published"})
		require.Equal(t, http.StatusOK, w.Code)
	}

	q := url.Values{"q": {`50\% off\_test`}}
	found := decodeVideos(t, ts.do(http.MethodGet, "/videos?"+q.Encode(), "", nil))
	require.Len(t, found, 1)
	assert.Equal(t, "50% off_test", found[0].Title)

	q = url.Values{"q": {`don''t`}}
	found = decodeVideos(t, ts.do(http.MethodGet, "/videos?"+q.Encode(), "", nil))
	require.Len(t, found, 1)
	assert.Equal(t, "don't stop", found[0].Title)

	q = url.Values{"q": {`oops\`}}
	w := ts.do(http.MethodGet, "/videos?"+q.Encode(), "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLikes(t *testing.T) {
	ts := newTestServer(t)
	user := ts.signUp("ada@iuget.cm")
	other := ts.signUp("bob@iuget.cm")
	v := ts.createVideo(user.Token, "clip")

	w := ts.do(http.MethodPost, "/likes", "", gin.H{"video_id": v.ID})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(http.MethodPost, "/likes", user.Token, gin.H{"video_id": v.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = ts.do(http.MethodPost, "/likes", user.Token, gin.H{"video_id": v.ID})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = ts.do(http.MethodPost, "/likes", user.Token, gin.H{"video_id": "missing"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(http.MethodGet, "/likes?user_id="+user.UserID, user.Token, nil)
	assert.JSONEq(t, `{"video_ids": ["`+v.ID+`"]}`, w.Body.String())

	w = ts.do(http.MethodGet, "/likes?user_id="+user.UserID, other.Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	got, err := ts.store.Video(v.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.LikesCount)

	w = ts.do(http.MethodDelete, "/likes?video_id="+v.ID, user.Token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = ts.do(http.MethodDelete, "/likes?video_id="+v.ID, user.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	got, err = ts.store.Video(v.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.LikesCount)

	assert.Equal(t, []string{events.VideoUploaded, events.LikeCreated, events.LikeDeleted}, ts.events.subjects())
}

func TestLikes_UnpublishedVideo(t *testing.T) {
	ts := newTestServer(t)
	owner := ts.signUp("ada@iuget.cm")
	other := ts.signUp("bob@iuget.cm")
	v := ts.createVideo(owner.Token, "draft")

	w := ts.do(http.MethodGet, "/videos/"+v.ID, other.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(http.MethodPost, "/likes", other.Token, gin.H{"video_id": v.ID})
	assert.Equal(t, http.StatusNotFound, w.Code)

	got, err := ts.store.Video(v.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.LikesCount)
	assert.Equal(t, []string{events.VideoUploaded}, ts.events.subjects())

	mod := ts.signUp("mod@iuget.cm")
	w = ts.do(http.MethodPatch, "/videos/"+v.ID+"/status", mod.Token, gin.H{"status": "published"})
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(http.MethodPost, "/likes", other.Token, gin.H{"video_id": v.ID})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func multipartBody(t *testing.T, size int) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "clip.mp4")
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte{0x1}, size))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestStorage(t *testing.T) {
	ts := newTestServer(t)
	user := ts.signUp("ada@iuget.cm")

	upload := func(path string, size int) *httptest.ResponseRecorder {
		body, contentType := multipartBody(t, size)
		req := httptest.NewRequest(http.MethodPost, path, body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", "Bearer "+user.Token)
		w := httptest.NewRecorder()
		ts.router.ServeHTTP(w, req)
		return w
	}

	w := upload("/storage/videos/"+user.UserID+"/1700000000000.mp4", 1024)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	key := "videos/" + user.UserID + "/1700000000000.mp4"
	assert.Len(t, ts.objects.objects[key], 1024)
	assert.Contains(t, w.Body.String(), "https://cdn.test/"+key)

	w = upload("/storage/videos/someone-else/1.mp4", 10)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = upload("/storage/videos/"+user.UserID+"/../x.mp4", 10)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = upload("/storage/videos/"+user.UserID+"/big.mp4", 2<<20)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = ts.do(http.MethodGet, "/storage/videos/public/"+user.UserID+"/1700000000000.mp4", "", nil)
	assert.JSONEq(t, `{"public_url": "https://cdn.test/`+key+`"}`, w.Body.String())
}

func TestObjectKey(t *testing.T) {
	key, ok := objectKey("videos", "/u1/a.mp4")
	assert.True(t, ok)
	assert.Equal(t, "videos/u1/a.mp4", key)

	for _, bad := range []string{"", "/", "/../a", "/u1/../../a", "/u1//a"} {
		_, ok := objectKey("videos", bad)
		assert.False(t, ok, bad)
	}
	_, ok = objectKey("a/b", "/x")
	assert.False(t, ok)
}
