package endpoints

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/marquee/internal/auth"
	"github.com/Nixie-Tech-LLC/marquee/internal/db"
	"github.com/Nixie-Tech-LLC/marquee/internal/db/memory"
	"github.com/Nixie-Tech-LLC/marquee/internal/http/api"
	"github.com/Nixie-Tech-LLC/marquee/internal/http/api/control/packets"
	"github.com/Nixie-Tech-LLC/marquee/internal/model"
	"github.com/Nixie-Tech-LLC/marquee/internal/mqtt"
	"github.com/Nixie-Tech-LLC/marquee/internal/redis"
	"github.com/Nixie-Tech-LLC/marquee/internal/storage"
	"github.com/Nixie-Tech-LLC/marquee/internal/telemetry"
)

type harness struct {
	t          *testing.T
	router     *gin.Engine
	store      db.Store
	uploadDir  string
	userToken  string
	adminToken string
	user       *model.User
	redis      *miniredis.Miniredis
}

type harnessOptions struct {
	cache    bool
	notifier *mqtt.Notifier
	wrap     func(db.Store) db.Store
}

type harnessOption func(*harnessOptions)

// withCache backs the campaign cache with an in-process Redis.
func withCache() harnessOption { return func(o *harnessOptions) { o.cache = true } }

func withNotifier(n *mqtt.Notifier) harnessOption {
	return func(o *harnessOptions) { o.notifier = n }
}

// withStore lets a test intercept store calls made by the handlers.
func withStore(wrap func(db.Store) db.Store) harnessOption {
	return func(o *harnessOptions) { o.wrap = wrap }
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, packets.RegisterValidators())

	var o harnessOptions
	for _, opt := range opts {
		opt(&o)
	}

	var store db.Store = memory.NewStore()
	if o.wrap != nil {
		store = o.wrap(store)
	}
	issuer := auth.NewIssuer("test-secret", time.Hour)
	admin := &model.User{Username: "admin", Email: "admin@example.com", Role: model.RoleAdmin}
	user := &model.User{Username: "operator", Email: "operator@example.com"}
	require.NoError(t, store.CreateUser(t.Context(), admin))
	require.NoError(t, store.CreateUser(t.Context(), user))
	adminToken, err := issuer.GenerateToken(admin)
	require.NoError(t, err)
	userToken, err := issuer.GenerateToken(user)
	require.NoError(t, err)

	var (
		mr    *miniredis.Miniredis
		cache *redis.CampaignCache
	)
	if o.cache {
		mr = miniredis.RunT(t)
		cache = redis.NewCampaignCache(redis.NewClient(mr.Addr(), "", ""), time.Minute)
	}

	uploadDir := t.TempDir()
	recorder := telemetry.NewRecorder(store)

	r := gin.New()
	api.MountGroup(r, api.GroupConfig{Prefix: "/api", Issuer: issuer, Users: store},
		DeviceModule(store, recorder, o.notifier, cache),
		ContentModule(store, storage.NewLocalStorage(uploadDir), 1<<20, o.notifier, cache),
		CampaignModule(store, o.notifier, cache),
		UserModule(store),
		LogModule(store, recorder),
	)

	return &harness{
		t:          t,
		router:     r,
		store:      store,
		uploadDir:  uploadDir,
		userToken:  userToken,
		adminToken: adminToken,
		user:       user,
		redis:      mr,
	}
}

func (h *harness) do(method, path, token string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(h.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func (h *harness) upload(path, filename, contentType string, data []byte, fields map[string]string) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(h.t, mw.WriteField(k, v))
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	require.NoError(h.t, err)
	_, err = part.Write(data)
	require.NoError(h.t, err)
	require.NoError(h.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+h.userToken)
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (h *harness) createDevice(deviceID string) model.Device {
	h.t.Helper()
	w := h.do(http.MethodPost, "/api/devices", h.userToken, gin.H{"deviceId": deviceID, "name": "Display " + deviceID, "location": "Lobby"})
	require.Equal(h.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[model.Device](h.t, w)
}

func (h *harness) createContent(title string) model.Content {
	h.t.Helper()
	w := h.do(http.MethodPost, "/api/content", h.userToken, gin.H{"title": title, "type": "url", "url": "https://example.com/" + title})
	require.Equal(h.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[model.Content](h.t, w)
}

var (
	pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")
	pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n")
)

func TestDeviceEndpoints(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodPost, "/api/devices", "", gin.H{"deviceId": "disp-1", "name": "Lobby"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	d := h.createDevice("disp-1")
	assert.Equal(t, model.DeviceOffline, d.Status)
	assert.Equal(t, model.Landscape, d.Orientation)

	w = h.do(http.MethodPost, "/api/devices", h.userToken, gin.H{"deviceId": "disp-1", "name": "Again"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "already exists")

	w = h.do(http.MethodPost, "/api/devices", h.userToken, gin.H{"deviceId": "disp-2", "name": "Bad", "orientation": "sideways"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodGet, "/api/devices/by-device-id/disp-1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, d.ID, decode[model.Device](t, w).ID)

	w = h.do(http.MethodPut, fmt.Sprintf("/api/devices/%d", d.ID), h.userToken, gin.H{"name": "Main lobby"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[model.Device](t, w)
	assert.Equal(t, "Main lobby", updated.Name)
	assert.Equal(t, "Lobby", updated.Location)

	w = h.do(http.MethodPut, fmt.Sprintf("/api/devices/%d", d.ID), h.userToken, gin.H{"deviceId": "disp-9"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodPut, "/api/devices/status/disp-1", h.userToken, gin.H{"status": "online"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	online := decode[model.Device](t, w)
	assert.Equal(t, model.DeviceOnline, online.Status)
	assert.NotNil(t, online.LastSeen)

	w = h.do(http.MethodGet, "/api/devices?status=online", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.Device](t, w), 1)
	w = h.do(http.MethodGet, "/api/devices?status=asleep", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodDelete, fmt.Sprintf("/api/devices/%d", d.ID), h.userToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = h.do(http.MethodGet, fmt.Sprintf("/api/devices/%d", d.ID), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = h.do(http.MethodGet, "/api/devices/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateCampaignRejectsUnknownTarget(t *testing.T) {
	h := newHarness(t)
	h.createDevice("disp-1")

	w := h.do(http.MethodPost, "/api/campaigns", h.userToken, gin.H{
		"name":          "Summer",
		"status":        "active",
		"startDate":     "2025-06-01",
		"endDate":       "2025-06-30",
		"targetDevices": []string{"disp-1", "ghost"},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, "ghost", body["deviceId"])

	campaigns, err := h.store.ListCampaigns(t.Context(), db.CampaignFilter{})
	require.NoError(t, err)
	assert.Empty(t, campaigns)

	w = h.do(http.MethodPost, "/api/campaigns", h.userToken, gin.H{
		"name": "Broken", "startDate": "2025-06-01", "endDate": "2025-06-30", "contentIds": []int{42},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCampaignWindowValidation(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodPost, "/api/campaigns", h.userToken, gin.H{
		"name": "Backwards", "startDate": "2025-06-30", "endDate": "2025-06-01",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodPost, "/api/campaigns", h.userToken, gin.H{
		"name": "Bad date", "startDate": "June 1st", "endDate": "2025-06-01",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodPost, "/api/campaigns", h.userToken, gin.H{
		"name": "June", "startDate": "2025-06-01", "endDate": "2025-06-30T23:59:59Z",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	c := decode[model.Campaign](t, w)
	assert.Equal(t, model.CampaignDraft, c.Status)

	// only endDate sent, checked against the stored startDate
	w = h.do(http.MethodPut, fmt.Sprintf("/api/campaigns/%d", c.ID), h.userToken, gin.H{"endDate": "2025-05-01"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateCampaignNameOnly(t *testing.T) {
	h := newHarness(t)
	h.createDevice("disp-1")
	content := h.createContent("banner")

	w := h.do(http.MethodPost, "/api/campaigns", h.userToken, gin.H{
		"name":          "Summer",
		"description":   "Seasonal",
		"status":        "active",
		"startDate":     "2025-06-01",
		"endDate":       "2025-06-30",
		"targetDevices": []string{"disp-1"},
		"contentIds":    []int{content.ID},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[model.Campaign](t, w)

	w = h.do(http.MethodPut, fmt.Sprintf("/api/campaigns/%d", created.ID), h.userToken, gin.H{"name": "Summer Sale"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[model.Campaign](t, w)

	assert.Equal(t, "Summer Sale", updated.Name)
	assert.Equal(t, created.Description, updated.Description)
	assert.Equal(t, created.Status, updated.Status)
	assert.True(t, created.StartDate.Equal(updated.StartDate))
	assert.True(t, created.EndDate.Equal(updated.EndDate))
	assert.Equal(t, []string{"disp-1"}, updated.TargetDevices)
	assert.Equal(t, []int{content.ID}, updated.ContentIDs)

	w = h.do(http.MethodPut, fmt.Sprintf("/api/campaigns/%d", created.ID), h.userToken, gin.H{"targetDevices": []string{"ghost"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodPut, fmt.Sprintf("/api/campaigns/%d", created.ID), h.userToken, gin.H{"targetDevices": []string{}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[model.Campaign](t, w).TargetDevices)

	w = h.do(http.MethodGet, fmt.Sprintf("/api/campaigns/%d", created.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[model.Campaign](t, w)
	require.Len(t, got.Contents, 1)
	assert.Equal(t, "banner", got.Contents[0].Title)
}

func TestCampaignsForDevice(t *testing.T) {
	h := newHarness(t)
	h.createDevice("disp-1")
	h.createDevice("disp-2")
	content := h.createContent("promo")
	now := time.Now().UTC()

	for _, c := range []gin.H{
		{"name": "Now", "status": "active", "targetDevices": []string{"disp-1"}, "contentIds": []int{content.ID},
			"startDate": now.Add(-time.Hour).Format(time.RFC3339), "endDate": now.Add(time.Hour).Format(time.RFC3339)},
		{"name": "Later", "status": "active", "targetDevices": []string{"disp-1"},
			"startDate": now.Add(24 * time.Hour).Format(time.RFC3339), "endDate": now.Add(48 * time.Hour).Format(time.RFC3339)},
		{"name": "Paused", "status": "paused", "targetDevices": []string{"disp-1"},
			"startDate": now.Add(-time.Hour).Format(time.RFC3339), "endDate": now.Add(time.Hour).Format(time.RFC3339)},
	} {
		w := h.do(http.MethodPost, "/api/campaigns", h.userToken, c)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := h.do(http.MethodGet, "/api/campaigns/device/disp-1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[[]model.Campaign](t, w)
	require.Len(t, got, 1)
	assert.Equal(t, "Now", got[0].Name)
	require.Len(t, got[0].Contents, 1)
	assert.Equal(t, "promo", got[0].Contents[0].Title)

	etag := w.Header().Get("ETag")
	require.NotEmpty(t, etag)
	req := httptest.NewRequest(http.MethodGet, "/api/campaigns/device/disp-1", nil)
	req.Header.Set("If-None-Match", etag)
	notModified := httptest.NewRecorder()
	h.router.ServeHTTP(notModified, req)
	assert.Equal(t, http.StatusNotModified, notModified.Code)
	assert.Empty(t, notModified.Body.String())

	w = h.do(http.MethodGet, "/api/campaigns/device/disp-2", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]model.Campaign](t, w))

	w = h.do(http.MethodGet, "/api/campaigns/device/ghost", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = h.do(http.MethodGet, "/api/campaigns?deviceId=disp-1&status=active", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.Campaign](t, w), 2)
	w = h.do(http.MethodGet, fmt.Sprintf("/api/campaigns?contentId=%d", content.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.Campaign](t, w), 1)
}

func TestDeleteReferencedContent(t *testing.T) {
	h := newHarness(t)
	content := h.createContent("banner")

	w := h.do(http.MethodPost, "/api/campaigns", h.userToken, gin.H{
		"name": "Summer", "startDate": "2025-06-01", "endDate": "2025-06-30", "contentIds": []int{content.ID},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	campaign := decode[model.Campaign](t, w)

	w = h.do(http.MethodDelete, fmt.Sprintf("/api/content/%d", content.ID), h.userToken, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, []any{"Summer"}, body["campaigns"])

	_, err := h.store.GetContentByID(t.Context(), content.ID)
	require.NoError(t, err)

	w = h.do(http.MethodDelete, fmt.Sprintf("/api/campaigns/%d", campaign.ID), h.userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = h.do(http.MethodDelete, fmt.Sprintf("/api/content/%d", content.ID), h.userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = h.do(http.MethodGet, fmt.Sprintf("/api/content/%d", content.ID), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestContentUpload(t *testing.T) {
	h := newHarness(t)

	w := h.upload("/api/content", "menu.pdf", "application/pdf", pdfBytes, map[string]string{"title": "Menu"})
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	all, err := h.store.ListContent(t.Context(), db.ContentFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)

	w = h.upload("/api/content", "Logo.PNG", "image/png", pngBytes, map[string]string{"title": "Logo", "duration": "15"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	content := decode[model.Content](t, w)
	assert.Equal(t, model.ContentImage, content.Type)
	assert.Equal(t, 15, content.Duration)
	assert.Equal(t, h.user.ID, content.CreatedBy)
	require.True(t, strings.HasPrefix(content.URL, storage.PublicPrefix))
	assert.True(t, strings.HasSuffix(content.URL, ".PNG"), content.URL)

	stored := filepath.Join(h.uploadDir, strings.TrimPrefix(content.URL, storage.PublicPrefix))
	_, err = os.Stat(stored)
	require.NoError(t, err)

	w = h.do(http.MethodDelete, fmt.Sprintf("/api/content/%d", content.ID), h.userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	_, err = os.Stat(stored)
	assert.True(t, os.IsNotExist(err))

	w = h.do(http.MethodPost, "/api/content", h.userToken, gin.H{"title": "No source"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUserEndpointsRequireAdmin(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, http.StatusForbidden, h.do(http.MethodGet, "/api/users", h.userToken, nil).Code)
	w := h.do(http.MethodGet, "/api/users", h.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.User](t, w), 2)
	assert.NotContains(t, w.Body.String(), "hashed")

	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, fmt.Sprintf("/api/users/%d", h.user.ID), h.userToken, nil).Code)
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodGet, "/api/users/1", h.userToken, nil).Code)

	w = h.do(http.MethodPost, "/api/users", h.adminToken, gin.H{"username": "second", "email": "second@example.com", "password": "secret1", "role": "admin"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	second := decode[model.User](t, w)
	assert.Equal(t, model.RoleAdmin, second.Role)

	w = h.do(http.MethodPost, "/api/users", h.adminToken, gin.H{"username": "third", "email": "second@example.com", "password": "secret1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodPut, fmt.Sprintf("/api/users/%d", second.ID), h.adminToken, gin.H{"role": "user"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.RoleUser, decode[model.User](t, w).Role)
	assert.Equal(t, "second@example.com", decode[model.User](t, w).Email)

	assert.Equal(t, http.StatusOK, h.do(http.MethodDelete, fmt.Sprintf("/api/users/%d", second.ID), h.adminToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodDelete, fmt.Sprintf("/api/users/%d", second.ID), h.adminToken, nil).Code)
}

func TestLogEndpoints(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/api/logs", "", nil).Code)

	w := h.do(http.MethodPost, "/api/logs", h.userToken, gin.H{"level": "warn", "message": "screen flicker", "deviceId": "disp-1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = h.do(http.MethodPost, "/api/logs", h.userToken, gin.H{"message": "heartbeat"})
	require.Equal(t, http.StatusCreated, w.Code)
	w = h.do(http.MethodPost, "/api/logs", h.userToken, gin.H{"level": "fatal", "message": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodGet, "/api/logs?level=warn", h.userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	logs := decode[[]model.Log](t, w)
	require.Len(t, logs, 1)
	assert.Equal(t, "screen flicker", logs[0].Message)

	w = h.do(http.MethodGet, "/api/logs?limit=1", h.userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	logs = decode[[]model.Log](t, w)
	require.Len(t, logs, 1)
	assert.Equal(t, "heartbeat", logs[0].Message)
}
