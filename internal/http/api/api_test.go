package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/marquee/internal/db"
	"github.com/Nixie-Tech-LLC/marquee/internal/model"
	"github.com/Nixie-Tech-LLC/marquee/internal/targeting"
	"github.com/Nixie-Tech-LLC/marquee/internal/telemetry"
)

func TestFromError(t *testing.T) {
	cases := []struct {
		name  string
		err   error
		code  int
		extra gin.H
	}{
		{"unknown device", &targeting.InvalidReferenceError{DeviceID: "ghost"}, http.StatusBadRequest, gin.H{"deviceId": "ghost"}},
		{"unknown content", fmt.Errorf("wrap: %w", &targeting.InvalidContentError{ContentID: 7}), http.StatusBadRequest, gin.H{"contentId": 7}},
		{"content in use", &targeting.ContentInUseError{CampaignNames: []string{"June"}}, http.StatusBadRequest, gin.H{"campaigns": []string{"June"}}},
		{"bad status", telemetry.ErrInvalidStatus, http.StatusBadRequest, nil},
		{"duplicate", db.ErrDuplicateKey, http.StatusBadRequest, nil},
		{"missing row", fmt.Errorf("get device: %w", db.ErrNotFound), http.StatusNotFound, nil},
		{"missing device", targeting.ErrDeviceNotFound, http.StatusNotFound, nil},
		{"anything else", errors.New("connection reset"), http.StatusInternalServerError, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			apiErr := FromError(tc.err, "save thing")
			assert.Equal(t, tc.code, apiErr.Code)
			assert.Equal(t, tc.extra, apiErr.Extra)
		})
	}

	assert.Equal(t, "could not save thing", FromError(errors.New("boom"), "save thing").Message)
}

func TestResolveEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/plain", ResolveEndpoint(func(*gin.Context) (any, *APIError) {
		return gin.H{"ok": true}, nil
	}))
	r.POST("/created", ResolveEndpoint(func(*gin.Context) (any, *APIError) {
		return Created(gin.H{"id": 1}), nil
	}))
	r.GET("/cached", ResolveEndpoint(func(*gin.Context) (any, *APIError) {
		return Response{Code: http.StatusNotModified, Header: map[string]string{"ETag": `"abc"`}}, nil
	}))
	r.GET("/fail", ResolveEndpoint(func(*gin.Context) (any, *APIError) {
		return nil, FromError(&targeting.InvalidReferenceError{DeviceID: "ghost"}, "create campaign")
	}))
	r.GET("/me", ResolveEndpointWithAuth(func(*gin.Context, *model.User) (any, *APIError) {
		return nil, nil
	}))

	serve := func(method, path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
		return w
	}

	w := serve(http.MethodGet, "/plain")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())

	w = serve(http.MethodPost, "/created")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"id":1}`, w.Body.String())

	w = serve(http.MethodGet, "/cached")
	assert.Equal(t, http.StatusNotModified, w.Code)
	assert.Equal(t, `"abc"`, w.Header().Get("ETag"))
	assert.Empty(t, w.Body.String())

	w = serve(http.MethodGet, "/fail")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ghost", body["deviceId"])
	assert.Contains(t, body["error"], "ghost")

	w = serve(http.MethodGet, "/me")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
