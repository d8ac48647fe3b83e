package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vulntor/stackscan/pkg/server/jobs"
)

func TestBatchDetectHandler(t *testing.T) {
	det := &mockDetector{}
	mgr := jobs.NewMemoryManager(det, 2)
	require.NoError(t, mgr.Start(context.Background()))
	defer func() { _ = mgr.Stop(context.Background()) }()

	deps := newDeps(det)
	deps.Jobs = mgr

	body := strings.NewReader(`{"urls":["https://a.example","https://b.example"],"timeout":2}`)
	w := httptest.NewRecorder()
	BatchDetectHandler(deps).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/detect/batch", body))

	require.Equal(t, http.StatusOK, w.Code)
	var resp BatchResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Equal(t, 2, resp.Succeeded)
	require.Equal(t, 0, resp.Failed)
	require.Equal(t, "https://a.example", resp.Results[0].URL)
	require.Equal(t, "https://b.example", resp.Results[1].URL)
	require.Contains(t, resp.Results[1].Technologies, "WordPress")
}

func TestBatchDetectHandler_PartialFailure(t *testing.T) {
	det := &mockDetector{}
	mgr := jobs.NewMemoryManager(det, 1)
	require.NoError(t, mgr.Start(context.Background()))
	defer func() { _ = mgr.Stop(context.Background()) }()

	deps := newDeps(det)
	deps.Jobs = mgr

	body := strings.NewReader(`{"urls":["https://a.example","  "]}`)
	w := httptest.NewRecorder()
	BatchDetectHandler(deps).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/detect/batch", body))

	require.Equal(t, http.StatusOK, w.Code)
	var resp BatchResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Equal(t, 1, resp.Succeeded)
	require.Equal(t, 1, resp.Failed)
	require.NotNil(t, resp.Results[1].Error)
	require.Equal(t, "URL_REQUIRED", resp.Results[1].Error.Code)
	require.Nil(t, resp.Results[1].Technologies)
}

func TestBatchDetectHandler_Disabled(t *testing.T) {
	w := httptest.NewRecorder()
	BatchDetectHandler(newDeps(&mockDetector{})).ServeHTTP(w,
		httptest.NewRequest(http.MethodPost, "/api/v1/detect/batch", strings.NewReader(`{"urls":["a"]}`)))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestBatchDetectHandler_TooMany(t *testing.T) {
	det := &mockDetector{}
	deps := newDeps(det)
	deps.Jobs = jobs.NewMemoryManager(det, 1)
	deps.Config.MaxBatchSize = 1

	w := httptest.NewRecorder()
	BatchDetectHandler(deps).ServeHTTP(w,
		httptest.NewRequest(http.MethodPost, "/api/v1/detect/batch", strings.NewReader(`{"urls":["a","b"]}`)))
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Empty(t, det.reqs)
}
