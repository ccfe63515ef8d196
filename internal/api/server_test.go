package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tubegate/tubegate/internal/cache"
	"github.com/tubegate/tubegate/internal/engine"
	"github.com/tubegate/tubegate/internal/models"
	"github.com/tubegate/tubegate/internal/repository"
	"github.com/tubegate/tubegate/internal/schedule"
)

// Compact in-memory store and provider for exercising the HTTP surface
// end to end.

type apiStore struct {
	settings map[string]string
	profiles []*models.Profile
	channels []*models.Channel
	videos   map[string]*models.Video // "profile|video"
	words    []string
	metadata map[string]*models.Video
	searched []*models.Video
}

func newAPIStore() *apiStore {
	return &apiStore{
		settings: make(map[string]string),
		videos:   make(map[string]*models.Video),
		metadata: make(map[string]*models.Video),
	}
}

func (s *apiStore) Get(_ context.Context, profileID, key string) (string, error) {
	return s.settings[profileID+"|"+key], nil
}

func (s *apiStore) Set(_ context.Context, profileID, key, value string) error {
	s.settings[profileID+"|"+key] = value
	return nil
}

func (s *apiStore) Create(_ context.Context, p *models.Profile) (*models.Profile, error) {
	s.profiles = append(s.profiles, p)
	return p, nil
}

func (s *apiStore) GetByID(_ context.Context, id string) (*models.Profile, error) {
	for _, p := range s.profiles {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (s *apiStore) List(_ context.Context) ([]*models.Profile, error) { return s.profiles, nil }
func (s *apiStore) Delete(_ context.Context, _ string) error          { return nil }

func (s *apiStore) Add(_ context.Context, ch *models.Channel) (*models.Channel, error) {
	s.channels = append(s.channels, ch)
	return ch, nil
}

func (s *apiStore) Remove(_ context.Context, _, _ string) error { return nil }

func (s *apiStore) GetByStatus(_ context.Context, profileID string, status models.ChannelStatus) ([]*models.Channel, error) {
	var out []*models.Channel
	for _, ch := range s.channels {
		if ch.ProfileID == profileID && ch.Status == status {
			out = append(out, ch)
		}
	}
	return out, nil
}

func (s *apiStore) SetCategory(_ context.Context, _, _ string, _ models.Category) error { return nil }
func (s *apiStore) GetCategory(_ context.Context, _, _ string) (models.Category, error) {
	return "", nil
}
func (s *apiStore) UpdateChannelID(_ context.Context, _, _, _ string) error { return nil }
func (s *apiStore) UpdateHandle(_ context.Context, _, _, _ string) error    { return nil }

type apiVideos struct{ store *apiStore }

func (v apiVideos) Upsert(_ context.Context, profileID string, video *models.Video) error {
	v.store.videos[profileID+"|"+video.VideoID] = video
	return nil
}

func (v apiVideos) Get(_ context.Context, profileID, videoID string) (*models.Video, error) {
	return v.store.videos[profileID+"|"+videoID], nil
}

func (v apiVideos) UpdateStatus(_ context.Context, profileID, videoID string, status models.VideoStatus) error {
	if rec := v.store.videos[profileID+"|"+videoID]; rec != nil {
		rec.Status = status
	}
	return nil
}

func (v apiVideos) GetByStatus(_ context.Context, _ string, _ models.VideoStatus, _ repository.VideoFilters) ([]*models.Video, error) {
	return nil, nil
}

func (v apiVideos) GetDeniedIDs(_ context.Context, _ string) (map[string]struct{}, error) {
	return map[string]struct{}{}, nil
}

func (v apiVideos) GetApprovedShorts(_ context.Context, _ string, _ int) ([]*models.Video, error) {
	return nil, nil
}

func (v apiVideos) GetRecentRequests(_ context.Context, _ string, _ int) ([]*models.Video, error) {
	return nil, nil
}

func (v apiVideos) SetCategory(_ context.Context, _, _ string, _ models.Category) error { return nil }
func (v apiVideos) RecordView(_ context.Context, _, _ string) error                     { return nil }

type apiWatchLog struct{}

func (apiWatchLog) Record(_ context.Context, _, _ string, _ int) error { return nil }
func (apiWatchLog) MinutesBetween(_ context.Context, _ string, _, _ time.Time) (float64, error) {
	return 0, nil
}
func (apiWatchLog) MinutesByCategoryBetween(_ context.Context, _ string, _, _ time.Time) (map[models.Category]float64, error) {
	return map[models.Category]float64{}, nil
}

type apiFilters struct{ store *apiStore }

func (f apiFilters) Add(_ context.Context, word string) (bool, error) {
	f.store.words = append(f.store.words, word)
	return true, nil
}
func (f apiFilters) Remove(_ context.Context, _ string) (bool, error) { return true, nil }
func (f apiFilters) List(_ context.Context) ([]string, error)         { return f.store.words, nil }

type apiProvider struct{ store *apiStore }

func (p apiProvider) FetchChannelVideos(_ context.Context, _, _ string, _ int) ([]*models.Video, error) {
	return nil, nil
}

func (p apiProvider) FetchChannelShorts(_ context.Context, _, _ string, _ int) ([]*models.Video, error) {
	return nil, nil
}

func (p apiProvider) FetchVideoMetadata(_ context.Context, videoID string) (*models.Video, error) {
	return p.store.metadata[videoID], nil
}

func (p apiProvider) Search(_ context.Context, _ string, _ int) ([]*models.Video, error) {
	return p.store.searched, nil
}

type apiEnv struct {
	store    *apiStore
	server   *Server
	requests []string
}

func newAPIEnv() *apiEnv {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	store := newAPIStore()
	videos := apiVideos{store}
	filters := apiFilters{store}
	provider := apiProvider{store}

	resolver := schedule.NewResolver(store, "UTC", logger)
	eng := engine.New(resolver, videos, store, apiWatchLog{}, logger, nil)
	catalogs := cache.NewManager(provider, store, store, videos, filters, resolver, logger, time.Minute, 50, false)

	env := &apiEnv{store: store}
	env.server = NewServer(
		eng, catalogs, provider,
		store, store, store, videos, filters,
		10, func(profileID, videoID, title, channelName string) {
			env.requests = append(env.requests, videoID)
		},
		logger,
	)
	return env
}

func (e *apiEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestGateEndpointApprovedVideo(t *testing.T) {
	env := newAPIEnv()
	env.store.videos["default|dQw4w9WgXcQ"] = &models.Video{
		VideoID: "dQw4w9WgXcQ", Title: "Video", ChannelName: "Alpha",
		Status: models.VideoStatusApproved,
	}

	rec := env.do(t, http.MethodGet, "/api/gate/dQw4w9WgXcQ", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	decision := decodeBody[engine.Decision](t, rec)
	assert.True(t, decision.Allowed)
}

func TestGateEndpointAutoApprovesAllowlistedChannel(t *testing.T) {
	env := newAPIEnv()
	env.store.channels = append(env.store.channels, &models.Channel{
		ProfileID: "default", ChannelName: "Alpha", Status: models.ChannelStatusAllowed,
	})
	env.store.metadata["dQw4w9WgXcQ"] = &models.Video{
		VideoID: "dQw4w9WgXcQ", Title: "New upload", ChannelName: "Alpha",
	}

	rec := env.do(t, http.MethodGet, "/api/gate/dQw4w9WgXcQ", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	decision := decodeBody[engine.Decision](t, rec)
	assert.True(t, decision.Allowed, "allowlisted channel uploads are admitted on first watch")
	assert.Equal(t, models.VideoStatusApproved, env.store.videos["default|dQw4w9WgXcQ"].Status)
}

func TestGateEndpointUnknownVideoStaysBlocked(t *testing.T) {
	env := newAPIEnv()
	env.store.metadata["dQw4w9WgXcQ"] = &models.Video{
		VideoID: "dQw4w9WgXcQ", Title: "Elsewhere", ChannelName: "NotAllowed",
	}

	rec := env.do(t, http.MethodGet, "/api/gate/dQw4w9WgXcQ", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	decision := decodeBody[engine.Decision](t, rec)
	assert.False(t, decision.Allowed)
	assert.Equal(t, engine.ReasonNotFound, decision.Reason)
}

func TestHeartbeatEndpointRejectsUnregisteredPlayback(t *testing.T) {
	env := newAPIEnv()
	env.store.videos["default|dQw4w9WgXcQ"] = &models.Video{
		VideoID: "dQw4w9WgXcQ", Status: models.VideoStatusApproved,
	}

	rec := env.do(t, http.MethodPost, "/api/heartbeat", map[string]any{
		"video_id": "dQw4w9WgXcQ", "seconds": 30,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusEndpoint(t *testing.T) {
	env := newAPIEnv()
	env.store.videos["default|dQw4w9WgXcQ"] = &models.Video{
		VideoID: "dQw4w9WgXcQ", Status: models.VideoStatusPending,
	}

	rec := env.do(t, http.MethodGet, "/api/status/dQw4w9WgXcQ", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pending", decodeBody[map[string]string](t, rec)["status"])

	rec = env.do(t, http.MethodGet, "/api/status/AAAAAAAAAAA", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "not_found", decodeBody[map[string]string](t, rec)["status"])
}

func TestSearchEndpointBlocksFilteredQuery(t *testing.T) {
	env := newAPIEnv()
	env.store.words = []string{"scary"}
	env.store.searched = []*models.Video{{VideoID: "okvideoaaaa", Title: "Fine", ChannelName: "Alpha"}}

	rec := env.do(t, http.MethodGet, "/api/search?q=scary+clowns", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[searchResponse](t, rec)
	assert.Empty(t, resp.Results)

	rec = env.do(t, http.MethodGet, "/api/search?q=dinosaurs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decodeBody[searchResponse](t, rec)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "okvideoaaaa", resp.Results[0].VideoID)
}

func TestRequestEndpointStoresPendingAndNotifies(t *testing.T) {
	env := newAPIEnv()
	env.store.metadata["dQw4w9WgXcQ"] = &models.Video{
		VideoID: "dQw4w9WgXcQ", Title: "Wanted", ChannelName: "Alpha",
	}

	rec := env.do(t, http.MethodPost, "/api/requests", map[string]any{
		"video_id": "https://youtu.be/dQw4w9WgXcQ",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "pending", decodeBody[map[string]string](t, rec)["status"])
	assert.Equal(t, []string{"dQw4w9WgXcQ"}, env.requests)

	// A repeat request reports the existing status without re-notifying.
	rec = env.do(t, http.MethodPost, "/api/requests", map[string]any{
		"video_id": "dQw4w9WgXcQ",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, env.requests, 1)
}

func TestCatalogEndpointPagination(t *testing.T) {
	env := newAPIEnv()
	// No channels cached; the catalog is served from store-approved videos.
	// An empty catalog still paginates cleanly.
	rec := env.do(t, http.MethodGet, "/api/catalog?offset=10&limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[catalogResponse](t, rec)
	assert.Empty(t, resp.Videos)
	assert.False(t, resp.HasMore)
	assert.Zero(t, resp.Total)
}

func TestFilterEndpointsInvalidate(t *testing.T) {
	env := newAPIEnv()

	rec := env.do(t, http.MethodPost, "/api/filters", map[string]string{"word": "scary"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/filters", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	words := decodeBody[map[string][]string](t, rec)
	assert.Equal(t, []string{"scary"}, words["words"])
}
