package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tubegate/tubegate/internal/models"
	"github.com/tubegate/tubegate/internal/repository"
	"github.com/tubegate/tubegate/internal/schedule"
)

// In-memory stand-ins for the provider and the store, shared by the cache
// tests.

type fakeProvider struct {
	mu      sync.Mutex
	videos  map[string][]*models.Video // keyed by channel name
	shorts  map[string][]*models.Video
	failing map[string]bool
	calls   int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		videos:  make(map[string][]*models.Video),
		shorts:  make(map[string][]*models.Video),
		failing: make(map[string]bool),
	}
}

func (f *fakeProvider) FetchChannelVideos(_ context.Context, channelName, _ string, _ int) ([]*models.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failing[channelName] {
		return nil, fmt.Errorf("fetch failed for %s", channelName)
	}
	return f.videos[channelName], nil
}

func (f *fakeProvider) FetchChannelShorts(_ context.Context, channelName, _ string, _ int) ([]*models.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing[channelName] {
		return nil, fmt.Errorf("fetch failed for %s", channelName)
	}
	return f.shorts[channelName], nil
}

type stubProfiles struct {
	profiles []*models.Profile
}

func (s *stubProfiles) Create(_ context.Context, p *models.Profile) (*models.Profile, error) {
	s.profiles = append(s.profiles, p)
	return p, nil
}

func (s *stubProfiles) GetByID(_ context.Context, id string) (*models.Profile, error) {
	for _, p := range s.profiles {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (s *stubProfiles) List(_ context.Context) ([]*models.Profile, error) { return s.profiles, nil }
func (s *stubProfiles) Delete(_ context.Context, _ string) error          { return nil }

type stubChannels struct {
	channels []*models.Channel
}

func (s *stubChannels) Add(_ context.Context, ch *models.Channel) (*models.Channel, error) {
	s.channels = append(s.channels, ch)
	return ch, nil
}

func (s *stubChannels) Remove(_ context.Context, _, _ string) error { return nil }

func (s *stubChannels) GetByStatus(_ context.Context, profileID string, status models.ChannelStatus) ([]*models.Channel, error) {
	var out []*models.Channel
	for _, ch := range s.channels {
		if ch.ProfileID == profileID && ch.Status == status {
			out = append(out, ch)
		}
	}
	return out, nil
}

func (s *stubChannels) SetCategory(_ context.Context, _, _ string, _ models.Category) error {
	return nil
}

func (s *stubChannels) GetCategory(_ context.Context, _, _ string) (models.Category, error) {
	return "", nil
}

func (s *stubChannels) UpdateChannelID(_ context.Context, _, _, _ string) error { return nil }
func (s *stubChannels) UpdateHandle(_ context.Context, _, _, _ string) error    { return nil }

type stubVideos struct {
	approved []*models.Video
	denied   []string
	shorts   []*models.Video
	requests []*models.Video
}

func (s *stubVideos) Upsert(_ context.Context, _ string, _ *models.Video) error { return nil }
func (s *stubVideos) Get(_ context.Context, _, _ string) (*models.Video, error) { return nil, nil }
func (s *stubVideos) UpdateStatus(_ context.Context, _, _ string, _ models.VideoStatus) error {
	return nil
}

func (s *stubVideos) GetByStatus(_ context.Context, _ string, status models.VideoStatus, filters repository.VideoFilters) ([]*models.Video, error) {
	if status != models.VideoStatusApproved {
		return nil, nil
	}
	if filters.ChannelName == "" && filters.ChannelID == "" {
		return s.approved, nil
	}
	var out []*models.Video
	for _, v := range s.approved {
		if (filters.ChannelID != "" && v.ChannelID == filters.ChannelID) ||
			(filters.ChannelName != "" && v.ChannelName == filters.ChannelName) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *stubVideos) GetDeniedIDs(_ context.Context, _ string) (map[string]struct{}, error) {
	out := make(map[string]struct{})
	for _, id := range s.denied {
		out[id] = struct{}{}
	}
	return out, nil
}

func (s *stubVideos) GetApprovedShorts(_ context.Context, _ string, _ int) ([]*models.Video, error) {
	return s.shorts, nil
}

func (s *stubVideos) GetRecentRequests(_ context.Context, _ string, _ int) ([]*models.Video, error) {
	return s.requests, nil
}

func (s *stubVideos) SetCategory(_ context.Context, _, _ string, _ models.Category) error {
	return nil
}

func (s *stubVideos) RecordView(_ context.Context, _, _ string) error { return nil }

type stubFilters struct {
	words []string
}

func (s *stubFilters) Add(_ context.Context, word string) (bool, error) {
	s.words = append(s.words, word)
	return true, nil
}

func (s *stubFilters) Remove(_ context.Context, _ string) (bool, error) { return true, nil }
func (s *stubFilters) List(_ context.Context) ([]string, error)         { return s.words, nil }

type cacheSettings struct {
	values map[string]string
}

func (c *cacheSettings) Get(_ context.Context, profileID, key string) (string, error) {
	return c.values[profileID+"|"+key], nil
}

func (c *cacheSettings) Set(_ context.Context, profileID, key, value string) error {
	c.values[profileID+"|"+key] = value
	return nil
}

type cacheEnv struct {
	manager  *Manager
	provider *fakeProvider
	profiles *stubProfiles
	channels *stubChannels
	videos   *stubVideos
	filters  *stubFilters
	settings *cacheSettings
}

func newCacheEnv() *cacheEnv {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	env := &cacheEnv{
		provider: newFakeProvider(),
		profiles: &stubProfiles{},
		channels: &stubChannels{},
		videos:   &stubVideos{},
		filters:  &stubFilters{},
		settings: &cacheSettings{values: make(map[string]string)},
	}
	resolver := schedule.NewResolver(env.settings, "UTC", logger)
	env.manager = NewManager(
		env.provider, env.profiles, env.channels, env.videos, env.filters,
		resolver, logger, 30*time.Minute, 200, false,
	)
	return env
}

func (e *cacheEnv) allowChannel(profileID, name string) {
	e.channels.channels = append(e.channels.channels, &models.Channel{
		ProfileID:   profileID,
		ChannelName: name,
		Status:      models.ChannelStatusAllowed,
	})
}

func vid(id, title, channel string) *models.Video {
	return &models.Video{VideoID: id, Title: title, ChannelName: channel}
}

func short(id, title, channel string) *models.Video {
	v := vid(id, title, channel)
	v.IsShort = true
	v.Duration = 45
	return v
}

func ids(videos []*models.Video) []string {
	out := make([]string, 0, len(videos))
	for _, v := range videos {
		out = append(out, v.VideoID)
	}
	return out
}
