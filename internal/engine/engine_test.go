package engine

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tubegate/tubegate/internal/models"
	"github.com/tubegate/tubegate/internal/repository"
	"github.com/tubegate/tubegate/internal/schedule"
)

// In-memory stand-ins for the store, shared by the engine tests.

type memSettings struct {
	values map[string]string
}

func (m *memSettings) Get(_ context.Context, profileID, key string) (string, error) {
	return m.values[profileID+"|"+key], nil
}

func (m *memSettings) Set(_ context.Context, profileID, key, value string) error {
	m.values[profileID+"|"+key] = value
	return nil
}

type memVideos struct {
	videos    map[string]*models.Video // "profile|video" -> record
	viewCount map[string]int
	getErr    error
}

func newMemVideos() *memVideos {
	return &memVideos{videos: make(map[string]*models.Video), viewCount: make(map[string]int)}
}

func (m *memVideos) put(profileID string, v *models.Video) {
	m.videos[profileID+"|"+v.VideoID] = v
}

func (m *memVideos) Upsert(_ context.Context, profileID string, video *models.Video) error {
	m.put(profileID, video)
	return nil
}

func (m *memVideos) Get(_ context.Context, profileID, videoID string) (*models.Video, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.videos[profileID+"|"+videoID], nil
}

func (m *memVideos) UpdateStatus(_ context.Context, profileID, videoID string, status models.VideoStatus) error {
	if v := m.videos[profileID+"|"+videoID]; v != nil {
		v.Status = status
	}
	return nil
}

func (m *memVideos) GetByStatus(_ context.Context, profileID string, status models.VideoStatus, _ repository.VideoFilters) ([]*models.Video, error) {
	var out []*models.Video
	for key, v := range m.videos {
		if v.Status == status && key == profileID+"|"+v.VideoID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *memVideos) GetDeniedIDs(_ context.Context, profileID string) (map[string]struct{}, error) {
	out := make(map[string]struct{})
	for _, v := range m.videos {
		if v.Status == models.VideoStatusDenied {
			out[v.VideoID] = struct{}{}
		}
	}
	return out, nil
}

func (m *memVideos) GetApprovedShorts(_ context.Context, _ string, _ int) ([]*models.Video, error) {
	return nil, nil
}

func (m *memVideos) GetRecentRequests(_ context.Context, _ string, _ int) ([]*models.Video, error) {
	return nil, nil
}

func (m *memVideos) SetCategory(_ context.Context, profileID, videoID string, category models.Category) error {
	if v := m.videos[profileID+"|"+videoID]; v != nil {
		v.Category = category
	}
	return nil
}

func (m *memVideos) RecordView(_ context.Context, profileID, videoID string) error {
	m.viewCount[profileID+"|"+videoID]++
	return nil
}

type memChannels struct {
	categories map[string]models.Category // "profile|name"
}

func (m *memChannels) Add(_ context.Context, channel *models.Channel) (*models.Channel, error) {
	return channel, nil
}

func (m *memChannels) Remove(_ context.Context, _, _ string) error { return nil }

func (m *memChannels) GetByStatus(_ context.Context, _ string, _ models.ChannelStatus) ([]*models.Channel, error) {
	return nil, nil
}

func (m *memChannels) SetCategory(_ context.Context, profileID, name string, category models.Category) error {
	m.categories[profileID+"|"+name] = category
	return nil
}

func (m *memChannels) GetCategory(_ context.Context, profileID, channelName string) (models.Category, error) {
	return m.categories[profileID+"|"+channelName], nil
}

func (m *memChannels) UpdateChannelID(_ context.Context, _, _, _ string) error { return nil }
func (m *memChannels) UpdateHandle(_ context.Context, _, _, _ string) error    { return nil }

type memWatchLog struct {
	byCategory map[models.Category]float64
	err        error
	recorded   []int
}

func (m *memWatchLog) Record(_ context.Context, _, _ string, seconds int) error {
	if m.err != nil {
		return m.err
	}
	m.recorded = append(m.recorded, seconds)
	return nil
}

func (m *memWatchLog) MinutesBetween(_ context.Context, _ string, _, _ time.Time) (float64, error) {
	if m.err != nil {
		return 0, m.err
	}
	var total float64
	for _, v := range m.byCategory {
		total += v
	}
	return total, nil
}

func (m *memWatchLog) MinutesByCategoryBetween(_ context.Context, _ string, _, _ time.Time) (map[models.Category]float64, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.byCategory, nil
}

type testEnv struct {
	engine   *Engine
	settings *memSettings
	videos   *memVideos
	channels *memChannels
	watchLog *memWatchLog
	resolver *schedule.Resolver
}

func newTestEnv(notify LimitNotifier) *testEnv {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	settings := &memSettings{values: make(map[string]string)}
	videos := newMemVideos()
	channels := &memChannels{categories: make(map[string]models.Category)}
	watchLog := &memWatchLog{byCategory: make(map[models.Category]float64)}
	resolver := schedule.NewResolver(settings, "UTC", logger)

	return &testEnv{
		engine:   New(resolver, videos, channels, watchLog, logger, notify),
		settings: settings,
		videos:   videos,
		channels: channels,
		watchLog: watchLog,
		resolver: resolver,
	}
}
