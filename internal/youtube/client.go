package youtube

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
	youtube "google.golang.org/api/youtube/v3"

	"github.com/tubegate/tubegate/internal/models"
)

// Videos at or under this length count as short-form content.
const shortMaxSeconds = 60

// Client talks to the YouTube Data API v3. It satisfies the cache layer's
// Provider interface and the metadata needs of the watch path.
type Client struct {
	svc    *youtube.Service
	logger *logrus.Logger

	// channel name -> resolved channel id, so repeated refreshes don't
	// burn search quota on the same unresolved channels.
	mu  sync.Mutex
	ids map[string]string
}

// NewClient creates a YouTube Data API client with the given API key.
func NewClient(ctx context.Context, apiKey string, logger *logrus.Logger) (*Client, error) {
	svc, err := youtube.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create youtube service: %w", err)
	}
	return &Client{svc: svc, logger: logger, ids: make(map[string]string)}, nil
}

// FetchChannelVideos returns the most recent uploads of a channel, newest
// first, up to maxResults.
func (c *Client) FetchChannelVideos(ctx context.Context, channelName, channelID string, maxResults int) ([]*models.Video, error) {
	videos, err := c.fetchUploads(ctx, channelName, channelID, maxResults)
	if err != nil {
		return nil, err
	}
	// The uploads playlist mixes regular videos and shorts; keep both and
	// let the catalog layer route them by the IsShort flag.
	return videos, nil
}

// FetchChannelShorts returns the channel's recent short-form videos.
func (c *Client) FetchChannelShorts(ctx context.Context, channelName, channelID string, maxResults int) ([]*models.Video, error) {
	// The Data API has no shorts listing; pull uploads and keep the
	// short-form entries.
	videos, err := c.fetchUploads(ctx, channelName, channelID, maxResults*2)
	if err != nil {
		return nil, err
	}
	shorts := make([]*models.Video, 0, maxResults)
	for _, v := range videos {
		if v.IsShort {
			shorts = append(shorts, v)
			if len(shorts) >= maxResults {
				break
			}
		}
	}
	return shorts, nil
}

// Search runs a strict-safe-search video query.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]*models.Video, error) {
	call := c.svc.Search.List([]string{"snippet"}).
		Context(ctx).
		Q(query).
		Type("video").
		SafeSearch("strict").
		MaxResults(int64(maxResults))
	resp, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("search failed for %q: %w", query, err)
	}

	ids := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id != nil && item.Id.VideoId != "" {
			ids = append(ids, item.Id.VideoId)
		}
	}
	return c.fetchVideoDetails(ctx, ids)
}

// ResolveHandle resolves an @handle to the channel's display name and id.
func (c *Client) ResolveHandle(ctx context.Context, handle string) (name, id string, err error) {
	resp, err := c.svc.Channels.List([]string{"snippet"}).
		Context(ctx).
		ForHandle(strings.TrimPrefix(handle, "@")).
		Do()
	if err != nil {
		return "", "", fmt.Errorf("failed to resolve handle %q: %w", handle, err)
	}
	if len(resp.Items) == 0 {
		return "", "", fmt.Errorf("handle %q not found", handle)
	}
	ch := resp.Items[0]
	return ch.Snippet.Title, ch.Id, nil
}

// FetchVideoMetadata looks up a single video. Returns nil when the video
// does not exist or is not embeddable-level public data.
func (c *Client) FetchVideoMetadata(ctx context.Context, videoID string) (*models.Video, error) {
	videos, err := c.fetchVideoDetails(ctx, []string{videoID})
	if err != nil {
		return nil, err
	}
	if len(videos) == 0 {
		return nil, nil
	}
	return videos[0], nil
}

// fetchUploads pages through the channel's uploads playlist.
func (c *Client) fetchUploads(ctx context.Context, channelName, channelID string, maxResults int) ([]*models.Video, error) {
	if channelID == "" {
		resolved, err := c.resolveChannelID(ctx, channelName)
		if err != nil {
			return nil, err
		}
		channelID = resolved
	}

	// The uploads playlist id is the channel id with the "UC" prefix
	// swapped for "UU".
	if !strings.HasPrefix(channelID, "UC") {
		return nil, fmt.Errorf("unexpected channel id %q for %q", channelID, channelName)
	}
	playlistID := "UU" + channelID[2:]

	var ids []string
	pageToken := ""
	for len(ids) < maxResults {
		pageSize := int64(maxResults - len(ids))
		if pageSize > 50 {
			pageSize = 50
		}
		call := c.svc.PlaylistItems.List([]string{"contentDetails"}).
			Context(ctx).
			PlaylistId(playlistID).
			MaxResults(pageSize)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list uploads for %q: %w", channelName, err)
		}
		for _, item := range resp.Items {
			if item.ContentDetails != nil && item.ContentDetails.VideoId != "" {
				ids = append(ids, item.ContentDetails.VideoId)
			}
		}
		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}

	return c.fetchVideoDetails(ctx, ids)
}

// fetchVideoDetails hydrates video ids into catalog entries, batching 50
// ids per call as the API requires.
func (c *Client) fetchVideoDetails(ctx context.Context, ids []string) ([]*models.Video, error) {
	var videos []*models.Video
	for start := 0; start < len(ids); start += 50 {
		end := start + 50
		if end > len(ids) {
			end = len(ids)
		}
		resp, err := c.svc.Videos.List([]string{"snippet", "contentDetails"}).
			Context(ctx).
			Id(ids[start:end]...).
			Do()
		if err != nil {
			return nil, fmt.Errorf("failed to fetch video details: %w", err)
		}
		for _, item := range resp.Items {
			videos = append(videos, videoFromAPI(item))
		}
	}
	return videos, nil
}

// resolveChannelID finds a channel id by display name, memoized per client.
func (c *Client) resolveChannelID(ctx context.Context, channelName string) (string, error) {
	c.mu.Lock()
	if id, ok := c.ids[channelName]; ok {
		c.mu.Unlock()
		return id, nil
	}
	c.mu.Unlock()

	resp, err := c.svc.Search.List([]string{"snippet"}).
		Context(ctx).
		Q(channelName).
		Type("channel").
		MaxResults(1).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to resolve channel %q: %w", channelName, err)
	}
	if len(resp.Items) == 0 || resp.Items[0].Id == nil || resp.Items[0].Id.ChannelId == "" {
		return "", fmt.Errorf("channel %q not found", channelName)
	}
	id := resp.Items[0].Id.ChannelId

	c.mu.Lock()
	c.ids[channelName] = id
	c.mu.Unlock()
	return id, nil
}

func videoFromAPI(item *youtube.Video) *models.Video {
	v := &models.Video{VideoID: item.Id}
	if item.Snippet != nil {
		v.Title = item.Snippet.Title
		v.ChannelName = item.Snippet.ChannelTitle
		v.ChannelID = item.Snippet.ChannelId
		if t, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt); err == nil {
			v.PublishedAt = t
		}
		if item.Snippet.Thumbnails != nil {
			switch {
			case item.Snippet.Thumbnails.Medium != nil:
				v.ThumbnailURL = item.Snippet.Thumbnails.Medium.Url
			case item.Snippet.Thumbnails.Default != nil:
				v.ThumbnailURL = item.Snippet.Thumbnails.Default.Url
			}
		}
	}
	if item.ContentDetails != nil {
		v.Duration = parseISODuration(item.ContentDetails.Duration)
	}
	v.IsShort = v.Duration > 0 && v.Duration <= shortMaxSeconds
	return v
}

// parseISODuration converts the API's ISO-8601 duration ("PT1H2M3S") to
// seconds. Returns 0 for anything it cannot parse.
func parseISODuration(iso string) int {
	rest, ok := strings.CutPrefix(iso, "PT")
	if !ok {
		return 0
	}
	total, num := 0, 0
	for _, r := range rest {
		switch {
		case r >= '0' && r <= '9':
			num = num*10 + int(r-'0')
		case r == 'H':
			total += num * 3600
			num = 0
		case r == 'M':
			total += num * 60
			num = 0
		case r == 'S':
			total += num
			num = 0
		default:
			return 0
		}
	}
	return total
}
