package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tubegate/tubegate/internal/models"
)

func TestBuildInterleavesChannelsRoundRobin(t *testing.T) {
	ctx := context.Background()
	env := newCacheEnv()
	env.allowChannel("kid-1", "Alpha")
	env.allowChannel("kid-1", "Beta")
	env.allowChannel("kid-1", "Gamma")
	env.provider.videos["Alpha"] = []*models.Video{vid("a1aaaaaaaaa", "A1", "Alpha"), vid("a2aaaaaaaaa", "A2", "Alpha"), vid("a3aaaaaaaaa", "A3", "Alpha")}
	env.provider.videos["Beta"] = []*models.Video{vid("b1bbbbbbbbb", "B1", "Beta")}
	env.provider.videos["Gamma"] = []*models.Video{vid("g1ggggggggg", "G1", "Gamma"), vid("g2ggggggggg", "G2", "Gamma")}

	require.NoError(t, env.manager.refreshProfile(ctx, "kid-1"))

	catalog := env.manager.Build(ctx, "kid-1", "")
	assert.Equal(t,
		[]string{"a1aaaaaaaaa", "b1bbbbbbbbb", "g1ggggggggg", "a2aaaaaaaaa", "g2ggggggggg", "a3aaaaaaaaa"},
		ids(catalog),
	)
}

func TestBuildDeduplicatesAcrossChannels(t *testing.T) {
	ctx := context.Background()
	env := newCacheEnv()
	env.allowChannel("kid-1", "Alpha")
	env.allowChannel("kid-1", "Beta")
	shared := vid("sharedvideo", "Shared", "Alpha")
	env.provider.videos["Alpha"] = []*models.Video{shared}
	env.provider.videos["Beta"] = []*models.Video{vid("sharedvideo", "Shared", "Beta"), vid("b1bbbbbbbbb", "B1", "Beta")}

	require.NoError(t, env.manager.refreshProfile(ctx, "kid-1"))

	catalog := env.manager.Build(ctx, "kid-1", "")
	assert.Equal(t, []string{"sharedvideo", "b1bbbbbbbbb"}, ids(catalog))
}

func TestBuildExcludesDeniedEverywhere(t *testing.T) {
	ctx := context.Background()
	env := newCacheEnv()
	env.allowChannel("kid-1", "Alpha")
	env.provider.videos["Alpha"] = []*models.Video{vid("deniedvideo", "Bad", "Alpha"), vid("a1aaaaaaaaa", "A1", "Alpha")}
	env.provider.shorts["Alpha"] = []*models.Video{short("deniedvideo", "Bad", "Alpha")}
	env.videos.denied = []string{"deniedvideo"}
	env.settings.values["kid-1|shorts_enabled"] = "true"

	require.NoError(t, env.manager.refreshProfile(ctx, "kid-1"))

	assert.Equal(t, []string{"a1aaaaaaaaa"}, ids(env.manager.Build(ctx, "kid-1", "")))
	assert.Empty(t, ids(env.manager.BuildShorts(ctx, "kid-1")))
	assert.Equal(t, []string{"a1aaaaaaaaa"}, ids(env.manager.Build(ctx, "kid-1", "Alpha")))
}

func TestBuildExcludesShortsAndAppendsApproved(t *testing.T) {
	ctx := context.Background()
	env := newCacheEnv()
	env.allowChannel("kid-1", "Alpha")
	env.provider.videos["Alpha"] = []*models.Video{vid("a1aaaaaaaaa", "A1", "Alpha"), short("s1sssssssss", "S1", "Alpha")}
	env.videos.approved = []*models.Video{
		{VideoID: "reqvideoaaa", Title: "Requested", ChannelName: "Other", Status: models.VideoStatusApproved},
		{VideoID: "a1aaaaaaaaa", Title: "A1", ChannelName: "Alpha", Status: models.VideoStatusApproved},
	}

	require.NoError(t, env.manager.refreshProfile(ctx, "kid-1"))

	catalog := env.manager.Build(ctx, "kid-1", "")
	// The short is excluded, the already-listed approved video dedups, the
	// individually approved one lands after the channel content.
	assert.Equal(t, []string{"a1aaaaaaaaa", "reqvideoaaa"}, ids(catalog))
}

func TestBuildAnnotatesCategories(t *testing.T) {
	ctx := context.Background()
	env := newCacheEnv()
	env.channels.channels = append(env.channels.channels, &models.Channel{
		ProfileID:   "kid-1",
		ChannelName: "Learning",
		Status:      models.ChannelStatusAllowed,
		Category:    models.CategoryEdu,
	})
	env.provider.videos["Learning"] = []*models.Video{
		vid("l1lllllllll", "L1", "Learning"),
		{VideoID: "l2lllllllll", Title: "L2", ChannelName: "Learning", Category: models.CategoryFun},
	}

	require.NoError(t, env.manager.refreshProfile(ctx, "kid-1"))

	catalog := env.manager.Build(ctx, "kid-1", "")
	require.Len(t, catalog, 2)
	byID := map[string]models.Category{}
	for _, v := range catalog {
		byID[v.VideoID] = v.Category
	}
	assert.Equal(t, models.CategoryEdu, byID["l1lllllllll"], "channel default applies")
	assert.Equal(t, models.CategoryFun, byID["l2lllllllll"], "video override wins")

	// Annotation worked on copies; the cached provider entry is untouched.
	assert.Equal(t, models.Category(""), env.provider.videos["Learning"][0].Category)
}

func TestBuildWordFilterIsWholeWordCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	env := newCacheEnv()
	env.allowChannel("kid-1", "Alpha")
	env.provider.videos["Alpha"] = []*models.Video{
		vid("a1aaaaaaaaa", "Funny CAT compilation", "Alpha"),
		vid("a2aaaaaaaaa", "Category theory for kids", "Alpha"),
		vid("a3aaaaaaaaa", "Dogs being dogs", "Alpha"),
	}
	env.filters.words = []string{"cat"}

	require.NoError(t, env.manager.refreshProfile(ctx, "kid-1"))

	catalog := env.manager.Build(ctx, "kid-1", "")
	// "CAT" matches whole-word regardless of case; "Category" does not.
	assert.Equal(t, []string{"a2aaaaaaaaa", "a3aaaaaaaaa"}, ids(catalog))
}

func TestBuildCachesUntilInvalidated(t *testing.T) {
	ctx := context.Background()
	env := newCacheEnv()
	env.allowChannel("kid-1", "Alpha")
	env.provider.videos["Alpha"] = []*models.Video{vid("a1aaaaaaaaa", "A1", "Alpha")}

	require.NoError(t, env.manager.refreshProfile(ctx, "kid-1"))

	first := env.manager.Build(ctx, "kid-1", "")
	require.Equal(t, []string{"a1aaaaaaaaa"}, ids(first))

	// New store-approved content is invisible while the catalog cache holds.
	env.videos.approved = []*models.Video{{VideoID: "newvideoaaa", Title: "New", ChannelName: "Other", Status: models.VideoStatusApproved}}
	assert.Equal(t, []string{"a1aaaaaaaaa"}, ids(env.manager.Build(ctx, "kid-1", "")))

	// Catalog invalidation forces the next build to see it.
	env.manager.InvalidateCatalog("kid-1")
	assert.Equal(t, []string{"a1aaaaaaaaa", "newvideoaaa"}, ids(env.manager.Build(ctx, "kid-1", "")))
}

func TestInvalidateFiltersForcesRebuild(t *testing.T) {
	ctx := context.Background()
	env := newCacheEnv()
	env.allowChannel("kid-1", "Alpha")
	env.provider.videos["Alpha"] = []*models.Video{vid("a1aaaaaaaaa", "Scary video", "Alpha"), vid("a2aaaaaaaaa", "Nice video", "Alpha")}

	require.NoError(t, env.manager.refreshProfile(ctx, "kid-1"))
	require.Len(t, env.manager.Build(ctx, "kid-1", ""), 2)

	env.filters.words = []string{"scary"}
	env.manager.InvalidateFilters()

	assert.Equal(t, []string{"a2aaaaaaaaa"}, ids(env.manager.Build(ctx, "kid-1", "")))
}

func TestBuildChannelViewSortsNewestFirst(t *testing.T) {
	ctx := context.Background()
	env := newCacheEnv()
	env.allowChannel("kid-1", "Alpha")

	older := vid("olderaaaaaa", "Older", "Alpha")
	older.PublishedAt = older.PublishedAt.AddDate(2020, 0, 0)
	newer := vid("neweraaaaaa", "Newer", "Alpha")
	newer.PublishedAt = newer.PublishedAt.AddDate(2024, 0, 0)
	env.provider.videos["Alpha"] = []*models.Video{older, newer}

	require.NoError(t, env.manager.refreshProfile(ctx, "kid-1"))

	view := env.manager.Build(ctx, "kid-1", "Alpha")
	assert.Equal(t, []string{"neweraaaaaa", "olderaaaaaa"}, ids(view))

	// An unknown channel filter yields an empty view, not the full catalog.
	assert.Empty(t, env.manager.Build(ctx, "kid-1", "Nobody"))
}

func TestBuildShortsGatedBySetting(t *testing.T) {
	ctx := context.Background()
	env := newCacheEnv()
	env.allowChannel("kid-1", "Alpha")
	env.provider.shorts["Alpha"] = []*models.Video{short("s1sssssssss", "S1", "Alpha")}

	// Disabled by default in this setup.
	require.NoError(t, env.manager.refreshProfile(ctx, "kid-1"))
	assert.Empty(t, env.manager.BuildShorts(ctx, "kid-1"))

	env.settings.values["kid-1|shorts_enabled"] = "true"
	require.NoError(t, env.manager.refreshProfile(ctx, "kid-1"))
	assert.Equal(t, []string{"s1sssssssss"}, ids(env.manager.BuildShorts(ctx, "kid-1")))
}

func TestBuildRequestsSkipsBulkAllowedChannels(t *testing.T) {
	ctx := context.Background()
	env := newCacheEnv()
	env.allowChannel("kid-1", "Alpha")
	env.videos.requests = []*models.Video{
		{VideoID: "fromalphaaa", Title: "From Alpha", ChannelName: "alpha", Status: models.VideoStatusApproved},
		{VideoID: "fromotheraa", Title: "From Other", ChannelName: "Other", Status: models.VideoStatusApproved},
	}

	requests := env.manager.BuildRequests(ctx, "kid-1", 50)
	// Alpha's content is already reachable through the channel catalog, so
	// only the out-of-list request shows (name match is case-insensitive).
	assert.Equal(t, []string{"fromotheraa"}, ids(requests))
}
