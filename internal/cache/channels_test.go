package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tubegate/tubegate/internal/models"
)

func TestRefreshProfileIsolatesChannelFailures(t *testing.T) {
	ctx := context.Background()
	env := newCacheEnv()
	env.allowChannel("kid-1", "Good")
	env.allowChannel("kid-1", "Broken")
	env.allowChannel("kid-1", "AlsoGood")
	env.provider.videos["Good"] = []*models.Video{vid("g1ggggggggg", "G1", "Good")}
	env.provider.videos["AlsoGood"] = []*models.Video{vid("h1hhhhhhhhh", "H1", "AlsoGood")}
	env.provider.failing["Broken"] = true

	err := env.manager.refreshProfile(ctx, "kid-1")
	require.Error(t, err, "the aggregate error reports the failed channel")

	// The two healthy channels still serve content.
	catalog := env.manager.Build(ctx, "kid-1", "")
	assert.ElementsMatch(t, []string{"g1ggggggggg", "h1hhhhhhhhh"}, ids(catalog))
}

func TestRefreshProfileWithNoChannelsClearsCache(t *testing.T) {
	ctx := context.Background()
	env := newCacheEnv()
	env.allowChannel("kid-1", "Alpha")
	env.provider.videos["Alpha"] = []*models.Video{vid("a1aaaaaaaaa", "A1", "Alpha")}

	require.NoError(t, env.manager.refreshProfile(ctx, "kid-1"))
	require.Len(t, env.manager.Build(ctx, "kid-1", ""), 1)

	// The last channel is removed; the next refresh empties the cache
	// instead of serving stale content.
	env.channels.channels = nil
	require.NoError(t, env.manager.refreshProfile(ctx, "kid-1"))
	env.manager.InvalidateCatalog("kid-1")
	assert.Empty(t, env.manager.Build(ctx, "kid-1", ""))
}

func TestInvalidateChannelsNeverBlocks(t *testing.T) {
	env := newCacheEnv()

	// Far more invalidations than the queue holds; extra ones are dropped,
	// none may block.
	for i := 0; i < 100; i++ {
		env.manager.InvalidateChannels("kid-1")
	}

	pc := env.manager.cacheFor("kid-1")
	assert.Zero(t, pc.generation.Load())
	assert.Zero(t, pc.catalogGen.Load())
}

func TestInvalidateChannelsMarksAllProfiles(t *testing.T) {
	ctx := context.Background()
	env := newCacheEnv()
	env.allowChannel("kid-1", "Alpha")
	env.allowChannel("kid-2", "Beta")
	env.provider.videos["Alpha"] = []*models.Video{vid("a1aaaaaaaaa", "A1", "Alpha")}
	env.provider.videos["Beta"] = []*models.Video{vid("b1bbbbbbbbb", "B1", "Beta")}

	require.NoError(t, env.manager.refreshProfile(ctx, "kid-1"))
	require.NoError(t, env.manager.refreshProfile(ctx, "kid-2"))

	env.manager.InvalidateChannels("")

	assert.Zero(t, env.manager.cacheFor("kid-1").generation.Load())
	assert.Zero(t, env.manager.cacheFor("kid-2").generation.Load())
}

func TestShortsEnabledFallsBackToDefault(t *testing.T) {
	ctx := context.Background()
	env := newCacheEnv() // constructed with shortsDefault=false

	assert.False(t, env.manager.ShortsEnabled(ctx, "kid-1"))

	env.settings.values["kid-1|shorts_enabled"] = "true"
	assert.True(t, env.manager.ShortsEnabled(ctx, "kid-1"))

	env.settings.values["kid-1|shorts_enabled"] = "false"
	assert.False(t, env.manager.ShortsEnabled(ctx, "kid-1"))
}
