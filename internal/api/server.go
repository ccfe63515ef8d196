package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/tubegate/tubegate/internal/cache"
	"github.com/tubegate/tubegate/internal/engine"
	"github.com/tubegate/tubegate/internal/models"
	"github.com/tubegate/tubegate/internal/repository"
)

var videoIDRe = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)

// Provider is the slice of the content source the API needs: metadata
// lookups for the watch path and safe search for the search page.
type Provider interface {
	FetchVideoMetadata(ctx context.Context, videoID string) (*models.Video, error)
	Search(ctx context.Context, query string, maxResults int) ([]*models.Video, error)
}

// RequestNotifier tells the parent chat about a new video request.
type RequestNotifier func(profileID, videoID, title, channelName string)

// Server provides the HTTP API consumed by the presentation layer.
type Server struct {
	engine   *engine.Engine
	catalogs *cache.Manager
	provider Provider

	profiles repository.ProfileRepository
	settings repository.SettingRepository
	channels repository.ChannelRepository
	videos   repository.VideoRepository
	filters  repository.WordFilterRepository

	searchMax     int
	notifyRequest RequestNotifier

	logger *logrus.Logger
	mux    *http.ServeMux
}

// NewServer creates a Server, registers all routes, and returns it.
// notifyRequest may be nil.
func NewServer(
	eng *engine.Engine,
	catalogs *cache.Manager,
	provider Provider,
	profiles repository.ProfileRepository,
	settings repository.SettingRepository,
	channels repository.ChannelRepository,
	videos repository.VideoRepository,
	filters repository.WordFilterRepository,
	searchMax int,
	notifyRequest RequestNotifier,
	logger *logrus.Logger,
) *Server {
	s := &Server{
		engine:        eng,
		catalogs:      catalogs,
		provider:      provider,
		profiles:      profiles,
		settings:      settings,
		channels:      channels,
		videos:        videos,
		filters:       filters,
		searchMax:     searchMax,
		notifyRequest: notifyRequest,
		logger:        logger,
		mux:           http.NewServeMux(),
	}
	s.routes()
	return s
}

// Handler returns the http.Handler that can be passed to http.Server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ---------------------------------------------------------------------------
// Routes
// ---------------------------------------------------------------------------

func (s *Server) routes() {
	// Child-facing reads
	s.mux.HandleFunc("GET /api/catalog", s.handleCatalog)
	s.mux.HandleFunc("GET /api/gate/{videoID}", s.handleGate)
	s.mux.HandleFunc("GET /api/status/{videoID}", s.handleStatus)
	s.mux.HandleFunc("POST /api/heartbeat", s.handleHeartbeat)
	s.mux.HandleFunc("GET /api/search", s.handleSearch)
	s.mux.HandleFunc("POST /api/requests", s.handleRequest)

	// Administrative setters (drive the cache invalidation protocol)
	s.mux.HandleFunc("PUT /api/settings", s.handlePutSetting)
	s.mux.HandleFunc("POST /api/channels", s.handleAddChannel)
	s.mux.HandleFunc("DELETE /api/channels", s.handleRemoveChannel)
	s.mux.HandleFunc("PUT /api/channels/category", s.handleChannelCategory)
	s.mux.HandleFunc("GET /api/filters", s.handleListFilters)
	s.mux.HandleFunc("POST /api/filters", s.handleAddFilter)
	s.mux.HandleFunc("DELETE /api/filters/{word}", s.handleRemoveFilter)
	s.mux.HandleFunc("GET /api/profiles", s.handleListProfiles)
	s.mux.HandleFunc("POST /api/profiles", s.handleCreateProfile)
	s.mux.HandleFunc("DELETE /api/profiles/{id}", s.handleDeleteProfile)

	// Operational
	s.mux.Handle("GET /metrics", promhttp.Handler())
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

// ---------------------------------------------------------------------------
// JSON helpers
// ---------------------------------------------------------------------------

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.logger.WithError(err).Error("failed to encode JSON response")
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// decodeJSON reads the request body into dst and returns an error message on
// failure.  The caller should return immediately when ok == false.
func (s *Server) decodeJSON(r *http.Request, dst any) (ok bool, errMsg string) {
	if r.Body == nil {
		return false, "request body is empty"
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return false, fmt.Sprintf("invalid JSON: %v", err)
	}
	return true, ""
}

// profileParam reads the profile query parameter, defaulting to the
// designated default profile. Unknown ids are accepted here: resolvers
// treat them as "no restriction / empty catalog" by design.
func profileParam(r *http.Request) string {
	if p := r.URL.Query().Get("profile"); p != "" {
		return p
	}
	return models.DefaultProfileID
}

// ---------------------------------------------------------------------------
// Catalog
// ---------------------------------------------------------------------------

type catalogResponse struct {
	Videos  []*models.Video `json:"videos"`
	HasMore bool            `json:"has_more"`
	Total   int             `json:"total"`
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	profileID := profileParam(r)

	offset := 0
	if raw := q.Get("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			offset = v
		}
	}
	limit := 24
	if raw := q.Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 && v <= 100 {
			limit = v
		}
	}

	var full []*models.Video
	switch q.Get("mode") {
	case "", "videos":
		full = s.catalogs.Build(r.Context(), profileID, q.Get("channel"))
	case "shorts":
		full = s.catalogs.BuildShorts(r.Context(), profileID)
	case "requests":
		full = s.catalogs.BuildRequests(r.Context(), profileID, 50)
	default:
		s.respondError(w, http.StatusBadRequest, "mode must be videos, shorts or requests")
		return
	}

	if cat := q.Get("category"); cat != "" {
		filtered := make([]*models.Video, 0, len(full))
		for _, v := range full {
			if string(v.Category) == cat {
				filtered = append(filtered, v)
			}
		}
		full = filtered
	}

	total := len(full)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	s.respondJSON(w, http.StatusOK, catalogResponse{
		Videos:  full[offset:end],
		HasMore: end < total,
		Total:   total,
	})
}

// ---------------------------------------------------------------------------
// Gating, status, heartbeat
// ---------------------------------------------------------------------------

func (s *Server) handleGate(w http.ResponseWriter, r *http.Request) {
	videoID := r.PathValue("videoID")
	if !videoIDRe.MatchString(videoID) {
		s.respondError(w, http.StatusBadRequest, "invalid video id")
		return
	}
	profileID := profileParam(r)

	decision := s.engine.Gate(r.Context(), profileID, videoID)
	if decision.Reason == engine.ReasonNotFound {
		if s.autoApprove(r.Context(), profileID, videoID) {
			decision = s.engine.Gate(r.Context(), profileID, videoID)
		}
	}
	s.respondJSON(w, http.StatusOK, decision)
}

// autoApprove admits a video that is not yet in the store when its channel
// is allowlisted for the profile. Returns true when the video was approved.
func (s *Server) autoApprove(ctx context.Context, profileID, videoID string) bool {
	metadata, err := s.provider.FetchVideoMetadata(ctx, videoID)
	if err != nil {
		s.logger.WithError(err).Errorf("Metadata fetch failed for %s", videoID)
		return false
	}
	if metadata == nil {
		return false
	}

	allowed, err := s.channels.GetByStatus(ctx, profileID, models.ChannelStatusAllowed)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load allowed channels")
		return false
	}
	permitted := false
	for _, ch := range allowed {
		if (ch.ChannelID != "" && ch.ChannelID == metadata.ChannelID) ||
			strings.EqualFold(ch.ChannelName, metadata.ChannelName) {
			permitted = true
			break
		}
	}
	if !permitted {
		return false
	}

	metadata.Status = models.VideoStatusApproved
	if err := s.videos.Upsert(ctx, profileID, metadata); err != nil {
		s.logger.WithError(err).Errorf("Failed to store auto-approved video %s", videoID)
		return false
	}
	s.catalogs.InvalidateCatalog(profileID)
	s.logger.Infof("Auto-approved video %s for profile %s (channel %q allowlisted)", videoID, profileID, metadata.ChannelName)
	return true
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	videoID := r.PathValue("videoID")
	if !videoIDRe.MatchString(videoID) {
		s.respondJSON(w, http.StatusOK, map[string]string{"status": "not_found"})
		return
	}
	video, err := s.videos.Get(r.Context(), profileParam(r), videoID)
	if err != nil {
		s.logger.WithError(err).Error("failed to get video status")
		s.respondError(w, http.StatusInternalServerError, "failed to get video status")
		return
	}
	if video == nil {
		s.respondJSON(w, http.StatusOK, map[string]string{"status": "not_found"})
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": string(video.Status)})
}

type heartbeatRequest struct {
	ProfileID string `json:"profile_id"`
	VideoID   string `json:"video_id"`
	Seconds   int    `json:"seconds"`
}

func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	var req heartbeatRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}
	if !videoIDRe.MatchString(req.VideoID) {
		s.respondError(w, http.StatusBadRequest, engine.ReasonInvalid)
		return
	}
	if req.ProfileID == "" {
		req.ProfileID = models.DefaultProfileID
	}

	result := s.engine.Heartbeat(r.Context(), req.ProfileID, req.VideoID, req.Seconds)
	status := http.StatusOK
	switch result.Reason {
	case engine.ReasonNotWatching, engine.ReasonNotApproved:
		status = http.StatusBadRequest
	case engine.ReasonOutsideSchedule:
		status = http.StatusForbidden
	}
	s.respondJSON(w, status, result)
}

// ---------------------------------------------------------------------------
// Administrative setters
// ---------------------------------------------------------------------------

type putSettingRequest struct {
	ProfileID string `json:"profile_id"`
	Key       string `json:"key"`
	Value     string `json:"value"`
}

func (s *Server) handlePutSetting(w http.ResponseWriter, r *http.Request) {
	var req putSettingRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}
	if req.Key == "" {
		s.respondError(w, http.StatusBadRequest, "key is required")
		return
	}
	if req.ProfileID == "" {
		req.ProfileID = models.DefaultProfileID
	}
	if !s.profileExists(w, r, req.ProfileID) {
		return
	}

	if err := s.settings.Set(r.Context(), req.ProfileID, req.Key, req.Value); err != nil {
		s.logger.WithError(err).Error("failed to set setting")
		s.respondError(w, http.StatusInternalServerError, "failed to set setting")
		return
	}

	// A shorts toggle changes what the refresh loop fetches.
	if strings.HasSuffix(req.Key, "shorts_enabled") {
		s.catalogs.InvalidateChannels(req.ProfileID)
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type addChannelRequest struct {
	ProfileID   string `json:"profile_id"`
	ChannelName string `json:"channel_name"`
	Status      string `json:"status"`
	ChannelID   string `json:"channel_id"`
	Handle      string `json:"handle"`
	Category    string `json:"category"`
}

func (s *Server) handleAddChannel(w http.ResponseWriter, r *http.Request) {
	var req addChannelRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}
	if strings.TrimSpace(req.ChannelName) == "" {
		s.respondError(w, http.StatusBadRequest, "channel_name is required")
		return
	}
	status := models.ChannelStatus(req.Status)
	if status != models.ChannelStatusAllowed && status != models.ChannelStatusBlocked {
		s.respondError(w, http.StatusBadRequest, "status must be allowed or blocked")
		return
	}
	if req.ProfileID == "" {
		req.ProfileID = models.DefaultProfileID
	}
	if !s.profileExists(w, r, req.ProfileID) {
		return
	}

	channel := &models.Channel{
		ProfileID:   req.ProfileID,
		ChannelName: strings.TrimSpace(req.ChannelName),
		Status:      status,
		ChannelID:   req.ChannelID,
		Handle:      req.Handle,
		Category:    models.Category(req.Category),
	}
	channel, err := s.channels.Add(r.Context(), channel)
	if err != nil {
		s.logger.WithError(err).Error("failed to add channel")
		s.respondError(w, http.StatusInternalServerError, "failed to add channel")
		return
	}

	s.catalogs.InvalidateChannels(req.ProfileID)
	s.respondJSON(w, http.StatusCreated, channel)
}

func (s *Server) handleRemoveChannel(w http.ResponseWriter, r *http.Request) {
	profileID := profileParam(r)
	name := r.URL.Query().Get("name")
	if name == "" {
		s.respondError(w, http.StatusBadRequest, "name query parameter is required")
		return
	}
	if err := s.channels.Remove(r.Context(), profileID, name); err != nil {
		s.respondError(w, http.StatusNotFound, err.Error())
		return
	}
	s.catalogs.InvalidateChannels(profileID)
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type channelCategoryRequest struct {
	ProfileID   string `json:"profile_id"`
	ChannelName string `json:"channel_name"`
	Category    string `json:"category"`
}

func (s *Server) handleChannelCategory(w http.ResponseWriter, r *http.Request) {
	var req channelCategoryRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}
	if req.ProfileID == "" {
		req.ProfileID = models.DefaultProfileID
	}
	cat := models.Category(req.Category)
	if cat != "" && cat != models.CategoryEdu && cat != models.CategoryFun {
		s.respondError(w, http.StatusBadRequest, "category must be edu, fun or empty")
		return
	}
	if err := s.channels.SetCategory(r.Context(), req.ProfileID, req.ChannelName, cat); err != nil {
		s.respondError(w, http.StatusNotFound, err.Error())
		return
	}
	s.catalogs.InvalidateChannels(req.ProfileID)
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListFilters(w http.ResponseWriter, r *http.Request) {
	words, err := s.filters.List(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("failed to list word filters")
		s.respondError(w, http.StatusInternalServerError, "failed to list word filters")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string][]string{"words": words})
}

func (s *Server) handleAddFilter(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Word string `json:"word"`
	}
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}
	added, err := s.filters.Add(r.Context(), req.Word)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if added {
		s.catalogs.InvalidateFilters()
	}
	s.respondJSON(w, http.StatusCreated, map[string]bool{"added": added})
}

func (s *Server) handleRemoveFilter(w http.ResponseWriter, r *http.Request) {
	removed, err := s.filters.Remove(r.Context(), r.PathValue("word"))
	if err != nil {
		s.logger.WithError(err).Error("failed to remove word filter")
		s.respondError(w, http.StatusInternalServerError, "failed to remove word filter")
		return
	}
	if removed {
		s.catalogs.InvalidateFilters()
	}
	s.respondJSON(w, http.StatusOK, map[string]bool{"removed": removed})
}

// ---------------------------------------------------------------------------
// Profiles
// ---------------------------------------------------------------------------

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.profiles.List(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("failed to list profiles")
		s.respondError(w, http.StatusInternalServerError, "failed to list profiles")
		return
	}
	s.respondJSON(w, http.StatusOK, profiles)
}

type createProfileRequest struct {
	DisplayName string `json:"display_name"`
	AccessCode  string `json:"access_code"`
	AvatarIcon  string `json:"avatar_icon"`
	AvatarColor string `json:"avatar_color"`
}

func (s *Server) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	var req createProfileRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}
	if strings.TrimSpace(req.DisplayName) == "" {
		s.respondError(w, http.StatusBadRequest, "display_name is required")
		return
	}

	profile := &models.Profile{
		ID:          uuid.NewString(),
		DisplayName: strings.TrimSpace(req.DisplayName),
		AccessCode:  req.AccessCode,
		AvatarIcon:  req.AvatarIcon,
		AvatarColor: req.AvatarColor,
	}
	profile, err := s.profiles.Create(r.Context(), profile)
	if err != nil {
		s.logger.WithError(err).Error("failed to create profile")
		s.respondError(w, http.StatusInternalServerError, "failed to create profile")
		return
	}
	s.respondJSON(w, http.StatusCreated, profile)
}

func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.profiles.Delete(r.Context(), id); err != nil {
		s.respondError(w, http.StatusNotFound, err.Error())
		return
	}
	s.catalogs.InvalidateChannels(id)
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// profileExists 404s admin mutations aimed at unknown profiles so typos
// don't silently write orphan settings. The default profile always exists
// logically, even before any row is created for it.
func (s *Server) profileExists(w http.ResponseWriter, r *http.Request, profileID string) bool {
	if profileID == models.DefaultProfileID {
		return true
	}
	profile, err := s.profiles.GetByID(r.Context(), profileID)
	if err != nil {
		s.logger.WithError(err).Error("failed to look up profile")
		s.respondError(w, http.StatusInternalServerError, "failed to look up profile")
		return false
	}
	if profile == nil {
		s.respondError(w, http.StatusNotFound, "profile not found")
		return false
	}
	return true
}
