package api

import (
	"net/http"
	"strings"

	"github.com/tubegate/tubegate/internal/models"
	"github.com/tubegate/tubegate/internal/youtube"
)

type searchResponse struct {
	Query   string          `json:"query"`
	Results []*models.Video `json:"results"`
}

// handleSearch runs a provider search and applies the profile's content
// policy to the results. A query that itself contains a filtered word
// returns an empty result set without hitting the provider.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" || len(query) > 200 {
		s.respondError(w, http.StatusBadRequest, "q must be 1-200 characters")
		return
	}
	profileID := profileParam(r)

	if s.catalogs.QueryBlocked(r.Context(), query) {
		s.respondJSON(w, http.StatusOK, searchResponse{Query: query, Results: []*models.Video{}})
		return
	}

	// A pasted URL or raw id skips the search and looks up that one video.
	var results []*models.Video
	if videoID := youtube.ExtractVideoID(query); videoID != "" {
		video, err := s.provider.FetchVideoMetadata(r.Context(), videoID)
		if err != nil {
			s.logger.WithError(err).Errorf("Metadata fetch failed for %s", videoID)
			s.respondError(w, http.StatusBadGateway, "video lookup failed")
			return
		}
		if video != nil {
			results = []*models.Video{video}
		}
	} else {
		var err error
		results, err = s.provider.Search(r.Context(), query, s.searchMax)
		if err != nil {
			s.logger.WithError(err).Errorf("Search failed for %q", query)
			s.respondError(w, http.StatusBadGateway, "search failed")
			return
		}
	}

	results = s.catalogs.FilterSearchResults(r.Context(), profileID, results)
	if results == nil {
		results = []*models.Video{}
	}
	s.respondJSON(w, http.StatusOK, searchResponse{Query: query, Results: results})
}

type requestVideoRequest struct {
	ProfileID string `json:"profile_id"`
	VideoID   string `json:"video_id"`
}

// handleRequest records a child's request to watch a video. The video lands
// in the store as pending and the parent chat is notified; an existing
// record keeps its status so a denied video cannot be re-requested back to
// pending.
func (s *Server) handleRequest(w http.ResponseWriter, r *http.Request) {
	var req requestVideoRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}
	videoID := youtube.ExtractVideoID(req.VideoID)
	if videoID == "" {
		s.respondError(w, http.StatusBadRequest, "invalid video id")
		return
	}
	if req.ProfileID == "" {
		req.ProfileID = models.DefaultProfileID
	}

	existing, err := s.videos.Get(r.Context(), req.ProfileID, videoID)
	if err != nil {
		s.logger.WithError(err).Error("failed to look up video request")
		s.respondError(w, http.StatusInternalServerError, "failed to look up video")
		return
	}
	if existing != nil {
		s.respondJSON(w, http.StatusOK, map[string]string{"status": string(existing.Status)})
		return
	}

	metadata, err := s.provider.FetchVideoMetadata(r.Context(), videoID)
	if err != nil {
		s.logger.WithError(err).Errorf("Metadata fetch failed for %s", videoID)
		s.respondError(w, http.StatusBadGateway, "video lookup failed")
		return
	}
	if metadata == nil {
		s.respondError(w, http.StatusNotFound, "video not found")
		return
	}

	metadata.Status = models.VideoStatusPending
	if err := s.videos.Upsert(r.Context(), req.ProfileID, metadata); err != nil {
		s.logger.WithError(err).Errorf("Failed to store video request %s", videoID)
		s.respondError(w, http.StatusInternalServerError, "failed to store request")
		return
	}

	if s.notifyRequest != nil {
		s.notifyRequest(req.ProfileID, videoID, metadata.Title, metadata.ChannelName)
	}
	s.logger.Infof("Video %s requested for profile %s", videoID, req.ProfileID)
	s.respondJSON(w, http.StatusCreated, map[string]string{"status": string(models.VideoStatusPending)})
}
