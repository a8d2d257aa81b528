package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/linkedin-postgen/internal/agent/generator"
	apperrors "github.com/linkedin-postgen/internal/errors"
	"github.com/linkedin-postgen/internal/models"
	"github.com/linkedin-postgen/internal/storage"
)

// generateRequest is the wire form of a generation request.
// Tone is matched case-insensitively; a missing count uses the configured default.
type generateRequest struct {
	Topic     string `json:"topic" form:"topic"`
	Tone      string `json:"tone" form:"tone"`
	Audience  string `json:"audience" form:"audience"`
	PostCount *int   `json:"post_count" form:"post_count"`
	IdeaID    uint   `json:"idea_id" form:"idea_id"`
}

// postsResponse is the JSON body of a successful run
type postsResponse struct {
	RunID      string        `json:"run_id"`
	Posts      []models.Post `json:"posts"`
	Requested  int           `json:"requested"`
	Count      int           `json:"count"`
	Mismatch   bool          `json:"mismatch"`
	DurationMs int64         `json:"duration_ms"`
}

func newPostsResponse(result *generator.Result) postsResponse {
	return postsResponse{
		RunID:      result.RunID,
		Posts:      result.Collection.Posts,
		Requested:  result.Collection.Requested,
		Count:      result.Collection.Count(),
		Mismatch:   result.Collection.Mismatch(),
		DurationMs: result.Duration.Milliseconds(),
	}
}

func (s *Server) toGenerationRequest(in generateRequest) (models.GenerationRequest, error) {
	toneName := in.Tone
	if toneName == "" {
		toneName = s.defaults.DefaultTone
	}
	tone := models.ToneProfessional
	if toneName != "" {
		t, err := models.ParseTone(toneName)
		if err != nil {
			return models.GenerationRequest{}, apperrors.NewValidationError("invalid tone", err)
		}
		tone = t
	}

	count := s.defaults.DefaultPostCount
	if count == 0 {
		count = models.DefaultPostCount
	}
	if in.PostCount != nil {
		count = *in.PostCount
	}

	req := models.GenerationRequest{
		Topic:     in.Topic,
		Tone:      tone,
		Audience:  in.Audience,
		PostCount: count,
	}
	if err := req.Validate(); err != nil {
		return models.GenerationRequest{}, apperrors.NewValidationError("invalid generation request", err)
	}
	return req, nil
}

// markIdeaUsed flags the idea a run was started from; failures are only logged
func (s *Server) markIdeaUsed(ctx context.Context, id uint) {
	if id == 0 || s.ideas == nil {
		return
	}
	if err := s.ideas.UpdateIdeaStatus(ctx, id, models.IdeaStatusUsed); err != nil {
		s.log.WithIdeaID(id).Warn().Err(err).Msg("Failed to mark idea as used")
	}
}

// generatePosts handles POST /api/v1/posts
func (s *Server) generatePosts(c *gin.Context) {
	var in generateRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		failure(c, http.StatusBadRequest, &APIError{Code: "INVALID_REQUEST", Message: "malformed JSON body", Details: err.Error()})
		return
	}

	req, err := s.toGenerationRequest(in)
	if err != nil {
		status, apiErr := toAPIError(err)
		failure(c, status, apiErr)
		return
	}

	result, err := s.agent.Run(c.Request.Context(), req, nil)
	if err != nil {
		status, apiErr := toAPIError(err)
		failure(c, status, apiErr)
		return
	}

	s.markIdeaUsed(c.Request.Context(), in.IdeaID)
	success(c, newPostsResponse(result))
}

// listTones handles GET /api/v1/tones
func (s *Server) listTones(c *gin.Context) {
	success(c, gin.H{
		"tones":          models.ToneNames(),
		"min_post_count": models.MinPostCount,
		"max_post_count": models.MaxPostCount,
		"default_count":  s.defaultCount(),
	})
}

// listIdeas handles GET /api/v1/ideas?limit=&status=
func (s *Server) listIdeas(c *gin.Context) {
	if s.ideas == nil {
		failure(c, http.StatusServiceUnavailable, &APIError{Code: "IDEAS_DISABLED", Message: "idea inbox is not configured"})
		return
	}

	filter := storage.DefaultIdeaFilter()
	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			failure(c, http.StatusBadRequest, &APIError{Code: "INVALID_REQUEST", Message: "limit must be a positive integer"})
			return
		}
		filter.Limit = limit
	}
	status := models.IdeaStatus(c.DefaultQuery("status", string(models.IdeaStatusNew)))
	if status != "all" {
		filter.Status = &status
	}

	ideas, err := s.ideas.ListIdeas(c.Request.Context(), filter)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list ideas")
		failure(c, http.StatusInternalServerError, &APIError{Code: "INTERNAL_ERROR", Message: "failed to list ideas"})
		return
	}
	success(c, gin.H{"ideas": ideas, "count": len(ideas)})
}

// health handles GET /health
func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"provider": s.agent.ProviderName(),
		"ideas":    s.ideas != nil,
	})
}

func (s *Server) defaultCount() int {
	if s.defaults.DefaultPostCount > 0 {
		return s.defaults.DefaultPostCount
	}
	return models.DefaultPostCount
}

// findIdea resolves an idea ID from a path or query value
func (s *Server) findIdea(ctx context.Context, raw string) (*models.Idea, error) {
	if s.ideas == nil {
		return nil, apperrors.NewNotFoundError("idea inbox is not configured", nil)
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, apperrors.NewValidationError("idea id must be a positive integer", err)
	}
	idea, err := s.ideas.GetIdeaByID(ctx, uint(id))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("idea %d not found", id), err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load idea %d: %w", id, err)
	}
	return idea, nil
}

// getIdea handles GET /api/v1/ideas/:id
func (s *Server) getIdea(c *gin.Context) {
	idea, err := s.findIdea(c.Request.Context(), c.Param("id"))
	if err != nil {
		status, apiErr := toAPIError(err)
		if status == http.StatusInternalServerError {
			s.log.Error().Err(err).Msg("Failed to load idea")
		}
		failure(c, status, apiErr)
		return
	}
	success(c, idea)
}
