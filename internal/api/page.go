package api

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/linkedin-postgen/internal/agent/generator"
	"github.com/linkedin-postgen/internal/models"
	"github.com/linkedin-postgen/internal/storage"
)

const recentIdeas = 10

// pageData feeds templates/index.html
type pageData struct {
	Tones     []string
	Counts    []int
	Topic     string
	Tone      string
	Audience  string
	PostCount int
	IdeaID    uint
	Ideas     []*models.Idea
	Error     string
	Result    *resultView
}

type resultView struct {
	RunID     string
	Requested int
	Mismatch  bool
	Posts     []postView
}

// postView is one rendered post with its download and copy affordances
type postView struct {
	Index    int
	Text     string
	HTML     template.HTML
	Filename string
	CopyID   string
}

func (s *Server) newPageData() pageData {
	counts := make([]int, 0, models.MaxPostCount)
	for i := models.MinPostCount; i <= models.MaxPostCount; i++ {
		counts = append(counts, i)
	}
	tone := s.defaults.DefaultTone
	if t, err := models.ParseTone(tone); err == nil {
		tone = string(t)
	} else {
		tone = string(models.ToneProfessional)
	}
	return pageData{
		Tones:     models.ToneNames(),
		Counts:    counts,
		Tone:      tone,
		PostCount: s.defaultCount(),
	}
}

func (s *Server) withIdeas(c *gin.Context, data *pageData) {
	if s.ideas == nil {
		return
	}
	status := models.IdeaStatusNew
	filter := storage.DefaultIdeaFilter()
	filter.Status = &status
	filter.Limit = recentIdeas
	ideas, err := s.ideas.ListIdeas(c.Request.Context(), filter)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to load ideas for form")
		return
	}
	data.Ideas = ideas
}

// index handles GET /, optionally pre-filled from ?idea=ID
func (s *Server) index(c *gin.Context) {
	data := s.newPageData()
	status := http.StatusOK
	if raw := c.Query("idea"); raw != "" {
		idea, err := s.findIdea(c.Request.Context(), raw)
		if err != nil {
			var apiErr *APIError
			status, apiErr = toAPIError(err)
			if status == http.StatusInternalServerError {
				s.log.Warn().Err(err).Msg("Failed to load idea")
			}
			data.Error = apiErr.Message
		} else {
			data.Topic = idea.Title
			data.IdeaID = idea.ID
		}
	}
	s.withIdeas(c, &data)
	c.HTML(status, "index.html", data)
}

// generateForm handles POST /generate from the HTML form
func (s *Server) generateForm(c *gin.Context) {
	data := s.newPageData()

	var in generateRequest
	if err := c.ShouldBind(&in); err != nil {
		data.Error = "Could not read the form: " + err.Error()
		c.HTML(http.StatusBadRequest, "index.html", data)
		return
	}
	data.Topic, data.Audience, data.IdeaID = in.Topic, in.Audience, in.IdeaID
	if in.Tone != "" {
		data.Tone = in.Tone
	}
	if in.PostCount != nil {
		data.PostCount = *in.PostCount
	}

	req, err := s.toGenerationRequest(in)
	if err == nil {
		var result *generator.Result
		result, err = s.agent.Run(c.Request.Context(), req, nil)
		if err == nil {
			s.markIdeaUsed(c.Request.Context(), in.IdeaID)
			data.Result = s.render(result)
			s.withIdeas(c, &data)
			c.HTML(http.StatusOK, "index.html", data)
			return
		}
	}

	status, apiErr := toAPIError(err)
	data.Error = apiErr.Message
	if apiErr.Details != "" {
		data.Error += ": " + apiErr.Details
	}
	s.withIdeas(c, &data)
	c.HTML(status, "index.html", data)
}

func (s *Server) render(result *generator.Result) *resultView {
	view := &resultView{
		RunID:     result.RunID,
		Requested: result.Collection.Requested,
		Mismatch:  result.Collection.Mismatch(),
		Posts:     make([]postView, 0, result.Collection.Count()),
	}
	for _, p := range result.Collection.Posts {
		view.Posts = append(view.Posts, postView{
			Index:    p.Index,
			Text:     p.Text,
			HTML:     s.markdownHTML(p.Text),
			Filename: p.Filename(),
			CopyID:   uuid.NewString(),
		})
	}
	return view
}

// markdownHTML renders post text; raw HTML in the text is escaped by goldmark
func (s *Server) markdownHTML(text string) template.HTML {
	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String())
}
