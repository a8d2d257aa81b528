package api

import (
	"embed"
	"html/template"

	"github.com/gin-gonic/gin"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/linkedin-postgen/internal/agent/generator"
	"github.com/linkedin-postgen/internal/config"
	"github.com/linkedin-postgen/internal/export"
	"github.com/linkedin-postgen/internal/storage"
	"github.com/linkedin-postgen/pkg/logger"
)

//go:embed templates/*.html
var templateFS embed.FS

// Server serves the web form, the JSON API and the progress websocket
type Server struct {
	agent    *generator.Agent
	ideas    storage.Repository
	defaults config.GenerationConfig
	markdown goldmark.Markdown
	log      *logger.Logger
}

// NewServer creates a server. ideas may be nil when the inbox is disabled.
func NewServer(agent *generator.Agent, ideas storage.Repository, defaults config.GenerationConfig, log *logger.Logger) *Server {
	return &Server{
		agent:    agent,
		ideas:    ideas,
		defaults: defaults,
		markdown: goldmark.New(goldmark.WithRendererOptions(html.WithHardWraps())),
		log:      log.WithComponent("api"),
	}
}

// Router builds the gin engine with every route registered
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), RequestLogger(s.log), gin.Recovery())

	tmpl := template.Must(template.New("").Funcs(template.FuncMap{
		// data: URLs are rejected by html/template unless typed
		"datauri": func(text string) template.URL {
			return template.URL(export.DataURI(text))
		},
	}).ParseFS(templateFS, "templates/*.html"))
	r.SetHTMLTemplate(tmpl)

	r.GET("/", s.index)
	r.POST("/generate", s.generateForm)
	r.GET("/health", s.health)
	r.GET("/ws/generate", s.generateWebSocket)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/posts", s.generatePosts)
		v1.GET("/tones", s.listTones)
		v1.GET("/ideas", s.listIdeas)
		v1.GET("/ideas/:id", s.getIdea)
	}

	return r
}
