// Package gateway is the HTTP surface in front of the backend agent
// service: a case-converting JSON proxy (camelCase clients, snake_case
// backend) that passes event streams through untouched.
package gateway

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Server proxies client requests to the backend service.
type Server struct {
	backendURL string
	client     *http.Client
}

// NewServer creates a gateway for the given backend base URL.
func NewServer(backendURL string) *Server {
	return &Server{
		backendURL: strings.TrimRight(backendURL, "/"),
		// No timeout: SSE responses stay open indefinitely.
		client: &http.Client{},
	}
}

// SetupRouter wires the proxy routes.
func (s *Server) SetupRouter() *gin.Engine {
	r := gin.Default()

	r.GET("/api/health", s.health)

	agents := r.Group("/api/agents")
	agents.GET("", func(c *gin.Context) { s.proxy(c, "/agents") })
	agents.GET("/:id", func(c *gin.Context) { s.proxy(c, "/agents/"+url.PathEscape(c.Param("id"))) })
	agents.GET("/:id/messages", func(c *gin.Context) {
		s.proxy(c, "/agents/"+url.PathEscape(c.Param("id"))+"/messages")
	})
	agents.POST("/:id/messages", func(c *gin.Context) {
		s.proxy(c, "/agents/"+url.PathEscape(c.Param("id"))+"/messages")
	})
	agents.POST("/:id/chat", func(c *gin.Context) {
		s.proxy(c, "/agents/"+url.PathEscape(c.Param("id"))+"/chat")
	})

	return r
}

// health passes the backend liveness probe through. A network failure
// becomes a fixed 502 payload.
func (s *Server) health(c *gin.Context) {
	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, s.backendURL+"/health", nil)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to fetch backend /health"})
		return
	}

	resp, err := s.client.Do(req)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to fetch backend /health"})
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil || !json.Valid(body) {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to fetch backend /health"})
		return
	}
	c.Data(resp.StatusCode, "application/json", body)
}

// proxy forwards one request to the backend: JSON request bodies are
// rewritten camelCase→snake_case, JSON responses snake_case→camelCase,
// and text/event-stream responses stream through unmodified.
func (s *Server) proxy(c *gin.Context, backendPath string) {
	var body io.Reader
	if c.Request.Body != nil {
		raw, err := io.ReadAll(io.LimitReader(c.Request.Body, 4<<20))
		if err != nil {
			s.proxyError(c, err)
			return
		}
		if len(raw) > 0 {
			var decoded any
			if err := json.Unmarshal(raw, &decoded); err == nil {
				converted, err := json.Marshal(ToSnake(decoded))
				if err != nil {
					s.proxyError(c, err)
					return
				}
				body = strings.NewReader(string(converted))
			} else {
				// Not JSON; forward as-is.
				body = strings.NewReader(string(raw))
			}
		}
	}

	target := s.backendURL + backendPath
	if q := c.Request.URL.RawQuery; q != "" {
		target += "?" + q
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), c.Request.Method, target, body)
	if err != nil {
		s.proxyError(c, err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if accept := c.GetHeader("Accept"); accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.proxyError(c, err)
		return
	}
	defer resp.Body.Close()

	if strings.Contains(resp.Header.Get("Content-Type"), "text/event-stream") {
		s.streamThrough(c, resp)
		return
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		s.proxyError(c, err)
		return
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		s.proxyError(c, err)
		return
	}
	c.JSON(resp.StatusCode, ToCamel(decoded))
}

// streamThrough copies an event stream to the client, flushing after every
// chunk so events are delivered as they arrive. SSE payloads are not
// case-converted.
func (s *Server) streamThrough(c *gin.Context, resp *http.Response) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache, no-transform")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(resp.StatusCode)
	c.Writer.Flush()

	buf := make([]byte, 4096)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := c.Writer.Write(buf[:n]); werr != nil {
				return
			}
			c.Writer.Flush()
		}
		if err != nil {
			return
		}
	}
}

func (s *Server) proxyError(c *gin.Context, err error) {
	log.Printf("[gateway] proxy error: %v", err)
	c.JSON(http.StatusBadGateway, gin.H{"error": "failed to proxy request"})
}

// Run starts the gateway on the given port.
func (s *Server) Run(port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           s.SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}
