package app

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"meshgateway/internal/mesh"
)

// ContentSource is the part of the Mesh client the gateway depends on.
type ContentSource interface {
	ResolveNode(ctx context.Context, path string) (*mesh.Node, error)
	LoadNavigation(ctx context.Context) (mesh.Navigation, error)
	LoadChildren(ctx context.Context, nodeUUID string) ([]mesh.Node, error)
	FetchBinary(ctx context.Context, path string) (*mesh.Binary, error)
}

// Server wires handlers, templates, and the CMS client together.
type Server struct {
	cfg       Config
	cms       ContentSource
	templates *template.Template
	log       *slog.Logger
	mux       *http.ServeMux
	navGroup  singleflight.Group
}

// Client facing messages.
const (
	msgNotFound    = "Page not found"
	msgUnknownType = "Unknown element type for given path"
	msgServerError = "Oh uh, something went wrong"
)

// NewServer constructs an HTTP handler ready to serve catalog requests.
func NewServer(cms ContentSource, cfg Config, logger *slog.Logger) (*Server, error) {
	tmpl, err := parseTemplates(cfg.Locale)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	srv := &Server{
		cfg:       cfg,
		cms:       cms,
		templates: tmpl,
		log:       logger,
		mux:       http.NewServeMux(),
	}

	srv.mux.HandleFunc("/", srv.handleIndex)

	return srv, nil
}

// ServeHTTP satisfies http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

	defer func() {
		if v := recover(); v != nil {
			if v == http.ErrAbortHandler {
				panic(v)
			}
			s.log.Error("handler panic", "path", r.URL.Path, "panic", v)
			if !rec.wroteHeader {
				http.Error(rec, msgServerError, http.StatusInternalServerError)
			}
		}
		s.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	}()

	s.mux.ServeHTTP(rec, r)
}

// handleIndex is the catch-all route. The root path gets the welcome page;
// everything else is either a binary asset or a content node.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	p := NormalizePath(r.URL.Path)
	switch {
	case p == "/":
		s.handleWelcome(w, r)
	case IsBinaryPath(p):
		s.handleBinary(w, r, p)
	default:
		s.handleNode(w, r, p)
	}
}

func (s *Server) handleWelcome(w http.ResponseWriter, r *http.Request) {
	nav, err := s.navigation(r.Context())
	if err != nil {
		s.serverError(w, "load navigation", err)
		return
	}
	s.render(w, tmplWelcome, pageData{Navigation: nav})
}

func (s *Server) handleBinary(w http.ResponseWriter, r *http.Request, p string) {
	bin, err := s.cms.FetchBinary(r.Context(), p)
	if err != nil {
		s.resolveError(w, p, err)
		return
	}
	defer bin.Body.Close()

	contentType := bin.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	if bin.ContentLength >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(bin.ContentLength, 10))
	}
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}

	if _, err := io.Copy(w, bin.Body); err != nil {
		s.log.Warn("stream binary", "path", p, "err", err)
	}
}

// navigation loads the top navigation, sharing one upstream call between
// requests that ask at the same moment. Nothing is kept once it returns.
func (s *Server) navigation(ctx context.Context) (mesh.Navigation, error) {
	v, err, _ := s.navGroup.Do("navigation", func() (interface{}, error) {
		return s.cms.LoadNavigation(context.WithoutCancel(ctx))
	})
	if err != nil {
		return nil, err
	}
	nav, ok := v.(mesh.Navigation)
	if !ok {
		return nil, errors.New("navigation result type mismatch")
	}
	return nav, nil
}

// pageData is the variable set shared by all templates.
type pageData struct {
	Title      string
	Navigation mesh.Navigation
	Product    *mesh.Node
	Category   *mesh.Node
	Products   []mesh.Node
}

// render executes the template into a buffer first so a failing template
// never leaves a half written page behind.
func (s *Server) render(w http.ResponseWriter, name string, data pageData) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.serverError(w, "render "+name, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		s.log.Warn("write page", "template", name, "err", err)
	}
}

// resolveError maps a node or asset lookup failure onto a response.
func (s *Server) resolveError(w http.ResponseWriter, p string, err error) {
	if errors.Is(err, mesh.ErrNotFound) {
		s.log.Debug("not found", "path", p)
		http.Error(w, msgNotFound, http.StatusNotFound)
		return
	}
	s.serverError(w, "resolve "+p, err)
}

func (s *Server) serverError(w http.ResponseWriter, op string, err error) {
	s.log.Error("request failed", "op", op, "err", err)
	http.Error(w, msgServerError, http.StatusInternalServerError)
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.wroteHeader {
		return
	}
	r.status = code
	r.wroteHeader = true
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
