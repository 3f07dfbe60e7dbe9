package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/netgraph/pkg/buildinfo"
	"github.com/matzehuels/netgraph/pkg/errors"
	graphio "github.com/matzehuels/netgraph/pkg/io"
	"github.com/matzehuels/netgraph/pkg/netlist"
	"github.com/matzehuels/netgraph/pkg/observability"
	"github.com/matzehuels/netgraph/pkg/pipeline"
)

// errorResponse is the JSON body of every failed request.
type errorResponse struct {
	Code      errors.Code `json:"code"`
	Message   string      `json:"message"`
	Net       string      `json:"net,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// violation is one skipped net in a check report.
type violation struct {
	Net      string   `json:"net"`
	Kind     string   `json:"kind"`
	Code     string   `json:"code"`
	Drivers  []string `json:"drivers,omitempty"`
	Terminal string   `json:"terminal,omitempty"`
}

// checkResponse is the body of POST /v1/check.
type checkResponse struct {
	ID         string      `json:"id"`
	Design     string      `json:"design"`
	Valid      bool        `json:"valid"`
	Instances  int         `json:"instances"`
	Pins       int         `json:"pins"`
	Nets       int         `json:"nets"`
	Vertices   int         `json:"vertices"`
	Edges      int         `json:"edges"`
	Violations []violation `json:"violations"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

// handleBuild runs the pipeline on the request body and returns the graph in
// a single format.
func (s *Server) handleBuild(w http.ResponseWriter, r *http.Request) {
	opts, err := s.options(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.DefaultFormat
	}
	if format, err = pipeline.ValidateFormat(format); err != nil {
		s.writeError(w, r, err)
		return
	}
	opts.Formats = []string{format}
	opts.Detailed = boolParam(r, "detailed")

	res, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	h := w.Header()
	h.Set("Content-Type", contentType(format))
	h.Set("X-Build-ID", res.ID.String())
	h.Set("X-Graph-Vertices", strconv.Itoa(res.Stats.Vertices))
	h.Set("X-Graph-Edges", strconv.Itoa(res.Stats.Edges))
	h.Set("X-Violations", strconv.Itoa(len(res.Violations)))
	if res.CacheHit {
		h.Set("X-Cache", "HIT")
	} else {
		h.Set("X-Cache", "MISS")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Artifacts[format])
}

// handleCheck builds with SkipInvalid and reports every violation.
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	opts, err := s.options(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts.SkipInvalid = true

	src, err := s.runner.Load(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.runner.Build(r.Context(), src, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := checkResponse{
		ID:         middleware.GetReqID(r.Context()),
		Design:     src.Name,
		Valid:      len(res.Violations) == 0,
		Instances:  res.Stats.Instances,
		Pins:       res.Stats.Pins,
		Nets:       res.Stats.Nets,
		Vertices:   res.Stats.Vertices,
		Edges:      res.Stats.Edges,
		Violations: make([]violation, 0, len(res.Violations)),
	}
	for _, ne := range res.Violations {
		out.Violations = append(out.Violations, violation{
			Net:      ne.Net,
			Kind:     string(ne.Kind),
			Code:     string(ne.Code()),
			Drivers:  ne.Drivers,
			Terminal: ne.Terminal,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// options reads the netlist body and the build query parameters.
func (s *Server) options(w http.ResponseWriter, r *http.Request) (pipeline.Options, error) {
	q := r.URL.Query()
	opts := pipeline.Options{
		InputFormat: q.Get("input"),
		Design:      q.Get("design"),
		Undirected:  boolParam(r, "undirected"),
		Canonical:   boolParam(r, "canonical"),
		SkipInvalid: boolParam(r, "skip_invalid"),
		Refresh:     boolParam(r, "refresh"),
		Workers:     s.workers,
		Logger:      s.logger,
	}
	if opts.InputFormat == "" {
		opts.InputFormat = formatFromContentType(r.Header.Get("Content-Type"))
	}
	if opts.InputFormat == "" {
		return opts, errors.New(errors.ErrCodeInvalidInput,
			"netlist format required: set ?input= or a json, yaml, toml or hcl Content-Type")
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return opts, errors.New(errors.ErrCodeInvalidInput, "netlist exceeds %d bytes", tooLarge.Limit)
		}
		return opts, errors.Wrap(errors.ErrCodeInvalidInput, err, "read request body")
	}
	if len(body) == 0 {
		return opts, errors.New(errors.ErrCodeInvalidInput, "empty request body")
	}
	opts.Data = body
	return opts, nil
}

func boolParam(r *http.Request, name string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(name))
	return err == nil && v
}

// formatFromContentType maps a request media type to a netlist format.
func formatFromContentType(ct string) string {
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return ""
	}
	switch {
	case mt == "application/json" || strings.HasSuffix(mt, "+json"):
		return string(netlist.FormatJSON)
	case strings.Contains(mt, "yaml"):
		return string(netlist.FormatYAML)
	case strings.Contains(mt, "toml"):
		return string(netlist.FormatTOML)
	case strings.Contains(mt, "hcl"):
		return string(netlist.FormatHCL)
	}
	return ""
}

func contentType(format string) string {
	switch format {
	case pipeline.FormatSVG:
		return "image/svg+xml"
	case pipeline.FormatPNG:
		return "image/png"
	case pipeline.FormatPDF:
		return "application/pdf"
	}
	return graphio.Format(format).ContentType()
}

// statusFor maps an error code to an HTTP status.
func statusFor(err error) int {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeStructuralViolation, errors.ErrCodeReferentialIntegrity, errors.ErrCodeNameCollision:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidNetlist, errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := errorResponse{
		Code:      errors.GetCode(err),
		Message:   errors.UserMessage(err),
		RequestID: middleware.GetReqID(r.Context()),
	}
	if resp.Code == "" {
		resp.Code = errors.ErrCodeInternal
	}
	if ne, ok := errors.AsNetError(err); ok {
		resp.Net = ne.Net
		resp.Message = ne.Error()
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
		resp.Message = "internal error"
	} else {
		s.logger.Debug("request rejected", "path", r.URL.Path, "code", resp.Code, "error", err)
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// observe reports every request to the registered HTTP hooks.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hooks := observability.HTTP()
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		hooks.OnRequest(r.Context(), r.Method, route)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		hooks.OnResponse(r.Context(), r.Method, route, status, time.Since(start))
	})
}
