package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/hlog"

	"github.com/ironsheep/image-convert-mcp/internal/convert"
	"github.com/ironsheep/image-convert-mcp/internal/geometry"
	"github.com/ironsheep/image-convert-mcp/internal/imaging"
	"github.com/ironsheep/image-convert-mcp/internal/resource"
)

// maxBodySize bounds an uploaded image.
const maxBodySize = 64 * 1024 * 1024

// Router returns the HTTP API. Every POST takes the raw image as the
// request body; conversion options go in the query string using the same
// names as the image_convert tool.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(s.logger))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", middleware.GetReqID(r.Context())).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("http request")
	}))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.healthHandler)
	r.Get("/version", s.versionHandler)
	r.Post("/convert", s.convertHandler)
	r.Post("/identify", s.identifyHandler)
	r.Post("/quantize", s.quantizeHandler)

	return r
}

// ListenAndServe serves the HTTP API on addr until ctx is done, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("http server listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) versionHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, convert.Version(s.version))
}

func (s *Server) convertHandler(w http.ResponseWriter, r *http.Request) {
	data, ok := readBody(w, r)
	if !ok {
		return
	}
	opts, err := optionsFromQuery(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	opts.SrcData = data

	result, err := s.convert(r.Context(), opts)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", result.MimeType())
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Data)))
	w.Header().Set("X-Image-Width", strconv.Itoa(result.Width))
	w.Header().Set("X-Image-Height", strconv.Itoa(result.Height))
	for _, warning := range result.Warnings {
		w.Header().Add("X-Image-Warning", warning)
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result.Data); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("failed to write response")
	}
}

func (s *Server) identifyHandler(w http.ResponseWriter, r *http.Request) {
	data, ok := readBody(w, r)
	if !ok {
		return
	}
	q := queryParser{values: r.URL.Query()}
	opts := convert.IdentifyOptions{
		SrcData:        data,
		Debug:          q.boolean("debug"),
		IgnoreWarnings: q.boolean("ignoreWarnings"),
	}
	if q.err != nil {
		writeError(w, r, q.err)
		return
	}
	info, err := s.conv.Identify(r.Context(), opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) quantizeHandler(w http.ResponseWriter, r *http.Request) {
	data, ok := readBody(w, r)
	if !ok {
		return
	}
	q := queryParser{values: r.URL.Query()}
	count := q.integer("colors")
	if q.err != nil {
		writeError(w, r, q.err)
		return
	}

	colors, err := s.conv.QuantizeColors(r.Context(), convert.QuantizeOptions{SrcData: data, Colors: count})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"colors": colors})
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: err.Error()})
			return nil, false
		}
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return nil, false
	}
	return data, true
}

type errorBody struct {
	Error string `json:"error"`
}

// statusFor maps a conversion error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, resource.ErrLimitExceeded):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, convert.ErrMissingSource),
		errors.Is(err, convert.ErrInvalidOption),
		errors.Is(err, geometry.ErrUnsupportedPolicy),
		errors.Is(err, geometry.ErrUnsupportedGravity),
		errors.Is(err, imaging.ErrUnsupportedFilter),
		errors.Is(err, imaging.ErrUnsupportedFormat),
		errors.Is(err, imaging.ErrInvalidColor),
		errors.Is(err, imaging.ErrInvalidColorCount),
		errors.Is(err, imaging.ErrOutOfBounds):
		return http.StatusBadRequest
	case errors.Is(err, imaging.ErrDecode), errors.Is(err, imaging.ErrDecodeWarning):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	event := hlog.FromRequest(r).Info()
	if status >= http.StatusInternalServerError {
		event = hlog.FromRequest(r).Error()
	}
	event.Err(err).Int("status", status).Msg("request failed")
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// The status line is already sent; an encode failure means the client
	// went away.
	_ = json.NewEncoder(w).Encode(v)
}

// queryParser reads typed values from a query string, keeping the first
// error.
type queryParser struct {
	values url.Values
	err    error
}

func (p *queryParser) str(key string) string {
	return p.values.Get(key)
}

func (p *queryParser) integer(key string) int {
	v := p.values.Get(key)
	if v == "" || p.err != nil {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.err = fmt.Errorf("%w: %s=%q is not an integer", convert.ErrInvalidOption, key, v)
	}
	return n
}

func (p *queryParser) integer64(key string) int64 {
	v := p.values.Get(key)
	if v == "" || p.err != nil {
		return 0
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		p.err = fmt.Errorf("%w: %s=%q is not an integer", convert.ErrInvalidOption, key, v)
	}
	return n
}

func (p *queryParser) number(key string) float64 {
	v := p.values.Get(key)
	if v == "" || p.err != nil {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.err = fmt.Errorf("%w: %s=%q is not a number", convert.ErrInvalidOption, key, v)
	}
	return f
}

func (p *queryParser) boolean(key string) bool {
	v := p.values.Get(key)
	if v == "" || p.err != nil {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.err = fmt.Errorf("%w: %s=%q is not a boolean", convert.ErrInvalidOption, key, v)
	}
	return b
}

// optionsFromQuery builds conversion options from query parameters.
func optionsFromQuery(values url.Values) (convert.Options, error) {
	q := queryParser{values: values}
	opts := convert.Options{
		SrcFormat:      q.str("srcFormat"),
		Width:          q.integer("width"),
		Height:         q.integer("height"),
		ResizeStyle:    q.str("resizeStyle"),
		Gravity:        q.str("gravity"),
		CropMode:       q.str("cropMode"),
		XOffset:        q.integer("xoffset"),
		YOffset:        q.integer("yoffset"),
		Filter:         q.str("filter"),
		Format:         q.str("format"),
		Quality:        q.integer("quality"),
		Density:        q.number("density"),
		Strip:          q.boolean("strip"),
		Rotate:         q.number("rotate"),
		Flip:           q.boolean("flip"),
		Flop:           q.boolean("flop"),
		Blur:           q.number("blur"),
		Brightness:     q.number("brightness"),
		Contrast:       q.number("contrast"),
		Background:     q.str("background"),
		Trim:           q.boolean("trim"),
		TrimFuzz:       q.number("trimFuzz"),
		AutoOrient:     q.boolean("autoOrient"),
		MaxMemory:      q.integer64("maxMemory"),
		Debug:          q.boolean("debug"),
		IgnoreWarnings: q.boolean("ignoreWarnings"),
	}
	return opts, q.err
}
