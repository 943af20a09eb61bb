package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"gradeflow/internal/formatter"
	"gradeflow/internal/grading"
	"gradeflow/internal/models"
	"gradeflow/internal/normalizer"
	"gradeflow/internal/tabular"
	"gradeflow/pkg/metadata"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

const uploadField = "file"

// Upload errors.
var (
	errNoUpload    = errors.New("no table uploaded")
	errBadUpload   = errors.New("malformed upload")
	errBadRows     = errors.New("rows must be a non-negative integer")
	errInternal    = errors.New("internal server error")
	errRateLimited = errors.New("rate limit exceeded")
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Status    int    `json:"status"`
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// PreviewResponse is returned by POST /api/v1/preview.
type PreviewResponse struct {
	RunID   string          `json:"run_id"`
	Summary grading.Summary `json:"summary"`
	Before  string          `json:"before"`
	After   string          `json:"after"`
}

type upload struct {
	name  string
	opts  tabular.Options
	table *models.Table
}

// handleGrade grades the uploaded table and returns it as an attachment.
// The output format is ?format=, then output.format, then the input format.
func (s *Server) handleGrade(w http.ResponseWriter, r *http.Request) {
	up, err := s.readUpload(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	result, err := s.processor.Process(r.Context(), up.table)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.metrics.ObserveRun(result.Summary, result.Duration.Seconds())

	out, err := s.outputOptions(r, up.opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := tabular.Write(&buf, result.Table, out); err != nil {
		s.fail(w, r, fmt.Errorf("encode output: %w", err))
		return
	}

	filename := gradedName(up.name, out)

	w.Header().Set("Content-Type", contentType(out))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("X-Run-ID", result.RunID)
	w.Header().Set("X-Content-SHA256", metadata.CalculateHash(buf.Bytes()))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)

	if _, err := buf.WriteTo(w); err != nil {
		s.log.Warn("Failed to write response", "request_id", middleware.GetReqID(r.Context()), "error", err)
	}
}

// handlePreview grades the uploaded table and returns markdown previews of
// the first ?rows= rows before and after grading.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	rows := s.cfg.Server.PreviewRows
	if q := r.URL.Query().Get("rows"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 0 {
			s.fail(w, r, errBadRows)
			return
		}

		rows = n
	}

	up, err := s.readUpload(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	result, err := s.processor.Process(r.Context(), up.table)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.metrics.ObserveRun(result.Summary, result.Duration.Seconds())

	render.JSON(w, r, PreviewResponse{
		RunID:   result.RunID,
		Summary: result.Summary,
		Before:  formatter.RenderTable(up.table, rows, formatter.DefaultMaxCellWidth),
		After:   formatter.RenderTable(result.Table, rows, formatter.DefaultMaxCellWidth),
	})
}

// readUpload accepts either a multipart form with a "file" field or a raw
// body. A raw body's format comes from ?input=, then its Content-Type,
// defaulting to CSV.
func (s *Server) readUpload(r *http.Request) (*upload, error) {
	var (
		body io.Reader
		name string
		opts tabular.Options
	)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if mediaType == "multipart/form-data" {
		f, header, err := r.FormFile(uploadField)
		if err != nil {
			if errors.Is(err, http.ErrMissingFile) {
				return nil, errNoUpload
			}

			return nil, fmt.Errorf("%w: %w", errBadUpload, err)
		}
		defer f.Close()

		name = header.Filename
		if opts, err = tabular.DetectFormat(name); err != nil {
			return nil, err
		}

		body = f
	} else {
		format, err := rawFormat(r.URL.Query().Get("input"), mediaType)
		if err != nil {
			return nil, err
		}

		opts.Format = format
		name = "upload" + format.Extension()
		body = r.Body
	}

	opts.Sheet = s.cfg.Input.Sheet
	if s.cfg.Input.Delimiter != "" {
		opts.Delimiter = []rune(s.cfg.Input.Delimiter)[0]
	}

	table, err := tabular.Read(body, opts)
	if err != nil {
		return nil, err
	}

	return &upload{name: name, opts: opts, table: table}, nil
}

func rawFormat(query, mediaType string) (tabular.Format, error) {
	if query != "" {
		return tabular.ParseFormat(query)
	}

	for _, f := range []tabular.Format{tabular.FormatXLSX, tabular.FormatTSV} {
		ct, _, _ := mime.ParseMediaType(f.ContentType())
		if mediaType == ct {
			return f, nil
		}
	}

	return tabular.FormatCSV, nil
}

func (s *Server) outputOptions(r *http.Request, in tabular.Options) (tabular.Options, error) {
	out := tabular.Options{
		Format:   in.Format,
		Compress: in.Compress || s.cfg.Output.Compress,
		BOM:      s.cfg.Output.BOM,
	}

	if s.cfg.Output.Format != "" {
		out.Format = tabular.Format(s.cfg.Output.Format)
	}

	if q := r.URL.Query().Get("format"); q != "" {
		f, err := tabular.ParseFormat(q)
		if err != nil {
			return out, err
		}

		out.Format = f
	}

	if out.Format == tabular.FormatXLSX {
		out.Compress = false
	}

	return out, nil
}

func gradedName(uploaded string, out tabular.Options) string {
	base := filepath.Base(uploaded)
	base = strings.TrimSuffix(base, tabular.CompressedSuffix)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	if base == "" || base == "." {
		base = "upload"
	}

	name := base + "-graded" + out.Format.Extension()
	if out.Compress {
		name += tabular.CompressedSuffix
	}

	return name
}

func contentType(out tabular.Options) string {
	if out.Compress {
		return "application/x-brotli"
	}

	return out.Format.ContentType()
}

// fail maps pipeline errors to HTTP statuses and records the rejection.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)

	switch {
	case status >= http.StatusInternalServerError:
		s.metrics.ObserveFailure("error")
		s.log.Error("Request failed", "request_id", middleware.GetReqID(r.Context()), "error", err)
		writeError(w, r, status, errInternal)

		return
	case status == http.StatusUnprocessableEntity:
		s.metrics.ObserveFailure("rejected")
	default:
		s.metrics.ObserveFailure("bad_request")
	}

	writeError(w, r, status, err)
}

func statusFor(err error) int {
	var maxBytes *http.MaxBytesError

	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, tabular.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, normalizer.ErrMissingColumns), tabular.IsStructural(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errNoUpload), errors.Is(err, errBadUpload), errors.Is(err, errBadRows),
		errors.Is(err, tabular.ErrMalformed):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{
		Status:    status,
		Error:     err.Error(),
		RequestID: middleware.GetReqID(r.Context()),
	})
}
