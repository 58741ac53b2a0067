package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ludo-technologies/pygather/domain"
	"github.com/ludo-technologies/pygather/internal/version"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"

	codeInvalidRequest = "INVALID_REQUEST"
	codeTimeout        = "TIMEOUT"
	codeInternal       = "INTERNAL_ERROR"
)

// Handlers serves slices and dependency edges of posted sources
type Handlers struct {
	slicer   domain.SliceService
	deps     domain.DependencyService
	defaults domain.AnalysisOptions
	logger   *slog.Logger
}

// NewHandlers creates handlers over the given services
func NewHandlers(slicer domain.SliceService, deps domain.DependencyService) *Handlers {
	return &Handlers{
		slicer:   slicer,
		deps:     deps,
		defaults: domain.AnalysisOptions{UseDefaultRules: true},
		logger:   slog.Default(),
	}
}

// WithDefaults sets the options requests start from, usually the loaded
// project configuration
func (h *Handlers) WithDefaults(opts domain.AnalysisOptions) *Handlers {
	h.defaults = opts
	return h
}

// WithLogger sets the base logger
func (h *Handlers) WithLogger(logger *slog.Logger) *Handlers {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// HandleSlice handles POST /v1/slice.
//
// Response:
//
//	200 OK: SliceResponse
//	400 Bad Request: invalid body, seeds or rules
//	404 Not Found: the requested cell was never executed
//	422 Unprocessable Entity: the source does not parse
func (h *Handlers) HandleSlice(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := h.logger.With("request_id", requestID, "handler", "HandleSlice")

	var req SliceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		writeError(c, http.StatusBadRequest, codeInvalidRequest, "Invalid request body", requestID)
		return
	}
	name, content, err := req.SourceInput.resolve()
	if err != nil {
		writeError(c, http.StatusBadRequest, codeInvalidRequest, err.Error(), requestID)
		return
	}

	sliceReq := domain.SliceRequest{
		AnalysisOptions: h.options(req.RuleOptions),
		Lines:           req.Lines,
		Cell:            req.Cell,
		CellLines:       req.CellLines,
	}
	logger.Info("Slicing", "filename", name, "lines", len(req.Lines), "cell", req.Cell)

	slice, err := h.slicer.SliceSource(c.Request.Context(), name, content, sliceReq)
	if err != nil {
		h.fail(c, logger, err, requestID)
		return
	}

	logger.Info("Slice computed", "lines_kept", len(slice.Lines))
	c.JSON(http.StatusOK, SliceResponse{RequestID: requestID, Slice: slice})
}

// HandleDependencies handles POST /v1/dependencies
func (h *Handlers) HandleDependencies(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := h.logger.With("request_id", requestID, "handler", "HandleDependencies")

	var req DependenciesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		writeError(c, http.StatusBadRequest, codeInvalidRequest, "Invalid request body", requestID)
		return
	}
	name, content, err := req.SourceInput.resolve()
	if err != nil {
		writeError(c, http.StatusBadRequest, codeInvalidRequest, err.Error(), requestID)
		return
	}

	deps, err := h.deps.AnalyzeSource(c.Request.Context(), name, content, domain.DependencyRequest{
		AnalysisOptions: h.options(req.RuleOptions),
	})
	if err != nil {
		h.fail(c, logger, err, requestID)
		return
	}

	logger.Info("Dependencies computed", "filename", name, "edges", len(deps.Edges))
	c.JSON(http.StatusOK, DependenciesResponse{RequestID: requestID, Dependencies: deps})
}

// HandleHealth handles GET /v1/health
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "healthy", Version: version.Short()})
}

func (h *Handlers) options(r RuleOptions) domain.AnalysisOptions {
	opts := h.defaults
	if r.FunctionRules != nil {
		opts.FunctionRules = r.FunctionRules
	}
	if r.UseDefaultRules != nil {
		opts.UseDefaultRules = *r.UseDefaultRules
	}
	if r.LinkLoopVariables {
		opts.LinkLoopVariables = true
	}
	return opts
}

func (h *Handlers) fail(c *gin.Context, logger *slog.Logger, err error, requestID string) {
	status, code := statusFor(err)
	if path := domain.ErrorPath(err); path != "" {
		logger = logger.With("path", path)
	}
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", "error", err)
	} else {
		logger.Warn("Request rejected", "error", err, "code", code)
	}
	writeError(c, status, code, err.Error(), requestID)
}

// statusFor maps an error to an HTTP status and error code
func statusFor(err error) (int, string) {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return http.StatusGatewayTimeout, codeTimeout
	}
	code := domain.ErrorCode(err)
	switch code {
	case domain.ErrCodeInvalidInput, domain.ErrCodeConfigError, domain.ErrCodeUnsupportedFormat:
		return http.StatusBadRequest, code
	case domain.ErrCodeCellNotFound, domain.ErrCodeFileNotFound:
		return http.StatusNotFound, code
	case domain.ErrCodeParseError:
		return http.StatusUnprocessableEntity, code
	case "":
		return http.StatusInternalServerError, codeInternal
	default:
		return http.StatusInternalServerError, code
	}
}

func writeError(c *gin.Context, status int, code, message, requestID string) {
	c.JSON(status, ErrorResponse{Error: message, Code: code, RequestID: requestID})
}

// getOrCreateRequestID returns the X-Request-ID of the request, generating
// one when it is missing, and echoes it on the response
func getOrCreateRequestID(c *gin.Context) string {
	if id := c.GetString(requestIDKey); id != "" {
		return id
	}
	requestID := c.GetHeader(requestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(requestIDKey, requestID)
	c.Header(requestIDHeader, requestID)
	return requestID
}

// resolve returns the analysis name and content of the input
func (in SourceInput) resolve() (string, []byte, error) {
	hasSource, hasNotebook := in.Source != "", len(in.Notebook) > 0 && string(in.Notebook) != "null"
	switch {
	case hasSource && hasNotebook:
		return "", nil, fmt.Errorf("set only one of source and notebook")
	case hasNotebook:
		name := in.Filename
		if !strings.EqualFold(filepath.Ext(name), ".ipynb") {
			name = strings.TrimSuffix(name, filepath.Ext(name)) + ".ipynb"
			if name == ".ipynb" {
				name = "notebook.ipynb"
			}
		}
		return name, in.Notebook, nil
	case hasSource:
		name := in.Filename
		if name == "" {
			name = "source.py"
		}
		if strings.EqualFold(filepath.Ext(name), ".ipynb") {
			return "", nil, fmt.Errorf("%s is a notebook; send it as notebook", name)
		}
		if !strings.EqualFold(filepath.Ext(name), ".py") {
			name += ".py"
		}
		return name, []byte(in.Source), nil
	default:
		return "", nil, fmt.Errorf("one of source and notebook is required")
	}
}
