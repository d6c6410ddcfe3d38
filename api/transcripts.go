package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/vidscribe/errors"
	"github.com/kbukum/vidscribe/logger"
	"github.com/kbukum/vidscribe/pipeline"
	"github.com/kbukum/vidscribe/resilience"
	"github.com/kbukum/vidscribe/server"
	"github.com/kbukum/vidscribe/server/middleware"
	"github.com/kbukum/vidscribe/transcription"
	"github.com/kbukum/vidscribe/validation"
)

// Pipeline runs and looks up transcription jobs. *pipeline.Runner
// implements it.
type Pipeline interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Job, error)
	Get(ctx context.Context, id string) (*pipeline.Job, error)
}

// ArtifactReader reads stored transcripts. *storage.Uploader implements it.
type ArtifactReader interface {
	Download(ctx context.Context, key, folder string) ([]byte, error)
}

// Options configures a TranscriptHandler.
type Options struct {
	// Folder is the storage folder transcripts are uploaded to.
	Folder string
	// UploadRateLimit throttles uploads per client IP. Zero disables it.
	UploadRateLimit resilience.RateLimiterConfig
	// MaxParseBytes caps the body of a parse request. Defaults to 16MB.
	MaxParseBytes int64
}

// TranscriptHandler serves the transcript endpoints.
type TranscriptHandler struct {
	pipeline  Pipeline
	artifacts ArtifactReader
	opts      Options
	log       *logger.Logger
}

// NewTranscriptHandler creates a TranscriptHandler. artifacts may be nil, in
// which case the artifact endpoint answers 503.
func NewTranscriptHandler(p Pipeline, artifacts ArtifactReader, opts Options, log *logger.Logger) *TranscriptHandler {
	if opts.MaxParseBytes <= 0 {
		opts.MaxParseBytes = 16 << 20
	}
	if log == nil {
		log = logger.Get("api")
	}
	return &TranscriptHandler{
		pipeline:  p,
		artifacts: artifacts,
		opts:      opts,
		log:       log.WithComponent("api.transcripts"),
	}
}

// Register mounts the routes under rg.
func (h *TranscriptHandler) Register(rg *gin.RouterGroup) {
	g := rg.Group("/transcripts")
	g.POST("", middleware.GinWrap(middleware.RateLimit(middleware.RateLimitConfig{Limit: h.opts.UploadRateLimit})), h.Upload)
	g.POST("/parse", h.Parse)
	g.GET("/:id", h.Get)
	g.GET("/:id/artifact", h.Artifact)
}

type uploadForm struct {
	Name string `json:"name" validate:"omitempty,transcriptname"`
}

// POST /api/v1/transcripts
// Multipart form: "video" file (required), "name" (optional).
func (h *TranscriptHandler) Upload(c *gin.Context) {
	fh, err := c.FormFile("video")
	if err != nil {
		server.RespondWithError(c, formError(err))
		return
	}
	if form := c.Request.MultipartForm; form != nil {
		defer form.RemoveAll()
	}

	form := uploadForm{Name: c.PostForm("name")}
	if err := validation.Validate(&form); err != nil {
		server.RespondWithError(c, err)
		return
	}

	video, err := fh.Open()
	if err != nil {
		server.RespondWithError(c, apperrors.InvalidInput("video", "unreadable upload").WithCause(err))
		return
	}
	defer video.Close()

	job, err := h.pipeline.Run(c.Request.Context(), pipeline.Request{Name: form.Name, Video: video})
	if err != nil {
		appErr := server.ToAppError(err)
		if job != nil {
			appErr = appErr.WithDetail("job_id", job.ID)
		}
		h.log.WithContext(c.Request.Context()).Warn("transcription failed", logger.MergeWithError(logger.Fields("file", fh.Filename), err))
		c.AbortWithStatusJSON(appErr.Status(), appErr.ToResponse())
		return
	}
	server.RespondCreated(c, job)
}

// GET /api/v1/transcripts/:id
func (h *TranscriptHandler) Get(c *gin.Context) {
	job, err := h.pipeline.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, job)
}

// GET /api/v1/transcripts/:id/artifact
// Streams the stored transcript JSON of a finished job.
func (h *TranscriptHandler) Artifact(c *gin.Context) {
	if h.artifacts == nil {
		server.RespondWithError(c, apperrors.ServiceUnavailable("storage"))
		return
	}
	job, err := h.pipeline.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	if job.State != pipeline.StateDone {
		server.RespondWithError(c, apperrors.Conflict("transcript is not available in state "+job.State.String()).
			WithDetail("state", job.State.String()))
		return
	}

	data, err := h.artifacts.Download(c.Request.Context(), transcription.ArtifactName(job.Name), h.opts.Folder)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+transcription.ArtifactName(job.Name)+`"`)
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

// POST /api/v1/transcripts/parse?mode=strict|lenient&header_lines=N
// The body is raw whisper output.
func (h *TranscriptHandler) Parse(c *gin.Context) {
	mode, err := transcription.ParseMode(c.Query("mode"))
	if err != nil {
		server.RespondWithError(c, apperrors.InvalidInput("mode", "must be strict or lenient"))
		return
	}
	opts := []transcription.ParseOption{transcription.WithMode(mode)}
	if v := c.Query("header_lines"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			server.RespondWithError(c, apperrors.InvalidInput("header_lines", "must be a non-negative integer"))
			return
		}
		opts = append(opts, transcription.WithHeaderLines(n))
	}

	raw, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, h.opts.MaxParseBytes))
	if err != nil {
		server.RespondWithError(c, bodyError(err))
		return
	}

	utterances, err := transcription.Parse(string(raw), opts...)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, utterances)
}

func formError(err error) error {
	if errors.Is(err, http.ErrMissingFile) {
		return apperrors.MissingField("video")
	}
	return bodyError(err)
}

func bodyError(err error) error {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return apperrors.PayloadTooLarge(mbe.Limit).WithCause(err)
	}
	return apperrors.InvalidInput("body", "malformed request body").WithCause(err)
}
