package http

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/colimarl/groupchat-server/internal/core"
	"github.com/colimarl/groupchat-server/internal/proto"
	"github.com/colimarl/groupchat-server/internal/store"
	"github.com/colimarl/groupchat-server/internal/store/blobfs"
)

// Handlers provides the HTTP surface around the coordinator: upload,
// blob serving, history, health and the chat page.
type Handlers struct {
	coord     *core.Coordinator
	blobs     store.BlobStore
	maxUpload int64
	log       *zerolog.Logger
}

// NewHandlers creates a new handlers instance.
func NewHandlers(coord *core.Coordinator, blobs store.BlobStore, maxUpload int64, logger *zerolog.Logger) *Handlers {
	if maxUpload <= 0 {
		maxUpload = blobfs.MaxBlobBytes
	}
	return &Handlers{
		coord:     coord,
		blobs:     blobs,
		maxUpload: maxUpload,
		log:       logger,
	}
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Upload handles an image upload: validate, store the blob, then announce
// it through the coordinator. Store-then-announce ordering lives here, not
// in the core.
// POST /upload
func (h *Handlers) Upload(c *gin.Context) {
	// Reject oversize bodies before buffering anything. Multipart framing
	// needs a little headroom beyond the blob cap itself.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload+64*1024)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "upload exceeds size limit"})
			return
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing file field"})
		return
	}
	defer file.Close()

	if !blobfs.AllowedExtension(header.Filename) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "file type not allowed"})
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "upload exceeds size limit"})
			return
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unreadable upload"})
		return
	}
	if int64(len(data)) > h.maxUpload {
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "upload exceeds size limit"})
		return
	}

	ref, err := h.blobs.Put(c.Request.Context(), data, header.Filename)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrPayloadTooLarge):
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "upload exceeds size limit"})
		case errors.Is(err, store.ErrExtensionNotAllowed):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "file type not allowed"})
		default:
			h.log.Error().Err(err).Msg("blob store failure")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	user := c.PostForm("user")
	mime := mimetype.Detect(data).String()

	// The blob is durable at this point; announce even if the uploader
	// disconnects while we persist the event.
	_, err = h.coord.SubmitImage(context.WithoutCancel(c.Request.Context()), user, "/uploads/"+ref, mime)
	if err != nil {
		h.log.Error().Err(err).Str("ref", ref).Msg("image announce failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.Status(http.StatusNoContent)
}

// Blob serves a stored upload.
// GET /uploads/:name
func (h *Handlers) Blob(c *gin.Context) {
	data, mime, err := h.blobs.Get(c.Request.Context(), c.Param("name"))
	if err != nil {
		if errors.Is(err, store.ErrBlobNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found"})
			return
		}
		h.log.Error().Err(err).Msg("blob read failure")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	c.Data(http.StatusOK, mime, data)
}

// History returns the full transcript in order. Debug aid; the WebSocket
// handshake is what clients actually rely on.
// GET /history
func (h *Handlers) History(c *gin.Context) {
	messages, err := h.coord.History(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("history read failure")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	records := make([]proto.ChatMessage, 0, len(messages))
	for _, m := range messages {
		records = append(records, chatMessageFromCore(m))
	}
	c.JSON(http.StatusOK, records)
}

// Health reports liveness.
// GET /healthz
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Index serves the embedded chat page.
// GET /
func (h *Handlers) Index(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
}
