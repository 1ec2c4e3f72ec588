package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/rifqiokta/socialhub/internal/application"
	"github.com/rifqiokta/socialhub/internal/interface/middleware"
	"github.com/rifqiokta/socialhub/pkg/response"
)

// maxUploadBytes caps multipart uploads at 10 MiB.
const maxUploadBytes = 10 << 20

type MediaHandler struct {
	Svc    *application.MediaService
	Logger *logrus.Logger
}

func NewMediaHandler(svc *application.MediaService, logger *logrus.Logger) *MediaHandler {
	return &MediaHandler{Svc: svc, Logger: logger}
}

func (h *MediaHandler) Upload(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	fh, err := c.FormFile("file")
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "file is required", nil)
		return
	}

	f, err := fh.Open()
	if err != nil {
		h.Logger.WithError(err).Error("open uploaded file")
		response.Error[any](c, http.StatusInternalServerError, "internal server error", nil)
		return
	}
	defer f.Close()

	media, err := h.Svc.Upload(c.Request.Context(), uid, f, fh.Filename, fh.Header.Get("Content-Type"))
	if err != nil {
		h.Logger.WithError(err).Error("upload media")
		response.Error[any](c, http.StatusInternalServerError, "internal server error", nil)
		return
	}
	response.Success(c, http.StatusCreated, media, "media uploaded", nil)
}

func (h *MediaHandler) List(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)

	items, err := h.Svc.ListByUser(c.Request.Context(), uid)
	if err != nil {
		h.Logger.WithError(err).Error("list media")
		response.Error[any](c, http.StatusInternalServerError, "internal server error", nil)
		return
	}
	response.Success(c, http.StatusOK, items, "media list", map[string]any{"count": len(items)})
}
