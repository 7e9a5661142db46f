package http

import (
	stderrors "errors"
	"net/http"
	"os"
	"path"
	"strings"

	"proctorhub/internal/infrastructure/objectstore/disk"
	"proctorhub/pkg/errors"

	"github.com/gin-gonic/gin"
)

// ObjectHandler serves disk-backed objects behind the links the disk store signs.
type ObjectHandler struct {
	store *disk.Store
}

func NewObjectHandler(store *disk.Store) *ObjectHandler {
	return &ObjectHandler{store: store}
}

func (h *ObjectHandler) SetupRoutes(router *gin.Engine) {
	router.GET(strings.TrimSuffix(disk.RoutePrefix, "/")+"/*key", h.GetObject)
}

func (h *ObjectHandler) GetObject(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")

	if err := h.store.Verify(key, c.Query("expires"), c.Query("sig")); err != nil {
		if stderrors.Is(err, disk.ErrExpired) {
			c.Error(errors.NewUnauthorizedError("link expired"))
			return
		}
		c.Error(errors.NewUnauthorizedError("invalid signature"))
		return
	}

	f, err := h.store.Open(key)
	if err != nil {
		if os.IsNotExist(err) || stderrors.Is(err, disk.ErrInvalidKey) {
			c.Error(errors.NewNotFoundError("object not found"))
			return
		}
		c.Error(errors.NewStorageError("failed to open object", err))
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		c.Error(errors.NewStorageError("failed to stat object", err))
		return
	}

	c.Header("Cache-Control", "private, max-age=60")
	http.ServeContent(c.Writer, c.Request, path.Base(key), info.ModTime(), f)
}
