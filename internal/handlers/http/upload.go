package http

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"proctorhub/internal/core/domain"

	"github.com/gin-gonic/gin"
)

// maxUploadBytes bounds multipart bodies for photos and papers.
const maxUploadBytes = 20 << 20

// formUpload opens the multipart file under field. A missing file yields a nil
// upload so the service reports it alongside the other required fields.
func formUpload(c *gin.Context, field string) (*domain.Upload, io.Closer, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nopCloser{}, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return openUpload(fh)
}

func openUpload(fh *multipart.FileHeader) (*domain.Upload, io.Closer, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, nil, err
	}
	return &domain.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	}, f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
