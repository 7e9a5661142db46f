package http

import (
	"net/http"

	"proctorhub/internal/core/ports"
	"proctorhub/pkg/errors"

	"github.com/gin-gonic/gin"
)

type PaperHandler struct {
	paperService ports.PaperService
}

func NewPaperHandler(paperService ports.PaperService) *PaperHandler {
	return &PaperHandler{
		paperService: paperService,
	}
}

func (h *PaperHandler) SetupRoutes(public, examiner *gin.RouterGroup) {
	public.GET("/getpaper", h.GetPaper)

	examiner.POST("/papers", h.UploadPaper)
	examiner.GET("/papers", h.ListPapers)
	examiner.DELETE("/papers/:paperId", h.DeletePaper)
}

func (h *PaperHandler) UploadPaper(c *gin.Context) {
	file, closer, err := formUpload(c, "file")
	if err != nil {
		c.Error(errors.NewInvalidInputError("invalid multipart form"))
		return
	}
	defer closer.Close()

	paper, err := h.paperService.UploadPaper(c.Request.Context(),
		c.PostForm("department"), c.PostForm("year"), c.PostForm("subject"), c.PostForm("qpCode"), file)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"paper":   paper,
	})
}

func (h *PaperHandler) ListPapers(c *gin.Context) {
	papers, err := h.paperService.ListPapers(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"papers":  papers,
	})
}

func (h *PaperHandler) DeletePaper(c *gin.Context) {
	if err := h.paperService.DeletePaper(c.Request.Context(), c.Param("paperId")); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Paper deleted successfully",
	})
}

func (h *PaperHandler) GetPaper(c *gin.Context) {
	url, err := h.paperService.GetPaperURL(c.Request.Context(), c.Query("qpCode"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    url,
	})
}
