package http

import (
	"net/http"

	"proctorhub/internal/core/domain"
	"proctorhub/internal/core/ports"
	"proctorhub/pkg/errors"

	"github.com/gin-gonic/gin"
)

type StudentHandler struct {
	studentService ports.StudentService
}

func NewStudentHandler(studentService ports.StudentService) *StudentHandler {
	return &StudentHandler{
		studentService: studentService,
	}
}

func (h *StudentHandler) SetupRoutes(public, examiner *gin.RouterGroup) {
	public.POST("/students/submit", h.SubmitPhoto)

	examiner.POST("/students", h.AddStudent)
	examiner.GET("/students", h.ListStudents)
	examiner.DELETE("/students/:rollno", h.DeleteStudent)
}

func (h *StudentHandler) AddStudent(c *gin.Context) {
	photo, closer, err := formUpload(c, "photo")
	if err != nil {
		c.Error(errors.NewInvalidInputError("invalid multipart form"))
		return
	}
	defer closer.Close()

	rec, err := h.studentService.AddStudent(c.Request.Context(),
		c.PostForm("rollno"), c.PostForm("department"), c.PostForm("year"), photo)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Student added successfully",
		"student": rec,
	})
}

func (h *StudentHandler) ListStudents(c *gin.Context) {
	students, err := h.studentService.ListStudents(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"students": students,
	})
}

func (h *StudentHandler) DeleteStudent(c *gin.Context) {
	if err := h.studentService.DeleteStudent(c.Request.Context(), c.Param("rollno")); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Student deleted successfully",
	})
}

func (h *StudentHandler) SubmitPhoto(c *gin.Context) {
	photo, closer, err := formUpload(c, "photo")
	if err != nil {
		c.Error(errors.NewInvalidInputError("invalid multipart form"))
		return
	}
	defer closer.Close()

	url, err := h.studentService.SubmitPhoto(c.Request.Context(),
		c.PostForm("rollNumber"), domain.RoomID(c.PostForm("roomId")), photo)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  "Student added successfully",
		"photoUrl": url,
	})
}
