package http

import (
	"net/http"

	"proctorhub/internal/core/domain"
	"proctorhub/internal/core/ports"
	"proctorhub/internal/core/services"
	"proctorhub/pkg/errors"

	"github.com/gin-gonic/gin"
)

type RoomHandler struct {
	roomService ports.RoomService
}

func NewRoomHandler(roomService ports.RoomService) *RoomHandler {
	return &RoomHandler{
		roomService: roomService,
	}
}

// SetupRoutes registers the examiner routes on examiner and the student
// facing ones on public.
func (h *RoomHandler) SetupRoutes(public, examiner *gin.RouterGroup) {
	public.POST("/rooms/validate", h.ValidateRoom)
	public.POST("/rooms/check", h.CheckRoom)

	examiner.POST("/rooms", h.CreateRoom)
	examiner.GET("/rooms", h.ListRooms)
	examiner.GET("/rooms/:roomId", h.GetRoom)
	examiner.POST("/rooms/:roomId", h.DeleteRoom)
	examiner.DELETE("/rooms/:roomId", h.DeleteRoom)
}

type CreateRoomRequest struct {
	RoomName string `json:"roomName"`
}

type ValidateRoomRequest struct {
	RollNo string        `json:"rollno"`
	RoomID domain.RoomID `json:"roomId"`
}

type CheckRoomRequest struct {
	RoomID domain.RoomID `json:"roomId"`
}

func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}

	room, err := h.roomService.CreateRoom(c.Request.Context(), req.RoomName)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"room":    room,
	})
}

func (h *RoomHandler) ListRooms(c *gin.Context) {
	rooms, err := h.roomService.ListRooms(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"rooms":   rooms,
	})
}

func (h *RoomHandler) GetRoom(c *gin.Context) {
	detail, err := h.roomService.GetRoomDetail(c.Request.Context(), domain.RoomID(c.Param("roomId")))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"room":         detail.Room,
		"participants": detail.Participants,
	})
}

func (h *RoomHandler) DeleteRoom(c *gin.Context) {
	roomID := domain.RoomID(c.Param("roomId"))
	if err := h.roomService.DeleteRoom(c.Request.Context(), roomID); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Room deleted successfully.",
	})
}

func (h *RoomHandler) ValidateRoom(c *gin.Context) {
	var req ValidateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}

	if _, err := h.roomService.ValidateAndAdmit(c.Request.Context(), req.RollNo, req.RoomID); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": services.MsgParticipantAdmitted,
	})
}

// CheckRoom always answers 200; a closed room is reported in the body.
func (h *RoomHandler) CheckRoom(c *gin.Context) {
	var req CheckRoomRequest
	_ = c.ShouldBindJSON(&req)

	c.JSON(http.StatusOK, h.roomService.CheckRoomAlive(c.Request.Context(), req.RoomID))
}
