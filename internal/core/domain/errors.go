package domain

import "errors"

var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrRoomExists      = errors.New("room already exists")
	ErrStudentNotFound = errors.New("student not found")
	ErrStudentExists   = errors.New("student already exists")
	ErrPhotoNotFound   = errors.New("student photo not found")
	ErrPaperNotFound   = errors.New("paper not found")
)
