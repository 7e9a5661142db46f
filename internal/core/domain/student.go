package domain

import (
	"io"
	"time"
)

// DegreeRecord is an entry in the degree registry, keyed by roll number.
// PhotoKey addresses the photo in the object store; PhotoURL is the link
// handed out, re-signed from the key whenever one is present.
type DegreeRecord struct {
	RollNo     string    `json:"rollno" bson:"_id" dynamodbav:"rollno"`
	StudentID  string    `json:"studentId" bson:"studentId" dynamodbav:"studentId"`
	Department string    `json:"department" bson:"department" dynamodbav:"department"`
	Year       string    `json:"year" bson:"year" dynamodbav:"year"`
	PhotoURL   string    `json:"photoUrl" bson:"photoUrl" dynamodbav:"photoUrl"`
	PhotoKey   string    `json:"photoKey,omitempty" bson:"photoKey,omitempty" dynamodbav:"photoKey,omitempty"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt" dynamodbav:"createdAt"`
}

// StudentPhoto is the latest live capture for a roll number.
type StudentPhoto struct {
	RollNumber string    `json:"rollNumber" bson:"_id" dynamodbav:"rollNumber"`
	RoomID     RoomID    `json:"roomId" bson:"roomId" dynamodbav:"roomId"`
	PhotoURL   string    `json:"photoUrl,omitempty" bson:"photoUrl,omitempty" dynamodbav:"photoUrl,omitempty"`
	PhotoKey   string    `json:"photoKey,omitempty" bson:"photoKey,omitempty" dynamodbav:"photoKey,omitempty"`
	Image      string    `json:"image,omitempty" bson:"image,omitempty" dynamodbav:"image,omitempty"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt" dynamodbav:"createdAt"`
}

// LiveImage returns the capture reference, preferring Image over PhotoURL.
func (p *StudentPhoto) LiveImage() string {
	if p.Image != "" {
		return p.Image
	}
	return p.PhotoURL
}

// Upload is a file received from a multipart form.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}
