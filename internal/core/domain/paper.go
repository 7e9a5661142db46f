package domain

import "time"

type Paper struct {
	PaperID    string    `json:"paperId" bson:"_id" dynamodbav:"paperId"`
	Department string    `json:"department" bson:"department" dynamodbav:"department"`
	Year       string    `json:"year" bson:"year" dynamodbav:"year"`
	Subject    string    `json:"subject" bson:"subject" dynamodbav:"subject"`
	QPCode     string    `json:"qpCode" bson:"qpCode" dynamodbav:"qpCode"`
	FileKey    string    `json:"fileKey" bson:"fileKey" dynamodbav:"fileKey"`
	FileURL    string    `json:"fileUrl" bson:"fileUrl" dynamodbav:"fileUrl"`
	UploadedAt time.Time `json:"uploadedAt" bson:"uploadedAt" dynamodbav:"uploadedAt"`
}
