package domain

import "time"

// File records an uploaded object (avatars). The bytes live in S3 under Object.
type File struct {
	FileID    string    `json:"id" dynamodbav:"file_id"`
	Object    string    `json:"object" dynamodbav:"object"`
	Size      int64     `json:"size" dynamodbav:"size"`
	Type      string    `json:"type" dynamodbav:"type"`
	Name      string    `json:"name" dynamodbav:"name"`
	OwnerID   string    `json:"owner_id" dynamodbav:"owner_id"`
	Enable    bool      `json:"enable" dynamodbav:"enable"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"updated" dynamodbav:"updated_at"`
}
