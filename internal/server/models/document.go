package models

import (
	"encoding/json"
	"time"
)

// Document is a website resource (a person, project, publication, news item
// or vacancy). Its body is an opaque JSON object.
type Document struct {
	ID         string          `json:"id"`
	Collection string          `json:"collection"`
	Data       json.RawMessage `json:"data"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}
