package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// IdeaStatus represents the current state of a topic idea
type IdeaStatus string

const (
	IdeaStatusNew       IdeaStatus = "new"
	IdeaStatusUsed      IdeaStatus = "used"
	IdeaStatusDismissed IdeaStatus = "dismissed"
)

// StringSlice is a custom type for storing string arrays in JSON
type StringSlice []string

func (s StringSlice) Value() (driver.Value, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *StringSlice) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*s = nil
		return nil
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("cannot scan %T into StringSlice", value)
	}
}

// JSON is a custom type for storing arbitrary JSON data
type JSON map[string]interface{}

func (j JSON) Value() (driver.Value, error) {
	b, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (j *JSON) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*j = nil
		return nil
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	default:
		return fmt.Errorf("cannot scan %T into JSON", value)
	}
}

// Idea is a topic suggestion discovered from a feed or keyword list
type Idea struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	ExternalID   string      `gorm:"uniqueIndex;not null" json:"external_id"` // Hash of source + URL
	Title        string      `gorm:"not null" json:"title"`
	Description  string      `json:"description"`
	URL          string      `json:"url"`
	SourceType   string      `gorm:"index;not null" json:"source_type"` // rss, custom
	SourceName   string      `json:"source_name"`
	Keywords     StringSlice `gorm:"type:json" json:"keywords"`
	RawData      JSON        `gorm:"type:json" json:"raw_data"`
	Status       IdeaStatus  `gorm:"index;default:'new'" json:"status"`
	PublishedAt  *time.Time  `json:"published_at"`
	DiscoveredAt time.Time   `gorm:"autoCreateTime" json:"discovered_at"`
	UpdatedAt    time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

// RawIdea represents an idea before normalization (straight from a source)
type RawIdea struct {
	Title       string
	Description string
	URL         string
	SourceType  string
	SourceName  string
	Keywords    []string
	RawData     map[string]interface{}
	PublishedAt time.Time
}
