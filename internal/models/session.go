package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ChatRole is the type for the ChatRole enum.
type ChatRole string

// ChatRole enum values.
const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatMessage is a single entry in a cooking session's transcript.
type ChatMessage struct {
	Role ChatRole `json:"role"`
	Text string   `json:"text"`
}

// ChatMessages is a slice of ChatMessage.
// This is a workaround for GORM to embed a slice of structs into a JSONB field.
type ChatMessages []ChatMessage

// Scan is a GORM hook that scans jsonb into ChatMessages.
func (j *ChatMessages) Scan(value interface{}) error {
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New(fmt.Sprint("Failed to unmarshal JSONB value:", value))
	}

	result := ChatMessages{}
	err := json.Unmarshal(bytes, &result)
	*j = ChatMessages(result)

	return err
}

// Value is a GORM hook that returns json value of ChatMessages.
func (j ChatMessages) Value() (driver.Value, error) {
	return json.Marshal(j)
}

// CookingSession is the model for a per-recipe cooking run. There is at most
// one session per (recipe, user) pair; all writes go through upserts keyed on
// that pair, last-writer-wins.
type CookingSession struct {
	gorm.Model
	RecipeID    uint    `gorm:"uniqueIndex:idx_session_recipe_user;not null"`
	Recipe      *Recipe `gorm:"foreignKey:RecipeID"`
	UserID      uint    `gorm:"uniqueIndex:idx_session_recipe_user;not null"`
	CurrentStep int     `gorm:"default:0"`
	ChatHistory ChatMessages `gorm:"type:jsonb;default:'[]'"`
	IsActive    bool         `gorm:"default:true"`
	LastUpdated time.Time
}

// BeforeSave is a GORM hook that runs before creating or updating a CookingSession.
func (s *CookingSession) BeforeSave(tx *gorm.DB) (err error) {
	if s.CurrentStep < 0 {
		// Cancel transaction
		return errors.New("CurrentStep must not be negative")
	}
	if s.LastUpdated.IsZero() {
		s.LastUpdated = time.Now()
	}

	return nil
}
