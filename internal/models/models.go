package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// User is a registered account. PasswordHash never leaves the server.
type User struct {
	gorm.Model
	Name         string `gorm:"not null" json:"name"`
	Email        string `gorm:"unique;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
}

// Document is the persisted snapshot: title, an opaque content blob and the
// owner/collaborator ACL. The collaboration core never interprets Content,
// it only loads it on join and overwrites it on save.
type Document struct {
	ID            string    `gorm:"primaryKey" json:"id"`
	Title         string    `gorm:"not null;default:'Untitled Document'" json:"title"`
	Content       string    `gorm:"type:text" json:"content"`
	OwnerID       uint      `gorm:"not null;index" json:"ownerId"`
	Collaborators []User    `gorm:"many2many:document_collaborators" json:"collaborators"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Identity is resolved once from the connection credential and is immutable
// for the lifetime of that connection.
type Identity struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

/*** WebSocket wire surface ***/

type WSFrame struct {
	Type string          `json:"type"` // "join-document","leave-document","send-changes","save-document","cursor",...
	Data json.RawMessage `json:"data,omitempty"`
}

// Frame builds an outbound frame. Payloads are plain structs from this
// package, so the marshal error is discarded; an unmarshalable payload
// produces an empty data field rather than an error.
func Frame(typ string, data any) WSFrame {
	b, _ := json.Marshal(data)
	return WSFrame{Type: typ, Data: b}
}

// LoadDocument is sent to the joining connection only.
type LoadDocument struct {
	Content json.RawMessage `json:"content"`
	Title   string          `json:"title"`
}

// ActiveUser is one entry of the roster delivered on join.
type ActiveUser struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// UserEvent wraps user-joined / user-left notifications.
type UserEvent struct {
	User ActiveUser `json:"user"`
}

// SaveRequest is the save-document payload. An empty title leaves the
// stored one untouched.
type SaveRequest struct {
	Content json.RawMessage `json:"content"`
	Title   string          `json:"title,omitempty"`
}

type SaveConfirmation struct {
	SavedAt time.Time `json:"savedAt"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

/*** REST payloads ***/

type CreateDocumentRequest struct {
	Title string `json:"title"`
}

type UpdateDocumentRequest struct {
	Title   *string          `json:"title"`
	Content *json.RawMessage `json:"content"`
}
