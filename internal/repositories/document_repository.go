package repositories

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"cowrite/internal/models"
)

var ErrDocumentNotFound = errors.New("document not found")

type DocumentRepository struct {
	DB *gorm.DB
}

func (r *DocumentRepository) CreateDocument(doc *models.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.Title == "" {
		doc.Title = "Untitled Document"
	}
	return r.DB.Create(doc).Error
}

// GetDocumentByID loads a document with its collaborator list, which the
// caller needs for the owner/collaborator access check.
func (r *DocumentRepository) GetDocumentByID(id string) (*models.Document, error) {
	var doc models.Document
	err := r.DB.Preload("Collaborators").First(&doc, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListDocumentsForUser returns documents the user owns or collaborates on,
// most recently updated first.
func (r *DocumentRepository) ListDocumentsForUser(userID uint) ([]models.Document, error) {
	var docs []models.Document
	err := r.DB.
		Joins("LEFT JOIN document_collaborators dc ON dc.document_id = documents.id").
		Where("documents.owner_id = ? OR dc.user_id = ?", userID, userID).
		Group("documents.id").
		Order("documents.updated_at DESC").
		Preload("Collaborators").
		Find(&docs).Error
	return docs, err
}

// UpdateDocument applies the given column updates and bumps updated_at.
func (r *DocumentRepository) UpdateDocument(id string, updates map[string]any) error {
	tx := r.DB.Model(&models.Document{}).Where("id = ?", id).Updates(updates)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

func (r *DocumentRepository) DeleteDocument(id string) error {
	tx := r.DB.Delete(&models.Document{}, "id = ?", id)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

// AddCollaborator attaches a user to a document's collaborator set.
func (r *DocumentRepository) AddCollaborator(doc *models.Document, user *models.User) error {
	return r.DB.Model(doc).Association("Collaborators").Append(user)
}

// HasAccess reports whether the user is the document's owner or one of its
// collaborators. Collaborators must already be preloaded.
func HasAccess(doc *models.Document, userID uint) bool {
	if doc.OwnerID == userID {
		return true
	}
	for _, c := range doc.Collaborators {
		if c.ID == userID {
			return true
		}
	}
	return false
}
