package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cowrite/internal/models"
	"cowrite/internal/repositories"
	"cowrite/internal/utils"
)

// DocumentHandler serves the document CRUD endpoints. Live collaboration does
// not go through here; it only shares the repository.
type DocumentHandler struct {
	Repo *repositories.DocumentRepository
}

func NewDocumentHandler(repo *repositories.DocumentRepository) *DocumentHandler {
	return &DocumentHandler{Repo: repo}
}

func (h *DocumentHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		utils.JSONError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	var req models.CreateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	doc := &models.Document{Title: req.Title, OwnerID: userID}
	if err := h.Repo.CreateDocument(doc); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "server error while creating document")
		return
	}
	utils.JSON(w, http.StatusCreated, doc)
}

func (h *DocumentHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		utils.JSONError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	docs, err := h.Repo.ListDocumentsForUser(userID)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "server error while fetching documents")
		return
	}
	utils.JSON(w, http.StatusOK, docs)
}

func (h *DocumentHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		utils.JSONError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	doc, err := h.loadDocument(w, chi.URLParam(r, "id"))
	if doc == nil || err != nil {
		return
	}
	if !repositories.HasAccess(doc, userID) {
		utils.JSONError(w, http.StatusForbidden, "not authorized to access this document")
		return
	}
	utils.JSON(w, http.StatusOK, doc)
}

func (h *DocumentHandler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		utils.JSONError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	doc, err := h.loadDocument(w, chi.URLParam(r, "id"))
	if doc == nil || err != nil {
		return
	}
	if !repositories.HasAccess(doc, userID) {
		utils.JSONError(w, http.StatusForbidden, "not authorized to update this document")
		return
	}

	var req models.UpdateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	updates := map[string]any{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Content != nil {
		updates["content"] = string(*req.Content)
	}
	if len(updates) > 0 {
		if err := h.Repo.UpdateDocument(doc.ID, updates); err != nil {
			utils.JSONError(w, http.StatusInternalServerError, "server error while updating document")
			return
		}
	}
	updated, err := h.Repo.GetDocumentByID(doc.ID)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "server error while updating document")
		return
	}
	utils.JSON(w, http.StatusOK, updated)
}

func (h *DocumentHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		utils.JSONError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	doc, err := h.loadDocument(w, chi.URLParam(r, "id"))
	if doc == nil || err != nil {
		return
	}
	if doc.OwnerID != userID {
		// only the owner can delete
		utils.JSONError(w, http.StatusForbidden, "not authorized to delete this document")
		return
	}
	if err := h.Repo.DeleteDocument(doc.ID); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "server error while deleting document")
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{"message": "document deleted successfully"})
}

// loadDocument fetches a document and writes the 404 itself so handlers only
// deal with the authorization step.
func (h *DocumentHandler) loadDocument(w http.ResponseWriter, id string) (*models.Document, error) {
	doc, err := h.Repo.GetDocumentByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrDocumentNotFound) {
			utils.JSONError(w, http.StatusNotFound, "document not found")
		} else {
			utils.JSONError(w, http.StatusInternalServerError, "server error while fetching document")
		}
		return nil, err
	}
	return doc, nil
}
