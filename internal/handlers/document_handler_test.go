package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"cowrite/internal/handlers"
	"cowrite/internal/models"
	"cowrite/internal/repositories"
	"cowrite/internal/testhelpers"
	"cowrite/internal/utils"
)

type docEnv struct {
	router *chi.Mux
	users  *repositories.UserRepository
	docs   *repositories.DocumentRepository
}

func setupDocEnv(t *testing.T) *docEnv {
	t.Helper()
	db := testhelpers.SetupTestDB(t)
	users := &repositories.UserRepository{DB: db}
	docs := &repositories.DocumentRepository{DB: db}

	h := handlers.NewDocumentHandler(docs)
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(handlers.AuthRequired(testSecret))
		r.Post("/api/v1/documents", h.CreateHandler)
		r.Get("/api/v1/documents", h.ListHandler)
		r.Get("/api/v1/documents/{id}", h.GetHandler)
		r.Patch("/api/v1/documents/{id}", h.UpdateHandler)
		r.Delete("/api/v1/documents/{id}", h.DeleteHandler)
	})
	return &docEnv{router: r, users: users, docs: docs}
}

func (e *docEnv) seedUser(t *testing.T, name, email string) (*models.User, string) {
	t.Helper()
	user := &models.User{Name: name, Email: email, PasswordHash: "hash"}
	if err := e.users.CreateUser(user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	token, err := utils.SignToken(user.ID, testSecret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return user, token
}

func (e *docEnv) do(t *testing.T, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(b)
	} else {
		body = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestCreateAndGetDocument(t *testing.T) {
	env := setupDocEnv(t)
	_, token := env.seedUser(t, "alice", "alice@example.com")

	rec := env.do(t, http.MethodPost, "/api/v1/documents", token, models.CreateDocumentRequest{})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	var created models.Document
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode document: %v", err)
	}
	if created.ID == "" || created.Title != "Untitled Document" {
		t.Fatalf("unexpected document: %+v", created)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/documents/"+created.ID, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestDocumentEndpointsRequireAuth(t *testing.T) {
	env := setupDocEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/documents", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestGetDocumentACL(t *testing.T) {
	env := setupDocEnv(t)
	alice, aliceToken := env.seedUser(t, "alice", "alice@example.com")
	bob, bobToken := env.seedUser(t, "bob", "bob@example.com")
	_, malloryToken := env.seedUser(t, "mallory", "mallory@example.com")

	doc := &models.Document{Title: "shared", OwnerID: alice.ID}
	if err := env.docs.CreateDocument(doc); err != nil {
		t.Fatalf("create document: %v", err)
	}
	if err := env.docs.AddCollaborator(doc, bob); err != nil {
		t.Fatalf("add collaborator: %v", err)
	}

	if rec := env.do(t, http.MethodGet, "/api/v1/documents/"+doc.ID, aliceToken, nil); rec.Code != http.StatusOK {
		t.Fatalf("owner should read, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/v1/documents/"+doc.ID, bobToken, nil); rec.Code != http.StatusOK {
		t.Fatalf("collaborator should read, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/v1/documents/"+doc.ID, malloryToken, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("stranger should get 403, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/v1/documents/missing", aliceToken, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestUpdateDocument(t *testing.T) {
	env := setupDocEnv(t)
	alice, token := env.seedUser(t, "alice", "alice@example.com")

	doc := &models.Document{Title: "draft", OwnerID: alice.ID}
	if err := env.docs.CreateDocument(doc); err != nil {
		t.Fatalf("create document: %v", err)
	}

	title := "final"
	content := json.RawMessage(`{"ops":[]}`)
	rec := env.do(t, http.MethodPatch, "/api/v1/documents/"+doc.ID, token,
		models.UpdateDocumentRequest{Title: &title, Content: &content})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	stored, err := env.docs.GetDocumentByID(doc.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.Title != "final" || stored.Content != `{"ops":[]}` {
		t.Fatalf("update not applied: %+v", stored)
	}
}

func TestDeleteDocumentOwnerOnly(t *testing.T) {
	env := setupDocEnv(t)
	alice, aliceToken := env.seedUser(t, "alice", "alice@example.com")
	bob, bobToken := env.seedUser(t, "bob", "bob@example.com")

	doc := &models.Document{Title: "mine", OwnerID: alice.ID}
	if err := env.docs.CreateDocument(doc); err != nil {
		t.Fatalf("create document: %v", err)
	}
	if err := env.docs.AddCollaborator(doc, bob); err != nil {
		t.Fatalf("add collaborator: %v", err)
	}

	if rec := env.do(t, http.MethodDelete, "/api/v1/documents/"+doc.ID, bobToken, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("collaborator must not delete, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodDelete, "/api/v1/documents/"+doc.ID, aliceToken, nil); rec.Code != http.StatusOK {
		t.Fatalf("owner delete failed: %d", rec.Code)
	}
	if _, err := env.docs.GetDocumentByID(doc.ID); err == nil {
		t.Fatalf("document should be gone")
	}
}
