package devserver

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/editsync/editsync/internal/api"
)

func testServer(t *testing.T) (*Server, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	s := New(Config{JWTSecret: "test-secret", TokenTTL: time.Hour})
	return s, s.Router()
}

func doJSON(t *testing.T, g *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)
	return w
}

func registerUser(t *testing.T, g *gin.Engine, email, name string) api.AuthResponse {
	t.Helper()
	w := doJSON(t, g, http.MethodPost, "/api/auth/register", "", gin.H{"email": email, "password": "pw", "name": name})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var out api.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.NotEmpty(t, out.Token)
	return out
}

func TestRegisterAndLogin(t *testing.T) {
	_, g := testServer(t)

	reg := registerUser(t, g, "a@example.com", "A")
	require.Equal(t, "a@example.com", reg.User.Email)

	// duplicate email
	w := doJSON(t, g, http.MethodPost, "/api/auth/register", "", gin.H{"email": "a@example.com", "password": "pw", "name": "A"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	// bad credentials: plain 401, no invalidation code
	w = doJSON(t, g, http.MethodPost, "/api/auth/login", "", gin.H{"email": "a@example.com", "password": "wrong"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Empty(t, body["code"])

	w = doJSON(t, g, http.MethodPost, "/api/auth/login", "", gin.H{"email": "a@example.com", "password": "pw"})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddlewareErrorCodes(t *testing.T) {
	s, g := testServer(t)

	// garbage token
	w := doJSON(t, g, http.MethodGet, "/api/documents", "garbage", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "INVALID_TOKEN", body["code"])

	// expired token, signed with the right secret
	reg := registerUser(t, g, "a@example.com", "A")
	claims := jwt.MapClaims{"userId": reg.User.ID, "iat": time.Now().Add(-2 * time.Hour).Unix(), "exp": time.Now().Add(-time.Hour).Unix()}
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	require.NoError(t, err)
	w = doJSON(t, g, http.MethodGet, "/api/documents", expired, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "TOKEN_EXPIRED", body["code"])

	// valid token for a user that no longer exists
	valid, err := s.mintToken(&userRecord{ID: "ghost"})
	require.NoError(t, err)
	w = doJSON(t, g, http.MethodGet, "/api/documents", valid, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "USER_NOT_FOUND", body["code"])
}

func TestLogoutRevokesToken(t *testing.T) {
	_, g := testServer(t)
	reg := registerUser(t, g, "a@example.com", "A")

	w := doJSON(t, g, http.MethodPost, "/api/auth/logout", reg.Token, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, g, http.MethodGet, "/api/documents", reg.Token, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "INVALID_TOKEN", body["code"])
}

func createDoc(t *testing.T, g *gin.Engine, token, title string) api.Document {
	t.Helper()
	w := doJSON(t, g, http.MethodPost, "/api/documents", token, gin.H{"title": title, "content": "hello"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var doc api.Document
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	doc.Normalize()
	require.NotEmpty(t, doc.ID)
	return doc
}

func TestDocumentCRUD(t *testing.T) {
	_, g := testServer(t)
	reg := registerUser(t, g, "a@example.com", "A")

	doc := createDoc(t, g, reg.Token, "Notes")

	w := doJSON(t, g, http.MethodGet, "/api/documents/"+doc.ID, reg.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, g, http.MethodPut, "/api/documents/"+doc.ID, reg.Token, gin.H{"content": "updated"})
	require.Equal(t, http.StatusOK, w.Code)
	var got api.Document
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Equal(t, "updated", got.Content)

	w = doJSON(t, g, http.MethodPost, "/api/documents/"+doc.ID+"/duplicate", reg.Token, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var dup api.Document
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dup))
	require.Equal(t, "Notes (copy)", dup.Title)

	w = doJSON(t, g, http.MethodDelete, "/api/documents/"+doc.ID, reg.Token, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, g, http.MethodGet, "/api/documents/"+doc.ID, reg.Token, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestDocumentAccessControl(t *testing.T) {
	_, g := testServer(t)
	owner := registerUser(t, g, "owner@example.com", "Owner")
	other := registerUser(t, g, "other@example.com", "Other")

	doc := createDoc(t, g, owner.Token, "Private")

	// stranger cannot read, write, or delete
	w := doJSON(t, g, http.MethodGet, "/api/documents/"+doc.ID, other.Token, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
	w = doJSON(t, g, http.MethodPut, "/api/documents/"+doc.ID, other.Token, gin.H{"content": "x"})
	require.Equal(t, http.StatusForbidden, w.Code)
	w = doJSON(t, g, http.MethodDelete, "/api/documents/"+doc.ID, other.Token, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	// invite with view permission: read yes, write no
	w = doJSON(t, g, http.MethodPost, "/api/documents/"+doc.ID+"/invite", owner.Token, gin.H{"email": "other@example.com", "permission": "view"})
	require.Equal(t, http.StatusCreated, w.Code)
	w = doJSON(t, g, http.MethodGet, "/api/documents/"+doc.ID, other.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, g, http.MethodPut, "/api/documents/"+doc.ID, other.Token, gin.H{"content": "x"})
	require.Equal(t, http.StatusForbidden, w.Code)

	// raise to edit: write allowed
	w = doJSON(t, g, http.MethodPost, "/api/documents/"+doc.ID+"/invite", owner.Token, gin.H{"email": "other@example.com", "permission": "edit"})
	require.Equal(t, http.StatusCreated, w.Code)
	w = doJSON(t, g, http.MethodPut, "/api/documents/"+doc.ID, other.Token, gin.H{"content": "x"})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestInviteAndRemoveValidation(t *testing.T) {
	_, g := testServer(t)
	owner := registerUser(t, g, "owner@example.com", "Owner")
	collab := registerUser(t, g, "collab@example.com", "Collab")
	doc := createDoc(t, g, owner.Token, "Shared")

	// only the owner can invite
	w := doJSON(t, g, http.MethodPost, "/api/documents/"+doc.ID+"/invite", collab.Token, gin.H{"email": "x@example.com", "permission": "view"})
	require.Equal(t, http.StatusForbidden, w.Code)

	// bad permission rejected
	w = doJSON(t, g, http.MethodPost, "/api/documents/"+doc.ID+"/invite", owner.Token, gin.H{"email": "collab@example.com", "permission": "admin"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, g, http.MethodPost, "/api/documents/"+doc.ID+"/invite", owner.Token, gin.H{"email": "collab@example.com", "permission": "edit"})
	require.Equal(t, http.StatusCreated, w.Code)
	var su api.SharedUser
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &su))
	require.Equal(t, collab.User.ID, su.ID)

	// shared users list
	w = doJSON(t, g, http.MethodGet, "/api/documents/"+doc.ID+"/users", owner.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var users []api.SharedUser
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	require.Len(t, users, 1)

	// the owner can never be removed, even by themselves
	w = doJSON(t, g, http.MethodDelete, "/api/documents/"+doc.ID+"/users/"+owner.User.ID, owner.Token, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	// a collaborator cannot remove another user
	third := registerUser(t, g, "third@example.com", "Third")
	w = doJSON(t, g, http.MethodPost, "/api/documents/"+doc.ID+"/invite", owner.Token, gin.H{"email": "third@example.com", "permission": "view"})
	require.Equal(t, http.StatusCreated, w.Code)
	w = doJSON(t, g, http.MethodDelete, "/api/documents/"+doc.ID+"/users/"+third.User.ID, collab.Token, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	// self-removal is allowed
	w = doJSON(t, g, http.MethodDelete, "/api/documents/"+doc.ID+"/users/"+collab.User.ID, collab.Token, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	// owner removes the remaining collaborator
	w = doJSON(t, g, http.MethodDelete, "/api/documents/"+doc.ID+"/users/"+third.User.ID, owner.Token, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, g, http.MethodGet, "/api/documents/"+doc.ID+"/users", owner.Token, nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	require.Empty(t, users)
}

func TestShareSettings(t *testing.T) {
	_, g := testServer(t)
	owner := registerUser(t, g, "owner@example.com", "Owner")
	other := registerUser(t, g, "other@example.com", "Other")
	doc := createDoc(t, g, owner.Token, "Public soon")

	settings := api.ShareSettings{IsPublic: true, Permission: "view", AllowComments: true, ExpiresIn: "7d"}

	// owner only
	w := doJSON(t, g, http.MethodPost, "/api/documents/"+doc.ID+"/share", other.Token, settings)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, g, http.MethodPost, "/api/documents/"+doc.ID+"/share", owner.Token, settings)
	require.Equal(t, http.StatusOK, w.Code)
	var sd api.ShareDocument
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sd))
	require.True(t, sd.ShareSettings.IsPublic)
	require.Equal(t, "7d", sd.ShareSettings.ExpiresIn)

	// public documents become readable by anyone signed in
	w = doJSON(t, g, http.MethodGet, "/api/documents/"+doc.ID, other.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// invalid expiry rejected
	bad := settings
	bad.ExpiresIn = "90d"
	w = doJSON(t, g, http.MethodPost, "/api/documents/"+doc.ID+"/share", owner.Token, bad)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestShareEmailValidation(t *testing.T) {
	_, g := testServer(t)
	owner := registerUser(t, g, "owner@example.com", "Owner")
	doc := createDoc(t, g, owner.Token, "Notes")

	w := doJSON(t, g, http.MethodPost, "/api/documents/"+doc.ID+"/share-email", owner.Token, gin.H{"email": "", "permission": "view"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, g, http.MethodPost, "/api/documents/"+doc.ID+"/share-email", owner.Token, gin.H{"email": "x@example.com", "permission": "view", "message": "hi"})
	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestImportDocument(t *testing.T) {
	_, g := testServer(t)
	reg := registerUser(t, g, "a@example.com", "A")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "notes.md")
	require.NoError(t, err)
	_, err = io.Copy(part, strings.NewReader("# hello"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/documents/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+reg.Token)
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var doc api.Document
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	doc.Normalize()
	require.Equal(t, "notes", doc.Title)
	require.Equal(t, "md", doc.FileType)
	require.Equal(t, "# hello", doc.Content)

	// unsupported extension
	buf.Reset()
	mw = multipart.NewWriter(&buf)
	part, err = mw.CreateFormFile("file", "report.pdf")
	require.NoError(t, err)
	_, err = io.Copy(part, strings.NewReader("%PDF"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req = httptest.NewRequest(http.MethodPost, "/api/documents/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+reg.Token)
	w = httptest.NewRecorder()
	g.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := New(Config{JWTSecret: "test-secret", RateLimitRPS: 1, RateLimitBurst: 2})
	g := s.Router()

	codes := make(map[int]int)
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()
		g.ServeHTTP(w, req)
		codes[w.Code]++
	}
	require.Greater(t, codes[http.StatusTooManyRequests], 0)
	require.Greater(t, codes[http.StatusOK], 0)
}
