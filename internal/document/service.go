package document

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/editsync/editsync/internal/api"
)

// Supported import formats, keyed by lowercase extension. DOCX content
// extraction happens server-side; the client only uploads the file.
var importTypes = map[string]string{
	".txt":  "txt",
	".md":   "md",
	".docx": "docx",
}

// Remote is the slice of the backend API the document service depends on.
// *api.Client satisfies it.
type Remote interface {
	ListDocuments(ctx context.Context) ([]api.Document, error)
	GetDocument(ctx context.Context, id string) (api.Document, error)
	CreateDocument(ctx context.Context, title, content string) (api.Document, error)
	UpdateDocument(ctx context.Context, id string, upd api.DocumentUpdate) (api.Document, error)
	DeleteDocument(ctx context.Context, id string) error
	DuplicateDocument(ctx context.Context, id string) (api.Document, error)
	ImportDocument(ctx context.Context, body io.Reader, contentType string) (api.Document, error)
}

// Service wraps the document endpoints with the local validation the UI
// used to do inline.
type Service struct {
	remote Remote
}

func NewService(remote Remote) *Service {
	return &Service{remote: remote}
}

func (s *Service) List(ctx context.Context) ([]api.Document, error) {
	return s.remote.ListDocuments(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (api.Document, error) {
	if id == "" {
		return api.Document{}, &api.ValidationError{Field: "documentId", Message: "document id is required"}
	}
	return s.remote.GetDocument(ctx, id)
}

func (s *Service) Create(ctx context.Context, title, content string) (api.Document, error) {
	if strings.TrimSpace(title) == "" {
		return api.Document{}, &api.ValidationError{Field: "title", Message: "title is required"}
	}
	return s.remote.CreateDocument(ctx, title, content)
}

func (s *Service) Update(ctx context.Context, id string, upd api.DocumentUpdate) (api.Document, error) {
	if id == "" {
		return api.Document{}, &api.ValidationError{Field: "documentId", Message: "document id is required"}
	}
	return s.remote.UpdateDocument(ctx, id, upd)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return &api.ValidationError{Field: "documentId", Message: "document id is required"}
	}
	return s.remote.DeleteDocument(ctx, id)
}

func (s *Service) Duplicate(ctx context.Context, id string) (api.Document, error) {
	if id == "" {
		return api.Document{}, &api.ValidationError{Field: "documentId", Message: "document id is required"}
	}
	return s.remote.DuplicateDocument(ctx, id)
}

// Import uploads a local file as a new document.
func (s *Service) Import(ctx context.Context, path string) (api.Document, error) {
	if path == "" {
		return api.Document{}, &api.ValidationError{Field: "file", Message: "no file selected"}
	}
	f, err := os.Open(path)
	if err != nil {
		return api.Document{}, &api.ValidationError{Field: "file", Message: err.Error()}
	}
	defer f.Close()
	return s.ImportReader(ctx, filepath.Base(path), f)
}

// ImportReader validates the filename and streams the content as a
// multipart upload. Validation failures are local: no request is made.
func (s *Service) ImportReader(ctx context.Context, filename string, r io.Reader) (api.Document, error) {
	if filename == "" {
		return api.Document{}, &api.ValidationError{Field: "file", Message: "no file selected"}
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := importTypes[ext]; !ok {
		return api.Document{}, &api.ValidationError{Field: "file", Message: "unsupported file format (want .txt, .md, or .docx)"}
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return api.Document{}, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return api.Document{}, err
	}
	if err := mw.Close(); err != nil {
		return api.Document{}, err
	}

	return s.remote.ImportDocument(ctx, &buf, mw.FormDataContentType())
}

// FileTypeForName returns the document fileType for a filename, or "" when
// the format is unsupported.
func FileTypeForName(filename string) string {
	return importTypes[strings.ToLower(filepath.Ext(filename))]
}
