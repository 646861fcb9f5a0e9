package document

import (
	"context"
	"io"
	"mime"
	"mime/multipart"
	"strings"
	"testing"

	"github.com/editsync/editsync/internal/api"
	"github.com/stretchr/testify/require"
)

type fakeRemote struct {
	imports int
	creates int

	lastContentType string
	lastFilename    string
	lastFileBody    string
}

func (f *fakeRemote) ListDocuments(ctx context.Context) ([]api.Document, error) { return nil, nil }
func (f *fakeRemote) GetDocument(ctx context.Context, id string) (api.Document, error) {
	return api.Document{ID: id}, nil
}
func (f *fakeRemote) CreateDocument(ctx context.Context, title, content string) (api.Document, error) {
	f.creates++
	return api.Document{ID: "d1", Title: title, Content: content}, nil
}
func (f *fakeRemote) UpdateDocument(ctx context.Context, id string, upd api.DocumentUpdate) (api.Document, error) {
	return api.Document{ID: id}, nil
}
func (f *fakeRemote) DeleteDocument(ctx context.Context, id string) error { return nil }
func (f *fakeRemote) DuplicateDocument(ctx context.Context, id string) (api.Document, error) {
	return api.Document{ID: id + "-copy"}, nil
}

func (f *fakeRemote) ImportDocument(ctx context.Context, body io.Reader, contentType string) (api.Document, error) {
	f.imports++
	f.lastContentType = contentType

	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return api.Document{}, err
	}
	mr := multipart.NewReader(body, params["boundary"])
	part, err := mr.NextPart()
	if err != nil {
		return api.Document{}, err
	}
	data, _ := io.ReadAll(part)
	f.lastFilename = part.FileName()
	f.lastFileBody = string(data)
	return api.Document{ID: "imported", Filename: part.FileName()}, nil
}

func TestCreateRequiresTitle(t *testing.T) {
	remote := &fakeRemote{}
	svc := NewService(remote)

	_, err := svc.Create(context.Background(), "   ", "body")
	require.True(t, api.IsValidation(err))
	require.Zero(t, remote.creates)

	doc, err := svc.Create(context.Background(), "Notes", "body")
	require.NoError(t, err)
	require.Equal(t, "Notes", doc.Title)
}

func TestImportReaderValidation(t *testing.T) {
	remote := &fakeRemote{}
	svc := NewService(remote)

	_, err := svc.ImportReader(context.Background(), "", strings.NewReader("x"))
	require.True(t, api.IsValidation(err))

	_, err = svc.ImportReader(context.Background(), "report.pdf", strings.NewReader("x"))
	require.True(t, api.IsValidation(err))

	// validation failures never reach the network
	require.Zero(t, remote.imports)
}

func TestImportReaderUploadsMultipart(t *testing.T) {
	remote := &fakeRemote{}
	svc := NewService(remote)

	doc, err := svc.ImportReader(context.Background(), "Notes.MD", strings.NewReader("# hello"))
	require.NoError(t, err)
	require.Equal(t, "imported", doc.ID)
	require.Equal(t, 1, remote.imports)
	require.Contains(t, remote.lastContentType, "multipart/form-data")
	require.Equal(t, "Notes.MD", remote.lastFilename)
	require.Equal(t, "# hello", remote.lastFileBody)
}

func TestImportMissingFile(t *testing.T) {
	svc := NewService(&fakeRemote{})
	_, err := svc.Import(context.Background(), "")
	require.True(t, api.IsValidation(err))
}

func TestFileTypeForName(t *testing.T) {
	require.Equal(t, "md", FileTypeForName("a.md"))
	require.Equal(t, "txt", FileTypeForName("A.TXT"))
	require.Equal(t, "docx", FileTypeForName("x.docx"))
	require.Equal(t, "", FileTypeForName("x.pdf"))
}
