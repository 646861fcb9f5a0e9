package api

import (
	"context"
	"io"
	"net/http"
	"net/url"
)

func docPath(id string, suffix string) string {
	return "/documents/" + url.PathEscape(id) + suffix
}

func (c *Client) ListDocuments(ctx context.Context) ([]Document, error) {
	var out []Document
	if err := c.do(ctx, "list_documents", http.MethodGet, "/documents", nil, &out); err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Normalize()
	}
	return out, nil
}

func (c *Client) GetDocument(ctx context.Context, id string) (Document, error) {
	var out Document
	if err := c.do(ctx, "get_document", http.MethodGet, docPath(id, ""), nil, &out); err != nil {
		return Document{}, err
	}
	out.Normalize()
	return out, nil
}

type createDocumentRequest struct {
	Title   string `json:"title"`
	Content string `json:"content,omitempty"`
}

func (c *Client) CreateDocument(ctx context.Context, title, content string) (Document, error) {
	var out Document
	if err := c.do(ctx, "create_document", http.MethodPost, "/documents", createDocumentRequest{Title: title, Content: content}, &out); err != nil {
		return Document{}, err
	}
	out.Normalize()
	return out, nil
}

// DocumentUpdate carries the mutable document fields; nil means unchanged.
type DocumentUpdate struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
}

func (c *Client) UpdateDocument(ctx context.Context, id string, upd DocumentUpdate) (Document, error) {
	var out Document
	if err := c.do(ctx, "update_document", http.MethodPut, docPath(id, ""), upd, &out); err != nil {
		return Document{}, err
	}
	out.Normalize()
	return out, nil
}

func (c *Client) DeleteDocument(ctx context.Context, id string) error {
	return c.do(ctx, "delete_document", http.MethodDelete, docPath(id, ""), nil, nil)
}

func (c *Client) DuplicateDocument(ctx context.Context, id string) (Document, error) {
	var out Document
	if err := c.do(ctx, "duplicate_document", http.MethodPost, docPath(id, "/duplicate"), nil, &out); err != nil {
		return Document{}, err
	}
	out.Normalize()
	return out, nil
}

// ImportDocument uploads a prepared multipart body. Building the form
// (filename validation included) is the document service's job; this is the
// transport only.
func (c *Client) ImportDocument(ctx context.Context, body io.Reader, contentType string) (Document, error) {
	var out Document
	if err := c.doRaw(ctx, "import_document", http.MethodPost, "/documents/import", body, contentType, &out); err != nil {
		return Document{}, err
	}
	out.Normalize()
	return out, nil
}
