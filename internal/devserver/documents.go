package devserver

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/editsync/editsync/internal/api"
)

func (s *Server) handleListDocuments(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.documentsFor(actingUser(c)))
}

func (s *Server) handleCreateDocument(c *gin.Context) {
	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "title is required"})
		return
	}
	doc := s.store.createDocument(actingUser(c), req.Title, req.Content, "", "")
	c.JSON(http.StatusCreated, doc)
}

func (s *Server) handleGetDocument(c *gin.Context) {
	doc, _, _, ok := s.store.snapshot(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "document not found"})
		return
	}
	if !canRead(doc, actingUser(c)) {
		c.JSON(http.StatusForbidden, gin.H{"message": "you do not have access to this document"})
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (s *Server) handleUpdateDocument(c *gin.Context) {
	var req struct {
		Title   *string `json:"title"`
		Content *string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	var out api.Document
	uid := actingUser(c)
	err := s.store.updateDoc(c.Param("id"), func(rec *docRecord) error {
		if !canWrite(rec.doc, rec.shared, uid) {
			return errForbidden
		}
		if req.Title != nil {
			rec.doc.Title = *req.Title
		}
		if req.Content != nil {
			rec.doc.Content = *req.Content
		}
		rec.touch()
		out = rec.doc
		return nil
	})
	if !respondUpdateErr(c, err) {
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleDeleteDocument(c *gin.Context) {
	doc, _, _, ok := s.store.snapshot(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "document not found"})
		return
	}
	if doc.Owner != actingUser(c) {
		c.JSON(http.StatusForbidden, gin.H{"message": "only the owner can delete a document"})
		return
	}
	if err := s.store.deleteDocument(doc.MongoID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "document not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleDuplicateDocument(c *gin.Context) {
	doc, _, _, ok := s.store.snapshot(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "document not found"})
		return
	}
	uid := actingUser(c)
	if !canRead(doc, uid) {
		c.JSON(http.StatusForbidden, gin.H{"message": "you do not have access to this document"})
		return
	}
	copyDoc := s.store.createDocument(uid, doc.Title+" (copy)", doc.Content, doc.FileType, doc.Filename)
	c.JSON(http.StatusCreated, copyDoc)
}

// handleImportDocument accepts a multipart upload. Plaintext and Markdown
// are stored verbatim; DOCX bodies are binary and kept unparsed behind a
// placeholder, extraction is not this server's job.
func (s *Server) handleImportDocument(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "no file selected"})
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	var fileType string
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt":
		fileType = "txt"
	case ".md":
		fileType = "md"
	case ".docx":
		fileType = "docx"
	default:
		c.JSON(http.StatusBadRequest, gin.H{"message": "unsupported file format"})
		return
	}

	content := "[imported DOCX document: " + name + "]"
	if fileType != "docx" {
		data, err := io.ReadAll(io.LimitReader(file, 8<<20))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "failed to read upload"})
			return
		}
		content = string(data)
	}

	title := strings.TrimSuffix(name, filepath.Ext(name))
	doc := s.store.createDocument(actingUser(c), title, content, fileType, name)
	c.JSON(http.StatusCreated, doc)
}
