package devserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/editsync/editsync/internal/access"
	"github.com/editsync/editsync/internal/api"
	"github.com/editsync/editsync/pkg/logger"
)

func (s *Server) handleSharedUsers(c *gin.Context) {
	doc, _, shared, ok := s.store.snapshot(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "document not found"})
		return
	}
	if !canRead(doc, actingUser(c)) {
		c.JSON(http.StatusForbidden, gin.H{"message": "you do not have access to this document"})
		return
	}
	c.JSON(http.StatusOK, shared)
}

// handleInvite grants a user access by email, creating a placeholder account
// for addresses that have never signed up (they claim it on registration).
func (s *Server) handleInvite(c *gin.Context) {
	var req struct {
		Email      string `json:"email"`
		Permission string `json:"permission"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "email is required"})
		return
	}
	if _, err := access.ParsePermission(req.Permission); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	invitee, ok := s.store.userByEmail(req.Email)
	if !ok {
		var err error
		invitee, err = s.store.createUser(req.Email, req.Email, uuid.NewString())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
			return
		}
	}

	uid := actingUser(c)
	var out api.SharedUser
	err := s.store.updateDoc(c.Param("id"), func(rec *docRecord) error {
		if rec.doc.Owner != uid {
			return errForbidden
		}
		if invitee.ID == rec.doc.Owner {
			return errForbidden
		}
		out = rec.addCollaborator(invitee, req.Permission)
		rec.touch()
		return nil
	})
	if !respondUpdateErr(c, err) {
		return
	}
	c.JSON(http.StatusCreated, out)
}

// handleRemoveUser re-validates the removal rules independently of whatever
// the client checked: the owner is never removable, and only the owner may
// remove anyone but the caller themself.
func (s *Server) handleRemoveUser(c *gin.Context) {
	uid := actingUser(c)
	target := c.Param("userId")

	err := s.store.updateDoc(c.Param("id"), func(rec *docRecord) error {
		if target == rec.doc.Owner {
			return errForbidden
		}
		if uid != rec.doc.Owner && target != uid {
			return errForbidden
		}
		if !rec.removeCollaborator(target) {
			return errNotFound
		}
		rec.touch()
		return nil
	})
	if err != nil {
		if err == errNotFound {
			c.JSON(http.StatusNotFound, gin.H{"message": "user has no access to this document"})
			return
		}
		respondUpdateErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleShareSettings(c *gin.Context) {
	var req api.ShareSettings
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if _, err := access.ParsePermission(req.Permission); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	switch req.ExpiresIn {
	case "never", "1d", "7d", "30d":
	default:
		c.JSON(http.StatusBadRequest, gin.H{"message": "expiresIn must be never, 1d, 7d, or 30d"})
		return
	}

	uid := actingUser(c)
	var out api.ShareDocument
	err := s.store.updateDoc(c.Param("id"), func(rec *docRecord) error {
		if rec.doc.Owner != uid {
			return errForbidden
		}
		rec.settings = req
		rec.doc.IsPublic = req.IsPublic
		rec.touch()
		out = api.ShareDocument{
			ID:            rec.doc.MongoID,
			Title:         rec.doc.Title,
			Content:       rec.doc.Content,
			ShareSettings: rec.settings,
			SharedUsers:   append([]api.SharedUser(nil), rec.shared...),
		}
		return nil
	})
	if !respondUpdateErr(c, err) {
		return
	}
	c.JSON(http.StatusOK, out)
}

// handleShareEmail validates and logs the notification; the dev server has
// no SMTP transport.
func (s *Server) handleShareEmail(c *gin.Context) {
	var req struct {
		Email      string `json:"email"`
		Permission string `json:"permission"`
		Message    string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "email is required"})
		return
	}
	if _, err := access.ParsePermission(req.Permission); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	doc, _, _, ok := s.store.snapshot(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "document not found"})
		return
	}
	if !canRead(doc, actingUser(c)) {
		c.JSON(http.StatusForbidden, gin.H{"message": "you do not have access to this document"})
		return
	}

	logger.Infof("share email (not sent, dev server): doc=%s to=%s permission=%s", doc.MongoID, req.Email, req.Permission)
	c.Status(http.StatusNoContent)
}
