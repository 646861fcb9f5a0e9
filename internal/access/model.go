package access

import (
	"errors"
	"fmt"

	"github.com/editsync/editsync/internal/api"
)

// Permission is the canonical access level. It is the vocabulary every
// mutating share API speaks (invite, settings).
type Permission string

const (
	PermissionView    Permission = "view"
	PermissionEdit    Permission = "edit"
	PermissionComment Permission = "comment"
)

// ParsePermission validates user-supplied permission input.
func ParsePermission(s string) (Permission, error) {
	switch Permission(s) {
	case PermissionView, PermissionEdit, PermissionComment:
		return Permission(s), nil
	}
	return "", fmt.Errorf("unknown permission %q (want view, edit, or comment)", s)
}

// Role is the derived display vocabulary used by access lists. Roles are
// presentation output only and are never mapped back to permissions.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// RoleForPermission maps the canonical permission onto the display role.
// A commenter reads the document, so comment collapses to viewer.
func RoleForPermission(p Permission) Role {
	if p == PermissionEdit {
		return RoleEditor
	}
	return RoleViewer
}

// Entry is one user with any access to a document. Exactly one entry per
// well-formed access list carries RoleOwner.
type Entry struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   Role   `json:"role"`
}

// ErrNoOwner marks a malformed access list: every document has an owner, so
// a list without one is a data error, not "no owner".
var ErrNoOwner = errors.New("access list has no owner entry")

// ResolveOwner returns the single owner entry. When the list carries more
// than one (also malformed), the first in input order wins.
func ResolveOwner(list []Entry) (Entry, error) {
	for _, e := range list {
		if e.Role == RoleOwner {
			return e, nil
		}
	}
	return Entry{}, ErrNoOwner
}

// PartitionCollaborators splits the list into the owner entry and the
// remaining collaborators, dropping any entry that incidentally shares the
// owner's id. Order of the remainder follows input order; the operation is
// idempotent.
func PartitionCollaborators(list []Entry, ownerID string) (owner *Entry, others []Entry) {
	others = make([]Entry, 0, len(list))
	for i := range list {
		e := list[i]
		if e.Role == RoleOwner {
			if owner == nil {
				owner = &list[i]
			}
			continue
		}
		if e.UserID == ownerID {
			continue
		}
		others = append(others, e)
	}
	return owner, others
}

// IsOwner reports whether userID is the resolved owner of the list.
func IsOwner(userID string, list []Entry) bool {
	o, err := ResolveOwner(list)
	return err == nil && o.UserID == userID
}

// BuildList assembles the display access list for a document: the owner
// entry first, then each invited user through the canonical role mapping.
// Invited entries duplicating the owner id are skipped.
func BuildList(doc api.Document, owner api.User, shared []api.SharedUser) []Entry {
	list := make([]Entry, 0, len(shared)+1)
	list = append(list, Entry{UserID: doc.Owner, Email: owner.Email, Name: owner.Name, Role: RoleOwner})
	for _, su := range shared {
		if su.ID == doc.Owner {
			continue
		}
		list = append(list, Entry{UserID: su.ID, Email: su.Email, Name: su.Email, Role: RoleForPermission(Permission(su.Permission))})
	}
	return list
}
