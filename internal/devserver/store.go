package devserver

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/editsync/editsync/internal/api"
	"github.com/editsync/editsync/internal/share"
)

var (
	errNotFound       = errors.New("not found")
	errDuplicateEmail = errors.New("email already registered")
	errForbidden      = errors.New("forbidden")
)

type userRecord struct {
	ID       string
	Email    string
	Name     string
	Password string
}

// docRecord couples a document with its sharing state. The dev server keeps
// everything in process memory: it stands in for the real backend during
// development and tests, a persistence engine is explicitly not its job.
type docRecord struct {
	doc      api.Document
	settings api.ShareSettings
	shared   []api.SharedUser
}

type memoryStore struct {
	mu           sync.RWMutex
	usersByID    map[string]*userRecord
	usersByEmail map[string]*userRecord
	docs         map[string]*docRecord
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		usersByID:    make(map[string]*userRecord),
		usersByEmail: make(map[string]*userRecord),
		docs:         make(map[string]*docRecord),
	}
}

func (m *memoryStore) createUser(email, name, password string) (*userRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(email)
	if _, ok := m.usersByEmail[key]; ok {
		return nil, errDuplicateEmail
	}
	u := &userRecord{ID: uuid.NewString(), Email: email, Name: name, Password: password}
	m.usersByID[u.ID] = u
	m.usersByEmail[key] = u
	return u, nil
}

func (m *memoryStore) userByEmail(email string) (*userRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.usersByEmail[strings.ToLower(email)]
	return u, ok
}

func (m *memoryStore) userByID(id string) (*userRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.usersByID[id]
	return u, ok
}

func (m *memoryStore) updateUser(id string, email, name *string) (*userRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.usersByID[id]
	if !ok {
		return nil, errNotFound
	}
	if email != nil && !strings.EqualFold(*email, u.Email) {
		key := strings.ToLower(*email)
		if _, taken := m.usersByEmail[key]; taken {
			return nil, errDuplicateEmail
		}
		delete(m.usersByEmail, strings.ToLower(u.Email))
		u.Email = *email
		m.usersByEmail[key] = u
	}
	if name != nil {
		u.Name = *name
	}
	return u, nil
}

// deleteUser removes the user, their owned documents, and their access
// entries on other documents.
func (m *memoryStore) deleteUser(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.usersByID[id]
	if !ok {
		return errNotFound
	}
	delete(m.usersByID, id)
	delete(m.usersByEmail, strings.ToLower(u.Email))
	for docID, rec := range m.docs {
		if rec.doc.Owner == id {
			delete(m.docs, docID)
			continue
		}
		rec.removeCollaborator(id)
	}
	return nil
}

func now() string { return time.Now().UTC().Format(time.RFC3339) }

func (m *memoryStore) createDocument(ownerID, title, content, fileType, filename string) *api.Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	ts := now()
	id := uuid.NewString()
	rec := &docRecord{
		doc: api.Document{
			MongoID:       id,
			Title:         title,
			Content:       content,
			Owner:         ownerID,
			Collaborators: []string{},
			FileType:      fileType,
			Filename:      filename,
			CreatedAt:     ts,
			UpdatedAt:     ts,
			LastModified:  ts,
		},
		settings: share.DefaultSettings(),
	}
	m.docs[id] = rec
	doc := rec.doc
	return &doc
}

// snapshot returns copies of the document and its sharing state; safe to use
// without holding the store lock.
func (m *memoryStore) snapshot(id string) (api.Document, api.ShareSettings, []api.SharedUser, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.docs[id]
	if !ok {
		return api.Document{}, api.ShareSettings{}, nil, false
	}
	shared := make([]api.SharedUser, len(rec.shared))
	copy(shared, rec.shared)
	return rec.doc, rec.settings, shared, true
}

// updateDoc runs fn with the record locked. fn's error is passed through;
// a missing id yields errNotFound.
func (m *memoryStore) updateDoc(id string, fn func(*docRecord) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.docs[id]
	if !ok {
		return errNotFound
	}
	return fn(rec)
}

func (m *memoryStore) deleteDocument(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return errNotFound
	}
	delete(m.docs, id)
	return nil
}

// documentsFor lists documents the user owns, collaborates on, or that are
// public.
func (m *memoryStore) documentsFor(userID string) []api.Document {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]api.Document, 0)
	for _, rec := range m.docs {
		if rec.canRead(userID) {
			out = append(out, rec.doc)
		}
	}
	return out
}

func canRead(doc api.Document, userID string) bool {
	if doc.IsPublic || doc.Owner == userID {
		return true
	}
	for _, c := range doc.Collaborators {
		if c == userID {
			return true
		}
	}
	return false
}

func canWrite(doc api.Document, shared []api.SharedUser, userID string) bool {
	if doc.Owner == userID {
		return true
	}
	for _, su := range shared {
		if su.ID == userID && su.Permission == "edit" {
			return true
		}
	}
	return false
}

func (r *docRecord) canRead(userID string) bool { return canRead(r.doc, userID) }

func (r *docRecord) addCollaborator(u *userRecord, permission string) api.SharedUser {
	for i, su := range r.shared {
		if su.ID == u.ID {
			r.shared[i].Permission = permission
			return r.shared[i]
		}
	}
	su := api.SharedUser{ID: u.ID, Email: u.Email, Permission: permission}
	r.shared = append(r.shared, su)
	r.doc.Collaborators = append(r.doc.Collaborators, u.ID)
	return su
}

func (r *docRecord) removeCollaborator(userID string) bool {
	found := false
	kept := r.shared[:0]
	for _, su := range r.shared {
		if su.ID == userID {
			found = true
			continue
		}
		kept = append(kept, su)
	}
	r.shared = kept

	ids := r.doc.Collaborators[:0]
	for _, id := range r.doc.Collaborators {
		if id == userID {
			found = true
			continue
		}
		ids = append(ids, id)
	}
	r.doc.Collaborators = ids
	return found
}

func (r *docRecord) touch() {
	ts := now()
	r.doc.UpdatedAt = ts
	r.doc.LastModified = ts
}
