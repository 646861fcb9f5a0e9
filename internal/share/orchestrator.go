package share

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/editsync/editsync/internal/access"
	"github.com/editsync/editsync/internal/api"
	"github.com/editsync/editsync/pkg/logger"
)

// Remote is the slice of the backend API the orchestrator depends on.
// *api.Client satisfies it; tests substitute a call-counting fake.
type Remote interface {
	GetDocument(ctx context.Context, id string) (api.Document, error)
	SharedUsers(ctx context.Context, documentID string) ([]api.SharedUser, error)
	InviteUser(ctx context.Context, documentID, email, permission string) (api.SharedUser, error)
	RemoveUser(ctx context.Context, documentID, userID string) error
	UpdateShareSettings(ctx context.Context, documentID string, settings api.ShareSettings) (api.ShareDocument, error)
	SendShareEmail(ctx context.Context, documentID, email, permission, message string) error
}

// IdentitySource yields the acting user's id hint (unverified token decode).
// *session.Store satisfies it.
type IdentitySource interface {
	Identity() (string, bool)
}

// Phase of a share dialog session. Remote failures always return the session
// to PhaseReady; there is no terminal error phase, the dialog stays usable.
type Phase int

const (
	PhaseClosed Phase = iota
	PhaseLoading
	PhaseReady
	PhaseInviting
	PhaseRemoving
	PhaseSettingsUpdating
)

func (p Phase) String() string {
	switch p {
	case PhaseClosed:
		return "closed"
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseInviting:
		return "inviting"
	case PhaseRemoving:
		return "removing"
	case PhaseSettingsUpdating:
		return "settings-updating"
	}
	return "unknown"
}

// DefaultSettings is the policy a document starts from before the owner
// touches anything.
func DefaultSettings() api.ShareSettings {
	return api.ShareSettings{
		IsPublic:      false,
		Permission:    string(access.PermissionView),
		AllowComments: true,
		ExpiresIn:     "never",
	}
}

// Link derives the public share URL for a document. Pure: no network, no
// caching, same input always yields the same URL.
func Link(base, documentID string) string {
	return strings.TrimRight(base, "/") + "/" + url.PathEscape(documentID)
}

// Orchestrator coordinates one share-dialog session: it loads the access
// state for a document, enforces the authorization invariants locally before
// any mutating remote call, and reconciles local state optimistically with
// server responses. The backend re-validates everything independently; the
// local checks only exist so the UI can reject early and cheaply.
type Orchestrator struct {
	remote   Remote
	ident    IdentitySource
	linkBase string

	mu       sync.Mutex
	phase    Phase
	inflight int
	busy     map[string]bool

	docID    string
	docTitle string
	ownerID  string
	actorID  string
	users    []api.SharedUser
	settings api.ShareSettings
}

func NewOrchestrator(remote Remote, ident IdentitySource, linkBase string) *Orchestrator {
	return &Orchestrator{
		remote:   remote,
		ident:    ident,
		linkBase: linkBase,
		phase:    PhaseClosed,
		busy:     make(map[string]bool),
		settings: DefaultSettings(),
	}
}

// Open loads the document's owner, its shared users, and the acting user id,
// moving Closed -> Loading -> Ready. On any failure the session drops back
// to Closed and the error is returned.
func (o *Orchestrator) Open(ctx context.Context, documentID string) error {
	if documentID == "" {
		return &api.ValidationError{Field: "documentId", Message: "document id is required"}
	}

	o.mu.Lock()
	if o.phase != PhaseClosed {
		o.mu.Unlock()
		return &api.ValidationError{Message: "share session already open"}
	}
	o.phase = PhaseLoading
	o.mu.Unlock()

	doc, err := o.remote.GetDocument(ctx, documentID)
	if err == nil && doc.Owner == "" {
		err = access.ErrNoOwner
	}
	var users []api.SharedUser
	if err == nil {
		users, err = o.remote.SharedUsers(ctx, documentID)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if err != nil {
		o.phase = PhaseClosed
		return err
	}
	o.docID = documentID
	o.docTitle = doc.Title
	o.ownerID = doc.Owner
	o.actorID, _ = o.ident.Identity()
	o.users = users
	o.phase = PhaseReady
	logger.Debugf("share session open: doc=%s owner=%s actor=%s users=%d", documentID, o.ownerID, o.actorID, len(users))
	return nil
}

// Close ends the session. In-flight remote calls still complete on the wire
// but their completions no longer touch local state.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.phase = PhaseClosed
	o.docID = ""
	o.docTitle = ""
	o.ownerID = ""
	o.actorID = ""
	o.users = nil
	o.settings = DefaultSettings()
	o.busy = make(map[string]bool)
	o.inflight = 0
}

func (o *Orchestrator) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

// SharedUsers returns a copy of the local collaborator list.
func (o *Orchestrator) SharedUsers() []api.SharedUser {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]api.SharedUser, len(o.users))
	copy(out, o.users)
	return out
}

func (o *Orchestrator) Settings() api.ShareSettings {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.settings
}

func (o *Orchestrator) OwnerID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.ownerID
}

// ShareLink derives the share URL for the open document.
func (o *Orchestrator) ShareLink() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return Link(o.linkBase, o.docID)
}

// begin transitions into an operation phase, reserving the busy key so a
// re-entrant invocation against the same target is rejected instead of
// issuing a duplicate remote call.
func (o *Orchestrator) begin(p Phase, busyKey string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.phase == PhaseClosed || o.phase == PhaseLoading {
		return &api.ValidationError{Message: "share session is not ready"}
	}
	if o.busy[busyKey] {
		return &api.ValidationError{Message: "operation already in progress"}
	}
	o.busy[busyKey] = true
	o.inflight++
	o.phase = p
	return nil
}

// finish releases the busy key and returns to Ready once nothing is in
// flight. fn mutates local state and runs only while the session is still
// open: after Close the completion is suppressed.
func (o *Orchestrator) finish(busyKey string, fn func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.busy, busyKey)
	if o.inflight > 0 {
		o.inflight--
	}
	if o.phase == PhaseClosed {
		return
	}
	if fn != nil {
		fn()
	}
	if o.inflight == 0 {
		o.phase = PhaseReady
	}
}

// InviteByEmail invites a collaborator. On success the new SharedUser is
// appended to local state; on remote failure local state is untouched and
// the error surfaces to the caller.
func (o *Orchestrator) InviteByEmail(ctx context.Context, email string, permission access.Permission) (api.SharedUser, error) {
	if strings.TrimSpace(email) == "" {
		return api.SharedUser{}, &api.ValidationError{Field: "email", Message: "email address is required"}
	}
	if _, err := access.ParsePermission(string(permission)); err != nil {
		return api.SharedUser{}, &api.ValidationError{Field: "permission", Message: err.Error()}
	}

	key := "invite:" + email
	if err := o.begin(PhaseInviting, key); err != nil {
		return api.SharedUser{}, err
	}

	o.mu.Lock()
	docID := o.docID
	o.mu.Unlock()

	su, err := o.remote.InviteUser(ctx, docID, email, string(permission))
	o.finish(key, func() {
		if err == nil {
			o.users = append(o.users, su)
		}
	})
	if err != nil {
		return api.SharedUser{}, err
	}
	return su, nil
}

// RemoveAccess removes a collaborator. Authorization is checked locally
// before the remote call so a rejected removal never reaches the network:
//   - the owner is never removable, by anyone, themselves included
//   - anyone may remove themselves
//   - only the owner may remove anybody else
func (o *Orchestrator) RemoveAccess(ctx context.Context, targetID string) error {
	if targetID == "" {
		return &api.ValidationError{Field: "userId", Message: "user id is required"}
	}

	o.mu.Lock()
	ownerID, actorID, docID := o.ownerID, o.actorID, o.docID
	o.mu.Unlock()

	if actorID != ownerID && targetID != actorID {
		return &api.PermissionError{Message: "only the document owner can remove other collaborators"}
	}
	if targetID == ownerID {
		return &api.PermissionError{Message: "the document owner cannot be removed"}
	}

	key := "remove:" + targetID
	if err := o.begin(PhaseRemoving, key); err != nil {
		return err
	}

	err := o.remote.RemoveUser(ctx, docID, targetID)
	o.finish(key, func() {
		if err == nil {
			kept := o.users[:0]
			for _, u := range o.users {
				if u.ID != targetID {
					kept = append(kept, u)
				}
			}
			o.users = kept
		}
	})
	return err
}

// UpdateSetting applies one share-settings change optimistically: the local
// value mutates immediately, the full settings object is pushed to the
// backend, and on failure the pre-update snapshot is restored. A concurrent
// update to the same key is rejected as busy so a rollback always restores
// the correct snapshot.
func (o *Orchestrator) UpdateSetting(ctx context.Context, key string, value interface{}) error {
	busyKey := "settings:" + key
	if err := o.begin(PhaseSettingsUpdating, busyKey); err != nil {
		return err
	}

	o.mu.Lock()
	snapshot := o.settings
	tentative := o.settings
	if err := applySetting(&tentative, key, value); err != nil {
		o.mu.Unlock()
		o.finish(busyKey, nil)
		return err
	}
	o.settings = tentative
	docID := o.docID
	o.mu.Unlock()

	_, err := o.remote.UpdateShareSettings(ctx, docID, tentative)
	o.finish(busyKey, func() {
		if err != nil {
			o.settings = snapshot
		}
	})
	return err
}

// ShareByEmail invites the user and then sends the share email with the
// caller's personal message. The invite is committed locally even when the
// follow-up email fails; the caller sees the email error.
func (o *Orchestrator) ShareByEmail(ctx context.Context, email string, permission access.Permission, message string) (api.SharedUser, error) {
	su, err := o.InviteByEmail(ctx, email, permission)
	if err != nil {
		return api.SharedUser{}, err
	}

	o.mu.Lock()
	docID := o.docID
	o.mu.Unlock()

	if err := o.remote.SendShareEmail(ctx, docID, email, string(permission), message); err != nil {
		return su, err
	}
	return su, nil
}

func applySetting(s *api.ShareSettings, key string, value interface{}) error {
	switch key {
	case "isPublic":
		b, ok := value.(bool)
		if !ok {
			return &api.ValidationError{Field: key, Message: "expected a boolean"}
		}
		s.IsPublic = b
	case "allowComments":
		b, ok := value.(bool)
		if !ok {
			return &api.ValidationError{Field: key, Message: "expected a boolean"}
		}
		s.AllowComments = b
	case "permission":
		str, ok := value.(string)
		if !ok {
			return &api.ValidationError{Field: key, Message: "expected a string"}
		}
		if _, err := access.ParsePermission(str); err != nil {
			return &api.ValidationError{Field: key, Message: err.Error()}
		}
		s.Permission = str
	case "expiresIn":
		str, ok := value.(string)
		if !ok {
			return &api.ValidationError{Field: key, Message: "expected a string"}
		}
		switch str {
		case "never", "1d", "7d", "30d":
			s.ExpiresIn = str
		default:
			return &api.ValidationError{Field: key, Message: "expected never, 1d, 7d, or 30d"}
		}
	default:
		return &api.ValidationError{Field: key, Message: "unknown share setting"}
	}
	return nil
}
