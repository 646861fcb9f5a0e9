package api

// Wire types for the EditSync REST API. Field names follow the backend's
// JSON; the backend stores documents in a Mongo-style collection, so
// documents come back with `_id` and are normalized to `id` on receipt.

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type Document struct {
	MongoID       string   `json:"_id,omitempty"`
	ID            string   `json:"id,omitempty"`
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	Owner         string   `json:"owner"`
	Collaborators []string `json:"collaborators"`
	IsPublic      bool     `json:"isPublic"`
	FileType      string   `json:"fileType,omitempty"`
	Filename      string   `json:"filename,omitempty"`
	CreatedAt     string   `json:"createdAt,omitempty"`
	UpdatedAt     string   `json:"updatedAt,omitempty"`
	LastModified  string   `json:"lastModified,omitempty"`
}

// Normalize makes ID usable regardless of which id field the backend set.
func (d *Document) Normalize() {
	if d.ID == "" {
		d.ID = d.MongoID
	}
	if d.MongoID == "" {
		d.MongoID = d.ID
	}
}

// ShareSettings is the document-scoped default policy for public/link-based
// access, independent of named collaborator grants.
type ShareSettings struct {
	IsPublic      bool   `json:"isPublic"`
	Permission    string `json:"permission"`
	AllowComments bool   `json:"allowComments"`
	ExpiresIn     string `json:"expiresIn"`
}

// SharedUser is one explicitly invited collaborator.
type SharedUser struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Permission string `json:"permission"`
	Avatar     string `json:"avatar,omitempty"`
}

// ShareDocument is the backend's response to a share-settings update.
type ShareDocument struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	Content       string        `json:"content"`
	ShareSettings ShareSettings `json:"shareSettings"`
	SharedUsers   []SharedUser  `json:"sharedUsers"`
}
