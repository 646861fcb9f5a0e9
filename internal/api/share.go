package api

import (
	"context"
	"net/http"
	"net/url"
)

type inviteRequest struct {
	Email      string `json:"email"`
	Permission string `json:"permission"`
}

func (c *Client) InviteUser(ctx context.Context, documentID, email, permission string) (SharedUser, error) {
	var out SharedUser
	err := c.do(ctx, "invite_user", http.MethodPost, docPath(documentID, "/invite"), inviteRequest{Email: email, Permission: permission}, &out)
	if err != nil {
		return SharedUser{}, err
	}
	return out, nil
}

func (c *Client) SharedUsers(ctx context.Context, documentID string) ([]SharedUser, error) {
	var out []SharedUser
	if err := c.do(ctx, "shared_users", http.MethodGet, docPath(documentID, "/users"), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) RemoveUser(ctx context.Context, documentID, userID string) error {
	return c.do(ctx, "remove_user", http.MethodDelete, docPath(documentID, "/users/"+url.PathEscape(userID)), nil, nil)
}

func (c *Client) UpdateShareSettings(ctx context.Context, documentID string, settings ShareSettings) (ShareDocument, error) {
	var out ShareDocument
	if err := c.do(ctx, "update_share_settings", http.MethodPost, docPath(documentID, "/share"), settings, &out); err != nil {
		return ShareDocument{}, err
	}
	return out, nil
}

type shareEmailRequest struct {
	Email      string `json:"email"`
	Permission string `json:"permission"`
	Message    string `json:"message,omitempty"`
}

func (c *Client) SendShareEmail(ctx context.Context, documentID, email, permission, message string) error {
	return c.do(ctx, "send_share_email", http.MethodPost, docPath(documentID, "/share-email"), shareEmailRequest{Email: email, Permission: permission, Message: message}, nil)
}
