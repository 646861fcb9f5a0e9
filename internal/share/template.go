package share

import (
	"fmt"
	"html/template"
	"strings"
)

// Email is a rendered share notification.
type Email struct {
	Subject string
	HTML    string
}

// EmailInput feeds the share email template.
type EmailInput struct {
	DocumentTitle string
	SenderName    string
	Permission    string
	ShareURL      string
	Message       string
}

var shareEmailTmpl = template.Must(template.New("share-email").Parse(`<!DOCTYPE html>
<html>
  <head>
    <meta charset="utf-8">
    <title>Document Shared with You</title>
  </head>
  <body style="font-family: sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
      <h1>Document Shared with You</h1>
      <p>{{.SenderName}} shared <strong>&quot;{{.DocumentTitle}}&quot;</strong> with you.</p>
      <p><span style="background: #F3F4F6; padding: 4px 12px; border-radius: 20px;">Access level: {{.Permission}}</span></p>
      {{- if .Message}}
      <blockquote style="background: #F9FAFB; padding: 15px; border-radius: 6px; font-style: italic;">{{.Message}}</blockquote>
      {{- end}}
      <p><a href="{{.ShareURL}}" style="background: #4F46E5; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px;">Open document</a></p>
      <p style="color: #6B7280; font-size: 14px;">If the button does not work, copy this link: {{.ShareURL}}</p>
    </div>
  </body>
</html>
`))

// RenderShareEmail builds the subject and HTML body for a share
// notification.
func RenderShareEmail(in EmailInput) (Email, error) {
	var b strings.Builder
	if err := shareEmailTmpl.Execute(&b, in); err != nil {
		return Email{}, err
	}
	return Email{
		Subject: fmt.Sprintf("%s shared %q with you", in.SenderName, in.DocumentTitle),
		HTML:    b.String(),
	}, nil
}
