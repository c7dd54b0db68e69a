package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/rpggio/taskdesk/internal/domain/project"
)

// encodeProject sends JSON unless files accompany the payload, in which case
// it builds the multipart form the projects endpoint expects.
func encodeProject(p project.Payload) (any, error) {
	if len(p.Files) == 0 {
		return p, nil
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := []struct{ name, value string }{
		{"name", p.Name},
		{"description", p.Description},
		{"status", string(p.Status)},
		{"projectManager", p.ProjectManager},
	}
	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, fmt.Errorf("writing %s: %w", f.name, err)
		}
	}
	if p.TeamMembers != nil {
		members, err := json.Marshal(p.TeamMembers)
		if err != nil {
			return nil, fmt.Errorf("encoding team members: %w", err)
		}
		if err := w.WriteField("teamMembers", string(members)); err != nil {
			return nil, fmt.Errorf("writing teamMembers: %w", err)
		}
	}

	for _, file := range p.Files {
		if strings.TrimSpace(file.Name) == "" {
			return nil, fmt.Errorf("attachment without a file name")
		}
		contentType := file.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename=%q`, file.Name))
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, fmt.Errorf("adding %s: %w", file.Name, err)
		}
		if _, err := part.Write(file.Content); err != nil {
			return nil, fmt.Errorf("writing %s: %w", file.Name, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing form: %w", err)
	}
	return &formBody{contentType: w.FormDataContentType(), data: buf.Bytes()}, nil
}
