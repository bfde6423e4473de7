package media

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"quickchat/internal/apperr"
)

// Uploader stores a binary/image payload (base64 or data URI, as sent
// by clients) and returns a stable URL for it.
type Uploader interface {
	Upload(payload string) (string, error)
}

// HTTPUploader posts the payload to an external blob store that
// answers {"url": "..."}.
type HTTPUploader struct {
	endpoint string
}

func NewHTTPUploader(endpoint string) *HTTPUploader {
	return &HTTPUploader{endpoint: endpoint}
}

func (u *HTTPUploader) Upload(payload string) (string, error) {
	agent := fiber.Post(u.endpoint)
	agent.ContentType(fiber.MIMETextPlainCharsetUTF8)
	agent.BodyString(payload)

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return "", apperr.Upstream("blob store unreachable", errs[0])
	}
	if code != fiber.StatusOK && code != fiber.StatusCreated {
		return "", apperr.Upstream("blob store rejected upload", nil)
	}

	var resp struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(body, &resp); err != nil || resp.URL == "" {
		return "", apperr.Upstream("blob store returned no url", err)
	}
	return resp.URL, nil
}

// Disabled rejects every upload; used when no blob store is configured.
type Disabled struct{}

func (Disabled) Upload(string) (string, error) {
	return "", apperr.Validation("image uploads are not configured")
}
