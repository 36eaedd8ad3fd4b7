package translate

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	translatev3 "google.golang.org/api/translate/v3"
)

// CloudTranslator uses the Cloud Translation v3 API.
type CloudTranslator struct {
	service *translatev3.Service
	parent  string
}

// NewCloudTranslator creates a translator billed to project.
func NewCloudTranslator(ctx context.Context, project string, opts ...option.ClientOption) (*CloudTranslator, error) {
	if project == "" {
		return nil, fmt.Errorf("cloud translation requires a project")
	}
	svc, err := translatev3.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create translation service: %w", err)
	}
	return &CloudTranslator{
		service: svc,
		parent:  fmt.Sprintf("projects/%s/locations/global", project),
	}, nil
}

// Name identifies the backend.
func (c *CloudTranslator) Name() string { return "cloud" }

// Translate implements Translator.
func (c *CloudTranslator) Translate(ctx context.Context, text, target string) (string, error) {
	req := &translatev3.TranslateTextRequest{
		Contents:           []string{text},
		MimeType:           "text/plain",
		TargetLanguageCode: target,
	}
	resp, err := c.service.Projects.Locations.TranslateText(c.parent, req).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("cloud translate: %w", err)
	}
	if len(resp.Translations) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Translations[0].TranslatedText, nil
}
