// Package caption suggests captions for gallery images using a
// generative model.
package caption

import (
	"context"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"
)

var prompt = "Write one short, factual caption for this photo, at most a dozen words. " +
	"Describe what is in the frame the way the photographer would label it in an album. " +
	"Do not mention that it is a photo. Do not use quotes."

// Suggest asks the model for a caption for the image at path.
func Suggest(ctx context.Context, client *genai.Client, model, path string) (string, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	parts := []*genai.Part{
		genai.NewPartFromBytes(bs, "image/jpeg"),
		genai.NewPartFromText(prompt),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := client.Models.GenerateContent(ctx, model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}

	return strings.TrimSpace(resp.Text()), nil
}
