package ai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Verdict is the provider's judgement for one preview image in a batch
// verification request, matched to its input position by Index.
type Verdict struct {
	Index   int  `json:"index"`
	Matches bool `json:"matches"`
}

// VerifyThumbnails submits all preview images with their stored
// descriptions in one request and returns one verdict per judged image.
// The caller must treat missing verdicts as skips, not failures.
func (c *Client) VerifyThumbnails(ctx context.Context, images [][]byte, descriptions []string) ([]Verdict, error) {
	if len(images) != len(descriptions) {
		return nil, fmt.Errorf("got %d images but %d descriptions", len(images), len(descriptions))
	}
	if len(images) == 0 {
		return nil, nil
	}

	var b strings.Builder
	b.WriteString("Each image below is a preview thumbnail for a video clip, numbered in order starting at 0, followed by the clip's stored description.\n")
	b.WriteString("For every image, judge whether the image plausibly matches its description.\n\n")
	for i, desc := range descriptions {
		fmt.Fprintf(&b, "Image %d description: %s\n", i, desc)
	}
	b.WriteString("\nRespond with ONLY a JSON array of objects, one per image, in input order: ")
	b.WriteString(`[{"index": 0, "matches": true}, ...]`)

	parts := make([]part, 0, len(images)+1)
	for _, img := range images {
		parts = append(parts, part{InlineData: &inlineData{
			MIMEType: "image/jpeg",
			Data:     base64.StdEncoding.EncodeToString(img),
		}})
	}
	parts = append(parts, part{Text: b.String()})

	text, err := c.generate(ctx, parts)
	if err != nil {
		return nil, fmt.Errorf("thumbnail verification request failed: %w", err)
	}

	var verdicts []Verdict
	if err := json.Unmarshal([]byte(stripFences(text)), &verdicts); err != nil {
		return nil, fmt.Errorf("unparseable verification response: %w", err)
	}
	return verdicts, nil
}

// PickBestImage submits candidate frames for one clip and asks which index
// best matches the clip's description. The returned index is whatever the
// provider said; callers must range-check it before use.
func (c *Client) PickBestImage(ctx context.Context, images [][]byte, description string) (int, error) {
	if len(images) == 0 {
		return -1, fmt.Errorf("no candidate images")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "The %d images below are candidate thumbnails for a video clip, numbered in order starting at 0.\n", len(images))
	fmt.Fprintf(&b, "Clip description: %s\n\n", description)
	b.WriteString("Pick the single image that best matches the description. Respond with ONLY the number of that image, nothing else.")

	parts := make([]part, 0, len(images)+1)
	for _, img := range images {
		parts = append(parts, part{InlineData: &inlineData{
			MIMEType: "image/jpeg",
			Data:     base64.StdEncoding.EncodeToString(img),
		}})
	}
	parts = append(parts, part{Text: b.String()})

	text, err := c.generate(ctx, parts)
	if err != nil {
		return -1, fmt.Errorf("best-image request failed: %w", err)
	}

	chosen, err := strconv.Atoi(strings.TrimSpace(stripFences(text)))
	if err != nil {
		return -1, fmt.Errorf("unparseable best-image response %q: %w", text, err)
	}
	return chosen, nil
}
