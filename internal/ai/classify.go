package ai

import (
	"context"
	"strings"

	"github.com/mkravets/brollscout/internal/segment"
	"github.com/mkravets/brollscout/internal/taxonomy"
)

// Classify asks the model to locate B-roll segments in the uploaded file.
// Each attempt is one generateContent request; empty payloads, malformed
// JSON and provider errors all count as failures and are retried under the
// client's policy.
func (c *Client) Classify(ctx context.Context, handle *RemoteFileHandle, tax *taxonomy.Taxonomy) ([]segment.Segment, error) {
	prompt := buildClassifyPrompt(tax)
	parts := []part{
		{FileData: &fileData{FileURI: handle.FileURI, MIMEType: handle.MIMEType}},
		{Text: prompt},
	}

	var segs []segment.Segment
	err := c.retryPolicy().Do(ctx, "classification", func() error {
		text, err := c.generate(ctx, parts)
		if err != nil {
			c.logger.Warn().Err(err).Msg("classification attempt failed")
			return err
		}

		parsed, err := segment.Decode([]byte(stripFences(text)))
		if err != nil {
			c.logger.Warn().Err(err).Msg("classification response unparseable")
			return err
		}
		segs = parsed
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info().Int("segments", len(segs)).Msg("classification complete")
	return segs, nil
}

// stripFences removes optional markdown code fencing around a JSON
// payload.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
