package ai

import (
	"fmt"
	"strings"

	"github.com/mkravets/brollscout/internal/taxonomy"
)

// buildClassifyPrompt renders the single instruction sent alongside the
// uploaded video. It embeds the project vocabulary, the scoring bands, the
// segment continuity rules and the strict output contract.
func buildClassifyPrompt(tax *taxonomy.Taxonomy) string {
	var b strings.Builder

	b.WriteString("You are reviewing raw footage to find reusable B-roll: cutaway shots that work without their original presenter or context.\n\n")

	if tax.PromptContext != "" {
		fmt.Fprintf(&b, "Project context: %s\n\n", tax.PromptContext)
	}

	b.WriteString("Use this controlled vocabulary when tagging segments. Prefer these exact terms; introduce a new term only when nothing listed fits.\n")
	writeTermList(&b, "Shot types", tax.ShotTypes)
	writeTermList(&b, "Equipment", tax.Equipment)
	writeTermList(&b, "Products", tax.Products)
	writeTermList(&b, "Techniques", tax.Techniques)
	writeTermList(&b, "Subject descriptors", tax.SubjectDescriptors)

	b.WriteString("\nScore each segment's B-roll value from 0 to 1:\n")
	b.WriteString("- 0.9-1.0: excellent standalone B-roll, no presenter, visually strong\n")
	b.WriteString("- 0.7-0.89: good B-roll, minor framing or stability issues\n")
	b.WriteString("- 0.5-0.69: usable with editing, presenter briefly visible or weak composition\n")
	b.WriteString("- 0.3-0.49: weak, presenter-dependent or poorly exposed\n")
	b.WriteString("- below 0.3: not B-roll, do not report\n")

	b.WriteString("\nSegment rules:\n")
	b.WriteString("- Each segment must be at least 2 seconds long.\n")
	b.WriteString("- Never split one continuous shot into multiple segments.\n")
	b.WriteString("- startTime must be strictly before endTime.\n")
	b.WriteString("- bestMoment is the single most representative timestamp inside the segment.\n")

	b.WriteString("\nRespond with ONLY a JSON array (or [] if nothing qualifies) and no surrounding markup. Each element must have exactly these keys:\n")
	b.WriteString(`{"startTime": "M:SS", "endTime": "M:SS", "bestMoment": "M:SS", "shotType": "...", "brollScore": 0.0, "equipment": [], "products": [], "technique": [], "subjectDescriptors": [], "description": "...", "presenterVisible": false, "other": []}`)
	b.WriteString("\n")

	return b.String()
}

func writeTermList(b *strings.Builder, label string, terms []string) {
	if len(terms) == 0 {
		return
	}
	fmt.Fprintf(b, "- %s: %s\n", label, strings.Join(terms, ", "))
}
