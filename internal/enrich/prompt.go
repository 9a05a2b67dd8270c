package enrich

import (
	"fmt"
	"strings"
)

const (
	summarySystemPrompt = "You are an expert technical librarian. You write faithful, " +
		"compact summaries of technical and regulatory documents."

	titleSystemPrompt = "You extract the formal title of a document from its first page. " +
		"Answer with the title only, no quotes, no commentary."

	contextSystemPrompt = "You are an assistant that situates text fragments within their " +
		"source document to improve search retrieval. Answer only with the succinct context, " +
		"in the language of the fragment."
)

// summaryExcerptLimit caps how much of the document the summary prompt
// sees. Summaries describe scope and structure; the head of the document
// is enough for that.
const summaryExcerptLimit = 8000

func summaryUserPrompt(title, markdown string) string {
	return fmt.Sprintf(`Summarize the following document in one paragraph (4-6 sentences).
Cover the document's purpose, its main topics, and its intended audience.

Document title: %s

Document content:
%s`, title, excerpt(markdown, summaryExcerptLimit))
}

func titleUserPrompt(firstPage string) string {
	return fmt.Sprintf(`What is the title of the document whose first page follows?

%s`, excerpt(firstPage, 2000))
}

func contextUserPrompt(documentTitle, documentSummary, visualSummary, chunk string, page int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<document title=%q>\n%s\n</document>\n\n", documentTitle, documentSummary)
	fmt.Fprintf(&b, "The fragment comes from page %d.\n", page)
	if visualSummary != "" && visualSummary != "Text only" {
		fmt.Fprintf(&b, "The fragment's visual elements: %s.\n", visualSummary)
	}
	fmt.Fprintf(&b, `
Here is the fragment to situate within the document:
<chunk>
%s
</chunk>

Give a short context (2-3 sentences) situating this fragment within the overall
document, then repeat the fragment unchanged. The result must be self-contained
for semantic search.`, chunk)
	return b.String()
}

// excerpt truncates on a rune boundary without splitting a character.
func excerpt(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func isRuneStart(b byte) bool {
	return b < 0x80 || b >= 0xC0
}
