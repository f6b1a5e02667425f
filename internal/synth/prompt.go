package synth

import (
	"fmt"
	"strings"

	"github.com/dgallion1/pagegest/internal/searchindex"
)

const SystemPrompt = `You answer questions using only the document excerpts you are given.
Excerpts may contain HTML tables; read them as tables.
Cite the source of each fact as [source, page N].
If the excerpts do not contain the answer, say you don't know. Do not make up an answer.`

const directTemplate = `Answer the question using the excerpts below.

Question: %s

Excerpts:
%s`

const mapTemplate = `Summarize everything in this excerpt that helps answer the question. Keep figures, names and table values exact. Keep the citation. If nothing is relevant, reply with "NONE".

Question: %s

Excerpt:
%s`

const reduceTemplate = `Combine the partial notes below into one answer to the question. Keep the citations. Ignore notes that say "NONE".

Question: %s

Notes:
%s`

// formatChunk renders one retrieved chunk with its citation header.
func formatChunk(r searchindex.Result) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s, page %d]", r.SourceName, r.PageNum)
	if r.SectionHeading != "" {
		sb.WriteString(" ")
		sb.WriteString(r.SectionHeading)
	}
	sb.WriteString("\n")
	sb.WriteString(strings.TrimSpace(r.Chunk))
	return sb.String()
}

// joinChunks concatenates retrieved chunks the way they appear in a direct
// prompt.
func joinChunks(results []searchindex.Result) string {
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = formatChunk(r)
	}
	return strings.Join(parts, "\n\n")
}

// BuildDirectPrompt stuffs every chunk into a single prompt.
func BuildDirectPrompt(question string, results []searchindex.Result) string {
	return fmt.Sprintf(directTemplate, question, joinChunks(results))
}

// BuildMapPrompt asks for a question-focused summary of one chunk.
func BuildMapPrompt(question string, r searchindex.Result) string {
	return fmt.Sprintf(mapTemplate, question, formatChunk(r))
}

// BuildReducePrompt combines per-chunk summaries into one answer.
func BuildReducePrompt(question string, summaries []string) string {
	return fmt.Sprintf(reduceTemplate, question, strings.Join(summaries, "\n\n"))
}

// templateCost is the prompt text around the excerpts: system prompt,
// template and question.
func templateCost(question string) string {
	return SystemPrompt + "\n" + fmt.Sprintf(directTemplate, question, "")
}
