package synthesis

import (
	"context"
	"fmt"
	"log"
	"strings"

	"agri-assist-be/pkg/llm"
	"agri-assist-be/pkg/rag/response"
	"agri-assist-be/pkg/sqlquery"
	"agri-assist-be/pkg/store"
)

// Generator turns retrieved evidence or tabular results into a final
// answer and scores how well that answer is grounded in its evidence.
type Generator struct {
	llmProvider llm.LLMProvider
	logger      *log.Logger
}

func NewGenerator(llmProvider llm.LLMProvider, logger *log.Logger) *Generator {
	return &Generator{
		llmProvider: llmProvider,
		logger:      logger,
	}
}

// Config carries the synthesizer's tuning values.
type Config struct {
	QualityThreshold float64
}

// FromEvidence builds the answer for the retrieval branch. An empty
// evidence set yields the fixed no-information answer without calling
// the model; that answer is not degraded, it is the correct result.
func (g *Generator) FromEvidence(
	ctx context.Context,
	question store.Question,
	evidence []store.Candidate,
	config Config,
) *store.Answer {

	if len(evidence) == 0 {
		g.logger.Printf("[SYNTHESIS] no evidence for role=%s, returning no-information answer", question.Role)
		return &store.Answer{
			Text:         response.NoInformation,
			ModeUsed:     store.ModeRAG,
			QualityScore: 1.0,
			Degraded:     false,
		}
	}

	prompt := buildEvidencePrompt(question.Text, evidence)
	text, err := g.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.3))
	if err != nil {
		g.logger.Printf("[SYNTHESIS] generation failed: %v", err)
		return g.degradedFromEvidence(evidence)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return g.degradedFromEvidence(evidence)
	}

	answer := &store.Answer{
		Text:               text,
		ModeUsed:           store.ModeRAG,
		SupportingEvidence: chunkIDs(evidence),
	}
	g.applyQuality(ctx, question.Text, answer, evidenceBlock(evidence), config)
	return answer
}

// FromSQLResult builds the answer for the structured branch: a short
// narrative followed by the result rows as a markdown table.
func (g *Generator) FromSQLResult(
	ctx context.Context,
	question store.Question,
	result *store.SQLResult,
	config Config,
) *store.Answer {

	table := sqlquery.FormatMarkdownTable(result)

	if result.RowCount == 0 {
		return &store.Answer{
			Text:               response.NoRows,
			ModeUsed:           store.ModeSQL,
			SupportingEvidence: []string{result.Statement},
			QualityScore:       1.0,
			Degraded:           false,
		}
	}

	prompt := buildSQLPrompt(question.Text, result, table)
	narrative, err := g.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.3))
	if err != nil {
		g.logger.Printf("[SYNTHESIS] sql narrative failed: %v", err)
		// The table alone still answers the question.
		narrative = ""
	}
	narrative = strings.TrimSpace(narrative)

	var sb strings.Builder
	if narrative != "" {
		sb.WriteString(narrative)
		sb.WriteString("\n\n")
	}
	sb.WriteString(table)
	if result.Truncated {
		sb.WriteString(fmt.Sprintf("\n\n_Showing the first %d rows; the full result was larger._", result.RowCount))
	}

	answer := &store.Answer{
		Text:               sb.String(),
		ModeUsed:           store.ModeSQL,
		SupportingEvidence: []string{result.Statement},
	}
	g.applyQuality(ctx, question.Text, answer, table, config)
	return answer
}

// applyQuality runs the groundedness pass and marks the answer degraded
// when the score falls under the configured threshold. A failed quality
// call scores the answer at the threshold itself: unverifiable is not
// the same as bad.
func (g *Generator) applyQuality(ctx context.Context, question string, answer *store.Answer, evidence string, config Config) {
	score, err := g.scoreGroundedness(ctx, question, answer.Text, evidence)
	if err != nil {
		g.logger.Printf("[QUALITY] scoring failed, assuming threshold: %v", err)
		answer.QualityScore = config.QualityThreshold
		return
	}
	answer.QualityScore = score
	if score < config.QualityThreshold {
		answer.Degraded = true
		answer.Text = response.DegradedPrefix + answer.Text
		g.logger.Printf("[QUALITY] answer degraded, score=%.2f threshold=%.2f", score, config.QualityThreshold)
	}
}

func (g *Generator) degradedFromEvidence(evidence []store.Candidate) *store.Answer {
	// Generation failed; surface the strongest chunk verbatim rather
	// than nothing.
	var sb strings.Builder
	sb.WriteString(response.DegradedPrefix)
	sb.WriteString("The most relevant material found:\n\n")
	sb.WriteString(strings.TrimSpace(evidence[0].Text))
	if evidence[0].SourceDocument != "" {
		sb.WriteString(fmt.Sprintf("\n\n(Source: %s)", evidence[0].SourceDocument))
	}
	return &store.Answer{
		Text:               sb.String(),
		ModeUsed:           store.ModeRAG,
		SupportingEvidence: chunkIDs(evidence),
		QualityScore:       0,
		Degraded:           true,
	}
}

func chunkIDs(evidence []store.Candidate) []string {
	ids := make([]string, 0, len(evidence))
	for _, c := range evidence {
		ids = append(ids, c.ChunkID)
	}
	return ids
}

func buildEvidencePrompt(question string, evidence []store.Candidate) string {
	var sb strings.Builder
	sb.WriteString("<task>\n")
	sb.WriteString("You are an assistant for an agricultural operations company. ")
	sb.WriteString("Answer the question using only the context passages below.\n")
	sb.WriteString("</task>\n\n")
	sb.WriteString("<guidelines>\n")
	sb.WriteString("- Use only facts stated in the context; do not invent numbers or names.\n")
	sb.WriteString("- If the context only partially covers the question, answer the covered part and say what is missing.\n")
	sb.WriteString("- Mention the source document when it helps the reader verify.\n")
	sb.WriteString("- Keep the answer concise and practical.\n")
	sb.WriteString("</guidelines>\n\n")
	sb.WriteString("<context>\n")
	sb.WriteString(evidenceBlock(evidence))
	sb.WriteString("</context>\n\n")
	sb.WriteString(fmt.Sprintf("<question>\n%s\n</question>\n", question))
	return sb.String()
}

func buildSQLPrompt(question string, result *store.SQLResult, table string) string {
	var sb strings.Builder
	sb.WriteString("<task>\n")
	sb.WriteString("Summarize the query result below in one or two sentences answering the user's question. ")
	sb.WriteString("Do not repeat the table; it will be shown after your summary.\n")
	sb.WriteString("</task>\n\n")
	sb.WriteString(fmt.Sprintf("<question>\n%s\n</question>\n\n", question))
	sb.WriteString(fmt.Sprintf("<result rows=\"%d\">\n%s\n</result>\n", result.RowCount, table))
	return sb.String()
}

func evidenceBlock(evidence []store.Candidate) string {
	var sb strings.Builder
	for i, c := range evidence {
		source := c.SourceDocument
		if source == "" {
			source = "unknown"
		}
		sb.WriteString(fmt.Sprintf("[%d] (source: %s)\n%s\n\n", i+1, source, strings.TrimSpace(c.Text)))
	}
	return sb.String()
}
