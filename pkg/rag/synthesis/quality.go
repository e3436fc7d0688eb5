package synthesis

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"agri-assist-be/pkg/llm"
)

var scorePattern = regexp.MustCompile(`\d+(?:\.\d+)?`)

// scoreGroundedness asks the model how well the answer is supported by
// its evidence, on a 0-10 scale normalized to [0,1].
func (g *Generator) scoreGroundedness(ctx context.Context, question, answer, evidence string) (float64, error) {
	prompt := buildQualityPrompt(question, answer, evidence)
	raw, err := g.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.0), llm.WithMaxTokens(8))
	if err != nil {
		return 0, err
	}
	return ParseQualityScore(raw)
}

// ParseQualityScore extracts the first number from the model's reply
// and normalizes a 0-10 rating to [0,1]. Ratings already in [0,1] are
// taken as-is.
func ParseQualityScore(raw string) (float64, error) {
	match := scorePattern.FindString(raw)
	if match == "" {
		return 0, fmt.Errorf("no score in quality reply %q", strings.TrimSpace(raw))
	}
	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, fmt.Errorf("parse quality score %q: %w", match, err)
	}
	if value > 1 {
		value = value / 10
	}
	if value < 0 {
		value = 0
	}
	if value > 1 {
		value = 1
	}
	return value, nil
}

func buildQualityPrompt(question, answer, evidence string) string {
	var sb strings.Builder
	sb.WriteString("<task>\n")
	sb.WriteString("Rate how well the answer below is supported by the evidence, from 0 to 10. ")
	sb.WriteString("10 means every claim in the answer is backed by the evidence; 0 means none are. ")
	sb.WriteString("Reply with a single number only.\n")
	sb.WriteString("</task>\n\n")
	sb.WriteString(fmt.Sprintf("<question>\n%s\n</question>\n\n", question))
	sb.WriteString(fmt.Sprintf("<evidence>\n%s\n</evidence>\n\n", evidence))
	sb.WriteString(fmt.Sprintf("<answer>\n%s\n</answer>\n", answer))
	return sb.String()
}
