package openai

import (
	"fmt"
	"strings"
)

// buildPlanPrompt embeds the shape tags and coaching parameters into the
// instruction the model answers with a markdown plan.
func buildPlanPrompt(tags []string, fitnessLevel, goals, expertSource string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are acting as a personal coach trained under the glute transformation philosophy of: %s.\n", expertSource)
	sb.WriteString("Create a weekly glute-building workout plan tailored to someone with the following traits:\n")
	fmt.Fprintf(&sb, "- Glute Tags: %s\n", strings.Join(tags, ", "))
	fmt.Fprintf(&sb, "- Fitness Level: %s\n", fitnessLevel)
	fmt.Fprintf(&sb, "- Goal: %s\n\n", goals)
	sb.WriteString("Include:\n")
	sb.WriteString("- Weekly workout structure (e.g. 3-day split)\n")
	sb.WriteString("- Specific glute and hip exercises\n")
	sb.WriteString("- Progression strategy over time\n")
	sb.WriteString("- Focus areas based on tags (e.g. shelf, dips, symmetry)\n")
	sb.WriteString("- Recommendations for training volume, rest, and rep ranges\n")
	sb.WriteString("Respond in clear markdown format as if you were delivering this to a client.\n")
	return sb.String()
}
