package classifier

import (
	"fmt"
	"strings"

	"vision-router/internal/tasks"
)

const noImageContext = "No image context provided"

// Prompt renders the classification prompt sent to remote tiers.
func Prompt(req Request) string {
	imageContext := strings.TrimSpace(req.ImageContext)
	if imageContext == "" {
		imageContext = noImageContext
	}

	var b strings.Builder
	b.WriteString("\nClassify the AI task based on the question and image description.\n\n")
	fmt.Fprintf(&b, "Question: %s\n", req.Question)
	fmt.Fprintf(&b, "Image: %s\n\n", imageContext)
	b.WriteString("Respond with exactly one of these options:\n")
	for _, label := range tasks.All() {
		fmt.Fprintf(&b, "- %s\n", label)
	}
	b.WriteString("\nTask:")
	return b.String()
}
