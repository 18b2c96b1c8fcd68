// Package classifier implements the remote generative-model content check.
// Adapters forward the original (non-normalized) message text wrapped in a
// fixed instruction prompt and parse the response for an affirmative token.
// Adapters return transport and parse errors to the caller; the fail-open /
// fail-closed policy belongs to the moderation pipeline, not here.
package classifier

import (
	"fmt"
	"strings"
)

const promptTemplate = `.قم بتحليل النص العربي التالي بعناية بحثًا عن المحتوى غير اللائق
.تأكد بدقة ما إذا كانت الرسالة تحتوي على لغة نابية أو جنسية أو فاضحة
Text: '%s'

Provide a boolean response:
- Respond with 'TRUE' if the text contains any inappropriate content
- Respond with 'FALSE' if the text is completely clean

Be extremely precise and consider cultural sensitivities.`

// buildPrompt wraps message text in the moderation instruction.
func buildPrompt(text string) string {
	return fmt.Sprintf(promptTemplate, text)
}

// parseVerdict extracts the boolean verdict from a model response.
func parseVerdict(response string) bool {
	return strings.Contains(strings.ToUpper(response), "TRUE")
}
