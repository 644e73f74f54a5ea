package conversation

import (
	"fmt"

	"github.com/procura/smartfill/internal/model"
)

// synthesizeHelp augments a question's static help text with the suggestion's
// provenance, so the user can judge whether to accept it.
func synthesizeHelp(question model.DynamicQuestion, def *model.FieldDefault) string {
	help := question.HelpText
	if def == nil {
		return help
	}

	provenance := fmt.Sprintf("Based on %s (%.0f%% confidence)",
		def.Source.Describe(), def.Confidence*100)
	if help == "" {
		return provenance
	}
	return help + " " + provenance
}
