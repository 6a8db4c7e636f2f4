package prompts

import (
	"fmt"
	"strings"

	"mercator-hq/scribe/pkg/fields"
	"mercator-hq/scribe/pkg/providers"
)

// ContentOnlyInstruction ends every library prompt. The response normalizer
// relies on answers carrying no preamble or commentary.
const ContentOnlyInstruction = "Respond with only the requested content itself. Do not include any introduction, explanation, headings about the task, or closing remarks."

// Recipe describes how to prompt for one field type.
type Recipe struct {
	// Persona overrides the category persona.
	Persona string

	// Task states what to write.
	Task string

	// Guidelines are the structural and stylistic requirements.
	Guidelines []string

	// MinWords and MaxWords bound the length of text answers.
	MinWords, MaxWords int

	// Items is the number of entries of a list-shaped answer.
	Items int

	// Guidance adds request-dependent instructions, e.g. audit-type focus.
	Guidance func(req *providers.GenerationRequest) string
}

var personas = map[fields.Category]string{
	fields.CategoryAudit:       "an experienced internal audit professional (CIA, CISA) who writes clear, evidence-focused audit documentation",
	fields.CategoryRisk:        "a senior enterprise risk management specialist familiar with ISO 31000 and COSO ERM",
	fields.CategoryPolicy:      "a governance and compliance specialist who drafts corporate policies that are precise, enforceable and easy to read",
	fields.CategoryControl:     "an internal controls specialist experienced in control design, testing and SOX documentation",
	fields.CategoryFinding:     "an audit manager who writes balanced, well-supported audit findings",
	fields.CategoryBCP:         "a business continuity professional (CBCP) experienced with ISO 22301",
	fields.CategoryVendor:      "a third-party risk management analyst who assesses vendors objectively",
	fields.CategoryIncident:    "an incident response lead who documents incidents factually and without speculation",
	fields.CategoryTraining:    "a compliance training designer who writes practical, learner-focused material",
	fields.CategorySecurity:    "an information security analyst (CISSP) who writes actionable security documentation",
	fields.CategoryResilience:  "an operational resilience specialist familiar with regulatory impact tolerance frameworks",
	fields.CategorySupplyChain: "a supply chain risk analyst who evaluates supplier dependencies and disruption exposure",
}

// Render builds the prompt for req using r. The entity block is always
// present and the prompt always ends with ContentOnlyInstruction.
func (r Recipe) Render(req *providers.GenerationRequest) string {
	var b strings.Builder

	persona := r.Persona
	if persona == "" {
		persona = personas[req.Field().Category()]
	}
	if persona == "" {
		persona = "a governance, risk and compliance professional"
	}
	fmt.Fprintf(&b, "You are %s.\n\n", persona)

	renderEntity(&b, req)

	fmt.Fprintf(&b, "\nTask: %s\n", r.Task)

	if r.Guidance != nil {
		if g := r.Guidance(req); g != "" {
			b.WriteString("\n")
			b.WriteString(g)
			b.WriteString("\n")
		}
	}

	b.WriteString("\nRequirements:\n")
	for _, g := range r.Guidelines {
		b.WriteString("- ")
		b.WriteString(g)
		b.WriteByte('\n')
	}
	b.WriteString("- Use a professional tone suitable for board and regulator review.\n")
	b.WriteString("- Tailor the content to the information above; do not invent names, figures or dates.\n")

	if req.Field().IsList() {
		n := r.Items
		if n == 0 {
			n = 5
		}
		fmt.Fprintf(&b, "- Return a JSON array of exactly %d strings, each one complete sentence, for example [\"First item.\", \"Second item.\"].\n", n)
	} else if r.MaxWords > 0 {
		fmt.Fprintf(&b, "- Length: between %d and %d words.\n", r.MinWords, r.MaxWords)
	}

	b.WriteString("\n")
	b.WriteString(ContentOnlyInstruction)
	return b.String()
}

// text is a prose recipe.
func text(task string, minWords, maxWords int, guidelines ...string) Recipe {
	return Recipe{Task: task, MinWords: minWords, MaxWords: maxWords, Guidelines: guidelines}
}

// list is a recipe for a list-shaped answer.
func list(task string, items int, guidelines ...string) Recipe {
	return Recipe{Task: task, Items: items, Guidelines: guidelines}
}
