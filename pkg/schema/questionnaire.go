package schema

// Questionnaire collects the questions asked of a creator before a story bible is generated.
type Questionnaire struct {
	Categories []QuestionCategory `json:"categories" jsonschema_description:"Question groups, in the order they should be asked"`
}

type QuestionCategory struct {
	Name        string     `json:"name" jsonschema_description:"Short category title (e.g., Characters, Tone, World)"`
	Description string     `json:"description,omitempty"`
	Questions   []Question `json:"questions" jsonschema_description:"Questions in this category"`
}

type Question struct {
	ID       string   `json:"id" jsonschema_description:"Stable identifier, unique within the questionnaire"`
	Question string   `json:"question" jsonschema_description:"The question text shown to the creator"`
	Type     string   `json:"type,omitempty" jsonschema:"enum=text,enum=choice,enum=scale" jsonschema_description:"Answer widget"`
	Options  []string `json:"options,omitempty" jsonschema_description:"Choices for choice questions"`
	Hint     string   `json:"hint,omitempty" jsonschema_description:"Placeholder or example answer"`
	Required bool     `json:"required,omitempty"`
}

// Count returns the number of questions across all categories.
func (q Questionnaire) Count() int {
	var n int
	for _, c := range q.Categories {
		n += len(c.Questions)
	}
	return n
}
