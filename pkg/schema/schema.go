package schema

import (
	"storyroom/pkg/extract"
)

var (
	LocationSuggestionsSchema = extract.NewSchema[LocationSuggestions](
		extract.WithName("location_suggestions", "Real-world venues that could host a group of scenes"),
		extract.WithWrapper("suggestions", "locations", "venues", "results"),
	)

	QuestionnaireSchema = extract.NewSchema[Questionnaire](
		extract.WithName("questionnaire", "Categorized questions asked before writing a story bible"),
		extract.WithWrapper("categories", "sections", "questionnaire"),
	)

	FramePromptSchema = extract.NewSchema[FramePrompt](
		extract.WithName("frame_prompt", "Image prompt for a single storyboard panel"),
	)
)
