package server

import (
	"fmt"
	"strings"

	"storyroom/pkg/inference"
	"storyroom/pkg/schema"
)

const locationsPrompt = `You are a location scout for low-budget, short-form episodic video productions. Your task is to suggest real-world venues for a group of scenes and return a single JSON object. Do not add any commentary or markdown formatting to your response.

The JSON object must have one root key: 'suggestions'.

**Suggestions**:
- 'suggestions' is an array of 3-5 objects, each representing a distinct venue, and must include:
  * 'venueName': The venue's name, or a short identifying label if it is a kind of place rather than a business.
  * 'venueType': The kind of venue (e.g., "loft", "restaurant", "warehouse", "park").
  * 'description': One or two sentences on why it fits the scenes.
  * 'address' (optional): Street address or neighborhood in the requested city.
  * 'estimatedCost': Estimated rental cost in USD for the whole shoot, as a number. Use 0 ONLY for legitimately free public places.
  * 'isFree': true only for public parks, streets, beaches and similar places that need no rental.
  * 'shootDays': Number of shooting days needed at this venue.
  * 'permits': Permits the production needs to shoot there.
  * 'amenities': Useful amenities such as parking, power or a green room.

**Rules**:
- Prefer venues that can host several of the listed scenes.
- Respect the budget if one is given.
- Interior groups need interior venues.
- Output only the JSON object.
`

const questionnairePrompt = `You are a development executive preparing a short-form episodic series. Your task is to write the questionnaire a creator answers before the story bible is generated, and return a single JSON object. Do not add any commentary or markdown formatting to your response.

The JSON object must have one root key: 'categories'.

**Categories**:
- 'categories' is an array of 4-6 objects, each with:
  * 'name': Short category title (e.g., "Characters", "Tone", "World").
  * 'description' (optional): One sentence on what the category covers.
  * 'questions': An array of 3-6 question objects, each with:
    * 'id': A stable snake_case identifier unique across the questionnaire.
    * 'question': The question text.
    * 'type': One of "text", "choice" or "scale".
    * 'options': Choices when 'type' is "choice".
    * 'hint' (optional): Placeholder or example answer.
    * 'required': true for questions the bible cannot be written without.

**Rules**:
- Tailor the questions to the brief.
- Do not ask for anything the brief already answers.
- Output only the JSON object.
`

const framePrompt = `You are a storyboard artist. Your task is to turn a scene description into an image prompt for a single storyboard panel, and return a single JSON object with the keys 'prompt', 'camera' and 'mood'. Do not add any commentary or markdown formatting to your response.

**Rules**:
- 'prompt' is a single paragraph describing composition, subjects, setting and lighting. No dialogue, no text in the image.
- 'camera' is the shot size and angle (e.g., "wide shot, low angle").
- 'mood' is one or two words.
- Output only the JSON object.
`

func locationRequest(g schema.LocationGroup) inference.Request {
	var b strings.Builder
	fmt.Fprintf(&b, "Location group: %s\n", g.Name)
	if g.City != "" {
		fmt.Fprintf(&b, "City: %s\n", g.City)
	}
	if g.Budget != "" {
		fmt.Fprintf(&b, "Budget: %s\n", g.Budget)
	}
	if g.Interior {
		b.WriteString("Setting: interior\n")
	}
	if len(g.Scenes) > 0 {
		b.WriteString("Scenes:\n")
		for _, scene := range g.Scenes {
			fmt.Fprintf(&b, "- %s\n", scene)
		}
	}
	return inference.Request{
		SystemPrompt: locationsPrompt,
		Prompt:       b.String(),
		Temperature:  inference.Float(0.7),
		JSON:         true,
	}
}

func questionnaireRequest(q QuestionnaireRequest) inference.Request {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", q.Title)
	if q.Genre != "" {
		fmt.Fprintf(&b, "Genre: %s\n", q.Genre)
	}
	if q.Episodes > 0 {
		fmt.Fprintf(&b, "Episodes: %d\n", q.Episodes)
	}
	fmt.Fprintf(&b, "Logline: %s\n", q.Logline)
	return inference.Request{
		SystemPrompt: questionnairePrompt,
		Prompt:       b.String(),
		Temperature:  inference.Float(0.8),
		JSON:         true,
	}
}

func frameRequest(f schema.FrameRequest) inference.Request {
	prompt := "Scene: " + f.Scene
	if f.Style != "" {
		prompt += "\nStyle: " + f.Style
	}
	return inference.Request{
		SystemPrompt: framePrompt,
		Prompt:       prompt,
		Temperature:  inference.Float(0.9),
		MaxTokens:    1024,
		JSON:         true,
	}
}
