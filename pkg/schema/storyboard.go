package schema

// FrameRequest describes one storyboard panel to render.
type FrameRequest struct {
	SeriesID string `json:"seriesId"`
	Episode  int    `json:"episode"`
	Shot     int    `json:"shot"`
	Scene    string `json:"scene"`
	Style    string `json:"style,omitempty"`
	Force    bool   `json:"force,omitempty"`
}

// FramePrompt is the image prompt a text model writes for a FrameRequest.
type FramePrompt struct {
	Prompt string `json:"prompt" jsonschema_description:"Single-paragraph image prompt describing composition, subjects and lighting"`
	Camera string `json:"camera,omitempty" jsonschema_description:"Shot size and angle (e.g., wide, low angle)"`
	Mood   string `json:"mood,omitempty"`
}

type StoryboardFrame struct {
	Key    string      `json:"key"`
	Path   string      `json:"path"`
	Prompt FramePrompt `json:"prompt"`
	Bytes  int         `json:"bytes"`
}
