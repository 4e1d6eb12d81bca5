package schema

// LocationGroup is one set of scenes that can share a shooting location.
type LocationGroup struct {
	Name     string   `json:"name"`
	Scenes   []string `json:"scenes,omitempty"`
	City     string   `json:"city,omitempty"`
	Budget   string   `json:"budget,omitempty"`
	Interior bool     `json:"interior,omitempty"`
}

type LocationSuggestions struct {
	Suggestions []LocationSuggestion `json:"suggestions" jsonschema_description:"Candidate real-world venues for the location group"`
}

type LocationSuggestion struct {
	VenueName     string   `json:"venueName" jsonschema_description:"Name of the venue or a short identifying label"`
	VenueType     string   `json:"venueType,omitempty" jsonschema_description:"Kind of venue (e.g., loft, restaurant, park, warehouse)"`
	Description   string   `json:"description,omitempty" jsonschema_description:"Why this venue fits the scenes"`
	Address       string   `json:"address,omitempty" jsonschema_description:"Street address or neighborhood"`
	EstimatedCost *float64 `json:"estimatedCost,omitempty" jsonschema_description:"Estimated rental cost in USD for the whole shoot"`
	CostEstimated bool     `json:"costEstimated,omitempty" jsonschema_description:"True when the cost was filled in heuristically rather than by the model"`
	IsFree        bool     `json:"isFree,omitempty" jsonschema_description:"True for legitimately free public venues"`
	ShootDays     int      `json:"shootDays,omitempty" jsonschema_description:"Number of shooting days at this venue"`
	Permits       []string `json:"permits,omitempty" jsonschema_description:"Permits required to shoot here"`
	Amenities     []string `json:"amenities,omitempty" jsonschema_description:"Useful amenities (parking, power, green room)"`
}

// Cost returns the estimated cost, or 0 when none was given.
func (l LocationSuggestion) Cost() float64 {
	if l.EstimatedCost == nil {
		return 0
	}
	return *l.EstimatedCost
}
