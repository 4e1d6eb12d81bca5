// Package pricing corrects location cost estimates returned by text models.
//
// Models routinely answer $0 for venues that charge a location fee instead of
// leaving the field out. Backfill treats that as a systematic bias: any venue
// that is not flagged as free public space gets a day-rate estimate from a
// venue-type table.
package pricing

import (
	"math"
	"regexp"
	"strings"

	"storyroom/pkg/schema"
	"storyroom/pkg/utils"
)

// DefaultDayRate applies when no venue keyword matches.
const DefaultDayRate = 750.0

// duplicateThreshold is the venue-name similarity above which two suggestions are the same place.
const duplicateThreshold = 0.9

type rate struct {
	rx  *regexp.Regexp
	usd float64
}

func kw(pattern string, usd float64) rate {
	return rate{rx: regexp.MustCompile(`(?i)\b(?:` + pattern + `)\b`), usd: usd}
}

// dayRates is ordered: more specific venue kinds come before generic ones.
var dayRates = []rate{
	kw(`sound ?stages?`, 3000),
	kw(`mansions?|estates?|villas?`, 3500),
	kw(`hospitals?|clinics?`, 2500),
	kw(`museums?|galleries|gallery`, 2500),
	kw(`hotels?|motels?`, 2000),
	kw(`theat(?:er|re)s?|auditoriums?`, 2000),
	kw(`rooftops?`, 1800),
	kw(`studios?`, 1500),
	kw(`restaurants?|night ?clubs?|clubs?`, 1500),
	kw(`warehouses?|factory|factories|industrial`, 1200),
	kw(`bars?|pubs?|lounges?`, 1200),
	kw(`farms?|ranch(?:es)?|barns?`, 1200),
	kw(`lofts?`, 1000),
	kw(`diners?|schools?|classrooms?`, 1000),
	kw(`offices?|libraries|library|churches|church`, 900),
	kw(`cafes?|coffee ?shops?|bakery|bakeries`, 800),
	kw(`houses?|homes?|apartments?|residences?|condos?|cabins?`, 750),
	kw(`gyms?|dojos?`, 700),
	kw(`shops?|stores?|boutiques?|markets?`, 600),
	kw(`parking (?:lots?|garages?)|garages?`, 500),
}

var freeVenueRX = regexp.MustCompile(`(?i)\b(?:public (?:park|plaza|square|beach|street|space)s?|parks?|beach(?:es)?|streets?|sidewalks?|trails?|alleys?|plazas?)\b`)

// IsFreeVenue reports whether a suggestion is legitimately free to shoot at.
// Only the explicit flag and the venue type count; descriptions often mention
// nearby parks without the venue itself being one.
func IsFreeVenue(s schema.LocationSuggestion) bool {
	if s.IsFree {
		return true
	}
	if s.VenueType == "" {
		return false
	}
	return freeVenueRX.MatchString(s.VenueType) && !paidOverride(s.VenueType)
}

// paidOverride catches venue types that contain a free keyword but charge a fee.
func paidOverride(venueType string) bool {
	for _, r := range dayRates {
		if r.rx.MatchString(venueType) {
			return true
		}
	}
	return false
}

// DayRate estimates the daily location fee for a suggestion from its type,
// then its name, then its description.
func DayRate(s schema.LocationSuggestion) float64 {
	for _, field := range []string{s.VenueType, s.VenueName, s.Description} {
		if strings.TrimSpace(field) == "" {
			continue
		}
		for _, r := range dayRates {
			if r.rx.MatchString(field) {
				return r.usd
			}
		}
	}
	return DefaultDayRate
}

// Estimate returns the heuristic cost of the whole shoot, rounded to $50.
func Estimate(s schema.LocationSuggestion) float64 {
	days := max(s.ShootDays, 1)
	return math.Round(DayRate(s)*float64(days)/50) * 50
}

// Backfill replaces missing or zero costs on paid venues with a heuristic
// estimate and collapses near-duplicate venues, keeping the first occurrence.
// It does not modify its argument and Backfill(Backfill(x)) == Backfill(x).
func Backfill(in schema.LocationSuggestions) schema.LocationSuggestions {
	out := schema.LocationSuggestions{
		Suggestions: make([]schema.LocationSuggestion, 0, len(in.Suggestions)),
	}

	for _, s := range in.Suggestions {
		if isDuplicate(out.Suggestions, s) {
			continue
		}
		if s.Cost() <= 0 && !IsFreeVenue(s) {
			cost := Estimate(s)
			s.EstimatedCost = &cost
			s.CostEstimated = true
		}
		out.Suggestions = append(out.Suggestions, s)
	}
	return out
}

func isDuplicate(kept []schema.LocationSuggestion, s schema.LocationSuggestion) bool {
	name := strings.TrimSpace(s.VenueName)
	if name == "" {
		return false
	}
	for _, k := range kept {
		if utils.Similarity(k.VenueName, name) >= duplicateThreshold {
			return true
		}
	}
	return false
}
