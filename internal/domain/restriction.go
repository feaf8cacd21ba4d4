package domain

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RestrictionCategory groups dietary restrictions in the catalog.
type RestrictionCategory string

const (
	RestrictionMedical      RestrictionCategory = "medical"
	RestrictionNutritional  RestrictionCategory = "nutritional"
	RestrictionEthical      RestrictionCategory = "ethical"
	RestrictionCultural     RestrictionCategory = "cultural"
	RestrictionLifestyle    RestrictionCategory = "lifestyle"
	RestrictionIntolerances RestrictionCategory = "intolerances"
	RestrictionOther        RestrictionCategory = "other"
)

// RestrictionCategories lists every category in display order.
var RestrictionCategories = []RestrictionCategory{
	RestrictionMedical, RestrictionNutritional, RestrictionEthical, RestrictionCultural,
	RestrictionLifestyle, RestrictionIntolerances, RestrictionOther,
}

// Valid reports whether c is a known category.
func (c RestrictionCategory) Valid() bool {
	for _, k := range RestrictionCategories {
		if c == k {
			return true
		}
	}
	return false
}

// Restriction is one entry of the shared restriction catalog offered during
// onboarding.
type Restriction struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name        string              `bson:"name" json:"name"`
	Category    RestrictionCategory `bson:"category" json:"category"`
	Description string              `bson:"description" json:"description"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// RestrictionsDetail holds the restriction names a user picked, per category.
type RestrictionsDetail struct {
	Medical      []string `bson:"medical" json:"medical"`
	Nutritional  []string `bson:"nutritional" json:"nutritional"`
	Ethical      []string `bson:"ethical" json:"ethical"`
	Cultural     []string `bson:"cultural" json:"cultural"`
	Lifestyle    []string `bson:"lifestyle" json:"lifestyle"`
	Intolerances []string `bson:"intolerances" json:"intolerances"`
}

// Normalize trims names, drops blanks and duplicates, and replaces nil lists
// with empty ones.
func (d RestrictionsDetail) Normalize() RestrictionsDetail {
	return RestrictionsDetail{
		Medical:      cleanNames(d.Medical),
		Nutritional:  cleanNames(d.Nutritional),
		Ethical:      cleanNames(d.Ethical),
		Cultural:     cleanNames(d.Cultural),
		Lifestyle:    cleanNames(d.Lifestyle),
		Intolerances: cleanNames(d.Intolerances),
	}
}

func cleanNames(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
