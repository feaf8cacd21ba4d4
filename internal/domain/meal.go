package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MealIngredient is one line of a composed meal.
type MealIngredient struct {
	Name     string  `bson:"name" json:"name"`
	Quantity float64 `bson:"quantity" json:"quantity"`
	Unit     string  `bson:"unit" json:"unit"`
	Kcal     float64 `bson:"kcal" json:"kcal"`
	Carbs    float64 `bson:"carbs" json:"carbs"`
	Protein  float64 `bson:"protein" json:"protein"`
	Fat      float64 `bson:"fat" json:"fat"`
}

// Meal is a dish composed by a user.
type Meal struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID `bson:"userId" json:"userId"`
	Name        string             `bson:"name" json:"name"`
	Ingredients []MealIngredient   `bson:"ingredients" json:"ingredients"`
	Totals      Totals             `bson:"totals" json:"totals"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}

// ComputeTotals sums the ingredient lines into m.Totals.
func (m *Meal) ComputeTotals() {
	var t Totals
	for _, ing := range m.Ingredients {
		t = t.Add(Totals{Kcal: ing.Kcal, Carbs: ing.Carbs, Protein: ing.Protein, Fat: ing.Fat})
	}
	m.Totals = t
}

// AsItem converts the meal into a day plan item.
func (m *Meal) AsItem() MealItem {
	return MealItem{ID: m.ID.Hex(), Name: m.Name, Totals: m.Totals}
}

// CatalogItem is one ingredient of a catalog group, quoted per portion.
type CatalogItem struct {
	Name         string     `bson:"name" json:"name"`
	PortionGrams float64    `bson:"portionGrams" json:"portionGrams"`
	ApproxKcal   float64    `bson:"approxKcal,omitempty" json:"approxKcal,omitempty"`
	Household    string     `bson:"household,omitempty" json:"household,omitempty"` // e.g. "1 slice"
	Macros       MacroGrams `bson:"macros" json:"macros"`
}

// CatalogGroup groups catalog ingredients by category.
type CatalogGroup struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Category     string             `bson:"category" json:"category"`
	PortionLabel string             `bson:"portionLabel" json:"portionLabel"`
	Macros       MacroGrams         `bson:"macros" json:"macros"` // typical macros per portion of the group
	Items        []CatalogItem      `bson:"items" json:"items"`
}

// Flatten converts the group items into day plan ingredients keyed
// "<category>-<name>".
func (g CatalogGroup) Flatten() []IngredientItem {
	out := make([]IngredientItem, 0, len(g.Items))
	for _, it := range g.Items {
		out = append(out, IngredientItem{
			Key:      IngredientKey(g.Category, it.Name),
			Name:     it.Name,
			Category: g.Category,
			Macros:   it.Macros,
			Kcal:     it.ApproxKcal,
		})
	}
	return out
}
