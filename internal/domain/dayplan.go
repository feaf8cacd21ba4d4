package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"go.mongodb.org/mongo-driver/bson"
)

// EntryKind tags the variant stored in a DayPlanEntry.
type EntryKind string

const (
	KindMeal       EntryKind = "meal"
	KindIngredient EntryKind = "ingredient"
)

var ErrUnknownEntryKind = errors.New("unknown day plan entry type")

// EntryItem is the thing placed in a meal slot: either a composed meal or a
// single catalog ingredient.
type EntryItem interface {
	Identity() string
	Kind() EntryKind
	UnitMacros() MacroGrams
	UnitKcal() float64
}

// MealItem is a user-composed meal referenced by id, carrying its totals per
// serving.
type MealItem struct {
	ID     string `bson:"id" json:"id"`
	Name   string `bson:"name" json:"name"`
	Totals Totals `bson:"totals" json:"totals"`
}

func (m MealItem) Identity() string       { return m.ID }
func (m MealItem) Kind() EntryKind        { return KindMeal }
func (m MealItem) UnitMacros() MacroGrams { return m.Totals.Macros() }
func (m MealItem) UnitKcal() float64      { return m.Totals.Kcal }

// IngredientItem is one portion of a catalog ingredient.
type IngredientItem struct {
	Key      string     `bson:"key" json:"key"` // "<category>-<name>"
	Name     string     `bson:"name" json:"name"`
	Category string     `bson:"category" json:"category"`
	Macros   MacroGrams `bson:"macros" json:"macros"`
	Kcal     float64    `bson:"kcal,omitempty" json:"kcal,omitempty"` // 0 means derive from macros
}

func (i IngredientItem) Identity() string       { return i.Key }
func (i IngredientItem) Kind() EntryKind        { return KindIngredient }
func (i IngredientItem) UnitMacros() MacroGrams { return i.Macros }

// UnitKcal returns the stored kcal or, when absent, 4/4/9 kcal per gram of
// protein/carbs/fat rounded to an integer.
func (i IngredientItem) UnitKcal() float64 {
	if i.Kcal > 0 {
		return i.Kcal
	}
	return math.Floor(i.Macros.Protein*4 + i.Macros.Carbs*4 + i.Macros.Fat*9 + 0.5)
}

// IngredientKey builds the catalog key of an ingredient.
func IngredientKey(category, name string) string {
	return category + "-" + name
}

// DayPlanEntry is an item placed Count times in a slot.
type DayPlanEntry struct {
	Count int
	Item  EntryItem
}

// Ref identifies the entry inside its slot.
func (e DayPlanEntry) Ref() string {
	if e.Item == nil {
		return ""
	}
	return string(e.Item.Kind()) + ":" + e.Item.Identity()
}

// Totals returns the entry contribution (unit values times count).
func (e DayPlanEntry) Totals() Totals {
	if e.Item == nil {
		return Totals{}
	}
	m := e.Item.UnitMacros()
	return Totals{
		Kcal:    e.Item.UnitKcal(),
		Carbs:   m.Carbs,
		Protein: m.Protein,
		Fat:     m.Fat,
	}.Scale(float64(e.Count))
}

type entryBSON struct {
	Type    EntryKind `bson:"type"`
	Count   int       `bson:"count"`
	Payload bson.Raw  `bson:"payload"`
}

type entryJSON struct {
	Type    EntryKind       `json:"type"`
	Count   int             `json:"count"`
	Payload json.RawMessage `json:"payload"`
}

// MarshalBSON writes the tagged wire form.
func (e DayPlanEntry) MarshalBSON() ([]byte, error) {
	if e.Item == nil {
		return nil, ErrUnknownEntryKind
	}
	payload, err := bson.Marshal(e.Item)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", e.Item.Kind(), err)
	}
	return bson.Marshal(entryBSON{Type: e.Item.Kind(), Count: e.Count, Payload: payload})
}

// UnmarshalBSON reads the tagged wire form.
func (e *DayPlanEntry) UnmarshalBSON(data []byte) error {
	var w entryBSON
	if err := bson.Unmarshal(data, &w); err != nil {
		return err
	}
	item, err := decodeItem(w.Type, func(v any) error { return bson.Unmarshal(w.Payload, v) })
	if err != nil {
		return err
	}
	e.Item = item
	e.Count = max(w.Count, 1)
	return nil
}

// MarshalJSON writes the tagged wire form.
func (e DayPlanEntry) MarshalJSON() ([]byte, error) {
	if e.Item == nil {
		return nil, ErrUnknownEntryKind
	}
	payload, err := json.Marshal(e.Item)
	if err != nil {
		return nil, err
	}
	return json.Marshal(entryJSON{Type: e.Item.Kind(), Count: e.Count, Payload: payload})
}

// UnmarshalJSON reads the tagged wire form.
func (e *DayPlanEntry) UnmarshalJSON(data []byte) error {
	var w entryJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	item, err := decodeItem(w.Type, func(v any) error { return json.Unmarshal(w.Payload, v) })
	if err != nil {
		return err
	}
	e.Item = item
	e.Count = max(w.Count, 1)
	return nil
}

func decodeItem(kind EntryKind, decode func(any) error) (EntryItem, error) {
	switch kind {
	case KindMeal:
		var m MealItem
		if err := decode(&m); err != nil {
			return nil, fmt.Errorf("decode meal payload: %w", err)
		}
		return m, nil
	case KindIngredient:
		var i IngredientItem
		if err := decode(&i); err != nil {
			return nil, fmt.Errorf("decode ingredient payload: %w", err)
		}
		return i, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEntryKind, kind)
}

// DayPlan maps each slot to its ordered entries.
type DayPlan map[Slot][]DayPlanEntry

// Clone returns a deep copy of the slot slices.
func (d DayPlan) Clone() DayPlan {
	out := make(DayPlan, len(d))
	for slot, entries := range d {
		out[slot] = append([]DayPlanEntry(nil), entries...)
	}
	return out
}
