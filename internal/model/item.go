package model

import (
	"time"

	"github.com/rotisserie/eris"
)

// Category buckets a food item for filtering and display.
type Category string

const (
	CategoryFruits Category = "fruits"
	CategorySnacks Category = "snacks"
	CategoryMeals  Category = "meals"
	CategoryDrinks Category = "drinks"
	CategorySweets Category = "sweets"
	CategoryOther  Category = "other"
)

// AllCategories returns every valid category.
func AllCategories() []Category {
	return []Category{
		CategoryFruits,
		CategorySnacks,
		CategoryMeals,
		CategoryDrinks,
		CategorySweets,
		CategoryOther,
	}
}

// ParseCategory maps a string onto a known category, defaulting to other.
func ParseCategory(s string) Category {
	c := Category(s)
	for _, known := range AllCategories() {
		if c == known {
			return c
		}
	}
	return CategoryOther
}

// Sugar is a sugar amount that may still be unresolved. The zero value is
// unresolved.
type Sugar struct {
	Grams float64 `json:"grams"`
	Known bool    `json:"known"`
}

// Grams returns a resolved sugar amount.
func Grams(g float64) Sugar {
	return Sugar{Grams: g, Known: true}
}

// UnknownSugar returns the unresolved sugar value.
func UnknownSugar() Sugar {
	return Sugar{}
}

// CandidateItem is transient product data under construction by the
// acquisition pipeline. It is passed and returned by value; a run never
// mutates a candidate the caller still holds.
type CandidateItem struct {
	Name     string   `json:"name"`
	Cost     float64  `json:"cost"`
	Sugar    Sugar    `json:"sugar"`
	Category Category `json:"category"`
}

// OutcomeKind tags the terminal state of one acquisition run.
type OutcomeKind string

const (
	OutcomeAccepted         OutcomeKind = "accepted"
	OutcomeRejected         OutcomeKind = "rejected"
	OutcomeNeedsManualSugar OutcomeKind = "needs_manual_sugar"
	OutcomeNeedsMoreInput   OutcomeKind = "needs_more_input"
)

// Outcome is the single terminal result of an acquisition run. Every run
// produces exactly one Outcome; callers never see a partial state.
type Outcome struct {
	Kind   OutcomeKind   `json:"kind"`
	Item   CandidateItem `json:"item"`
	Reason string        `json:"reason,omitempty"`
}

// Accepted wraps a fully resolved candidate.
func Accepted(item CandidateItem) Outcome {
	return Outcome{Kind: OutcomeAccepted, Item: item}
}

// Rejected reports a safety rejection. The candidate is discarded: a
// rejected item must never be silently resubmitted, so no fields survive.
func Rejected(reason string) Outcome {
	return Outcome{Kind: OutcomeRejected, Item: CandidateItem{Category: CategoryOther}, Reason: reason}
}

// NeedsManualSugar preserves the vetted candidate and asks the caller to
// collect sugar interactively and resubmit.
func NeedsManualSugar(item CandidateItem) Outcome {
	return Outcome{Kind: OutcomeNeedsManualSugar, Item: item}
}

// NeedsMoreInput reports that the run ended before vetting; whatever fields
// were gathered are returned so the caller can prefill a manual form.
func NeedsMoreInput(item CandidateItem) Outcome {
	return Outcome{Kind: OutcomeNeedsMoreInput, Item: item}
}

// FoodItem is a persisted pantry record. Sugar and cost are always concrete
// by the time one exists.
type FoodItem struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Sugar     float64   `json:"sugar"`
	Cost      float64   `json:"cost"`
	Quantity  int       `json:"quantity"`
	Category  Category  `json:"category"`
	Owner     string    `json:"owner"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FoodItemFromCandidate converts an accepted candidate into a persistable
// item. A candidate with unresolved sugar can never be persisted.
func FoodItemFromCandidate(c CandidateItem, owner string) (*FoodItem, error) {
	if c.Name == "" {
		return nil, eris.New("model: candidate has no name")
	}
	if !c.Sugar.Known {
		return nil, eris.Errorf("model: candidate %q has unresolved sugar", c.Name)
	}
	category := c.Category
	if category == "" {
		category = CategoryOther
	}
	return &FoodItem{
		Name:     c.Name,
		Sugar:    c.Sugar.Grams,
		Cost:     c.Cost,
		Quantity: 1,
		Category: category,
		Owner:    owner,
	}, nil
}
