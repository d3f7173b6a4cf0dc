// Package models contains domain models for pathofgreatness.
package models

// State represents a state in the journey state machine.
type State string

const (
	StateWelcome           State = "welcome"
	StateGreatnessMirror   State = "greatness_mirror"
	StateOrderReveal       State = "order_reveal"
	StateCharacterCreation State = "character_creation"
	StateChapterBefore     State = "chapter_before"
	StateChapterAfter      State = "chapter_after"
	StateCompletion        State = "completion"
	StateSalesPage         State = "sales_page"
)

// Valid reports whether the state is a member of the closed state set.
func (s State) Valid() bool {
	_, ok := Transitions[s]
	return ok
}

// Transitions maps each state to the states it may legally move to.
// sales_page is terminal: transitions from it are accepted as no-ops.
var Transitions = map[State][]State{
	StateWelcome:           {StateGreatnessMirror},
	StateGreatnessMirror:   {StateOrderReveal},
	StateOrderReveal:       {StateCharacterCreation},
	StateCharacterCreation: {StateChapterBefore},
	StateChapterBefore:     {StateChapterAfter},
	StateChapterAfter:      {StateChapterBefore, StateCompletion},
	StateCompletion:        {StateSalesPage},
	StateSalesPage:         {},
}

// Order represents one of the seven personalization orders.
type Order string

const (
	OrderMythic    Order = "mythic"
	OrderSpartan   Order = "spartan"
	OrderAtelier   Order = "atelier"
	OrderZen       Order = "zen"
	OrderAthlete   Order = "athlete"
	OrderCommander Order = "commander"
	OrderFuturist  Order = "futurist"
)

// Orders lists all seven orders.
var Orders = []Order{
	OrderMythic, OrderSpartan, OrderAtelier, OrderZen,
	OrderAthlete, OrderCommander, OrderFuturist,
}

// Valid reports whether the order is one of the seven.
func (o Order) Valid() bool {
	for _, known := range Orders {
		if o == known {
			return true
		}
	}
	return false
}

// TotalChapters is the fixed length of the journey.
const TotalChapters = 8

// ChapterTheme describes the theme of one chapter.
type ChapterTheme struct {
	Title       string
	Description string
}

// ChapterThemes maps chapter number (1..8) to its theme.
var ChapterThemes = map[int]ChapterTheme{
	1: {Title: "Coherence", Description: "The foundation - aligning your actions with your vision"},
	2: {Title: "Vision", Description: "Seeing the future you want to create"},
	3: {Title: "Discipline", Description: "The daily practice that builds greatness"},
	4: {Title: "Craft", Description: "Mastery through deliberate refinement"},
	5: {Title: "Performance", Description: "Showing up when it matters most"},
	6: {Title: "Leadership", Description: "Elevating others as you rise"},
	7: {Title: "Innovation", Description: "Creating new paths where none existed"},
	8: {Title: "Legacy", Description: "What endures after you're gone"},
}
