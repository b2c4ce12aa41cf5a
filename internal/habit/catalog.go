package habit

import "anchorcal/internal/model"

// Catalog supplies a habit for the energy context the user is in.
type Catalog interface {
	Suggest(energy model.EnergyTag) (Habit, bool)
}

// Builtin is a fixed in-memory catalog keyed by energy tag.
type Builtin map[model.EnergyTag][]Habit

// DefaultCatalog returns the habits shipped with the binary.
func DefaultCatalog() Builtin {
	return Builtin{
		model.EnergyAdmin: {
			{ID: "water", Name: "Drink a glass of water", Description: "Refill before you sit back down."},
			{ID: "desk-reset", Name: "Two-minute desk reset", Description: "Clear the surface you just worked on."},
		},
		model.EnergyTedious: {
			{ID: "stretch", Name: "Stand and stretch", Description: "Neck, shoulders, wrists. One minute."},
		},
		model.EnergyCreative: {
			{ID: "capture", Name: "Capture one idea", Description: "Write down the best thought from the last session."},
		},
		model.EnergySocial: {
			{ID: "thank", Name: "Send one thank-you", Description: "A short message to someone who helped."},
		},
		model.EnergyErrand: {
			{ID: "walk", Name: "Take the long way", Description: "Add five minutes of walking to the errand."},
		},
	}
}

// Suggest returns the first habit for energy, falling back to Admin habits.
func (b Builtin) Suggest(energy model.EnergyTag) (Habit, bool) {
	list := b[energy]
	if len(list) == 0 {
		energy = model.EnergyAdmin
		list = b[energy]
	}
	if len(list) == 0 {
		return Habit{}, false
	}
	h := list[0]
	h.Energy = energy
	return h, true
}

// Find looks a habit up by id across all energy tags.
func (b Builtin) Find(id string) (Habit, bool) {
	for energy, list := range b {
		for _, h := range list {
			if h.ID == id {
				h.Energy = energy
				return h, true
			}
		}
	}
	return Habit{}, false
}

var _ Catalog = Builtin(nil)
