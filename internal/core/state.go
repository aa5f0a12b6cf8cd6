package core

// AppState is the whole persisted application state: the token collection
// plus the four configurable master lists. It is serialized as a single
// blob after every mutation and rehydrated once at startup.
type AppState struct {
	Tokens            []Token          `json:"tokens"`
	Locations         []string         `json:"locations"`
	MealTypes         []string         `json:"mealTypes"`
	MealPrices        map[string]Money `json:"mealPrices"`
	CommonFreeReasons []string         `json:"commonFreeReasons"`
}

// Built-in master-list defaults, used for a fresh install and as
// per-field fallbacks when a stored payload is missing a list.
var (
	DefaultLocations = []string{
		"RPS",
		"KPM",
		"RTC",
		"RCAS",
		"Admin",
		"Chairman Sir Room",
		"HR Cabin",
	}

	DefaultMealTypes = []string{
		"Breakfast",
		"Lunch",
		"Dinner",
	}

	DefaultFreeReasons = []string{
		"Guest visit",
		"Meeting",
		"Overtime",
		"Special Event",
		"Staff Welfare",
	}
)

// DefaultMealPrices returns a fresh copy of the built-in price map.
func DefaultMealPrices() map[string]Money {
	return map[string]Money{
		"Breakfast": {Paise: 3000},
		"Lunch":     {Paise: 5000},
		"Dinner":    {Paise: 4000},
	}
}

// DefaultState returns the state of a fresh install.
func DefaultState() AppState {
	return AppState{
		Tokens:            []Token{},
		Locations:         append([]string(nil), DefaultLocations...),
		MealTypes:         append([]string(nil), DefaultMealTypes...),
		MealPrices:        DefaultMealPrices(),
		CommonFreeReasons: append([]string(nil), DefaultFreeReasons...),
	}
}

// WithDefaults substitutes the built-in default for every master list
// that is missing or empty. Each field falls back independently, so a
// partially corrupted or older-schema payload keeps whatever lists it
// still carries.
func (s AppState) WithDefaults() AppState {
	if s.Tokens == nil {
		s.Tokens = []Token{}
	}
	if len(s.Locations) == 0 {
		s.Locations = append([]string(nil), DefaultLocations...)
	}
	if len(s.MealTypes) == 0 {
		s.MealTypes = append([]string(nil), DefaultMealTypes...)
	}
	if len(s.MealPrices) == 0 {
		s.MealPrices = DefaultMealPrices()
	}
	if len(s.CommonFreeReasons) == 0 {
		s.CommonFreeReasons = append([]string(nil), DefaultFreeReasons...)
	}
	return s
}

// Clone returns a deep copy safe to hand outside the store's lock.
func (s AppState) Clone() AppState {
	out := AppState{
		Tokens:            make([]Token, len(s.Tokens)),
		Locations:         append([]string(nil), s.Locations...),
		MealTypes:         append([]string(nil), s.MealTypes...),
		MealPrices:        make(map[string]Money, len(s.MealPrices)),
		CommonFreeReasons: append([]string(nil), s.CommonFreeReasons...),
	}
	for i, t := range s.Tokens {
		out.Tokens[i] = t.Clone()
	}
	for name, price := range s.MealPrices {
		out.MealPrices[name] = price
	}
	return out
}
