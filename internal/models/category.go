package models

// Category is a closed set of spending/debt categories.
type Category string

const (
	CategoryFood          Category = "food"
	CategoryRent          Category = "rent"
	CategoryUtilities     Category = "utilities"
	CategoryTransport     Category = "transport"
	CategoryEntertainment Category = "entertainment"
	CategoryShopping      Category = "shopping"
	CategoryHealth        Category = "health"
	CategoryEducation     Category = "education"
	CategoryTravel        Category = "travel"
	CategoryOther         Category = "other"
)

// Categories lists every supported category in display order.
var Categories = []Category{
	CategoryFood,
	CategoryRent,
	CategoryUtilities,
	CategoryTransport,
	CategoryEntertainment,
	CategoryShopping,
	CategoryHealth,
	CategoryEducation,
	CategoryTravel,
	CategoryOther,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryFood, CategoryRent, CategoryUtilities, CategoryTransport, CategoryEntertainment,
		CategoryShopping, CategoryHealth, CategoryEducation, CategoryTravel, CategoryOther:
		return true
	}
	return false
}

// Label returns the display label for the category.
func (c Category) Label() string {
	switch c {
	case CategoryFood:
		return "Food & Dining"
	case CategoryRent:
		return "Rent"
	case CategoryUtilities:
		return "Utilities"
	case CategoryTransport:
		return "Transport"
	case CategoryEntertainment:
		return "Entertainment"
	case CategoryShopping:
		return "Shopping"
	case CategoryHealth:
		return "Health"
	case CategoryEducation:
		return "Education"
	case CategoryTravel:
		return "Travel"
	case CategoryOther:
		return "Other"
	}
	return string(c)
}

// Color returns the chart color for the category.
func (c Category) Color() string {
	switch c {
	case CategoryFood:
		return "#f97316"
	case CategoryRent:
		return "#8b5cf6"
	case CategoryUtilities:
		return "#0ea5e9"
	case CategoryTransport:
		return "#14b8a6"
	case CategoryEntertainment:
		return "#ec4899"
	case CategoryShopping:
		return "#eab308"
	case CategoryHealth:
		return "#ef4444"
	case CategoryEducation:
		return "#6366f1"
	case CategoryTravel:
		return "#22c55e"
	case CategoryOther:
		return "#6b7280"
	}
	return "#6b7280"
}
