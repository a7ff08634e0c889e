package domain

// CommonAllergens is the vocabulary offered to users when picking allergens
var CommonAllergens = []string{
	"Peanuts",
	"Tree Nuts",
	"Milk",
	"Egg",
	"Wheat",
	"Soy",
	"Fish",
	"Shellfish",
	"Sesame",
}

// SwapOption is one safe replacement for an allergen
type SwapOption struct {
	Name string `json:"name"`
	Icon string `json:"icon"`
}

// SwapGroup lists the replacements for one allergen key
type SwapGroup struct {
	Allergen string       `json:"allergen"`
	Options  []SwapOption `json:"options"`
}

// SafeSwaps is the ordered alternatives table. Order matters: lookups
// walk it top to bottom.
var SafeSwaps = []SwapGroup{
	{Allergen: "Peanuts", Options: []SwapOption{
		{Name: "Sunflower Seeds", Icon: "🌻"},
		{Name: "Pumpkin Seeds", Icon: "🎃"},
		{Name: "Soy Nuts", Icon: "🫘"},
	}},
	{Allergen: "Tree Nuts", Options: []SwapOption{
		{Name: "Oat Milk", Icon: "🥛"},
		{Name: "Sunflower Butter", Icon: "🌻"},
		{Name: "Coconut Chips", Icon: "🥥"},
	}},
	{Allergen: "Milk", Options: []SwapOption{
		{Name: "Oat Milk", Icon: "🌾"},
		{Name: "Almond Milk", Icon: "🌰"},
		{Name: "Soy Milk", Icon: "🫘"},
		{Name: "Coconut Yogurt", Icon: "🥥"},
	}},
	{Allergen: "Egg", Options: []SwapOption{
		{Name: "Applesauce", Icon: "🍎"},
		{Name: "Chia Seeds", Icon: "🌱"},
		{Name: "Tofu Scramble", Icon: "🍳"},
	}},
	{Allergen: "Wheat", Options: []SwapOption{
		{Name: "Rice Crackers", Icon: "🍚"},
		{Name: "Quinoa", Icon: "🥣"},
		{Name: "Corn Pasta", Icon: "🌽"},
	}},
	{Allergen: "Soy", Options: []SwapOption{
		{Name: "Chickpeas", Icon: "🧆"},
		{Name: "Lentils", Icon: "🍲"},
		{Name: "Kidney Beans", Icon: "🫘"},
	}},
	{Allergen: "Fish", Options: []SwapOption{
		{Name: "Tofu Fish", Icon: "🧊"},
		{Name: "Jackfruit", Icon: "🍈"},
		{Name: "Seaweed", Icon: "🌿"},
	}},
	{Allergen: "Shellfish", Options: []SwapOption{
		{Name: "King Oyster Mushrooms", Icon: "🍄"},
		{Name: "Hearts of Palm", Icon: "🌴"},
	}},
}
