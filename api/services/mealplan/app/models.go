package app

// PlanRequest holds the diet parameters for one generation call.
type PlanRequest struct {
	DietType  string `json:"dietType" binding:"required"`
	Calories  int    `json:"calories" binding:"required"`
	Allergies string `json:"allergies"`
	Cuisine   string `json:"cuisine"`
	Snacks    bool   `json:"snacks"`
}

// WeekPlan maps a day name to that day's meals; DayPlan maps a meal slot
// ("Breakfast", "Lunch", "Dinner", optional "Snacks") to a free-text
// description carrying a calorie estimate. Produced per request, never stored.
type WeekPlan map[string]DayPlan

type DayPlan map[string]string

// weekDays are the exact day keys the completion must produce.
var weekDays = []string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

const (
	slotBreakfast = "Breakfast"
	slotLunch     = "Lunch"
	slotDinner    = "Dinner"
	slotSnacks    = "Snacks"
)
