package app

// Plan is one entry in the static plan catalog. Display metadata is fixed at
// compile time; the Stripe price id for each interval comes from configuration.
type Plan struct {
	Name        string   `json:"name"`
	Amount      int64    `json:"amount"`
	Currency    string   `json:"currency"`
	Interval    string   `json:"interval"`
	IsPopular   bool     `json:"isPopular,omitempty"`
	Description string   `json:"description"`
	Features    []string `json:"features"`
}

// Catalog maps billing intervals to plan metadata and external price ids.
type Catalog struct {
	plans    []Plan
	priceIDs map[string]string
}

var availablePlans = []Plan{
	{
		Name:        "Weekly Plan",
		Amount:      60,
		Currency:    "INR",
		Interval:    "week",
		Description: "Great if you want to try the service before committing longer.",
		Features: []string{
			"Unlimited AI meal plans",
			"AI nutrition insights",
			"Cancel anytime",
		},
	},
	{
		Name:        "Monthly Plan",
		Amount:      199,
		Currency:    "INR",
		Interval:    "month",
		IsPopular:   true,
		Description: "Perfect for ongoing, month-to-month meal planning and features.",
		Features: []string{
			"Unlimited AI meal plans",
			"Priority AI support",
			"Cancel anytime",
		},
	},
	{
		Name:        "Yearly Plan",
		Amount:      999,
		Currency:    "INR",
		Interval:    "year",
		Description: "Best value for those committed to improving their diet long-term.",
		Features: []string{
			"Unlimited AI meal plans",
			"All premium features",
			"Cancel anytime",
		},
	},
}

// NewCatalog builds the catalog with the configured price ids for the
// week/month/year intervals.
func NewCatalog(weeklyPriceID, monthlyPriceID, yearlyPriceID string) Catalog {
	return Catalog{
		plans: availablePlans,
		priceIDs: map[string]string{
			"week":  weeklyPriceID,
			"month": monthlyPriceID,
			"year":  yearlyPriceID,
		},
	}
}

// Plans returns every plan in display order.
func (c Catalog) Plans() []Plan {
	return c.plans
}

// PlanByInterval looks up a plan by its billing interval identifier.
func (c Catalog) PlanByInterval(interval string) (Plan, bool) {
	for _, p := range c.plans {
		if p.Interval == interval {
			return p, true
		}
	}
	return Plan{}, false
}

// PriceID returns the external price id for an interval.
func (c Catalog) PriceID(interval string) (string, bool) {
	id, ok := c.priceIDs[interval]
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
