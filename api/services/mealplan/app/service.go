package app

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	gw "github.com/rvalette/mealmind/api/services/mealplan/gateway"
)

const (
	temperature = 0.7
	maxTokens   = 1500

	// maxAttempts bounds the retry on empty or malformed model output. The
	// model is nondeterministic at temperature 0.7, so a second attempt often
	// recovers; transport failures are not retried.
	maxAttempts = 2
)

// calorieRe matches a calorie figure inside a meal description,
// e.g. "Oatmeal with fruits - 350 calories" or "450 kcal".
var calorieRe = regexp.MustCompile(`(?i)\d+\s*(?:k?cal(?:orie)?s?)\b`)

// fenceRe strips markdown code-fence markers, with or without a language tag.
var fenceRe = regexp.MustCompile("```(?:json)?\n?")

// Service defines the business operations for the meal plan domain.
type Service interface {
	Generate(ctx context.Context, req PlanRequest) (WeekPlan, error)
}

type serviceImpl struct {
	gw     gw.CompletionGateway
	model  string
	logger *zap.Logger
}

func NewService(g gw.CompletionGateway, model string, logger *zap.Logger) Service {
	return serviceImpl{gw: g, model: model, logger: logger}
}

// Generate builds the prompt, calls the completion service, and parses the
// response into a validated weekly plan.
func (s serviceImpl) Generate(ctx context.Context, req PlanRequest) (WeekPlan, error) {
	prompt := buildPrompt(req)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		content, err := s.gw.Complete(ctx, gw.CompletionRequest{
			Model:       s.model,
			Prompt:      prompt,
			Temperature: temperature,
			MaxTokens:   maxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
		}

		plan, err := parsePlan(content, req.Snacks)
		if err == nil {
			return plan, nil
		}
		lastErr = err
		s.logger.Warn("completion rejected",
			zap.Int("attempt", attempt),
			zap.Error(err))
	}
	return nil, lastErr
}

// parsePlan cleans the raw model output and decodes and validates it.
func parsePlan(content string, snacks bool) (WeekPlan, error) {
	cleaned := strings.TrimSpace(content)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: no content returned", ErrEmptyCompletion)
	}

	// Models sometimes wrap the JSON in markdown fences despite instructions.
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimSpace(fenceRe.ReplaceAllString(cleaned, ""))
	}

	var plan WeekPlan
	if err := json.Unmarshal([]byte(cleaned), &plan); err != nil {
		return nil, fmt.Errorf("%w: not valid JSON: %v", ErrMalformedCompletion, err)
	}
	if plan == nil {
		return nil, fmt.Errorf("%w: null plan", ErrMalformedCompletion)
	}
	if err := validatePlan(plan, snacks); err != nil {
		return nil, err
	}
	return plan, nil
}

// validatePlan enforces the response schema: exactly the seven weekday keys,
// the three fixed meal slots per day, a Snacks slot exactly when requested,
// and a calorie figure in every description.
func validatePlan(plan WeekPlan, snacks bool) error {
	if len(plan) != len(weekDays) {
		return fmt.Errorf("%w: expected %d days, got %d", ErrMalformedCompletion, len(weekDays), len(plan))
	}

	slots := []string{slotBreakfast, slotLunch, slotDinner}
	if snacks {
		slots = append(slots, slotSnacks)
	}

	for _, day := range weekDays {
		meals, ok := plan[day]
		if !ok {
			return fmt.Errorf("%w: missing day %q", ErrMalformedCompletion, day)
		}
		if len(meals) != len(slots) {
			return fmt.Errorf("%w: %s has %d slots, expected %d", ErrMalformedCompletion, day, len(meals), len(slots))
		}
		for _, slot := range slots {
			desc, ok := meals[slot]
			if !ok {
				return fmt.Errorf("%w: %s is missing %q", ErrMalformedCompletion, day, slot)
			}
			if !calorieRe.MatchString(desc) {
				return fmt.Errorf("%w: %s %s has no calorie estimate", ErrMalformedCompletion, day, slot)
			}
		}
	}
	return nil
}

// buildPrompt renders the nutritionist instruction for the given parameters.
func buildPrompt(req PlanRequest) string {
	allergies := req.Allergies
	if allergies == "" {
		allergies = "none"
	}
	cuisine := req.Cuisine
	if cuisine == "" {
		cuisine = "no preference"
	}
	snacksIncluded := "no"
	snacksLine := ""
	if req.Snacks {
		snacksIncluded = "yes"
		snacksLine = "\n        - Snacks"
	}

	return fmt.Sprintf(`You are a professional nutritionist. Create a 7-day meal plan for an individual following a %s diet aiming for %d calories per day.

      Allergies or restrictions: %s.
      Preferred cuisine: %s.
      Snacks included: %s.

      For each day, provide:
        - Breakfast
        - Lunch
        - Dinner%s

      Use simple ingredients and provide brief instructions. Include approximate calorie counts for each meal.

      Structure the response as a JSON object where each day is a key, and each meal (breakfast, lunch, dinner, snacks) is a sub-key. Example:

      {
        "Monday": {
          "Breakfast": "Oatmeal with fruits - 350 calories",
          "Lunch": "Grilled chicken salad - 500 calories",
          "Dinner": "Steamed vegetables with quinoa - 600 calories",
          "Snacks": "Greek yogurt - 150 calories"
        }
      }

      Use the full day names Monday through Sunday as keys. Return just the JSON. No commentary, no markdown, no backticks.`,
		req.DietType, req.Calories, allergies, cuisine, snacksIncluded, snacksLine)
}
