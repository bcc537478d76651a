package delivery

import "strings"

// Intent is the navigation requested by the user.
type Intent string

const (
	IntentEnter  Intent = "ENTER"
	IntentResume Intent = "RESUME"
	IntentNext   Intent = "NEXT"
	IntentPrev   Intent = "PREV"
	IntentReview Intent = "REVIEW"
	IntentFinish Intent = "FINISH"
)

// ParseIntent is case-insensitive and accepts SUBMIT for FINISH.
func ParseIntent(value string) (Intent, error) {
	switch intent := Intent(strings.ToUpper(strings.TrimSpace(value))); intent {
	case IntentEnter, IntentResume, IntentNext, IntentPrev, IntentReview, IntentFinish:
		return intent, nil
	case "SUBMIT":
		return IntentFinish, nil
	default:
		return "", invalidf("parse_intent", "unknown intent %q", value)
	}
}
