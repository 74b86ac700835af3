package flags

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

const (
	choicePlaceholderPrefix     = "<"
	choicePlaceholderSuffix     = ">"
	choiceSeparatorLiteral      = "|"
	choiceUsageEmptyTemplate    = "`%s`"
	choiceUsageFullTemplate     = "`%s` %s"
	choiceTypeNameConstant      = "choice"
	unsupportedChoiceTemplate   = "unsupported value %q (expected one of %s)"
	choiceListSeparatorConstant = ", "
)

// ChoiceValue is a pflag.Value restricted to a fixed set of case-insensitive choices.
type ChoiceValue struct {
	target  *string
	choices []string
}

// BindChoiceFlag registers a string flag that only accepts the listed choices.
// The highlighted choice is rendered in upper case in the usage text; the flag
// itself starts empty so callers can detect whether it was set.
func BindChoiceFlag(flagSet *pflag.FlagSet, target *string, name string, highlightedChoice string, choices []string, description string) {
	if flagSet == nil || target == nil || len(name) == 0 {
		return
	}
	value := &ChoiceValue{target: target, choices: normalizeChoices(choices)}
	flagSet.Var(value, name, FormatChoiceUsage(highlightedChoice, choices, description))
}

// Set validates and stores a choice.
func (value *ChoiceValue) Set(rawValue string) error {
	normalizedValue := strings.ToLower(strings.TrimSpace(rawValue))
	for _, choice := range value.choices {
		if choice == normalizedValue {
			*value.target = normalizedValue
			return nil
		}
	}
	return fmt.Errorf(unsupportedChoiceTemplate, rawValue, strings.Join(value.choices, choiceListSeparatorConstant))
}

// String returns the current choice.
func (value *ChoiceValue) String() string {
	if value == nil || value.target == nil {
		return ""
	}
	return *value.target
}

// Type names the flag value kind in help output.
func (value *ChoiceValue) Type() string {
	return choiceTypeNameConstant
}

// FormatChoiceUsage builds a usage string where the highlighted option is capitalized inside a placeholder.
func FormatChoiceUsage(highlightedChoice string, choices []string, description string) string {
	placeholder := choicePlaceholderPrefix + strings.Join(highlightChoice(highlightedChoice, choices), choiceSeparatorLiteral) + choicePlaceholderSuffix
	if len(strings.TrimSpace(description)) == 0 {
		return fmt.Sprintf(choiceUsageEmptyTemplate, placeholder)
	}
	return fmt.Sprintf(choiceUsageFullTemplate, placeholder, description)
}

func highlightChoice(highlightedChoice string, choices []string) []string {
	normalizedHighlight := strings.ToLower(strings.TrimSpace(highlightedChoice))
	highlighted := make([]string, 0, len(choices))
	for _, choice := range normalizeChoices(choices) {
		if choice == normalizedHighlight {
			highlighted = append(highlighted, strings.ToUpper(choice))
			continue
		}
		highlighted = append(highlighted, choice)
	}
	return highlighted
}

func normalizeChoices(choices []string) []string {
	normalized := make([]string, 0, len(choices))
	seen := make(map[string]struct{}, len(choices))
	for _, choice := range choices {
		normalizedChoice := strings.ToLower(strings.TrimSpace(choice))
		if len(normalizedChoice) == 0 {
			continue
		}
		if _, exists := seen[normalizedChoice]; exists {
			continue
		}
		seen[normalizedChoice] = struct{}{}
		normalized = append(normalized, normalizedChoice)
	}
	return normalized
}
