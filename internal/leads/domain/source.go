package domain

import "strings"

var sourceTemperatures = map[string]Temperature{
	"referral":  TemperatureWarm,
	"direct":    TemperatureWarm,
	"inbound":   TemperatureWarm,
	"website":   TemperatureWarm,
	"organic":   TemperatureWarm,
	"email":     TemperatureWarm,
	"events":    TemperatureWarm,
	"event":     TemperatureWarm,
	"partner":   TemperatureWarm,
	"cold":      TemperatureCold,
	"outbound":  TemperatureCold,
	"purchased": TemperatureCold,
}

// InitialTemperature derives the temperature a new lead starts with from
// its source channel. Unknown channels start COLD.
func InitialTemperature(source string) Temperature {
	normalized := strings.ToLower(strings.TrimSpace(source))
	if strings.Contains(normalized, "urgent") || strings.Contains(normalized, "demo request") {
		return TemperatureHot
	}
	normalized = strings.ReplaceAll(normalized, "-", "_")
	if t, ok := sourceTemperatures[normalized]; ok {
		return t
	}
	for key, t := range sourceTemperatures {
		if strings.HasPrefix(normalized, key+"_") {
			return t
		}
	}
	return TemperatureCold
}
