// Package service contains the application business logic
package service

import (
	"fmt"
	"strings"

	"climascope.app/models"
)

// severeConditions are the condition keywords that qualify as severe weather.
var severeConditions = []string{"storm", "thunder", "severe", "tornado", "hurricane", "hail"}

// EvaluateAlerts checks a weather snapshot against one favorite city's
// preferences and returns the alert intents that fire. Evaluation order is
// fixed: temperature high, temperature low, rain, severe. A nil threshold
// means the rule is disabled.
func EvaluateAlerts(favorite *models.FavoriteCity, snapshot *models.WeatherSnapshot) []models.AlertIntent {
	var intents []models.AlertIntent

	if intent := evaluateTemperatureHigh(favorite, snapshot); intent != nil {
		intents = append(intents, *intent)
	}
	if intent := evaluateTemperatureLow(favorite, snapshot); intent != nil {
		intents = append(intents, *intent)
	}
	if intent := evaluateRain(favorite, snapshot); intent != nil {
		intents = append(intents, *intent)
	}
	if intent := evaluateSevere(favorite, snapshot); intent != nil {
		intents = append(intents, *intent)
	}

	return intents
}

func evaluateTemperatureHigh(favorite *models.FavoriteCity, snapshot *models.WeatherSnapshot) *models.AlertIntent {
	threshold := favorite.TemperatureThresholdHigh
	if threshold == nil || snapshot.Temperature <= *threshold {
		return nil
	}

	temp := snapshot.Temperature
	return &models.AlertIntent{
		Type: models.AlertTemperatureHigh,
		Message: fmt.Sprintf("Temperature in %s is %.1f°C, above your %.1f°C threshold",
			favorite.CityName, temp, *threshold),
		Temperature: &temp,
		Condition:   snapshot.Description,
	}
}

func evaluateTemperatureLow(favorite *models.FavoriteCity, snapshot *models.WeatherSnapshot) *models.AlertIntent {
	threshold := favorite.TemperatureThresholdLow
	if threshold == nil || snapshot.Temperature >= *threshold {
		return nil
	}

	temp := snapshot.Temperature
	return &models.AlertIntent{
		Type: models.AlertTemperatureLow,
		Message: fmt.Sprintf("Temperature in %s is %.1f°C, below your %.1f°C threshold",
			favorite.CityName, temp, *threshold),
		Temperature: &temp,
		Condition:   snapshot.Description,
	}
}

func evaluateRain(favorite *models.FavoriteCity, snapshot *models.WeatherSnapshot) *models.AlertIntent {
	if !favorite.NotifyRain {
		return nil
	}
	if !strings.Contains(strings.ToLower(snapshot.Description), "rain") {
		return nil
	}

	temp := snapshot.Temperature
	return &models.AlertIntent{
		Type:        models.AlertRain,
		Message:     fmt.Sprintf("Rain expected in %s: %s", favorite.CityName, snapshot.Description),
		Temperature: &temp,
		Condition:   snapshot.Description,
	}
}

func evaluateSevere(favorite *models.FavoriteCity, snapshot *models.WeatherSnapshot) *models.AlertIntent {
	if !favorite.NotifyExtremeWeather {
		return nil
	}

	description := strings.ToLower(snapshot.Description)
	matched := ""
	for _, keyword := range severeConditions {
		if strings.Contains(description, keyword) {
			matched = keyword
			break
		}
	}
	if matched == "" {
		return nil
	}

	temp := snapshot.Temperature
	return &models.AlertIntent{
		Type:        models.AlertSevere,
		Message:     fmt.Sprintf("Severe weather in %s: %s", favorite.CityName, snapshot.Description),
		Temperature: &temp,
		Condition:   snapshot.Description,
	}
}
