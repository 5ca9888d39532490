package providers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"climascope.app/config"
	"climascope.app/errors"
	"climascope.app/models"
)

// OpenWeatherMapProvider implements WeatherProvider for the OpenWeatherMap API
type OpenWeatherMapProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewOpenWeatherMapProvider creates a new OpenWeatherMap provider
func NewOpenWeatherMapProvider(config *config.WeatherConfig) *OpenWeatherMapProvider {
	return &OpenWeatherMapProvider{
		apiKey:  config.APIKey,
		baseURL: config.BaseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type openWeatherMapResponse struct {
	Name string `json:"name"`
	Sys  struct {
		Country string `json:"country"`
	} `json:"sys"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  float64 `json:"humidity"`
		Pressure  float64 `json:"pressure"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Message string `json:"message,omitempty"`
}

type openWeatherMapForecastResponse struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			TempMax float64 `json:"temp_max"`
			TempMin float64 `json:"temp_min"`
		} `json:"main"`
		Weather []struct {
			Description string `json:"description"`
			Icon        string `json:"icon"`
		} `json:"weather"`
	} `json:"list"`
}

// CurrentByCity retrieves current weather for a city name
func (p *OpenWeatherMapProvider) CurrentByCity(city string) (*models.WeatherSnapshot, error) {
	if city == "" {
		return nil, errors.NewValidationError("city cannot be empty")
	}

	query := fmt.Sprintf("q=%s", url.QueryEscape(city))
	return p.fetchCurrent(query)
}

// CurrentByCoords retrieves current weather for a coordinate pair
func (p *OpenWeatherMapProvider) CurrentByCoords(lat, lon float64) (*models.WeatherSnapshot, error) {
	query := fmt.Sprintf("lat=%f&lon=%f", lat, lon)
	return p.fetchCurrent(query)
}

func (p *OpenWeatherMapProvider) fetchCurrent(query string) (*models.WeatherSnapshot, error) {
	reqURL := fmt.Sprintf("%s/weather?%s&appid=%s&units=metric", p.baseURL, query, p.apiKey)

	resp, err := p.httpClient.Get(reqURL)
	if err != nil {
		return nil, errors.NewExternalAPIError("openweathermap request failed", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Warn("close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, p.handleHTTPError(resp.StatusCode)
	}

	var apiResponse openWeatherMapResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, errors.NewExternalAPIError("decode openweathermap response", err)
	}

	return p.convertToSnapshot(&apiResponse)
}

// Forecast retrieves the 5-day/3-hour forecast reduced to one entry per day
func (p *OpenWeatherMapProvider) Forecast(city string) ([]models.ForecastDay, error) {
	if city == "" {
		return nil, errors.NewValidationError("city cannot be empty")
	}

	reqURL := fmt.Sprintf("%s/forecast?q=%s&appid=%s&units=metric", p.baseURL, url.QueryEscape(city), p.apiKey)

	resp, err := p.httpClient.Get(reqURL)
	if err != nil {
		return nil, errors.NewExternalAPIError("openweathermap forecast request failed", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Warn("close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, p.handleHTTPError(resp.StatusCode)
	}

	var apiResponse openWeatherMapForecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, errors.NewExternalAPIError("decode openweathermap forecast response", err)
	}

	// The API returns 3-hour slots; every 8th entry is roughly one day apart.
	var days []models.ForecastDay
	for i := 0; i < len(apiResponse.List) && i < 40; i += 8 {
		item := apiResponse.List[i]
		day := models.ForecastDay{
			Date:    time.Unix(item.Dt, 0).Format("Mon, Jan 02"),
			TempMax: item.Main.TempMax,
			TempMin: item.Main.TempMin,
		}
		if len(item.Weather) > 0 {
			day.Description = item.Weather[0].Description
			day.Icon = item.Weather[0].Icon
		}
		days = append(days, day)
	}

	return days, nil
}

func (p *OpenWeatherMapProvider) handleHTTPError(statusCode int) error {
	switch statusCode {
	case http.StatusUnauthorized:
		return errors.NewExternalAPIError("openweathermap: invalid API key", nil)
	case http.StatusNotFound:
		return errors.NewNotFoundError("city not found")
	case http.StatusTooManyRequests:
		return errors.NewExternalAPIError("openweathermap: rate limit exceeded", nil)
	case http.StatusServiceUnavailable:
		return errors.NewExternalAPIError("openweathermap: service unavailable", nil)
	default:
		return errors.NewExternalAPIError(fmt.Sprintf("openweathermap: HTTP %d error", statusCode), nil)
	}
}

func (p *OpenWeatherMapProvider) convertToSnapshot(apiResp *openWeatherMapResponse) (*models.WeatherSnapshot, error) {
	if len(apiResp.Weather) == 0 || apiResp.Name == "" {
		return nil, errors.NewExternalAPIError("openweathermap response missing required fields", nil)
	}

	return &models.WeatherSnapshot{
		City:        apiResp.Name,
		Country:     apiResp.Sys.Country,
		Temperature: apiResp.Main.Temp,
		Description: apiResp.Weather[0].Description,
		Icon:        apiResp.Weather[0].Icon,
		Humidity:    apiResp.Main.Humidity,
		Pressure:    apiResp.Main.Pressure,
		WindSpeed:   apiResp.Wind.Speed,
		FeelsLike:   apiResp.Main.FeelsLike,
	}, nil
}
