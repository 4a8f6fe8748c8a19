package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// WeatherHandler passes through the current temperature from a third-party
// forecast source. Decorative; not part of the catalog itself.
type WeatherHandler struct {
	URL    string
	Client *http.Client
}

func NewWeatherHandler(url string) *WeatherHandler {
	return &WeatherHandler{
		URL:    url,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (h *WeatherHandler) Get(c echo.Context) error {
	req, err := http.NewRequestWithContext(c.Request().Context(), http.MethodGet, h.URL, nil)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "Bad response")
	}

	res, err := h.Client.Do(req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "Bad response")
	}
	defer res.Body.Close()

	var upstream struct {
		CurrentWeather struct {
			Temperature float64 `json:"temperature"`
		} `json:"current_weather"`
	}
	if res.StatusCode != http.StatusOK || json.NewDecoder(res.Body).Decode(&upstream) != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "Bad response")
	}

	return c.JSON(http.StatusOK, map[string]float64{
		"temperature": upstream.CurrentWeather.Temperature,
	})
}
