package weather

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Kyz7/skycast/internal/config"
	"github.com/Kyz7/skycast/internal/database"
	"github.com/Kyz7/skycast/internal/models"
	"gorm.io/gorm/clause"
)

const CacheTTL = 10 * time.Minute

var ErrUpstream = errors.New("weather service unavailable")

var (
	baseURL    string
	apiKey     string
	httpClient = &http.Client{Timeout: 10 * time.Second}
)

func Configure(cfg *config.Config) {
	baseURL = strings.TrimSuffix(cfg.WeatherAPIURL, "/")
	apiKey = cfg.WeatherAPIKey
}

// Current returns the weather payload for a city, served from the DB cache
// when fresh. A stale cache entry is still served if the upstream fails.
func Current(city string) (json.RawMessage, error) {
	key := cityKey(city)

	var cached models.WeatherCache
	cacheErr := database.DB.Where("city_key = ?", key).First(&cached).Error
	if cacheErr == nil && time.Since(cached.FetchedAt) < CacheTTL {
		return json.RawMessage(cached.Payload), nil
	}

	payload, err := fetch(fmt.Sprintf("%s/weather?q=%s&appid=%s&units=metric",
		baseURL, url.QueryEscape(city), apiKey))
	if err != nil {
		if cacheErr == nil {
			return json.RawMessage(cached.Payload), nil
		}
		return nil, err
	}

	entry := models.WeatherCache{
		CityKey:   key,
		Payload:   payload,
		FetchedAt: time.Now(),
	}
	if err := database.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "city_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "fetched_at"}),
	}).Create(&entry).Error; err != nil {
		return nil, err
	}

	return json.RawMessage(payload), nil
}

// SearchCity proxies the upstream geocoding lookup. Results are not cached:
// search queries vary too much for the per-city cache to help.
func SearchCity(query string) (json.RawMessage, error) {
	payload, err := fetch(fmt.Sprintf("%s/find?q=%s&appid=%s&units=metric",
		baseURL, url.QueryEscape(query), apiKey))
	if err != nil {
		return nil, err
	}
	return json.RawMessage(payload), nil
}

func fetch(requestURL string) ([]byte, error) {
	resp, err := httpClient.Get(requestURL)
	if err != nil {
		return nil, ErrUpstream
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrUpstream
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ErrUpstream
	}

	if !json.Valid(body) {
		return nil, ErrUpstream
	}

	return body, nil
}

func cityKey(city string) string {
	return strings.ToLower(strings.TrimSpace(city))
}
