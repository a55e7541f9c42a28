package econt

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"
)

// City is one entry of the courier's city nomenclature, used for address
// autocomplete at checkout.
type City struct {
	Name     string `json:"name"`
	PostCode string `json:"postCode"`
}

type citiesResponse struct {
	Cities []City `json:"cities"`
}

func (c *Client) fetchCities(ctx context.Context, countryCode string) ([]City, error) {
	payload := map[string]string{"countryCode": countryCode}

	var resp citiesResponse
	if err := c.post(ctx, "/Nomenclatures/NomenclaturesService.getCities.json", payload, &resp); err != nil {
		return nil, err
	}
	return resp.Cities, nil
}

type cityEntry struct {
	cities    []City
	fetchedAt time.Time
}

// CityCache is a time-boxed cache of the courier's city list, keyed by
// country code. Staleness on the order of hours is fine, it only feeds
// autocomplete. The clock is injectable for tests.
type CityCache struct {
	client *Client
	ttl    time.Duration
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]cityEntry
}

func NewCityCache(client *Client, ttl time.Duration) *CityCache {
	return &CityCache{
		client:  client,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cityEntry),
	}
}

// Cities returns the cached list for a country, refreshing it when the TTL
// has expired. When a refresh fails and a stale copy exists, the stale copy
// is served rather than an error.
func (cc *CityCache) Cities(ctx context.Context, countryCode string) ([]City, error) {
	cc.mu.Lock()
	entry, ok := cc.entries[countryCode]
	fresh := ok && cc.now().Sub(entry.fetchedAt) < cc.ttl
	cc.mu.Unlock()

	if fresh {
		return entry.cities, nil
	}

	cities, err := cc.client.fetchCities(ctx, countryCode)
	if err != nil {
		if ok {
			log.Println("[ECONT] city refresh failed, serving stale list:", err)
			return entry.cities, nil
		}
		return nil, err
	}

	cc.mu.Lock()
	cc.entries[countryCode] = cityEntry{cities: cities, fetchedAt: cc.now()}
	cc.mu.Unlock()

	return cities, nil
}

// Suggest filters the cached city list by a case-insensitive name prefix.
func (cc *CityCache) Suggest(ctx context.Context, countryCode, prefix string) ([]City, error) {
	cities, err := cc.Cities(ctx, countryCode)
	if err != nil {
		return nil, err
	}

	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		return cities, nil
	}

	var matched []City
	for _, city := range cities {
		if strings.HasPrefix(strings.ToLower(city.Name), prefix) {
			matched = append(matched, city)
		}
	}
	return matched, nil
}
