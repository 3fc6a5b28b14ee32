package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/amana-transportation/fleetview/models"
)

// DefaultAmanaURL is the public classwork endpoint the dashboard was built against
const DefaultAmanaURL = "https://www.amanabootcamp.org/api/fs-classwork-data/amana-transportation"

// DefaultMaxAttempts bounds upstream fetch attempts
const DefaultMaxAttempts = 3

// errPermanent marks upstream responses that retrying cannot fix
var errPermanent = errors.New("permanent upstream error")

// AmanaResponse is the upstream document. Only the fields the dashboard
// reads are decoded.
type AmanaResponse struct {
	Message  string     `json:"message"`
	BusLines []AmanaBus `json:"bus_lines"`
}

// AmanaBus is one entry of bus_lines
type AmanaBus struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	RouteNumber string `json:"route_number"`
	Status      string `json:"status"`
	Passengers  struct {
		Current  int `json:"current"`
		Capacity int `json:"capacity"`
	} `json:"passengers"`
	BusStops []AmanaStop `json:"bus_stops"`
}

// AmanaStop is one entry of bus_stops
type AmanaStop struct {
	ID               int     `json:"id"`
	Name             string  `json:"name"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	EstimatedArrival string  `json:"estimated_arrival"`
	IsNextStop       bool    `json:"is_next_stop"`
}

// AmanaClient fetches the fleet from the upstream HTTP endpoint
type AmanaClient struct {
	url         string
	client      *http.Client
	maxAttempts int
	backoff     time.Duration
}

// NewAmanaClient creates a client with the given request timeout and
// attempt budget. maxAttempts < 1 falls back to DefaultMaxAttempts.
func NewAmanaClient(url string, timeout time.Duration, maxAttempts int) *AmanaClient {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	return &AmanaClient{
		url: url,
		client: &http.Client{
			Timeout: timeout,
		},
		maxAttempts: maxAttempts,
		backoff:     500 * time.Millisecond,
	}
}

// GetAllBuses fetches and maps the upstream fleet, retrying transient failures
func (c *AmanaClient) GetAllBuses(ctx context.Context) ([]models.BusRecord, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		resp, err := c.fetch(ctx)
		if err == nil {
			buses := FromAmana(resp)
			if err := models.ValidateAll(buses); err != nil {
				return nil, fmt.Errorf("upstream returned invalid fleet: %w", err)
			}
			return buses, nil
		}
		lastErr = err
		if errors.Is(err, errPermanent) || ctx.Err() != nil {
			break
		}
		if attempt < c.maxAttempts {
			log.Printf("Amana: fetch attempt %d/%d failed: %v", attempt, c.maxAttempts, err)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoff * time.Duration(attempt)):
			}
		}
	}
	return nil, fmt.Errorf("failed to fetch fleet: %w", lastErr)
}

func (c *AmanaClient) fetch(ctx context.Context) (*AmanaResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w: %w", errPermanent, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return nil, fmt.Errorf("%w: feed returned status %d", errPermanent, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var out AmanaResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %w", errPermanent, err)
	}
	return &out, nil
}

// FromAmana maps upstream bus lines to bus records in upstream order.
// The next stop is the first stop flagged is_next_stop.
func FromAmana(resp *AmanaResponse) []models.BusRecord {
	if resp == nil {
		return []models.BusRecord{}
	}
	buses := make([]models.BusRecord, 0, len(resp.BusLines))
	for _, line := range resp.BusLines {
		b := models.BusRecord{
			ID:         busID(line),
			Status:     models.Status(line.Status),
			Passengers: line.Passengers.Current,
			Stops:      make([]models.Stop, 0, len(line.BusStops)),
		}
		for _, s := range line.BusStops {
			b.Stops = append(b.Stops, models.Stop{
				Name:        s.Name,
				ArrivalTime: s.EstimatedArrival,
				NextArrival: s.EstimatedArrival,
				Coords:      models.LatLng{Lat: s.Latitude, Lng: s.Longitude},
				IsCurrent:   s.IsNextStop,
			})
			if s.IsNextStop && b.NextStop == "" {
				b.NextStop = s.Name
				b.NextArrivalTime = s.EstimatedArrival
			}
		}
		buses = append(buses, b)
	}
	return buses
}

func busID(line AmanaBus) string {
	if line.ID > 0 {
		return fmt.Sprintf("Bus %d", line.ID)
	}
	return line.Name
}
