package geocode

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"
)

// Geocoder resolves a free-text address to coordinates.
type Geocoder interface {
	Latlng(ctx context.Context, address string) (lat float64, lng float64, err error)
}

type GoogleGeocoder struct {
	client *maps.Client
}

func NewGoogleGeocoder(apiKey string) (*GoogleGeocoder, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))

	if err != nil {
		return nil, err
	}

	return &GoogleGeocoder{client: client}, nil
}

func (g *GoogleGeocoder) Latlng(ctx context.Context, address string) (float64, float64, error) {
	results, err := g.client.Geocode(ctx, &maps.GeocodingRequest{Address: address})

	if err != nil {
		return 0, 0, err
	}

	if len(results) == 0 {
		return 0, 0, fmt.Errorf("no geocoding result for %q", address)
	}

	location := results[0].Geometry.Location

	return location.Lat, location.Lng, nil
}
