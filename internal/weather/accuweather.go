package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultBaseURL = "http://dataservice.accuweather.com"

// Client fetches current conditions from the AccuWeather API.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewClient(apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// WithBaseURL points the client at another host, e.g. a test server.
func (c *Client) WithBaseURL(baseURL string) *Client {
	if strings.TrimSpace(baseURL) != "" {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
	return c
}

// currentConditions mirrors the provider payload. AccuWeather uses PascalCase
// field names. Required fields are pointers so a missing or null value can be
// told apart from a zero reading.
type currentConditions struct {
	WeatherText *string `json:"WeatherText"`
	EpochTime   int64   `json:"EpochTime"`
	Temperature *struct {
		Metric *struct {
			Value *float64 `json:"Value"`
		} `json:"Metric"`
	} `json:"Temperature"`
	UVIndex    *int `json:"UVIndex"`
	AirQuality *struct {
		Category *string `json:"Category"`
	} `json:"AirQuality"`
}

type apiError struct {
	Code    string `json:"Code"`
	Message string `json:"Message"`
}

func (c *Client) endpoint(locationKey string) (string, error) {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}

	query := url.Values{}
	query.Set("apikey", c.apiKey)
	query.Set("details", "true")

	base.Path = strings.TrimRight(base.Path, "/") + "/currentconditions/v1/" + url.PathEscape(locationKey)
	base.RawQuery = query.Encode()
	return base.String(), nil
}

// Fetch requests current conditions for locationKey and returns the first
// report in the response.
func (c *Client) Fetch(ctx context.Context, locationKey string) (*Report, error) {
	endpoint, err := c.endpoint(locationKey)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &TransportError{StatusCode: resp.StatusCode, Err: statusError(resp)}
	}

	dec := json.NewDecoder(resp.Body)
	var payload []currentConditions
	if err := dec.Decode(&payload); err != nil {
		return nil, &DecodeError{Err: err}
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, &DecodeError{Err: errors.New("unexpected data after report array")}
	}
	if len(payload) == 0 {
		return nil, ErrEmptyResult
	}

	return payload[0].toReport()
}

func statusError(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil {
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			return errors.New(apiErr.Message)
		}
	}
	return errors.New(resp.Status)
}

func (cc currentConditions) missingField() string {
	switch {
	case cc.WeatherText == nil:
		return "WeatherText"
	case cc.Temperature == nil || cc.Temperature.Metric == nil || cc.Temperature.Metric.Value == nil:
		return "Temperature.Metric.Value"
	case cc.UVIndex == nil:
		return "UVIndex"
	case cc.AirQuality != nil && cc.AirQuality.Category == nil:
		return "AirQuality.Category"
	}
	return ""
}

// toReport maps the first element into a Report. A record missing any
// required field is rejected whole.
func (cc currentConditions) toReport() (*Report, error) {
	if field := cc.missingField(); field != "" {
		return nil, &DecodeError{Err: fmt.Errorf("missing required field %s", field)}
	}

	observed := time.Now().UTC()
	if cc.EpochTime > 0 {
		observed = time.Unix(cc.EpochTime, 0).UTC()
	}

	r := &Report{
		Condition:    *cc.WeatherText,
		TemperatureC: *cc.Temperature.Metric.Value,
		UVIndex:      *cc.UVIndex,
		ObservedAt:   observed,
	}
	if cc.AirQuality != nil {
		r.AirQuality = &AirQuality{Category: *cc.AirQuality.Category}
	}
	return r, nil
}
