package mqtt

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"weather-notifier/internal/weather"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type Publisher struct {
	client      mqtt.Client
	topicPrefix string
	location    string
	enabled     bool
}

type PublisherConfig struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
	Location    string
	Enabled     bool
}

// AlertEvent is published once per delivered notification.
type AlertEvent struct {
	CycleID    string              `json:"cycle_id"`
	Conditions []weather.Condition `json:"conditions"`
	Trigger    string              `json:"trigger"`
	Summary    string              `json:"summary"`
	Body       string              `json:"body"`
	SentAt     time.Time           `json:"sent_at"`
}

func NewPublisher(cfg PublisherConfig) (*Publisher, error) {
	if !cfg.Enabled {
		return &Publisher{enabled: false}, nil
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetConnectionLostHandler(func(c mqtt.Client, err error) {
			log.Printf("MQTT connection lost: %v", err)
		}).
		SetOnConnectHandler(func(c mqtt.Client) {
			log.Println("MQTT connected")
		})

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	return newPublisher(client, cfg.TopicPrefix, cfg.Location), nil
}

func newPublisher(client mqtt.Client, topicPrefix, location string) *Publisher {
	return &Publisher{
		client:      client,
		topicPrefix: topicPrefix,
		location:    location,
		enabled:     true,
	}
}

func (p *Publisher) topic(name string) string {
	return fmt.Sprintf("%s/%s/%s", p.topicPrefix, p.location, name)
}

// PublishReport sends each report field to its own topic and the whole
// report, retained, to the status topic.
func (p *Publisher) PublishReport(r *weather.Report) error {
	if !p.enabled || r == nil {
		return nil
	}

	air := r.AirQualityCategory()
	if r.AirQuality == nil {
		air = "unavailable"
	}

	topics := map[string]interface{}{
		"condition":   r.Condition,
		"temperature": r.TemperatureC,
		"uv_index":    r.UVIndex,
		"air_quality": air,
	}

	for name, value := range topics {
		topic := p.topic(name)
		payload := fmt.Sprintf("%v", value)
		token := p.client.Publish(topic, 0, false, payload)
		token.Wait()
		if token.Error() != nil {
			log.Printf("Failed to publish to %s: %v", topic, token.Error())
		}
	}

	statusJSON, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	token := p.client.Publish(p.topic("status"), 0, true, statusJSON)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("failed to publish status: %w", token.Error())
	}

	return nil
}

func (p *Publisher) PublishAlert(event AlertEvent) error {
	if !p.enabled {
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}

	token := p.client.Publish(p.topic("alert"), 1, false, payload)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("failed to publish alert: %w", token.Error())
	}
	return nil
}

func (p *Publisher) PublishHomeAssistantDiscovery() error {
	if !p.enabled {
		return nil
	}

	sensors := []struct {
		Name        string
		ID          string
		Unit        string
		DeviceClass string
	}{
		{"Condition", "condition", "", ""},
		{"Temperature", "temperature", "°C", "temperature"},
		{"UV Index", "uv_index", "UV index", ""},
		{"Air Quality", "air_quality", "", ""},
	}

	for _, sensor := range sensors {
		discoveryTopic := fmt.Sprintf("homeassistant/sensor/weather_notifier_%s/%s/config", p.location, sensor.ID)

		config := map[string]interface{}{
			"name":        fmt.Sprintf("Weather %s", sensor.Name),
			"unique_id":   fmt.Sprintf("weather_notifier_%s_%s", p.location, sensor.ID),
			"state_topic": p.topic(sensor.ID),
			"device": map[string]interface{}{
				"identifiers":  []string{"weather_notifier_" + p.location},
				"name":         "Weather Notifier " + p.location,
				"manufacturer": "AccuWeather",
			},
		}

		if sensor.Unit != "" {
			config["unit_of_measurement"] = sensor.Unit
		}
		if sensor.DeviceClass != "" {
			config["device_class"] = sensor.DeviceClass
		}

		payload, err := json.Marshal(config)
		if err != nil {
			return fmt.Errorf("failed to encode discovery for %s: %w", sensor.ID, err)
		}
		token := p.client.Publish(discoveryTopic, 0, true, payload)
		token.Wait()
		if token.Error() != nil {
			return fmt.Errorf("failed to publish discovery for %s: %w", sensor.ID, token.Error())
		}
	}

	return nil
}

func (p *Publisher) IsConnected() bool {
	if !p.enabled {
		return false
	}
	return p.client.IsConnected()
}

func (p *Publisher) Close() {
	if p.enabled && p.client != nil {
		p.client.Disconnect(1000)
	}
}
