package field

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Publisher pushes pipeline outputs to MQTT: the ranked evaluation results
// after each comparison and the coverage summary after each field build.
// Consumers (dashboards, reporting jobs) subscribe to the retained topics
// and always see the latest run.
type Publisher struct {
	client        mqtt.Client
	publishPrefix string
	qos           byte
	retain        bool
}

// NewPublisher creates a results publisher. If client is nil, publishing is
// disabled (for testing and offline runs).
func NewPublisher(client mqtt.Client, prefix string) *Publisher {
	if prefix == "" {
		prefix = os.Getenv("MQTT_PUBLISH_PREFIX")
	}
	if prefix == "" {
		prefix = "wifimesh"
	}
	return &Publisher{
		client:        client,
		publishPrefix: prefix,
		qos:           0,
		retain:        true, // retain so late subscribers get the latest run
	}
}

// PublishResults publishes the ranked evaluation results of one run.
func (p *Publisher) PublishResults(runID string, results []EvaluationResult) error {
	message := map[string]interface{}{
		"runId":     runID,
		"results":   results,
		"timestamp": time.Now().Unix(),
	}
	return p.publish(p.publishPrefix+"/results", message)
}

// PublishCoverage publishes the coverage summary of one run.
func (p *Publisher) PublishCoverage(runID string, stats CoverageStats) error {
	message := map[string]interface{}{
		"runId":     runID,
		"coverage":  stats,
		"timestamp": time.Now().Unix(),
	}
	return p.publish(p.publishPrefix+"/coverage", message)
}

func (p *Publisher) publish(topic string, message interface{}) error {
	if p.client == nil || !p.client.IsConnected() {
		return fmt.Errorf("MQTT client not connected")
	}

	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshaling message: %w", err)
	}

	token := p.client.Publish(topic, p.qos, p.retain, payload)
	if token.WaitTimeout(2*time.Second) && token.Error() != nil {
		return fmt.Errorf("publishing to %s: %w", topic, token.Error())
	}
	return nil
}
