package field

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// SampleHandler is called for every measurement received over MQTT.
// A nil error means the sample parsed cleanly; otherwise sample is zero.
type SampleHandler func(sample Sample, err error)

// SurveyClient manages the MQTT connection for live survey ingestion. Survey
// agents publish JSON-encoded samples to <prefix>/samples; the client parses
// and forwards them to the handler. The estimation core itself never touches
// the network: this is the ingestion collaborator in front of it.
type SurveyClient struct {
	client      mqtt.Client
	config      *Config
	handler     SampleHandler
	isConnected bool
	mu          sync.RWMutex
}

// InitSurveyClient initializes the MQTT survey client. If no broker is
// configured (config and MQTT_BROKER env var both empty), ingestion is
// disabled and this returns nil.
func InitSurveyClient(config *Config, handler SampleHandler) (*SurveyClient, error) {
	broker := os.Getenv("MQTT_BROKER")
	if broker == "" && config != nil && config.MQTT.Broker != "" {
		broker = config.MQTT.Broker
	}
	if broker == "" {
		log.Println("MQTT disabled: no broker configured")
		return nil, nil
	}
	if handler == nil {
		return nil, fmt.Errorf("MQTT enabled but no sample handler provided")
	}

	c := &SurveyClient{config: config, handler: handler}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)

	clientID := os.Getenv("MQTT_CLIENT_ID")
	if clientID == "" && config.MQTT.ClientID != "" {
		clientID = config.MQTT.ClientID
	}
	if clientID == "" {
		clientID = "wifimesh"
	}
	opts.SetClientID(clientID)

	username := os.Getenv("MQTT_USERNAME")
	if username == "" && config.MQTT.Username != "" {
		username = config.MQTT.Username
	}
	if username != "" {
		opts.SetUsername(username)
		password := os.Getenv("MQTT_PASSWORD")
		if password == "" && config.MQTT.Password != "" {
			password = config.MQTT.Password
		}
		opts.SetPassword(password)
	}

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetCleanSession(false) // preserve subscriptions on reconnect
	opts.SetOrderMatters(false)

	opts.SetOnConnectHandler(c.onConnect)
	opts.SetConnectionLostHandler(c.onConnectionLost)

	c.client = mqtt.NewClient(opts)
	go c.connectWithRetry()

	return c, nil
}

// NewSurveyClientWith wraps an existing MQTT client (used by tests with a
// mock client). The caller is responsible for connecting.
func NewSurveyClientWith(client mqtt.Client, config *Config, handler SampleHandler) *SurveyClient {
	return &SurveyClient{client: client, config: config, handler: handler}
}

// SamplesTopic returns the subscription filter for survey measurements.
// The wildcard picks up per-agent subtopics like samples/cart1.
func (c *SurveyClient) SamplesTopic() string {
	prefix := "wifimesh"
	if c.config != nil && c.config.MQTT.PublishPrefix != "" {
		prefix = c.config.MQTT.PublishPrefix
	}
	return prefix + "/samples/#"
}

// connectWithRetry attempts to connect with exponential backoff.
func (c *SurveyClient) connectWithRetry() {
	retryDelay := 1 * time.Second
	const maxRetryDelay = 60 * time.Second

	for {
		log.Println("Connecting to MQTT broker...")
		token := c.client.Connect()
		if token.WaitTimeout(10 * time.Second) {
			if token.Error() == nil {
				log.Println("Successfully connected to MQTT broker")
				c.setConnected(true)
				return
			}
			log.Printf("MQTT connection failed: %v", token.Error())
		} else {
			log.Println("MQTT connection timeout")
		}

		time.Sleep(retryDelay)
		retryDelay *= 2
		if retryDelay > maxRetryDelay {
			retryDelay = maxRetryDelay
		}
	}
}

func (c *SurveyClient) onConnect(client mqtt.Client) {
	c.setConnected(true)
	topic := c.SamplesTopic()
	log.Printf("MQTT connected, subscribing to %s", topic)

	token := client.Subscribe(topic, 0, c.handleMessage)
	if token.WaitTimeout(5*time.Second) && token.Error() != nil {
		log.Printf("Error subscribing to %s: %v", topic, token.Error())
	}
}

func (c *SurveyClient) onConnectionLost(client mqtt.Client, err error) {
	log.Printf("MQTT connection interrupted (%v), auto-reconnect will retry", err)
	c.setConnected(false)
}

// Subscribe registers the sample subscription on an already connected
// client. InitSurveyClient does this automatically through onConnect; tests
// with a mock client call it directly.
func (c *SurveyClient) Subscribe() error {
	topic := c.SamplesTopic()
	token := c.client.Subscribe(topic, 0, c.handleMessage)
	if token.WaitTimeout(5*time.Second) && token.Error() != nil {
		return fmt.Errorf("subscribing to %s: %w", topic, token.Error())
	}
	return nil
}

// handleMessage parses an incoming survey payload. Payloads may be a single
// sample object or an array of samples.
func (c *SurveyClient) handleMessage(client mqtt.Client, msg mqtt.Message) {
	payload := msg.Payload()

	var batch []Sample
	if err := json.Unmarshal(payload, &batch); err != nil {
		var single Sample
		if err := json.Unmarshal(payload, &single); err != nil {
			c.handler(Sample{}, fmt.Errorf("parsing survey payload on %s: %w", msg.Topic(), err))
			return
		}
		batch = []Sample{single}
	}

	for _, s := range batch {
		c.handler(s, nil)
	}
}

func (c *SurveyClient) setConnected(v bool) {
	c.mu.Lock()
	c.isConnected = v
	c.mu.Unlock()
}

// IsConnected reports the connection state.
func (c *SurveyClient) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isConnected
}

// Client exposes the underlying MQTT client for the results publisher.
func (c *SurveyClient) Client() mqtt.Client {
	if c == nil {
		return nil
	}
	return c.client
}

// Disconnect closes the MQTT connection gracefully.
func (c *SurveyClient) Disconnect() {
	if c.client != nil && c.client.IsConnected() {
		c.client.Disconnect(250)
	}
	c.setConnected(false)
}
