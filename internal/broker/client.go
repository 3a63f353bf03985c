// Package broker wraps the MQTT connection shared by the sensor source and the alarm
// notifier.
package broker

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// MessageHandler handles one inbound message.
type MessageHandler func(topic string, payload []byte)

// Config holds the connection settings.
type Config struct {
	URL      string
	ClientID string
	Username string
	Password string
	Timeout  time.Duration
}

// Client is a connected MQTT client.
type Client struct {
	client  mqtt.Client
	timeout time.Duration
	logger  *zap.Logger
}

// Connect dials the broker and blocks until the connection is established.
func Connect(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.URL)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetOnConnectHandler(func(mqtt.Client) {
		logger.Info("mqtt connected", zap.String("broker", cfg.URL))
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("mqtt connection lost", zap.Error(err))
	})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(cfg.Timeout) {
		return nil, fmt.Errorf("connect to mqtt broker %s: timed out", cfg.URL)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to mqtt broker %s: %w", cfg.URL, err)
	}

	return &Client{client: client, timeout: cfg.Timeout, logger: logger}, nil
}

// Subscribe registers handler for topic. Subscriptions are restored on reconnect.
func (c *Client) Subscribe(topic string, qos byte, handler MessageHandler) error {
	token := c.client.Subscribe(topic, qos, func(_ mqtt.Client, msg mqtt.Message) {
		handler(msg.Topic(), msg.Payload())
	})
	if err := c.wait(token); err != nil {
		return fmt.Errorf("subscribe to %s: %w", topic, err)
	}
	return nil
}

// Publish sends payload and waits for the broker acknowledgement.
func (c *Client) Publish(topic string, qos byte, retained bool, payload []byte) error {
	if err := c.wait(c.client.Publish(topic, qos, retained, payload)); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// Close disconnects, giving in-flight work 250ms to finish.
func (c *Client) Close() {
	c.client.Disconnect(250)
	c.logger.Info("mqtt disconnected")
}

func (c *Client) wait(token mqtt.Token) error {
	if !token.WaitTimeout(c.timeout) {
		return fmt.Errorf("timed out after %s", c.timeout)
	}
	return token.Error()
}
