package mqtt

import (
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// MessageHandler procesa un mensaje; el error solo se registra.
type MessageHandler func(topic string, payload []byte) error

type Options struct {
	Broker   string
	ClientID string
	Username string
	Password string
}

// Client envuelve la conexión paho con reconexión automática.
type Client struct {
	client paho.Client
	logger *zap.Logger
}

func NewClient(opts Options, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	po := paho.NewClientOptions()
	po.AddBroker(opts.Broker)
	po.SetClientID(opts.ClientID)
	if opts.Username != "" {
		po.SetUsername(opts.Username)
	}
	if opts.Password != "" {
		po.SetPassword(opts.Password)
	}
	po.SetAutoReconnect(true)
	po.SetCleanSession(true)
	po.SetConnectTimeout(10 * time.Second)
	po.SetConnectionLostHandler(func(_ paho.Client, err error) {
		logger.Warn("mqtt connection lost", zap.Error(err))
	})
	po.SetOnConnectHandler(func(_ paho.Client) {
		logger.Info("mqtt connected", zap.String("broker", opts.Broker))
	})

	client := paho.NewClient(po)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect to mqtt broker: %w", token.Error())
	}
	return &Client{client: client, logger: logger}, nil
}

func (c *Client) Subscribe(topic string, qos byte, handler MessageHandler) error {
	token := c.client.Subscribe(topic, qos, func(_ paho.Client, msg paho.Message) {
		if err := handler(msg.Topic(), msg.Payload()); err != nil {
			c.logger.Warn("mqtt message dropped", zap.String("topic", msg.Topic()), zap.Error(err))
		}
	})
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribe to %s: %w", topic, token.Error())
	}
	return nil
}

func (c *Client) Unsubscribe(topics ...string) error {
	token := c.client.Unsubscribe(topics...)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("unsubscribe: %w", token.Error())
	}
	return nil
}

func (c *Client) Disconnect() {
	c.client.Disconnect(250)
}
