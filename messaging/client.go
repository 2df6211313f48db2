package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/yonbergman/electric-planner/config"
)

var ErrNotConnected = errors.New("messaging not connected")

// Publisher sends raw payloads to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

// Client is the unified messaging client (MQTT or Kafka).
type Client struct {
	mu       sync.RWMutex
	cfg      *config.MessagingConfig
	backend  string
	log      *zap.Logger
	mqttConn mqtt.Client
	kafkaW   *kafkago.Writer
	readers  []*kafkago.Reader
	cancel   context.CancelFunc
	ctx      context.Context
	wg       sync.WaitGroup
}

func NewClient(cfg *config.MessagingConfig, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		cfg:     cfg,
		backend: cfg.Backend,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Connect establishes the messaging connection.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.backend {
	case "mqtt":
		return c.connectMQTT()
	case "kafka":
		return c.connectKafka()
	default:
		return fmt.Errorf("unknown messaging backend: %s", c.backend)
	}
}

func (c *Client) clientID() string {
	if c.cfg.MQTT.ClientID != "" {
		return c.cfg.MQTT.ClientID
	}
	return "electricplanner-" + uuid.New().String()[:8]
}

func (c *Client) connectMQTT() error {
	broker := fmt.Sprintf("tcp://%s:%d", c.cfg.MQTT.Broker, c.cfg.MQTT.Port)
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(c.clientID()).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			c.log.Warn("mqtt connection lost", zap.Error(err))
		})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	c.mqttConn = client
	c.log.Info("mqtt connected", zap.String("broker", broker))
	return nil
}

func (c *Client) connectKafka() error {
	if len(c.cfg.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka: no brokers configured")
	}
	c.kafkaW = &kafkago.Writer{
		Addr:         kafkago.TCP(c.cfg.Kafka.Brokers...),
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireOne,
	}
	c.log.Info("kafka writer ready", zap.Strings("brokers", c.cfg.Kafka.Brokers))
	return nil
}

// Publish sends payload to topic.
func (c *Client) Publish(ctx context.Context, topic string, payload []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch c.backend {
	case "mqtt":
		if c.mqttConn == nil || !c.mqttConn.IsConnected() {
			return fmt.Errorf("mqtt: %w", ErrNotConnected)
		}
		token := c.mqttConn.Publish(topic, 1, false, payload)
		select {
		case <-token.Done():
			return token.Error()
		case <-ctx.Done():
			return ctx.Err()
		}
	case "kafka":
		if c.kafkaW == nil {
			return fmt.Errorf("kafka: %w", ErrNotConnected)
		}
		return c.kafkaW.WriteMessages(ctx, kafkago.Message{
			Topic: topic,
			Value: payload,
		})
	default:
		return fmt.Errorf("unknown backend: %s", c.backend)
	}
}

// PublishEnvelope encodes env and publishes it to topic.
func (c *Client) PublishEnvelope(ctx context.Context, topic string, env *Envelope) error {
	data, err := env.Encode()
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	return c.Publish(ctx, topic, data)
}

// Subscribe registers handler for messages on topic.
func (c *Client) Subscribe(topic string, handler func(payload []byte)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.backend {
	case "mqtt":
		if c.mqttConn == nil {
			return fmt.Errorf("mqtt: %w", ErrNotConnected)
		}
		token := c.mqttConn.Subscribe(topic, 1, func(_ mqtt.Client, msg mqtt.Message) {
			handler(msg.Payload())
		})
		token.Wait()
		return token.Error()
	case "kafka":
		if c.kafkaW == nil {
			return fmt.Errorf("kafka: %w", ErrNotConnected)
		}
		r := kafkago.NewReader(kafkago.ReaderConfig{
			Brokers: c.cfg.Kafka.Brokers,
			Topic:   topic,
			GroupID: c.cfg.Kafka.GroupID,
		})
		c.readers = append(c.readers, r)
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			for {
				msg, err := r.ReadMessage(c.ctx)
				if err != nil {
					if c.ctx.Err() == nil {
						c.log.Warn("kafka read", zap.String("topic", topic), zap.Error(err))
					}
					return
				}
				handler(msg.Value)
			}
		}()
		return nil
	default:
		return fmt.Errorf("unknown backend: %s", c.backend)
	}
}

// IsConnected returns whether the messaging client is connected.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	switch c.backend {
	case "mqtt":
		return c.mqttConn != nil && c.mqttConn.IsConnected()
	case "kafka":
		return c.kafkaW != nil
	default:
		return false
	}
}

// Close shuts down the connection and waits for subscribers to stop.
func (c *Client) Close() {
	c.cancel()
	c.mu.Lock()
	if c.mqttConn != nil {
		c.mqttConn.Disconnect(1000)
		c.mqttConn = nil
	}
	if c.kafkaW != nil {
		if err := c.kafkaW.Close(); err != nil {
			c.log.Warn("close kafka writer", zap.Error(err))
		}
		c.kafkaW = nil
	}
	for _, r := range c.readers {
		r.Close()
	}
	c.readers = nil
	c.mu.Unlock()
	c.wg.Wait()
}
