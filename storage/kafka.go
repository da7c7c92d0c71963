package storage

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/Shopify/sarama"
	"github.com/kephale/copick-server/copick"
	"github.com/twinj/uuid"
)

var (
	// producer
	kafkaProducer sarama.AsyncProducer

	// the kafka topic for activity logging
	kafkaActivityTopicName string

	// activity messages not yet handed to the producer
	kafkaPending sync.WaitGroup
)

// KafkaMaxMessageSize is the max message size in bytes for a Kafka message.
const KafkaMaxMessageSize = 980 * copick.Kilo

// KafkaConfig describes kafka servers and the topic to which request activity
// is published.
type KafkaConfig struct {
	TopicActivity string `toml:"topic_activity"` // if supplied, will be override topic for activity log
	Servers       []string
}

// KafkaActivityTopic returns the topic name used for logging activity for this server.
func KafkaActivityTopic() string {
	return kafkaActivityTopicName
}

// KafkaAvailable returns true if a kafka producer has been initialized.
func KafkaAvailable() bool {
	return kafkaProducer != nil
}

// Initialize sets up the activity topic and an async producer.  It is a no-op
// if no servers are configured.
func (kc KafkaConfig) Initialize(hostID string) error {
	if len(kc.Servers) == 0 {
		copick.Infof("No Kafka server specified.\n")
		return nil
	}
	config := sarama.NewConfig()
	config.Producer.MaxMessageBytes = KafkaMaxMessageSize
	producer, err := sarama.NewAsyncProducer(kc.Servers, config)
	if err != nil {
		return err
	}
	return setKafkaProducer(producer, kc.activityTopic(hostID))
}

func (kc KafkaConfig) activityTopic(hostID string) string {
	topic := kc.TopicActivity
	if topic == "" {
		topic = "copickactivity-" + hostID
	}
	reg := regexp.MustCompile(`[^a-zA-Z0-9\._\-]+`)
	return reg.ReplaceAllString(topic, "-")
}

func setKafkaProducer(producer sarama.AsyncProducer, topic string) error {
	if producer == nil {
		return fmt.Errorf("nil kafka producer")
	}
	kafkaProducer = producer
	kafkaActivityTopicName = topic
	go func() {
		for err := range producer.Errors() {
			copick.Errorf("error on kafka send to topic %q: %v\n", err.Msg.Topic, err.Err)
		}
	}()
	copick.Infof("Kafka topic for copick activity: %s\n", kafkaActivityTopicName)
	return nil
}

// KafkaShutdown makes sure that the kafka queue is flushed before stopping.
func KafkaShutdown() {
	if kafkaProducer == nil {
		copick.Infof("Kafka producer was nil so unnecessary to close.\n")
		return
	}
	kafkaPending.Wait()
	if err := kafkaProducer.Close(); err != nil {
		copick.Errorf("Kafka producer had error on close: %v\n", err)
	} else {
		copick.Infof("Successfully shut down kafka producer.\n")
	}
	kafkaProducer = nil
}

// LogActivityToKafka publishes activity as a JSON message in the background.
// An "ID" field is added if not present, so the map must not be modified
// after the call.
func LogActivityToKafka(activity map[string]interface{}) {
	producer, topic := kafkaProducer, kafkaActivityTopicName
	if producer == nil {
		return
	}
	kafkaPending.Add(1)
	go func() {
		defer kafkaPending.Done()
		if _, found := activity["ID"]; !found {
			activity["ID"] = fmt.Sprintf("%x", uuid.NewV4().Bytes())
		}
		jsonmsg, err := json.Marshal(activity)
		if err != nil {
			copick.Errorf("unable to marshal activity for kafka logging: %v\n", err)
			return
		}
		if err := produceMsg(producer, jsonmsg, topic); err != nil {
			copick.Errorf("unable to publish activity: %v\n", err)
		}
	}()
}

// KafkaProduceMsg sends a message to kafka
func KafkaProduceMsg(value []byte, topicName string) error {
	if kafkaProducer == nil {
		return nil
	}
	return produceMsg(kafkaProducer, value, topicName)
}

func produceMsg(producer sarama.AsyncProducer, value []byte, topicName string) error {
	if len(value) > KafkaMaxMessageSize {
		return fmt.Errorf("kafka message of %d bytes exceeds max of %d bytes", len(value), KafkaMaxMessageSize)
	}
	timeKey := sarama.StringEncoder(strconv.FormatInt(time.Now().UnixNano(), 10))
	producer.Input() <- &sarama.ProducerMessage{Topic: topicName, Value: sarama.ByteEncoder(value), Key: timeKey}
	return nil
}
