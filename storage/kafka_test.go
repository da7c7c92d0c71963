package storage

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/Shopify/sarama"
	"github.com/Shopify/sarama/mocks"
)

func TestKafkaActivityTopic(t *testing.T) {
	kc := KafkaConfig{}
	if topic := kc.activityTopic("my host:8000"); topic != "copickactivity-my-host-8000" {
		t.Errorf("bad default activity topic: %s\n", topic)
	}
	kc.TopicActivity = "copick.activity"
	if topic := kc.activityTopic("ignored"); topic != "copick.activity" {
		t.Errorf("bad override activity topic: %s\n", topic)
	}
}

func TestLogActivityToKafka(t *testing.T) {
	config := mocks.NewTestConfig()
	config.Producer.Return.Successes = true
	producer := mocks.NewAsyncProducer(t, config)
	producer.ExpectInputWithCheckerFunctionAndSucceed(func(value []byte) error {
		var activity map[string]interface{}
		if err := json.Unmarshal(value, &activity); err != nil {
			return err
		}
		if activity["Method"] != "PUT" {
			return fmt.Errorf("bad method in activity: %v", activity)
		}
		if _, found := activity["ID"]; !found {
			return fmt.Errorf("no ID added to activity: %v", activity)
		}
		return nil
	})
	if err := setKafkaProducer(producer, "test-activity"); err != nil {
		t.Fatalf("unable to set producer: %v\n", err)
	}
	defer KafkaShutdown()

	LogActivityToKafka(map[string]interface{}{
		"Method": "PUT",
		"Path":   "/TS_001/Picks/alice_s1_ribosome.json",
	})
	msg := <-producer.Successes()
	if msg.Topic != "test-activity" {
		t.Errorf("expected topic test-activity, got %s\n", msg.Topic)
	}
	if _, ok := msg.Key.(sarama.StringEncoder); !ok {
		t.Errorf("expected time key on message, got %v\n", msg.Key)
	}
}

func TestKafkaProduceWithoutProducer(t *testing.T) {
	if KafkaAvailable() {
		t.Fatalf("expected no kafka producer in tests\n")
	}
	if err := KafkaProduceMsg([]byte("ignored"), "topic"); err != nil {
		t.Errorf("expected silent no-op without producer: %v\n", err)
	}
}

func TestKafkaShutdownFlushesActivity(t *testing.T) {
	producer := mocks.NewAsyncProducer(t, mocks.NewTestConfig())
	const numMsgs = 5
	for i := 0; i < numMsgs; i++ {
		producer.ExpectInputAndSucceed()
	}
	if err := setKafkaProducer(producer, "test-activity"); err != nil {
		t.Fatalf("unable to set producer: %v\n", err)
	}
	for i := 0; i < numMsgs; i++ {
		LogActivityToKafka(map[string]interface{}{"Method": "GET", "Index": i})
	}
	// The mock producer's Close reports any expected message not received.
	KafkaShutdown()
	if KafkaAvailable() {
		t.Errorf("expected no producer after shutdown\n")
	}
}
