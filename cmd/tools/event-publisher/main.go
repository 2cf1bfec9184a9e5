// cmd/tools/event-publisher/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"bus-tracking-services/internal/common/config"
	commonkafka "bus-tracking-services/internal/common/kafka"
)

type eventFlags struct {
	user, student, parent string
	notificationType      string
	eta, title, body      string
	data                  string
}

func main() {
	var ev eventFlags
	flag.StringVar(&ev.user, "user", "", "Recipient user id")
	flag.StringVar(&ev.student, "student", "", "Student id, resolved to the parent")
	flag.StringVar(&ev.parent, "parent", "", "Parent id")
	flag.StringVar(&ev.notificationType, "type", "", "Notification type name (default eta_update)")
	flag.StringVar(&ev.eta, "eta", "", "ETA in minutes for eta_update")
	flag.StringVar(&ev.title, "title", "", "Notification title")
	flag.StringVar(&ev.body, "body", "", "Notification body")
	flag.StringVar(&ev.data, "data", "", `Extra payload as a JSON object, e.g. '{"route":"12"}'`)
	topic := flag.String("topic", "", "Topic to publish to (defaults to kafka.topic)")
	brokers := flag.String("brokers", "", "Comma separated brokers (defaults to kafka.brokers)")
	count := flag.Int("count", 1, "Number of copies to publish")
	flag.Parse()

	payload, err := buildEvent(ev)
	if err != nil {
		fail(err)
	}

	cfg, err := config.Load()
	if err != nil {
		fail(fmt.Errorf("config load failed: %w", err))
	}
	brokerList := cfg.Kafka.Brokers
	if *brokers != "" {
		brokerList = strings.Split(*brokers, ",")
	}
	if *topic == "" {
		*topic = cfg.Kafka.Topic
	}

	writer := commonkafka.NewWriter(brokerList, *topic)
	defer writer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	msgs := buildMessages(payload, *count)
	if err := writer.WriteMessages(ctx, msgs...); err != nil {
		fail(fmt.Errorf("publish failed: %w", err))
	}
	fmt.Printf("Published %d event(s) to %s: %s\n", len(msgs), *topic, payload)
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// buildEvent renders the flags as an inbound event. Unset flags are omitted.
func buildEvent(ev eventFlags) ([]byte, error) {
	if ev.user == "" && ev.student == "" && ev.parent == "" {
		return nil, fmt.Errorf("one of -user, -student or -parent is required")
	}

	event := map[string]interface{}{}
	set := func(key, value string) {
		if value != "" {
			event[key] = value
		}
	}
	set("user_id", ev.user)
	set("student_id", ev.student)
	set("parent_id", ev.parent)
	set("notification_type", ev.notificationType)
	set("eta", ev.eta)
	set("title", ev.title)
	set("body", ev.body)

	if ev.data != "" {
		var data map[string]interface{}
		if err := json.Unmarshal([]byte(ev.data), &data); err != nil {
			return nil, fmt.Errorf("-data must be a JSON object: %w", err)
		}
		event["data"] = data
	}
	return json.Marshal(event)
}

// buildMessages keys every copy uniquely so copies spread across partitions.
func buildMessages(payload []byte, count int) []kafka.Message {
	if count < 1 {
		count = 1
	}
	msgs := make([]kafka.Message, 0, count)
	for i := 0; i < count; i++ {
		msgs = append(msgs, kafka.Message{
			Key:   []byte(uuid.NewString()),
			Value: payload,
		})
	}
	return msgs
}
