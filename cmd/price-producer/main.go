package main

import (
	"context"
	"flag"
	"log"
	"math/rand/v2"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
)

func main() {
	var (
		brokers       = flag.String("brokers", "localhost:9092", "Kafka broker addresses (comma-separated)")
		topic         = flag.String("topic", "prices", "Kafka topic name")
		basePrices    = flag.String("base-prices", "btc=65000,eth=3200,ton=5.4,sol=150", "Starting prices as asset=price pairs")
		delay         = flag.Duration("delay", 200*time.Millisecond, "Delay between messages")
		count         = flag.Int("count", 0, "Number of messages to send (0 = until interrupted)")
		volatility    = flag.Float64("volatility", 0.002, "Maximum relative move per step")
		snapshotEvery = flag.Int("snapshot-every", 25, "Send a full snapshot every N messages")
		seed          = flag.Uint64("seed", 0, "Random seed (0 = time based)")
	)
	flag.Parse()

	base, err := parseBasePrices(*basePrices)
	if err != nil {
		log.Fatalf("Failed to parse base prices: %v", err)
	}

	if *seed == 0 {
		*seed = uint64(time.Now().UnixNano())
	}
	w := newWalker(rand.New(rand.NewPCG(*seed, *seed>>1)), base, *volatility)

	// Create Kafka writer
	writer := &kafka.Writer{
		Addr:         kafka.TCP(strings.Split(*brokers, ",")...),
		Topic:        *topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
	}
	defer writer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("Sending prices to Kafka broker: %s, topic: %s", *brokers, *topic)
	log.Printf("Delay between messages: %v", *delay)

	sent := 0
	snapshots := 0
	for *count == 0 || sent < *count {
		var (
			key   string
			value []byte
		)
		if *snapshotEvery > 0 && sent%*snapshotEvery == 0 {
			key = "snapshot"
			value, err = w.snapshot()
			snapshots++
		} else {
			key, value, err = w.incremental()
		}
		if err != nil {
			log.Fatalf("Failed to marshal message %d: %v", sent+1, err)
		}

		msg := kafka.Message{
			Key:   []byte(key),
			Value: value,
			Time:  time.Now(),
		}
		if err := writer.WriteMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				break
			}
			log.Printf("Failed to send message %d (%s): %v", sent+1, key, err)
		}
		sent++

		// Log progress every 100 messages
		if sent%100 == 0 {
			log.Printf("Sent %d messages (%d snapshots)", sent, snapshots)
		}

		select {
		case <-ctx.Done():
		case <-time.After(*delay):
		}
		if ctx.Err() != nil {
			break
		}
	}

	log.Printf("--- Summary ---")
	log.Printf("Total Messages: %d", sent)
	log.Printf("Snapshots: %d", snapshots)
	log.Printf("Incremental: %d", sent-snapshots)
}
