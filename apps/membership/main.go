package main

import (
	"context"
	"log"
	"os"
	"strings"

	"github.com/anvit/clubhub/pkg/db"
	"github.com/anvit/clubhub/pkg/feed"
	"github.com/anvit/clubhub/pkg/store"
)

func main() {
	kafkaBrokersStr := os.Getenv("KAFKA_BROKERS")
	if kafkaBrokersStr == "" {
		kafkaBrokersStr = "localhost:19092"
	}
	brokers := strings.Split(kafkaBrokersStr, ",")

	scyllaHostsStr := os.Getenv("SCYLLA_HOSTS")
	if scyllaHostsStr == "" {
		scyllaHostsStr = "localhost:9042"
	}
	scyllaHosts := strings.Split(scyllaHostsStr, ",")

	session, err := db.NewSession(scyllaHosts, "clubhub")
	if err != nil {
		log.Fatalf("Failed to connect to ScyllaDB: %v", err)
	}
	defer session.Close()

	publisher := feed.NewKafkaPublisher(brokers)
	defer publisher.Close()

	st, err := store.NewScylla(session, 2, publisher)
	if err != nil {
		log.Fatalf("Failed to create store: %v", err)
	}

	// Fixed consumer group: each profile event is handled by exactly one
	// watcher instance, so the join message is announced once.
	watcher := NewWatcher(feed.NewKafkaFeedWithGroup(brokers, "membership-watcher"), st)

	log.Println("Membership watcher starting...")
	if err := watcher.Run(context.Background()); err != nil {
		log.Fatalf("Watcher stopped: %v", err)
	}
}
