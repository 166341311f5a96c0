package main

import (
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/anvit/clubhub/pkg/feed"
	"github.com/anvit/clubhub/pkg/presence"
)

func main() {
	kafkaBrokersStr := os.Getenv("KAFKA_BROKERS")
	if kafkaBrokersStr == "" {
		kafkaBrokersStr = "localhost:19092"
	}
	kafkaBrokers := strings.Split(kafkaBrokersStr, ",")

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	tracker := presence.NewTracker(redisAddr)
	defer tracker.Close()

	hub := NewHub(feed.NewKafkaFeed(kafkaBrokers), tracker)
	go hub.Run()

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWs(hub, w, r)
	})

	log.Println("Gateway Service Starting on :8080...")
	if err := http.ListenAndServe(":8080", nil); err != nil {
		log.Fatal(err)
	}
}
