package main

import (
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/anvit/clubhub/pkg/db"
	"github.com/anvit/clubhub/pkg/feed"
	"github.com/anvit/clubhub/pkg/presence"
	"github.com/anvit/clubhub/pkg/store"
)

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	scyllaHosts := strings.Split(env("SCYLLA_HOSTS", "localhost:9042"), ",")
	kafkaBrokers := strings.Split(env("KAFKA_BROKERS", "localhost:19092"), ",")
	redisAddr := env("REDIS_ADDR", "localhost:6379")

	session, err := db.NewSession(scyllaHosts, "clubhub")
	if err != nil {
		log.Fatalf("Failed to connect to ScyllaDB: %v", err)
	}
	defer session.Close()

	publisher := feed.NewKafkaPublisher(kafkaBrokers)
	defer publisher.Close()

	st, err := store.NewScylla(session, 1, publisher)
	if err != nil {
		log.Fatalf("Failed to create store: %v", err)
	}

	tracker := presence.NewTracker(redisAddr)
	defer tracker.Close()

	// Public endpoints
	http.Handle("/register", CORSMiddleware(RegisterHandler(st)))
	http.Handle("/login", CORSMiddleware(LoginHandler(st)))

	// Protected endpoints
	http.Handle("/messages", CORSMiddleware(AuthMiddleware(NewMessagesHandler(st))))
	http.Handle("/members", CORSMiddleware(AuthMiddleware(MembersHandler(st))))
	http.Handle("/channels/", CORSMiddleware(AuthMiddleware(NewPresenceHandler(tracker))))
	http.Handle("/schedules", CORSMiddleware(AuthMiddleware(SchedulesHandler(st))))
	http.Handle("/polls", CORSMiddleware(AuthMiddleware(PollsHandler(st))))
	http.Handle("/comments", CORSMiddleware(AuthMiddleware(CommentsHandler(st))))
	http.Handle("/comments/", CORSMiddleware(AuthMiddleware(CommentsHandler(st))))
	http.Handle("/votes", CORSMiddleware(AuthMiddleware(VotesHandler(st))))
	http.Handle("/roles", CORSMiddleware(AuthMiddleware(RolesHandler(st))))

	log.Println("API Service Starting on :8081...")
	if err := http.ListenAndServe(":8081", nil); err != nil {
		log.Fatal(err)
	}
}
