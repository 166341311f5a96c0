// Schema provisioning for the clubhub keyspace. Idempotent; in production
// schema changes should go through a migration tool instead.
package main

import (
	"context"
	"log"
	"os"
	"strings"

	"github.com/anvit/clubhub/pkg/db"
	"github.com/anvit/clubhub/pkg/store"
)

func main() {
	scyllaHostsStr := os.Getenv("SCYLLA_HOSTS")
	if scyllaHostsStr == "" {
		scyllaHostsStr = "localhost:9042"
	}
	hosts := strings.Split(scyllaHostsStr, ",")

	// Connect to the system keyspace first to create ours.
	sysSession, err := db.NewSession(hosts, "system")
	if err != nil {
		log.Fatalf("Failed to connect to ScyllaDB system keyspace: %v", err)
	}
	err = sysSession.Query(`CREATE KEYSPACE IF NOT EXISTS clubhub WITH REPLICATION = { 'class' : 'SimpleStrategy', 'replication_factor' : 1 }`).Exec()
	if err != nil {
		log.Fatalf("Failed to create keyspace: %v", err)
	}
	sysSession.Close()

	session, err := db.NewSession(hosts, "clubhub")
	if err != nil {
		log.Fatalf("Failed to connect to ScyllaDB clubhub keyspace: %v", err)
	}
	defer session.Close()

	st, err := store.NewScylla(session, 1022, nil)
	if err != nil {
		log.Fatal(err)
	}
	if err := st.CreateTables(context.Background()); err != nil {
		log.Fatal(err)
	}
	log.Println("Tables created")
}
