// Bootstrap of the first admin identity. Runs out of band against the
// database directly, bypassing the client write policy; safe to re-run, it
// is a no-op once any admin exists.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"

	"github.com/anvit/clubhub/pkg/db"
	"github.com/anvit/clubhub/pkg/store"
)

func main() {
	userID := flag.String("user", "admin", "user id of the admin identity")
	username := flag.String("name", "admin", "display name of the admin identity")
	flag.Parse()

	scyllaHostsStr := os.Getenv("SCYLLA_HOSTS")
	if scyllaHostsStr == "" {
		scyllaHostsStr = "localhost:9042"
	}

	session, err := db.NewSession(strings.Split(scyllaHostsStr, ","), "clubhub")
	if err != nil {
		log.Fatal(err)
	}
	defer session.Close()

	st, err := store.NewScylla(session, 1023, nil)
	if err != nil {
		log.Fatal(err)
	}

	created, err := st.EnsureAdmin(context.Background(), *userID, *username)
	if err != nil {
		log.Fatal(err)
	}
	if created {
		log.Printf("Admin identity %s created", *userID)
	} else {
		log.Println("An admin already exists, nothing to do")
	}
}
