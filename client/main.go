package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"github.com/anvit/clubhub/pkg/auth"
	"github.com/anvit/clubhub/pkg/channel"
	"github.com/anvit/clubhub/pkg/model"
	"github.com/anvit/clubhub/pkg/notify"
	"github.com/anvit/clubhub/pkg/policy"
	"github.com/anvit/clubhub/pkg/session"
	"github.com/anvit/clubhub/pkg/store"
)

type loginResponse struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

func login(apiAddr, userID string) (*loginResponse, error) {
	reqBody, _ := json.Marshal(map[string]string{"user_id": userID})
	resp, err := http.Post(apiAddr+"/login", "application/json", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("login failed: %s", string(body))
	}

	var out loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func register(apiAddr, userID, username string) error {
	reqBody, _ := json.Marshal(map[string]string{"user_id": userID, "username": username})
	resp, err := http.Post(apiAddr+"/register", "application/json", bytes.NewBuffer(reqBody))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// Conflict means the profile already exists, which is fine on re-login.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusConflict {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("register failed: %s", string(body))
	}
	return nil
}

func printMessages(msgs []model.Message) {
	fmt.Print("\r\033[K")
	if len(msgs) == 0 {
		fmt.Print("(no messages)\n> ")
		return
	}
	// Show the tail of the conversation.
	start := 0
	if len(msgs) > 10 {
		start = len(msgs) - 10
	}
	for _, m := range msgs[start:] {
		marker := ""
		if model.IsProvisional(m.ID) {
			marker = " (sending...)"
		}
		if m.Type == model.TypeSystem {
			fmt.Printf("* %s\n", m.Content)
		} else {
			fmt.Printf("%s: %s%s\n", m.SenderID, m.Content, marker)
		}
	}
	fmt.Print("> ")
}

func main() {
	gatewayAddr := flag.String("addr", "localhost:8080", "gateway service address")
	apiAddr := flag.String("api", "http://localhost:8081", "api service address")
	userID := flag.String("user", "user1", "user id")
	username := flag.String("name", "", "display name (defaults to user id)")
	dmUser := flag.String("dm", "", "user id to dm (default: group channel)")
	flag.Parse()

	if *username == "" {
		*username = *userID
	}

	log.Printf("Registering %s...", *userID)
	if err := register(*apiAddr, *userID, *username); err != nil {
		log.Fatal(err)
	}

	log.Printf("Logging in as %s...", *userID)
	auth0, err := login(*apiAddr, *userID)
	if err != nil {
		log.Fatal(err)
	}

	ident := auth.StaticIdentity{ID: *userID, Role: policy.Normalize(auth0.Role)}
	api := newHTTPAPI(*apiAddr, auth0.Token)
	events := newWSFeed(*gatewayAddr, auth0.Token)

	dispatcher := notify.NewDispatcher()
	dispatcher.Init(notify.SinkFunc(func(title, body string) {
		fmt.Printf("\r\033[K\a[%s] %s\n> ", title, body)
	}))
	dispatcher.Request(true) // terminal client always accepts notifications

	s := session.New(api, ident, events, dispatcher)
	s.OnMessages = func(_ channel.Target, msgs []model.Message) {
		printMessages(msgs)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.Open(ctx)
	defer s.SignOut()

	if *dmUser != "" {
		s.SwitchChannel(ctx, channel.Direct(*dmUser))
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		fmt.Print("> ")
		for scanner.Scan() {
			text := scanner.Text()
			switch {
			case text == "":
				fmt.Print("> ")
			case text == "/quit":
				interrupt <- os.Interrupt
				return
			case text == "/group":
				s.SwitchChannel(ctx, channel.Group())
			case strings.HasPrefix(text, "/dm "):
				peer := strings.TrimSpace(strings.TrimPrefix(text, "/dm "))
				if peer == "" {
					fmt.Print("usage: /dm <user>\n> ")
					continue
				}
				s.SwitchChannel(ctx, channel.Direct(peer))
			default:
				if err := s.Send(ctx, text); err != nil {
					if errors.Is(err, session.ErrEmptyContent) || errors.Is(err, store.ErrPolicy) {
						fmt.Print("could not send message\n> ")
					} else {
						log.Printf("send: %v", err)
					}
				}
			}
		}
	}()

	<-interrupt
	log.Println("interrupt")
}
