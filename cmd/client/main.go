package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/fasthttp/websocket"
	"github.com/gofiber/fiber/v2"

	"quickchat/client/session"
	"quickchat/internal/chat"
	"quickchat/internal/model"
)

// httpSeenMarker persists seen flags through the server's REST surface.
type httpSeenMarker struct {
	base  string
	token string
}

func (m *httpSeenMarker) MarkSeen(messageID string) error {
	agent := fiber.Put(m.base + "/api/messages/mark/" + messageID)
	agent.Set("token", m.token)
	code, _, errs := agent.Bytes()
	if len(errs) > 0 {
		return errs[0]
	}
	if code != fiber.StatusOK {
		return fmt.Errorf("mark seen: status %d", code)
	}
	return nil
}

func main() {
	addr := flag.String("addr", "127.0.0.1:5000", "server address")
	userID := flag.String("user", "", "user id to connect as")
	token := flag.String("token", "", "auth token for REST calls")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if *userID == "" {
		log.Error("missing -user")
		os.Exit(1)
	}

	wsURL := url.URL{
		Scheme:   "ws",
		Host:     *addr,
		Path:     "/ws",
		RawQuery: "userId=" + url.QueryEscape(*userID),
	}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL.String(), nil)
	if err != nil {
		log.Error("dial", "url", wsURL.String(), "err", err)
		os.Exit(1)
	}
	defer conn.Close()

	dispatcher := session.NewDispatcher()
	marker := &httpSeenMarker{base: "http://" + *addr, token: *token}
	sess := session.New(marker)
	sess.Attach(dispatcher)
	defer sess.Detach()

	dispatcher.On(chat.EventOnlineUsers, func(data json.RawMessage) {
		var ids []string
		if err := json.Unmarshal(data, &ids); err == nil {
			fmt.Printf("online: %s\n", strings.Join(ids, ", "))
		}
	})
	dispatcher.On(chat.EventNewMessage, func(data json.RawMessage) {
		var msg model.Message
		if err := json.Unmarshal(data, &msg); err == nil {
			fmt.Printf("[%s] %s %s\n", msg.SenderID, msg.Text, msg.Image)
		}
	})
	dispatcher.On(chat.EventNewGroupMessage, func(data json.RawMessage) {
		var msg chat.GroupMessagePayload
		if err := json.Unmarshal(data, &msg); err == nil {
			fmt.Printf("[%s @ %s] %s %s\n", msg.Sender.FullName, msg.GroupID, msg.Text, msg.Image)
		}
	})

	// Reader goroutine: every frame is an Envelope, fed to the dispatcher.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				sess.Detach()
				return
			}
			var env chat.Envelope
			if err := json.Unmarshal(data, &env); err != nil {
				continue
			}
			dispatcher.Dispatch(env.Event, env.Data)
		}
	}()

	fmt.Println("commands: /open <id>, /opengroup <id>, /close, /unseen, /quit")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "/quit":
			return
		case line == "/close":
			sess.SetActive(nil)
		case line == "/unseen":
			for id, n := range sess.Counters() {
				fmt.Printf("%s: %d\n", id, n)
			}
		case strings.HasPrefix(line, "/open "):
			sess.SetActive(&session.Conversation{ID: strings.TrimPrefix(line, "/open ")})
		case strings.HasPrefix(line, "/opengroup "):
			sess.SetActive(&session.Conversation{ID: strings.TrimPrefix(line, "/opengroup "), Group: true})
		}
		select {
		case <-done:
			return
		default:
		}
	}
}
