package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"

	"github.com/myst-6/messaging/pkg/model"
)

type loginResponse struct {
	Token string `json:"token"`
}

func login(apiAddr, userID string) (string, error) {
	reqBody, _ := json.Marshal(map[string]string{"user_id": userID})
	resp, err := http.Post(apiAddr+"/login", "application/json", bytes.NewBuffer(reqBody))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("login failed: %s", string(body))
	}

	var lr loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return "", err
	}
	return lr.Token, nil
}

func render(raw []byte) {
	var ev struct {
		Type model.EventType `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &ev); err != nil {
		log.Printf("unreadable event: %s", raw)
		return
	}

	switch ev.Type {
	case model.EventHistory:
		var p model.HistoryPayload
		json.Unmarshal(ev.Data, &p)
		for _, m := range p.Messages {
			printMessage(m)
		}
	case model.EventWelcome:
		var p model.WelcomePayload
		json.Unmarshal(ev.Data, &p)
		fmt.Printf("-- %s\n", p.Content)
	case model.EventMessage:
		var m model.Message
		json.Unmarshal(ev.Data, &m)
		printMessage(m)
	case model.EventUserJoined:
		var p model.UserPayload
		json.Unmarshal(ev.Data, &p)
		fmt.Printf("-- %s joined\n", p.UserID)
	case model.EventUserLeft:
		var p model.UserPayload
		json.Unmarshal(ev.Data, &p)
		fmt.Printf("-- %s left\n", p.UserID)
	case model.EventStartTyping:
		var p model.UserPayload
		json.Unmarshal(ev.Data, &p)
		fmt.Printf("-- %s is typing...\n", p.UserID)
	case model.EventStopTyping:
		// quiet; the next message or silence says it all
	case model.EventPing:
		// heartbeat probe, nothing to show
	case model.EventError:
		var p model.ErrorPayload
		json.Unmarshal(ev.Data, &p)
		fmt.Printf("!! %s\n", p.Message)
	}
}

func printMessage(m model.Message) {
	ts := time.UnixMilli(m.Timestamp).Format("15:04:05")
	fmt.Printf("[%s] %s: %s\n", ts, m.UserID, m.Content)
}

func main() {
	serverAddr := flag.String("addr", "localhost:8080", "gateway service address")
	apiAddr := flag.String("api", "http://localhost:8081", "api service address")
	userID := flag.String("user", "user1", "user id")
	conversationID := flag.String("conversation", "general", "conversation id")
	flag.Parse()

	log.Printf("Logging in as %s...", *userID)
	token, err := login(*apiAddr, *userID)
	if err != nil {
		log.Fatal("Login failed: ", err)
	}

	u := url.URL{Scheme: "ws", Host: *serverAddr, Path: "/ws"}
	q := u.Query()
	q.Set("conversationId", *conversationID)
	u.RawQuery = q.Encode()

	header := http.Header{}
	header.Add("Authorization", "Bearer "+token)

	c, _, err := websocket.DefaultDialer.Dial(u.String(), header)
	if err != nil {
		log.Fatal("dial: ", err)
	}
	defer c.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, raw, err := c.ReadMessage()
			if err != nil {
				log.Println("read:", err)
				return
			}
			render(raw)
		}
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		frame, _ := json.Marshal(model.Frame{Type: model.EventMessage, Content: line})
		if err := c.WriteMessage(websocket.TextMessage, frame); err != nil {
			log.Println("write:", err)
			break
		}
		select {
		case <-done:
			return
		default:
		}
	}

	c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	<-done
}
