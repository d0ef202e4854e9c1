package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"chat-hub/domain/event"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/kelseyhightower/envconfig"
	"github.com/olekukonko/tablewriter"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerURL string `envconfig:"CHAT_SERVER_URL" default:"ws://localhost:8080/ws"`
	Token     string `envconfig:"CHAT_TOKEN" required:"true"`
	Room      string `envconfig:"CHAT_ROOM" default:"general"`
}

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, config.ServerURL, nil)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to %s: %w", config.ServerURL, err)
	}
	defer conn.Close()

	if err := send(conn, "authenticate", map[string]string{"token": config.Token}); err != nil {
		return exitRuntime, err
	}
	if err := send(conn, "join_room", map[string]string{"room": config.Room}); err != nil {
		return exitRuntime, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		receive(conn)
	}()

	go readInput(conn, config.Room)

	select {
	case <-ctx.Done():
	case <-done:
	}
	return exitOK, nil
}

// receive renders every server event until the connection drops.
func receive(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			color.Red.Println("disconnected:", err)
			return
		}
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		render(env)
	}
}

func render(env envelope) {
	switch env.Type {
	case "authenticated":
		var p event.Authenticated
		if json.Unmarshal(env.Payload, &p) == nil {
			color.Green.Printf("Authenticated as %s\n", p.User.Username)
		}
	case "auth_error":
		var p event.AuthError
		_ = json.Unmarshal(env.Payload, &p)
		color.Red.Println("Authentication failed:", p.Reason)
	case "room_messages", "more_messages":
		var p event.RoomMessages
		if json.Unmarshal(env.Payload, &p) == nil {
			for _, m := range p.Messages {
				printMessage(m)
			}
			if p.HasMore {
				color.Gray.Println("(older messages available, /more <page>)")
			}
		}
	case "new_message", "new_private_message":
		var p event.NewMessage
		if json.Unmarshal(env.Payload, &p) == nil {
			printMessage(p.Message)
		}
	case "private_messages":
		var p event.PrivateMessages
		if json.Unmarshal(env.Payload, &p) == nil {
			color.Cyan.Printf("-- private conversation %s --\n", p.Room)
			for _, m := range p.Messages {
				printMessage(m)
			}
		}
	case "users_list", "users_list_update":
		var p event.UsersList
		if json.Unmarshal(env.Payload, &p) == nil {
			printUsers(p.Users)
		}
	case "user_online":
		var p event.UserOnline
		if json.Unmarshal(env.Payload, &p) == nil {
			color.Green.Printf("%s is online\n", p.Username)
		}
	case "user_offline":
		var p event.UserOffline
		if json.Unmarshal(env.Payload, &p) == nil {
			color.Gray.Printf("%s went offline\n", p.UserID)
		}
	case "user_typing":
		var p event.UserTyping
		if json.Unmarshal(env.Payload, &p) == nil {
			color.Gray.Printf("%s is typing...\n", p.Username)
		}
	case "error":
		var p event.Error
		_ = json.Unmarshal(env.Payload, &p)
		color.Red.Println("Error:", p.Reason)
	}
}

func printMessage(m event.MessageView) {
	timestamp := m.CreatedAt.Local().Format("15:04")
	color.Yellow.Printf("[%s] %s: ", timestamp, m.Sender.Username)
	fmt.Println(m.Content)
}

func printUsers(users []event.UserView) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Username", "Online", "Last seen"})
	for _, u := range users {
		online := "no"
		if u.IsOnline {
			online = "yes"
		}
		table.Append([]string{u.ID, u.Username, online, u.LastSeen.Local().Format("2006-01-02 15:04")})
	}
	table.Render()
}

// readInput turns stdin lines into commands. Plain lines become room
// messages; slash commands cover the rest of the surface.
func readInput(conn *websocket.Conn, room string) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		switch {
		case line == "/users":
			_ = send(conn, "get_users", nil)
		case line == "/quit":
			_ = send(conn, "user_logout", nil)
			return
		case strings.HasPrefix(line, "/join "):
			room = strings.TrimSpace(strings.TrimPrefix(line, "/join "))
			_ = send(conn, "join_room", map[string]string{"room": room})
		case strings.HasPrefix(line, "/more "):
			page, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "/more ")))
			if err != nil {
				color.Red.Println("usage: /more <page>")
				continue
			}
			_ = send(conn, "load_more_messages", map[string]any{"room": room, "page": page})
		case strings.HasPrefix(line, "/pm "):
			parts := strings.SplitN(strings.TrimPrefix(line, "/pm "), " ", 2)
			if len(parts) != 2 {
				color.Red.Println("usage: /pm <userId> <message>")
				continue
			}
			_ = send(conn, "send_private_message", map[string]string{
				"recipientId": parts[0], "content": parts[1],
			})
		case strings.HasPrefix(line, "/open "):
			recipient := strings.TrimSpace(strings.TrimPrefix(line, "/open "))
			_ = send(conn, "join_private_conversation", map[string]string{"recipientId": recipient})
		default:
			_ = send(conn, "send_message", map[string]string{"room": room, "content": line})
		}
	}
}

func send(conn *websocket.Conn, msgType string, payload any) error {
	env := map[string]any{"type": msgType}
	if payload != nil {
		env["payload"] = payload
	}
	return conn.WriteJSON(env)
}
