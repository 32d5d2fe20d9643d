// ABOUTME: Interactive terminal chat client for rowan-gateway
// ABOUTME: Logs in, opens a conversation, and runs a readline chat loop over the HTTP API

package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/rowanlabs/rowan/internal/auth"
)

const defaultGatewayURL = "http://localhost:3000"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type client struct {
	baseURL string
	token   string
	http    *http.Client
}

func (c *client) do(ctx context.Context, method, path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s (status %d)", method, path, apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

func run(ctx context.Context) error {
	baseURL := os.Getenv("ROWAN_URL")
	if baseURL == "" {
		baseURL = defaultGatewayURL
	}

	c := &client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 5 * time.Minute},
	}

	cyan := color.New(color.FgCyan)
	gray := color.New(color.FgHiBlack)

	cyan.Println("rowan chat")
	gray.Printf("gateway: %s\n\n", c.baseURL)

	reader := bufio.NewReader(os.Stdin)

	if err := login(ctx, c, reader); err != nil {
		return err
	}

	conversationID, err := pickConversation(ctx, c, reader)
	if err != nil {
		return err
	}

	model := os.Getenv("ROWAN_MODEL")
	if model != "" {
		gray.Printf("model: %s\n", model)
	}
	gray.Println(`type a message, or "/quit" to exit`)
	fmt.Println()

	return chatLoop(ctx, c, reader, conversationID, model)
}

func login(ctx context.Context, c *client, reader *bufio.Reader) error {
	// A saved token skips the login prompt
	if token := os.Getenv("ROWAN_TOKEN"); token != "" {
		c.token = token
		return nil
	}

	username, err := promptLine(reader, "Username: ")
	if err != nil {
		return err
	}
	password, err := auth.PromptPassword("Password: ")
	if err != nil {
		return err
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{
		"username": username,
		"password": password,
	}, &resp); err != nil {
		return err
	}

	c.token = resp.Token
	color.Green("logged in\n")
	return nil
}

func pickConversation(ctx context.Context, c *client, reader *bufio.Reader) (string, error) {
	var list struct {
		Conversations []struct {
			ID        string `json:"id"`
			Title     string `json:"title"`
			UpdatedAt string `json:"updated_at"`
		} `json:"conversations"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/conversations", nil, &list); err != nil {
		return "", err
	}

	if len(list.Conversations) > 0 {
		fmt.Println("Conversations:")
		for i, conv := range list.Conversations {
			title := conv.Title
			if title == "" {
				title = "(untitled)"
			}
			fmt.Printf("  %d. %s  %s\n", i+1, title, color.HiBlackString(conv.UpdatedAt))
		}
		fmt.Println("  n. start a new conversation")

		choice, err := promptLine(reader, "Pick: ")
		if err != nil {
			return "", err
		}
		if choice != "n" && choice != "" {
			var idx int
			if _, err := fmt.Sscanf(choice, "%d", &idx); err == nil && idx >= 1 && idx <= len(list.Conversations) {
				return list.Conversations[idx-1].ID, nil
			}
			return "", fmt.Errorf("invalid choice %q", choice)
		}
	}

	title, err := promptLine(reader, "Title for the new conversation: ")
	if err != nil {
		return "", err
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/conversations", map[string]string{"title": title}, &created); err != nil {
		return "", err
	}
	return created.ID, nil
}

func chatLoop(ctx context.Context, c *client, reader *bufio.Reader, conversationID, model string) error {
	userLabel := color.New(color.FgGreen, color.Bold)
	botLabel := color.New(color.FgCyan, color.Bold)
	gray := color.New(color.FgHiBlack)

	for {
		userLabel.Print("you> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println()
			return nil // EOF ends the session
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "/quit" || line == "/exit" {
			return nil
		}

		body := map[string]string{
			"conversation_id": conversationID,
			"message":         line,
		}
		if model != "" {
			body["model"] = model
		}

		var resp struct {
			Reply string `json:"reply"`
			Model string `json:"model"`
		}
		start := time.Now()
		if err := c.do(ctx, http.MethodPost, "/api/chat", body, &resp); err != nil {
			color.Red("  %v\n", err)
			continue
		}

		botLabel.Printf("%s> ", resp.Model)
		fmt.Println(resp.Reply)
		gray.Printf("  (%.1fs)\n\n", time.Since(start).Seconds())
	}
}

func promptLine(reader *bufio.Reader, label string) (string, error) {
	fmt.Print(label)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
