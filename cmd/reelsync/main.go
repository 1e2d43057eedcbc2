// ABOUTME: Entry point for the reelsync chat client
// ABOUTME: Interactive chat, conversation listing, and backend health checks

package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/fatih/color"

	"github.com/2389/reelsync/internal/backend"
	"github.com/2389/reelsync/internal/config"
	"github.com/2389/reelsync/internal/conv"
	"github.com/2389/reelsync/internal/engine"
	"github.com/2389/reelsync/internal/kv"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
               _
 _ __ ___  ___| |___ _   _ _ __   ___
| '__/ _ \/ _ \ / __| | | | '_ \ / __|
| | |  __/  __/ \__ \ |_| | | | | (__
|_|  \___|\___|_|___/\__, |_| |_|\___|
                     |___/
`

// getConfigPath returns the path to the reelsync config file.
// Priority: REELSYNC_CONFIG env var > XDG_CONFIG_HOME/reelsync/config.yaml > ~/.config/reelsync/config.yaml
func getConfigPath() string {
	if envPath := os.Getenv("REELSYNC_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "reelsync", "config.yaml")
}

// getDataPath returns the path to the reelsync data directory.
// Priority: XDG_DATA_HOME/reelsync > ~/.local/share/reelsync
func getDataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "reelsync")
}

// loadConfig reads the config file, falling back to defaults when none
// exists. The database path always has a usable default.
func loadConfig() (*config.Config, error) {
	configPath := getConfigPath()

	cfg, err := config.Load(configPath)
	if os.IsNotExist(err) {
		cfg = config.Default()
	} else if err != nil {
		// config.Load wraps the open error, so check the raw path too
		if _, statErr := os.Stat(configPath); os.IsNotExist(statErr) {
			cfg = config.Default()
		} else {
			return nil, err
		}
	}

	if cfg.Database.Path == "" {
		cfg.Database.Path = filepath.Join(getDataPath(), "reelsync.db")
	}
	return cfg, nil
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: reelsync <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  chat           Start an interactive chat session")
		fmt.Println("  conversations  List saved conversations")
		fmt.Println("  health         Check backend health")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "chat":
		err = runChat(ctx)
	case "conversations":
		err = runConversations()
	case "health":
		err = runHealth(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runChat(ctx context.Context) error {
	cyan := color.New(color.FgCyan)
	gray := color.New(color.FgHiBlack)

	cyan.Print(banner)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)

	store, err := kv.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening cache database: %w", err)
	}
	defer store.Close()

	client := backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.RequestTimeout, logger)
	eng := engine.New(store, client, cfg.Jobs.PollInterval, logger)

	ui := newChatUI(eng)
	eventCtx, stopEvents := context.WithCancel(ctx)
	defer stopEvents()
	go ui.watch(eventCtx)

	eng.Start(ctx)
	defer eng.Shutdown()

	ui.render()
	ui.printHelp()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			quit, err := ui.handleCommand(ctx, line)
			if err != nil {
				color.Red("%v", err)
			}
			if quit {
				return nil
			}
			continue
		}

		if err := eng.Send(ctx, line); err != nil {
			color.Red("%v", err)
		}
	}
}

// chatUI renders engine state to the terminal as it changes. New messages
// are printed incrementally; switching conversations reprints the log.
type chatUI struct {
	eng *engine.Engine

	mu       sync.Mutex
	printed  int
	activeID string
}

func newChatUI(eng *engine.Engine) *chatUI {
	return &chatUI{eng: eng}
}

// watch re-renders on every engine event until ctx is cancelled.
func (ui *chatUI) watch(ctx context.Context) {
	events, _ := ui.eng.Events().Subscribe(ctx)
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
			ui.render()
		case <-ctx.Done():
			return
		}
	}
}

// render prints any messages not yet shown. A conversation switch resets the
// high-water mark and reprints from the top.
func (ui *chatUI) render() {
	snap := ui.eng.Snapshot()

	ui.mu.Lock()
	defer ui.mu.Unlock()

	if snap.ActiveID != ui.activeID || len(snap.Messages) < ui.printed {
		ui.activeID = snap.ActiveID
		ui.printed = 0
		fmt.Println()
	}

	for _, m := range snap.Messages[ui.printed:] {
		printMessage(m)
	}
	ui.printed = len(snap.Messages)
}

func printMessage(m conv.Message) {
	switch {
	case m.IsProcessing:
		color.New(color.FgHiBlack).Println("  ...")
	case m.IsUser:
		color.New(color.FgGreen).Printf("  you: ")
		fmt.Println(m.Text)
	default:
		color.New(color.FgCyan).Printf("  reelsync: ")
		fmt.Println(m.Text)
	}
}

func (ui *chatUI) printHelp() {
	gray := color.New(color.FgHiBlack)
	gray.Println("  /new                start a fresh conversation")
	gray.Println("  /list               list conversations")
	gray.Println("  /open <n>           open the nth listed conversation")
	gray.Println("  /delete <n>         delete the nth listed conversation")
	gray.Println("  /quit               exit")
	fmt.Println()
}

func (ui *chatUI) handleCommand(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)

	switch fields[0] {
	case "/quit", "/exit":
		return true, nil

	case "/help":
		ui.printHelp()
		return false, nil

	case "/new":
		ui.eng.NewConversation()
		return false, nil

	case "/list":
		printSummaries(ui.eng.Conversations(), ui.eng.Snapshot().ActiveID)
		return false, nil

	case "/open":
		id, err := ui.pickConversation(fields)
		if err != nil {
			return false, err
		}
		return false, ui.eng.LoadConversation(ctx, id)

	case "/delete":
		id, err := ui.pickConversation(fields)
		if err != nil {
			return false, err
		}
		return false, ui.eng.DeleteConversation(ctx, id)

	default:
		return false, fmt.Errorf("unknown command %s (try /help)", fields[0])
	}
}

// pickConversation resolves "/open 2" style arguments to a conversation id.
func (ui *chatUI) pickConversation(fields []string) (string, error) {
	if len(fields) < 2 {
		return "", fmt.Errorf("usage: %s <n>", fields[0])
	}

	list := ui.eng.Conversations()
	var n int
	if _, err := fmt.Sscanf(fields[1], "%d", &n); err != nil || n < 1 || n > len(list) {
		return "", fmt.Errorf("no conversation %q (use /list)", fields[1])
	}
	return list[n-1].ID, nil
}

func printSummaries(list []conv.Summary, activeID string) {
	if len(list) == 0 {
		color.New(color.FgHiBlack).Println("  no conversations yet")
		return
	}

	cyan := color.New(color.FgCyan)
	gray := color.New(color.FgHiBlack)
	for i, s := range list {
		marker := "  "
		if s.ID == activeID {
			marker = "* "
		}
		fmt.Printf("%s%2d. ", marker, i+1)
		cyan.Print(s.Title)
		gray.Printf("  %s\n", s.UpdatedAt.Format("Jan 2 15:04"))
	}
}

func runConversations() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	store, err := kv.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening cache database: %w", err)
	}
	defer store.Close()

	list := conv.NewStore(store, conv.NewMessageCache(store, nil), nil)
	printSummaries(list.List(), "")
	return nil
}

func runHealth(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	client := backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.RequestTimeout, nil)
	if err := client.Health(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	fmt.Println("healthy")
	return nil
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	// Logs go to stderr so they never interleave with the chat transcript
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}
