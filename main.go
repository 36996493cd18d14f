package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"moseb/chat"
	"moseb/config"
	"moseb/imagegen"
	"moseb/router"
	"moseb/storage"
)

const Version = "v0.1.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ensureConfigTemplates()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	initLogging(cfg.LogLevel)

	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	rt := router.New(cfg.Routes, cfg.CredentialStore)
	if err := rt.Validate(); err != nil {
		log.Warn().Err(err).Msg("route validation failed, sends to unconfigured models will fail")
	}

	mgr := chat.NewManager(store, rt, chat.ModelID(cfg.DefaultModel))
	gen := imagegen.New(cfg.Image.Endpoint)

	return repl(cfg, mgr, gen)
}

// ensureConfigTemplates writes the commented config templates on first run
// so users have something to edit.
func ensureConfigTemplates() {
	settingsPath := config.GetSettingsFilePath()
	if !config.FileExists(settingsPath) {
		if err := os.MkdirAll(config.GetConfigDir(), 0700); err == nil {
			_ = os.WriteFile(settingsPath, []byte(config.GenerateSystemConfigTemplate()), 0600)
		}
	}

	dataDir := config.ExpandPath(config.DefaultSystemConfig().DataDirectory)
	if env := os.Getenv("MOSEB_DATA_DIR"); env != "" {
		dataDir = config.ExpandPath(env)
	}
	userPath := config.UserConfigPath(dataDir)
	if !config.FileExists(userPath) {
		if err := os.MkdirAll(dataDir, 0700); err == nil {
			_ = os.WriteFile(userPath, []byte(config.GenerateUserConfigTemplate()), 0600)
		}
	}
}

func initLogging(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

func openStore(cfg *config.Config) (chat.Store, func(), error) {
	switch cfg.Storage.Backend {
	case config.StorageSQLite:
		s, err := storage.NewSQLiteStore(cfg.DataDir())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return s, func() { _ = s.Close() }, nil
	default:
		s, err := storage.NewFileStore(cfg.DataDir())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open file store: %w", err)
		}
		return s, func() {}, nil
	}
}

func repl(cfg *config.Config, mgr *chat.Manager, gen *imagegen.Generator) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	historyPath := filepath.Join(cfg.DataDir(), "history")
	if f, err := os.Open(historyPath); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(historyPath); err == nil {
			_, _ = line.WriteHistory(f)
			f.Close()
		}
	}()

	fmt.Printf("moseb %s — /help for commands\n", Version)

	for {
		active := mgr.ActiveChat()
		input, err := line.Prompt(fmt.Sprintf("[%s] (%s) > ", active.Title, mgr.ActiveModel()))
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				continue
			}
			return nil // EOF
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if strings.HasPrefix(input, "/") {
			if quit := command(cfg, mgr, input); quit {
				return nil
			}
			continue
		}

		if prompt, ok := imagegen.ParseCommand(input); ok {
			sendImage(mgr, gen, prompt)
			continue
		}

		if err := mgr.Send(context.Background(), input); err != nil {
			fmt.Printf("! %v\n", err)
			continue
		}
		printReply(mgr.ActiveChat())
	}
}

// command handles slash commands; returns true to quit.
func command(cfg *config.Config, mgr *chat.Manager, input string) bool {
	fields := strings.Fields(input)
	arg := ""
	if len(fields) > 1 {
		arg = fields[1]
	}

	switch fields[0] {
	case "/quit", "/exit":
		return true
	case "/new":
		mgr.NewChatSession()
	case "/list":
		for i, c := range mgr.Chats() {
			marker := " "
			if c.ID == mgr.ActiveChat().ID {
				marker = "*"
			}
			fmt.Printf("%s %2d. %s (%s, %d messages)\n", marker, i+1, c.Title, c.Model, len(c.Messages))
		}
	case "/select":
		if c := chatByIndex(mgr, arg); c != nil {
			mgr.Select(c.ID)
		}
	case "/delete":
		if c := chatByIndex(mgr, arg); c != nil {
			mgr.Delete(c.ID)
		}
	case "/clear":
		mgr.Clear(mgr.ActiveChat().ID)
	case "/model":
		if arg == "" {
			fmt.Printf("active model: %s\n", mgr.ActiveModel())
		} else {
			mgr.SetActiveModel(chat.ModelID(arg))
		}
	case "/theme":
		toggleTheme(cfg)
	case "/help":
		fmt.Println("/new /list /select N /delete N /clear /model [id] /theme /quit")
		fmt.Printf("%q sends an image-generation turn\n", imagegen.CommandPrefix+" <prompt>")
	default:
		fmt.Printf("unknown command %s\n", fields[0])
	}
	return false
}

// toggleTheme flips the persisted theme flag.
func toggleTheme(cfg *config.Config) {
	user, err := config.LoadUserConfig(cfg.DataDir())
	if err != nil {
		fmt.Printf("! %v\n", err)
		return
	}
	if user.Theme == "light" {
		user.Theme = "dark"
	} else {
		user.Theme = "light"
	}
	if err := config.SaveUserConfig(user, cfg.DataDir()); err != nil {
		fmt.Printf("! %v\n", err)
		return
	}
	cfg.Theme = user.Theme
	fmt.Printf("theme: %s\n", user.Theme)
}

func chatByIndex(mgr *chat.Manager, arg string) *chat.Chat {
	n, err := strconv.Atoi(arg)
	chats := mgr.Chats()
	if err != nil || n < 1 || n > len(chats) {
		fmt.Println("usage: /select N (see /list)")
		return nil
	}
	return chats[n-1]
}

func sendImage(mgr *chat.Manager, gen *imagegen.Generator, prompt string) {
	payload, err := gen.Generate(context.Background(), prompt)
	if err != nil {
		fmt.Printf("! %v\n", err)
		return
	}
	encoded, err := payload.Encode()
	if err != nil {
		fmt.Printf("! %v\n", err)
		return
	}
	if err := mgr.Send(context.Background(), encoded); err != nil {
		fmt.Printf("! %v\n", err)
		return
	}
	printReply(mgr.ActiveChat())
}

func printReply(c *chat.Chat) {
	if c == nil || len(c.Messages) == 0 {
		return
	}
	last := c.Messages[len(c.Messages)-1]
	if last.Role != chat.RoleAssistant {
		return
	}
	if last.Kind == chat.ContentImage && last.Image != nil {
		fmt.Printf("image %q: %s\n", last.Image.Content, last.Image.ImageURL)
		return
	}
	fmt.Println(last.Content)
}
