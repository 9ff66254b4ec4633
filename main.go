package main

import (
	"flag"
	"log"
	"os"

	"github.com/mark3labs/mcp-go/server"
)

// App wires the bridge components together with a clear lifecycle: built on
// startup, disposed on shutdown. Nothing lives in package-level globals, so
// tests can run multiple independent instances.
type App struct {
	config     *Config
	store      DocumentStore
	registry   *DocumentRegistry
	mutator    *DocumentMutator
	selection  *SelectionStore
	state      *StateStore
	dispatcher *Dispatcher
	bridge     *BridgeServer
	logger     *log.Logger
}

// NewApp builds the component graph over the given document store.
func NewApp(cfg *Config, store DocumentStore, logger *log.Logger) *App {
	registry := NewDocumentRegistry(logger)
	mutator := NewDocumentMutator(store, logger)
	state := NewStateStore()

	broadcast := NewBroadcastNotifier()
	notifier := CombineNotifiers(NewLogNotifier(logger), broadcast)
	selection := NewSelectionStore(notifier)

	// Per-document state dies with the registration.
	registry.OnClose(func(path string) {
		selection.Clear(path)
		state.Clear(path)
		mutator.Forget(path)
	})

	dispatcher := NewDispatcher(registry, mutator, selection, state, notifier, logger)
	bridge := NewBridgeServer(dispatcher, registry, cfg.ServerSettings(), logger)
	broadcast.Attach(bridge)

	return &App{
		config:     cfg,
		store:      store,
		registry:   registry,
		mutator:    mutator,
		selection:  selection,
		state:      state,
		dispatcher: dispatcher,
		bridge:     bridge,
		logger:     logger,
	}
}

// OpenWorkspacePlots registers every plot file the store exposes. The host
// environment owns document lifecycle; at startup the workspace scan plays
// that role.
func (a *App) OpenWorkspacePlots() error {
	paths, err := a.store.List()
	if err != nil {
		return err
	}
	for _, path := range paths {
		a.registry.Open(path)
	}
	return nil
}

// Dispose stops the bridge.
func (a *App) Dispose() {
	if a.bridge != nil {
		a.bridge.Stop()
	}
}

func main() {
	testMode := flag.Bool("t", false, "Run in interactive CLI test mode")
	portFlag := flag.Int("port", 0, "Bridge WebSocket port (overrides config)")
	workspaceFlag := flag.String("workspace", "", "Workspace directory containing plot files")
	flag.Parse()

	logger := log.New(os.Stderr, "", log.LstdFlags)

	cfg, err := LoadConfig(logger)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *portFlag != 0 {
		cfg.Port = *portFlag
	}
	if *workspaceFlag != "" {
		cfg.Workspace = *workspaceFlag
	}

	var store DocumentStore
	if cfg.Workspace != "" {
		fileStore, err := NewFileDocumentStore(cfg.Workspace, logger)
		if err != nil {
			log.Fatalf("Failed to open workspace: %v", err)
		}
		store = fileStore
	} else {
		logger.Printf("No workspace configured, starting with an empty in-memory store")
		store = NewMemoryDocumentStore()
	}

	app := NewApp(cfg, store, logger)
	if err := app.OpenWorkspacePlots(); err != nil {
		log.Fatalf("Failed to open workspace plots: %v", err)
	}

	if err := app.bridge.Start(); err != nil {
		log.Fatalf("Bridge error: %v", err)
	}
	defer app.Dispose()

	if *testMode {
		app.runInteractiveCLI()
		return
	}

	s := NewMCPServer(app.dispatcher)
	logger.Printf("Debrief bridge MCP server starting on Stdio...")
	if err := server.ServeStdio(s); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
