package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshdurbin/shortlinks/internal/config"
	"github.com/joshdurbin/shortlinks/internal/logger"
	"github.com/joshdurbin/shortlinks/internal/transport/client"
)

var rootCmd = &cobra.Command{
	Use:   "shortlinks",
	Short: "A short link service with click limits and expiry",
	Long:  "A short link service whose links expire after a TTL or a number of clicks, notifying their owners when they do",
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the short link server",
	RunE:  runServer,
}

var clientCmd = &cobra.Command{
	Use:   "client",
	Short: "Client commands for interacting with the server",
}

var createCmd = &cobra.Command{
	Use:   "create [URL]",
	Short: "Create a short link",
	Args:  cobra.ExactArgs(1),
	RunE:  runCreate,
}

var getCmd = &cobra.Command{
	Use:   "get [ID]",
	Short: "Show one of your links",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

var updateCmd = &cobra.Command{
	Use:   "update [ID]",
	Short: "Change a link's URL and/or click limit",
	Args:  cobra.ExactArgs(1),
	RunE:  runUpdate,
}

var deleteCmd = &cobra.Command{
	Use:   "delete [ID]",
	Short: "Delete one of your links",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List your links, newest first",
	RunE:  runList,
}

var notificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "List your notifications",
	RunE:  runNotifications,
}

var readCmd = &cobra.Command{
	Use:   "read [NOTIFICATION_ID]",
	Short: "Mark a notification as read",
	Args:  cobra.ExactArgs(1),
	RunE:  runRead,
}

var openCmd = &cobra.Command{
	Use:   "open [SHORT_CODE]",
	Short: "Follow a short link once and print where it leads",
	Args:  cobra.ExactArgs(1),
	RunE:  runOpen,
}

func init() {
	// Server flags default to the built-in config; only flags set explicitly override env and .env
	serverCmd.Flags().StringSlice("env-file", nil, "Additional .env files to load (default .env)")
	config.BindFlags(serverCmd.Flags(), config.Default())

	clientCmd.PersistentFlags().StringP("server-url", "u", "http://localhost:8080", "Server URL")
	clientCmd.PersistentFlags().String("user-id", os.Getenv("SHORTLINKS_USER_ID"), "Owner id to act as")

	createCmd.Flags().Int("click-limit", 0, "Maximum number of clicks (0 for unlimited)")
	updateCmd.Flags().String("url", "", "New original URL")
	updateCmd.Flags().Int("click-limit", 0, "New click limit")
	notificationsCmd.Flags().Bool("unread", false, "Only show unread notifications")

	clientCmd.AddCommand(createCmd, getCmd, updateCmd, deleteCmd, listCmd, notificationsCmd, readCmd, openCmd)
	rootCmd.AddCommand(serverCmd, clientCmd)
}

// loadConfig layers defaults, .env files, SHORTLINKS_* variables and flags
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()

	envFiles, _ := cmd.Flags().GetStringSlice("env-file")
	if err := config.LoadEnv(cfg, envFiles...); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}
	if err := config.ApplyFlags(cmd.Flags(), cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log := logger.New(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	log.Info("starting shortlinks server",
		"port", cfg.Server.Port,
		"driver", cfg.Database.Driver,
		"ttl", cfg.Links.TTL,
		"reaper_interval", cfg.Links.ReaperInterval,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.close(); err != nil {
			log.Error("error during cleanup", "error", err)
		}
	}()

	if err := a.reaper.Start(ctx); err != nil {
		return fmt.Errorf("failed to start reaper: %w", err)
	}

	// Set up graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- a.server.Start()
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-sigChan:
		log.Info("received signal, shutting down gracefully", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := a.server.Shutdown(shutdownCtx); err != nil {
			log.Error("error during server shutdown", "error", err)
		}
	}

	log.Info("server stopped")
	return nil
}

func newCommands(cmd *cobra.Command) *client.Commands {
	serverURL, _ := cmd.Flags().GetString("server-url")
	userID, _ := cmd.Flags().GetString("user-id")
	return client.NewCommands(client.NewClient(serverURL, userID), cmd.OutOrStdout())
}

func clientContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", arg, err)
	}
	return id, nil
}

// changedInt returns a flag's value only when it was set on the command line
func changedInt(cmd *cobra.Command, name string) *int {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetInt(name)
	return &v
}

func runCreate(cmd *cobra.Command, args []string) error {
	ctx, cancel := clientContext()
	defer cancel()

	limit := changedInt(cmd, "click-limit")
	if limit != nil && *limit == 0 {
		limit = nil
	}
	return newCommands(cmd).Create(ctx, args[0], limit)
}

func runGet(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := clientContext()
	defer cancel()

	return newCommands(cmd).Get(ctx, id)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	var url *string
	if cmd.Flags().Changed("url") {
		v, _ := cmd.Flags().GetString("url")
		url = &v
	}
	limit := changedInt(cmd, "click-limit")
	if url == nil && limit == nil {
		return fmt.Errorf("nothing to update: pass --url and/or --click-limit")
	}

	ctx, cancel := clientContext()
	defer cancel()

	return newCommands(cmd).Update(ctx, id, url, limit)
}

func runDelete(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := clientContext()
	defer cancel()

	return newCommands(cmd).Delete(ctx, id)
}

func runList(cmd *cobra.Command, args []string) error {
	ctx, cancel := clientContext()
	defer cancel()

	return newCommands(cmd).List(ctx)
}

func runNotifications(cmd *cobra.Command, args []string) error {
	unread, _ := cmd.Flags().GetBool("unread")

	ctx, cancel := clientContext()
	defer cancel()

	return newCommands(cmd).Notifications(ctx, unread)
}

func runRead(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := clientContext()
	defer cancel()

	return newCommands(cmd).Read(ctx, id)
}

func runOpen(cmd *cobra.Command, args []string) error {
	ctx, cancel := clientContext()
	defer cancel()

	return newCommands(cmd).Open(ctx, args[0])
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
