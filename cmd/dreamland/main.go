package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"dreamland/internal/config"
	"dreamland/internal/db"
	"dreamland/internal/domain"
	"dreamland/internal/engine"
	"dreamland/internal/generate"
	"dreamland/internal/history"
	"dreamland/internal/migrate"
	"dreamland/internal/stubserver"
	"dreamland/internal/tcapi"
)

var rootCmd = &cobra.Command{
	Use:   "dreamland",
	Short: "Presale Dreamland CLI",
	Long: `Dreamland generates candidate PLM items with an LLM, keeps the batches in a
local history, and pushes approved items into a Teamcenter server.

Typical flow:
  dreamland config init          write a starter dreamland.yml
  dreamland generate -d Radio -n 5
  dreamland push                 push the latest batch into Teamcenter`,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("DREAMLAND")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("tc-password", "", "Teamcenter password (overrides config)")
	rootCmd.PersistentFlags().String("llm-api-key", "", "LLM API key (overrides config)")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("tc-password", rootCmd.PersistentFlags().Lookup("tc-password"))
	_ = viper.BindPFlag("llm-api-key", rootCmd.PersistentFlags().Lookup("llm-api-key"))
}

func registerCommands() {
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(pushCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(sessionCmd())
	rootCmd.AddCommand(stubCmd())
}

func configCmd() *cobra.Command {
	cfg := &cobra.Command{Use: "config", Short: "Manage dreamland.yml"}
	cfg.AddCommand(configInitCmd())
	cfg.AddCommand(configShowCmd())
	return cfg
}

func configInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists; use --force to overwrite", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
				return err
			}
			fmt.Println("wrote", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config")
	return cmd
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			redacted := *cfg
			if redacted.Teamcenter.Password != "" {
				redacted.Teamcenter.Password = "***"
			}
			if redacted.LLM.APIKey != "" {
				redacted.LLM.APIKey = "***"
			}
			return printJSON(redacted)
		},
	}
}

func generateCmd() *cobra.Command {
	var domainName string
	var count int
	var noSave bool
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Ask the LLM for candidate items",
		RunE: func(cmd *cobra.Command, args []string) error {
			if domainName == "" {
				return fmt.Errorf("--domain required")
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			eng := newEngine(cfg)
			items, err := eng.GenerateItems(cmd.Context(), domainName, count)
			if err != nil {
				return err
			}
			if err := printItems(items); err != nil {
				return err
			}
			if noSave {
				return nil
			}
			return withHistory(cmd.Context(), func(ctx context.Context, store history.Store) error {
				batch, err := store.SaveBatch(ctx, domainName, time.Now(), items)
				if err != nil {
					return err
				}
				fmt.Println("saved batch", batch.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&domainName, "domain", "d", "", "domain name, e.g. Radio")
	cmd.Flags().IntVarP(&count, "count", "n", 5, "how many items to generate")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not record the batch in history")
	return cmd
}

func pushCmd() *cobra.Command {
	var batchID string
	var skip []string
	cmd := &cobra.Command{
		Use:   "push",
		Short: "Create the items of a batch in Teamcenter",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			var batch history.Batch
			var items []domain.CandidateItem
			err = withHistory(cmd.Context(), func(ctx context.Context, store history.Store) error {
				var err error
				if batchID == "" {
					batch, items, err = store.LatestBatch(ctx)
				} else {
					batch, items, err = store.GetBatch(ctx, batchID)
				}
				return err
			})
			if err != nil {
				return err
			}
			for i := range items {
				if contains(skip, items[i].Name) {
					items[i].IsEnabled = false
				}
			}
			eng := newEngine(cfg)
			defer func() { _ = eng.Client.Logout(cmd.Context()) }()
			report, err := eng.CreateSelectedItems(cmd.Context(), batch.Name, items)
			if err != nil {
				return err
			}
			return printReport(report)
		},
	}
	cmd.Flags().StringVar(&batchID, "batch", "", "batch id (default: latest)")
	cmd.Flags().StringSliceVar(&skip, "skip", nil, "item names to leave out")
	return cmd
}

func historyCmd() *cobra.Command {
	h := &cobra.Command{Use: "history", Short: "Inspect generation history"}
	h.AddCommand(historyListCmd())
	h.AddCommand(historyShowCmd())
	return h
}

func historyListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved batches",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(cmd.Context(), func(ctx context.Context, store history.Store) error {
				batches, err := store.ListBatches(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(batches)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Created", "Items"})
				for _, b := range batches {
					tw.AppendRow(table.Row{b.ID, b.Name, b.CreatedAt, b.ItemCount})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func historyShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <batch-id>",
		Short: "Show the items of a batch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(cmd.Context(), func(ctx context.Context, store history.Store) error {
				_, items, err := store.GetBatch(ctx, args[0])
				if err != nil {
					return err
				}
				return printItems(items)
			})
		},
	}
}

func sessionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Log in and print the server session info",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			client := newClient(cfg)
			sess, err := client.Login(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = client.Logout(cmd.Context()) }()
			if viper.GetBool("json") {
				return printJSON(sess)
			}
			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendRow(table.Row{"Server version", sess.ServerVersion})
			tw.AppendRow(table.Row{"Host", sess.HostName})
			tw.AppendRow(table.Row{"User", sess.UserID})
			tw.AppendRow(table.Row{"Group", sess.Group.UID})
			tw.AppendRow(table.Row{"Role", sess.Role.UID})
			tw.AppendRow(table.Row{"Site", sess.Site.UID})
			tw.AppendRow(table.Row{"Privileged", sess.Privileged})
			tw.Render()
			return nil
		},
	}
}

func stubCmd() *cobra.Command {
	var addr, password string
	cmd := &cobra.Command{
		Use:   "stub",
		Short: "Run a local fake Teamcenter for offline demos",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOptional(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			username := "infodba"
			if cfg != nil {
				username = cfg.Teamcenter.Username
			}
			stub := stubserver.New(stubserver.Options{Username: username, Password: password})
			fmt.Printf("stub Teamcenter on %s (user %s)\n", addr, username)
			return http.ListenAndServe(addr, stub.Handler())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":7001", "listen address")
	cmd.Flags().StringVar(&password, "password", "", "accepted password")
	return cmd
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetString("workspace"))
	if err != nil {
		return nil, err
	}
	if pw := viper.GetString("tc-password"); pw != "" {
		cfg.Teamcenter.Password = pw
	}
	if key := viper.GetString("llm-api-key"); key != "" {
		cfg.LLM.APIKey = key
	}
	return cfg, nil
}

func newClient(cfg *config.Config) *tcapi.Client {
	return tcapi.New(cfg.Teamcenter.URL, cfg.Teamcenter.Username, cfg.Teamcenter.Password)
}

func newEngine(cfg *config.Config) *engine.Engine {
	gen := generate.NewChatClient(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model)
	gen.Temperature = cfg.LLM.Temperature
	gen.MaxTokens = cfg.LLM.MaxTokens
	gen.ItemTypes = cfg.Items.Types
	eng := engine.New(newClient(cfg), gen, cfg)
	if !viper.GetBool("json") {
		eng.OnStatus = func(msg string) { fmt.Fprintln(os.Stderr, msg) }
	}
	return eng
}

func withHistory(ctx context.Context, fn func(context.Context, history.Store) error) error {
	conn, err := db.Open(db.Config{Workspace: viper.GetString("workspace")})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	return fn(ctx, history.Store{DB: conn})
}

func printItems(items []domain.CandidateItem) error {
	if viper.GetBool("json") {
		return printJSON(items)
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"Name", "Type", "Description", "Enabled"})
	for _, it := range items {
		tw.AppendRow(table.Row{it.Name, it.Type, it.Desc, it.IsEnabled})
	}
	tw.Render()
	return nil
}

func printReport(report engine.Report) error {
	if viper.GetBool("json") {
		return printJSON(report)
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"Item", "Created"})
	for _, r := range report.Results {
		tw.AppendRow(table.Row{r.ItemName, r.Success})
	}
	tw.Render()
	if report.Container.UID != "" {
		fmt.Println("container folder:", report.Container.UID)
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
