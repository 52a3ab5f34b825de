package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/just-ask-ai/justask/internal/core/domain"
	"github.com/just-ask-ai/justask/internal/core/ports/driving"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure AI providers, routing, retrieval, sync and server options.

Settings live in config.toml in the data directory and are written as nested
tables, so the file can also be edited by hand.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> [value]",
	Short: "Set a single setting",
	Long: `Set a single setting by its dot-notation key.

Values are validated against the key's type. When the value is omitted for an
API key or token, it is read from the terminal without echo.

Examples:
  justask settings set router.classifier generative
  justask settings set retrieval.stuff_threshold 40
  justask settings set sync.batch_delay 5s
  justask settings set llm.api_key`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List every setting key",
	Args:  cobra.NoArgs,
	RunE:  runSettingsKeys,
}

var settingsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate settings and ping AI providers",
	Args:  cobra.NoArgs,
	RunE:  runSettingsCheck,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long:  `Interactively choose the embedding provider used for the semantic index.`,
	Args:  cobra.NoArgs,
	RunE:  runSettingsEmbedding,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure LLM provider",
	Long:  `Interactively choose the LLM provider used for query generation and answers.`,
	Args:  cobra.NoArgs,
	RunE:  runSettingsLLM,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	settingsCmd.AddCommand(settingsCheckCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	rootCmd.AddCommand(settingsCmd)
}

func settingsService(cmd *cobra.Command) (driving.SettingsService, error) {
	s, err := loadServices(cmd)
	if err != nil {
		return nil, err
	}
	if s.Settings == nil {
		return nil, errors.New("settings service not configured")
	}
	return s.Settings, nil
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	svc, err := settingsService(cmd)
	if err != nil {
		return err
	}

	settings, err := svc.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Embedding]")
	printProvider(cmd, settings.Embedding.Provider, settings.Embedding.Model,
		settings.Embedding.BaseURL, settings.Embedding.APIKey, settings.Embedding.IsConfigured())

	cmd.Println("[LLM]")
	printProvider(cmd, settings.LLM.Provider, settings.LLM.Model,
		settings.LLM.BaseURL, settings.LLM.APIKey, settings.LLM.IsConfigured())

	cmd.Println("[Router]")
	cmd.Printf("  Classifier: %s\n", settings.Router.Classifier)
	cmd.Printf("  On structured failure: %s\n", settings.Router.OnFailure)
	cmd.Printf("  Extract filters: %s\n", yesNo(settings.Router.ExtractFilters))
	cmd.Printf("  Summarise structured results: %s\n", yesNo(settings.Router.SummariseResults))
	cmd.Println()

	cmd.Println("[Retrieval]")
	cmd.Printf("  Cap: %d\n", settings.Retrieval.Cap)
	cmd.Printf("  Stuff threshold: %d\n", settings.Retrieval.StuffThreshold)
	cmd.Printf("  Map batch size: %d\n", settings.Retrieval.MapBatchSize)
	cmd.Printf("  Map concurrency: %d\n", settings.Retrieval.MapConcurrency)
	cmd.Println()

	cmd.Println("[Sync]")
	cmd.Printf("  Page size: %d\n", settings.Sync.PageSize)
	cmd.Printf("  Batch size: %d\n", settings.Sync.BatchSize)
	if settings.Sync.MaxRows > 0 {
		cmd.Printf("  Max rows: %d\n", settings.Sync.MaxRows)
	} else {
		cmd.Println("  Max rows: unbounded")
	}
	cmd.Printf("  Batch delay: %s\n", settings.Sync.BatchDelay)
	cmd.Printf("  Interval: %s\n", settings.Sync.Interval)
	cmd.Println()

	cmd.Println("[Index]")
	cmd.Printf("  Backend: %s\n", settings.Index.Backend)
	if settings.Index.Backend == domain.IndexBackendQdrant {
		cmd.Printf("  Qdrant: %s:%d/%s\n", settings.Index.QdrantHost,
			settings.Index.QdrantPort, settings.Index.QdrantCollection)
	}
	cmd.Println()

	cmd.Println("[Dataset]")
	cmd.Printf("  Source: %s/resource/%s\n", strings.TrimRight(settings.Dataset.BaseURL, "/"), settings.Dataset.Resource)
	cmd.Printf("  Page size: %d\n", settings.Dataset.PageSize)
	if settings.Dataset.AppToken != "" {
		cmd.Printf("  App token: %s\n", maskAPIKey(settings.Dataset.AppToken))
	}
	cmd.Println()

	cmd.Println("[Server]")
	cmd.Printf("  Address: %s\n", settings.Server.Addr)
	cmd.Printf("  CORS origins: %s\n", strings.Join(settings.Server.CORSOrigins, ", "))
	cmd.Println()

	if err := svc.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'justask settings llm' or 'justask settings embedding' to fix provider issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func printProvider(cmd *cobra.Command, provider domain.AIProvider, model, baseURL, apiKey string, configured bool) {
	cmd.Printf("  Provider: %s\n", provider.Description())
	cmd.Printf("  Model: %s\n", model)
	if provider.IsLocal() && baseURL != "" {
		cmd.Printf("  Base URL: %s\n", baseURL)
	}
	if provider.RequiresAPIKey() {
		if apiKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(apiKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	status := "configured"
	if !configured {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
	cmd.Println()
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	svc, err := settingsService(cmd)
	if err != nil {
		return err
	}

	key := args[0]
	var value string
	if len(args) == 2 {
		value = args[1]
	} else {
		if !isSecretKey(key) {
			return fmt.Errorf("%w: a value is required for %s", domain.ErrInvalidInput, key)
		}
		cmd.Printf("Enter %s: ", key)
		value = readPassword(cmd.InOrStdin())
		cmd.Println()
	}

	if err := svc.Set(key, value); err != nil {
		return err
	}

	shown := value
	if isSecretKey(key) {
		shown = maskAPIKey(value)
	}
	cmd.Printf("%s = %s\n", key, shown)
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	svc, err := settingsService(cmd)
	if err != nil {
		return err
	}
	for _, key := range svc.Keys() {
		cmd.Println(key)
	}
	return nil
}

func runSettingsCheck(cmd *cobra.Command, _ []string) error {
	s, err := loadServices(cmd)
	if err != nil {
		return err
	}
	if s.Settings == nil {
		return errors.New("settings service not configured")
	}

	out := cmd.OutOrStdout()
	if err := s.Settings.Validate(); err != nil {
		warnColor.Fprintf(out, "Settings: %v\n", err)
		return err
	}
	successColor.Fprintln(out, "Settings: OK")

	if s.CheckProviders == nil {
		return nil
	}
	fmt.Fprint(out, "Providers: ")
	if err := s.CheckProviders(); err != nil {
		warnColor.Fprintln(out, "FAILED")
		return err
	}
	successColor.Fprintln(out, "OK")
	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	svc, err := settingsService(cmd)
	if err != nil {
		return err
	}
	reader := bufio.NewReader(cmd.InOrStdin())
	return configureProvider(cmd, svc, reader, "embedding",
		domain.AllEmbeddingProviders(), domain.DefaultEmbeddingModels())
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	svc, err := settingsService(cmd)
	if err != nil {
		return err
	}
	reader := bufio.NewReader(cmd.InOrStdin())
	return configureProvider(cmd, svc, reader, "llm",
		domain.AllLLMProviders(), domain.DefaultLLMModels())
}

// configureProvider walks through provider, model and API key selection and
// stores them under the given section ("embedding" or "llm").
func configureProvider(
	cmd *cobra.Command,
	svc driving.SettingsService,
	reader *bufio.Reader,
	section string,
	providers []domain.AIProvider,
	defaults map[domain.AIProvider]string,
) error {
	title := "Embedding"
	if section == "llm" {
		title = "LLM"
	}

	cmd.Printf("Select %s Provider\n", title)
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	idx := parseChoice(readLine(reader), len(providers), 1)
	selected := providers[idx-1]

	defaultModel := defaults[selected]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	var apiKey string
	if selected.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPasswordFrom(reader)
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	values := [][2]string{
		{section + ".provider", selected.String()},
		{section + ".model", model},
		{section + ".api_key", apiKey},
	}
	for _, kv := range values {
		if err := svc.Set(kv[0], kv[1]); err != nil {
			return fmt.Errorf("failed to configure %s provider: %w", section, err)
		}
	}

	cmd.Printf("%s provider configured: %s (%s)\n", title, selected.Description(), model)
	cmd.Println("Run 'justask settings check' to verify connectivity.")
	return nil
}

// Helper functions.

func isSecretKey(key string) bool {
	return strings.HasSuffix(key, ".api_key") || strings.HasSuffix(key, ".app_token")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo when in is a terminal.
func readPassword(in io.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	return readLine(bufio.NewReader(in))
}

// readPasswordFrom prefers the terminal but keeps reading from reader once
// it has buffered input.
func readPasswordFrom(reader *bufio.Reader) string {
	if reader.Buffered() == 0 && term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
