package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/blackcoderx/contractfuzz/pkg/auth"
	"github.com/blackcoderx/contractfuzz/pkg/contract"
	"github.com/blackcoderx/contractfuzz/pkg/ferrors"
	"github.com/blackcoderx/contractfuzz/pkg/ingest"
	"github.com/blackcoderx/contractfuzz/pkg/orchestrator"
	"github.com/blackcoderx/contractfuzz/pkg/session"
	"github.com/blackcoderx/contractfuzz/pkg/transport"
)

var (
	cfgFile      string
	contractFile string
	baseURL      string
	authRole     string
	bearerToken  string
	format       string
	reportDir    string

	maxRequestsPerEndpoint int
	maxTotalRequests       int
	maxDurationMs          int
	backoffMultiplier      float64
	respectRetryAfter      bool

	rootCmd = &cobra.Command{
		Use:   "contractfuzz",
		Short: "contractfuzz - contract-aware API security fuzzer",
		Long: `contractfuzz drives an OpenAPI or Postman contract through a
semantic payload generator and a baseline-aware response validator,
surfacing injection, auth, and schema vulnerabilities under an explicit
request budget.`,
		RunE: runFuzz,
	}
)

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default .contractfuzz/config.yaml)")

	rootCmd.Flags().StringVarP(&contractFile, "contract", "c", "", "path to an OpenAPI or Postman contract file (required)")
	rootCmd.Flags().StringVarP(&baseURL, "base-url", "u", "", "base URL to prefix every endpoint path with")
	rootCmd.Flags().StringVar(&authRole, "auth-role", "", "auth role every endpoint without its own AuthRole should use")
	rootCmd.Flags().StringVar(&bearerToken, "bearer", "", "bearer token bound to --auth-role")
	rootCmd.Flags().StringVar(&format, "format", "text", "report output format: json|text")
	rootCmd.Flags().StringVar(&reportDir, "report-dir", "contractfuzz_reports", "directory JSON reports are written to")

	rootCmd.Flags().IntVar(&maxRequestsPerEndpoint, "max-requests-per-endpoint", 0, "override budget.max_requests_per_endpoint (0 keeps the config/default value)")
	rootCmd.Flags().IntVar(&maxTotalRequests, "max-total-requests", 0, "override budget.max_total_requests (0 keeps the config/default value)")
	rootCmd.Flags().IntVar(&maxDurationMs, "max-duration-ms", 0, "override budget.max_duration_ms (0 keeps the config/default value)")
	rootCmd.Flags().Float64Var(&backoffMultiplier, "backoff-multiplier", 0, "override budget.backoff_multiplier (0 keeps the config/default value)")
	rootCmd.Flags().BoolVar(&respectRetryAfter, "respect-retry-after", false, "honor a server Retry-After header over the computed backoff schedule")

	_ = rootCmd.MarkFlagRequired("contract")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".contractfuzz")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()
}

func runFuzz(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: failed to load .env file: %v\n", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil)).With("service", "contractfuzz")

	raw, err := os.ReadFile(contractFile)
	if err != nil {
		return fmt.Errorf("reading contract file: %w", err)
	}

	c, err := loadContract(raw)
	if err != nil {
		return fmt.Errorf("parsing contract file: %w", err)
	}
	if baseURL != "" {
		c = withBaseURL(c, baseURL)
	}

	cfg := session.LoadConfig(viper.GetViper())
	cfg.BaseURL = baseURL
	cfg.ContractFile = contractFile
	applyBudgetOverrides(cmd, &cfg)

	var resolver auth.Resolver
	if authRole != "" && bearerToken != "" {
		resolver = auth.NewStaticResolver(map[string]auth.Context{
			authRole: auth.BearerContext(bearerToken),
		})
		for i := range c.Endpoints {
			if c.Endpoints[i].AuthRole == "" {
				c.Endpoints[i].AuthRole = authRole
			}
		}
	}

	t := transport.NewFastHTTP(30 * time.Second)

	runner := session.NewRunner(c, cfg, t, resolver, logger)
	sess := runner.Run(cmd.Context())

	switch format {
	case "json":
		path, err := session.WriteJSONReport(reportDir, baseURL, sess)
		if err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		fmt.Printf("report written to %s\n", path)
	default:
		printTextSummary(sess)
	}

	return nil
}

// applyBudgetOverrides layers any --max-requests-per-endpoint,
// --max-total-requests, --max-duration-ms, --backoff-multiplier, and
// --respect-retry-after flags on top of the budget config LoadConfig
// already read from file/env, the same override-after-load pattern
// runFuzz uses for --base-url and --contract.
func applyBudgetOverrides(cmd *cobra.Command, cfg *session.Config) {
	if maxRequestsPerEndpoint > 0 {
		cfg.Budget.MaxRequestsPerEndpoint = maxRequestsPerEndpoint
	}
	if maxTotalRequests > 0 {
		cfg.Budget.MaxTotalRequests = maxTotalRequests
	}
	if maxDurationMs > 0 {
		cfg.Budget.MaxDurationMs = maxDurationMs
	}
	if backoffMultiplier > 0 {
		cfg.Budget.BackoffMultiplier = backoffMultiplier
	}
	if cmd.Flags().Changed("respect-retry-after") {
		cfg.Budget.RespectRetryAfter = respectRetryAfter
	}
}

func loadContract(raw []byte) (contract.Contract, error) {
	switch {
	case ingest.DetectOpenAPI(raw):
		return ingest.OpenAPI(raw)
	case ingest.DetectPostman(raw):
		return ingest.Postman(raw)
	default:
		return contract.Contract{}, ferrors.Wrap(ferrors.ErrConfigInvalid, "unrecognized contract format (expected OpenAPI or Postman)", nil)
	}
}

func withBaseURL(c contract.Contract, base string) contract.Contract {
	for i := range c.Endpoints {
		c.Endpoints[i].Path = base + c.Endpoints[i].Path
	}
	return c
}

func printTextSummary(sess orchestrator.Session) {
	fmt.Printf("contractfuzz session %s\n", sess.ID)
	fmt.Printf("  endpoints fuzzed: %d\n", len(sess.Results))
	fmt.Printf("  findings:         %d\n", len(sess.Findings))
	fmt.Printf("  avg fp rate:      %.2f\n", sess.AvgFPRate)
	for _, v := range sess.Findings {
		fmt.Printf("  [%s] %s %s param=%s confidence=%.2f reproducible=%v\n",
			v.Severity, v.Method, v.Endpoint, v.ParameterName, v.Confidence, v.Reproducible)
	}
}

func main() {
	ctx := context.Background()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
