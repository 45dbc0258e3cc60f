package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/oselabs/sleuth"
	"github.com/oselabs/sleuth/internal/adapters/diff"
	"github.com/oselabs/sleuth/internal/adapters/ingest"
	"github.com/oselabs/sleuth/internal/adapters/llm"
	"github.com/oselabs/sleuth/internal/adapters/metrics"
	"github.com/oselabs/sleuth/internal/adapters/research"
	"github.com/oselabs/sleuth/internal/xjson"
)

func newInvestigateCmd() *cobra.Command {
	var (
		payloadPath string
		prevPath    string
		currPath    string
		offline     bool
		format      string
	)

	cmd := &cobra.Command{
		Use:   "investigate",
		Short: "Run one investigation over a log payload",
		Long: `Reads a log payload (a subscription envelope or a bare event batch),
runs the analysis workflow and prints the diagnosis. With --offline no
backend is contacted and every task uses its deterministic fallback.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger()

			cfg, err := sleuth.LoadConfig(flagConfig)
			if err != nil {
				return err
			}

			raw, err := readPayload(payloadPath)
			if err != nil {
				return err
			}
			batch, err := ingest.Decode(raw)
			if err != nil {
				return err
			}

			deps := sleuth.Dependencies{
				Logger:  logger,
				Metrics: metrics.NewRecorder(prometheus.DefaultRegisterer),
			}

			if prevPath != "" && currPath != "" {
				deps.Diff = diff.NewFileSource(prevPath, currPath)
			}

			if !offline {
				if key := os.Getenv("GEMINI_API_KEY"); key != "" {
					completer, err := llm.NewGemini(cmd.Context(), key, cfg.LLM.Model, logger)
					if err != nil {
						return err
					}
					deps.Completer = completer
				} else {
					logger.Warn("GEMINI_API_KEY not set, text-generation tasks will degrade")
				}

				if key := os.Getenv("TAVILY_API_KEY"); key != "" {
					backend, err := research.NewClient(cfg.Research, key, logger)
					if err != nil {
						return err
					}
					deps.Research = backend
				} else {
					logger.Warn("TAVILY_API_KEY not set, log analysis will degrade")
				}
			}

			inv, err := sleuth.New(cfg, deps)
			if err != nil {
				return err
			}

			diagnosis, err := inv.Investigate(cmd.Context(), batch)
			if err != nil {
				return err
			}

			switch format {
			case "json":
				out, err := xjson.MarshalIndent(diagnosis, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
			case "text":
				fmt.Fprint(cmd.OutOrStdout(), renderText(diagnosis))
			default:
				return fmt.Errorf("unknown output format %q", format)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&payloadPath, "payload", "p", "-", "log payload file, or - for stdin")
	cmd.Flags().StringVar(&prevPath, "prev", "", "previous deployment snapshot file")
	cmd.Flags().StringVar(&currPath, "curr", "", "current deployment snapshot file")
	cmd.Flags().BoolVar(&offline, "offline", false, "skip all backends and use fallback analysis only")
	cmd.Flags().StringVarP(&format, "output", "o", "json", "output format: json or text")

	return cmd
}

func readPayload(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// renderText formats a diagnosis as a short human-readable report.
func renderText(d sleuth.Diagnosis) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Status:     %s\n", d.Status)
	fmt.Fprintf(&b, "Severity:   %s\n", d.Severity)
	fmt.Fprintf(&b, "Confidence: %s\n", d.ConfidenceLevel)
	fmt.Fprintf(&b, "Root cause: %s\n", d.RootCause)
	if d.Summary != "" {
		fmt.Fprintf(&b, "\n%s\n", d.Summary)
	}
	if d.Correlation != "" {
		fmt.Fprintf(&b, "\nCorrelation: %s\n", d.Correlation)
	}
	if len(d.AffectedComponents) > 0 {
		fmt.Fprintf(&b, "\nAffected components:\n")
		for _, c := range d.AffectedComponents {
			fmt.Fprintf(&b, "  - %s\n", c)
		}
	}
	if len(d.Recommendations) > 0 {
		fmt.Fprintf(&b, "\nRecommendations:\n")
		for _, r := range d.Recommendations {
			fmt.Fprintf(&b, "  [%s] %s\n", r.Priority, r.Action)
			if r.Rationale != "" {
				fmt.Fprintf(&b, "      %s\n", r.Rationale)
			}
		}
	}
	return b.String()
}
