package commands

import (
	"encoding/json"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/draftmate/draftmate/internal/logging"
	"github.com/draftmate/draftmate/internal/store"
	"github.com/draftmate/draftmate/internal/workflow"
)

var (
	draftUserID       string
	draftTone         string
	draftIntent       string
	draftRecipient    string
	draftRelationship string
	draftLength       string
	draftMustInclude  string
	draftMustAvoid    string
	draftJSONOutput   bool
)

var draftCmd = &cobra.Command{
	Use:   "draft [request text]",
	Short: "Run one drafting turn from the command line",
	Long: `Run a single drafting turn against the configured provider and
print the result. Without a db_path the turn runs on in-memory stores,
so continuity does not survive across invocations.`,
	Args: cobra.MinimumNArgs(1),
	Run:  runDraft,
}

func init() {
	draftCmd.Flags().StringVar(&draftUserID, "user", "default", "User ID the turn belongs to")
	draftCmd.Flags().StringVar(&draftTone, "tone", "", "Tone override (formal, friendly, assertive, apologetic, concise, neutral)")
	draftCmd.Flags().StringVar(&draftIntent, "intent", "", "Intent override (outreach, follow_up, apology, request, scheduling, info, other)")
	draftCmd.Flags().StringVar(&draftRecipient, "recipient", "", "Recipient name or address")
	draftCmd.Flags().StringVar(&draftRelationship, "relationship", "", "Relationship to the recipient (e.g. client, manager)")
	draftCmd.Flags().StringVar(&draftLength, "length", "", "Length constraint (short, medium, long)")
	draftCmd.Flags().StringVar(&draftMustInclude, "must-include", "", "Comma-separated phrases the draft must include")
	draftCmd.Flags().StringVar(&draftMustAvoid, "must-avoid", "", "Comma-separated phrases the draft must avoid")
	draftCmd.Flags().BoolVar(&draftJSONOutput, "json", false, "Print the full result as JSON")
}

func runDraft(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	logger := logging.GetLogger("draft")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b, err := openBackends(ctx, cfg)
	HandleError(err, "Store initialization error")
	defer func() {
		if err := b.Close(); err != nil {
			logger.Error("Failed to close stores: %v", err)
		}
	}()

	// Ephemeral stores start empty; give the template engine the built-in set.
	if cfg.DBPath == "" {
		_, err := store.SeedDefaults(ctx, b.Templates)
		HandleError(err, "Template seeding error")
	}

	p, err := buildProvider(ctx, cfg)
	HandleError(err, "Provider initialization error")

	engine, _, err := buildEngine(cfg, p, b)
	HandleError(err, "Engine initialization error")

	metadata := map[string]string{}
	setIfPresent(metadata, "recipient", draftRecipient)
	setIfPresent(metadata, "relationship", draftRelationship)
	setIfPresent(metadata, "length", draftLength)
	setIfPresent(metadata, "must_include", draftMustInclude)
	setIfPresent(metadata, "must_avoid", draftMustAvoid)

	result, err := engine.Run(ctx, workflow.Request{
		UserID:   draftUserID,
		Text:     strings.Join(args, " "),
		Tone:     draftTone,
		Intent:   draftIntent,
		Metadata: metadata,
	})
	HandleError(err, "Drafting turn failed")

	if draftJSONOutput {
		out, err := json.MarshalIndent(result, "", "  ")
		HandleError(err, "Failed to encode result")
		fmt.Println(string(out))
		return
	}

	printResult(result)
}

func setIfPresent(metadata map[string]string, key, value string) {
	if value != "" {
		metadata[key] = value
	}
}

func printResult(result *workflow.Result) {
	fmt.Printf("Outcome: %s (retries: %d)\n", result.Outcome, result.RetryCount)

	if result.RequiresClarification {
		fmt.Println("\nMore information is needed:")
		for _, q := range result.ClarificationQuestions {
			fmt.Printf("  - %s\n", q)
		}
		return
	}

	if result.Intent != nil {
		fmt.Printf("Intent: %s (%s)\n", result.Intent.Label, result.Intent.Source)
	}
	if result.Tone != nil {
		fmt.Printf("Tone: %s (%s)\n", result.Tone.Label, result.Tone.Source)
	}
	if result.Report != nil && result.Report.Summary != "" {
		fmt.Printf("Review: %s\n", result.Report.Summary)
	}
	if result.PersistenceFailed {
		fmt.Println("Warning: continuity memory could not be persisted")
	}

	if result.Draft != nil {
		fmt.Printf("\nSubject: %s\n\n%s\n", result.Draft.Subject, result.Draft.Body)
	}
}
