package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	scriptagent "github.com/panelnarrator/scriptagent-go"
	"github.com/panelnarrator/scriptagent-go/providers/anthropic"
	"github.com/panelnarrator/scriptagent-go/providers/scripted"
	"github.com/panelnarrator/scriptagent-go/search"
	"github.com/panelnarrator/scriptagent-go/search/serper"
	"github.com/panelnarrator/scriptagent-go/storage"
)

const defaultModel = "claude-sonnet-4-5"

func newRootCmd() *cobra.Command {
	var (
		model       string
		projectsDir string
		verbose     bool
	)

	cmd := &cobra.Command{
		Use:   "panelnarrator [comic event description]",
		Short: "Turn a comic event description into a narration script",
		Long: "panelnarrator runs an interactive three-phase conversation with an LLM:\n" +
			"analysis with mandatory fact verification, an outline you confirm or\n" +
			"adjust, then the full narration script with revision rounds.",
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loadEnv()

			if model == "" {
				model = os.Getenv("SCRIPTAGENT_MODEL")
			}
			if model == "" {
				model = defaultModel
			}
			if projectsDir == "" {
				projectsDir = os.Getenv("SCRIPTAGENT_PROJECTS_DIR")
			}
			if projectsDir == "" {
				projectsDir = "projects"
			}

			logger := zap.NewNop()
			if verbose {
				var err error
				logger, err = zap.NewDevelopment()
				if err != nil {
					return err
				}
			}
			defer logger.Sync()

			return run(cmd.Context(), runOptions{
				model:       model,
				projectsDir: projectsDir,
				prompt:      strings.TrimSpace(strings.Join(args, " ")),
				logger:      logger,
			})
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "model identifier (default from SCRIPTAGENT_MODEL)")
	cmd.Flags().StringVar(&projectsDir, "projects-dir", "", "directory for script projects (default \"projects\")")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	return cmd
}

type runOptions struct {
	model       string
	projectsDir string
	prompt      string
	logger      *zap.Logger
}

func run(ctx context.Context, opts runOptions) error {
	provider, err := buildProvider(opts.model)
	if err != nil {
		return err
	}

	searchClient := buildSearch(opts.logger)
	if searchClient == nil {
		fmt.Println("Note: SERPER_API_KEY is not set; web search is disabled.")
	}

	orch, err := scriptagent.NewOrchestrator(scriptagent.OrchestratorConfig{
		Provider: provider,
		Model:    opts.model,
		Search:   searchClient,
		Logger:   opts.logger,
	})
	if err != nil {
		return err
	}

	in := bufio.NewScanner(os.Stdin)
	in.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	prompt := opts.prompt
	if prompt == "" {
		prompt = readLine(in, "Describe the comic event or story to narrate:\n> ")
		if prompt == "" {
			return fmt.Errorf("no event description given")
		}
	}

	fmt.Println("\nAnalyzing and verifying sources, this can take a minute...")
	outcome, err := orch.Start(ctx, prompt)

	for {
		if err != nil {
			var malformed *scriptagent.MalformedResponseError
			if errors.As(err, &malformed) {
				fmt.Println("\nThe model's reply could not be parsed. Raw reply:")
				fmt.Println(strings.TrimSpace(malformed.Raw))
				err = nil
				if orch.Phase() == scriptagent.PhaseAnalysis {
					fmt.Println("\nRetrying the analysis...")
					outcome, err = orch.Start(ctx, prompt)
					continue
				}
			} else {
				return err
			}
		}

		switch orch.Phase() {
		case scriptagent.PhaseClarification:
			outcome, err = stepClarification(ctx, orch, in, outcome)

		case scriptagent.PhaseConfirmation:
			outcome, err = stepConfirmation(ctx, orch, in, outcome)

		case scriptagent.PhaseRevision:
			outcome, err = stepRevision(ctx, orch, in, outcome)

		case scriptagent.PhaseDone:
			return persist(orch, outcome, opts)

		default:
			return fmt.Errorf("conversation stalled in phase %s", orch.Phase())
		}
	}
}

func stepClarification(ctx context.Context, orch *scriptagent.Orchestrator, in *bufio.Scanner, outcome *scriptagent.Outcome) (*scriptagent.Outcome, error) {
	if outcome != nil && len(outcome.Questions) > 0 {
		fmt.Println("\nI need a few details:")
		for i, q := range outcome.Questions {
			fmt.Printf("  %d. %s\n", i+1, q)
		}
	}
	answer := readLine(in, "\nYour answer (or \"skip\" to let me decide):\n> ")
	return orch.AnswerClarification(ctx, answer)
}

func stepConfirmation(ctx context.Context, orch *scriptagent.Orchestrator, in *bufio.Scanner, outcome *scriptagent.Outcome) (*scriptagent.Outcome, error) {
	if outcome != nil && outcome.Outline != nil {
		printOutline(outcome)
	}
	for {
		choice := readLine(in, "\n[a]ccept the outline, [c]hange it, or [r]estart?\n> ")
		switch strings.ToLower(choice) {
		case "a", "accept", "y", "yes":
			fmt.Println("\nWriting the full script...")
			return orch.DecideConfirmation(ctx, scriptagent.AcceptOutline())
		case "c", "change", "adjust":
			feedback := readLine(in, "What should change?\n> ")
			return orch.DecideConfirmation(ctx, scriptagent.AdjustOutline(feedback))
		case "r", "restart":
			fresh := readLine(in, "New description (empty keeps the original):\n> ")
			fmt.Println("\nStarting over...")
			return orch.DecideConfirmation(ctx, scriptagent.RestartConversation(fresh))
		default:
			fmt.Println("Please answer a, c, or r.")
		}
	}
}

func stepRevision(ctx context.Context, orch *scriptagent.Orchestrator, in *bufio.Scanner, outcome *scriptagent.Outcome) (*scriptagent.Outcome, error) {
	if outcome != nil && outcome.Script != nil {
		printScript(outcome.Script)
	}
	for {
		choice := readLine(in, "\n[a]ccept the script or [r]evise it?\n> ")
		switch strings.ToLower(choice) {
		case "a", "accept", "y", "yes":
			return orch.DecideScript(ctx, scriptagent.AcceptScript())
		case "r", "revise":
			feedback := readLine(in, "What should change?\n> ")
			fmt.Println("\nRevising...")
			return orch.DecideScript(ctx, scriptagent.ReviseScript(feedback))
		default:
			fmt.Println("Please answer a or r.")
		}
	}
}

func persist(orch *scriptagent.Orchestrator, outcome *scriptagent.Outcome, opts runOptions) error {
	store, err := storage.NewStore(opts.projectsDir, opts.logger)
	if err != nil {
		return err
	}
	project, err := store.CreateProject(outcome.Script.Title)
	if err != nil {
		return err
	}
	if err := store.SaveScript(project, outcome.ScriptPayload); err != nil {
		return err
	}
	if err := store.SaveConversationLog(project, transcript(orch.History())); err != nil {
		return err
	}

	fmt.Printf("\nScript saved to %s\n", project.ScriptPath)
	return nil
}

// transcript flattens the conversation history into loggable text entries.
func transcript(history scriptagent.History) []storage.ConversationEntry {
	var entries []storage.ConversationEntry
	for _, msg := range history.Messages() {
		for _, block := range msg.Blocks {
			if block.IsTextBlock() {
				entries = append(entries, storage.ConversationEntry{
					Role: msg.Role,
					Text: block.Text(),
				})
			}
		}
	}
	return entries
}

func printOutline(outcome *scriptagent.Outcome) {
	outline := outcome.Outline
	fmt.Printf("\nProposed outline (%d scenes, ~%.0fs", len(outline.SceneOutline), outline.EstimatedDurationSeconds)
	if outline.Tone != "" {
		fmt.Printf(", tone: %s", outline.Tone)
	}
	fmt.Println("):")
	for _, beat := range outline.SceneOutline {
		fmt.Printf("  %2d. %s (~%.0fs)\n", beat.SceneID, beat.Beat, beat.EstimatedSeconds)
	}
	if outline.MessageToUser != "" {
		fmt.Println("\n" + outline.MessageToUser)
	}
	if outcome.OutlineSizeWarning {
		fmt.Printf("\nWarning: the outline has %d scenes; 8-14 is the expected range.\n", len(outline.SceneOutline))
	}
}

func printScript(script *scriptagent.Script) {
	fmt.Printf("\n=== %s ===\n", script.Title)
	src := script.ComicSource
	fmt.Printf("Source: %s, %s %s (%v) by %s / %s\n",
		src.Publisher, src.Series, src.Issues, src.Year, src.Writer, src.Artist)
	if src.CatalogueURL != "" {
		fmt.Printf("Catalogue: %s\n", src.CatalogueURL)
	}
	for _, scene := range script.Scenes {
		fmt.Printf("\nScene %d [%s p.%v] (%s)\n", scene.SceneID, scene.SourceIssue, scene.SourcePage, scene.Mood)
		fmt.Println(scene.Narration)
	}
	fmt.Printf("\nTotal estimated duration: %.0fs across %d scenes\n",
		script.TotalEstimatedDurationSeconds, len(script.Scenes))
}

func buildProvider(model string) (scriptagent.Provider, error) {
	if strings.HasPrefix(model, "scripted-") {
		return scripted.NewProvider(), nil
	}
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is required")
	}
	return anthropic.NewProvider(apiKey)
}

func buildSearch(logger *zap.Logger) search.Client {
	apiKey := os.Getenv("SERPER_API_KEY")
	if apiKey == "" {
		return nil
	}
	client, err := serper.NewClient(apiKey)
	if err != nil {
		logger.Warn("serper client init failed", zap.Error(err))
		return nil
	}
	return client
}

func readLine(in *bufio.Scanner, prompt string) string {
	fmt.Print(prompt)
	if !in.Scan() {
		return ""
	}
	return strings.TrimSpace(in.Text())
}

// loadEnv walks up from the working directory looking for a .env file, so the
// CLI picks up keys whether run from the repo root or a subdirectory.
func loadEnv() {
	dir, err := os.Getwd()
	if err != nil {
		return
	}
	for {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}
