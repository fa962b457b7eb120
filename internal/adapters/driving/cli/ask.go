package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/policybot-io/policybot/internal/core/domain"
)

var (
	askK         int
	askBudget    int
	askDiversify bool
	askJSON      bool
	askAnswer    bool
	askModel     string
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Retrieve policy passages relevant to a question",
	Long: `Embeds the question, searches the index and prints the most
relevant policy passages. With --answer, a local model composes a
grounded answer from the retrieved passages.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askK, "limit", "n", 0, "maximum number of passages (default from config)")
	askCmd.Flags().IntVar(&askBudget, "budget", 0, "context budget in characters (default from config)")
	askCmd.Flags().BoolVar(&askDiversify, "diversify", false, "at most one passage per source document")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output passages as JSON")
	askCmd.Flags().BoolVar(&askAnswer, "answer", false, "generate an answer from the passages")
	askCmd.Flags().StringVar(&askModel, "model", "", "completion model for --answer")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := args[0]

	if retrievalService == nil || ingestOrchestrator == nil {
		return errors.New("retrieval service not configured")
	}

	ctx := context.Background()
	if err := ingestOrchestrator.Start(ctx); err != nil {
		return fmt.Errorf("load index: %w", err)
	}

	opts := domain.RetrieveOptions{
		K:             askK,
		ContextBudget: askBudget,
		Diversify:     askDiversify || cfg.Retrieval.Diversify,
	}
	chunks, err := retrievalService.Retrieve(ctx, question, opts)
	if err != nil {
		return fmt.Errorf("retrieve failed: %w", err)
	}

	if askJSON {
		return outputChunksJSON(cmd, chunks)
	}
	if askAnswer {
		return outputAnswer(ctx, cmd, question, chunks)
	}
	return outputChunksText(cmd, chunks)
}

func outputChunksJSON(cmd *cobra.Command, chunks []domain.RetrievedChunk) error {
	data, err := json.MarshalIndent(chunks, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputChunksText(cmd *cobra.Command, chunks []domain.RetrievedChunk) error {
	if len(chunks) == 0 {
		cmd.Println("No relevant passages found.")
		return nil
	}

	for i, chunk := range chunks {
		cmd.Printf("[%d] %s (%s, %.3f)\n", i+1, chunk.SourceID, chunk.Category, chunk.Score)
		cmd.Println(indent(chunk.Text, "    "))
		cmd.Println()
	}
	return nil
}

// answerPrompt instructs the model to answer strictly from the
// supplied passages.
const answerPrompt = `You are an HR policy assistant. Answer the question using ONLY the
policy passages below. If the passages do not contain the answer, say
you could not find it in the available policies. Cite the source of
each fact you use.

Passages:
%s

Question: %s

Answer:`

func outputAnswer(ctx context.Context, cmd *cobra.Command, question string, chunks []domain.RetrievedChunk) error {
	if len(chunks) == 0 {
		cmd.Println("I could not find anything relevant in the available policies.")
		return nil
	}

	var sb strings.Builder
	for _, chunk := range chunks {
		fmt.Fprintf(&sb, "[%s]\n%s\n\n", chunk.SourceID, chunk.Text)
	}

	completion := newCompletionService(askModel)
	defer completion.Close()

	answer, err := completion.Complete(ctx, fmt.Sprintf(answerPrompt, sb.String(), question))
	if err != nil {
		return fmt.Errorf("generate answer: %w", err)
	}

	cmd.Println(answer)
	return nil
}

// indent prefixes every line of s.
func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = prefix + lines[i]
	}
	return strings.Join(lines, "\n")
}
