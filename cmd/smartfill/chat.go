package main

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/procura/smartfill/internal/cli"
	"github.com/procura/smartfill/internal/conversation"
	"github.com/procura/smartfill/internal/model"
)

func chatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an adaptive conversation for a new acquisition request",
		Long: `Start an interactive conversation that fills in an acquisition request.

Fields the engine is confident about are filled in automatically, suggested
answers can be accepted by pressing Enter, and only genuinely unknown fields
need typing. Attach quotes or invoices with --doc to pre-fill from their
contents.`,
		RunE: runChat,
	}

	cmd.Flags().StringP("type", "t", "purchase", "acquisition type (purchase, service, subscription, equipment)")
	cmd.Flags().StringArrayP("doc", "d", nil, "document file to extract context from (repeatable)")
	cmd.Flags().String("user", "", "user id for pattern learning (default: current OS user)")
	cmd.Flags().String("org", "", "organization id")

	return cmd
}

func runChat(cmd *cobra.Command, _ []string) error {
	acquisitionType, err := parseAcquisitionType(mustString(cmd, "type"))
	if err != nil {
		return err
	}

	docs, err := loadDocuments(mustStringArray(cmd, "doc"))
	if err != nil {
		return err
	}

	engine, err := buildEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer engine.Close()

	handler := cli.NewInterruptHandler(os.Stdout)
	ctx := handler.HandleInterrupts(cmd.Context())

	prompter := cli.NewPrompter(engine.orchestrator, os.Stdin, os.Stdout)
	session, err := prompter.RunConversation(ctx, conversation.StartRequest{
		AcquisitionType: acquisitionType,
		UserID:          resolveUserID(mustString(cmd, "user")),
		OrgID:           firstNonEmpty(mustString(cmd, "org"), viper.GetString("org.id")),
		Documents:       docs,
	})
	if err != nil {
		if handler.WasInterrupted() {
			return nil
		}
		return err
	}

	return printCollectedData(session)
}

// printCollectedData renders the final field/value table for the request.
func printCollectedData(session *model.ConversationSession) error {
	if len(session.CollectedData) == 0 {
		fmt.Println(cli.FormatWarning("No fields were collected."))
		return nil
	}

	fmt.Println(cli.FormatTitle("Collected Request"))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "FIELD\tVALUE")
	_, _ = fmt.Fprintln(w, "─────\t─────")
	for _, field := range session.AnsweredFields() {
		value := session.CollectedData[field]
		_, _ = fmt.Fprintf(w, "%s\t%s\n", field.DisplayName(), truncateString(value.String(), 60))
	}
	return w.Flush()
}

func loadDocuments(paths []string) ([]model.Document, error) {
	docs := make([]model.Document, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path) // #nosec G304 -- user-supplied document path
		if err != nil {
			return nil, fmt.Errorf("failed to read document %s: %w", path, err)
		}
		docs = append(docs, model.Document{
			ID:   filepath.Base(path),
			Name: filepath.Base(path),
			Text: string(data),
		})
	}
	return docs, nil
}

func parseAcquisitionType(s string) (model.AcquisitionType, error) {
	switch model.AcquisitionType(s) {
	case model.AcquisitionPurchase, model.AcquisitionService,
		model.AcquisitionSubscription, model.AcquisitionEquipment:
		return model.AcquisitionType(s), nil
	}
	return "", fmt.Errorf("invalid acquisition type: %s (valid: purchase, service, subscription, equipment)", s)
}

// resolveUserID picks the learning key: flag, config, then OS username.
func resolveUserID(flag string) string {
	if flag != "" {
		return flag
	}
	if id := viper.GetString("user.id"); id != "" {
		return id
	}
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func mustString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}

func mustStringArray(cmd *cobra.Command, name string) []string {
	v, _ := cmd.Flags().GetStringArray(name)
	return v
}
