package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/procura/smartfill/internal/model"
)

func defaultsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "defaults",
		Short: "Show the merged smart defaults for form fields",
		Long: `Show what the engine would currently propose for each field, with the
source and confidence behind every proposal. Useful for checking what a new
request would look like before starting a conversation.`,
		RunE: runDefaults,
	}

	cmd.Flags().StringArrayP("field", "f", nil, "limit to specific fields (repeatable; default: all)")
	cmd.Flags().String("user", "", "user id whose patterns to consult (default: current OS user)")
	cmd.Flags().String("org", "", "organization id")

	return cmd
}

func runDefaults(cmd *cobra.Command, _ []string) error {
	fields, err := resolveFields(mustStringArray(cmd, "field"))
	if err != nil {
		return err
	}

	engine, err := buildEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer engine.Close()

	year, quarter, daysToEnd, endOfYear := model.FiscalCalendar(time.Now())
	sdc := model.SmartDefaultContext{
		UserID:              resolveUserID(mustString(cmd, "user")),
		OrgID:               firstNonEmpty(mustString(cmd, "org"), viper.GetString("org.id")),
		FiscalYear:          year,
		FiscalQuarter:       quarter,
		DaysToFiscalYearEnd: daysToEnd,
		EndOfFiscalYear:     endOfYear,
	}

	defaults := engine.aggregator.GetDefaults(cmd.Context(), fields, sdc)
	if len(defaults) == 0 {
		fmt.Println("No defaults available for the requested fields.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "FIELD\tVALUE\tSOURCE\tCONFIDENCE")
	_, _ = fmt.Fprintln(w, "─────\t─────\t──────\t──────────")

	for _, field := range fields {
		def, ok := defaults[field]
		if !ok {
			continue
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%.0f%%\n",
			field,
			truncateString(def.Value.String(), 40),
			def.Source,
			def.Confidence*100)
	}

	return w.Flush()
}

func resolveFields(names []string) ([]model.RequirementField, error) {
	if len(names) == 0 {
		return model.AllFields(), nil
	}

	fields := make([]model.RequirementField, 0, len(names))
	for _, name := range names {
		field := model.RequirementField(name)
		if !model.ValidField(field) {
			return nil, fmt.Errorf("unknown field: %s", name)
		}
		fields = append(fields, field)
	}
	return fields, nil
}
