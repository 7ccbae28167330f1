package cli

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newModelsCmd(a *app) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the generative models available to the configured API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.LLM.APIKey == "" {
				return errors.New("llm api key not configured (set GEMINI_API_KEY or RESERVY_LLM_API_KEY)")
			}
			g, err := a.gemini(cmd.Context())
			if err != nil {
				return err
			}
			models, err := g.ListModels(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tDISPLAY NAME\tMETHODS")
			for _, m := range models {
				if !all && !slices.Contains(m.SupportedGenerationMethods, "generateContent") {
					continue
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", m.Name, m.DisplayName, strings.Join(m.SupportedGenerationMethods, ","))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "include models that cannot generate content")
	return cmd
}
