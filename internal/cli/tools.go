package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newToolsCmd(a *app) *cobra.Command {
	var local bool

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Inspect and call the restaurant tools",
	}
	cmd.PersistentFlags().BoolVar(&local, "local", false, "run the tools in-process instead of calling client.server_url")

	list := &cobra.Command{
		Use:   "list",
		Short: "List the published tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, cleanup, err := a.connect(cmd.Context(), local)
			if err != nil {
				return err
			}
			defer cleanup()

			infos, err := client.ListTools(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tREAD-ONLY\tTAGS\tDESCRIPTION")
			for _, info := range infos {
				readOnly := info.Annotations != nil && info.Annotations.ReadOnlyHint
				fmt.Fprintf(tw, "%s\t%t\t%s\t%s\n", info.Name, readOnly, strings.Join(info.Tags, ","), info.Description)
			}
			return tw.Flush()
		},
	}

	call := &cobra.Command{
		Use:   "call NAME [JSON_ARGS|-]",
		Short: "Call a tool and print its JSON result",
		Long:  "Call a tool with a JSON object of arguments. Pass - to read the arguments from stdin.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rawArgs := json.RawMessage(`{}`)
			if len(args) == 2 {
				in := []byte(args[1])
				if args[1] == "-" {
					b, err := io.ReadAll(cmd.InOrStdin())
					if err != nil {
						return err
					}
					in = b
				}
				if !json.Valid(in) {
					return errors.New("arguments must be a JSON object")
				}
				rawArgs = in
			}

			client, cleanup, err := a.connect(cmd.Context(), local)
			if err != nil {
				return err
			}
			defer cleanup()

			out, err := client.CallTool(cmd.Context(), args[0], rawArgs)
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := json.Indent(&buf, out, "", "  "); err != nil {
				buf.Reset()
				buf.Write(out)
			}
			buf.WriteByte('\n')
			_, err = cmd.OutOrStdout().Write(buf.Bytes())
			return err
		},
	}

	cmd.AddCommand(list, call)
	return cmd
}
