package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/tracking/internal/errors"
)

func explainCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "explain [CODE]",
		Short: "Describe an engine error code",
		Long: `Print the message, detail and suggestion registered for an error code.

Examples:
  trackbench explain T002
  trackbench explain --all`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if all || len(args) == 0 {
				for _, code := range errors.GetAllCodes() {
					t, _ := errors.GetTemplate(code)
					fmt.Fprintf(w, "%s  %-12s %s\n", code, t.Category, t.Message)
				}
				return nil
			}

			code := strings.ToUpper(args[0])
			if _, ok := errors.GetTemplate(code); !ok {
				return errors.Newf(errors.CategoryConfig, "unknown error code %q", args[0]).
					WithSuggestion("Run 'trackbench explain --all' to list the known codes")
			}
			fmt.Fprintln(w, errors.New(code).Format())
			return nil
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "List every registered code")

	return cmd
}
