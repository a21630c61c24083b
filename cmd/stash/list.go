package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

func newListCmd(a *app) *cobra.Command {
	var long bool
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored entries, oldest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := a.store.List()
			if err != nil {
				return err
			}
			// The store hands back newest first; print oldest first so the
			// next pop candidate ends up at the bottom of the output.
			for i := len(entries) - 1; i >= 0; i-- {
				ent := entries[i]
				ts := formatTime(ent.CreatedAt, a.cfg.List.TimeFormat)
				if long {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\t%s\n", ent.ID(), ent.Size, ts)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", ent.ID(), ts)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&long, "long", "l", false, "include entry sizes")
	return cmd
}

// formatTime renders a timestamp per the list.time_format config key:
// "rfc3339" (the default), "unix", or a Go reference layout.
func formatTime(t time.Time, format string) string {
	switch format {
	case "", "rfc3339":
		return t.Format(time.RFC3339)
	case "unix":
		return strconv.FormatInt(t.Unix(), 10)
	default:
		return t.Format(format)
	}
}
