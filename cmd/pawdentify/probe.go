package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Consulta si el backend remoto responde",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := buildStack(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		st.probe.Check(cmd.Context())
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", cfg.Remote.BaseURL, st.probe.Flag().State())
		return nil
	},
}
