package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pawdentify/internal/analytics"
	"pawdentify/internal/domain/profile"
	"pawdentify/internal/export"
	"pawdentify/internal/orchestrator"
)

var (
	exportUser   string
	exportOut    string
	exportPeriod string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Genera un libro XLSX con el historial y la analítica de un usuario",
	RunE: func(cmd *cobra.Command, args []string) error {
		period, err := analytics.ParsePeriod(exportPeriod)
		if err != nil {
			return err
		}
		st, err := buildStack(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		s, err := orchestrator.NewManager(st.gateway, log).Open(profile.Identity{UserID: exportUser})
		if err != nil {
			return err
		}
		if _, err := s.SignIn(cmd.Context()); err != nil {
			return err
		}
		v := s.View()
		if err := export.SaveAs(exportOut, v.History, st.gateway.Engine(), period); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d escaneos (%s)\n", exportOut, len(v.History), v.State)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportUser, "user", "u", "", "id de usuario (Clerk)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "pawdentify.xlsx", "archivo de salida")
	exportCmd.Flags().StringVar(&exportPeriod, "period", "weekly", "daily, weekly o monthly")
	_ = exportCmd.MarkFlagRequired("user")
}
