package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"pawdentify/internal/domain/profile"
	"pawdentify/internal/orchestrator"
)

var statsUser string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Muestra el resumen de analítica de un usuario",
	Long: `Sincroniza la sesión del usuario (o usa los datos locales si el backend
no responde) y muestra el mismo resumen que ve el dashboard.`,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().StringVarP(&statsUser, "user", "u", "", "id de usuario (Clerk)")
	_ = statsCmd.MarkFlagRequired("user")
}

func runStats(cmd *cobra.Command, args []string) error {
	st, err := buildStack(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	s, err := orchestrator.NewManager(st.gateway, log).Open(profile.Identity{UserID: statsUser})
	if err != nil {
		return err
	}
	if _, err := s.SignIn(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderView(s.View()))
	return nil
}

func renderView(v orchestrator.View) string {
	snap := v.Snapshot
	ov := snap.Dashboard.Overview

	lines := []string{
		titleStyle.Render("Pawdentify · " + v.UserID),
		row("Estado", string(v.State)),
		row("Escaneos", fmt.Sprintf("%d", snap.Stats.TotalScans)),
		row("Este mes", fmt.Sprintf("%d", snap.Stats.ThisMonth)),
		row("Razas distintas", fmt.Sprintf("%d", snap.Stats.UniqueBreeds)),
		row("Precisión media", fmt.Sprintf("%.1f%%", snap.Stats.AccuracyRate*100)),
		row("Racha (días)", fmt.Sprintf("%d", ov.StreakDays)),
		row("Crecimiento", fmt.Sprintf("%+.1f%%", ov.GrowthRate)),
		row("Raza favorita", snap.Dashboard.Insights.FavoriteBreed),
	}
	if len(snap.Stats.FavoriteBreeds) > 0 {
		lines = append(lines, row("Guardadas", strings.Join(snap.Stats.FavoriteBreeds, ", ")))
	}
	if v.State == orchestrator.StateDegraded {
		lines = append(lines, warnStyle.Render("sin conexión: datos locales"))
	}
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
