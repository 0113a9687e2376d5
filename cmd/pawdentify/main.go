package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pawdentify/internal/platform/config"
	"pawdentify/internal/platform/logger"
)

var (
	// flags globales
	configPath string
	verbose    bool

	cfg config.Config
	log logger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "pawdentify",
	Short: "Capa de datos local de Pawdentify",
	Long: `pawdentify mantiene el historial de escaneos, razas guardadas y preferencias
de cada usuario en el dispositivo y los sincroniza con el backend cuando está disponible.

Sin conexión todo sigue funcionando con los datos locales.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		level := logger.ParseLevel(cfg.Log.Level)
		if verbose {
			level = logger.Debug
		}
		log = logger.New(logger.Options{
			Level:  level,
			Format: logger.ParseFormat(cfg.Log.Format),
			App:    cfg.App,
		})
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if s, ok := log.(interface{ Sync() error }); ok {
			_ = s.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "pawdentify.yaml", "archivo de configuración YAML (opcional)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log en nivel debug")

	rootCmd.AddCommand(serveCmd, probeCmd, statsCmd, exportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
