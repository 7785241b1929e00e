package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/placeresolve/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "placeresolve",
	Short: "Resolve coordinates for Google Maps saved-places exports",
	Long: "Reads saved-places exports (CSV, GeoJSON, or point shapefiles), looks up missing\n" +
		"coordinates by driving a pool of WebDriver browser sessions against the map\n" +
		"service, and writes a unified GeoJSON feature collection.\n\n" +
		"Run one WebDriver server per session first, e.g. geckodriver on ports 4444+.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		zap.ReplaceGlobals(zap.L().With(zap.String("run_id", uuid.NewString())))

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
