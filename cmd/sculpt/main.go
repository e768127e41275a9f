// Command sculpt turns GPS routes into printable terrain sculptures: it
// builds elevation grids, validates scenes for printing, exports STL files
// and serves the same operations over HTTP.
package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/banshee-data/route-sculpture/internal/config"
	"github.com/banshee-data/route-sculpture/internal/elevation"
	"github.com/banshee-data/route-sculpture/internal/httputil"
	"github.com/banshee-data/route-sculpture/internal/sculpture"
)

func main() {
	log.SetFlags(log.Flags() | log.Lshortfile)

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath  string
	servicePath string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:           "sculpt",
		Short:         "Turn GPS routes into printable terrain sculptures",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "sculpture config file (.json, .yaml or .yml)")
	root.PersistentFlags().StringVar(&opts.servicePath, "service-config", "", "service config file (.json), e.g. "+config.DefaultConfigPath)

	root.AddCommand(
		newGridCmd(opts),
		newValidateCmd(opts),
		newExportCmd(opts),
		newStatusCmd(opts),
		newServeCmd(opts),
		newVersionCmd(),
	)
	return root
}

func (o *globalOptions) sculptureConfig() (sculpture.Config, error) {
	if o.configPath == "" {
		return sculpture.DefaultConfig(), nil
	}
	return sculpture.LoadConfig(o.configPath)
}

func (o *globalOptions) serviceConfig() (*config.ServiceConfig, error) {
	if o.servicePath == "" {
		return &config.ServiceConfig{}, nil
	}
	return config.LoadServiceConfig(o.servicePath)
}

func tileSource(svc *config.ServiceConfig) *elevation.TileSource {
	client := httputil.NewStandardClient(&http.Client{Timeout: svc.GetTileTimeout()})
	return elevation.NewTileSource(svc.GetTileURL(), client, svc.GetTileRateLimit())
}
