package serve

import (
	"context"
	"fmt"
	cmdUtil "github.com/ValentinKolb/rKV/cmd/util"
	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/server"
	"github.com/ValentinKolb/rKV/rpc/transport/tcp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"os"
	"os/signal"
	"syscall"
)

var (
	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start the rKV server",
		Long:    `Start the rKV server with the specified configuration. The configuration can be set via command line flags or environment variables. The format of the environment variables is RKV_<flag> (e.g. RKV_MAX_EVENTS=1024)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// add flags
	key := "port"
	ServeCmd.PersistentFlags().Int(key, 6969, cmdUtil.WrapString("The TCP port to listen on (0 picks a free port)"))

	key = "bind"
	ServeCmd.PersistentFlags().String(key, "0.0.0.0", cmdUtil.WrapString("The IPv4 address to bind to"))

	key = "handler"
	ServeCmd.PersistentFlags().String(key, string(common.HandlerKV), cmdUtil.WrapString("The request handler to serve (kv answers PING, SET, GET, DEL, HAS and KEYS requests, echo answers every request with its own body)"))

	key = "backlog"
	ServeCmd.PersistentFlags().Int(key, 512, cmdUtil.WrapString("The listen backlog of the server socket"))

	key = "max-events"
	ServeCmd.PersistentFlags().Int(key, 512, cmdUtil.WrapString("The maximum number of readiness events handled per reactor iteration"))

	key = "max-write-backlog"
	ServeCmd.PersistentFlags().Int(key, 64*1024, cmdUtil.WrapString("The maximum number of unsent response bytes per connection. Connections exceeding it are closed (must hold at least one full frame of 4100 bytes)"))

	key = "metrics-endpoint"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("The address on which Prometheus metrics are served under /metrics (e.g. localhost:9090, empty disables the endpoint)"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	serveCmdConfig.Port = viper.GetInt("port")
	serveCmdConfig.BindAddress = viper.GetString("bind")
	serveCmdConfig.Handler = common.HandlerType(viper.GetString("handler"))
	serveCmdConfig.Backlog = viper.GetInt("backlog")
	serveCmdConfig.MaxEvents = viper.GetInt("max-events")
	serveCmdConfig.MaxWriteBacklog = viper.GetInt("max-write-backlog")
	serveCmdConfig.MetricsEndpoint = viper.GetString("metrics-endpoint")
	serveCmdConfig.LogLevel = viper.GetString("log-level")

	if err := serveCmdConfig.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// run starts the rKV server and stops it on SIGINT or SIGTERM
func run(_ *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serv := server.NewRPCServer(
		*serveCmdConfig,
		tcp.NewTCPServerTransport(),
	)

	return serv.Serve(ctx)
}
