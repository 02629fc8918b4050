package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/srediag/plugin-mq/cmd/util"
	"github.com/srediag/plugin-mq/internal/admin"
	"github.com/srediag/plugin-mq/pkg/mq"
	"github.com/srediag/plugin-mq/pkg/rendezvous"
)

const (
	Version = "0.3.0"

	modeProcess = "process"
	modeInproc  = "inproc"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "mqipc",
		Short: "single message exchange over a System V message queue",
		Long: fmt.Sprintf(`mqipc (v%s)

Creates a message queue keyed by a token path and a seed byte, starts a
sender that enqueues one message, receives and prints it, then removes
the queue.`, Version),
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: bindFlags,
		RunE:              runExchange,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of mqipc",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "mqipc v%s\n", Version)
		},
	}
)

func init() {
	cobra.OnInitialize(util.InitConfig)

	RootCmd.AddCommand(sendCmd)
	RootCmd.AddCommand(inspectCmd)
	RootCmd.AddCommand(removeCmd)
	RootCmd.AddCommand(versionCmd)

	util.SetupExchangeFlags(RootCmd)

	RootCmd.Flags().String(util.KeyMode, modeProcess, util.WrapString("Where the sender runs (process, inproc)"))
	RootCmd.Flags().String(util.KeyAdminAddr, "", util.WrapString("Serve /metrics, /live and /ready on this address while the exchange runs"))
}

func bindFlags(cmd *cobra.Command, _ []string) error {
	return util.BindCommandFlags(cmd)
}

func runExchange(cmd *cobra.Command, _ []string) error {
	log, err := util.GetLogger()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	cfg, err := util.GetExchangeConfig()
	if err != nil {
		return err
	}
	backend, err := util.GetBackend()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	e := &rendezvous.Exchange{
		Backend:        backend,
		Config:         cfg,
		Out:            cmd.OutOrStdout(),
		Logger:         log,
		ChannelOptions: []mq.Option{mq.WithMetrics(mq.NewMetrics(reg))},
	}

	if addr := viper.GetString(util.KeyAdminAddr); addr != "" {
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		srv := admin.New(addr, reg, log.Named("admin"))
		if err := srv.Start(); err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
		log.Infof("admin listening on %s", srv.Addr())
		e.OnOpen = func(ch *mq.Channel) { srv.AddReadiness("queue", ch) }
	}

	switch mode := viper.GetString(util.KeyMode); mode {
	case modeProcess:
		if backend.Name() != "sysv" {
			return fmt.Errorf("backend %s cannot be shared with a child process, use --%s=%s", backend.Name(), util.KeyMode, modeInproc)
		}
		self, err := os.Executable()
		if err != nil {
			return fmt.Errorf("locate executable: %w", err)
		}
		e.Spawner = &rendezvous.ProcessSpawner{
			Path: self,
			Args: func(h mq.Handle) []string {
				args := []string{sendCmd.Name(), "--" + util.KeyQueueID, strconv.Itoa(int(h))}
				return append(args, util.ExchangeArgs(cfg)...)
			},
			Env:    os.Environ(),
			Stdout: cmd.OutOrStdout(),
			Stderr: cmd.ErrOrStderr(),
		}
	case modeInproc:
		pool, err := ants.NewPool(1)
		if err != nil {
			return fmt.Errorf("create sender pool: %w", err)
		}
		defer pool.Release()
		e.Spawner = &rendezvous.PoolSpawner{Pool: pool, Send: e.Send}
	default:
		return fmt.Errorf("invalid mode %s", mode)
	}

	return e.Receive(cmd.Context())
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		var exitErr interface{ ExitCode() int }
		if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
			os.Exit(exitErr.ExitCode())
		}
		os.Exit(1)
	}
}
