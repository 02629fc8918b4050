package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/srediag/plugin-mq/cmd/util"
	"github.com/srediag/plugin-mq/pkg/mq"
	"github.com/srediag/plugin-mq/pkg/rendezvous"
)

// sendCmd is the sending side of an exchange. The root command starts it as a
// child process with the handle of the queue it just opened.
var sendCmd = &cobra.Command{
	Use:    "send",
	Short:  "Send one message on an open queue",
	Args:   cobra.NoArgs,
	Hidden: true,
	RunE:   runSend,
}

func init() {
	sendCmd.Flags().Int(util.KeyQueueID, 0, util.WrapString("Handle of the queue to send on"))
	_ = sendCmd.MarkFlagRequired(util.KeyQueueID)
}

func runSend(cmd *cobra.Command, _ []string) error {
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

	e := &rendezvous.Exchange{
		Backend: backend,
		Config:  cfg,
		Out:     cmd.OutOrStdout(),
		Logger:  log.Named("sender"),
	}
	return e.Send(cmd.Context(), mq.Handle(viper.GetInt(util.KeyQueueID)))
}
