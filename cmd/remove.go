package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/srediag/plugin-mq/cmd/util"
	"github.com/srediag/plugin-mq/internal/sysv"
	"github.com/srediag/plugin-mq/pkg/mq"
)

// removeCmd removes a queue a failed exchange left behind
var removeCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove a System V message queue",
	Long: util.WrapString(`Remove a queue by id, or the queue derived from --token and --seed
when no id is given. The queue is looked up, never created.`),
	Args: cobra.NoArgs,
	RunE: runRemove,
}

func init() {
	removeCmd.Flags().Int(util.KeyQueueID, -1, util.WrapString("Id of the queue to remove (see inspect)"))
}

func runRemove(cmd *cobra.Command, _ []string) error {
	id := viper.GetInt(util.KeyQueueID)
	if id < 0 {
		cfg, err := util.GetExchangeConfig()
		if err != nil {
			return err
		}
		key, err := mq.DeriveKey(mq.SysV(), cfg.Token, cfg.Seed)
		if err != nil {
			return err
		}
		if id, err = sysv.MsgGet(int32(key), 0); err != nil {
			return fmt.Errorf("%w: key 0x%08x: %w", mq.ErrNoQueue, uint32(key), err)
		}
	}

	if err := sysv.MsgRemove(id); err != nil {
		if errors.Is(err, sysv.ErrUnsupported) {
			return err
		}
		return fmt.Errorf("%w: queue %d: %w", mq.ErrDestroy, id, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "removed queue %d\n", id)
	return nil
}
