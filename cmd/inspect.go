package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/shirou/gopsutil/v3/process"
	"github.com/spf13/cobra"

	"github.com/srediag/plugin-mq/cmd/util"
	"github.com/srediag/plugin-mq/internal/sysv"
	"github.com/srediag/plugin-mq/pkg/mq"
)

// inspectCmd lists the System V message queues visible to this process
var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "List System V message queues",
	Long: util.WrapString(`List the message queues known to the kernel. The queue matching
the configured token and seed is marked with '*'. Last sender and receiver
pids are resolved to process names where the process still exists.`),
	Args: cobra.NoArgs,
	RunE: runInspect,
}

func runInspect(cmd *cobra.Command, _ []string) error {
	queues, err := sysv.ListQueues()
	if err != nil {
		return err
	}

	// The marker is best effort: a missing token just means nothing is marked.
	var want mq.Key
	var haveKey bool
	if cfg, err := util.GetExchangeConfig(); err == nil {
		if k, err := mq.DeriveKey(mq.SysV(), cfg.Token, cfg.Seed); err == nil {
			want, haveKey = k, true
		}
	}

	ctx := cmd.Context()
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "\tKEY\tID\tPERMS\tMESSAGES\tBYTES\tLAST SENDER\tLAST RECEIVER")
	for _, q := range queues {
		mark := ""
		if haveKey && mq.Key(q.Key) == want {
			mark = "*"
		}
		fmt.Fprintf(w, "%s\t0x%08x\t%d\t%04o\t%d\t%d\t%s\t%s\n",
			mark, uint32(q.Key), q.ID, q.Perm.Perm(), q.Messages, q.Bytes,
			processName(ctx, q.LastSendPID), processName(ctx, q.LastRecvPID))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if len(queues) == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), "no message queues")
	}
	return nil
}

// processName formats a pid with the name of its process, if it is still running
func processName(ctx context.Context, pid int32) string {
	if pid <= 0 {
		return "-"
	}
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return fmt.Sprintf("%d (exited)", pid)
	}
	name, err := p.NameWithContext(ctx)
	if err != nil || name == "" {
		return fmt.Sprintf("%d", pid)
	}
	return fmt.Sprintf("%d (%s)", pid, name)
}
