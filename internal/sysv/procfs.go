package sysv

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ProcPath is the kernel's listing of live message queues.
const ProcPath = "/proc/sysvipc/msg"

// QueueInfo is one row of ProcPath.
type QueueInfo struct {
	Key         int32
	ID          int
	Perm        os.FileMode
	Bytes       uint64
	Messages    uint64
	LastSendPID int32
	LastRecvPID int32
	UID         uint32
}

// ListQueues returns every message queue visible to the caller.
func ListQueues() ([]QueueInfo, error) {
	f, err := os.Open(ProcPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", ProcPath, err)
	}
	defer f.Close()
	return parseQueues(f)
}

// columns: key msqid perms cbytes qnum lspid lrpid uid gid cuid cgid stime rtime ctime
func parseQueues(r io.Reader) ([]QueueInfo, error) {
	var infos []QueueInfo
	sc := bufio.NewScanner(r)
	header := true
	for sc.Scan() {
		if header {
			header = false
			continue
		}
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 8 {
			return nil, fmt.Errorf("sysv: short queue row %q", sc.Text())
		}
		info, err := parseRow(fields)
		if err != nil {
			return nil, fmt.Errorf("sysv: queue row %q: %w", sc.Text(), err)
		}
		infos = append(infos, info)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return infos, nil
}

func parseRow(fields []string) (QueueInfo, error) {
	var (
		info QueueInfo
		errs []error
	)
	parseInt := func(s string, bits int) int64 {
		v, err := strconv.ParseInt(s, 10, bits)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}
	parseUint := func(s string, base, bits int) uint64 {
		v, err := strconv.ParseUint(s, base, bits)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}
	info.Key = int32(parseInt(fields[0], 32))
	info.ID = int(parseInt(fields[1], 32))
	info.Perm = os.FileMode(parseUint(fields[2], 8, 32))
	info.Bytes = parseUint(fields[3], 10, 64)
	info.Messages = parseUint(fields[4], 10, 64)
	info.LastSendPID = int32(parseInt(fields[5], 32))
	info.LastRecvPID = int32(parseInt(fields[6], 32))
	info.UID = uint32(parseUint(fields[7], 10, 32))
	if len(errs) > 0 {
		return QueueInfo{}, errs[0]
	}
	return info, nil
}
