//go:build linux

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"govmi/guest/snapshot"
	"govmi/kernelinfo"
	"govmi/osi"
)

var (
	kconfFile  string
	kconfGroup string
	dumpDir    string
	maxTasks   int
)

var rootCmd = &cobra.Command{
	Use:   "govmi",
	Short: "Inspect a Linux guest's processes from a memory dump",
	Long: `govmi walks the kernel data structures inside a saved guest memory
dump and reconstructs the process list, thread list and per-process module
list, using a per-kernel-build offset table.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&kconfFile, "kconf", "kernelinfo.conf", "kernel offset config file")
	rootCmd.PersistentFlags().StringVar(&kconfGroup, "group", "", "kernel build group inside the config file")
	rootCmd.PersistentFlags().StringVar(&dumpDir, "dump", "", "guest memory dump directory")
	rootCmd.PersistentFlags().IntVar(&maxTasks, "max-tasks", osi.DefaultMaxTasks, "traversal element bound")

	rootCmd.AddCommand(psCmd)
	rootCmd.AddCommand(threadsCmd)
	rootCmd.AddCommand(modulesCmd)
	rootCmd.AddCommand(fdCmd)
	rootCmd.AddCommand(memCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(bannerCmd)
	rootCmd.AddCommand(recordCmd)
}

// openDump opens just the dump, for subcommands that do not walk kernel
// structures and need no offset table.
func openDump() (*snapshot.Dump, error) {
	if dumpDir == "" {
		return nil, fmt.Errorf("--dump is required")
	}
	dump, err := snapshot.Load(dumpDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load dump: %w", err)
	}
	return dump, nil
}

// openSession loads the offset table, opens the dump and builds the
// introspection session shared by all subcommands.
func openSession() (*osi.Linux, *snapshot.Dump, error) {
	if kconfGroup == "" {
		return nil, nil, fmt.Errorf("--group is required")
	}

	ki, err := kernelinfo.Load(kconfFile, kconfGroup)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load kernel info: %w", err)
	}

	dump, err := openDump()
	if err != nil {
		return nil, nil, err
	}

	l := osi.New(ki)
	l.MaxTasks = maxTasks
	return l, dump, nil
}

// findProcess locates one process by numeric pid.
func findProcess(l *osi.Linux, dump *snapshot.Dump, pid uint32) (*osi.Proc, error) {
	procs, err := l.Processes(dump)
	if err != nil {
		return nil, err
	}
	for i := range procs {
		if procs[i].PID == pid {
			return &procs[i], nil
		}
	}
	return nil, fmt.Errorf("no process with pid %d", pid)
}
