//go:build linux

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"govmi/guest"
	"govmi/osi"
	"govmi/store"
)

var psCmd = &cobra.Command{
	Use:   "ps",
	Short: "List the guest's processes",
	RunE: func(cmd *cobra.Command, args []string) error {
		l, dump, err := openSession()
		if err != nil {
			return err
		}
		defer dump.Close()

		procs, err := l.Processes(dump)
		if err != nil {
			return err
		}
		fmt.Printf("%6s %6s %-16s %-12s %s\n", "PID", "PPID", "NAME", "ASID", "TASK")
		for _, p := range procs {
			fmt.Printf("%6d %6d %-16s %-12s %s\n", p.PID, p.PPID, p.Name, p.ASID, p.TaskAddr)
		}
		return nil
	},
}

var threadsCmd = &cobra.Command{
	Use:   "threads",
	Short: "List every task in the guest, including thread-group siblings",
	RunE: func(cmd *cobra.Command, args []string) error {
		l, dump, err := openSession()
		if err != nil {
			return err
		}
		defer dump.Close()

		threads, err := l.Threads(dump)
		if err != nil {
			return err
		}
		fmt.Printf("%6s %6s\n", "TID", "PID")
		for _, t := range threads {
			fmt.Printf("%6d %6d\n", t.TID, t.PID)
		}
		return nil
	},
}

var modulesCmd = &cobra.Command{
	Use:   "modules <pid>",
	Short: "List a process's memory mappings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pid, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			return fmt.Errorf("bad pid %q: %w", args[0], err)
		}

		l, dump, err := openSession()
		if err != nil {
			return err
		}
		defer dump.Close()

		p, err := findProcess(l, dump, uint32(pid))
		if err != nil {
			return err
		}
		mods, err := l.Modules(dump, osi.Handle{TaskAddr: p.TaskAddr, ASID: p.ASID})
		if err != nil {
			return err
		}
		fmt.Printf("%-12s %10s %-20s %s\n", "BASE", "SIZE", "NAME", "FILE")
		for _, m := range mods {
			fmt.Printf("%-12s %10d %-20s %s\n", m.Base, m.Size, m.Name, m.File)
		}
		return nil
	},
}

var fdCmd = &cobra.Command{
	Use:   "fd <pid> <fd>",
	Short: "Resolve the path and position of a process's file descriptor",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		pid, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			return fmt.Errorf("bad pid %q: %w", args[0], err)
		}
		fd, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("bad fd %q: %w", args[1], err)
		}

		l, dump, err := openSession()
		if err != nil {
			return err
		}
		defer dump.Close()

		p, err := findProcess(l, dump, uint32(pid))
		if err != nil {
			return err
		}
		name, err := l.FdName(dump, p.TaskAddr, fd)
		if err != nil {
			return err
		}
		pos, err := l.FdPos(dump, p.TaskAddr, fd)
		if err != nil {
			return err
		}
		fmt.Printf("fd %d -> %s (pos %d)\n", fd, name, pos)
		return nil
	},
}

var memCmd = &cobra.Command{
	Use:   "mem <addr> <size>",
	Short: "Hexdump guest memory from the dump",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := strconv.ParseUint(args[0], 0, 64)
		if err != nil {
			return fmt.Errorf("bad address %q: %w", args[0], err)
		}
		size, err := strconv.ParseUint(args[1], 0, 64)
		if err != nil {
			return fmt.Errorf("bad size %q: %w", args[1], err)
		}

		_, dump, err := openSession()
		if err != nil {
			return err
		}
		defer dump.Close()

		data, err := dump.ReadMemory(guest.Addr(addr), size)
		if err != nil {
			return err
		}
		hexDump(guest.Addr(addr), data)
		return nil
	},
}

var recordCmd = &cobra.Command{
	Use:   "record <db>",
	Short: "Record the full enumeration into a sqlite database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		l, dump, err := openSession()
		if err != nil {
			return err
		}
		defer dump.Close()

		db, err := store.Open(args[0])
		if err != nil {
			return err
		}
		defer db.Close()

		captureID, err := db.BeginCapture(l.Profile().Name())
		if err != nil {
			return err
		}

		procs, err := l.Processes(dump)
		if err != nil {
			return err
		}
		if err := db.RecordProcesses(captureID, procs); err != nil {
			return err
		}

		threads, err := l.Threads(dump)
		if err != nil {
			return err
		}
		if err := db.RecordThreads(captureID, threads); err != nil {
			return err
		}

		for _, p := range procs {
			mods, err := l.Modules(dump, osi.Handle{TaskAddr: p.TaskAddr, ASID: p.ASID})
			if err != nil {
				// A single unwalkable process does not abort the capture.
				continue
			}
			if err := db.RecordModules(captureID, p.PID, mods); err != nil {
				return err
			}
		}

		fmt.Printf("capture %d: %d processes, %d threads\n", captureID, len(procs), len(threads))
		return nil
	},
}
