//go:build linux

package main

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"govmi/guest"
)

var (
	scanFrom  string
	scanTo    string
	scanLimit int
)

var scanCmd = &cobra.Command{
	Use:   "scan <pattern>",
	Short: "Search the dump for a byte pattern",
	Long: `Search guest memory for a hex byte pattern. Use ?? for wildcard
bytes, e.g. "488b05??34". Unmapped stretches are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pattern, mask, err := parsePattern(args[0])
		if err != nil {
			return err
		}

		dump, err := openDump()
		if err != nil {
			return err
		}
		defer dump.Close()

		start, end := dump.Bounds()
		if scanFrom != "" {
			v, err := strconv.ParseUint(scanFrom, 0, 64)
			if err != nil {
				return fmt.Errorf("bad --from %q: %w", scanFrom, err)
			}
			start = guest.Addr(v)
		}
		if scanTo != "" {
			v, err := strconv.ParseUint(scanTo, 0, 64)
			if err != nil {
				return fmt.Errorf("bad --to %q: %w", scanTo, err)
			}
			end = guest.Addr(v)
		}

		hits := guest.FindPattern(dump, start, end, pattern, mask, scanLimit)
		for _, hit := range hits {
			fmt.Println(hit)
		}
		if len(hits) == 0 {
			return fmt.Errorf("pattern not found in %s..%s", start, end)
		}
		return nil
	},
}

var bannerCmd = &cobra.Command{
	Use:   "banner",
	Short: "Locate the kernel version banner in the dump",
	RunE: func(cmd *cobra.Command, args []string) error {
		dump, err := openDump()
		if err != nil {
			return err
		}
		defer dump.Close()

		start, end := dump.Bounds()
		addr, banner, ok := guest.FindLinuxBanner(dump, start, end)
		if !ok {
			return fmt.Errorf("no kernel banner found")
		}
		fmt.Printf("%s %s\n", addr, banner)
		return nil
	},
}

func init() {
	scanCmd.Flags().StringVar(&scanFrom, "from", "", "start address (default: dump start)")
	scanCmd.Flags().StringVar(&scanTo, "to", "", "end address (default: dump end)")
	scanCmd.Flags().IntVar(&scanLimit, "limit", 16, "stop after this many hits (0 for all)")
}

// parsePattern turns a hex string with ?? wildcards into a pattern and mask.
func parsePattern(s string) ([]byte, []byte, error) {
	s = strings.ReplaceAll(s, " ", "")
	if len(s) == 0 || len(s)%2 != 0 {
		return nil, nil, fmt.Errorf("pattern must be an even number of hex digits")
	}
	pattern := make([]byte, len(s)/2)
	mask := make([]byte, len(s)/2)
	wildcards := false
	for i := 0; i < len(s); i += 2 {
		if s[i:i+2] == "??" {
			wildcards = true
			continue
		}
		b, err := hex.DecodeString(s[i : i+2])
		if err != nil {
			return nil, nil, fmt.Errorf("bad pattern byte %q: %w", s[i:i+2], err)
		}
		pattern[i/2] = b[0]
		mask[i/2] = 1
	}
	if !wildcards {
		mask = nil
	}
	return pattern, mask, nil
}
