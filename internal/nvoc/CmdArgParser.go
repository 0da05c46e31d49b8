/**
 * Copyright (c) 2024 Peking University and Peking University
 * Changsha Institute for Computing and Digital Economy
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as
 * published by the Free Software Foundation, either version 3 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 */

package nvoc

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"nvoc/internal/gpu"
	"nvoc/internal/util"
)

var (
	FlagDevice         int
	FlagClocks         clockWindowFlag
	FlagOffset         int32
	FlagMemoryOffset   int32
	FlagPower          uint32
	FlagDryRun         bool
	FlagDebug          bool
	FlagConfigFilePath string

	RootCmd = &cobra.Command{
		Use:   "nvoc [flags]",
		Short: "Adjust NVIDIA GPU clocks, offsets and power limit",
		Long: "nvoc applies locked clocks, graphics/memory offsets and a power limit to an\n" +
			"NVIDIA GPU, after validating every value against the ranges the driver\n" +
			"reports. Use the info and reset subcommands to inspect and restore state.",
		Version: util.Version(),
		Args:    cobra.ExactArgs(0),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if FlagDebug {
				log.SetLevel(log.DebugLevel)
			}
		},
		Run: func(cmd *cobra.Command, args []string) {
			if !FlagClocks.set &&
				!cmd.Flags().Changed("offset") &&
				!cmd.Flags().Changed("memory-offset") &&
				!cmd.Flags().Changed("power") {
				log.Errorln("No operation specified. Use a subcommand (info, reset) " +
					"or provide overclock options (-c, -o, -m, -p).")
				os.Exit(util.ErrorCmdArg)
			}
			if code := Apply(requestFromFlags(cmd)); code != util.ErrorSuccess {
				os.Exit(code)
			}
		},
	}

	infoCmd = &cobra.Command{
		Use:   "info",
		Short: "Show GPU state and tuning ranges",
		Args:  cobra.ExactArgs(0),
		Run: func(cmd *cobra.Command, args []string) {
			if code := ShowInfo(); code != util.ErrorSuccess {
				os.Exit(code)
			}
		},
	}

	resetCmd = &cobra.Command{
		Use:   "reset",
		Short: "Restore clocks, offsets and power limit to hardware defaults",
		Args:  cobra.ExactArgs(0),
		Run: func(cmd *cobra.Command, args []string) {
			if code := Reset(); code != util.ErrorSuccess {
				os.Exit(code)
			}
		},
	}

	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.ExactArgs(0),
		Run: func(cmd *cobra.Command, args []string) {
			if code := ShowConfig(); code != util.ErrorSuccess {
				os.Exit(code)
			}
		},
	}
)

func ParseCmdArgs() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(util.ErrorCmdArg)
	}
}

func init() {
	RootCmd.SetVersionTemplate(util.VersionTemplate())
	RootCmd.PersistentFlags().IntVarP(&FlagDevice, "device", "d", 0, "GPU index")
	RootCmd.PersistentFlags().StringVarP(&FlagConfigFilePath, "config", "C",
		util.DefaultConfigPath, "Path to configuration file")
	RootCmd.PersistentFlags().BoolVar(&FlagDebug, "debug", false, "Enable debug logging")

	RootCmd.Flags().VarP(&FlagClocks, "clocks", "c", "Locked clock window in MHz, `MIN,MAX`")
	RootCmd.Flags().Int32VarP(&FlagOffset, "offset", "o", 0, "Graphics clock offset in MHz, may be negative")
	RootCmd.Flags().Int32VarP(&FlagMemoryOffset, "memory-offset", "m", 0, "Memory clock offset in MHz, may be negative")
	RootCmd.Flags().Uint32VarP(&FlagPower, "power", "p", 0, "Power limit as a percentage of the hardware default")
	RootCmd.Flags().BoolVar(&FlagDryRun, "dry-run", false, "Preview the operations without touching the GPU")

	resetCmd.Flags().BoolVar(&FlagDryRun, "dry-run", false, "Preview the operations without touching the GPU")

	RootCmd.AddCommand(infoCmd, resetCmd, configCmd)
}

// requestFromFlags lifts only the flags the operator actually set; an
// untouched flag must stay a nil field, never a zero value.
func requestFromFlags(cmd *cobra.Command) gpu.OverclockRequest {
	var req gpu.OverclockRequest
	if FlagClocks.set {
		window := FlagClocks.window
		req.LockedClocks = &window
	}
	if cmd.Flags().Changed("offset") {
		v := FlagOffset
		req.GraphicsOffsetMHz = &v
	}
	if cmd.Flags().Changed("memory-offset") {
		v := FlagMemoryOffset
		req.MemoryOffsetMHz = &v
	}
	if cmd.Flags().Changed("power") {
		v := FlagPower
		req.PowerPercent = &v
	}
	return req
}

// clockWindowFlag parses the -c MIN,MAX pair. Only the format is checked
// here; whether the window is ordered and inside the hardware envelope is the
// plan builder's decision.
type clockWindowFlag struct {
	window gpu.ClockWindow
	set    bool
}

var _ pflag.Value = (*clockWindowFlag)(nil)

func (f *clockWindowFlag) String() string {
	if !f.set {
		return ""
	}
	return f.window.String()
}

func (f *clockWindowFlag) Set(s string) error {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return fmt.Errorf("clock window must be 'MIN,MAX'")
	}

	minClock, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 32)
	if err != nil {
		return fmt.Errorf("invalid minimum clock %q", parts[0])
	}
	maxClock, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 32)
	if err != nil {
		return fmt.Errorf("invalid maximum clock %q", parts[1])
	}

	f.window = gpu.ClockWindow{MinMHz: uint32(minClock), MaxMHz: uint32(maxClock)}
	f.set = true
	return nil
}

func (f *clockWindowFlag) Type() string {
	return "MIN,MAX"
}
