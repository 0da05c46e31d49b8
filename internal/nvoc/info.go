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

	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"

	"nvoc/internal/gpu"
	"nvoc/internal/util"
)

// ShowInfo renders the device identity, live telemetry and tuning envelope.
// Read-only: works without root and on any GPU generation.
func ShowInfo() util.NvocCmdError {
	cfg, err := util.ParseConfig(FlagConfigFilePath)
	if err != nil {
		log.Errorln(err)
		return util.ErrorCmdArg
	}

	session, err := gpu.Open(FlagDevice, cfg.MinDriverVersion)
	if err != nil {
		log.Errorln(err)
		return ExitCodeFor(err)
	}
	defer session.Close()

	name, err := session.Device.Name()
	if err != nil {
		log.Errorln(err)
		return ExitCodeFor(err)
	}
	arch, err := session.Device.Architecture()
	if err != nil {
		log.Errorln(err)
		return ExitCodeFor(err)
	}

	env, err := session.Device.Capabilities()
	if err != nil {
		log.Errorln(err)
		return ExitCodeFor(err)
	}
	state, err := session.Device.LiveState()
	if err != nil {
		log.Errorln(err)
		return ExitCodeFor(err)
	}

	fmt.Printf("GPU %d: %s (%s), driver %s\n", FlagDevice, name, arch, session.Driver)

	table := tablewriter.NewWriter(os.Stdout)
	util.SetBorderlessTable(table)

	table.Append([]string{"GPU Clock", fmt.Sprintf("%d MHz", state.ClockMHz),
		fmt.Sprintf("supported %d-%d MHz", env.ClockMinMHz, env.ClockMaxMHz)})
	table.Append([]string{"GPU Offset", fmt.Sprintf("%+d MHz", state.GraphicsOffsetMHz),
		fmt.Sprintf("supported %+d-%+d MHz", env.GraphicsOffsetMinMHz, env.GraphicsOffsetMaxMHz)})
	table.Append([]string{"Mem Clock", fmt.Sprintf("%d MHz", state.MemClockMHz), ""})
	table.Append([]string{"Mem Offset", fmt.Sprintf("%+d MHz", state.MemoryOffsetMHz),
		fmt.Sprintf("supported %+d-%+d MHz", env.MemoryOffsetMinMHz, env.MemoryOffsetMaxMHz)})
	table.Append([]string{"Temperature", fmt.Sprintf("%d C", state.TemperatureC), ""})
	table.Append([]string{"Power Draw", fmt.Sprintf("%d W", state.PowerDrawW), ""})
	table.Append([]string{"Power Limit", fmt.Sprintf("%d W (%d%%)", state.PowerLimitW, state.PowerLimitPercent(env)),
		fmt.Sprintf("supported %d-%d W, default %d W", env.PowerMinW, env.PowerMaxW, env.PowerDefaultW)})

	table.Render()
	return util.ErrorSuccess
}
