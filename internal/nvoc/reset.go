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
	log "github.com/sirupsen/logrus"

	"nvoc/internal/gpu"
	"nvoc/internal/util"
)

// Reset restores all controllable parameters to hardware defaults through
// the same plan executor the apply path uses.
func Reset() util.NvocCmdError {
	cfg, err := util.ParseConfig(FlagConfigFilePath)
	if err != nil {
		log.Errorln(err)
		return util.ErrorCmdArg
	}

	if !FlagDryRun && !util.RunningAsRoot() {
		log.Errorln("Resetting GPU settings requires root privileges.")
		return util.ErrorPermission
	}

	session, err := gpu.Open(FlagDevice, cfg.MinDriverVersion)
	if err != nil {
		log.Errorln(err)
		return ExitCodeFor(err)
	}
	defer session.Close()

	if err := guardArchitecture(session.Device, cfg); err != nil {
		log.Errorln(err)
		return ExitCodeFor(err)
	}

	result := gpu.Execute(session.Device, gpu.BuildResetPlan(), FlagDryRun)
	printPlanResult(result)

	deviceName, nameErr := session.Device.Name()
	if nameErr != nil {
		log.Debugf("Device name unavailable: %v", nameErr)
	}
	recordResult(cfg, deviceName, "reset", result)

	if result.Status != gpu.StatusSuccess {
		return ExitCodeFor(result.FirstError())
	}
	return util.ErrorSuccess
}
