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
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"nvoc/internal/gpu"
	"nvoc/internal/nvml"
	"nvoc/internal/record"
	"nvoc/internal/util"
)

// ExitCodeFor maps an engine error to the stable per-category exit code.
func ExitCodeFor(err error) util.NvocCmdError {
	if errors.Is(err, nvml.ErrNoPermission) {
		return util.ErrorPermission
	}

	var validationErr *gpu.ValidationError
	if errors.As(err, &validationErr) {
		return util.ErrorValidation
	}

	var applyErr *gpu.ApplyError
	if errors.As(err, &applyErr) {
		return util.ErrorApply
	}

	return util.ErrorQuery
}

// guardArchitecture rejects mutating operations on GPU generations the
// configuration does not allow. Tuning paths differ per generation; an
// untested one is treated as unsupported, not attempted.
func guardArchitecture(dev gpu.Device, cfg *util.Config) error {
	arch, err := dev.Architecture()
	if err != nil {
		return err
	}
	for _, allowed := range cfg.AllowedArchitectures {
		if arch == allowed {
			return nil
		}
	}
	return &gpu.QueryError{
		Op:  "architecture check",
		Err: fmt.Errorf("%s GPUs are not supported for modification: %w", arch, nvml.ErrNotSupported),
	}
}

func printPlanResult(result gpu.PlanResult) {
	for _, outcome := range result.Outcomes {
		switch {
		case result.DryRun:
			fmt.Printf("[dry-run] would %s\n", outcome.Operation.Describe())
		case outcome.OK():
			fmt.Printf("%s: ok\n", outcome.Operation.Describe())
		default:
			fmt.Printf("%s: FAILED (%v)\n", outcome.Operation.Describe(), outcome.Err)
		}
	}

	if !result.DryRun && result.Status != gpu.StatusSuccess {
		log.Errorf("Plan finished with status %s; the GPU may be in a mixed state, "+
			"run 'nvoc reset' to restore defaults", result.Status)
	}
}

// recordResult writes the attempted operations to the configured history
// backend. Best-effort only: a recording failure is logged and ignored.
func recordResult(cfg *util.Config, deviceName, command string, result gpu.PlanResult) {
	if result.DryRun || len(result.Outcomes) == 0 {
		return
	}

	recorder, err := record.New(cfg.History)
	if err != nil {
		log.Warnf("History recording unavailable: %v", err)
		return
	}
	if recorder == nil {
		return
	}
	defer func() {
		if err := recorder.Close(); err != nil {
			log.Warnf("Closing history recorder: %v", err)
		}
	}()

	now := time.Now()
	entries := make([]record.Entry, 0, len(result.Outcomes))
	for _, outcome := range result.Outcomes {
		entry := record.Entry{
			Time:        now,
			DeviceIndex: FlagDevice,
			DeviceName:  deviceName,
			Command:     command,
			Operation:   outcome.Operation.Kind.String(),
			Detail:      outcome.Operation.Describe(),
			OK:          outcome.OK(),
		}
		if outcome.Err != nil {
			entry.Reason = outcome.Err.Error()
		}
		entries = append(entries, entry)
	}

	if err := recorder.Record(entries); err != nil {
		log.Warnf("Recording operation history: %v", err)
	}
}

func ShowConfig() util.NvocCmdError {
	cfg, err := util.ParseConfig(FlagConfigFilePath)
	if err != nil {
		log.Errorln(err)
		return util.ErrorCmdArg
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		log.Errorln(err)
		return util.ErrorCmdArg
	}
	fmt.Print(string(out))
	return util.ErrorSuccess
}
