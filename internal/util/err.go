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

package util

type NvocCmdError = int

// Exit codes are part of the scripting interface; each failure category is
// stable and distinct.
const (
	ErrorSuccess    NvocCmdError = 0
	ErrorCmdArg     NvocCmdError = 1
	ErrorValidation NvocCmdError = 2
	ErrorQuery      NvocCmdError = 3
	ErrorApply      NvocCmdError = 4
	ErrorPermission NvocCmdError = 5
)
