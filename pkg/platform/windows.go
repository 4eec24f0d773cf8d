// SPDX-License-Identifier: MPL-2.0

package platform

import "strings"

// windowsReservedNames are device filenames Windows refuses to create,
// regardless of extension. A module directory named after one of these
// would be unusable on Windows checkouts.
var windowsReservedNames = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {},
	"COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {},
	"LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

// IsWindowsReservedName reports whether name (case-insensitive, with or
// without an extension) collides with a Windows reserved device filename.
func IsWindowsReservedName(name string) bool {
	if name == "" {
		return false
	}
	base := name
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	_, reserved := windowsReservedNames[strings.ToUpper(base)]
	return reserved
}
