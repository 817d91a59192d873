// SPDX-License-Identifier: ice License 1.0

package internal

import (
	stdlibtime "time"

	"github.com/pkg/errors"
)

// KindOf classifies err against the authentication failure taxonomy.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}

	return KindUnknown
}

// SystemClock reports the current time in UTC.
func SystemClock() stdlibtime.Time {
	return stdlibtime.Now().UTC()
}

// OrSystemClock returns clock, or SystemClock when clock is nil.
func OrSystemClock(clock Clock) Clock {
	if clock == nil {
		return SystemClock
	}

	return clock
}

func (k Kind) String() string {
	return string(k)
}

func (s Scheme) String() string {
	return string(s)
}
