// SPDX-License-Identifier: ice License 1.0

package time

import (
	"database/sql"
	"encoding/json"
	stdlibtime "time"
)

// Public API.

type (
	Time struct {
		*stdlibtime.Time
	}
)

// Private API.

var (
	_ json.Unmarshaler                           = (*Time)(nil)
	_ json.Marshaler                             = (*Time)(nil)
	_ sql.Scanner                                = (*Time)(nil)
	_ interface{ MarshalText() ([]byte, error) } = (*Time)(nil)
	_ interface{ UnmarshalText([]byte) error }   = (*Time)(nil)
)
