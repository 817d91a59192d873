// SPDX-License-Identifier: ice License 1.0

package terror

// Public API.

// DataKeyColumn holds the column a storage constraint violation was raised for.
const DataKeyColumn = "column"

type (
	Err struct {
		error
		Data map[string]any `json:"data"`
	}
)
