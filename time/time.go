// SPDX-License-Identifier: ice License 1.0

package time

import (
	"strconv"
	stdlibtime "time"

	"github.com/pkg/errors"
)

func Now() *Time {
	now := stdlibtime.Now().UTC()

	return &Time{
		Time: &now,
	}
}

func New(time stdlibtime.Time) *Time {
	return &Time{
		Time: &time,
	}
}

func (t *Time) IsNil() bool {
	return t == nil || t.Time == nil
}

func (t *Time) MarshalJSON() ([]byte, error) {
	if t.IsNil() || t.UnixNano() == 0 {
		return []byte("null"), nil
	}

	//nolint:wrapcheck // We're just proxying it.
	return t.Time.UTC().MarshalJSON()
}

func (t *Time) UnmarshalJSON(bytes []byte) error {
	if err := t.unmarshallUint64(bytes); err != nil || t.Time != nil {
		return err
	}

	return t.unmarshallString(bytes)
}

// Scan lets pgx and database/sql scan timestamp columns straight into Time.
func (t *Time) Scan(src any) error {
	switch val := src.(type) {
	case nil:
		t.Time = nil
	case stdlibtime.Time:
		utc := val.UTC()
		t.Time = &utc
	default:
		return errors.Errorf("unsupported time source %T", src)
	}

	return nil
}

func (t *Time) unmarshallUint64(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	for _, b := range data {
		if b < '0' || b > '9' {
			return nil
		}
	}
	millisOrNanos, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return errors.Wrapf(err, "invalid numeric time: %v", string(data))
	}
	t.Time = new(stdlibtime.Time)
	if len(data) == 13 { //nolint:mnd // There's no magic here, there are 13 digits in a millisecond based timestamp.
		*t.Time = stdlibtime.UnixMilli(millisOrNanos).UTC()
	} else {
		*t.Time = stdlibtime.Unix(0, millisOrNanos).UTC()
	}

	return nil
}

func (t *Time) unmarshallString(bytes []byte) error {
	data := string(bytes)
	if data == "null" || data == `""` || data == "" {
		return nil
	}
	time, err := stdlibtime.Parse(`"`+stdlibtime.RFC3339Nano+`"`, data)
	if err != nil {
		return errors.Wrapf(err, "invalid time format: %v", data)
	}
	t.Time = new(stdlibtime.Time)
	*t.Time = time.UTC()

	return nil
}
