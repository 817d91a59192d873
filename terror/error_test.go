// SPDX-License-Identifier: ice License 1.0

package terror

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDuplicate = errors.New("duplicate")

func TestWithColumn(t *testing.T) {
	t.Parallel()

	err := errors.Wrap(WithColumn(errDuplicate, "email"), "insert failed")
	require.ErrorIs(t, err, errDuplicate)

	tErr := As(err)
	require.NotNil(t, tErr)
	assert.Equal(t, "email", tErr.Column())
	assert.Equal(t, map[string]any{"column": "email"}, tErr.Data)
}

func TestAsWithoutData(t *testing.T) {
	t.Parallel()

	assert.Nil(t, As(errDuplicate))
	assert.Empty(t, New(errDuplicate, nil).Column())
}
