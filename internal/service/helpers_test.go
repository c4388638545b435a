package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	appErrors "github.com/deskinspect/deskinspect-api/pkg/errors"
)

func requireErrCode(t *testing.T, err error, want *appErrors.Error) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, want.Code, appErrors.FromError(err).Code)
}
