//go:build unit || !integration

package marketplaceerrors_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/do4u-project/do4u/pkg/marketplaceerrors"
)

func TestTaxonomyPredicates(t *testing.T) {
	validation := marketplaceerrors.NewAPIError(http.StatusBadRequest, "insufficient balance", nil)
	conflict := marketplaceerrors.NewAPIError(http.StatusConflict, "job already accepted", nil)
	unauthorized := marketplaceerrors.NewUnauthorizedError("", nil)

	require.True(t, marketplaceerrors.IsValidation(validation))
	require.False(t, marketplaceerrors.IsConflict(validation))

	require.True(t, marketplaceerrors.IsConflict(conflict))
	require.Equal(t, http.StatusConflict, marketplaceerrors.StatusCode(conflict))

	require.True(t, marketplaceerrors.IsUnauthorized(unauthorized))
	require.Equal(t, "Unauthorized", unauthorized.Error())
	require.Equal(t, http.StatusUnauthorized, marketplaceerrors.StatusCode(unauthorized))
}

func TestPredicatesSeeThroughWrapping(t *testing.T) {
	inner := marketplaceerrors.NewAPIError(http.StatusConflict, "already assigned", nil)
	wrapped := errors.Wrap(inner, "accepting job")
	require.True(t, marketplaceerrors.IsConflict(wrapped))
	require.Equal(t, http.StatusConflict, marketplaceerrors.StatusCode(wrapped))
}

func TestMessageFallback(t *testing.T) {
	err := marketplaceerrors.NewAPIError(http.StatusBadGateway, "", []byte("<html>"))
	require.Contains(t, err.Error(), "Bad Gateway")
	require.Equal(t, []byte("<html>"), err.Body)
}

func TestContextCanceled(t *testing.T) {
	require.True(t, marketplaceerrors.IsContextCanceled(context.Canceled))
	require.True(t, marketplaceerrors.IsContextCanceled(errors.New("Get \"x\": context canceled")))
	require.False(t, marketplaceerrors.IsContextCanceled(marketplaceerrors.NewAPIError(500, "boom", nil)))
	require.False(t, marketplaceerrors.IsContextCanceled(nil))
}
