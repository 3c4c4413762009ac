package pagination_test

import (
	"testing"
	"time"

	"github.com/ledgerforge/gl_ledger_app/internal/utils/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	tranDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	createdAt := time.Date(2024, 1, 2, 15, 4, 5, 123456789, time.UTC)

	token := pagination.EncodeToken(tranDate, createdAt)
	gotDate, gotCreated, err := pagination.DecodeToken(token)

	require.NoError(t, err)
	assert.True(t, gotDate.Equal(tranDate))
	assert.True(t, gotCreated.Equal(createdAt))
}

func TestDecodeToken_Invalid(t *testing.T) {
	_, _, err := pagination.DecodeToken("not-base64!!")
	assert.Error(t, err)

	_, _, err = pagination.DecodeToken("aGVsbG8=") // valid base64, no separator
	assert.Error(t, err)
}

func TestMultiFieldTokenRoundTrip(t *testing.T) {
	token := pagination.EncodeMultiFieldToken("tran-1", "3")
	fields, err := pagination.DecodeMultiFieldToken(token)

	require.NoError(t, err)
	require.Len(t, fields, 2)
	assert.Equal(t, "tran-1", fields[0])
	assert.Equal(t, "3", fields[1])
}
