package validate_test

import (
	"testing"

	"github.com/ardanlabs/ledger/business/sys/validate"
	"github.com/stretchr/testify/require"
)

type request struct {
	From  string `json:"from" validate:"required,accountid"`
	Nonce string `json:"nonce" validate:"required,numeric"`
}

func TestCheck(t *testing.T) {
	ok := request{
		From:  "0x02412ffaffb78f2931e193f1add952fcb84ceaa55c8491b3a71f25f89fbb482aaf",
		Nonce: "12",
	}
	require.NoError(t, validate.Check(ok))

	err := validate.Check(request{From: "0x1234", Nonce: "ab"})
	require.True(t, validate.IsFieldErrors(err))

	fields := validate.GetFieldErrors(err).Fields()
	require.Contains(t, fields, "from")
	require.Contains(t, fields, "nonce")
	require.Contains(t, fields["from"], "compressed public key")
}
