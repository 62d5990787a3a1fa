package vault

import (
	"strings"
	"testing"

	"github.com/driftlog/aiops/types"
	"github.com/stretchr/testify/require"
)

func TestKeyVault_RoundTrip(t *testing.T) {
	v := New(strings.Repeat("A", 32))

	blob, err := v.Encrypt("sk-abc12345")
	require.NoError(t, err)

	plain, err := v.Decrypt(blob)
	require.NoError(t, err)
	require.Equal(t, "sk-abc12345", plain)

	require.Equal(t, "…2345", Preview("sk-abc12345"))
	require.Equal(t, "sk-a…2345", MaskedForm("sk-abc12345"))
}

func TestKeyVault_DistinctCiphertexts(t *testing.T) {
	v := New(strings.Repeat("A", 32))

	a, err := v.Encrypt("sk-abc12345")
	require.NoError(t, err)
	b, err := v.Encrypt("sk-abc12345")
	require.NoError(t, err)

	require.NotEqual(t, a, b)
}

func TestKeyVault_EmptyInputsRejected(t *testing.T) {
	v := New(strings.Repeat("A", 32))

	_, err := v.Encrypt("")
	require.Error(t, err)
	require.Equal(t, types.ErrBadInput, types.GetErrorCode(err))

	_, err = v.Decrypt("")
	require.Error(t, err)
	require.Equal(t, types.ErrBadInput, types.GetErrorCode(err))
}

func TestKeyVault_ShortMasterSecretRefuses(t *testing.T) {
	v := New("tooshort")

	_, err := v.Encrypt("sk-abc12345")
	require.Error(t, err)
	require.Equal(t, types.ErrCryptoFailure, types.GetErrorCode(err))
}

func TestKeyVault_TamperedBlobFails(t *testing.T) {
	v := New(strings.Repeat("A", 32))

	blob, err := v.Encrypt("sk-abc12345")
	require.NoError(t, err)

	tampered := blob[:len(blob)-4] + "AAAA"
	_, err = v.Decrypt(tampered)
	require.Error(t, err)
	require.Equal(t, types.ErrCryptoFailure, types.GetErrorCode(err))
}

func TestValidateFormat(t *testing.T) {
	cases := []struct {
		provider types.Provider
		key      string
		wantOK   bool
	}{
		{types.ProviderOpenAI, "sk-abcdefghij", true},
		{types.ProviderOpenAI, "sk-proj-abcdefghij", true},
		{types.ProviderOpenAI, "bad-key-12345", false},
		{types.ProviderAnthropic, "sk-ant-abcdefghij", true},
		{types.ProviderAnthropic, "sk-abcdefghij", false},
		{types.ProviderGemini, "abcdefghijklmnopqrst", true},
		{types.ProviderGemini, "tooshort", false},
		{types.ProviderAzureOpenAI, "abcdefghijklmnopqrst", true},
	}

	for _, tc := range cases {
		ok, reason := ValidateFormat(tc.provider, tc.key)
		require.Equal(t, tc.wantOK, ok, "provider=%s key=%s reason=%s", tc.provider, tc.key, reason)
	}
}
