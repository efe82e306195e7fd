package wallet

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/expansion/v1/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	// 测试中降低 PBKDF2 迭代次数
	kdfIterations = 1024
}

func TestKeyPairEncodeDecode(t *testing.T) {
	for _, scheme := range []types.SignatureScheme{types.SchemeEd25519, types.SchemeSecp256k1} {
		t.Run(scheme.String(), func(t *testing.T) {
			kp, err := GenerateKeyPair(scheme)
			require.NoError(t, err)

			raw := EncodeKeyPair(kp)
			require.Len(t, raw, 33)
			assert.Equal(t, byte(scheme), raw[0])

			back, err := DecodeKeyPairBase64(EncodeKeyPairBase64(kp))
			require.NoError(t, err)
			assert.Equal(t, kp.Address(), back.Address())
			assert.Equal(t, kp.PublicKey(), back.PublicKey())
			assert.Len(t, kp.PublicKey(), scheme.PublicKeySize())

			digest := types.IntentDigest([]byte("payload"))
			sig, err := back.SignDigest(digest[:])
			require.NoError(t, err)
			assert.NoError(t, sig.VerifyDigest(digest[:]))
			assert.Equal(t, kp.Address(), sig.Address())
		})
	}
}

func TestDecodeKeyPairRejectsBadInput(t *testing.T) {
	_, err := DecodeKeyPair([]byte{0x00, 1, 2})
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = DecodeKeyPair(append([]byte{0x05}, make([]byte, 32)...))
	assert.ErrorIs(t, err, types.ErrUnsupportedScheme)

	_, err = DecodeKeyPair(append([]byte{0x01}, make([]byte, 32)...))
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = DecodeKeyPairBase64("!!!")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestKeyPairZero(t *testing.T) {
	kp, err := GenerateEd25519KeyPair()
	require.NoError(t, err)
	kp.Zero()

	digest := types.IntentDigest(nil)
	_, err = kp.SignDigest(digest[:])
	assert.ErrorIs(t, err, ErrLocked)
}

func TestFileKeystoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sui_config", "sui.keystore")

	ed, err := GenerateEd25519KeyPair()
	require.NoError(t, err)
	k1, err := GenerateSecp256k1KeyPair()
	require.NoError(t, err)

	ks := NewFileKeystore(path)
	assert.True(t, ks.Import(ed))
	assert.True(t, ks.Import(k1))
	assert.False(t, ks.Import(ed), "重复导入")
	require.NoError(t, ks.Save())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	var entries []string
	data, _ := os.ReadFile(path)
	require.NoError(t, json.Unmarshal(data, &entries))
	assert.Len(t, entries, 2)

	loaded, err := LoadFileKeystore(path)
	require.NoError(t, err)
	addrs, err := loaded.ListAddresses()
	require.NoError(t, err)
	assert.Equal(t, []types.Address{ed.Address(), k1.Address()}, addrs)
	assert.Equal(t, types.SchemeSecp256k1, loaded.Schemes()[k1.Address()])

	digest := types.IntentDigest([]byte("tx"))
	sig, err := loaded.Sign(k1.Address(), digest[:])
	require.NoError(t, err)
	assert.NoError(t, sig.VerifyDigest(digest[:]))

	_, err = loaded.Sign(types.MustParseAddress("0x99"), digest[:])
	assert.ErrorIs(t, err, ErrAddressNotFound)
}

func TestLoadFileKeystoreErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFileKeystore(filepath.Join(dir, "missing"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad")
	require.NoError(t, os.WriteFile(bad, []byte(`["AAEC"]`), 0600))
	_, err = LoadFileKeystore(bad)
	assert.ErrorIs(t, err, ErrInvalidKey)

	assert.Error(t, NewInMemoryKeystore().Save())
}

func TestKeystoreSignerUnlockAndSign(t *testing.T) {
	dir := t.TempDir()
	kp, err := GenerateSecp256k1KeyPair()
	require.NoError(t, err)

	path, err := SaveKeystore(dir, kp, "correct horse", "deployer")
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	ks, err := NewKeystoreSigner(path)
	require.NoError(t, err)
	assert.Equal(t, "deployer", ks.Label())
	assert.True(t, ks.IsLocked())

	addrs, err := ks.ListAddresses()
	require.NoError(t, err)
	assert.Equal(t, []types.Address{kp.Address()}, addrs)

	digest := types.IntentDigest([]byte("tx"))
	_, err = ks.Sign(kp.Address(), digest[:])
	assert.ErrorIs(t, err, ErrLocked)

	assert.ErrorIs(t, ks.Unlock("wrong", 0), ErrWrongPassword)
	assert.True(t, ks.IsLocked())

	require.NoError(t, ks.Unlock("correct horse", 0))
	sig, err := ks.Sign(kp.Address(), digest[:])
	require.NoError(t, err)
	assert.NoError(t, sig.VerifyDigest(digest[:]))

	ks.Lock()
	_, err = ks.Sign(kp.Address(), digest[:])
	assert.ErrorIs(t, err, ErrLocked)
}

func TestKeystoreSignerAutoLock(t *testing.T) {
	kp, err := GenerateEd25519KeyPair()
	require.NoError(t, err)
	path, err := SaveKeystore(t.TempDir(), kp, "pw", "")
	require.NoError(t, err)

	ks, err := NewKeystoreSigner(path)
	require.NoError(t, err)
	require.NoError(t, ks.Unlock("pw", 50*time.Millisecond))
	assert.False(t, ks.IsLocked())
	assert.Eventually(t, ks.IsLocked, time.Second, 10*time.Millisecond)
}

func TestKeystoreSignerDetectsTampering(t *testing.T) {
	kp, err := GenerateEd25519KeyPair()
	require.NoError(t, err)
	path, err := SaveKeystore(t.TempDir(), kp, "pw", "")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var file KeystoreV1
	require.NoError(t, json.Unmarshal(data, &file))
	assert.Equal(t, "ed25519", file.Scheme)
	assert.Equal(t, "1.0.0", file.Version)
	assert.NotEmpty(t, file.ID)

	// 改写地址，解密成功但地址不符
	other, _ := GenerateEd25519KeyPair()
	file.Address = other.Address().String()
	data, _ = json.Marshal(file)
	require.NoError(t, os.WriteFile(path, data, 0600))

	ks, err := NewKeystoreSigner(path)
	require.NoError(t, err)
	assert.ErrorIs(t, ks.Unlock("pw", 0), ErrWrongPassword)
}

func TestParseSignerType(t *testing.T) {
	got, err := ParseSignerType("")
	require.NoError(t, err)
	assert.Equal(t, SignerTypeFile, got)

	got, err = ParseSignerType("mnemonic")
	require.NoError(t, err)
	assert.Equal(t, SignerTypeMnemonic, got)

	_, err = ParseSignerType("ledger")
	assert.Error(t, err)
}
