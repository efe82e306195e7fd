package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleEffects = `{
  "status": {"status": "success"},
  "transactionDigest": "3Hn1zLMRvPW4JfLnTAuhH4ksvbDVqDmXWy2Z5nTq3jE1",
  "gasUsed": {"computationCost": "1000", "storageCost": "2500", "storageRebate": 500, "nonRefundableStorageFee": "0"},
  "created": [
    {"owner": "Immutable", "reference": {"objectId": "0x1a", "version": 1, "digest": "d1"}},
    {"owner": {"AddressOwner": "0xabc"}, "reference": {"objectId": "0x1b", "version": "7", "digest": "d2"}},
    {"owner": {"Shared": {"initial_shared_version": 3}}, "reference": {"objectId": "0x1c", "version": 3, "digest": "d3"}},
    {"owner": {"ObjectOwner": "0x1c"}, "reference": {"objectId": "0x1d", "version": 3, "digest": "d4"}},
    {"owner": {"ConsensusAddressOwner": {"owner": "0xabc", "start_version": 2}}, "reference": {"objectId": "0x1e", "version": 3, "digest": "d5"}}
  ],
  "deleted": [{"objectId": "0x9", "version": 2, "digest": "d9"}]
}`

func TestExecutionEffectsUnmarshal(t *testing.T) {
	var fx ExecutionEffects
	require.NoError(t, json.Unmarshal([]byte(sampleEffects), &fx))

	assert.True(t, fx.Status.Succeeded())
	assert.Equal(t, int64(3000), fx.GasUsed.Net())
	require.Len(t, fx.Created, 5)

	modes := make([]OwnershipMode, len(fx.Created))
	for i, e := range fx.Created {
		modes[i] = e.Owner.Mode
	}
	assert.Equal(t, []OwnershipMode{
		OwnershipImmutable, OwnershipAddress, OwnershipShared, OwnershipObject, OwnershipAddress,
	}, modes)

	assert.Equal(t, MustParseObjectID("0x1a"), fx.Created[0].ObjectID)
	assert.Equal(t, uint64(7), fx.Created[1].Version)
	assert.Equal(t, uint64(3), fx.Created[2].Owner.InitialSharedVersion)
	assert.Equal(t, "0xabc", fx.Created[4].Owner.Address)
	require.Len(t, fx.Deleted, 1)
}

func TestOwnerRoundTrip(t *testing.T) {
	for _, raw := range []string{
		`"Immutable"`,
		`{"AddressOwner":"0xabc"}`,
		`{"ObjectOwner":"0xdef"}`,
		`{"Shared":{"initial_shared_version":9}}`,
	} {
		var o Owner
		require.NoError(t, json.Unmarshal([]byte(raw), &o))
		out, err := json.Marshal(o)
		require.NoError(t, err)
		assert.JSONEq(t, raw, string(out))
	}
}

func TestOwnerUnknownForm(t *testing.T) {
	var o Owner
	require.NoError(t, json.Unmarshal([]byte(`{"FutureOwner":{}}`), &o))
	assert.Equal(t, OwnershipUnknown, o.Mode)
	assert.False(t, o.IsImmutable())
}

func TestAnnotateTypes(t *testing.T) {
	var fx ExecutionEffects
	require.NoError(t, json.Unmarshal([]byte(sampleEffects), &fx))

	fx.AnnotateTypes([]ObjectChange{
		{Type: "published", PackageID: MustParseObjectID("0x1a")},
		{Type: "created", ObjectID: MustParseObjectID("0x1b"), ObjectType: "0x2::package::UpgradeCap"},
	})

	assert.Equal(t, "package", fx.Created[0].ObjectType)
	assert.Equal(t, "0x2::package::UpgradeCap", fx.Created[1].ObjectType)
	assert.Empty(t, fx.Created[2].ObjectType)
}
