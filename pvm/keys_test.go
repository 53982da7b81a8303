package pvm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeriveStateKeyLength(t *testing.T) {
	key, err := DeriveStateKey(42, KeyForStorage, []byte("some-key"), 0)
	require.NoError(t, err)
	require.Len(t, key, 31)
}

func TestDeriveStateKeyInterleavesServiceID(t *testing.T) {
	key, err := DeriveStateKey(0x01020304, KeyForStorage, []byte("k"), 0)
	require.NoError(t, err)
	// s's little-endian bytes occupy the even positions of the first 8 bytes.
	require.Equal(t, byte(0x04), key[0])
	require.Equal(t, byte(0x03), key[2])
	require.Equal(t, byte(0x02), key[4])
	require.Equal(t, byte(0x01), key[6])
}

func TestDeriveStateKeyDiscriminantsProduceDistinctKeys(t *testing.T) {
	kStorage, err := DeriveStateKey(1, KeyForStorage, []byte("x"), 0)
	require.NoError(t, err)
	kPreimage, err := DeriveStateKey(1, KeyForPreimage, []byte("x"), 0)
	require.NoError(t, err)
	kRequest, err := DeriveStateKey(1, KeyForRequest, []byte("x"), 5)
	require.NoError(t, err)

	require.NotEqual(t, kStorage, kPreimage)
	require.NotEqual(t, kStorage, kRequest)
	require.NotEqual(t, kPreimage, kRequest)
}

func TestDeriveStateKeyRequestVariesByLength(t *testing.T) {
	k5, err := DeriveStateKey(1, KeyForRequest, []byte("hash"), 5)
	require.NoError(t, err)
	k6, err := DeriveStateKey(1, KeyForRequest, []byte("hash"), 6)
	require.NoError(t, err)
	require.NotEqual(t, k5, k6)
}

func TestDeriveStateKeyPassthroughOn27Bytes(t *testing.T) {
	already := make([]byte, 27)
	for i := range already {
		already[i] = byte(i)
	}
	key, err := DeriveStateKey(9, KeyForStorage, already, 0)
	require.NoError(t, err)

	sBytes := EncodeFixed(9, 4)
	for i := 0; i < 4; i++ {
		require.Equal(t, sBytes[i], key[2*i])
		require.Equal(t, already[i], key[2*i+1])
	}
	require.Equal(t, already[4:27], key[8:31])
}

func TestDeriveStateKeyDeterministic(t *testing.T) {
	k1, err := DeriveStateKey(5, KeyForStorage, []byte("repeat"), 0)
	require.NoError(t, err)
	k2, err := DeriveStateKey(5, KeyForStorage, []byte("repeat"), 0)
	require.NoError(t, err)
	require.Equal(t, k1, k2)
}
