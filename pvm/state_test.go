package pvm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestServiceAccountEncodeDecodeRoundTrip(t *testing.T) {
	acct := NewServiceAccount()
	acct.Balance = 500
	acct.Octets = 40
	acct.Items = 2
	acct.CodeHash = [HashSize]byte{1, 2, 3}
	key, err := DeriveStateKey(7, KeyForStorage, []byte("k1"), 0)
	require.NoError(t, err)
	acct.Storage = map[[31]byte][]byte{key: []byte("v1")}

	enc := EncodeServiceAccount(acct)
	got, err := DecodeServiceAccount(enc)
	require.NoError(t, err)
	require.Equal(t, acct.Balance, got.Balance)
	require.Equal(t, acct.Octets, got.Octets)
	require.Equal(t, acct.CodeHash, got.CodeHash)
	require.Equal(t, []byte("v1"), got.Storage[key])
}

func TestServiceAccountMinBalance(t *testing.T) {
	acct := NewServiceAccount()
	acct.Items = 2
	acct.Octets = 30
	acct.Gratis = 10
	// max(0, 100 + 10*2 + 1*30 - 10) = 140
	require.Equal(t, uint64(140), acct.MinBalance())

	acct2 := NewServiceAccount()
	acct2.Gratis = 1000
	require.Equal(t, uint64(0), acct2.MinBalance())
}

func TestPartialStateEncodeDecodeRoundTrip(t *testing.T) {
	s := NewPartialState()
	acct := NewServiceAccount()
	acct.Balance = 99
	s.Services[3] = acct
	s.Manager = 1
	s.Delegator = 2
	s.Registrar = 3
	s.Assigners = make([]uint32, AuthQueueSize)
	s.AuthQueues = make([][AuthQueueSize][HashSize]byte, AuthQueueSize)
	s.AlwaysAccers[3] = 1000

	enc := EncodePartialState(s)
	got, _, err := DecodePartialState(enc)
	require.NoError(t, err)
	require.Equal(t, s.Manager, got.Manager)
	require.Equal(t, s.Delegator, got.Delegator)
	require.Equal(t, s.Registrar, got.Registrar)
	require.Contains(t, got.Services, uint32(3))
	require.Equal(t, uint64(99), got.Services[3].Balance)
	require.Equal(t, uint64(1000), got.AlwaysAccers[3])
}

func TestDeferredTransferEncodeDecodeRoundTrip(t *testing.T) {
	tr := &DeferredTransfer{From: 1, To: 2, Amount: 500, GasLimit: 1000}
	copy(tr.Memo[:], []byte("hello"))

	enc := EncodeDeferredTransfer(tr)
	require.Len(t, enc, 4+4+8+MemoSize+8)

	got, consumed, err := DecodeDeferredTransfer(enc)
	require.NoError(t, err)
	require.Equal(t, len(enc), consumed)
	require.Equal(t, tr.From, got.From)
	require.Equal(t, tr.To, got.To)
	require.Equal(t, tr.Amount, got.Amount)
	require.Equal(t, tr.GasLimit, got.GasLimit)
	require.Equal(t, tr.Memo, got.Memo)
}

func TestImplicationsPairEncodeDecodeRoundTrip(t *testing.T) {
	reg := NewImplications(3, NewPartialState(), 4)
	reg.Transfers = []DeferredTransfer{{From: 1, To: 2, Amount: 10}}
	reg.Provided = []Provision{{ServiceID: 3, Blob: []byte("preimage-a")}}
	h := [HashSize]byte{0xAB}
	reg.Yield = &h

	exc := NewImplications(3, NewPartialState(), 4)

	pair := &ImplicationsPair{Regular: reg, Exceptional: exc}
	enc := EncodeImplicationsPair(pair)
	got, err := DecodeImplicationsPair(enc)
	require.NoError(t, err)
	require.Equal(t, uint32(3), got.Regular.ServiceID)
	require.Equal(t, uint32(4), got.Regular.NextFreeID)
	require.NotNil(t, got.Regular.Yield)
	require.Equal(t, h, *got.Regular.Yield)
	require.Len(t, got.Regular.Transfers, 1)
	require.Equal(t, uint64(10), got.Regular.Transfers[0].Amount)
	require.Len(t, got.Regular.Provided, 1)
	require.Equal(t, uint32(3), got.Regular.Provided[0].ServiceID)
	require.Equal(t, "preimage-a", string(got.Regular.Provided[0].Blob))
	require.Nil(t, got.Exceptional.Yield)
}
