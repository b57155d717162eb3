package devledger

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guestdex/internal/codec"
	"guestdex/internal/index"
	"guestdex/internal/ledger"
	"guestdex/internal/pager"
	"guestdex/internal/storage/kv"
	"guestdex/internal/submit"
)

func testOwner() ledger.AccountID {
	var owner ledger.AccountID
	copy(owner[:], "guestbook-program-test-owner-xx!")
	return owner
}

func openTestLedger(t *testing.T) *Ledger {
	t.Helper()
	store, err := kv.Open(kv.BackendPebble, filepath.Join(t.TempDir(), "ledger"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	l, err := Open(testOwner(), store, nil)
	require.NoError(t, err)
	return l
}

func post(t *testing.T, l *Ledger, name, message string) ledger.AccountID {
	t.Helper()
	id := DeriveAccountID(testOwner(), name)
	_, err := submit.PostRecord(context.Background(), l, id, codec.Record{Name: name, Message: message})
	require.NoError(t, err)
	return id
}

func TestSubmitThenFetch(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	id := post(t, l, "Alice", "first post")

	payloads, err := l.FetchBatch(ctx, []ledger.AccountID{id})
	require.NoError(t, err)
	require.Len(t, payloads, 1)

	rec, err := codec.Decode(payloads[0])
	require.NoError(t, err)
	assert.Equal(t, codec.Record{Name: "Alice", Message: "first post"}, rec)
}

func TestFetchBatchMissingIsNil(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	known := post(t, l, "Alice", "hi")
	unknown := DeriveAccountID(testOwner(), "nobody")

	payloads, err := l.FetchBatch(ctx, []ledger.AccountID{unknown, known})
	require.NoError(t, err)
	require.Len(t, payloads, 2)
	assert.Nil(t, payloads[0])
	assert.NotNil(t, payloads[1])
}

func TestScanOwnedSliceAndFilter(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	post(t, l, "Alice", "aaa")
	post(t, l, "Alina", "bbb")
	post(t, l, "Bob", "ccc")

	t.Run("unfiltered full scan", func(t *testing.T) {
		got, err := l.ScanOwned(ctx, testOwner(), nil, nil)
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})

	t.Run("foreign owner sees nothing", func(t *testing.T) {
		var other ledger.AccountID
		other[0] = 0x99
		got, err := l.ScanOwned(ctx, other, nil, nil)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("prefix filter at name offset", func(t *testing.T) {
		got, err := l.ScanOwned(ctx, testOwner(),
			&ledger.BytesFilter{Offset: 4, Bytes: []byte("Ali")}, nil)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("slice returns a window", func(t *testing.T) {
		spec := &ledger.SliceSpec{Offset: 0, Length: 4 + 5}
		got, err := l.ScanOwned(ctx, testOwner(),
			&ledger.BytesFilter{Offset: 4, Bytes: []byte("Alice")}, spec)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.LessOrEqual(t, len(got[0].Data), 9)

		name, err := codec.ExtractName(got[0].Data)
		require.NoError(t, err)
		assert.Equal(t, []byte("Alice"), name)
	})
}

func TestSubmitOverwriteInvalidatesCache(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	id := post(t, l, "Alice", "v1")

	// Warm the read cache, then overwrite.
	_, err := l.FetchBatch(ctx, []ledger.AccountID{id})
	require.NoError(t, err)

	post(t, l, "Alice", "v2")

	payloads, err := l.FetchBatch(ctx, []ledger.AccountID{id})
	require.NoError(t, err)
	rec, err := codec.Decode(payloads[0])
	require.NoError(t, err)
	assert.Equal(t, "v2", rec.Message)
}

func TestRemove(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	id := post(t, l, "Alice", "hi")
	require.NoError(t, l.Remove(ctx, id))

	payloads, err := l.FetchBatch(ctx, []ledger.AccountID{id})
	require.NoError(t, err)
	assert.Nil(t, payloads[0])
}

// TestEndToEndPagination runs the real pipeline: dev ledger, index cache,
// and pager together.
func TestEndToEndPagination(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	for _, name := range []string{"Bob", "Alice", "amy", "Carol", "Ben", "Ada", "Zed"} {
		post(t, l, name, "hello from "+name)
	}

	cache := index.New(l, index.Config{MaxNameLen: 64}, nil, nil)
	engine := pager.New(l, cache, testOwner(), nil, nil)

	first, err := engine.FetchPage(ctx, 1, 5, "", false)
	require.NoError(t, err)
	second, err := engine.FetchPage(ctx, 2, 5, "", false)
	require.NoError(t, err)

	var names []string
	for _, r := range append(first.Records, second.Records...) {
		names = append(names, r.Name)
	}
	// Raw byte order: capitals before lowercase.
	assert.Equal(t, []string{"Ada", "Alice", "Ben", "Bob", "Carol", "Zed", "amy"}, names)

	empty, err := engine.FetchPage(ctx, 3, 5, "", false)
	require.NoError(t, err)
	assert.Empty(t, empty.Records)
}
