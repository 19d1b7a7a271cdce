package token

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtlprog/foodlog/internal/docstore"
	"github.com/mtlprog/foodlog/internal/metrics"
	"github.com/mtlprog/foodlog/internal/model"
)

type fakeLedger struct {
	mu       sync.Mutex
	minted   map[string]decimal.Decimal
	mintErr  error
	mintMemo []string
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{minted: make(map[string]decimal.Decimal)}
}

func (f *fakeLedger) Balance(_ context.Context, account string) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.minted[account], nil
}

func (f *fakeLedger) Mint(_ context.Context, to string, amount decimal.Decimal, memo string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mintErr != nil {
		return "", f.mintErr
	}
	f.minted[to] = f.minted[to].Add(amount)
	f.mintMemo = append(f.mintMemo, memo)
	return "tx-" + to, nil
}

type fakeReviews map[string]*model.Review

func (f fakeReviews) Get(_ context.Context, id string) (*model.Review, error) {
	r, ok := f[id]
	if !ok {
		return nil, errors.New("review not found")
	}
	return r, nil
}

func newTestService(t *testing.T, ledger Ledger, m *metrics.Metrics) (*Service, *docstore.Memory) {
	t.Helper()
	store := docstore.NewMemory()
	reviews := fakeReviews{"r1": {ID: "r1", AuthorID: "author"}}
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	svc, err := NewService(store, ledger, reviews, decimal.RequireFromString("0.5"),
		WithClock(func() time.Time { return now }),
		WithMetrics(m),
	)
	require.NoError(t, err)
	return svc, store
}

func TestNewService(t *testing.T) {
	store := docstore.NewMemory()
	reviews := fakeReviews{}
	one := decimal.NewFromInt(1)

	_, err := NewService(nil, newFakeLedger(), reviews, one)
	assert.Error(t, err)
	_, err = NewService(store, nil, reviews, one)
	assert.Error(t, err)
	_, err = NewService(store, newFakeLedger(), nil, one)
	assert.Error(t, err)
	_, err = NewService(store, newFakeLedger(), reviews, decimal.Zero)
	assert.Error(t, err)
}

func TestService_LikeReview(t *testing.T) {
	ctx := context.Background()

	t.Run("mints to author once", func(t *testing.T) {
		ledger := newFakeLedger()
		svc, _ := newTestService(t, ledger, nil)

		like, err := svc.LikeReview(ctx, "r1", "fan")
		require.NoError(t, err)
		assert.Equal(t, "tx-author", like.TxHash)
		assert.Equal(t, "author", like.AuthorID)

		_, err = svc.LikeReview(ctx, "r1", "fan")
		assert.ErrorIs(t, err, ErrAlreadyLiked)

		bal, err := svc.Balance(ctx, "author")
		require.NoError(t, err)
		assert.Equal(t, "0.5", FormatAmount(bal))
		assert.Equal(t, []string{"like r1"}, ledger.mintMemo)

		liked, err := svc.HasLiked(ctx, "r1", "fan")
		require.NoError(t, err)
		assert.True(t, liked)
		assert.Equal(t, 1, svc.LikeCount(ctx, "r1"))
	})

	t.Run("different likers each mint", func(t *testing.T) {
		ledger := newFakeLedger()
		svc, _ := newTestService(t, ledger, nil)

		for _, liker := range []string{"a", "b", "c"} {
			_, err := svc.LikeReview(ctx, "r1", liker)
			require.NoError(t, err)
		}
		bal, _ := svc.Balance(ctx, "author")
		assert.Equal(t, "1.5", FormatAmount(bal))
		assert.Equal(t, 3, svc.LikeCount(ctx, "r1"))
	})

	t.Run("self like rejected", func(t *testing.T) {
		svc, store := newTestService(t, newFakeLedger(), nil)
		_, err := svc.LikeReview(ctx, "r1", "author")
		assert.ErrorIs(t, err, ErrSelfLike)
		assert.Equal(t, 0, store.Count(docstore.CollectionReviewLikes))
	})

	t.Run("unknown review", func(t *testing.T) {
		svc, _ := newTestService(t, newFakeLedger(), nil)
		_, err := svc.LikeReview(ctx, "missing", "fan")
		assert.Error(t, err)
	})

	t.Run("mint failure releases claim", func(t *testing.T) {
		ledger := newFakeLedger()
		ledger.mintErr = errors.New("horizon down")
		svc, store := newTestService(t, ledger, nil)

		_, err := svc.LikeReview(ctx, "r1", "fan")
		assert.ErrorContains(t, err, "mint reward")
		assert.Equal(t, 0, store.Count(docstore.CollectionReviewLikes))

		ledger.mintErr = nil
		_, err = svc.LikeReview(ctx, "r1", "fan")
		require.NoError(t, err)
	})

	t.Run("claim failure does not mint", func(t *testing.T) {
		ledger := newFakeLedger()
		store := &failingCreateStore{Memory: docstore.NewMemory(), err: errors.New("disk full")}
		svc, err := NewService(store, ledger, fakeReviews{"r1": {ID: "r1", AuthorID: "author"}}, decimal.NewFromInt(1))
		require.NoError(t, err)

		_, err = svc.LikeReview(ctx, "r1", "fan")
		assert.ErrorContains(t, err, "save like")
		assert.Empty(t, ledger.mintMemo)
	})
}

type failingCreateStore struct {
	*docstore.Memory
	err error
}

func (s *failingCreateStore) Create(context.Context, string, string, []byte) error {
	return s.err
}

// slowReadStore delays every read so concurrent callers overlap.
type slowReadStore struct {
	*docstore.Memory
	delay time.Duration
}

func (s *slowReadStore) Get(ctx context.Context, collection, key string) (*docstore.Doc, error) {
	time.Sleep(s.delay)
	return s.Memory.Get(ctx, collection, key)
}

func TestService_LikeReview_ConcurrentSameLiker(t *testing.T) {
	ctx := context.Background()
	ledger := newFakeLedger()
	store := &slowReadStore{Memory: docstore.NewMemory(), delay: 5 * time.Millisecond}
	svc, err := NewService(store, ledger, fakeReviews{"r1": {ID: "r1", AuthorID: "author"}}, decimal.RequireFromString("0.5"))
	require.NoError(t, err)

	const likers = 5
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
		already int
	)
	for range likers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.LikeReview(ctx, "r1", "fan")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				success++
			case errors.Is(err, ErrAlreadyLiked):
				already++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, success)
	assert.Equal(t, likers-1, already)
	assert.Len(t, ledger.mintMemo, 1)
	assert.Equal(t, 1, store.Count(docstore.CollectionReviewLikes))

	bal, err := svc.Balance(ctx, "author")
	require.NoError(t, err)
	assert.Equal(t, "0.5", FormatAmount(bal))
}

func TestService_LikeMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)

	svc, _ := newTestService(t, newFakeLedger(), m)
	ctx := context.Background()

	_, err = svc.LikeReview(ctx, "r1", "fan")
	require.NoError(t, err)
	_, err = svc.LikeReview(ctx, "r1", "fan")
	require.Error(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	statuses := map[string]float64{}
	for _, f := range families {
		if f.GetName() != "foodlog_likes_total" {
			continue
		}
		for _, metric := range f.GetMetric() {
			for _, l := range metric.GetLabel() {
				if l.GetName() == "status" {
					statuses[l.GetValue()] = metric.GetCounter().GetValue()
				}
			}
		}
	}
	assert.Equal(t, map[string]float64{"success": 1, "error": 1}, statuses)
}
