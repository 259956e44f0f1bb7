package idallocator

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"
	"testing"

	"github.com/go-petr/bibliotech/internal/domain"
	"github.com/golang/mock/gomock"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestAllocateConcurrentCallers(t *testing.T) {
	t.Parallel()

	const callers = 8

	ctrl := gomock.NewController(t)
	src := NewMockSource(ctrl)
	src.EXPECT().MaxID(gomock.Any(), domain.RecordTransactions).Return(int32(0), nil).Times(callers)

	a := New(src)

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		got []int
	)

	for i := 0; i < callers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			id, err := a.Allocate(context.Background(), domain.RecordTransactions)
			if err != nil {
				t.Errorf("a.Allocate() returned error: %v", err)
				return
			}

			mu.Lock()
			got = append(got, int(id))
			mu.Unlock()
		}()
	}

	wg.Wait()
	sort.Ints(got)

	want := []int{1, 2, 3, 4, 5, 6, 7, 8}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("allocated ids mismatch (-want, +got):\n%s", diff)
	}
}

func TestAllocate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ctrl := gomock.NewController(t)
	src := NewMockSource(ctrl)

	gomock.InOrder(
		src.EXPECT().MaxID(gomock.Any(), domain.RecordTransactions).Return(int32(5), nil),
		src.EXPECT().MaxID(gomock.Any(), domain.RecordTransactions).Return(int32(10), nil),
		src.EXPECT().MaxID(gomock.Any(), domain.RecordTransactions).Return(int32(3), nil),
	)
	src.EXPECT().MaxID(gomock.Any(), domain.RecordAccounts).Return(int32(0), nil)

	a := New(src)

	for _, want := range []int32{6, 11, 12} {
		got, err := a.Allocate(ctx, domain.RecordTransactions)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	got, err := a.Allocate(ctx, domain.RecordAccounts)
	require.NoError(t, err)
	require.Equal(t, int32(1), got)
}

func TestAllocateErrors(t *testing.T) {
	t.Parallel()

	errDB := errors.New("connection refused")

	testCases := []struct {
		name       string
		buildStubs func(src *MockSource)
		wantError  error
	}{
		{
			name: "SourceError",
			buildStubs: func(src *MockSource) {
				src.EXPECT().MaxID(gomock.Any(), gomock.Any()).Return(int32(0), errDB)
			},
			wantError: errDB,
		},
		{
			name: "Exhausted",
			buildStubs: func(src *MockSource) {
				src.EXPECT().MaxID(gomock.Any(), gomock.Any()).Return(int32(math.MaxInt32), nil)
			},
			wantError: domain.ErrIDSpaceExhausted,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			src := NewMockSource(ctrl)
			tc.buildStubs(src)

			got, err := New(src).Allocate(context.Background(), domain.RecordTransactions)
			require.ErrorIs(t, err, tc.wantError)
			require.Zero(t, got)
		})
	}
}
