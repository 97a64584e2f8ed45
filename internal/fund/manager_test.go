package fund

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorizeAndDebit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		initial     int64
		amount      int64
		wantOK      bool
		wantBalance int64
		wantLedger  int
	}{
		{"sufficient funds", 1000, 300, true, 700, 1},
		{"exact balance", 500, 500, true, 0, 1},
		{"insufficient funds", 100, 300, false, 100, 0},
		{"zero amount", 100, 0, true, 100, 1},
		{"negative amount refused", 100, -5, false, 100, 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := NewManager(tt.initial)

			ok := m.AuthorizeAndDebit(tt.amount, "test spend")

			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantBalance, m.Funds())
			assert.Len(t, m.History(0), tt.wantLedger)
		})
	}
}

func TestLedgerRecordsBalance(t *testing.T) {
	t.Parallel()
	m := NewManager(100000)

	require.True(t, m.AuthorizeAndDebit(20000, "announcement"))
	require.True(t, m.AuthorizeAndDebit(9000, "poster batch"))

	history := m.History(0)
	require.Len(t, history, 2)
	assert.Equal(t, int64(20000), history[0].Amount)
	assert.Equal(t, int64(80000), history[0].NewBalance)
	assert.Equal(t, "announcement", history[0].Reason)
	assert.Equal(t, int64(9000), history[1].Amount)
	assert.Equal(t, int64(71000), history[1].NewBalance)
}

func TestHistoryLimit(t *testing.T) {
	t.Parallel()
	m := NewManager(1000)
	for i := 0; i < 5; i++ {
		require.True(t, m.AuthorizeAndDebit(100, "spend"))
	}

	assert.Len(t, m.History(3), 3)
	assert.Len(t, m.History(0), 5)
	assert.Len(t, m.History(10), 5)

	// Limited view keeps the most recent entries.
	last := m.History(2)
	assert.Equal(t, int64(600), last[0].NewBalance)
	assert.Equal(t, int64(500), last[1].NewBalance)
}

func TestHistoryIsCopy(t *testing.T) {
	t.Parallel()
	m := NewManager(1000)
	require.True(t, m.AuthorizeAndDebit(100, "spend"))

	h := m.History(0)
	h[0].Amount = 999999

	assert.Equal(t, int64(100), m.History(0)[0].Amount)
}

func TestConcurrentDebitsNeverOverspend(t *testing.T) {
	t.Parallel()
	m := NewManager(1000)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.AuthorizeAndDebit(100, "concurrent spend")
		}()
	}
	wg.Wait()

	// Exactly 10 debits of 100 can succeed against a balance of 1000.
	assert.Equal(t, int64(0), m.Funds())
	assert.Len(t, m.History(0), 10)
}

func TestSummary(t *testing.T) {
	t.Parallel()

	m := NewManager(50000)
	assert.Equal(t, "No cost history.", m.Summary(10))

	require.True(t, m.AuthorizeAndDebit(3000, "poster for 1 areas"))
	got := m.Summary(10)
	assert.Contains(t, got, "Spend 3000 units of funds for poster for 1 areas.")
	assert.Contains(t, got, "Left balance: 47000 units.")
}
