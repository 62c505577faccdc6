package csvio_test

import (
	"io"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payments-engine/csvio"
	"github.com/warp/payments-engine/ledger"
)

// =============================================================================
// READER
// =============================================================================

func TestReader_DecodesAllFiveTypes(t *testing.T) {
	input := strings.Join([]string{
		"type,client,tx,amount",
		"deposit,1,1,10.0",
		"withdrawal,1,2,5.0",
		"dispute,1,1,",
		"resolve,1,1,",
		"chargeback,1,1,",
	}, "\n")

	txs, err := csvio.NewReader(strings.NewReader(input)).ReadAll()

	require.NoError(t, err)
	require.Len(t, txs, 5)
	assert.Equal(t, ledger.TypeDeposit, txs[0].Type)
	assert.Equal(t, ledger.ClientID(1), txs[0].ClientID)
	assert.Equal(t, ledger.TxID(1), txs[0].TxID)
	assert.Equal(t, "10", txs[0].Amount.String())
	assert.Equal(t, ledger.TypeWithdrawal, txs[1].Type)
	assert.Equal(t, ledger.TypeDispute, txs[2].Type)
	assert.True(t, txs[2].Amount.IsZero())
	assert.Equal(t, ledger.TypeResolve, txs[3].Type)
	assert.Equal(t, ledger.TypeChargeback, txs[4].Type)
}

func TestReader_TrimsSurroundingWhitespace(t *testing.T) {
	input := "type, client, tx, amount\n" +
		"deposit,  1 ,  1 ,  10.5  \n"

	txs, err := csvio.NewReader(strings.NewReader(input)).ReadAll()

	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, ledger.ClientID(1), txs[0].ClientID)
	assert.Equal(t, "10.5", txs[0].Amount.String())
}

func TestReader_LifecycleRowWithThreeFields(t *testing.T) {
	input := "type,client,tx,amount\ndispute,1,1\n"

	txs, err := csvio.NewReader(strings.NewReader(input)).ReadAll()

	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, ledger.TypeDispute, txs[0].Type)
}

func TestReader_RejectsMalformedRows(t *testing.T) {
	tests := []struct {
		name string
		row  string
	}{
		{"unknown type", "refund,1,1,10.0"},
		{"bad client id", "deposit,abc,1,10.0"},
		{"client id overflow", "deposit,70000,1,10.0"},
		{"bad tx id", "deposit,1,xyz,10.0"},
		{"bad amount", "deposit,1,1,ten"},
		{"deposit without amount", "deposit,1,1,"},
		{"withdrawal without amount", "withdrawal,1,1"},
		{"dispute with amount", "dispute,1,1,10.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := "type,client,tx,amount\n" + tt.row + "\n"
			_, err := csvio.NewReader(strings.NewReader(input)).ReadAll()

			require.Error(t, err)
			assert.True(t, csvio.IsDecodeError(err))
			var de *csvio.DecodeError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, 2, de.Line)
		})
	}
}

func TestReader_EmptyInput(t *testing.T) {
	r := csvio.NewReader(strings.NewReader(""))

	_, err := r.Read()
	assert.Equal(t, io.EOF, err)

	txs, err := csvio.NewReader(strings.NewReader("")).ReadAll()
	assert.NoError(t, err)
	assert.Empty(t, txs)
}

// =============================================================================
// WRITER
// =============================================================================

func TestWriteAccounts_FourDecimalFormatting(t *testing.T) {
	eng := ledger.NewEngine()
	require.NoError(t, eng.Process(ledger.NewDeposit(1, 1, dec("10"))))
	require.NoError(t, eng.Process(ledger.NewWithdrawal(1, 2, dec("4.5"))))

	var out strings.Builder
	require.NoError(t, csvio.WriteAccounts(&out, eng.Accounts()))

	assert.Equal(t,
		"client,available,held,total,locked\n"+
			"1,5.5000,0.0000,5.5000,false\n",
		out.String())
}

func TestWriteAccounts_SortedByClientID(t *testing.T) {
	eng := ledger.NewEngine()
	require.NoError(t, eng.Process(ledger.NewDeposit(3, 1, dec("1"))))
	require.NoError(t, eng.Process(ledger.NewDeposit(1, 2, dec("2"))))
	require.NoError(t, eng.Process(ledger.NewDeposit(2, 3, dec("3"))))

	var out strings.Builder
	require.NoError(t, csvio.WriteAccounts(&out, eng.Accounts()))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[1], "1,"))
	assert.True(t, strings.HasPrefix(lines[2], "2,"))
	assert.True(t, strings.HasPrefix(lines[3], "3,"))
}

// =============================================================================
// END TO END - decode, replay, serialize
// =============================================================================

func TestRoundTrip_DepositWithdrawal(t *testing.T) {
	input := strings.Join([]string{
		"type,client,tx,amount",
		"deposit,1,1,10.0",
		"withdrawal,1,2,5.0",
	}, "\n")

	out := replay(t, input)

	assert.Equal(t,
		"client,available,held,total,locked\n"+
			"1,5.0000,0.0000,5.0000,false\n",
		out)
}

func TestRoundTrip_DisputeChargebackLocksAccount(t *testing.T) {
	input := strings.Join([]string{
		"type,client,tx,amount",
		"deposit,1,1,10.0",
		"dispute,1,1,",
		"chargeback,1,1,",
	}, "\n")

	out := replay(t, input)

	assert.Equal(t,
		"client,available,held,total,locked\n"+
			"1,0.0000,0.0000,0.0000,true\n",
		out)
}

// replay feeds input through a fresh engine, skipping recoverable
// rejections, and returns the snapshot CSV.
func replay(t *testing.T, input string) string {
	t.Helper()

	eng := ledger.NewEngine()
	r := csvio.NewReader(strings.NewReader(input))
	for {
		tx, err := r.Read()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		if err := eng.Process(tx); err != nil {
			require.True(t, ledger.IsRecoverable(err))
		}
	}

	var out strings.Builder
	require.NoError(t, csvio.WriteAccounts(&out, eng.Accounts()))
	return out.String()
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
