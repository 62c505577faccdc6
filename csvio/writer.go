/*
writer.go - Account snapshot serialization

PURPOSE:
  Serializes the engine's account snapshot to CSV with 4-decimal fixed
  formatting. Total is recomputed at write time from available + held, so
  the output can never disagree with its components.

OUTPUT:
  client,available,held,total,locked
  1,5.0000,0.0000,5.0000,false

  The engine view is unordered; rows are sorted by client id here so the
  output is deterministic.
*/
package csvio

import (
	"encoding/csv"
	"io"
	"sort"
	"strconv"

	"github.com/warp/payments-engine/ledger"
)

// =============================================================================
// WRITER - Account snapshot serialization
// =============================================================================

// WriteAccounts serializes accounts to w, sorted by client id, with
// 4-decimal fixed balance formatting.
func WriteAccounts(w io.Writer, accounts map[ledger.ClientID]ledger.Account) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"client", "available", "held", "total", "locked"}); err != nil {
		return err
	}

	ids := make([]ledger.ClientID, 0, len(accounts))
	for id := range accounts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		acct := accounts[id]
		row := []string{
			strconv.FormatUint(uint64(id), 10),
			acct.Available.StringFixed(4),
			acct.Held.StringFixed(4),
			acct.Total().StringFixed(4),
			strconv.FormatBool(acct.Locked),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
