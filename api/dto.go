/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal ledger model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

FORMATTING:
  Balance fields are 4-decimal fixed strings, matching the CSV snapshot
  format, so API consumers and CSV consumers see identical values.

SEE ALSO:
  - handlers.go: Uses these types
  - csvio/writer.go: The CSV counterpart of AccountDTO
*/
package api

import (
	"github.com/warp/payments-engine/ledger"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// TransactionRequest is the request to submit one transaction.
// Amount is required for deposit/withdrawal and must be omitted otherwise.
type TransactionRequest struct {
	Type   string  `json:"type"`
	Client uint16  `json:"client"`
	Tx     uint32  `json:"tx"`
	Amount *string `json:"amount,omitempty"`
}

// AccountDTO represents one client account in API responses.
type AccountDTO struct {
	Client    uint16 `json:"client"`
	Available string `json:"available"`
	Held      string `json:"held"`
	Total     string `json:"total"`
	Locked    bool   `json:"locked"`
}

func toAccountDTO(acct ledger.Account) AccountDTO {
	return AccountDTO{
		Client:    uint16(acct.ClientID),
		Available: acct.Available.StringFixed(4),
		Held:      acct.Held.StringFixed(4),
		Total:     acct.Total().StringFixed(4),
		Locked:    acct.Locked,
	}
}

// TransactionAcceptedDTO confirms a processed transaction and echoes the
// resulting account state.
type TransactionAcceptedDTO struct {
	Tx      uint32     `json:"tx"`
	Account AccountDTO `json:"account"`
}

// ErrorResponse is the JSON error body. Kind is the machine-readable error
// taxonomy name; clients match on it, never on the message.
type ErrorResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}
