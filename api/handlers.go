/*
handlers.go - HTTP handlers for the ledger API

PURPOSE:
  Implements the request handlers: submit a transaction, read the account
  snapshot. Handlers follow a consistent pattern:
  1. Parse and validate input
  2. Call the engine
  3. Serialize response
  4. Map errors to status codes

ERROR HANDLING:
  Recoverable engine rejections map to 4xx with a structured body naming
  the error kind:
  - 404: missing_transaction
  - 409: duplicate_transaction, invalid_transaction_state
  - 422: insufficient_funds
  - 423: account_frozen
  A fatal invariant violation maps to 500 and is logged at error level -
  the ledger is corrupted and the process should be restarted.

CONCURRENCY:
  The engine processes one ordered stream; a mutex serializes Process
  calls so concurrent HTTP submissions are applied in some total order.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/payments-engine/ledger"
	"github.com/warp/payments-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	mu      sync.Mutex
	engine  *ledger.Engine
	journal *sqlite.Journal // optional, may be nil
	log     *zap.Logger
}

// NewHandler creates a handler around one engine. journal may be nil to
// disable audit recording; log may be nil for silence.
func NewHandler(engine *ledger.Engine, journal *sqlite.Journal, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{engine: engine, journal: journal, log: log}
}

// =============================================================================
// TRANSACTION HANDLERS
// =============================================================================

// SubmitTransaction processes one transaction.
// POST /api/transactions
func (h *Handler) SubmitTransaction(w http.ResponseWriter, r *http.Request) {
	var req TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	tx, err := req.toTransaction()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	h.mu.Lock()
	processErr := h.engine.Process(tx)
	acct, _ := h.engine.Account(tx.ClientID)
	h.mu.Unlock()

	if h.journal != nil {
		if err := h.journal.Record(r.Context(), sqlite.EntryFor(tx, processErr)); err != nil {
			h.log.Warn("journal record failed", zap.Error(err))
		}
	}

	if processErr != nil {
		h.writeProcessError(w, tx, processErr)
		return
	}

	writeJSON(w, http.StatusOK, TransactionAcceptedDTO{
		Tx:      uint32(tx.TxID),
		Account: toAccountDTO(acct),
	})
}

// =============================================================================
// ACCOUNT HANDLERS
// =============================================================================

// ListAccounts returns the full account snapshot, ordered by client id.
// GET /api/accounts
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	snapshot := h.engine.Accounts()
	h.mu.Unlock()

	dtos := make([]AccountDTO, 0, len(snapshot))
	for _, acct := range snapshot {
		dtos = append(dtos, toAccountDTO(acct))
	}
	sort.Slice(dtos, func(i, j int) bool { return dtos[i].Client < dtos[j].Client })

	writeJSON(w, http.StatusOK, dtos)
}

// GetAccount returns a single client account.
// GET /api/accounts/{clientID}
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "clientID")
	id, err := strconv.ParseUint(raw, 10, 16)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid client id")
		return
	}

	h.mu.Lock()
	acct, ok := h.engine.Account(ledger.ClientID(id))
	h.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "account_not_found", "client has never been referenced")
		return
	}

	writeJSON(w, http.StatusOK, toAccountDTO(acct))
}

// =============================================================================
// REQUEST VALIDATION
// =============================================================================

func (req TransactionRequest) toTransaction() (ledger.Transaction, error) {
	txnType, ok := ledger.ParseTransactionType(req.Type)
	if !ok {
		return ledger.Transaction{}, errors.New("unknown transaction type")
	}

	clientID := ledger.ClientID(req.Client)
	txID := ledger.TxID(req.Tx)

	switch txnType {
	case ledger.TypeDeposit, ledger.TypeWithdrawal:
		if req.Amount == nil {
			return ledger.Transaction{}, errors.New("amount is required for deposit/withdrawal")
		}
		amount, err := decimal.NewFromString(*req.Amount)
		if err != nil {
			return ledger.Transaction{}, errors.New("invalid amount")
		}
		if txnType == ledger.TypeDeposit {
			return ledger.NewDeposit(clientID, txID, amount), nil
		}
		return ledger.NewWithdrawal(clientID, txID, amount), nil

	case ledger.TypeDispute:
		if req.Amount != nil {
			return ledger.Transaction{}, errors.New("dispute must not carry an amount")
		}
		return ledger.NewDispute(clientID, txID), nil

	case ledger.TypeResolve:
		if req.Amount != nil {
			return ledger.Transaction{}, errors.New("resolve must not carry an amount")
		}
		return ledger.NewResolve(clientID, txID), nil

	default:
		if req.Amount != nil {
			return ledger.Transaction{}, errors.New("chargeback must not carry an amount")
		}
		return ledger.NewChargeback(clientID, txID), nil
	}
}

// =============================================================================
// ERROR MAPPING
// =============================================================================

func (h *Handler) writeProcessError(w http.ResponseWriter, tx ledger.Transaction, err error) {
	if !ledger.IsRecoverable(err) {
		h.log.Error("ledger invariant violated",
			zap.Uint32("tx", uint32(tx.TxID)),
			zap.Uint16("client", uint16(tx.ClientID)),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, "ledger_corrupted", err.Error())
		return
	}

	h.log.Info("transaction rejected",
		zap.Uint32("tx", uint32(tx.TxID)),
		zap.Uint16("client", uint16(tx.ClientID)),
		zap.String("type", string(tx.Type)),
		zap.Error(err))

	switch {
	case errors.Is(err, ledger.ErrDuplicateTransaction):
		writeError(w, http.StatusConflict, "duplicate_transaction", err.Error())
	case errors.Is(err, ledger.ErrInvalidTransactionState):
		writeError(w, http.StatusConflict, "invalid_transaction_state", err.Error())
	case errors.Is(err, ledger.ErrMissingTransaction):
		writeError(w, http.StatusNotFound, "missing_transaction", err.Error())
	case errors.Is(err, ledger.ErrInsufficientFunds):
		writeError(w, http.StatusUnprocessableEntity, "insufficient_funds", err.Error())
	case errors.Is(err, ledger.ErrAccountFrozen):
		writeError(w, http.StatusLocked, "account_frozen", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, ErrorResponse{Kind: kind, Message: message})
}
