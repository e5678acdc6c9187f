package harness

// TraceEvent records one step and the cart state right after it.
type TraceEvent struct {
	Seq     int    `json:"seq"`
	Action  string `json:"action"`
	Product string `json:"product,omitempty"`

	// Outcome is one of the Outcome* constants or a checkout error code.
	Outcome string `json:"outcome"`

	// Quantity is the cart quantity of Product after the step.
	Quantity int `json:"quantity,omitempty"`

	CartTotal string `json:"cart_total"`
	CartItems int    `json:"cart_items"`

	// Transaction is set for a completed checkout.
	Transaction *TransactionSummary `json:"transaction,omitempty"`
}

// TransactionSummary is the part of a recorded sale a trace keeps.
type TransactionSummary struct {
	ID        string `json:"id"`
	Total     string `json:"total"`
	Items     int    `json:"items"`
	Timestamp string `json:"timestamp"`
}

// Step outcomes.
const (
	OutcomeOK        = "ok"
	OutcomeNoop      = "noop"
	OutcomeMissing   = "missing"
	OutcomeCompleted = "completed"
	OutcomeEmpty     = "empty"
)

// FinalState is the store state after the last step.
type FinalState struct {
	// Stock maps product id to stock for every product still in the catalog.
	Stock   map[string]int `json:"stock"`
	LogSize int            `json:"log_size"`
	Revenue string         `json:"revenue"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every step expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace has one event per step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Final is the state the assertions were checked against.
	Final FinalState `json:"final"`

	// cart quantities at the end, for cart assertions
	cartQty  map[string]int
	cartSize int
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Trace:   []TraceEvent{},
		Errors:  []string{},
		cartQty: make(map[string]int),
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
