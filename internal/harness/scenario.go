package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/campusmart/internal/catalog"
	"github.com/roach88/campusmart/internal/checkout"
)

// Scenario is a scripted POS session: a starting catalog, a sequence of
// cart and inventory steps, and assertions on the final state.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Policy is the checkout stock policy. Empty means revalidate.
	Policy string `yaml:"policy,omitempty"`

	// Catalog replaces the default seed catalog when non-empty.
	Catalog []ProductSpec `yaml:"catalog,omitempty"`

	// Steps run in order against one cart.
	Steps []Step `yaml:"steps"`

	// Assertions are checked after the last step.
	Assertions []Assertion `yaml:"assertions"`
}

// ProductSpec is a catalog entry in scenario YAML. Price is a decimal string.
type ProductSpec struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Category string `yaml:"category"`
	Price    string `yaml:"price"`
	Stock    int    `yaml:"stock"`
}

// Step is one operator action.
type Step struct {
	// Action is one of the Step* constants.
	Action string `yaml:"action"`

	// Product is the product id the action applies to.
	Product string `yaml:"product,omitempty"`

	// Delta is the quantity change for adjust.
	Delta int `yaml:"delta,omitempty"`

	// Stock is the new stock for set_stock.
	Stock int `yaml:"stock,omitempty"`

	// Expect is the expected outcome (see Outcome* constants). Empty means
	// any outcome is accepted.
	Expect string `yaml:"expect,omitempty"`
}

// Step actions.
const (
	StepAdd           = "add"
	StepAdjust        = "adjust"
	StepRemove        = "remove"
	StepClear         = "clear"
	StepCheckout      = "checkout"
	StepSetStock      = "set_stock"
	StepDeleteProduct = "delete_product"
)

// Assertion checks final state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Product is the product id (stock, cart_quantity).
	Product string `yaml:"product,omitempty"`

	// Equals is the expected count (stock, cart_quantity, cart_size,
	// log_size).
	Equals *int `yaml:"equals,omitempty"`

	// Amount is the expected decimal amount (revenue).
	Amount string `yaml:"amount,omitempty"`
}

// Assertion types.
const (
	AssertStock        = "stock"
	AssertCartQuantity = "cart_quantity"
	AssertCartSize     = "cart_size"
	AssertLogSize      = "log_size"
	AssertRevenue      = "revenue"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if _, err := checkout.ParsePolicy(s.Policy); err != nil {
		return err
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, p := range s.Catalog {
		if p.ID == "" {
			return fmt.Errorf("catalog[%d]: id is required", i)
		}
		if !catalog.IsCategory(p.Category) {
			return fmt.Errorf("catalog[%d]: unknown category %q", i, p.Category)
		}
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(i int, step Step) error {
	switch step.Action {
	case StepAdd, StepAdjust, StepRemove, StepSetStock, StepDeleteProduct:
		if step.Product == "" {
			return fmt.Errorf("steps[%d]: product is required for %s", i, step.Action)
		}
	case StepClear, StepCheckout:
	case "":
		return fmt.Errorf("steps[%d]: action is required", i)
	default:
		return fmt.Errorf("steps[%d]: unknown action %q", i, step.Action)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(i int, a Assertion) error {
	switch a.Type {
	case AssertStock, AssertCartQuantity:
		if a.Product == "" {
			return fmt.Errorf("assertions[%d]: product is required for %s", i, a.Type)
		}
		if a.Equals == nil {
			return fmt.Errorf("assertions[%d]: equals is required for %s", i, a.Type)
		}
	case AssertCartSize, AssertLogSize:
		if a.Equals == nil {
			return fmt.Errorf("assertions[%d]: equals is required for %s", i, a.Type)
		}
	case AssertRevenue:
		if a.Amount == "" {
			return fmt.Errorf("assertions[%d]: amount is required for revenue", i)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", i)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", i, a.Type)
	}
	return nil
}
