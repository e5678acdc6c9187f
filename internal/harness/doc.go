// Package harness runs scripted point-of-sale sessions as executable
// contract tests.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: oversell_rejected
//	description: "What this scenario validates"
//	policy: revalidate          # or trust-cart
//	catalog:                    # optional, replaces the seed catalog
//	  - { id: "a", name: "Pen", category: Stationery, price: "1.25", stock: 2 }
//	steps:
//	  - { action: add, product: "a" }
//	  - { action: adjust, product: "a", delta: 5 }
//	  - { action: set_stock, product: "a", stock: 1 }
//	  - { action: checkout, expect: INSUFFICIENT_STOCK }
//	assertions:
//	  - { type: stock, product: "a", equals: 1 }
//	  - { type: log_size, equals: 0 }
//	  - { type: revenue, amount: "0" }
//
// # Step Actions
//
//   - add, adjust, remove, clear: cart operations
//   - checkout: runs the Checkout Engine on the cart
//   - set_stock, delete_product: catalog edits made mid-session, the way an
//     admin in another window would
//
// A step's expect names the outcome it must produce: ok, noop, missing,
// completed, empty, or a checkout error code.
//
// # Assertion Types
//
//   - stock: final stock of a product
//   - cart_quantity, cart_size: what is left in the cart
//   - log_size: number of recorded transactions
//   - revenue: sum of transaction totals
//
// # Deterministic Testing
//
// Every run uses a fresh in-memory SQLite store, transaction ids tx-1,
// tx-2, ... and a clock fixed at ScenarioTime. Traces are compared as
// canonical JSON against testdata/golden/{name}.golden.
package harness
