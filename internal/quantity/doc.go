// Package quantity parses free-form package quantities ("500g", "1,5 l",
// "3 Stk"), normalizes them to the base unit of their class (grams,
// milliliters, pieces) and formats numeric quantities for storage.
//
// All functions are pure and safe for concurrent use.
package quantity
