// Package schema defines the contract between form state and an external
// validation library: a SafeParser returns either a value or an ordered list
// of path+message issues, and ErrorMap folds those issues into the flattened
// error mapping the validator displays. Concrete adapters live in
// subpackages (see schema/openapi).
package schema
