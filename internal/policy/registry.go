// Package policy holds the read-only reference data that drives requestability:
// holding location policies, recap customer code policies, M2 customer code
// policies and the on-site electronic delivery criteria.
//
// A Snapshot is built once at startup from a Document and never mutated, so
// it is safe for concurrent readers without locking.
package policy

// Registry is the read contract consumed by the resolution engine. Lookups
// for unknown codes report ok=false.
type Registry interface {
	LocationPolicy(code string) (LocationPolicy, bool)
	RecapCustomerCodePolicy(code string) (RecapCustomerCodePolicy, bool)
	M2CustomerCodePolicy(code string) (M2CustomerCodePolicy, bool)
	OnsiteEddCriteria() OnsiteEddCriteria
}
