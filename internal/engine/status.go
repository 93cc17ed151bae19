package engine

// Status is a point-in-time snapshot of a book's counters. Observer-queue
// drops and observer removals are silent to the caller except through the
// counters exposed here; snapshot depth clamps are not counted.
type Status struct {
	OrdersAccepted  uint64
	OrdersRejected  uint64
	TradesEmitted   uint64
	ObserverDropped uint64
	ObserverRemoved uint64
	BidLevels       int
	AskLevels       int
}
