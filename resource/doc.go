// Package resource keeps the handle table that backs resource-shaped host
// types.
//
// Reference and allocated layouts of a sequence are exposed to guests as
// borrow<T> and own<T>. The guest only ever sees a Handle; the native value
// lives here:
//
//	table := resource.NewTable()
//	h, err := table.Insert(allocatedType, sequence.NewVector[int32]())
//
//	// type-checked access
//	v, err := table.GetTyped(h, allocatedType)
//
//	// drop; fails while borrows are outstanding
//	_, err = table.Remove(h)
//
// Values implementing Dropper are dropped when their handle is removed or
// the table is closed.
package resource
