package order

// Operation is the kind of mutation carried by a ChangeEvent. The values match
// the operationType strings of a MongoDB change stream; the Postgres backend
// maps its trigger operations onto the same set.
type Operation string

const (
	OpInsert  Operation = "insert"
	OpUpdate  Operation = "update"
	OpReplace Operation = "replace"
	OpDelete  Operation = "delete"
)

// ChangeEvent is one mutation of an order document observed on the store's
// change feed.
type ChangeEvent struct {
	Operation Operation
	OrderID   string // 24-char hex of the mutated document

	// UpdatedFields holds the new values of the fields changed by an update.
	// Nil for every other operation.
	UpdatedFields map[string]any
}

// StatusChange returns the new status value when the event changed the status
// field to a string. ok is false when status was not part of the change or was
// set to a non-string value.
func (e ChangeEvent) StatusChange() (status string, ok bool) {
	v, present := e.UpdatedFields["status"]
	if !present {
		return "", false
	}
	status, ok = v.(string)
	return status, ok
}

// BecameReady reports whether the event is an update whose changed fields
// include status with the new value exactly StatusReady. Every other event,
// including inserts of already-ready orders and replacements, is not a ready
// transition.
func (e ChangeEvent) BecameReady() bool {
	if e.Operation != OpUpdate {
		return false
	}
	status, ok := e.StatusChange()
	return ok && status == StatusReady
}
