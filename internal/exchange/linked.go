package exchange

import (
	"github.com/Ranothil/nautilus-trader/internal/schema"
)

// checkOCOOrder runs the one-cancels-other cascade for the given order id:
// both directions of the pair are removed, a paired bracket child that never
// started working is rejected, and a paired working order is cancelled.
func (e *Exchange) checkOCOOrder(id schema.ClientOrderID) {
	otherID, ok := e.ocoOrders[id]
	if !ok {
		return
	}
	delete(e.ocoOrders, id)
	delete(e.ocoOrders, otherID)

	if child := e.findPendingChild(otherID); child != nil {
		child.State = schema.OrderStateRejected
		e.emit(schema.OrderRejected{
			EventMeta:     e.eventMeta(),
			AccountID:     e.account.ID,
			ClientOrderID: child.ClientOrderID,
			Reason:        "OCO order rejected from " + string(id),
			RejectedTime:  e.clock.Now(),
		})
	}

	if working, ok := e.workingOrders[otherID]; ok {
		e.removeWorking(otherID)
		e.cancelOrder(working)
	}
}

// findPendingChild returns the bracket child with the given id that is
// neither working nor completed, or nil.
func (e *Exchange) findPendingChild(id schema.ClientOrderID) *schema.Order {
	for _, children := range e.childOrders {
		for _, child := range children {
			if child.ClientOrderID != id {
				continue
			}
			if child.IsWorking() || child.IsCompleted() {
				return nil
			}
			return child
		}
	}
	return nil
}

// cleanUpChildOrders drops the bracket entry for the given parent, if any.
// No event is emitted.
func (e *Exchange) cleanUpChildOrders(id schema.ClientOrderID) {
	delete(e.childOrders, id)
}
