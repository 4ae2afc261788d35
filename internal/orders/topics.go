package orders

const (
	TopicOrderCreated    = "pickup.order.created"
	TopicOrderStatus     = "pickup.order.status"
	TopicOrderCancelled  = "pickup.order.cancelled"
	TopicCustomerArrived = "pickup.order.arrival"
	TopicStockRejected   = "pickup.order.stock.rejected"
	TopicPaymentUpdated  = "pickup.payment.updated"
)

// Partition key = order_id supaya semua event satu order terjaga urutannya.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
