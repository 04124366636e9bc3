package printing

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	apptrade "github.com/retail-erp/backend/internal/application/trade"
)

const printQueueKey = "erp:print-queue"

// RedisPrintQueue queues receipts on a Redis list. A separate worker process
// near the POS hardware pops entries and drives the printer.
type RedisPrintQueue struct {
	client *redis.Client
}

// NewRedisPrintQueue creates a new print queue on the given client
func NewRedisPrintQueue(client *redis.Client) *RedisPrintQueue {
	return &RedisPrintQueue{client: client}
}

// Enqueue pushes the receipt as JSON onto the print queue
func (q *RedisPrintQueue) Enqueue(ctx context.Context, receipt apptrade.Receipt) error {
	payload, err := json.Marshal(receipt)
	if err != nil {
		return fmt.Errorf("failed to marshal receipt: %w", err)
	}
	if err := q.client.LPush(ctx, printQueueKey, payload).Err(); err != nil {
		return fmt.Errorf("failed to enqueue receipt: %w", err)
	}
	return nil
}

var _ apptrade.ReceiptPrinter = (*RedisPrintQueue)(nil)
