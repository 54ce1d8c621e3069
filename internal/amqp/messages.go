package amqp

import (
	"encoding/json"
	"time"

	"homemoney/internal/core"
)

// ExpenseCreatedMessage announces a persisted expense. It carries the full
// record so consumers do not need access to the server's storage.
type ExpenseCreatedMessage struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Remark    string    `json:"remark"`
	Amount    float64   `json:"amount"`
	Time      string    `json:"time"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExpenseCreatedMessage(id int64, rec core.ExpenseRecord) *ExpenseCreatedMessage {
	return &ExpenseCreatedMessage{
		ID:        id,
		Type:      rec.Type,
		Remark:    rec.Remark,
		Amount:    rec.Amount,
		Time:      rec.Time,
		Timestamp: time.Now(),
	}
}

// Record returns the expense carried by the message.
func (m *ExpenseCreatedMessage) Record() core.ExpenseRecord {
	return core.ExpenseRecord{Type: m.Type, Remark: m.Remark, Amount: m.Amount, Time: m.Time}
}

func (m *ExpenseCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExpenseCreatedMessageFromJSON(data []byte) (*ExpenseCreatedMessage, error) {
	var msg ExpenseCreatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
