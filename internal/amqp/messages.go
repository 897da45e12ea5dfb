package amqp

import (
	"encoding/json"
	"time"
)

// QueryMessage carries one free-text question through the query queue. The
// ID is caller-assigned and echoed on the answer so requests and responses
// can be correlated.
type QueryMessage struct {
	ID        string    `json:"id"`
	Query     string    `json:"query"`
	Timestamp time.Time `json:"timestamp"`
}

func NewQueryMessage(id, query string) *QueryMessage {
	return &QueryMessage{
		ID:        id,
		Query:     query,
		Timestamp: time.Now(),
	}
}

func (m *QueryMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func QueryMessageFromJSON(data []byte) (*QueryMessage, error) {
	var msg QueryMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// AnswerMessage carries the formatted answer back on the answer queue.
type AnswerMessage struct {
	ID        string    `json:"id"`
	Query     string    `json:"query"`
	Answer    string    `json:"answer"`
	Timestamp time.Time `json:"timestamp"`
}

func NewAnswerMessage(id, query, answer string) *AnswerMessage {
	return &AnswerMessage{
		ID:        id,
		Query:     query,
		Answer:    answer,
		Timestamp: time.Now(),
	}
}

func (m *AnswerMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func AnswerMessageFromJSON(data []byte) (*AnswerMessage, error) {
	var msg AnswerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
