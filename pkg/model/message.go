package model

// Message is one immutable chat message. Timestamps are epoch milliseconds;
// ids are time-ordered so sorting by id matches insertion order.
type Message struct {
	ID        int64  `json:"id"`
	UserID    string `json:"userId"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}
