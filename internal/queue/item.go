package queue

// Item is the minimal data placed on the queue.
// Workers fetch the full Reminder from the repository using the ID,
// keeping the queue lightweight and the stored data authoritative.
type Item struct {
	ReminderID string
}
