package review

// Sink receives review comments for one file.
type Sink interface {
	AddComment(Comment)
}

// Collector is a Sink that keeps comments in memory, in arrival order.
// It is not safe for concurrent use.
type Collector struct {
	Comments []Comment
}

// AddComment appends c.
func (c *Collector) AddComment(cm Comment) {
	c.Comments = append(c.Comments, cm)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Comment)

// AddComment calls f(c).
func (f SinkFunc) AddComment(c Comment) { f(c) }
