package domain

// MessageBus routes messages from channels to the moderation loop and
// actions back to channels.
type MessageBus interface {
	Publish(msg Message)
	Subscribe() <-chan Message
	SendAction(act Action)
	OnAction(channelName string, handler func(Action))
	Close()
}
