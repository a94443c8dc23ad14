package emailsvc

import "github.com/trezcool/masomo-dashboard/core"

type messageSender interface {
	sendMessage(msg *core.EmailMessage)
}

type syncService struct {
	sender messageSender
}

// Synchronous returns a service sending messages one after the other, in the caller's goroutine.
// Use it in short-lived processes which would otherwise exit before the messages are sent.
func Synchronous(svc core.EmailService) core.EmailService {
	if sender, ok := svc.(messageSender); ok {
		return syncService{sender: sender}
	}
	return svc
}

func (svc syncService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		svc.sender.sendMessage(msg)
	}
}
