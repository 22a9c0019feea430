package emailsvc

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/hagwon/portal/core"
)

// ServiceMock records sent messages for assertions. Delivery to
// addresses listed in FailAddresses returns an error, so tests can
// exercise partial broadcast failures.
type ServiceMock struct {
	conf *core.Config

	mu            sync.Mutex
	Sent          []core.EmailMessage
	FailAddresses map[string]bool
}

var _ core.EmailService = (*ServiceMock)(nil)

func NewServiceMock(conf *core.Config) *ServiceMock {
	return &ServiceMock{
		conf:          conf,
		Sent:          make([]core.EmailMessage, 0),
		FailAddresses: make(map[string]bool),
	}
}

func (svc *ServiceMock) SendMessages(messages ...*core.EmailMessage) {
	// runs synchronously so tests need not wait
	for _, msg := range messages {
		_ = svc.SendMessage(msg)
	}
}

func (svc *ServiceMock) SendMessage(msg *core.EmailMessage) error {
	if err := msg.Render(svc.conf); err != nil {
		return errors.Wrap(err, "rendering email")
	}
	if !msg.HasRecipients() || !(msg.HasContent() || msg.HasAttachments()) {
		return nil
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()
	for _, to := range msg.To {
		if svc.FailAddresses[to.Address] {
			return errors.Errorf("delivery to %s refused", to.Address)
		}
	}
	svc.Sent = append(svc.Sent, *msg)
	return nil
}

// SentTo reports whether a message was recorded for the given address.
func (svc *ServiceMock) SentTo(address string) bool {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	for _, msg := range svc.Sent {
		for _, to := range msg.To {
			if to.Address == address {
				return true
			}
		}
	}
	return false
}
