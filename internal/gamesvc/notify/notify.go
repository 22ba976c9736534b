package notify

import (
	"encoding/json"

	"github.com/auhoot/trivia-services/internal/comm"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

// Notifier publishes row-change events after every persisted write, one NATS
// topic per table. This is the fan-out every other role reacts to.
type Notifier struct {
	Conn *nats.Conn
}

func NewNotifier(conn *nats.Conn) *Notifier {
	return &Notifier{Conn: conn}
}

func (n *Notifier) Publish(table, changeType string, old, new interface{}) {
	if n == nil || n.Conn == nil {
		return
	}

	ev := comm.ChangeEvent{Table: table, Type: changeType}

	if old != nil {
		data, err := json.Marshal(old)
		if err != nil {
			log.Errorf("notify: unable to marshal old record for %s: %v", table, err)
			return
		}
		ev.Old = data
	}
	if new != nil {
		data, err := json.Marshal(new)
		if err != nil {
			log.Errorf("notify: unable to marshal new record for %s: %v", table, err)
			return
		}
		ev.New = data
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		log.Errorf("notify: unable to marshal change event for %s: %v", table, err)
		return
	}

	topic := comm.TopicChangePrefix + table
	if err := n.Conn.Publish(topic, payload); err != nil {
		log.Errorf("notify: error publishing to topic %s: %v", topic, err)
	}
}

// Subscriber is the subscribing slice of a NATS connection.
type Subscriber interface {
	Subscribe(subj string, cb nats.MsgHandler) (*nats.Subscription, error)
}

// Subscribe delivers change events for one table to handler. Delivery is
// at-least-once; handlers must re-fetch current state rather than trust the
// event payload.
func Subscribe(conn Subscriber, table string, handler func(comm.ChangeEvent)) (*nats.Subscription, error) {
	topic := comm.TopicChangePrefix + table
	return conn.Subscribe(topic, func(msg *nats.Msg) {
		var ev comm.ChangeEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			log.Errorf("notify: invalid change event on %s: %v", topic, err)
			return
		}
		handler(ev)
	})
}
