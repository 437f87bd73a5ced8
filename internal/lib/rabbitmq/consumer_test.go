package rabbitmq

import (
	"errors"
	"fmt"
	"testing"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/course-platform/internal/lib/sl"
)

// recordingAcknowledger запоминает, как была завершена доставка.
type recordingAcknowledger struct {
	acked    bool
	nacked   bool
	rejected bool
	requeue  bool
}

func (a *recordingAcknowledger) Ack(uint64, bool) error {
	a.acked = true
	return nil
}

func (a *recordingAcknowledger) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacked = true
	a.requeue = requeue
	return nil
}

func (a *recordingAcknowledger) Reject(_ uint64, requeue bool) error {
	a.rejected = true
	a.requeue = requeue
	return nil
}

func TestSettle(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantAck     bool
		wantNack    bool
		wantReject  bool
		wantRequeue bool
	}{
		{name: "handled", err: nil, wantAck: true},
		{name: "transient failure is requeued", err: errors.New("smtp: connection refused"), wantNack: true, wantRequeue: true},
		{
			name:       "undecodable body is dropped",
			err:        fmt.Errorf("services.HandleSubscriptionEvent: %w: %w", ErrPermanent, errors.New("unexpected end of JSON input")),
			wantReject: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ack := &recordingAcknowledger{}
			d := amqp.Delivery{Acknowledger: ack, DeliveryTag: 7, Body: []byte(`{`)}

			settle(sl.NewDiscardLogger(), d, tt.err)

			assert.Equal(t, tt.wantAck, ack.acked)
			assert.Equal(t, tt.wantNack, ack.nacked)
			assert.Equal(t, tt.wantReject, ack.rejected)
			assert.Equal(t, tt.wantRequeue, ack.requeue)
		})
	}
}
