package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"steel-spark/internal/model"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockChannel is a mock implementation of channel.
type MockChannel struct {
	mock.Mock
}

func (m *MockChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	return m.Called(name, kind, durable, autoDelete, internal, noWait, args).Error(0)
}

func (m *MockChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	return m.Called(ctx, exchange, key, mandatory, immediate, msg).Error(0)
}

func (m *MockChannel) Close() error {
	return m.Called().Error(0)
}

func TestNewAMQPPublisher_DeclaresDurableTopicExchange(t *testing.T) {
	ch := new(MockChannel)
	ch.On("ExchangeDeclare", "orders_exchange", "topic", true, false, false, false, amqp.Table(nil)).Return(nil)

	p, err := newAMQPPublisher(ch, "orders_exchange", zerolog.Nop())

	require.NoError(t, err)
	require.NotNil(t, p)
	ch.AssertExpectations(t)
}

func TestNewAMQPPublisher_DeclareFailureClosesChannel(t *testing.T) {
	ch := new(MockChannel)
	ch.On("ExchangeDeclare", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("access refused"))
	ch.On("Close").Return(nil)

	p, err := newAMQPPublisher(ch, "orders_exchange", zerolog.Nop())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to declare exchange")
	assert.Nil(t, p)
	ch.AssertExpectations(t)
}

func TestAMQPPublisher_Publish(t *testing.T) {
	ctx := context.Background()
	occurred := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	event := model.OrderEvent{
		Type:     TypeCreated,
		OrderID:  "o-1",
		UserID:   "u-1",
		Status:   model.StatusRequested,
		Total:    decimal.NewFromInt(250),
		Occurred: occurred,
	}

	ch := new(MockChannel)
	ch.On("ExchangeDeclare", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	ch.On("PublishWithContext", ctx, "orders_exchange", "order.created", false, false,
		mock.MatchedBy(func(msg amqp.Publishing) bool {
			var decoded model.OrderEvent
			if err := json.Unmarshal(msg.Body, &decoded); err != nil {
				return false
			}
			return msg.DeliveryMode == amqp.Persistent &&
				msg.ContentType == "application/json" &&
				msg.MessageId == "o-1" &&
				decoded.OrderID == "o-1" &&
				decoded.Total.Equal(decimal.NewFromInt(250))
		}),
	).Return(nil)

	p, err := newAMQPPublisher(ch, "orders_exchange", zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, p.Publish(ctx, event))
	ch.AssertExpectations(t)
}

func TestAMQPPublisher_PublishError(t *testing.T) {
	ch := new(MockChannel)
	ch.On("ExchangeDeclare", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	ch.On("PublishWithContext", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(amqp.ErrClosed)

	p, err := newAMQPPublisher(ch, "orders_exchange", zerolog.Nop())
	require.NoError(t, err)

	err = p.Publish(context.Background(), model.OrderEvent{Type: TypeStatusUpdated, OrderID: "o-1"})
	assert.ErrorIs(t, err, amqp.ErrClosed)
}

func TestRoutingKey(t *testing.T) {
	assert.Equal(t, "order.price_updated", RoutingKey(TypePriceUpdated))
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), model.OrderEvent{}))
	assert.NoError(t, p.Close())
}
