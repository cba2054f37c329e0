package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsumerHandleDecodesEvent(t *testing.T) {
	var got EnrollmentCommittedEvent
	c := NewConsumer(nil, "enrollment.committed", func(_ context.Context, ev EnrollmentCommittedEvent) error {
		got = ev
		return nil
	}, zerolog.Nop())

	body := []byte(`{"transaction_id":"pi_1","user_email":"a@x.io","amount":49.5,
		"classes":[{"class_id":"c1","available_seats":9,"total_enrolled":1}]}`)
	require.NoError(t, c.handle(context.Background(), body))

	assert.Equal(t, "pi_1", got.TransactionID)
	assert.Equal(t, "a@x.io", got.UserEmail)
	require.Len(t, got.Classes, 1)
	assert.Equal(t, 9, got.Classes[0].AvailableSeats)
}

func TestConsumerHandleRejectsMalformedBody(t *testing.T) {
	called := false
	c := NewConsumer(nil, "q", func(context.Context, EnrollmentCommittedEvent) error {
		called = true
		return nil
	}, zerolog.Nop())

	err := c.handle(context.Background(), []byte(`{not json`))
	require.Error(t, err)
	assert.False(t, called)
}

func TestConsumerHandlePropagatesHandlerError(t *testing.T) {
	boom := errors.New("boom")
	c := NewConsumer(nil, "q", func(context.Context, EnrollmentCommittedEvent) error { return boom }, zerolog.Nop())

	err := c.handle(context.Background(), []byte(`{"transaction_id":"t"}`))
	assert.ErrorIs(t, err, boom)
}
