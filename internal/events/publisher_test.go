package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/SAP-F-2025/delivery-service/internal/models"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSession() (*models.Submission, *models.Assessment) {
	started := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	completed := started.Add(time.Hour)
	reason := models.ReasonTimeLimit
	sub := &models.Submission{
		ID:               42,
		AssessmentID:     3,
		UserID:           "user-1",
		Status:           models.SubmissionComplete,
		StartedAt:        &started,
		CompletedAt:      &completed,
		CompletionReason: &reason,
	}
	assessment := &models.Assessment{
		ID:    3,
		Title: "Final",
		Sections: []models.Section{
			{ID: 1, Questions: []models.Question{{ID: 1}, {ID: 2}}},
		},
	}
	return sub, assessment
}

type failingPublisher struct{}

func (failingPublisher) Publish(topic string, messages ...*message.Message) error {
	return errors.New("broker unavailable")
}

func (failingPublisher) Close() error { return nil }

func TestNewSubmissionCompletedEvent(t *testing.T) {
	sub, assessment := testSession()

	event := NewSubmissionCompletedEvent(sub, assessment, 1)
	assert.Equal(t, EventSubmissionAutoCompleted, event.Type)
	assert.Equal(t, "delivery-service", event.Source)
	assert.NotEmpty(t, event.ID)

	data, ok := event.Data.(SubmissionCompletedEvent)
	require.True(t, ok)
	assert.Equal(t, models.ReasonTimeLimit, data.Reason)
	assert.Equal(t, 2, data.QuestionCount)
	assert.Equal(t, 1, data.AnsweredCount)

	finished := models.ReasonFinished
	sub.CompletionReason = &finished
	assert.Equal(t, EventSubmissionCompleted, NewSubmissionCompletedEvent(sub, assessment, 2).Type)
}

func TestKafkaEventPublisher_Publish(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{Persistent: true}, watermill.NopLogger{})
	defer pubSub.Close()

	publisher := newKafkaEventPublisher(pubSub, PublisherConfig{
		TopicName: "submission-events",
		Logger:    discardLogger(),
	})

	sub, assessment := testSession()
	event := NewSubmissionEnteredEvent(sub, assessment, true)
	require.NoError(t, publisher.Publish(context.Background(), event))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	messages, err := pubSub.Subscribe(ctx, "submission-events")
	require.NoError(t, err)

	select {
	case msg := <-messages:
		msg.Ack()
		assert.Equal(t, event.ID, msg.UUID)
		assert.Equal(t, "submission.entered", msg.Metadata.Get("event_type"))
		assert.Equal(t, "42", msg.Metadata.Get("submission_id"))

		var decoded struct {
			Type EventType              `json:"type"`
			Data SubmissionEnteredEvent `json:"data"`
		}
		require.NoError(t, json.Unmarshal(msg.Payload, &decoded))
		assert.Equal(t, EventSubmissionEntered, decoded.Type)
		assert.Equal(t, "Final", decoded.Data.AssessmentTitle)
		assert.True(t, decoded.Data.Resumed)
	case <-ctx.Done():
		t.Fatal("no message received")
	}
}

func TestKafkaEventPublisher_PublishError(t *testing.T) {
	publisher := newKafkaEventPublisher(failingPublisher{}, PublisherConfig{
		TopicName: "submission-events",
		Logger:    discardLogger(),
	})

	sub, assessment := testSession()
	err := publisher.Publish(context.Background(), NewSubmissionCompletedEvent(sub, assessment, 0))
	assert.ErrorContains(t, err, "broker unavailable")
}

func TestMockEventPublisher(t *testing.T) {
	publisher := NewMockEventPublisher(discardLogger())
	sub, assessment := testSession()

	require.NoError(t, publisher.Publish(context.Background(), NewSubmissionEnteredEvent(sub, assessment, false)))
	events := publisher.GetPublishedEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventSubmissionEntered, events[0].Type)

	publisher.ClearEvents()
	assert.Empty(t, publisher.GetPublishedEvents())
}
