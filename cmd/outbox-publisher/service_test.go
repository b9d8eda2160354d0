package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/havenwerk/verhuur-backend/pkg/config"
	"github.com/havenwerk/verhuur-backend/pkg/db/models"
	"github.com/havenwerk/verhuur-backend/pkg/enums"
	"github.com/havenwerk/verhuur-backend/pkg/logger"
	"github.com/havenwerk/verhuur-backend/pkg/outbox"
)

type fakeResult struct {
	err error
}

func (r *fakeResult) Get(context.Context) (string, error) {
	return "msg-1", r.err
}

type fakePublisher struct {
	err       error
	published []*gcppubsub.Message
}

func (p *fakePublisher) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	p.published = append(p.published, msg)
	return &fakeResult{err: p.err}
}

func publisherFixture(t *testing.T, pub publisher) (*gorm.DB, *Service) {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.OutboxEvent{}))

	svc, err := NewService(ServiceParams{
		Config:    &config.Config{},
		Logger:    logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Repo:      outbox.NewRepository(conn),
		Publisher: pub,
	})
	require.NoError(t, err)
	return conn, svc
}

func seedEvent(t *testing.T, conn *gorm.DB) models.OutboxEvent {
	t.Helper()
	event := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventInvoiceCreated,
		AggregateType: enums.AggregateInvoice,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{"version":1,"data":{}}`),
	}
	require.NoError(t, conn.Create(&event).Error)
	return event
}

func TestProcessBatch_PublishesAndMarks(t *testing.T) {
	pub := &fakePublisher{}
	conn, svc := publisherFixture(t, pub)
	event := seedEvent(t, conn)

	processed, err := svc.processBatch(context.Background())
	require.NoError(t, err)
	assert.True(t, processed)

	require.Len(t, pub.published, 1)
	assert.Equal(t, string(event.Payload), string(pub.published[0].Data))
	assert.Equal(t, "invoice.created", pub.published[0].Attributes["event_type"])

	var stored models.OutboxEvent
	require.NoError(t, conn.First(&stored, "id = ?", event.ID).Error)
	require.NotNil(t, stored.PublishedAt)
}

func TestProcessBatch_FailureIncrementsAttempts(t *testing.T) {
	pub := &fakePublisher{err: errors.New("topic unavailable")}
	conn, svc := publisherFixture(t, pub)
	event := seedEvent(t, conn)

	processed, err := svc.processBatch(context.Background())
	require.NoError(t, err)
	assert.True(t, processed)

	var stored models.OutboxEvent
	require.NoError(t, conn.First(&stored, "id = ?", event.ID).Error)
	assert.Nil(t, stored.PublishedAt)
	assert.Equal(t, 1, stored.Attempts)
	require.NotNil(t, stored.LastError)
	assert.Contains(t, *stored.LastError, "topic unavailable")
}

func TestProcessBatch_SkipsExhaustedEvents(t *testing.T) {
	pub := &fakePublisher{}
	conn, svc := publisherFixture(t, pub)
	event := seedEvent(t, conn)
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Where("id = ?", event.ID).
		Update("attempts", defaultMaxAttempts).Error)

	processed, err := svc.processBatch(context.Background())
	require.NoError(t, err)
	assert.False(t, processed)
	assert.Empty(t, pub.published)
}

func TestProcessBatch_EmptyOutbox(t *testing.T) {
	pub := &fakePublisher{}
	_, svc := publisherFixture(t, pub)

	processed, err := svc.processBatch(context.Background())
	require.NoError(t, err)
	assert.False(t, processed)
}
