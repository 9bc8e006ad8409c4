package cmd

import (
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/pocketbase/pocketbase/core"
	"github.com/stretchr/testify/assert"

	"event-ticketing/internal/repository"
)

func TestInvalidateEvent_DropsCachedEvent(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := repository.NewEventCache(repository.NewEventStore(nil), db, time.Minute)

	record := core.NewRecord(core.NewBaseCollection(repository.CollectionEvents))
	record.Id = "evt_1"
	e := &core.RecordEvent{}
	e.Record = record

	mock.ExpectDel("event:evt_1").SetVal(1)

	invalidateEvent(e, cache)
	assert.NoError(t, mock.ExpectationsWereMet())
}
