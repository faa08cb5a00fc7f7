package store

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-gw/gw/events"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestWriteRunRoundTrip(t *testing.T) {
	db := openTestDB(t)

	run := RunInfo{
		ID:         uuid.New(),
		IFO:        "H1",
		StartTime:  1187008882,
		EndTime:    1187008946,
		SampleRate: 4096,
	}
	records := []events.Record{
		{
			ID:         uuid.New(),
			TemplateID: 3,
			TimeIndex:  2048,
			EndTimeSec: 1187008882,
			EndTimeNS:  500000000,
			SNR:        complex(8.2, -1.1),
			SNRMag:     math.Hypot(8.2, -1.1),
			Phase:      math.Atan2(-1.1, 8.2),
			Chisq:      28.5,
			ChisqDOF:   30,
			SigmaSq:    2.5e44,
		},
		{
			ID:         uuid.New(),
			TemplateID: 7,
			TimeIndex:  1024,
			EndTimeSec: 1187008882,
			EndTimeNS:  250000000,
			SNR:        complex(6.1, 0.4),
			SNRMag:     math.Hypot(6.1, 0.4),
			Phase:      math.Atan2(0.4, 6.1),
			AutoChisq:  12.2,
			AutoChisqDOF: 16,
		},
	}

	require.NoError(t, db.WriteRun(run, records))

	gotRun, err := db.Run(run.ID)
	require.NoError(t, err)
	assert.Equal(t, run, gotRun)

	got, err := db.Triggers(run.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Ordered by end time, so the second record comes back first.
	assert.Equal(t, records[1], got[0])
	assert.Equal(t, records[0], got[1])
}

func TestUnknownRun(t *testing.T) {
	db := openTestDB(t)

	_, err := db.Run(uuid.New())
	assert.ErrorIs(t, err, ErrUnknownRun)

	_, err = db.Triggers(uuid.New())
	assert.ErrorIs(t, err, ErrUnknownRun)
}

func TestEmptyRun(t *testing.T) {
	db := openTestDB(t)

	run := RunInfo{ID: uuid.New(), IFO: "L1", SampleRate: 2048}
	require.NoError(t, db.WriteRun(run, nil))

	got, err := db.Triggers(run.ID)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDuplicateRunRejected(t *testing.T) {
	db := openTestDB(t)

	run := RunInfo{ID: uuid.New(), IFO: "V1", SampleRate: 4096}
	require.NoError(t, db.WriteRun(run, nil))
	assert.Error(t, db.WriteRun(run, nil), "run ids are primary keys")
}
