package matchview

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/live-matches-poc/pkg/contracts/events"
)

func live(id int64, s1, s2 int) events.Match {
	return events.Match{ID: id, Team1Name: "Eagles Force", Team2Name: "Hawks Pro", Team1Score: s1, Team2Score: s2, Status: events.StatusLive}
}

func finished(id int64) events.Match {
	m := live(id, 3, 1)
	m.Status = events.StatusFinished
	return m
}

func TestMerge_UpsertsAndOrders(t *testing.T) {
	s := New()

	res := s.Merge([]events.Match{live(3, 0, 0), live(1, 0, 0), live(2, 0, 0)})
	assert.Equal(t, MergeResult{Upserted: 3, Removed: 0, Visible: 3}, res)
	assert.Equal(t, []int64{3, 1, 2}, s.VisibleIDs())

	s.Merge([]events.Match{live(1, 1, 0), live(4, 0, 0)})
	assert.Equal(t, []int64{3, 1, 2, 4}, s.VisibleIDs())

	m, ok := s.Get(1)
	require.True(t, ok)
	assert.Equal(t, 1, m.Team1Score)
}

func TestMerge_Idempotent(t *testing.T) {
	batch := []events.Match{live(1, 0, 0), live(2, 1, 1), finished(3), live(1, 2, 0)}

	once := New()
	once.Merge([]events.Match{live(3, 0, 0), live(5, 0, 0)})
	once.Merge(batch)

	twice := New()
	twice.Merge([]events.Match{live(3, 0, 0), live(5, 0, 0)})
	twice.Merge(batch)
	twice.Merge(batch)

	assert.Equal(t, once.VisibleIDs(), twice.VisibleIDs())
	assert.Equal(t, once.Snapshot(), twice.Snapshot())
}

func TestMerge_RemovesTerminalRecords(t *testing.T) {
	s := New()
	s.Merge([]events.Match{live(1, 0, 0), live(2, 0, 0), live(3, 0, 0)})

	res := s.Merge([]events.Match{finished(2), live(4, 0, 0), finished(9)})

	assert.Equal(t, 2, res.Removed)
	assert.Equal(t, []int64{1, 3, 4}, s.VisibleIDs())
	_, ok := s.Get(2)
	assert.False(t, ok)
	_, ok = s.Get(9)
	assert.False(t, ok)
}

func TestMerge_ReaddedAfterRemovalIsNewRecord(t *testing.T) {
	s := New()
	s.Merge([]events.Match{live(1, 0, 0), live(2, 0, 0)})
	s.Merge([]events.Match{finished(1)})
	s.Merge([]events.Match{live(1, 0, 0)})

	assert.Equal(t, []int64{2, 1}, s.VisibleIDs())
}

func TestMerge_DuplicateIDsInBatch(t *testing.T) {
	s := New()
	s.Merge([]events.Match{live(1, 0, 0), live(1, 1, 0), live(1, 2, 0)})
	assert.Equal(t, []int64{1}, s.VisibleIDs())
	m, _ := s.Get(1)
	assert.Equal(t, 2, m.Team1Score)

	// última ocorrência terminal vence
	s.Merge([]events.Match{live(2, 0, 0), finished(2)})
	assert.Equal(t, []int64{1}, s.VisibleIDs())
}

func TestApplyPayload(t *testing.T) {
	raw, err := json.Marshal(events.NewEnvelope(events.KindInitial, []events.Match{live(1, 0, 0), live(2, 0, 0)}, live(0, 0, 0).StartTime))
	require.NoError(t, err)

	s := New()
	kind, res, err := s.ApplyPayload(raw)
	require.NoError(t, err)
	assert.Equal(t, events.KindInitial, kind)
	assert.Equal(t, 2, res.Visible)
}

func TestApplyPayload_ToleratesUnknownFields(t *testing.T) {
	raw := []byte(`{"type":"update","extra":true,"data":{"page":1,"data":[{"id":5,"status":"live","team1_name":"A","odds_source":"x","start_time":"2024-05-10T11:50:00.000Z"}]}}`)

	s := New()
	_, _, err := s.ApplyPayload(raw)
	require.NoError(t, err)

	m, ok := s.Get(5)
	require.True(t, ok)
	assert.Equal(t, "A", m.Team1Name)
	assert.Equal(t, 50, m.StartTime.Minute())
}

func TestApplyPayload_MalformedLeavesStateUntouched(t *testing.T) {
	s := New()
	s.Merge([]events.Match{live(1, 0, 0)})

	payloads := []string{
		`not json`,
		`{}`,
		`{"data":{}}`,
		`{"data":{"data":{"id":1}}}`,
		`{"data":{"data":"oops"}}`,
		`{"data":{"data":[{"id":"abc"}]}}`,
		`{"data":{"data":[{"id":2,"status":"live"}, 7]}}`,
	}
	for _, p := range payloads {
		_, _, err := s.ApplyPayload([]byte(p))
		assert.ErrorIs(t, err, ErrMalformedPayload, "payload %s", p)
	}

	assert.Equal(t, []int64{1}, s.VisibleIDs())
	assert.Equal(t, 1, s.Len())
}

func TestVisibleIDs_ReturnsCopy(t *testing.T) {
	s := New()
	s.Merge([]events.Match{live(1, 0, 0), live(2, 0, 0)})

	ids := s.VisibleIDs()
	ids[0] = 99

	assert.Equal(t, []int64{1, 2}, s.VisibleIDs())
}
