package broadcast_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/nexusmem/agrona/broadcast"
	"github.com/nexusmem/agrona/internal/testutil/model"
	"github.com/nexusmem/agrona/region"
)

// Replays the same transmit sequence against the real buffer and the naive
// reference model, then compares what a reader draining at the end observes.
func TestReceiverAgainstModel(t *testing.T) {
	t.Run("no overwrite", func(t *testing.T) {
		capacity := 1024

		r := newRegion(t, capacity)

		tx, err := broadcast.NewTransmitter(r, capacity)
		require.NoError(t, err)
		defer tx.Close()

		rx, err := broadcast.NewReceiver(r, capacity)
		require.NoError(t, err)

		m := model.NewBroadcastModel(capacity)

		for i := 0; i < 10; i++ {
			payload := []byte{byte(i), byte(i * 3), byte(i * 7)}
			typeID := int32(i + 1)

			require.NoError(t, tx.Transmit(typeID, payload))
			m.Transmit(typeID, payload, region.Align8(8+len(payload)))
		}

		want, lapped := m.Observe()
		require.False(t, lapped)

		var got []model.BroadcastMessage

		for {
			ok, err := rx.ReceiveNext()
			require.NoError(t, err)

			if !ok {
				break
			}

			payload, err := rx.Payload()
			require.NoError(t, err)

			got = append(got, model.BroadcastMessage{
				TypeID:  rx.TypeID(),
				Payload: append([]byte(nil), payload...),
			})
		}

		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("received messages diverge from model (-want +got):\n%s", diff)
		}

		require.Equal(t, int64(0), rx.LappedCount())
	})

	t.Run("overwritten reader resyncs to latest", func(t *testing.T) {
		capacity := 128

		r := newRegion(t, capacity)

		tx, err := broadcast.NewTransmitter(r, capacity)
		require.NoError(t, err)
		defer tx.Close()

		rx, err := broadcast.NewReceiver(r, capacity)
		require.NoError(t, err)

		m := model.NewBroadcastModel(capacity)

		for i := 0; i < 50; i++ {
			payload := []byte{byte(i), byte(i + 1)}
			typeID := int32(i + 1)

			require.NoError(t, tx.Transmit(typeID, payload))
			m.Transmit(typeID, payload, region.Align8(8+len(payload)))
		}

		reachable, lapped := m.Observe()
		require.True(t, lapped)

		// A reader that never kept pace resyncs to the writer's latest
		// record, which is the newest message the model still reaches.
		ok, err := rx.ReceiveNext()
		require.NoError(t, err)
		require.True(t, ok)
		require.Greater(t, rx.LappedCount(), int64(0))

		payload, err := rx.Payload()
		require.NoError(t, err)

		got := model.BroadcastMessage{
			TypeID:  rx.TypeID(),
			Payload: append([]byte(nil), payload...),
		}

		if diff := cmp.Diff(reachable[len(reachable)-1], got); diff != "" {
			t.Fatalf("resynced message diverges from model's newest (-want +got):\n%s", diff)
		}
	})
}
