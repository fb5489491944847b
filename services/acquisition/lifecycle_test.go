package acquisition

import (
	"context"
	"errors"
	"testing"

	"visaflow/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCancelAppointment(t *testing.T) {
	t.Run("official ids route to the government channel", func(t *testing.T) {
		official := &fakeOfficialClient{}
		hybrid := newTestHybrid(official, &fakePartnerClient{}, nil, &fakeBrowser{}, nil)

		result := hybrid.CancelAppointment(context.Background(), "OFF-12345", "usa")

		assert.True(t, result.Success)
		require.Len(t, official.cancelledIDs, 1)
		assert.Equal(t, "OFF-12345", official.cancelledIDs[0])
	})

	t.Run("partner ids route to the issuing partner", func(t *testing.T) {
		partnerClient := &fakePartnerClient{}
		hybrid := newTestHybrid(&fakeOfficialClient{}, partnerClient,
			[]models.PartnerProfile{testPartner("fasttrack", 10, 0.9, 1000)},
			&fakeBrowser{}, nil)

		result := hybrid.CancelAppointment(context.Background(), "PRT-fasttrack-REF9", "usa")

		assert.True(t, result.Success)
		require.Len(t, partnerClient.cancelRefs, 1)
		assert.Equal(t, "REF9", partnerClient.cancelRefs[0])
	})

	t.Run("unrecognized ids are rejected", func(t *testing.T) {
		hybrid := newTestHybrid(&fakeOfficialClient{}, &fakePartnerClient{}, nil, &fakeBrowser{}, nil)

		result := hybrid.CancelAppointment(context.Background(), "XYZ-1", "usa")

		assert.False(t, result.Success)
		assert.Contains(t, result.Message, "unable to determine")
	})

	t.Run("channel failures are reported, not swallowed", func(t *testing.T) {
		official := &fakeOfficialClient{cancelErr: errors.New("backend rejected it")}
		hybrid := newTestHybrid(official, &fakePartnerClient{}, nil, &fakeBrowser{}, nil)

		result := hybrid.CancelAppointment(context.Background(), "OFF-12345", "usa")

		assert.False(t, result.Success)
		assert.Contains(t, result.Message, "official cancellation failed")
	})
}

func TestRescheduleAppointment(t *testing.T) {
	t.Run("a failed rebook leaves the original untouched", func(t *testing.T) {
		official := &fakeOfficialClient{slots: []models.AppointmentSlot{
			testSlot("s1", "2024-02-01", "09:00", false),
		}}
		hybrid := newTestHybrid(official, &fakePartnerClient{}, nil, &fakeBrowser{}, nil)

		resp := hybrid.RescheduleAppointment(context.Background(), "OFF-OLD", "2024-02-01", "", "usa")

		assert.False(t, resp.Success)
		assert.Contains(t, resp.Error, "reschedule aborted before cancellation")
		assert.Contains(t, resp.Error, "OFF-OLD")
		assert.Zero(t, official.cancelCalls, "the original must never be released before a replacement exists")
	})

	t.Run("replacement is booked and the original released", func(t *testing.T) {
		official := &fakeOfficialClient{slots: []models.AppointmentSlot{
			testSlot("s1", "2024-02-01", "09:00", true),
		}}
		hybrid := newTestHybrid(official, &fakePartnerClient{}, nil, &fakeBrowser{}, nil)

		resp := hybrid.RescheduleAppointment(context.Background(), "OFF-OLD", "2024-02-01", "", "usa")

		require.True(t, resp.Success, resp.Error)
		assert.Equal(t, "OFF-12345", resp.AppointmentID)
		assert.Equal(t, "2024-02-01", resp.Date)
		require.Len(t, official.cancelledIDs, 1)
		assert.Equal(t, "OFF-OLD", official.cancelledIDs[0])
	})

	t.Run("a failed trailing cancel still succeeds with a manual instruction", func(t *testing.T) {
		official := &fakeOfficialClient{
			slots:     []models.AppointmentSlot{testSlot("s1", "2024-02-01", "09:00", true)},
			cancelErr: errors.New("backend unavailable"),
		}
		hybrid := newTestHybrid(official, &fakePartnerClient{}, nil, &fakeBrowser{}, nil)

		resp := hybrid.RescheduleAppointment(context.Background(), "OFF-OLD", "2024-02-01", "", "usa")

		require.True(t, resp.Success)
		assert.Contains(t, resp.Instructions, "OFF-OLD")
		assert.Contains(t, resp.Instructions, "cancel it manually")
	})

	t.Run("an unavailable requested time is flagged", func(t *testing.T) {
		official := &fakeOfficialClient{slots: []models.AppointmentSlot{
			testSlot("s1", "2024-02-01", "09:00", true),
		}}
		hybrid := newTestHybrid(official, &fakePartnerClient{}, nil, &fakeBrowser{}, nil)

		resp := hybrid.RescheduleAppointment(context.Background(), "OFF-OLD", "2024-02-01", "10:00", "usa")

		require.True(t, resp.Success)
		assert.Contains(t, resp.Instructions, "Requested time 10:00 was not available")
	})

	t.Run("unknown ids change nothing", func(t *testing.T) {
		official := &fakeOfficialClient{slots: []models.AppointmentSlot{
			testSlot("s1", "2024-02-01", "09:00", true),
		}}
		hybrid := newTestHybrid(official, &fakePartnerClient{}, nil, &fakeBrowser{}, nil)

		resp := hybrid.RescheduleAppointment(context.Background(), "XYZ-1", "2024-02-01", "", "usa")

		assert.False(t, resp.Success)
		assert.Contains(t, resp.Error, "nothing was changed")
		assert.Zero(t, official.confirmCalls)
		assert.Zero(t, official.cancelCalls)
	})
}

func TestPartnerIDFromAppointmentID(t *testing.T) {
	assert.Equal(t, "fasttrack", partnerIDFromAppointmentID("PRT-fasttrack-REF-1"))
	assert.Equal(t, "", partnerIDFromAppointmentID("PRT-malformed"))
}
