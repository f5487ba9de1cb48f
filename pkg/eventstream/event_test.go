package eventstream_test

import (
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/memhub/pkg/eventstream"
)

var _ = Describe("Event", func() {
	It("marshals SessionAcceptedEvent with expected top-level keys", func() {
		now := time.Unix(1735689600, 0).UTC()
		event := eventstream.SessionAcceptedEvent{
			SchemaVersion: eventstream.SchemaVersionV1,
			EventType:     eventstream.EventTypeSessionAccepted,
			EventID:       "evt_123",
			EmittedAt:     now,
			Source: eventstream.EventSource{
				WorkspaceID: "ws-1",
				Scope:       "team",
				TeamKey:     "eng",
			},
			Session: eventstream.SessionMeta{
				SessionID:   "sess-1",
				Categories:  []string{"MEETING"},
				ContentSize: 42,
				LastUpdated: now,
			},
			Revision: eventstream.RevisionMeta{
				Previous: "init",
				Current:  "rev-1",
			},
			Mirror: &eventstream.MirrorStatus{
				SyncState: "synced",
				DocURL:    "https://docs.example.com/doc-1",
			},
		}

		payload, err := json.Marshal(event)
		Expect(err).NotTo(HaveOccurred())

		var got map[string]any
		Expect(json.Unmarshal(payload, &got)).To(Succeed())

		Expect(got).To(HaveKey("schema_version"))
		Expect(got).To(HaveKey("event_type"))
		Expect(got).To(HaveKey("event_id"))
		Expect(got).To(HaveKey("emitted_at"))
		Expect(got).To(HaveKey("source"))
		Expect(got).To(HaveKey("session"))
		Expect(got).To(HaveKey("revision"))
		Expect(got).To(HaveKey("mirror"))
	})

	It("omits mirror status when absent", func() {
		payload, err := json.Marshal(eventstream.SessionAcceptedEvent{})
		Expect(err).NotTo(HaveOccurred())

		var got map[string]any
		Expect(json.Unmarshal(payload, &got)).To(Succeed())
		Expect(got).NotTo(HaveKey("mirror"))
	})

	It("defines stable event constants", func() {
		Expect(eventstream.SchemaVersionV1).To(BeNumerically(">", 0))
		Expect(eventstream.EventTypeSessionAccepted).To(Equal("memhub.session.accepted"))
	})

	It("provides ErrNilSessionEvent for nil payload validation", func() {
		Expect(eventstream.ErrNilSessionEvent).NotTo(BeNil())
		Expect(eventstream.ErrNilSessionEvent).To(MatchError("nil session event"))
	})
})
