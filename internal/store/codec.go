package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/Harshitk-cp/marketmind/internal/domain"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// FormatVersion is bumped whenever the Document layout changes incompatibly.
const FormatVersion = 1

// Document is the storage-independent form of a Snapshot. Maps are flattened
// into sorted lists so the same Snapshot always encodes to the same bytes.
type Document struct {
	CycleSequence int64                   `json:"cycle_sequence" yaml:"cycle_sequence"`
	CapturedAt    time.Time               `json:"captured_at" yaml:"captured_at"`
	Regime        domain.Regime           `json:"regime" yaml:"regime"`
	Hypotheses    []domain.Hypothesis     `json:"hypotheses" yaml:"hypotheses"`
	Watchlist     []domain.WatchlistEntry `json:"watchlist" yaml:"watchlist"`
	Narratives    []domain.NarrativeTrack `json:"narratives" yaml:"narratives"`
	Rules         []domain.Rule           `json:"rules" yaml:"rules"`
}

type envelope struct {
	FormatVersion int             `json:"format_version"`
	Checksum      string          `json:"checksum"`
	Payload       json.RawMessage `json:"payload"`
}

// NewDocument flattens a snapshot.
func NewDocument(s *domain.Snapshot) Document {
	doc := Document{
		CycleSequence: s.CycleSequence,
		CapturedAt:    s.CapturedAt,
		Regime:        s.Regime,
		Hypotheses:    make([]domain.Hypothesis, 0, len(s.Hypotheses)),
		Watchlist:     append([]domain.WatchlistEntry{}, s.Watchlist...),
		Narratives:    make([]domain.NarrativeTrack, 0, len(s.Narratives)),
		Rules:         make([]domain.Rule, 0, len(s.Rules)),
	}
	for _, h := range s.Hypotheses {
		doc.Hypotheses = append(doc.Hypotheses, *h)
	}
	for _, t := range s.Narratives {
		doc.Narratives = append(doc.Narratives, *t)
	}
	for _, r := range s.Rules {
		doc.Rules = append(doc.Rules, *r)
	}
	sort.Slice(doc.Hypotheses, func(i, j int) bool { return doc.Hypotheses[i].ID.String() < doc.Hypotheses[j].ID.String() })
	sort.Slice(doc.Narratives, func(i, j int) bool { return doc.Narratives[i].Name < doc.Narratives[j].Name })
	sort.Slice(doc.Rules, func(i, j int) bool { return doc.Rules[i].ID.String() < doc.Rules[j].ID.String() })
	return doc
}

// Snapshot rebuilds the aggregate from its document form.
func (d Document) Snapshot() *domain.Snapshot {
	s := domain.EmptySnapshot()
	s.CycleSequence = d.CycleSequence
	s.CapturedAt = d.CapturedAt
	s.Regime = d.Regime
	if d.Watchlist != nil {
		s.Watchlist = d.Watchlist
	}
	for i := range d.Hypotheses {
		h := d.Hypotheses[i]
		s.Hypotheses[h.ID] = &h
	}
	for i := range d.Narratives {
		t := d.Narratives[i]
		s.Narratives[t.Name] = &t
	}
	for i := range d.Rules {
		r := d.Rules[i]
		s.Rules[r.ID] = &r
	}
	return s
}

// EncodeSnapshot produces the checksummed envelope written by every store.
func EncodeSnapshot(s *domain.Snapshot) ([]byte, error) {
	payload, err := json.Marshal(NewDocument(s))
	if err != nil {
		return nil, fmt.Errorf("encode snapshot %d: %w", s.CycleSequence, err)
	}
	return json.Marshal(envelope{
		FormatVersion: FormatVersion,
		Checksum:      checksum(payload),
		Payload:       payload,
	})
}

// DecodeSnapshot reverses EncodeSnapshot. Anything unreadable is ErrCorruptState.
func DecodeSnapshot(data []byte) (*domain.Snapshot, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: envelope: %v", domain.ErrCorruptState, err)
	}
	if env.FormatVersion != FormatVersion {
		return nil, fmt.Errorf("%w: unsupported format version %d", domain.ErrCorruptState, env.FormatVersion)
	}
	if checksum(env.Payload) != env.Checksum {
		return nil, fmt.Errorf("%w: checksum mismatch", domain.ErrCorruptState)
	}
	var doc Document
	if err := json.Unmarshal(env.Payload, &doc); err != nil {
		return nil, fmt.Errorf("%w: payload: %v", domain.ErrCorruptState, err)
	}
	return doc.Snapshot(), nil
}

// EncodeYAML renders a snapshot as a human-readable document for export.
func EncodeYAML(s *domain.Snapshot) ([]byte, error) {
	return yaml.Marshal(NewDocument(s))
}

func encodeMistake(m domain.MistakeRecord) ([]byte, error) {
	return json.Marshal(m)
}

func decodeMistake(data []byte) (domain.MistakeRecord, error) {
	var m domain.MistakeRecord
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("%w: mistake record: %v", domain.ErrCorruptState, err)
	}
	return m, nil
}

func decodeFlag(data []byte) (domain.AdvisoryFlag, error) {
	var f domain.AdvisoryFlag
	if err := json.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("%w: advisory flag: %v", domain.ErrCorruptState, err)
	}
	return f, nil
}

func checksum(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func sortFlags(flags []domain.AdvisoryFlag) {
	sort.Slice(flags, func(i, j int) bool {
		if !flags[i].RaisedAt.Equal(flags[j].RaisedAt) {
			return flags[i].RaisedAt.Before(flags[j].RaisedAt)
		}
		return flags[i].ID.String() < flags[j].ID.String()
	})
}

func validateCommit(c domain.Commit) error {
	if c.Snapshot == nil {
		return fmt.Errorf("commit without snapshot")
	}
	if c.Snapshot.CycleSequence != c.ExpectedSequence+1 {
		return fmt.Errorf("snapshot sequence %d does not follow %d", c.Snapshot.CycleSequence, c.ExpectedSequence)
	}
	return nil
}

func flagIDs(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
