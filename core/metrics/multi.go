package metrics

// MultiSink fans records out to several sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordAssignments forwards to all sinks, returning the first error encountered.
func (m *MultiSink) RecordAssignments(recs []AssignmentRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordAssignments(recs); err != nil {
			return err
		}
	}
	return nil
}

// RecordSurge forwards to the sinks that record surge.
func (m *MultiSink) RecordSurge(rec SurgeRecord) error {
	for _, s := range m.Sinks {
		if r, ok := s.(SurgeRecorder); ok {
			if err := r.RecordSurge(rec); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordConsensus forwards to the sinks that record consensus rounds.
func (m *MultiSink) RecordConsensus(rec ConsensusRecord) error {
	for _, s := range m.Sinks {
		if r, ok := s.(ConsensusRecorder); ok {
			if err := r.RecordConsensus(rec); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordConflict forwards to the sinks that record conflicts.
func (m *MultiSink) RecordConflict(rec ConflictRecord) error {
	for _, s := range m.Sinks {
		if r, ok := s.(ConflictRecorder); ok {
			if err := r.RecordConflict(rec); err != nil {
				return err
			}
		}
	}
	return nil
}
