package datatable

// Synchronizer mirrors committed states into a location string. Every
// observed state replaces the previous location; there is no history.
type Synchronizer struct {
	path    string
	cfg     Config
	query   string
	onWrite func(location string)
}

// NewSynchronizer returns a synchronizer for locations under path. onWrite
// may be nil.
func NewSynchronizer(path string, cfg Config, onWrite func(location string)) *Synchronizer {
	return &Synchronizer{path: path, cfg: cfg, onWrite: onWrite}
}

// Attach subscribes the synchronizer to a store.
func (s *Synchronizer) Attach(store *Store) {
	store.Subscribe(s.Observe)
}

// Observe recomputes the query string for state and replaces the current
// location with it.
func (s *Synchronizer) Observe(state ViewState) {
	s.query = DeriveQueryString(state, s.cfg)
	if s.onWrite != nil {
		s.onWrite(s.Location())
	}
}

// Query returns the current query string without the leading '?'.
func (s *Synchronizer) Query() string {
	return s.query
}

// Location returns path plus the current query string.
func (s *Synchronizer) Location() string {
	return Location(s.path, s.query)
}
