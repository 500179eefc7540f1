package growbox

// DraftStore holds unsaved form edits keyed by config entry id. Drafts
// survive tab switches and background refreshes and are only dropped by
// an explicit clear or a successful save. Never persisted to disk.
//
// An empty string value is meaningful: it records that the operator
// explicitly cleared a field, which is distinct from the field having
// no draft at all.
type DraftStore struct {
	drafts map[string]map[string]string
}

// NewDraftStore creates an empty draft store.
func NewDraftStore() *DraftStore {
	return &DraftStore{drafts: make(map[string]map[string]string)}
}

// Set records a pending value for an entry's field.
func (d *DraftStore) Set(entryID, key, value string) {
	entry, ok := d.drafts[entryID]
	if !ok {
		entry = make(map[string]string)
		d.drafts[entryID] = entry
	}
	entry[key] = value
}

// Get returns the pending value for an entry's field. ok distinguishes
// an empty-string draft from no draft.
func (d *DraftStore) Get(entryID, key string) (string, bool) {
	entry, ok := d.drafts[entryID]
	if !ok {
		return "", false
	}
	v, ok := entry[key]
	return v, ok
}

// Has reports whether the entry has any pending edits.
func (d *DraftStore) Has(entryID string) bool {
	return len(d.drafts[entryID]) > 0
}

// Snapshot returns a copy of the entry's pending edits, nil when none.
func (d *DraftStore) Snapshot(entryID string) map[string]string {
	entry, ok := d.drafts[entryID]
	if !ok || len(entry) == 0 {
		return nil
	}
	snap := make(map[string]string, len(entry))
	for k, v := range entry {
		snap[k] = v
	}
	return snap
}

// Clear drops every pending edit for the entry in one step.
func (d *DraftStore) Clear(entryID string) {
	delete(d.drafts, entryID)
}

// Effective resolves the value a form field should show: the draft when
// one exists (including an explicit clear), the committed option
// otherwise, the fallback when both are absent.
func (d *DraftStore) Effective(vm *ViewModel, key, fallback string) string {
	if v, ok := d.Get(vm.EntryID, key); ok {
		return v
	}
	return vm.Options.String(key, fallback)
}
