package access

import (
	"context"
	"sync"
)

// DraftView is a point-in-time copy of a principal's draft.
type DraftView struct {
	Table Table `json:"table"`
	Dirty bool  `json:"dirty"`
}

// DraftRegistry holds one staged edit per administrator. Every table
// replacement published by the Authorizer resets all drafts: the store's
// latest value wins over unsaved local edits.
type DraftRegistry struct {
	authorizer *Authorizer

	mu     sync.Mutex
	drafts map[string]*Draft
	cancel func()
}

func NewDraftRegistry(authorizer *Authorizer) *DraftRegistry {
	r := &DraftRegistry{authorizer: authorizer, drafts: map[string]*Draft{}}
	r.cancel = authorizer.Subscribe(r.resetAll)
	return r
}

func (r *DraftRegistry) Close() {
	r.cancel()
}

func (r *DraftRegistry) Get(principalID string) DraftView {
	r.mu.Lock()
	defer r.mu.Unlock()
	return viewOf(r.draftLocked(principalID))
}

func (r *DraftRegistry) Toggle(principalID, pageID, role string) (DraftView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d := r.draftLocked(principalID)
	if _, err := d.Toggle(pageID, role); err != nil {
		return viewOf(d), err
	}
	return viewOf(d), nil
}

// Commit persists the principal's draft. On failure the draft keeps its
// unsaved edits.
func (r *DraftRegistry) Commit(ctx context.Context, principalID string) (Table, error) {
	r.mu.Lock()
	staged := r.draftLocked(principalID).Table()
	r.mu.Unlock()

	if err := r.authorizer.Commit(ctx, staged); err != nil {
		return nil, err
	}

	r.mu.Lock()
	if d, ok := r.drafts[principalID]; ok && d.table.Equivalent(staged) {
		d.MarkSaved()
	}
	r.mu.Unlock()
	return staged, nil
}

// Discard drops the principal's unsaved edits.
func (r *DraftRegistry) Discard(principalID string) {
	r.mu.Lock()
	delete(r.drafts, principalID)
	r.mu.Unlock()
}

func (r *DraftRegistry) draftLocked(principalID string) *Draft {
	d, ok := r.drafts[principalID]
	if !ok {
		d = NewDraft(r.authorizer.Snapshot())
		r.drafts[principalID] = d
	}
	return d
}

func (r *DraftRegistry) resetAll(t Table) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.drafts {
		d.Reset(t)
	}
}

func viewOf(d *Draft) DraftView {
	return DraftView{Table: d.Table(), Dirty: d.Dirty()}
}
