// File path: internal/document/merge.go
package document

import (
	"sort"
	"strings"
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/fillora/fillora/internal/common"
)

// Edit is one user edit recorded against a field of an earlier snapshot.
// Edits are created or overwritten whole on each save, never partially
// mutated.
type Edit struct {
	FieldID   string    `json:"field_id"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"user_id"`
}

// MergeResult reports what reconciliation produced. It is derived and
// ephemeral; callers cache it with explicit invalidation.
type MergeResult struct {
	MergedContent string `json:"merged_content"`
	AppliedEdits  int    `json:"applied_edits"`
	TotalFields   int    `json:"total_fields"`
	HasUserEdits  bool   `json:"has_user_edits"`
}

// Merger reconciles user edits made against one snapshot into a later,
// independently regenerated snapshot.
type Merger struct {
	parser *Parser
}

// NewMerger builds a merger that derives structure with the given parser
// when the caller supplies none.
func NewMerger(parser *Parser) *Merger {
	if parser == nil {
		parser = NewParser(DefaultParserConfig())
	}
	return &Merger{parser: parser}
}

// Merge applies the edits onto compiled text. Pure with respect to its
// inputs: calling it twice with the same arguments yields the same result.
//
// A miss (the edited field's original text no longer present verbatim) is
// recoverable: the edit is skipped and reconciliation continues. Any panic
// from a helper degrades to the original unmerged text with zero edits
// applied; merge failure must never corrupt the AI's output. Callers detect
// silently dropped edits via AppliedEdits < len(edits).
func (m *Merger) Merge(compiled string, edits map[string]Edit, structure []Field) (result MergeResult) {
	defer func() {
		if r := recover(); r != nil {
			common.Logger().Error("merge: reconciliation panicked, returning original content", "panic", r)
			result = MergeResult{MergedContent: compiled}
		}
	}()

	result = MergeResult{MergedContent: compiled}
	if compiled == "" || len(edits) == 0 {
		return result
	}
	if structure == nil {
		structure = m.parser.Parse(compiled)
	}
	if len(structure) == 0 {
		return m.mergeSingleField(compiled, edits)
	}

	working := compiled
	applied := 0
	editable := 0
	for _, field := range structure {
		if field.IsSection {
			continue
		}
		editable++
		edit, ok := edits[field.ID]
		if !ok || edit.Content == field.CompiledContent {
			continue
		}
		// An empty literal would match everywhere and hit an arbitrary
		// position; skip it as unlocatable rather than mis-apply.
		literal := field.CompiledContent
		if literal == "" {
			continue
		}
		if !strings.Contains(working, literal) {
			// The model regenerated this field with different wording; the
			// edit target cannot be located safely.
			continue
		}
		working = strings.Replace(working, literal, edit.Content, 1)
		applied++
	}
	return MergeResult{
		MergedContent: working,
		AppliedEdits:  applied,
		TotalFields:   editable,
		HasUserEdits:  applied > 0,
	}
}

// mergeSingleField handles a structure with zero fields: the most recent
// edit replaces the entire document. Ties on the timestamp resolve to the
// smallest field id so the outcome does not depend on map iteration order.
func (m *Merger) mergeSingleField(compiled string, edits map[string]Edit) MergeResult {
	ids := make([]string, 0, len(edits))
	for id := range edits {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	chosen := edits[ids[0]]
	for _, id := range ids[1:] {
		if edits[id].Timestamp.After(chosen.Timestamp) {
			chosen = edits[id]
		}
	}
	return MergeResult{
		MergedContent: chosen.Content,
		AppliedEdits:  1,
		TotalFields:   1,
		HasUserEdits:  true,
	}
}

// DiffStats summarizes how many characters reconciliation inserted and
// deleted, for logging and for asserting non-destruction in tests.
func DiffStats(before, after string) (inserted, deleted int) {
	dmp := diffmatchpatch.New()
	for _, diff := range dmp.DiffMain(before, after, false) {
		switch diff.Type {
		case diffmatchpatch.DiffInsert:
			inserted += len([]rune(diff.Text))
		case diffmatchpatch.DiffDelete:
			deleted += len([]rune(diff.Text))
		}
	}
	return inserted, deleted
}
