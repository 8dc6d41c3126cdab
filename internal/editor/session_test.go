package editor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"resume-workspace/internal/ai"
	"resume-workspace/internal/autosave"
	"resume-workspace/internal/document"
	"resume-workspace/internal/export"
	"resume-workspace/internal/reorder"
	"resume-workspace/internal/resumes"
	"resume-workspace/internal/scores"
	"resume-workspace/internal/shared/storage/kv"
	"resume-workspace/internal/shared/storage/object/local"
	"resume-workspace/internal/versions"
)

type manualTimer struct {
	clock   *manualClock
	at      time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	wasActive := !t.stopped && !t.fired
	t.stopped = true
	return wasActive
}

type manualClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*manualTimer
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) autosave.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, at: c.now + d, fn: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*manualTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && t.at <= c.now {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()
	for _, t := range due {
		t.fn()
	}
}

// fakeGateway answers with the hooks that are set and reports a missing
// credential otherwise.
type fakeGateway struct {
	ai.PlaceholderGateway
	enhance func(ctx context.Context, selection, surrounding string) (ai.Enhancement, error)
	ats     func(ctx context.Context, content, jd string) (ai.ATSResult, error)
	gaps    func(ctx context.Context, content string) (ai.GapReport, error)
}

func (f *fakeGateway) EnhanceText(ctx context.Context, selection, surrounding string) (ai.Enhancement, error) {
	if f.enhance == nil {
		return f.PlaceholderGateway.EnhanceText(ctx, selection, surrounding)
	}
	return f.enhance(ctx, selection, surrounding)
}

func (f *fakeGateway) AnalyzeATS(ctx context.Context, content, jd string) (ai.ATSResult, error) {
	if f.ats == nil {
		return f.PlaceholderGateway.AnalyzeATS(ctx, content, jd)
	}
	return f.ats(ctx, content, jd)
}

func (f *fakeGateway) AnalyzeGaps(ctx context.Context, content string) (ai.GapReport, error) {
	if f.gaps == nil {
		return f.PlaceholderGateway.AnalyzeGaps(ctx, content)
	}
	return f.gaps(ctx, content)
}

const testDelay = 2 * time.Second

type testEnv struct {
	store    *kv.MemoryStore
	resumes  *resumes.Service
	versions *versions.Service
	scores   *scores.Service
	exports  *export.Service
	gateway  *fakeGateway
	clock    *manualClock
	mgr      *Manager
	resume   resumes.Resume
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()
	store := kv.NewMemoryStore(0)
	vs := versions.NewService(versions.NewKVRepo(store), 0)
	rs := resumes.NewService(resumes.NewKVRepo(store), vs)
	ss := scores.NewService(scores.NewKVRepo(store))
	es := export.NewService(local.New(t.TempDir()))
	gw := &fakeGateway{}
	clock := &manualClock{}

	res, err := rs.Create(context.Background(), "u1", resumes.CreateInput{Title: "Backend"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if opts.AutosaveDelay == 0 {
		opts.AutosaveDelay = testDelay
	}
	mgr := NewManager(Deps{
		Resumes:   rs,
		Versions:  vs,
		Scores:    ss,
		Exporter:  es,
		AI:        gw,
		Options:   opts,
		AfterFunc: clock.AfterFunc,
	})
	return &testEnv{
		store:    store,
		resumes:  rs,
		versions: vs,
		scores:   ss,
		exports:  es,
		gateway:  gw,
		clock:    clock,
		mgr:      mgr,
		resume:   res,
	}
}

func (e *testEnv) open(t *testing.T) *Session {
	t.Helper()
	s, err := e.mgr.Open(context.Background(), e.resume.ID)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s
}

func (e *testEnv) stored(t *testing.T) resumes.Resume {
	t.Helper()
	res, err := e.resumes.Get(context.Background(), e.resume.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	return res
}

func (e *testEnv) versionList(t *testing.T) []versions.Version {
	t.Helper()
	items, err := e.versions.List(context.Background(), e.resume.ID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	return items
}

func withSummary(content, text string) string {
	return strings.Replace(content, "<h2>Summary</h2>\n<p></p>", "<h2>Summary</h2>\n<p>"+text+"</p>", 1)
}

func TestOpenReturnsSameSession(t *testing.T) {
	env := newTestEnv(t, Options{})
	a := env.open(t)
	b := env.open(t)
	if a != b {
		t.Fatalf("expected one session per resume")
	}
	if env.mgr.Len() != 1 {
		t.Fatalf("expected 1 open session, got %d", env.mgr.Len())
	}
	if _, err := env.mgr.Open(context.Background(), "missing"); !errors.Is(err, resumes.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAutosaveDebounce(t *testing.T) {
	env := newTestEnv(t, Options{})
	s := env.open(t)

	for i := 1; i <= 3; i++ {
		if _, err := s.Edit(withSummary(env.resume.Content, fmt.Sprintf("draft %d", i))); err != nil {
			t.Fatalf("Edit: %v", err)
		}
		env.clock.Advance(time.Second)
	}
	if got := env.stored(t).Content; got != env.resume.Content {
		t.Fatalf("expected nothing persisted before the delay elapsed")
	}
	if !s.State().AutosaveArmed {
		t.Fatalf("expected autosave pending")
	}

	env.clock.Advance(testDelay)
	want := withSummary(env.resume.Content, "draft 3")
	if got := env.stored(t).Content; got != want {
		t.Fatalf("expected last edit persisted, got %q", got)
	}
	st := s.State()
	if st.Dirty || st.AutosaveArmed {
		t.Fatalf("expected clean state after autosave, got %+v", st)
	}
	if n := len(env.versionList(t)); n != 0 {
		t.Fatalf("autosave must not create versions, got %d", n)
	}
}

func TestManualSaveCreatesVersionOnce(t *testing.T) {
	env := newTestEnv(t, Options{})
	s := env.open(t)
	ctx := context.Background()

	if _, err := s.Edit(withSummary(env.resume.Content, "Go engineer")); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	st, res, err := s.Save(ctx)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !res.Created || res.Version == nil || res.Version.ChangeType != versions.ChangeManual {
		t.Fatalf("expected manual version, got %+v", res)
	}
	if st.Dirty || st.AutosaveArmed {
		t.Fatalf("expected save to clear pending autosave, got %+v", st)
	}

	_, res, err = s.Save(ctx)
	if err != nil {
		t.Fatalf("second Save: %v", err)
	}
	if res.Created {
		t.Fatalf("unchanged content must not create another version")
	}
	if n := len(env.versionList(t)); n != 1 {
		t.Fatalf("expected 1 version, got %d", n)
	}

	// A timer that fired late finds nothing to write.
	env.clock.Advance(testDelay)
	if n := len(env.versionList(t)); n != 1 {
		t.Fatalf("expected 1 version after late tick, got %d", n)
	}
}

func TestUndoAtOldestSnapshot(t *testing.T) {
	env := newTestEnv(t, Options{})
	s := env.open(t)

	st, err := s.Undo()
	if !errors.Is(err, ErrNothingToUndo) {
		t.Fatalf("expected ErrNothingToUndo, got %v", err)
	}
	if Classify(err) != KindStructural {
		t.Fatalf("expected structural, got %s", Classify(err))
	}
	if st.HistoryPointer != 0 || st.Content != env.resume.Content {
		t.Fatalf("expected unchanged state, got %+v", st)
	}
}

func TestUndoRedo(t *testing.T) {
	cases := []struct {
		name    string
		redo    bool
		wantErr error
	}{
		{name: "redo disabled", redo: false, wantErr: ErrRedoDisabled},
		{name: "redo enabled", redo: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t, Options{RedoEnabled: tc.redo})
			s := env.open(t)
			edited := withSummary(env.resume.Content, "one")
			if _, err := s.Edit(edited); err != nil {
				t.Fatalf("Edit: %v", err)
			}
			st, err := s.Undo()
			if err != nil {
				t.Fatalf("Undo: %v", err)
			}
			if st.Content != env.resume.Content {
				t.Fatalf("expected original content after undo")
			}
			if !st.AutosaveArmed {
				t.Fatalf("undo should re-arm autosave")
			}
			st, err = s.Redo()
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				if st.CanRedo {
					t.Fatalf("canRedo must stay false when redo is disabled")
				}
				return
			}
			if err != nil {
				t.Fatalf("Redo: %v", err)
			}
			if st.Content != edited {
				t.Fatalf("expected edited content after redo")
			}
		})
	}
}

func TestSectionEdits(t *testing.T) {
	env := newTestEnv(t, Options{})
	s := env.open(t)

	st, err := s.AddSection("Projects")
	if err != nil {
		t.Fatalf("AddSection: %v", err)
	}
	if st.Sections[len(st.Sections)-1] != "Projects" {
		t.Fatalf("expected Projects appended, got %v", st.Sections)
	}
	if _, err := s.AddSection("Projects"); Classify(err) != KindValidation {
		t.Fatalf("expected validation error for duplicate, got %v", err)
	}
	if _, err := s.RemoveSection("Nope"); Classify(err) != KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	st, err = s.ReorderSections([]string{"Projects", "Heading", "Summary", "Experience", "Education", "Skills"})
	if err != nil {
		t.Fatalf("ReorderSections: %v", err)
	}
	if st.Sections[0] != "Projects" {
		t.Fatalf("unexpected order %v", st.Sections)
	}
	if st.HistoryLength != 3 {
		t.Fatalf("expected 3 snapshots, got %d", st.HistoryLength)
	}
}

func TestRestoreCheckpointsFirst(t *testing.T) {
	env := newTestEnv(t, Options{})
	s := env.open(t)
	ctx := context.Background()

	first := withSummary(env.resume.Content, "first")
	s.Edit(first)
	_, saved, err := s.Save(ctx)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	second := withSummary(env.resume.Content, "second")
	s.Edit(second)

	st, err := s.RestoreVersion(ctx, saved.Version.ID)
	if err != nil {
		t.Fatalf("RestoreVersion: %v", err)
	}
	if st.Content != first || st.Dirty {
		t.Fatalf("expected restored and persisted content, got %+v", st)
	}
	if env.stored(t).Content != first {
		t.Fatalf("expected restore persisted immediately")
	}

	items := env.versionList(t)
	if len(items) != 2 {
		t.Fatalf("expected checkpoint plus original, got %d", len(items))
	}
	checkpoint := items[0]
	if checkpoint.Label != versions.RestoreLabel || checkpoint.Content != second {
		t.Fatalf("unexpected checkpoint %+v", checkpoint)
	}

	// The restore is an edit like any other.
	st, err = s.Undo()
	if err != nil || st.Content != second {
		t.Fatalf("expected undo to return to pre-restore content, err=%v", err)
	}
}

func TestRestoreAbortsWhenCheckpointFails(t *testing.T) {
	env := newTestEnv(t, Options{})
	s := env.open(t)
	ctx := context.Background()

	s.Edit(withSummary(env.resume.Content, "first"))
	_, saved, err := s.Save(ctx)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	current := withSummary(env.resume.Content, "current")
	s.Edit(current)

	env.store.FailWith(func(key string) error {
		if key == kv.KeyVersions {
			return errors.New("backend down")
		}
		return nil
	})
	st, err := s.RestoreVersion(ctx, saved.Version.ID)
	if err == nil {
		t.Fatalf("expected error")
	}
	if Classify(err) != KindStorage {
		t.Fatalf("expected storage error, got %s", Classify(err))
	}
	if st.Content != current {
		t.Fatalf("content must be untouched when the checkpoint fails")
	}
}

func TestRestoreRejectsForeignVersion(t *testing.T) {
	env := newTestEnv(t, Options{})
	s := env.open(t)
	ctx := context.Background()
	other, _, err := env.versions.CreateVersion(ctx, versions.CreateInput{ResumeID: "someone-else", Content: "x"})
	if err != nil {
		t.Fatalf("CreateVersion: %v", err)
	}
	if _, err := s.RestoreVersion(ctx, other.ID); !errors.Is(err, versions.ErrVersionNotFound) {
		t.Fatalf("expected version not found, got %v", err)
	}
}

func TestStorageQuotaKeepsState(t *testing.T) {
	env := newTestEnv(t, Options{})
	s := env.open(t)
	ctx := context.Background()

	edited := withSummary(env.resume.Content, "kept")
	s.Edit(edited)
	env.store.FailWith(func(key string) error {
		if key == kv.KeyResumes {
			return fmt.Errorf("set %s: %w", key, kv.ErrQuotaExceeded)
		}
		return nil
	})
	st, _, err := s.Save(ctx)
	if !errors.Is(err, kv.ErrQuotaExceeded) {
		t.Fatalf("expected quota error, got %v", err)
	}
	if st.Content != edited || !st.Dirty || st.LastSaveError == "" {
		t.Fatalf("expected edits kept in memory, got %+v", st)
	}
	if !st.AutosaveArmed {
		t.Fatalf("expected a retry to be scheduled")
	}

	env.store.FailWith(nil)
	env.clock.Advance(testDelay)
	if env.stored(t).Content != edited {
		t.Fatalf("expected retry to persist")
	}
	if st := s.State(); st.Dirty || st.LastSaveError != "" {
		t.Fatalf("expected clean state after retry, got %+v", st)
	}
}

func TestApplyTemplateRecordsVersion(t *testing.T) {
	env := newTestEnv(t, Options{})
	s := env.open(t)
	ctx := context.Background()

	st, err := s.ApplyTemplate(ctx, "modern")
	if err != nil {
		t.Fatalf("ApplyTemplate: %v", err)
	}
	if st.TemplateID != "modern" {
		t.Fatalf("expected template modern, got %q", st.TemplateID)
	}
	if env.stored(t).TemplateID != "modern" {
		t.Fatalf("expected template persisted")
	}
	items := env.versionList(t)
	if len(items) != 1 || items[0].ChangeType != versions.ChangeTemplateChange {
		t.Fatalf("expected a template-change version, got %+v", items)
	}
	if _, err := s.ApplyTemplate(ctx, "  "); Classify(err) != KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDragRoundTripIsByteIdentical(t *testing.T) {
	env := newTestEnv(t, Options{})
	s := env.open(t)
	base := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)

	s.Trigger(base)
	st, _ := s.Trigger(base.Add(200 * time.Millisecond))
	if st.Reorder.Mode != reorder.Armed {
		t.Fatalf("expected armed, got %s", st.Reorder.Mode)
	}

	if _, err := s.BeginDrag("Skills"); err != nil {
		t.Fatalf("BeginDrag: %v", err)
	}
	st, _ = s.Hover("Heading", 10, 0, 100)
	if st.Reorder.Placeholder == nil || st.Reorder.Placeholder.Position != reorder.Before {
		t.Fatalf("expected placeholder before Heading, got %+v", st.Reorder)
	}
	if st.Content != env.resume.Content {
		t.Fatalf("content must not change before drop")
	}
	st, err := s.Drop()
	if err != nil {
		t.Fatalf("Drop: %v", err)
	}
	if st.Sections[0] != "Skills" {
		t.Fatalf("expected Skills first, got %v", st.Sections)
	}

	s.BeginDrag("Skills")
	s.Hover("Education", 90, 0, 100)
	st, err = s.Drop()
	if err != nil {
		t.Fatalf("Drop: %v", err)
	}
	if st.Content != env.resume.Content {
		t.Fatalf("expected byte-identical content after moving back")
	}
	if st.HistoryLength != 3 {
		t.Fatalf("expected each drop recorded, got %d", st.HistoryLength)
	}
}

func TestDragRequiresArming(t *testing.T) {
	env := newTestEnv(t, Options{})
	s := env.open(t)

	_, err := s.BeginDrag("Skills")
	if !errors.Is(err, reorder.ErrNotArmed) || Classify(err) != KindStructural {
		t.Fatalf("expected structural not-armed error, got %v", err)
	}
	_, err = s.Drop()
	if !errors.Is(err, reorder.ErrNoActiveDrag) {
		t.Fatalf("expected no active drag, got %v", err)
	}

	base := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	s.Trigger(base)
	st, _ := s.Trigger(base.Add(time.Second))
	if st.Reorder.Mode != reorder.Inactive {
		t.Fatalf("triggers a second apart must not arm")
	}
}

func TestDropAfterSectionsChangedIsNoop(t *testing.T) {
	env := newTestEnv(t, Options{})
	s := env.open(t)
	base := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	s.Trigger(base)
	s.Trigger(base.Add(100 * time.Millisecond))

	if _, err := s.BeginDrag("Nope"); Classify(err) != KindStructural {
		t.Fatalf("expected structural error for unknown section, got %v", err)
	}
	if _, err := s.BeginDrag("Skills"); err != nil {
		t.Fatalf("BeginDrag: %v", err)
	}
	s.Hover("Heading", 10, 0, 100)
	edited, err := s.RemoveSection("Education")
	if err != nil {
		t.Fatalf("RemoveSection: %v", err)
	}

	st, err := s.Drop()
	if !errors.Is(err, ErrDropOutdated) || Classify(err) != KindStructural {
		t.Fatalf("expected structural drop error, got %v (%s)", err, Classify(err))
	}
	if st.Content != edited.Content || st.HistoryLength != edited.HistoryLength {
		t.Fatalf("drop must not change content")
	}
	if st.Reorder.Mode != reorder.Armed {
		t.Fatalf("expected armed after drop, got %s", st.Reorder.Mode)
	}
}

func TestExportUsesCommittedContent(t *testing.T) {
	env := newTestEnv(t, Options{})
	s := env.open(t)
	ctx := context.Background()
	base := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)

	s.Trigger(base)
	s.Trigger(base.Add(100 * time.Millisecond))
	s.BeginDrag("Skills")
	s.Hover("Heading", 0, 0, 100)

	receipt, err := s.Export(ctx, "pdf")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	snap, err := env.exports.Fetch(ctx, receipt.Key)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if snap.Content != env.resume.Content || snap.SectionOrder[0] != "Heading" {
		t.Fatalf("export must ignore the drag in progress, got %v", snap.SectionOrder)
	}
	if _, err := s.Export(ctx, "docx"); !errors.Is(err, export.ErrUnsupportedFormat) {
		t.Fatalf("expected unsupported format, got %v", err)
	}
}

func TestEnhanceSelectionAppliesAndVersions(t *testing.T) {
	env := newTestEnv(t, Options{})
	s := env.open(t)
	ctx := context.Background()
	env.gateway.enhance = func(_ context.Context, selection, _ string) (ai.Enhancement, error) {
		return ai.Enhancement{Text: "Designed and shipped Go APIs"}, nil
	}

	s.Edit(withSummary(env.resume.Content, "Built APIs"))
	st, res, err := s.EnhanceSelection(ctx, "Built APIs")
	if err != nil {
		t.Fatalf("EnhanceSelection: %v", err)
	}
	if res.Text == "" || !strings.Contains(st.Content, "Designed and shipped Go APIs") {
		t.Fatalf("expected enhanced text applied, got %q", st.Content)
	}
	if st.AIBusy {
		t.Fatalf("expected slot released")
	}
	items := env.versionList(t)
	if len(items) != 1 || items[0].ChangeType != versions.ChangeAIEnhanced {
		t.Fatalf("expected ai-enhanced version, got %+v", items)
	}

	if _, _, err := s.EnhanceSelection(ctx, "not there"); !errors.Is(err, ErrSelectionNotFound) {
		t.Fatalf("expected selection not found, got %v", err)
	}
	if _, _, err := s.EnhanceSelection(ctx, "  "); !errors.Is(err, ErrEmptySelection) {
		t.Fatalf("expected empty selection, got %v", err)
	}
}

func TestEnhanceSelectionKeepsSectionStructure(t *testing.T) {
	cases := []struct {
		name      string
		selection string
		reply     string
		want      string
	}{
		{
			name:      "selection also used as a section marker",
			selection: "Experience",
			reply:     `Work "History"`,
			want:      "<h2>Work &#34;History&#34;</h2>",
		},
		{
			name:      "reply carrying section markup",
			selection: "Built APIs",
			reply:     `x</section><section data-section="Injected">y`,
			want:      "<p>x&lt;/section&gt;&lt;section data-section=&#34;Injected&#34;&gt;y</p>",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t, Options{})
			s := env.open(t)
			env.gateway.enhance = func(context.Context, string, string) (ai.Enhancement, error) {
				return ai.Enhancement{Text: tc.reply}, nil
			}
			s.Edit(withSummary(env.resume.Content, "Built APIs"))

			st, _, err := s.EnhanceSelection(context.Background(), tc.selection)
			if err != nil {
				t.Fatalf("EnhanceSelection: %v", err)
			}
			if strings.Join(st.Sections, ",") != strings.Join(document.DefaultSections, ",") {
				t.Fatalf("sections changed: %v", st.Sections)
			}
			if !strings.Contains(st.Content, tc.want) {
				t.Fatalf("expected %q in content, got %q", tc.want, st.Content)
			}
			if !strings.Contains(st.Content, `<section data-section="Experience">`) {
				t.Fatalf("section marker was rewritten: %q", st.Content)
			}
		})
	}
}

func TestAIRejectedRequestDoesNotHoldSlot(t *testing.T) {
	env := newTestEnv(t, Options{})
	s := env.open(t)
	calls := 0
	env.gateway.enhance = func(context.Context, string, string) (ai.Enhancement, error) {
		calls++
		return ai.Enhancement{Text: "unused"}, nil
	}

	st, _, err := s.EnhanceSelection(context.Background(), "not there")
	if !errors.Is(err, ErrSelectionNotFound) || st.AIBusy {
		t.Fatalf("expected selection not found with free slot, got %v busy=%v", err, st.AIBusy)
	}
	if _, _, err := s.EnhanceSelection(context.Background(), `section data-section="Summary"`); !errors.Is(err, ErrSelectionNotFound) {
		t.Fatalf("markup must not count as a selection, got %v", err)
	}
	if _, _, err := s.RewriteSection(context.Background(), "Hobbies", ""); !errors.Is(err, document.ErrSectionNotFound) {
		t.Fatalf("expected section not found, got %v", err)
	}

	env.mgr.Close(env.resume.ID)
	if _, _, err := s.EnhanceSelection(context.Background(), "not there"); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("expected closed session to win over a missing selection, got %v", err)
	}
	if _, _, err := s.RewriteSection(context.Background(), "Hobbies", ""); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("expected closed session to win over a missing section, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("gateway must not be called for rejected requests, got %d", calls)
	}
}

func TestRewriteSection(t *testing.T) {
	env := newTestEnv(t, Options{})
	s := env.open(t)
	env.gateway.enhance = func(_ context.Context, selection, surrounding string) (ai.Enhancement, error) {
		if !strings.Contains(surrounding, "Summary") {
			return ai.Enhancement{}, errors.New("prompt missing section name")
		}
		return ai.Enhancement{Text: "Senior engineer & mentor"}, nil
	}
	s.Edit(withSummary(env.resume.Content, "engineer"))

	st, _, err := s.RewriteSection(context.Background(), "Summary", "Make it punchy")
	if err != nil {
		t.Fatalf("RewriteSection: %v", err)
	}
	if !strings.Contains(st.Content, "<p>Senior engineer &amp; mentor</p>") {
		t.Fatalf("expected escaped rewrite, got %q", st.Content)
	}
	if strings.Join(st.Sections, ",") != strings.Join(document.DefaultSections, ",") {
		t.Fatalf("rewrite must keep section order, got %v", st.Sections)
	}
	if _, _, err := s.RewriteSection(context.Background(), "Hobbies", ""); Classify(err) != KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAIMissingCredential(t *testing.T) {
	env := newTestEnv(t, Options{})
	s := env.open(t)
	s.Edit(withSummary(env.resume.Content, "Built APIs"))

	_, _, err := s.EnhanceSelection(context.Background(), "Built APIs")
	if !errors.Is(err, ai.ErrMissingCredential) || Classify(err) != KindRemote {
		t.Fatalf("expected missing credential, got %v", err)
	}
	if s.State().AIBusy {
		t.Fatalf("slot must be released after failure")
	}
}

func TestAIBusyRejectsSecondRequest(t *testing.T) {
	env := newTestEnv(t, Options{})
	s := env.open(t)
	started := make(chan struct{})
	release := make(chan struct{})
	env.gateway.gaps = func(context.Context, string) (ai.GapReport, error) {
		close(started)
		<-release
		return ai.GapReport{Summary: "ok"}, nil
	}

	done := make(chan error, 1)
	go func() {
		_, err := s.AnalyzeGaps(context.Background())
		done <- err
	}()
	<-started

	if _, err := s.AnalyzeGaps(context.Background()); !errors.Is(err, ErrAIBusy) {
		t.Fatalf("expected busy, got %v", err)
	}
	if !s.State().AIBusy {
		t.Fatalf("expected busy flag while in flight")
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first request: %v", err)
	}
}

func TestAIResponseDiscardedAfterClose(t *testing.T) {
	env := newTestEnv(t, Options{})
	s := env.open(t)
	s.Edit(withSummary(env.resume.Content, "Built APIs"))

	started := make(chan struct{})
	release := make(chan struct{})
	env.gateway.enhance = func(context.Context, string, string) (ai.Enhancement, error) {
		close(started)
		<-release
		return ai.Enhancement{Text: "late"}, nil
	}

	done := make(chan error, 1)
	go func() {
		_, _, err := s.EnhanceSelection(context.Background(), "Built APIs")
		done <- err
	}()
	<-started
	env.mgr.Close(env.resume.ID)
	close(release)

	if err := <-done; !errors.Is(err, ErrStaleResponse) {
		t.Fatalf("expected stale response, got %v", err)
	}
	if _, err := s.Edit("x"); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("expected closed session, got %v", err)
	}
	if n := len(env.versionList(t)); n != 0 {
		t.Fatalf("stale response must not create versions, got %d", n)
	}
}

func TestAIResponseDiscardedWhenSelectionEdited(t *testing.T) {
	env := newTestEnv(t, Options{})
	s := env.open(t)
	s.Edit(withSummary(env.resume.Content, "Built APIs"))

	started := make(chan struct{})
	release := make(chan struct{})
	env.gateway.enhance = func(context.Context, string, string) (ai.Enhancement, error) {
		close(started)
		<-release
		return ai.Enhancement{Text: "late"}, nil
	}
	done := make(chan error, 1)
	go func() {
		_, _, err := s.EnhanceSelection(context.Background(), "Built APIs")
		done <- err
	}()
	<-started
	rewritten := withSummary(env.resume.Content, "Rewrote by hand")
	if _, err := s.Edit(rewritten); err != nil {
		t.Fatalf("Edit during request: %v", err)
	}
	close(release)

	if err := <-done; !errors.Is(err, ErrStaleResponse) {
		t.Fatalf("expected stale response, got %v", err)
	}
	if st := s.State(); st.Content != rewritten || st.AIBusy {
		t.Fatalf("expected manual edit kept, got %+v", st)
	}
}

func TestAnalyzeATSRecordsScore(t *testing.T) {
	env := newTestEnv(t, Options{})
	s := env.open(t)
	ctx := context.Background()
	env.gateway.ats = func(context.Context, string, string) (ai.ATSResult, error) {
		return ai.ATSResult{Score: 82, Suggestions: []string{"Add metrics"}}, nil
	}

	res, err := s.AnalyzeATS(ctx, "Go developer")
	if err != nil {
		t.Fatalf("AnalyzeATS: %v", err)
	}
	if res.Score != 82 {
		t.Fatalf("unexpected score %d", res.Score)
	}
	stored := env.stored(t)
	if stored.ATSScore == nil || *stored.ATSScore != 82 {
		t.Fatalf("expected score on resume, got %v", stored.ATSScore)
	}
	if stored.Content != env.resume.Content {
		t.Fatalf("analysis must not touch content")
	}
	hist, err := env.scores.History(ctx, env.resume.ID)
	if err != nil || len(hist) != 1 {
		t.Fatalf("expected one history entry, got %d (%v)", len(hist), err)
	}
	if _, err := s.MatchKeywords(ctx, " "); !errors.Is(err, ErrMissingJobDescription) {
		t.Fatalf("expected missing job description, got %v", err)
	}
}

func TestCompareWithVersion(t *testing.T) {
	env := newTestEnv(t, Options{})
	s := env.open(t)
	ctx := context.Background()
	s.Edit(withSummary(env.resume.Content, "first"))
	_, saved, err := s.Save(ctx)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	s.Edit(withSummary(env.resume.Content, "second"))

	res, err := s.CompareWithVersion(ctx, saved.Version.ID)
	if err != nil {
		t.Fatalf("CompareWithVersion: %v", err)
	}
	if res.Unchanged() {
		t.Fatalf("expected differences")
	}
}

func TestShutdownClosesSessions(t *testing.T) {
	env := newTestEnv(t, Options{})
	s := env.open(t)
	s.Edit(withSummary(env.resume.Content, "unsaved"))
	env.mgr.Shutdown()

	if env.mgr.Len() != 0 {
		t.Fatalf("expected no sessions")
	}
	env.clock.Advance(testDelay)
	if env.stored(t).Content != env.resume.Content {
		t.Fatalf("closed session must not autosave")
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want Kind
	}{
		{ErrNothingToUndo, KindStructural},
		{reorder.ErrNoActiveDrag, KindStructural},
		{reorder.ErrUnknownSection, KindStructural},
		{fmt.Errorf("%w: stale order", ErrDropOutdated), KindStructural},
		{ErrStructureChanged, KindRemote},
		{ErrAIBusy, KindConflict},
		{ErrStaleResponse, KindConflict},
		{fmt.Errorf("wrap: %w", resumes.ErrNotFound), KindNotFound},
		{versions.ErrVersionNotFound, KindNotFound},
		{document.ErrDuplicateSection, KindValidation},
		{export.ErrUnsupportedFormat, KindValidation},
		{ErrRedoDisabled, KindValidation},
		{ai.ErrMissingCredential, KindRemote},
		{ai.Remote("analyze_ats", 502, errors.New("bad gateway")), KindRemote},
		{kv.ErrQuotaExceeded, KindStorage},
		{errors.New("connection refused"), KindStorage},
	}
	for _, tc := range cases {
		if got := Classify(tc.err); got != tc.want {
			t.Fatalf("Classify(%v) = %s, want %s", tc.err, got, tc.want)
		}
	}
}
