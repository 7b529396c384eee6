package cli

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/alexanderramin/comply/internal/domain"
	"github.com/alexanderramin/comply/internal/repository"
	"github.com/alexanderramin/comply/internal/service"
	"github.com/alexanderramin/comply/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)

// testApp wires a full App against a fake backend and an in-memory DB.
func testApp(t *testing.T) (*App, *testutil.FakeGateway) {
	t.Helper()
	database := testutil.NewTestDB(t)
	uow := testutil.NewTestUoW(database)
	gw := testutil.NewFakeGateway()

	return &App{
		Catalogue:   service.NewCatalogueService(gw, repository.NewSQLiteSnapshotRepo(database)),
		Assignments: service.NewAssignmentService(gw, uow),
		Tracking:    service.NewTrackingService(gw, uow),
		Reports:     service.NewReportService(gw),
		History:     service.NewHistoryService(repository.NewSQLiteSubmissionRepo(database), repository.NewSQLiteSaveLogRepo(database)),
		Now:         func() time.Time { return testNow },
	}, gw
}

// seedAssignment gives u-1 one assignment with three monthly instances,
// the first of them done.
func seedAssignment(gw *testutil.FakeGateway) {
	first := time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)
	gw.SetAssignments("u-1", testutil.NewTestAssignment("a-1", "G1",
		testutil.WithOrganisation("o-1", "Acme"),
		testutil.WithMonthlyInstances(first, 3, 1),
	))
}

// executeCmd runs a cobra command and captures stdout/stderr.
func executeCmd(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(app)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

// --- catalogue ---

func TestCatalogueShow_CollapsedByDefault(t *testing.T) {
	app, _ := testApp(t)

	out, err := executeCmd(t, app, "catalogue", "show")
	require.NoError(t, err)

	assert.Contains(t, out, "GST")
	assert.Contains(t, out, "TDS")
	assert.NotContains(t, out, "G3B")
	assert.Contains(t, out, "--expand")
	assert.Contains(t, out, "live")
}

func TestCatalogueShow_Expand(t *testing.T) {
	app, _ := testApp(t)

	out, err := executeCmd(t, app, "catalogue", "show", "--expand")
	require.NoError(t, err)

	assert.Contains(t, out, "0/0")
	assert.Contains(t, out, "G3B GSTR-3B")
	assert.Contains(t, out, "4 obligations")
}

func TestCatalogueShow_OfflineUsesCache(t *testing.T) {
	app, gw := testApp(t)

	_, err := executeCmd(t, app, "catalogue", "show", "--org", "o-1")
	require.NoError(t, err)

	out, err := executeCmd(t, app, "catalogue", "show", "--org", "o-1", "--offline", "--expand")
	require.NoError(t, err)

	assert.Contains(t, out, "cached")
	assert.Contains(t, out, "T1")
	catalogueCalls, _, _, _ := gw.Calls()
	assert.Equal(t, 1, catalogueCalls)
}

func TestCatalogueShow_OfflineWithoutCache(t *testing.T) {
	app, _ := testApp(t)

	_, err := executeCmd(t, app, "catalogue", "show", "--offline")
	assert.ErrorIs(t, err, domain.ErrFetchFailed)
}

func TestCatalogueShow_InvalidVariant(t *testing.T) {
	app, _ := testApp(t)

	_, err := executeCmd(t, app, "catalogue", "show", "--variant", "tree")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown catalogue variant")
}

func TestCatalogueShow_VariantPassedToBackend(t *testing.T) {
	app, gw := testApp(t)
	app.DefaultVariant = domain.VariantBranches
	gw.Catalogue = []byte(testutil.FlowCatalogueJSON)

	out, err := executeCmd(t, app, "catalogue", "show", "--variant", "FLOW", "--expand")
	require.NoError(t, err)

	assert.Equal(t, []domain.CatalogueVariant{domain.VariantFlow}, gw.CatalogueCalls)
	assert.Contains(t, out, "Start here")
	assert.Contains(t, out, "P1")
}

// --- assign ---

func TestAssign_CodesAndBranchWithYes(t *testing.T) {
	app, gw := testApp(t)

	out, err := executeCmd(t, app, "assign", "--user", "u-1", "--org", "o-1",
		"--code", "T1", "--branch", "0/0", "--yes")
	require.NoError(t, err)

	require.Len(t, gw.AssignCalls, 1)
	call := gw.AssignCalls[0]
	assert.Equal(t, "u-1", call.UserID)
	require.NotNil(t, call.OrgID)
	assert.Equal(t, "o-1", *call.OrgID)
	assert.Equal(t, []string{"G1", "G3B", "T1"}, call.Codes)
	assert.Contains(t, out, "Assigned 3 obligations to u-1")
}

func TestAssign_RepeatedCodeAndCoveredBranchSelectOnce(t *testing.T) {
	app, gw := testApp(t)

	_, err := executeCmd(t, app, "assign", "--user", "u-1",
		"--code", "G1,G1", "--code", "G3B", "--branch", "0/0", "--yes")
	require.NoError(t, err)

	require.Len(t, gw.AssignCalls, 1)
	assert.Equal(t, []string{"G1", "G3B"}, gw.AssignCalls[0].Codes)
	assert.Nil(t, gw.AssignCalls[0].OrgID)
}

func TestAssign_NoSelection(t *testing.T) {
	app, gw := testApp(t)

	_, err := executeCmd(t, app, "assign", "--user", "u-1", "--yes")
	assert.ErrorIs(t, err, domain.ErrEmptySelection)
	catalogueCalls, assignCalls, _, _ := gw.Calls()
	assert.Zero(t, catalogueCalls)
	assert.Zero(t, assignCalls)
}

func TestAssign_MissingUserFlag(t *testing.T) {
	app, _ := testApp(t)

	_, err := executeCmd(t, app, "assign", "--code", "G1", "--yes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user")
}

func TestAssign_UnknownCode(t *testing.T) {
	app, gw := testApp(t)

	_, err := executeCmd(t, app, "assign", "--user", "u-1", "--code", "NOPE", "--yes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown obligation code "NOPE"`)
	assert.Empty(t, gw.AssignCalls)
}

func TestAssign_UnknownBranch(t *testing.T) {
	app, gw := testApp(t)

	_, err := executeCmd(t, app, "assign", "--user", "u-1", "--branch", "9/9", "--yes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown catalogue branch")
	assert.Empty(t, gw.AssignCalls)
}

func TestAssign_RequiresConfirmationWithoutTerminal(t *testing.T) {
	app, gw := testApp(t)

	out, err := executeCmd(t, app, "assign", "--user", "u-1", "--code", "G1")
	assert.ErrorIs(t, err, errConfirmationRequired)
	assert.Contains(t, out, "Assignment preview")
	assert.Empty(t, gw.AssignCalls)
}

func TestAssign_ConfirmDeclined(t *testing.T) {
	app, gw := testApp(t)
	app.IsInteractive = func() bool { return true }
	var asked string
	app.Confirm = func(title, _ string) (bool, error) {
		asked = title
		return false, nil
	}

	out, err := executeCmd(t, app, "assign", "--user", "u-1", "--code", "G1")
	require.NoError(t, err)

	assert.Equal(t, "Assign 1 obligation to u-1?", asked)
	assert.Contains(t, out, "Cancelled")
	assert.Empty(t, gw.AssignCalls)
}

func TestAssign_ConfirmAccepted(t *testing.T) {
	app, gw := testApp(t)
	app.IsInteractive = func() bool { return true }
	app.Confirm = func(string, string) (bool, error) { return true, nil }

	_, err := executeCmd(t, app, "assign", "--user", "u-1", "--code", "G9")
	require.NoError(t, err)

	require.Len(t, gw.AssignCalls, 1)
	assert.Equal(t, []string{"G9"}, gw.AssignCalls[0].Codes)
}

func TestAssign_BackendRejectsIsLogged(t *testing.T) {
	app, gw := testApp(t)
	gw.FailAssign(errors.New("quota exceeded"))

	_, err := executeCmd(t, app, "assign", "--user", "u-1", "--code", "G1", "--yes")
	assert.ErrorIs(t, err, domain.ErrSubmissionFailed)

	out, err := executeCmd(t, app, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "assign")
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "quota exceeded")
}

func TestAssignPick_NeedsTerminal(t *testing.T) {
	app, _ := testApp(t)

	_, err := executeCmd(t, app, "assign", "pick", "--user", "u-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interactive terminal")
}

// --- instances ---

func TestInstancesList_Assignments(t *testing.T) {
	app, gw := testApp(t)
	seedAssignment(gw)

	out, err := executeCmd(t, app, "instances", "list", "--user", "u-1")
	require.NoError(t, err)

	assert.Contains(t, out, "a-1")
	assert.Contains(t, out, "Acme")
	assert.Contains(t, out, "G1 filing")
}

func TestInstancesList_OneAssignment(t *testing.T) {
	app, gw := testApp(t)
	seedAssignment(gw)

	out, err := executeCmd(t, app, "instances", "list", "--user", "u-1", "--assignment", "a-1")
	require.NoError(t, err)

	assert.Contains(t, out, "a-1-i1")
	assert.Contains(t, out, "a-1-i3")
	assert.Contains(t, out, "1/3 done")
}

func TestInstancesList_UnknownAssignment(t *testing.T) {
	app, gw := testApp(t)
	seedAssignment(gw)

	_, err := executeCmd(t, app, "inst", "list", "--user", "u-1", "--assignment", "a-9")
	assert.ErrorIs(t, err, domain.ErrAssignmentNotFound)
}

func TestInstancesMark_SendsFullDoneSet(t *testing.T) {
	app, gw := testApp(t)
	seedAssignment(gw)

	out, err := executeCmd(t, app, "instances", "mark", "--user", "u-1", "--assignment", "a-1",
		"--toggle", "a-1-i2", "--yes")
	require.NoError(t, err)

	require.Len(t, gw.MarkCalls, 1)
	assert.Equal(t, []string{"a-1-i1", "a-1-i2"}, gw.MarkCalls[0])
	assert.Contains(t, out, "Saved. 2 instances done.")
	assert.Contains(t, out, "2/3 done")
	assert.Equal(t, 2, gw.Assignments("u-1")[0].CompletedCount())
}

func TestInstancesMark_EmptyDoneSetRejected(t *testing.T) {
	app, gw := testApp(t)
	seedAssignment(gw)

	_, err := executeCmd(t, app, "instances", "mark", "--user", "u-1", "--assignment", "a-1",
		"--toggle", "a-1-i1", "--yes")
	assert.ErrorIs(t, err, domain.ErrNoInstancesSelected)
	assert.Empty(t, gw.MarkCalls)
}

func TestInstancesMark_ToggleTwiceIsNoChange(t *testing.T) {
	app, gw := testApp(t)
	seedAssignment(gw)

	out, err := executeCmd(t, app, "instances", "mark", "--user", "u-1", "--assignment", "a-1",
		"--toggle", "a-1-i2,a-1-i2", "--yes")
	require.NoError(t, err)

	assert.Contains(t, out, "No changes to save.")
	assert.Empty(t, gw.MarkCalls)
}

func TestInstancesMark_UnknownInstance(t *testing.T) {
	app, gw := testApp(t)
	seedAssignment(gw)

	_, err := executeCmd(t, app, "instances", "mark", "--user", "u-1", "--assignment", "a-1",
		"--toggle", "zzz", "--yes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `instance "zzz"`)
	assert.Empty(t, gw.MarkCalls)
}

func TestInstancesMark_RequiresConfirmationWithoutTerminal(t *testing.T) {
	app, gw := testApp(t)
	seedAssignment(gw)

	_, err := executeCmd(t, app, "instances", "mark", "--user", "u-1", "--assignment", "a-1",
		"--toggle", "a-1-i2")
	assert.ErrorIs(t, err, errConfirmationRequired)
	assert.Empty(t, gw.MarkCalls)
}

func TestInstancesMark_BackendFailure(t *testing.T) {
	app, gw := testApp(t)
	seedAssignment(gw)
	gw.FailMark(errors.New("upstream 502"))

	_, err := executeCmd(t, app, "instances", "mark", "--user", "u-1", "--assignment", "a-1",
		"--toggle", "a-1-i2", "--yes")
	assert.ErrorIs(t, err, domain.ErrSaveFailed)
	assert.Equal(t, 1, gw.Assignments("u-1")[0].CompletedCount())
}

func TestInstancesMark_RefreshFailureStillReportsSave(t *testing.T) {
	app, gw := testApp(t)
	seedAssignment(gw)
	// The open succeeds; the refetch after the save fails.
	gw.FailList(nil, errors.New("connection reset"))

	out, err := executeCmd(t, app, "instances", "mark", "--user", "u-1", "--assignment", "a-1",
		"--toggle", "a-1-i3", "--yes")
	require.NoError(t, err)

	assert.Contains(t, out, "Saved. 2 instances done.")
	assert.Contains(t, out, "refresh failed")
	assert.Contains(t, out, "2/3 done")
}

func TestInstancesTrack_NeedsTerminal(t *testing.T) {
	app, _ := testApp(t)

	_, err := executeCmd(t, app, "instances", "track", "--user", "u-1", "--assignment", "a-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interactive terminal")
}

// --- report & history ---

func TestReport_MultipleUsers(t *testing.T) {
	app, gw := testApp(t)
	seedAssignment(gw)

	out, err := executeCmd(t, app, "report", "--user", "u-1", "--user", "u-2")
	require.NoError(t, err)

	assert.Contains(t, out, "u-1")
	assert.Contains(t, out, "Acme")
	assert.Contains(t, out, "1/3 instances done")
	assert.Contains(t, out, "u-2")
	assert.Contains(t, out, "No assignments.")
}

func TestReport_BackendFailure(t *testing.T) {
	app, gw := testApp(t)
	gw.FailList(errors.New("down"))

	_, err := executeCmd(t, app, "report", "--user", "u-1")
	assert.ErrorIs(t, err, domain.ErrFetchFailed)
}

func TestHistory_Empty(t *testing.T) {
	app, _ := testApp(t)

	out, err := executeCmd(t, app, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "No local history yet.")
}

func TestHistory_ShowsSubmissionsAndSaves(t *testing.T) {
	app, gw := testApp(t)
	seedAssignment(gw)

	_, err := executeCmd(t, app, "assign", "--user", "u-1", "--code", "T1", "--yes")
	require.NoError(t, err)
	_, err = executeCmd(t, app, "instances", "mark", "--user", "u-1", "--assignment", "a-1",
		"--toggle", "a-1-i2", "--yes")
	require.NoError(t, err)

	out, err := executeCmd(t, app, "history", "--limit", "10")
	require.NoError(t, err)

	assert.Contains(t, out, "assign")
	assert.Contains(t, out, "save")
	assert.Contains(t, out, "a-1")
	assert.Contains(t, out, "2 instances")
	assert.Contains(t, out, "1 code")
}
