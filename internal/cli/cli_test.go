package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/backlog/internal/paths"
	"github.com/mesh-intelligence/backlog/pkg/types"
)

// harness runs root commands against private config and data directories.
type harness struct {
	t         *testing.T
	configDir string
	dataDir   string
	extra     []string
}

func newHarness(t *testing.T, extra ...string) *harness {
	t.Helper()
	base := t.TempDir()
	return &harness{
		t:         t,
		configDir: filepath.Join(base, "config"),
		dataDir:   filepath.Join(base, "data"),
		extra:     extra,
	}
}

func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	full := append([]string{"--config-dir", h.configDir, "--data-dir", h.dataDir}, h.extra...)
	root.SetArgs(append(full, args...))
	err := root.Execute()
	return out.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	require.NoError(h.t, err, "backlog %v", args)
	return out
}

func (h *harness) addTask(title, typ string) {
	h.t.Helper()
	h.mustRun("task", "add", "--title", title, "--type", typ, "--creator", "sesmith5", "--note", "created")
}

func TestVersion(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun("version")
	assert.Contains(t, out, "backlog v"+Version)
	assert.Contains(t, out, modulePath)
}

func TestInitWritesConfig(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun("init")
	assert.Contains(t, out, "Backlog initialized")

	data, err := os.ReadFile(paths.ConfigFile(h.configDir))
	require.NoError(t, err)
	assert.Contains(t, string(data), "backend: text")
	assert.Contains(t, string(data), "data_dir: "+h.dataDir)

	_, err = os.Stat(h.dataDir)
	assert.NoError(t, err)
}

func TestProductLifecycle(t *testing.T) {
	h := newHarness(t)

	h.mustRun("product", "add", "A")
	h.mustRun("product", "add", "B")

	out := h.mustRun("--json", "product", "list")
	var products []productJSON
	require.NoError(t, json.Unmarshal([]byte(out), &products))
	require.Len(t, products, 2)
	assert.Equal(t, "A", products[0].Name)
	assert.True(t, products[0].Selected, "first product is selected after load")

	_, err := h.run("product", "add", "A")
	assert.ErrorIs(t, err, types.ErrDuplicateProduct)

	_, err = h.run("-p", "A", "product", "rename", "B")
	assert.ErrorIs(t, err, types.ErrDuplicateProduct)
	_, err = h.run("-p", "A", "product", "rename", "A")
	assert.ErrorIs(t, err, types.ErrDuplicateProduct)
	h.mustRun("-p", "A", "product", "rename", "C")

	out = h.mustRun("--json", "product", "list")
	products = nil
	require.NoError(t, json.Unmarshal([]byte(out), &products))
	require.Len(t, products, 2)
	assert.Equal(t, "C", products[0].Name)
	assert.Equal(t, "B", products[1].Name)

	out = h.mustRun("product", "list")
	assert.Contains(t, strings.ToUpper(out), "TASKS", "plain listing has a header")

	out = h.mustRun("-p", "B", "product", "remove")
	assert.Contains(t, out, `Removed product "B"`)
	assert.Contains(t, out, `Selected product "C"`)

	h.mustRun("product", "remove")
	out = h.mustRun("product", "list")
	assert.Contains(t, out, "No products")

	_, err = h.run("product", "remove")
	assert.ErrorIs(t, err, types.ErrNoSelection)
}

func TestUnknownProductFlag(t *testing.T) {
	h := newHarness(t)
	h.mustRun("product", "add", "A")

	_, err := h.run("-p", "Nope", "task", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `product "Nope" not found`)
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestTaskWorkflow(t *testing.T) {
	for _, backend := range []string{types.BackendText, types.BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			h := newHarness(t, "--backend", backend)
			h.mustRun("product", "add", "Cart")
			h.addTask("Express", "feature")
			h.addTask("Research", "KA")

			out := h.mustRun("task", "list")
			assert.Contains(t, out, "Express")
			assert.Contains(t, out, "Knowledge Acquisition")

			out = h.mustRun("task", "claim", "1", "--owner", "joe", "--note", "mine")
			assert.Contains(t, out, `Task 1 in "Cart": Backlog -> Owned`)
			h.mustRun("task", "process", "1", "--note", "started")
			h.mustRun("task", "verify", "1", "--note", "ready")
			out = h.mustRun("task", "complete", "1", "--note", "good ")
			assert.Contains(t, out, "Verifying -> Done")

			out = h.mustRun("--json", "task", "show", "1")
			var task taskJSON
			require.NoError(t, json.Unmarshal([]byte(out), &task))
			assert.Equal(t, "Done", task.State)
			assert.Equal(t, "joe", task.Owner)
			assert.True(t, task.Verified)
			assert.Equal(t, []string{
				"[Backlog] created",
				"[Backlog] mine",
				"[Owned] started",
				"[Processing] ready",
				"[Verifying] good ",
			}, task.Notes)

			// Knowledge acquisition skips Verifying.
			h.mustRun("task", "claim", "2", "--owner", "ann", "--note", "mine")
			h.mustRun("task", "process", "2", "--note", "reading")
			_, err := h.run("task", "verify", "2", "--note", "check")
			var te *types.TransitionError
			require.ErrorAs(t, err, &te)
			assert.Equal(t, exitUserError, exitCode(err))
			h.mustRun("task", "complete", "2", "--note", "learned")

			out = h.mustRun("task", "show", "2")
			assert.Contains(t, out, "State:    Done")
			assert.Contains(t, out, "Verified: false")
		})
	}
}

func TestProductAddThenTaskAdd(t *testing.T) {
	for _, backend := range []string{types.BackendText, types.BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			h := newHarness(t, "--backend", backend)
			h.mustRun("product", "add", "Cart")

			out := h.mustRun("product", "list")
			assert.Contains(t, out, "Cart")

			out = h.mustRun("task", "add", "--title", "Express", "--type", "F", "--creator", "sesmith5", "--note", "first")
			assert.Contains(t, out, `Added task 1 to "Cart"`)

			out = h.mustRun("product", "add", "Scheduler")
			assert.Contains(t, out, `Task commands use "Cart" unless --product "Scheduler" is given`)
			out = h.mustRun("-p", "Scheduler", "task", "add", "--title", "Catalog", "--type", "TW", "--creator", "sesmith5", "--note", "first")
			assert.Contains(t, out, `Added task 1 to "Scheduler"`)

			out = h.mustRun("--json", "product", "list")
			var products []productJSON
			require.NoError(t, json.Unmarshal([]byte(out), &products))
			require.Len(t, products, 2)
			assert.Equal(t, 1, products[0].Tasks)
			assert.Equal(t, 1, products[1].Tasks)
		})
	}
}

func TestTaskErrors(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("task", "add", "--title", "x", "--type", "F", "--creator", "c", "--note", "n")
	assert.ErrorIs(t, err, types.ErrNoSelection)

	h.mustRun("product", "add", "Cart")
	_, err = h.run("task", "add", "--title", "x", "--type", "epic", "--creator", "c", "--note", "n")
	assert.ErrorIs(t, err, types.ErrInvalidType)

	_, err = h.run("task", "claim", "1", "--owner", "", "--note", "n")
	assert.ErrorIs(t, err, types.ErrInvalidCommand)

	_, err = h.run("task", "show", "7")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "task 7 not found")

	_, err = h.run("task", "delete", "abc")
	require.Error(t, err)

	h.addTask("Express", "F")
	_, err = h.run("task", "complete", "1", "--note", "too soon")
	assert.ErrorIs(t, err, types.ErrInvalidTransition)

	out := h.mustRun("task", "delete", "1")
	assert.Contains(t, out, `Deleted task 1 from "Cart"`)
	out = h.mustRun("task", "list")
	assert.Contains(t, out, `No tasks in "Cart"`)
}

func TestExportImport(t *testing.T) {
	h := newHarness(t)
	h.mustRun("product", "add", "Cart")
	h.addTask("Express", "F")
	h.mustRun("task", "reject", "1", "--note", "no")

	path := filepath.Join(t.TempDir(), "backlog.txt")
	h.mustRun("export", path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# Cart\n* 1,Rejected,Express,F,sesmith5,unowned,false\n- [Backlog] created\n- [Backlog] no\n", string(data))

	other := newHarness(t, "--backend", "sqlite")
	out := other.mustRun("import", path)
	assert.Contains(t, out, "Imported 1 products")

	out = other.mustRun("--json", "task", "list")
	var rows []taskRowJSON
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, taskRowJSON{ID: 1, State: "Rejected", Type: "Feature", Title: "Express"}, rows[0])

	_, err = other.run("import", filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file not found")
}

func TestUnencodableTitleIsUserError(t *testing.T) {
	h := newHarness(t)
	h.mustRun("product", "add", "Cart")
	_, err := h.run("task", "add", "--title", "a,b", "--type", "F", "--creator", "c", "--note", "n")
	require.Error(t, err)
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestUnknownBackend(t *testing.T) {
	h := newHarness(t, "--backend", "csv")
	_, err := h.run("product", "list")
	assert.ErrorIs(t, err, types.ErrBackendUnknown)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitSuccess, exitCode(nil))
	assert.Equal(t, exitUserError, exitCode(types.ErrDuplicateProduct))
	assert.Equal(t, exitUserError, exitCode(errors.New("unknown flag")))
	assert.Equal(t, exitSysError, exitCode(systemError(errors.New("disk full"))))
	assert.Equal(t, exitSysError, exitCode(fmt.Errorf("saving: %w", systemError(os.ErrPermission))))
}
