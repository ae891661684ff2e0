package crawl

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/repoharvest/repoharvest/pkg/errors"
	"github.com/repoharvest/repoharvest/pkg/integrations/github"
	"github.com/repoharvest/repoharvest/pkg/table"
)

type fakeMeasurer struct {
	counts  map[string]int
	commits map[string]string
	fail    map[string]error
	calls   int
}

func (f *fakeMeasurer) CountTestFiles(ctx context.Context, owner, repo string, refresh bool) (int, error) {
	f.calls++
	key := owner + "/" + repo
	if err := f.fail[key]; err != nil {
		return 0, err
	}
	return f.counts[key], nil
}

func (f *fakeMeasurer) LatestCommit(ctx context.Context, owner, repo string, refresh bool) (*github.Commit, error) {
	key := owner + "/" + repo
	if err := f.fail[key]; err != nil {
		return nil, err
	}
	sha := f.commits[key]
	return &github.Commit{SHA: sha, HTMLURL: "https://github.com/" + key + "/commit/" + sha}, nil
}

func TestAPICrawlerMeasuresRows(t *testing.T) {
	dir := t.TempDir()
	input := writeInputCSV(t, dir)
	cp, err := LoadCheckpoint(input, filepath.Join(dir, "out.csv"))
	if err != nil {
		t.Fatal(err)
	}

	gh := &fakeMeasurer{
		counts:  map[string]int{"a/b": 12, "a/c": 0},
		commits: map[string]string{"a/b": "sha1", "a/c": "sha2"},
	}
	c := &APICrawler{GitHub: gh, Checkpoint: cp}
	if err := c.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	if got := cp.Results.Rows[0]; got.TestFileCount != 12 || got.LastCommitHash != "sha1" {
		t.Errorf("row 0 = %+v", got)
	}
	if got := cp.Results.Rows[1]; got.TestFileCount != 0 || got.LastCommitHash != "sha2" {
		t.Errorf("row 1 = %+v", got)
	}
	if got := cp.Results.Rows[0].LastCommitURL; got != "https://github.com/a/b/commit/sha1" {
		t.Errorf("commit url = %q", got)
	}
	if cp.Results.Rows[0].Explanation != "No issues detected." {
		t.Errorf("explanation = %q", cp.Results.Rows[0].Explanation)
	}
}

func TestAPICrawlerSkipsNonGitHubRows(t *testing.T) {
	dir := t.TempDir()
	tbl := &table.Table{Records: []table.Record{
		{
			ProjectRef: "r1", RepoURL: "https://gitlab.com/a/b",
			Domain: "gitlab.com", BaseRepoURL: "https://gitlab.com/a/b", BaseRepoURLOK: true,
		},
	}}
	input := filepath.Join(dir, "input.csv")
	if err := tbl.WriteCSVFile(input); err != nil {
		t.Fatal(err)
	}

	cp, err := LoadCheckpoint(input, filepath.Join(dir, "out.csv"))
	if err != nil {
		t.Fatal(err)
	}
	gh := &fakeMeasurer{}
	c := &APICrawler{GitHub: gh, Checkpoint: cp}
	if err := c.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if gh.calls != 0 {
		t.Errorf("GitHub API called %d times for non-GitHub rows", gh.calls)
	}
	if cp.Results.Rows[0].TestFileCount != Uncounted {
		t.Errorf("non-GitHub row should stay unmeasured: %+v", cp.Results.Rows[0])
	}
}

func TestAPICrawlerRecordsRowFailuresAndContinues(t *testing.T) {
	dir := t.TempDir()
	tbl := &table.Table{}
	for _, repo := range []string{"r1", "r2", "r3", "r4", "r5", "r6"} {
		tbl.Records = append(tbl.Records, table.Record{
			ProjectRef: repo, RepoURL: "https://github.com/a/" + repo,
			Domain: "github.com", BaseRepoURL: "https://github.com/a/" + repo, BaseRepoURLOK: true,
		})
	}
	input := filepath.Join(dir, "input.csv")
	if err := tbl.WriteCSVFile(input); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(dir, "out.csv")
	cp, err := LoadCheckpoint(input, out)
	if err != nil {
		t.Fatal(err)
	}
	boom := errors.New(errors.ErrCodeNetwork, "boom")
	gh := &fakeMeasurer{fail: map[string]error{
		"a/r1": boom, "a/r2": boom, "a/r3": boom, "a/r4": boom, "a/r5": boom, "a/r6": boom,
	}}
	c := &APICrawler{GitHub: gh, Checkpoint: cp, MaxConsecutiveFailures: 2}

	// A failure streak never aborts the run.
	if err := c.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	for i, row := range cp.Results.Rows {
		if row.CloneStatus != MeasureFailed {
			t.Errorf("row %d status = %q, want %q", i, row.CloneStatus, MeasureFailed)
		}
		if !row.Done() {
			t.Errorf("row %d should be terminal after its retries are spent", i)
		}
		if row.Explanation != "Repository could not be measured through the API." {
			t.Errorf("row %d explanation = %q", i, row.Explanation)
		}
	}

	// A rerun over the checkpoint leaves the failed rows alone.
	resumed, err := LoadCheckpoint(input, out)
	if err != nil {
		t.Fatal(err)
	}
	fresh := &fakeMeasurer{fail: map[string]error{}}
	c = &APICrawler{GitHub: fresh, Checkpoint: resumed}
	if err := c.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if fresh.calls != 0 {
		t.Errorf("failed rows were retried %d times on resume", fresh.calls)
	}
}

func TestAPICrawlerFailureDoesNotStopLaterRows(t *testing.T) {
	dir := t.TempDir()
	input := writeInputCSV(t, dir)
	cp, err := LoadCheckpoint(input, filepath.Join(dir, "out.csv"))
	if err != nil {
		t.Fatal(err)
	}

	gh := &fakeMeasurer{
		counts:  map[string]int{"a/c": 2},
		commits: map[string]string{"a/c": "sha"},
		fail:    map[string]error{"a/b": errors.New(errors.ErrCodeRepoNotFound, "gone")},
	}
	c := &APICrawler{GitHub: gh, Checkpoint: cp}
	if err := c.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	if cp.Results.Rows[0].CloneStatus != MeasureFailed {
		t.Errorf("row 0 status = %q", cp.Results.Rows[0].CloneStatus)
	}
	if cp.Results.Rows[1].TestFileCount != 2 || cp.Results.Rows[1].LastCommitHash != "sha" {
		t.Errorf("row after a failure not measured: %+v", cp.Results.Rows[1])
	}
}

func TestAPICrawlerResumeSkipsMeasuredRows(t *testing.T) {
	dir := t.TempDir()
	input := writeInputCSV(t, dir)
	out := filepath.Join(dir, "out.csv")

	cp, err := LoadCheckpoint(input, out)
	if err != nil {
		t.Fatal(err)
	}
	cp.Results.Rows[0].TestFileCount = 3
	cp.Results.Rows[0].LastCommitHash = "done"
	if err := cp.Save(); err != nil {
		t.Fatal(err)
	}

	resumed, err := LoadCheckpoint(input, out)
	if err != nil {
		t.Fatal(err)
	}
	gh := &fakeMeasurer{
		counts:  map[string]int{"a/c": 1},
		commits: map[string]string{"a/c": "sha"},
	}
	c := &APICrawler{GitHub: gh, Checkpoint: resumed}
	if err := c.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	if resumed.Results.Rows[0].TestFileCount != 3 {
		t.Errorf("measured row was redone: %+v", resumed.Results.Rows[0])
	}
	if resumed.Results.Rows[1].TestFileCount != 1 {
		t.Errorf("pending row not measured: %+v", resumed.Results.Rows[1])
	}
}
