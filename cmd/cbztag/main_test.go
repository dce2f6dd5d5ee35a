package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cbztag/internal/cbz"
	"cbztag/internal/comicinfo"
	"cbztag/internal/testsupport"
)

type cliTestEnv struct {
	configPath string
	libraryDir string
	stateDir   string
}

func setupCLITestEnv(t *testing.T, extraConfig string) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("NO_COLOR", "1")
	env := &cliTestEnv{
		configPath: filepath.Join(base, "cbztag.toml"),
		libraryDir: filepath.Join(base, "library"),
		stateDir:   filepath.Join(base, "state"),
	}
	if err := os.MkdirAll(env.libraryDir, 0o755); err != nil {
		t.Fatalf("mkdir library: %v", err)
	}
	content := "[paths]\n" +
		"state_dir = \"" + filepath.ToSlash(env.stateDir) + "\"\n" +
		"library_dir = \"" + filepath.ToSlash(env.libraryDir) + "\"\n\n" +
		"[api]\nbind = \"127.0.0.1:0\"\n\n" +
		"[logging]\nlevel = \"error\"\n" + extraConfig
	testsupport.WriteFile(t, env.configPath, []byte(content))
	return env
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}

func (e *cliTestEnv) archive(t *testing.T, name string, entries []testsupport.Entry) string {
	t.Helper()
	path := filepath.Join(e.libraryDir, name)
	testsupport.WriteArchive(t, path, entries)
	return path
}

func withMetadata(xml string, images ...string) []testsupport.Entry {
	return append(testsupport.ImageEntries(images...), testsupport.Entry{Name: "ComicInfo.xml", Data: []byte(xml)})
}

func TestShowCommand(t *testing.T) {
	env := setupCLITestEnv(t, "")
	path := env.archive(t, "a.cbz", withMetadata(
		`<ComicInfo><Series>Saga</Series><LanguageISO>en</LanguageISO><Manga>No</Manga></ComicInfo>`,
		"01.jpg",
	))

	out, _, err := runCLI(t, []string{"show", path}, env.configPath)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	requireContains(t, out, "Series")
	requireContains(t, out, "Saga")
	requireContains(t, out, "English")

	out, _, err = runCLI(t, []string{"--json", "show", path}, env.configPath)
	if err != nil {
		t.Fatalf("show --json: %v", err)
	}
	var doc comicinfo.ComicInfo
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("decode json output: %v", err)
	}
	if doc.Manga == nil || *doc.Manga != comicinfo.MangaNo {
		t.Fatalf("unexpected manga: %v", doc.Manga)
	}

	out, _, err = runCLI(t, []string{"show", "--xml", path}, env.configPath)
	if err != nil {
		t.Fatalf("show --xml: %v", err)
	}
	requireContains(t, out, comicinfo.Declaration)
	requireContains(t, out, "<Series>Saga</Series>")
}

func TestShowWarnsOnForeignExtension(t *testing.T) {
	env := setupCLITestEnv(t, "")
	path := env.archive(t, "a.zip", testsupport.ImageEntries("01.jpg"))

	out, stderr, err := runCLI(t, []string{"show", path}, env.configPath)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	requireContains(t, stderr, "does not have a .cbz extension")
	requireContains(t, out, "No metadata")
}

func TestSetCommandWritesFieldsAndBackup(t *testing.T) {
	env := setupCLITestEnv(t, "\n[archive]\nbackup = true\n")
	path := env.archive(t, "a.cbz", testsupport.ImageEntries("01.jpg", "02.jpg"))
	original, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read original: %v", err)
	}

	out, _, err := runCLI(t, []string{"set", path, "series=Saga", "Number=3", "AgeRating=Teen"}, env.configPath)
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	requireContains(t, out, "Saved metadata")
	requireContains(t, out, "2 pages")

	doc, err := cbz.ReadMetadata(path)
	if err != nil {
		t.Fatalf("ReadMetadata: %v", err)
	}
	if doc.Series == nil || *doc.Series != "Saga" || doc.Number == nil || *doc.Number != "3" {
		t.Fatalf("fields not written: %+v", doc)
	}
	if doc.AgeRating == nil || *doc.AgeRating != comicinfo.AgeRatingTeen {
		t.Fatalf("unexpected age rating: %v", doc.AgeRating)
	}

	backup, err := os.ReadFile(path + ".bak")
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if !bytes.Equal(backup, original) {
		t.Fatal("backup does not match the original archive")
	}

	if _, _, err := runCLI(t, []string{"set", path, "Number="}, env.configPath); err != nil {
		t.Fatalf("clear field: %v", err)
	}
	doc, err = cbz.ReadMetadata(path)
	if err != nil {
		t.Fatalf("ReadMetadata: %v", err)
	}
	if doc.Number != nil {
		t.Fatalf("expected Number cleared, got %q", *doc.Number)
	}

	out, _, err = runCLI(t, []string{"set", path, "Series=Saga"}, env.configPath)
	if err != nil {
		t.Fatalf("repeat set: %v", err)
	}
	requireContains(t, out, "No changes")
}

func TestSetCommandDryRunLeavesArchive(t *testing.T) {
	env := setupCLITestEnv(t, "")
	path := env.archive(t, "a.cbz", testsupport.ImageEntries("01.jpg", "02.jpg", "03.jpg"))
	before, _ := os.ReadFile(path)

	out, _, err := runCLI(t, []string{"set", "--dry-run", path, "Title=Preview"}, env.configPath)
	if err != nil {
		t.Fatalf("set --dry-run: %v", err)
	}
	requireContains(t, out, "<Title>Preview</Title>")
	requireContains(t, out, "<PageCount>3</PageCount>")

	after, _ := os.ReadFile(path)
	if !bytes.Equal(before, after) {
		t.Fatal("dry run modified the archive")
	}
}

func TestSetCommandRejectsBadInput(t *testing.T) {
	env := setupCLITestEnv(t, "")
	path := env.archive(t, "a.cbz", testsupport.ImageEntries("01.jpg"))

	cases := [][]string{
		{"set", path},
		{"set", path, "NoSuchField=1"},
		{"set", path, "Series"},
		{"set", path, "Year=soon"},
		{"set", path, "Manga=Sometimes"},
	}
	for _, args := range cases {
		if _, _, err := runCLI(t, args, env.configPath); err == nil {
			t.Fatalf("expected error for %v", args)
		}
	}
	doc, err := cbz.ReadMetadata(path)
	if err != nil {
		t.Fatalf("ReadMetadata: %v", err)
	}
	if !doc.IsEmpty() {
		t.Fatalf("archive gained metadata after failed sets: %+v", doc)
	}
}

func TestSetCommandFromJSONAndRecount(t *testing.T) {
	env := setupCLITestEnv(t, "")
	path := env.archive(t, "a.cbz", withMetadata(
		`<ComicInfo><Title>Old</Title><PageCount>99</PageCount></ComicInfo>`,
		"01.jpg", "02.jpg",
	))
	jsonPath := filepath.Join(t.TempDir(), "doc.json")
	testsupport.WriteFile(t, jsonPath, []byte(`{"Series":"Monstress","PageCount":7}`))

	if _, _, err := runCLI(t, []string{"set", "--from-json", jsonPath, path}, env.configPath); err != nil {
		t.Fatalf("set --from-json: %v", err)
	}
	doc, err := cbz.ReadMetadata(path)
	if err != nil {
		t.Fatalf("ReadMetadata: %v", err)
	}
	if doc.Title != nil {
		t.Fatalf("expected document replaced, Title still %q", *doc.Title)
	}
	if doc.PageCount == nil || *doc.PageCount != 7 {
		t.Fatalf("expected explicit page count kept, got %v", doc.PageCount)
	}

	if _, _, err := runCLI(t, []string{"set", "--recount", path}, env.configPath); err != nil {
		t.Fatalf("set --recount: %v", err)
	}
	doc, err = cbz.ReadMetadata(path)
	if err != nil {
		t.Fatalf("ReadMetadata: %v", err)
	}
	if doc.PageCount == nil || *doc.PageCount != 2 {
		t.Fatalf("expected recounted page count 2, got %v", doc.PageCount)
	}
	if doc.Series == nil || *doc.Series != "Monstress" {
		t.Fatalf("recount lost series: %v", doc.Series)
	}
}

func TestPagesAndCoverCommands(t *testing.T) {
	env := setupCLITestEnv(t, "")
	path := env.archive(t, "a.cbz", testsupport.ImageEntries("page10.png", "page2.png", "readme.txt"))

	out, _, err := runCLI(t, []string{"pages", path}, env.configPath)
	if err != nil {
		t.Fatalf("pages: %v", err)
	}
	if strings.TrimSpace(out) != "2" {
		t.Fatalf("expected 2 pages, got %q", out)
	}

	out, _, err = runCLI(t, []string{"cover", path}, env.configPath)
	if err != nil {
		t.Fatalf("cover: %v", err)
	}
	if !strings.HasPrefix(out, "data:image/png;base64,") {
		t.Fatalf("unexpected cover output %.40q", out)
	}

	target := filepath.Join(t.TempDir(), "cover.png")
	if _, _, err := runCLI(t, []string{"cover", path, "--output", target}, env.configPath); err != nil {
		t.Fatalf("cover --output: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read cover: %v", err)
	}
	if !bytes.Equal(data, bytes.Repeat([]byte("page10.png"), 64)) {
		t.Fatal("cover bytes do not match page10.png")
	}

	empty := env.archive(t, "empty.cbz", []testsupport.Entry{{Name: "readme.txt", Data: []byte("x")}})
	if _, _, err := runCLI(t, []string{"cover", empty}, env.configPath); err == nil {
		t.Fatal("expected error for archive without images")
	}
}

func TestInfoCommand(t *testing.T) {
	env := setupCLITestEnv(t, "")
	path := env.archive(t, "a.cbz", withMetadata(`<ComicInfo><Manga>Maybe</Manga></ComicInfo>`, "01.jpg"))

	out, _, err := runCLI(t, []string{"--json", "info", path}, env.configPath)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	var report struct {
		Pages         int    `json:"pages"`
		MetadataEntry string `json:"metadataEntry"`
		Metadata      string `json:"metadata"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode info: %v", err)
	}
	if report.Pages != 1 || report.MetadataEntry != "ComicInfo.xml" || report.Metadata != "parse" {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestLintCommandExitCode(t *testing.T) {
	env := setupCLITestEnv(t, "")
	clean := env.archive(t, "clean.cbz", withMetadata(`<ComicInfo><Month>4</Month></ComicInfo>`, "01.jpg"))
	dirty := env.archive(t, "dirty.cbz", withMetadata(`<ComicInfo><Month>13</Month><Web>example.com</Web></ComicInfo>`, "01.jpg"))

	if out, _, err := runCLI(t, []string{"lint", clean}, env.configPath); err != nil {
		t.Fatalf("lint clean: %v", err)
	} else {
		requireContains(t, out, "no issues")
	}

	out, _, err := runCLI(t, []string{"lint", dirty}, env.configPath)
	if err == nil {
		t.Fatal("expected lint to fail for dirty archive")
	}
	if code := exitCode(err); code != 2 {
		t.Fatalf("expected exit code 2, got %d", code)
	}
	requireContains(t, out, "Month")
	requireContains(t, out, "Web")
}

func TestLibraryCommands(t *testing.T) {
	env := setupCLITestEnv(t, "")
	for name, series := range map[string]string{"saga-01.cbz": "Saga", "ms-01.cbz": "Monstress"} {
		env.archive(t, name, withMetadata("<ComicInfo><Series>"+series+"</Series></ComicInfo>", "01.jpg"))
	}
	env.archive(t, "bare.cbz", testsupport.ImageEntries("01.jpg"))

	out, _, err := runCLI(t, []string{"library", "scan"}, env.configPath)
	if err != nil {
		t.Fatalf("library scan: %v", err)
	}
	requireContains(t, out, "3 archives")

	out, _, err = runCLI(t, []string{"library", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("library list: %v", err)
	}
	requireContains(t, out, "Saga")
	requireContains(t, out, "Monstress")
	requireContains(t, out, "bare")

	out, _, err = runCLI(t, []string{"--json", "library", "list", "--missing"}, env.configPath)
	if err != nil {
		t.Fatalf("library list --missing: %v", err)
	}
	var missing []struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal([]byte(out), &missing); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(missing) != 1 || filepath.Base(missing[0].Path) != "bare.cbz" {
		t.Fatalf("unexpected missing-metadata listing: %+v", missing)
	}

	out, _, err = runCLI(t, []string{"library", "search", "monstress"}, env.configPath)
	if err != nil {
		t.Fatalf("library search: %v", err)
	}
	requireContains(t, out, "Monstress")

	out, _, err = runCLI(t, []string{"--json", "library", "stats"}, env.configPath)
	if err != nil {
		t.Fatalf("library stats: %v", err)
	}
	requireContains(t, out, `"archives": 3`)
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t, "")
	target := filepath.Join(t.TempDir(), "nested", "config.toml")

	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected config init to refuse overwriting")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}

	out, _, err = runCLI(t, []string{"config", "validate", "--skip-bind"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v\n%s", err, out)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.configPath)
}

func TestInvalidConfigFailsBeforeCommand(t *testing.T) {
	env := setupCLITestEnv(t, "\n[bogus]\nkey = 1\n")
	_, _, err := runCLI(t, []string{"library", "list"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "load config") {
		t.Fatalf("expected config load error, got %v", err)
	}
}
